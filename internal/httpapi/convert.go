package httpapi

import (
	"time"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/types"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// ── Assemblies ───────────────────────────────────────────────────────────────

func assemblyToWire(a store.Assembly) types.Assembly {
	return types.Assembly{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Status:      string(a.Status),
		CreatedBy:   a.CreatedBy,
		CreatedAt:   formatTime(a.CreatedAt),
		UpdatedAt:   formatTime(a.UpdatedAt),
		StartedAt:   formatTimePtr(a.StartedAt),
		ClosedAt:    formatTimePtr(a.ClosedAt),
	}
}

func createAssemblyFromWire(req types.CreateAssemblyRequest) service.CreateAssemblyRequest {
	roster := make([]service.RosterEntry, len(req.Roster))
	for i, e := range req.Roster {
		roster[i] = service.RosterEntry{
			PersonalID:    e.PersonalID,
			Name:          e.Name,
			Phone:         e.Phone,
			Tower:         e.Tower,
			Unit:          e.Unit,
			ControlNumber: e.ControlNumber,
			Coefficient:   e.Coefficient,
			Proxies:       e.Proxies,
		}
	}
	return service.CreateAssemblyRequest{
		Title:       req.Title,
		Description: req.Description,
		CreatedBy:   req.CreatedBy,
		Roster:      roster,
	}
}

// ── Records ──────────────────────────────────────────────────────────────────

func recordToWire(r store.AttendanceRecord) types.Record {
	return types.Record{
		ID:            r.ID,
		AssemblyID:    r.AssemblyID,
		PersonalID:    r.PersonalID,
		Name:          r.Name,
		Phone:         r.Phone,
		Tower:         r.Tower,
		Unit:          r.Unit,
		ControlNumber: r.ControlNumber,
		Coefficient:   r.Coefficient,
		EntryLog:      r.EntryLog,
		Proxies:       r.Proxies,
		Present:       ledger.IsPresent(r.EntryLog),
		NextAction:    ledger.NextActionFor(r.EntryLog),
		Version:       r.Version,
		CreatedAt:     formatTime(r.CreatedAt),
		UpdatedAt:     formatTime(r.UpdatedAt),
	}
}

func recordsToWire(rs []store.AttendanceRecord) types.RecordList {
	items := make([]types.Record, len(rs))
	for i, r := range rs {
		items[i] = recordToWire(r)
	}
	return types.RecordList{Items: items}
}

func recordPtr(r store.AttendanceRecord) *types.Record {
	w := recordToWire(r)
	return &w
}

// ── Ledger ───────────────────────────────────────────────────────────────────

func movementsToWire(ms []store.ProxyMovement) types.MovementList {
	items := make([]types.Movement, len(ms))
	for i, m := range ms {
		items[i] = types.Movement{
			ID:           m.ID,
			Kind:         string(m.Kind),
			FromRecordID: m.FromRecordID,
			ToRecordID:   m.ToRecordID,
			Slot:         m.Slot,
			At:           formatTime(m.At),
		}
	}
	return types.MovementList{Items: items}
}

func quorumToWire(st service.QuorumStats) types.QuorumStats {
	return types.QuorumStats{
		TotalRecords:       st.TotalRecords,
		PresentRecords:     st.PresentRecords,
		TotalCoefficient:   st.TotalCoefficient,
		PresentCoefficient: st.PresentCoefficient,
		QuorumPercent:      st.QuorumPercent,
	}
}
