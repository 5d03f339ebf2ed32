package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

var hundred = decimal.NewFromInt(100)

// QuorumStats summarizes who is in the room and how much voting weight
// they carry.
type QuorumStats struct {
	TotalRecords       int             `json:"total_records"`
	PresentRecords     int             `json:"present_records"`
	TotalCoefficient   decimal.Decimal `json:"total_coefficient"`
	PresentCoefficient decimal.Decimal `json:"present_coefficient"`
	// QuorumPercent is PresentCoefficient over TotalCoefficient, as a
	// percentage rounded to four places. Zero when nothing is weighted.
	QuorumPercent decimal.Decimal `json:"quorum_percent"`
}

// StatsService derives reporting figures from an assembly's records. It
// reads without locks and tolerates stale data.
type StatsService struct {
	store store.Store
}

func NewStatsService(st store.Store) *StatsService {
	return &StatsService{store: st}
}

// HourlyEntryCounts counts arrivals per hour bucket ("09:00").
func (s *StatsService) HourlyEntryCounts(ctx context.Context, assemblyID string) (counts map[string]int, err error) {
	ctx, span := tracer.Start(ctx, "StatsService.HourlyEntryCounts")
	span.SetAttributes(assemblyAttr(assemblyID))
	defer func() { endSpan(span, err) }()

	records, err := s.records(ctx, assemblyID)
	if err != nil {
		return nil, err
	}
	return HourlyEntryCounts(records), nil
}

// QuorumStats computes the assembly's attendance and represented weight.
func (s *StatsService) QuorumStats(ctx context.Context, assemblyID string) (st QuorumStats, err error) {
	ctx, span := tracer.Start(ctx, "StatsService.QuorumStats")
	span.SetAttributes(assemblyAttr(assemblyID))
	defer func() { endSpan(span, err) }()

	records, err := s.records(ctx, assemblyID)
	if err != nil {
		return QuorumStats{}, err
	}
	return ComputeQuorum(records), nil
}

func (s *StatsService) records(ctx context.Context, assemblyID string) ([]store.AttendanceRecord, error) {
	if _, err := s.store.GetAssembly(ctx, assemblyID); err != nil {
		return nil, fromStore(err, "assembly %s", assemblyID)
	}
	records, err := s.store.ListRecords(ctx, assemblyID)
	if err != nil {
		return nil, fromStore(err, "list records")
	}
	return records, nil
}

// HourlyEntryCounts buckets every entry and re-entry of records by hour.
// Exits and times that do not parse are left out.
func HourlyEntryCounts(records []store.AttendanceRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		for _, e := range r.EntryLog.Entries() {
			if !ledger.IsArrival(e.Activity.Kind) {
				continue
			}
			if bucket, ok := ledger.ParseHourBucket(e.Activity.Time); ok {
				counts[bucket]++
			}
		}
	}
	return counts
}

// ComputeQuorum totals records and coefficients. A present record adds
// its own coefficient plus that of each unit it holds a proxy for in
// slots 2 and up. proxy_1 never counts as a held proxy, whatever it
// carries. Slots whose unit has no owner on the roster add nothing.
func ComputeQuorum(records []store.AttendanceRecord) QuorumStats {
	owners := newOwnerIndex(records)
	st := QuorumStats{
		TotalRecords:       len(records),
		TotalCoefficient:   decimal.Zero,
		PresentCoefficient: decimal.Zero,
	}
	for _, r := range records {
		own := coefficient(r)
		st.TotalCoefficient = st.TotalCoefficient.Add(own)
		if !ledger.IsPresent(r.EntryLog) {
			continue
		}
		st.PresentRecords++
		st.PresentCoefficient = st.PresentCoefficient.Add(own)
		for _, e := range r.Proxies.Entries() {
			if e.Key == ledger.ProxyKey(1) || !e.Slot.HasUnit() {
				continue
			}
			if owner, ok := owners.lookup(e.Slot.Tower, e.Slot.Unit); ok {
				st.PresentCoefficient = st.PresentCoefficient.Add(coefficient(owner))
			}
		}
	}
	st.QuorumPercent = quorumPercent(st.PresentCoefficient, st.TotalCoefficient)
	return st
}

func quorumPercent(present, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return present.Mul(hundred).DivRound(total, 4)
}

func coefficient(r store.AttendanceRecord) decimal.Decimal {
	if !r.Coefficient.Valid {
		return decimal.Zero
	}
	return r.Coefficient.Decimal
}
