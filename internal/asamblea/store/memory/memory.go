// Package memory is an in-process implementation of store.Store. It is
// intended for tests and dev environments.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

type Store struct {
	mu         sync.RWMutex
	assemblies map[string]store.Assembly
	records    map[string]store.AttendanceRecord
	roster     map[string][]string // assembly id -> record ids in roster order
	movements  []store.ProxyMovement
	now        func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		assemblies: make(map[string]store.Assembly),
		records:    make(map[string]store.AttendanceRecord),
		roster:     make(map[string][]string),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ── Assemblies ───────────────────────────────────────────────────────────────

func (s *Store) CreateAssembly(_ context.Context, a store.Assembly, records []store.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	s.assemblies[a.ID] = a

	ids := make([]string, 0, len(records))
	for _, r := range records {
		r.AssemblyID = a.ID
		if r.Version == 0 {
			r.Version = 1
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = a.CreatedAt
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
		s.records[r.ID] = cloneRecord(r)
		ids = append(ids, r.ID)
	}
	s.roster[a.ID] = ids
	return nil
}

func (s *Store) GetAssembly(_ context.Context, id string) (store.Assembly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assemblies[id]
	if !ok {
		return store.Assembly{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListAssemblies(_ context.Context, f store.AssemblyFilter) ([]store.Assembly, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []store.Assembly
	for _, a := range s.assemblies {
		if matchesAssembly(a, f) {
			matched = append(matched, a)
		}
	}
	slices.SortFunc(matched, func(a, b store.Assembly) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	total := len(matched)
	start := min(max(f.Offset, 0), total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return matched[start:end], total, nil
}

func (s *Store) UpdateAssembly(_ context.Context, a store.Assembly) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assemblies[a.ID]; !ok {
		return store.ErrNotFound
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = s.now()
	}
	s.assemblies[a.ID] = a
	return nil
}

func (s *Store) DeleteAssembly(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assemblies[id]; !ok {
		return store.ErrNotFound
	}
	for _, rid := range s.roster[id] {
		delete(s.records, rid)
	}
	delete(s.roster, id)
	delete(s.assemblies, id)
	s.movements = slices.DeleteFunc(s.movements, func(m store.ProxyMovement) bool {
		return m.AssemblyID == id
	})
	return nil
}

func matchesAssembly(a store.Assembly, f store.AssemblyFilter) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.CreatedFrom != nil && a.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !a.CreatedAt.Before(*f.CreatedTo) {
		return false
	}
	if f.Search != "" && !contains(a.Title, f.Search) && !contains(a.Description, f.Search) {
		return false
	}
	return true
}

// ── Records ──────────────────────────────────────────────────────────────────

func (s *Store) GetRecord(_ context.Context, id string) (store.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return store.AttendanceRecord{}, store.ErrNotFound
	}
	return cloneRecord(r), nil
}

func (s *Store) ListRecords(_ context.Context, assemblyID string) ([]store.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(assemblyID, func(store.AttendanceRecord) bool { return true }), nil
}

func (s *Store) SearchRecords(_ context.Context, assemblyID string, q store.RecordQuery) ([]store.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.collect(assemblyID, func(r store.AttendanceRecord) bool {
		return (q.PersonalID == "" || contains(r.PersonalID, q.PersonalID)) &&
			(q.Tower == "" || contains(r.Tower, q.Tower)) &&
			(q.Unit == "" || contains(r.Unit, q.Unit)) &&
			(q.ControlNumber == "" || contains(deref(r.ControlNumber), q.ControlNumber))
	})
	sortByName(out)
	return out, nil
}

func (s *Store) SuggestRecords(_ context.Context, assemblyID string, q store.RecordQuery, limit int) ([]store.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filtered := q.Tower != "" || q.Unit != "" || q.ControlNumber != ""
	out := s.collect(assemblyID, func(r store.AttendanceRecord) bool {
		if !filtered {
			return true
		}
		return (q.Tower != "" && contains(r.Tower, q.Tower)) ||
			(q.Unit != "" && contains(r.Unit, q.Unit)) ||
			(q.ControlNumber != "" && contains(deref(r.ControlNumber), q.ControlNumber))
	})
	sortByName(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) UpdateRecordProxySlots(ctx context.Context, id string, proxies ledger.ProxySlotSet) (store.AttendanceRecord, error) {
	out, err := s.ApplyRecordUpdates(ctx, store.RecordUpdate{ID: id, Proxies: &proxies})
	if err != nil {
		return store.AttendanceRecord{}, err
	}
	return out[0], nil
}

func (s *Store) UpdateRecordEntryLog(ctx context.Context, id string, log ledger.EntryLog) (store.AttendanceRecord, error) {
	out, err := s.ApplyRecordUpdates(ctx, store.RecordUpdate{ID: id, EntryLog: &log})
	if err != nil {
		return store.AttendanceRecord{}, err
	}
	return out[0], nil
}

func (s *Store) ApplyRecordUpdates(_ context.Context, updates ...store.RecordUpdate) ([]store.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	staged := make(map[string]store.AttendanceRecord, len(updates))
	out := make([]store.AttendanceRecord, 0, len(updates))
	for _, u := range updates {
		r, ok := staged[u.ID]
		if !ok {
			if r, ok = s.records[u.ID]; !ok {
				return nil, store.ErrNotFound
			}
		}
		if u.ExpectedVersion != 0 && r.Version != u.ExpectedVersion {
			return nil, store.ErrConflict
		}
		if u.Proxies != nil {
			r.Proxies = *u.Proxies
		}
		if u.EntryLog != nil {
			r.EntryLog = *u.EntryLog
		}
		switch {
		case u.ClearControlNumber:
			r.ControlNumber = nil
		case u.ControlNumber != nil:
			r.ControlNumber = ptr(*u.ControlNumber)
		}
		r.Version++
		r.UpdatedAt = now
		staged[u.ID] = r
		out = append(out, cloneRecord(r))
	}
	for id, r := range staged {
		s.records[id] = r
	}
	return out, nil
}

func (s *Store) collect(assemblyID string, keep func(store.AttendanceRecord) bool) []store.AttendanceRecord {
	var out []store.AttendanceRecord
	for _, id := range s.roster[assemblyID] {
		r := s.records[id]
		if keep(r) {
			out = append(out, cloneRecord(r))
		}
	}
	return out
}

// ── Movements ────────────────────────────────────────────────────────────────

func (s *Store) RecordMovement(_ context.Context, m store.ProxyMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.At.IsZero() {
		m.At = s.now()
	}
	s.movements = append(s.movements, m)
	return nil
}

func (s *Store) ListMovements(_ context.Context, assemblyID string, limit int) ([]store.ProxyMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.ProxyMovement
	for i := len(s.movements) - 1; i >= 0; i-- {
		if s.movements[i].AssemblyID != assemblyID {
			continue
		}
		out = append(out, s.movements[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func contains(field, sub string) bool {
	return strings.Contains(ledger.Fold(field), ledger.Fold(sub))
}

func sortByName(records []store.AttendanceRecord) {
	slices.SortStableFunc(records, func(a, b store.AttendanceRecord) int {
		return strings.Compare(a.Name, b.Name)
	})
}

func cloneRecord(r store.AttendanceRecord) store.AttendanceRecord {
	if r.ControlNumber != nil {
		r.ControlNumber = ptr(*r.ControlNumber)
	}
	return r
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr[T any](v T) *T { return &v }
