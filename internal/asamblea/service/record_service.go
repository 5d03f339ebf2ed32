package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

const defaultSuggestLimit = 10

// RecordPatch carries the fields a caller may overwrite on a record. Proxy
// slots are absent on purpose: they only move through the ledger.
type RecordPatch struct {
	EntryLog           *ledger.EntryLog
	ControlNumber      *string
	ClearControlNumber bool
	// ExpectedVersion rejects the write with CONFLICT when the record has
	// moved on. Zero writes unconditionally.
	ExpectedVersion int64
}

type RecordService struct {
	store store.Store
}

func NewRecordService(st store.Store) *RecordService {
	return &RecordService{store: st}
}

func (s *RecordService) Get(ctx context.Context, id string) (store.AttendanceRecord, error) {
	r, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return store.AttendanceRecord{}, fromStore(err, "record %s", id)
	}
	return r, nil
}

// List returns every record of the assembly ordered by name.
func (s *RecordService) List(ctx context.Context, assemblyID string) ([]store.AttendanceRecord, error) {
	return s.Search(ctx, assemblyID, store.RecordQuery{})
}

// Search returns the records matching every filter that is set.
func (s *RecordService) Search(ctx context.Context, assemblyID string, q store.RecordQuery) ([]store.AttendanceRecord, error) {
	if err := s.requireAssembly(ctx, assemblyID); err != nil {
		return nil, err
	}
	out, err := s.store.SearchRecords(ctx, assemblyID, trimQuery(q))
	if err != nil {
		return nil, fromStore(err, "search records")
	}
	return out, nil
}

// SuggestProxies returns records matching any of tower, unit or control
// number, for autocomplete while typing a proxy.
func (s *RecordService) SuggestProxies(ctx context.Context, assemblyID string, q store.RecordQuery, limit int) ([]store.AttendanceRecord, error) {
	if err := s.requireAssembly(ctx, assemblyID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	q = trimQuery(q)
	q.PersonalID = ""
	out, err := s.store.SuggestRecords(ctx, assemblyID, q, limit)
	if err != nil {
		return nil, fromStore(err, "suggest records")
	}
	return out, nil
}

// Update overwrites the entry log and control number of a record.
func (s *RecordService) Update(ctx context.Context, id string, p RecordPatch) (store.AttendanceRecord, error) {
	u := store.RecordUpdate{
		ID:                 id,
		ExpectedVersion:    p.ExpectedVersion,
		EntryLog:           p.EntryLog,
		ClearControlNumber: p.ClearControlNumber,
	}
	if p.ControlNumber != nil && !p.ClearControlNumber {
		c := strings.TrimSpace(*p.ControlNumber)
		if c == "" {
			u.ClearControlNumber = true
		} else {
			u.ControlNumber = &c
		}
	}
	out, err := s.store.ApplyRecordUpdates(ctx, u)
	if err != nil {
		return store.AttendanceRecord{}, fromStore(err, "record %s", id)
	}
	return out[0], nil
}

// ControlNumberInUse returns the first record, other than excludeID, with
// a proxy slot carrying control.
func (s *RecordService) ControlNumberInUse(ctx context.Context, assemblyID, control, excludeID string) (store.AttendanceRecord, bool, error) {
	if ledger.Fold(control) == "" {
		return store.AttendanceRecord{}, false, invalidArgument("control number is required")
	}
	if err := s.requireAssembly(ctx, assemblyID); err != nil {
		return store.AttendanceRecord{}, false, err
	}
	records, err := s.store.ListRecords(ctx, assemblyID)
	if err != nil {
		return store.AttendanceRecord{}, false, fromStore(err, "list records")
	}
	for _, r := range records {
		if r.ID != excludeID && r.Proxies.HasControlNumber(control) {
			return r, true, nil
		}
	}
	return store.AttendanceRecord{}, false, nil
}

// OwnerCoefficient returns the coefficient of the unit's owner record.
// found is false when tower and unit are blank or nobody owns the unit.
func (s *RecordService) OwnerCoefficient(ctx context.Context, assemblyID, tower, unit string) (coef decimal.Decimal, found bool, err error) {
	if err := s.requireAssembly(ctx, assemblyID); err != nil {
		return decimal.Zero, false, err
	}
	records, err := s.store.ListRecords(ctx, assemblyID)
	if err != nil {
		return decimal.Zero, false, fromStore(err, "list records")
	}
	owner, ok := findOwner(records, tower, unit)
	if !ok {
		return decimal.Zero, false, nil
	}
	return coefficient(owner), true, nil
}

func (s *RecordService) requireAssembly(ctx context.Context, id string) error {
	if _, err := s.store.GetAssembly(ctx, id); err != nil {
		return fromStore(err, "assembly %s", id)
	}
	return nil
}

func trimQuery(q store.RecordQuery) store.RecordQuery {
	return store.RecordQuery{
		PersonalID:    strings.TrimSpace(q.PersonalID),
		Tower:         strings.TrimSpace(q.Tower),
		Unit:          strings.TrimSpace(q.Unit),
		ControlNumber: strings.TrimSpace(q.ControlNumber),
	}
}
