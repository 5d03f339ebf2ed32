package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
)

// AttendanceRecord is one owner (or owner's representative) on an
// assembly's roster.
type AttendanceRecord struct {
	ID            string
	AssemblyID    string
	PersonalID    string
	Name          string
	Phone         string
	Tower         string
	Unit          string
	ControlNumber *string
	Coefficient   decimal.NullDecimal
	EntryLog      ledger.EntryLog
	Proxies       ledger.ProxySlotSet
	// Version starts at 1 and increases with every write.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnSlot is the proxy the record holds by owning its unit.
func (r AttendanceRecord) OwnSlot() ledger.ProxySlot {
	var control string
	if r.ControlNumber != nil {
		control = *r.ControlNumber
	}
	return ledger.ProxySlot{Tower: r.Tower, Unit: r.Unit, ControlNumber: control}
}

// RecordQuery holds case-insensitive substring filters. Blank fields are
// ignored.
type RecordQuery struct {
	PersonalID    string
	Tower         string
	Unit          string
	ControlNumber string
}

// IsZero reports whether no filter is set.
func (q RecordQuery) IsZero() bool {
	return q.PersonalID == "" && q.Tower == "" && q.Unit == "" && q.ControlNumber == ""
}

// RecordUpdate is one element of an ApplyRecordUpdates batch. Nil fields
// are left unchanged. ExpectedVersion guards the write; zero skips the
// check.
type RecordUpdate struct {
	ID                 string
	ExpectedVersion    int64
	Proxies            *ledger.ProxySlotSet
	EntryLog           *ledger.EntryLog
	ControlNumber      *string
	ClearControlNumber bool
}

type RecordStore interface {
	GetRecord(ctx context.Context, id string) (AttendanceRecord, error)
	// ListRecords returns an assembly's records in roster order.
	ListRecords(ctx context.Context, assemblyID string) ([]AttendanceRecord, error)
	// SearchRecords returns records matching every set filter, by name.
	SearchRecords(ctx context.Context, assemblyID string, q RecordQuery) ([]AttendanceRecord, error)
	// SuggestRecords returns up to limit records matching any set filter
	// on tower, unit or control number, by name.
	SuggestRecords(ctx context.Context, assemblyID string, q RecordQuery, limit int) ([]AttendanceRecord, error)
	UpdateRecordProxySlots(ctx context.Context, id string, proxies ledger.ProxySlotSet) (AttendanceRecord, error)
	UpdateRecordEntryLog(ctx context.Context, id string, log ledger.EntryLog) (AttendanceRecord, error)
	// ApplyRecordUpdates applies the batch atomically. A version mismatch
	// on any element returns ErrConflict and applies nothing.
	ApplyRecordUpdates(ctx context.Context, updates ...RecordUpdate) ([]AttendanceRecord, error)
}
