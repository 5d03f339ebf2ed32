package types

import (
	"github.com/shopspring/decimal"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
)

type Record struct {
	ID            string              `json:"id"`
	AssemblyID    string              `json:"assembly_id"`
	PersonalID    string              `json:"personal_id"`
	Name          string              `json:"name"`
	Phone         string              `json:"phone,omitempty"`
	Tower         string              `json:"tower"`
	Unit          string              `json:"unit"`
	ControlNumber *string             `json:"control_number"`
	Coefficient   decimal.NullDecimal `json:"coefficient"`
	EntryLog      ledger.EntryLog     `json:"entry_log"`
	Proxies       ledger.ProxySlotSet `json:"proxies"`
	Present       bool                `json:"present"`
	NextAction    ledger.NextAction   `json:"next_action"`
	Version       int64               `json:"version"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

type RecordList struct {
	Items []Record `json:"items"`
}

// UpdateRecordRequest overwrites the entry log and/or the control number.
// An empty control_number clears it.
type UpdateRecordRequest struct {
	EntryLog        *ledger.EntryLog `json:"entry_log,omitempty"`
	ControlNumber   *string          `json:"control_number,omitempty"`
	ExpectedVersion int64            `json:"expected_version,omitempty"`
}

type AttendanceRequest struct {
	ControlNumber string `json:"control_number,omitempty"`
}

type AttendanceResponse struct {
	Record   Record          `json:"record"`
	Activity ledger.Activity `json:"activity"`
}

type ControlNumberCheck struct {
	InUse    bool   `json:"in_use"`
	RecordID string `json:"record_id,omitempty"`
	Name     string `json:"name,omitempty"`
}
