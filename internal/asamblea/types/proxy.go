package types

import (
	"github.com/shopspring/decimal"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
)

type TransferRequest struct {
	DestinationID string `json:"destination_id"`
	Tower         string `json:"tower"`
	Unit          string `json:"unit"`
	ControlNumber string `json:"control_number"`
}

type ReturnRequest struct {
	CurrentID     string `json:"current_id"`
	Tower         string `json:"tower"`
	Unit          string `json:"unit"`
	ControlNumber string `json:"control_number"`
}

// DropRequest names a proxy handed back whose unit has no owner record.
type DropRequest struct {
	RecordID      string `json:"record_id"`
	Tower         string `json:"tower"`
	Unit          string `json:"unit"`
	ControlNumber string `json:"control_number"`
}

type SlotControlRequest struct {
	ControlNumber string `json:"control_number"`
}

type TransferResponse struct {
	Origin      Record           `json:"origin"`
	Destination Record           `json:"destination"`
	Slot        ledger.ProxySlot `json:"slot"`
}

type ReturnResponse struct {
	Current       Record           `json:"current"`
	OriginalOwner Record           `json:"original_owner"`
	Slot          ledger.ProxySlot `json:"slot"`
}

type HolderResponse struct {
	Found  bool    `json:"found"`
	Record *Record `json:"record,omitempty"`
	Slot   string  `json:"slot,omitempty"`
}

type OwnerResponse struct {
	Found  bool    `json:"found"`
	Record *Record `json:"record,omitempty"`
}

type CoefficientResponse struct {
	Found       bool            `json:"found"`
	Coefficient decimal.Decimal `json:"coefficient"`
}

type Movement struct {
	ID           string           `json:"id"`
	Kind         string           `json:"kind"`
	FromRecordID string           `json:"from_record_id"`
	ToRecordID   string           `json:"to_record_id"`
	Slot         ledger.ProxySlot `json:"slot"`
	At           string           `json:"at"`
}

type MovementList struct {
	Items []Movement `json:"items"`
}
