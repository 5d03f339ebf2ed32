package types

import (
	"github.com/shopspring/decimal"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
)

type Assembly struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	CreatedBy   string  `json:"created_by,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	StartedAt   *string `json:"started_at,omitempty"`
	ClosedAt    *string `json:"closed_at,omitempty"`
}

type RosterEntry struct {
	PersonalID    string               `json:"personal_id"`
	Name          string               `json:"name"`
	Phone         string               `json:"phone,omitempty"`
	Tower         string               `json:"tower"`
	Unit          string               `json:"unit"`
	ControlNumber string               `json:"control_number,omitempty"`
	Coefficient   decimal.NullDecimal  `json:"coefficient"`
	Proxies       *ledger.ProxySlotSet `json:"proxies,omitempty"`
}

type CreateAssemblyRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	CreatedBy   string        `json:"created_by,omitempty"`
	Roster      []RosterEntry `json:"roster"`
}

type AssemblyList struct {
	Items  []Assembly `json:"items"`
	Total  int        `json:"total"`
	Offset int        `json:"offset"`
	Limit  int        `json:"limit"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}
