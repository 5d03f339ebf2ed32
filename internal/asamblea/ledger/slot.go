// Package ledger holds the proxy and attendance structures of an assembly
// record: the numbered proxy slot set, the numbered activity log, and the
// pure functions that interpret them.
package ledger

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
)

// ProxySlot identifies one delegated proxy by the absent owner's tower and
// unit plus the control number handed out at the door. A slot whose three
// fields are blank is the placeholder meaning "no proxy held here".
type ProxySlot struct {
	Tower         string `json:"tower"`
	Unit          string `json:"unit"`
	ControlNumber string `json:"control_number"`
}

// IsEmpty reports whether the slot is the placeholder.
func (p ProxySlot) IsEmpty() bool {
	return strings.TrimSpace(p.Tower) == "" &&
		strings.TrimSpace(p.Unit) == "" &&
		strings.TrimSpace(p.ControlNumber) == ""
}

// HasUnit reports whether the slot names a tower or a unit, which is what
// an owner lookup needs.
func (p ProxySlot) HasUnit() bool {
	return strings.TrimSpace(p.Tower) != "" || strings.TrimSpace(p.Unit) != ""
}

// Matches compares the slot against a (tower, unit, control number) tuple
// with surrounding whitespace trimmed and case folded.
func (p ProxySlot) Matches(tower, unit, controlNumber string) bool {
	return SameText(p.Tower, tower) &&
		SameText(p.Unit, unit) &&
		SameText(p.ControlNumber, controlNumber)
}

// UnmarshalJSON accepts the current field names as well as the Spanish
// names used by records exported from the legacy system.
func (p *ProxySlot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Tower         string `json:"tower"`
		Unit          string `json:"unit"`
		ControlNumber string `json:"control_number"`
		Torre         string `json:"torre"`
		NumeroTorre   string `json:"numero_torre"`
		Apartamento   string `json:"apartamento"`
		NumeroApto    string `json:"numero_apartamento"`
		NumeroControl string `json:"numero_control"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ProxySlot{
		Tower:         firstNonEmpty(raw.Tower, raw.Torre, raw.NumeroTorre),
		Unit:          firstNonEmpty(raw.Unit, raw.Apartamento, raw.NumeroApto),
		ControlNumber: firstNonEmpty(raw.ControlNumber, raw.NumeroControl),
	}
	return nil
}

// Fold normalizes s for identity comparisons: trimmed and case folded.
func Fold(s string) string {
	// A Caser carries state, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

// SameText reports whether a and b are equal under Fold.
func SameText(a, b string) bool {
	return Fold(a) == Fold(b)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
