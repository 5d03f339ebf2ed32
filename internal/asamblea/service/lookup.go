package service

import (
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

// Holding is a record together with the 1-based slot holding a proxy.
type Holding struct {
	Record store.AttendanceRecord
	Slot   int
}

// findHolder returns the first record, in list order, with a non-empty slot
// matching the tuple.
func findHolder(records []store.AttendanceRecord, tower, unit, controlNumber string) (Holding, bool) {
	for _, r := range records {
		if r.Proxies.IsTrivial() {
			continue
		}
		if n, ok := r.Proxies.IndexOf(tower, unit, controlNumber); ok {
			return Holding{Record: r, Slot: n}, true
		}
	}
	return Holding{}, false
}

// findOwner returns the first record whose own tower and unit match. A
// blank tower and unit never match.
func findOwner(records []store.AttendanceRecord, tower, unit string) (store.AttendanceRecord, bool) {
	if !(ledger.ProxySlot{Tower: tower, Unit: unit}).HasUnit() {
		return store.AttendanceRecord{}, false
	}
	for _, r := range records {
		if ledger.SameText(r.Tower, tower) && ledger.SameText(r.Unit, unit) {
			return r, true
		}
	}
	return store.AttendanceRecord{}, false
}

// ownerIndex answers findOwner for many lookups over the same list, keeping
// the first-match-in-list-order rule.
type ownerIndex map[[2]string]store.AttendanceRecord

func newOwnerIndex(records []store.AttendanceRecord) ownerIndex {
	idx := make(ownerIndex, len(records))
	for _, r := range records {
		key := [2]string{ledger.Fold(r.Tower), ledger.Fold(r.Unit)}
		if _, seen := idx[key]; !seen {
			idx[key] = r
		}
	}
	return idx
}

func (idx ownerIndex) lookup(tower, unit string) (store.AttendanceRecord, bool) {
	if !(ledger.ProxySlot{Tower: tower, Unit: unit}).HasUnit() {
		return store.AttendanceRecord{}, false
	}
	r, ok := idx[[2]string{ledger.Fold(tower), ledger.Fold(unit)}]
	return r, ok
}
