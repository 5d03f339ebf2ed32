package ledger

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"
	"strings"
)

// ProxySlotSet is the ordered, 1-indexed set of proxies a record holds.
//
// Invariants kept by every constructor and operation:
//   - the set is never empty; with nothing held it is a single empty proxy_1
//   - numbering is contiguous from 1
//   - an empty placeholder only ever sits at position 1
//
// The zero value is the canonical empty set. Values are immutable; every
// operation returns a new set.
type ProxySlotSet struct {
	slots []ProxySlot
}

// NewProxySlotSet builds a set from slots in order.
func NewProxySlotSet(slots ...ProxySlot) ProxySlotSet {
	return newProxySlotSet(slices.Clone(slots))
}

// EmptyProxySlotSet returns the canonical set holding nothing.
func EmptyProxySlotSet() ProxySlotSet {
	return ProxySlotSet{slots: []ProxySlot{{}}}
}

func newProxySlotSet(slots []ProxySlot) ProxySlotSet {
	if len(slots) == 0 {
		return EmptyProxySlotSet()
	}
	out := make([]ProxySlot, 0, len(slots))
	out = append(out, slots[0])
	for _, s := range slots[1:] {
		if s.IsEmpty() {
			continue
		}
		out = append(out, s)
	}
	return ProxySlotSet{slots: out}
}

func (s ProxySlotSet) view() []ProxySlot {
	if len(s.slots) == 0 {
		return []ProxySlot{{}}
	}
	return s.slots
}

// Len returns the number of slots, placeholder included. It is always >= 1.
func (s ProxySlotSet) Len() int {
	return len(s.view())
}

// At returns the slot at 1-based position n.
func (s ProxySlotSet) At(n int) (ProxySlot, bool) {
	v := s.view()
	if n < 1 || n > len(v) {
		return ProxySlot{}, false
	}
	return v[n-1], true
}

// Primary returns proxy_1.
func (s ProxySlotSet) Primary() ProxySlot {
	return s.view()[0]
}

// Slots returns a copy of the slots in order.
func (s ProxySlotSet) Slots() []ProxySlot {
	return slices.Clone(s.view())
}

// Entries returns the slots paired with their keys.
func (s ProxySlotSet) Entries() []NumberedSlot {
	v := s.view()
	out := make([]NumberedSlot, len(v))
	for i, slot := range v {
		out[i] = NumberedSlot{Key: ProxyKey(i + 1), Slot: slot}
	}
	return out
}

// IsTrivial reports whether the set is the canonical single empty slot.
func (s ProxySlotSet) IsTrivial() bool {
	v := s.view()
	return len(v) == 1 && v[0].IsEmpty()
}

// HeldCount returns how many slots carry a proxy.
func (s ProxySlotSet) HeldCount() int {
	n := 0
	for _, slot := range s.view() {
		if !slot.IsEmpty() {
			n++
		}
	}
	return n
}

// IndexOf returns the 1-based position of the first non-empty slot matching
// the tuple.
func (s ProxySlotSet) IndexOf(tower, unit, controlNumber string) (int, bool) {
	for i, slot := range s.view() {
		if slot.IsEmpty() {
			continue
		}
		if slot.Matches(tower, unit, controlNumber) {
			return i + 1, true
		}
	}
	return 0, false
}

// HasControlNumber reports whether any slot carries controlNumber.
func (s ProxySlotSet) HasControlNumber(controlNumber string) bool {
	if Fold(controlNumber) == "" {
		return false
	}
	for _, slot := range s.view() {
		if SameText(slot.ControlNumber, controlNumber) {
			return true
		}
	}
	return false
}

// RemoveForTransfer drops slot n the way a transfer does: taking proxy_1
// away leaves an empty placeholder in position 1 and the remaining slots
// keep positions 2..N. Any other position simply closes the gap.
func (s ProxySlotSet) RemoveForTransfer(n int) ProxySlotSet {
	if _, ok := s.At(n); !ok {
		return s
	}
	entries := without(s.Entries(), n)
	if n == 1 {
		entries = append([]NumberedSlot{{Key: ProxyKey(1)}}, entries...)
	}
	return Renumber(entries)
}

// Remove drops slot n and closes the gap. Removing the last held proxy
// yields the canonical empty set.
func (s ProxySlotSet) Remove(n int) ProxySlotSet {
	if _, ok := s.At(n); !ok {
		return s
	}
	return Renumber(without(s.Entries(), n))
}

// Append adds slot after the highest existing index.
func (s ProxySlotSet) Append(slot ProxySlot) ProxySlotSet {
	entries := s.Entries()
	entries = append(entries, NumberedSlot{Key: ProxyKey(len(entries) + 1), Slot: slot})
	return Renumber(entries)
}

// Land places a returning proxy: into proxy_1 when that slot is the empty
// placeholder, otherwise after the highest existing index.
func (s ProxySlotSet) Land(slot ProxySlot) ProxySlotSet {
	if !s.Primary().IsEmpty() {
		return s.Append(slot)
	}
	entries := s.Entries()
	entries[0].Slot = slot
	return Renumber(entries)
}

// WithPrimary replaces proxy_1 with slot, leaving the others in place.
func (s ProxySlotSet) WithPrimary(slot ProxySlot) ProxySlotSet {
	entries := s.Entries()
	entries[0].Slot = slot
	return Renumber(entries)
}

// WithControlNumber replaces the control number of slot n. An out of range
// n returns the set unchanged.
func (s ProxySlotSet) WithControlNumber(n int, controlNumber string) ProxySlotSet {
	if _, ok := s.At(n); !ok {
		return s
	}
	entries := s.Entries()
	entries[n-1].Slot.ControlNumber = strings.TrimSpace(controlNumber)
	return Renumber(entries)
}

// Equal reports whether both sets hold the same slots in the same order.
func (s ProxySlotSet) Equal(other ProxySlotSet) bool {
	return slices.Equal(s.view(), other.view())
}

// MarshalJSON renders the set as an object keyed proxy_1..proxy_N in order.
func (s ProxySlotSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Slot)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an object of numbered slots in any key order and
// renumbers it. Values that are not objects are skipped; null yields the
// canonical empty set.
func (s *ProxySlotSet) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = EmptyProxySlotSet()
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	entries := make([]NumberedSlot, 0, len(raw))
	for _, key := range sortedKeys(raw, proxyKeyPrefixes) {
		var slot ProxySlot
		if err := json.Unmarshal(raw[key], &slot); err != nil {
			continue
		}
		entries = append(entries, NumberedSlot{Key: key, Slot: slot})
	}
	*s = Renumber(entries)
	return nil
}

func without(entries []NumberedSlot, n int) []NumberedSlot {
	out := make([]NumberedSlot, 0, len(entries))
	for i, e := range entries {
		if i == n-1 {
			continue
		}
		out = append(out, e)
	}
	return out
}

// sortedKeys returns map keys ordered by numeric suffix, malformed keys
// last in lexical order, so decoding does not depend on map iteration.
func sortedKeys[V any](m map[string]V, prefixes []string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(sortIndex(a, prefixes), sortIndex(b, prefixes)),
			strings.Compare(a, b),
		)
	})
	return keys
}
