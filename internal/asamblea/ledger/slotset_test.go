package ledger_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
)

func slot(tower, unit, control string) ledger.ProxySlot {
	return ledger.ProxySlot{Tower: tower, Unit: unit, ControlNumber: control}
}

// assertContiguous checks the keys are exactly proxy_1..proxy_N and that an
// empty slot only appears at position 1.
func assertContiguous(t *testing.T, s ledger.ProxySlotSet) {
	t.Helper()
	entries := s.Entries()
	if len(entries) == 0 {
		t.Fatal("expected at least one slot")
	}
	for i, e := range entries {
		if want := fmt.Sprintf("proxy_%d", i+1); e.Key != want {
			t.Fatalf("expected key %q at position %d, got %q", want, i+1, e.Key)
		}
		if i > 0 && e.Slot.IsEmpty() {
			t.Fatalf("empty slot at position %d", i+1)
		}
	}
}

// ── Construction ─────────────────────────────────────────────────────────────

func TestZeroValueIsCanonicalEmpty(t *testing.T) {
	var s ledger.ProxySlotSet
	if s.Len() != 1 {
		t.Fatalf("expected len 1, got %d", s.Len())
	}
	if !s.IsTrivial() {
		t.Error("expected zero value to be trivial")
	}
	if !s.Equal(ledger.EmptyProxySlotSet()) {
		t.Error("expected zero value to equal the canonical empty set")
	}
}

func TestNewProxySlotSet_DropsTrailingPlaceholders(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("", "", ""), slot("1", "101", "X1"), slot("", "", ""))
	assertContiguous(t, s)
	if s.Len() != 2 {
		t.Fatalf("expected 2 slots, got %d", s.Len())
	}
	if !s.Primary().IsEmpty() {
		t.Error("expected primary placeholder to be kept")
	}
}

// ── Renumber ─────────────────────────────────────────────────────────────────

func TestRenumber_SortsBySuffixMalformedLast(t *testing.T) {
	s := ledger.Renumber([]ledger.NumberedSlot{
		{Key: "proxy_10", Slot: slot("1", "110", "")},
		{Key: "proxy_x", Slot: slot("9", "900", "")},
		{Key: "proxy_2", Slot: slot("1", "102", "")},
		{Key: "slot_1", Slot: slot("9", "901", "")},
		{Key: "proxy_1", Slot: slot("1", "101", "")},
	})
	assertContiguous(t, s)

	want := []string{"101", "102", "110", "900", "901"}
	got := s.Slots()
	if len(got) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(got))
	}
	for i, unit := range want {
		if got[i].Unit != unit {
			t.Errorf("position %d: expected unit %s, got %s", i+1, unit, got[i].Unit)
		}
	}
}

func TestRenumber_LegacyKeysAreWellFormed(t *testing.T) {
	s := ledger.Renumber([]ledger.NumberedSlot{
		{Key: "poder_2", Slot: slot("2", "202", "")},
		{Key: "poder_1", Slot: slot("1", "101", "")},
	})
	if s.Primary().Unit != "101" {
		t.Errorf("expected poder_1 first, got %s", s.Primary().Unit)
	}
}

func TestRenumber_EmptyInputIsCanonical(t *testing.T) {
	if !ledger.Renumber(nil).IsTrivial() {
		t.Error("expected canonical empty set")
	}
}

// ── Transfer-style removal ───────────────────────────────────────────────────

func TestRemoveForTransfer_PrimaryLeavesPlaceholder(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("1", "101", "C1"), slot("2", "202", ""), slot("3", "303", ""))
	got := s.RemoveForTransfer(1)
	assertContiguous(t, got)

	if got.Len() != 3 {
		t.Fatalf("expected 3 slots, got %d", got.Len())
	}
	if !got.Primary().IsEmpty() {
		t.Error("expected placeholder at proxy_1")
	}
	if second, _ := got.At(2); second.Unit != "202" {
		t.Errorf("expected proxy_2=202, got %s", second.Unit)
	}
}

func TestRemoveForTransfer_OnlyPrimaryBecomesCanonical(t *testing.T) {
	got := ledger.NewProxySlotSet(slot("1", "101", "C1")).RemoveForTransfer(1)
	if !got.IsTrivial() {
		t.Errorf("expected canonical empty set, got %d slots", got.Len())
	}
}

func TestRemoveForTransfer_MiddleClosesGap(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("", "", ""), slot("1", "101", ""), slot("2", "202", ""))
	got := s.RemoveForTransfer(2)
	assertContiguous(t, got)
	if got.Len() != 2 {
		t.Fatalf("expected 2 slots, got %d", got.Len())
	}
	if second, _ := got.At(2); second.Unit != "202" {
		t.Errorf("expected proxy_2=202, got %s", second.Unit)
	}
}

func TestRemove_OutOfRangeIsNoop(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("1", "101", ""))
	if !s.Remove(5).Equal(s) || !s.RemoveForTransfer(0).Equal(s) {
		t.Error("expected out-of-range removal to leave the set untouched")
	}
}

// ── Return-style removal ─────────────────────────────────────────────────────

func TestRemove_PrimaryShiftsOthersDown(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("1", "101", ""), slot("2", "202", ""))
	got := s.Remove(1)
	assertContiguous(t, got)
	if got.Len() != 1 || got.Primary().Unit != "202" {
		t.Errorf("expected [202], got %+v", got.Slots())
	}
}

func TestRemove_LastHeldBecomesCanonical(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("", "", ""), slot("1", "101", "X1"))
	if got := s.Remove(2); !got.IsTrivial() {
		t.Errorf("expected canonical empty set, got %+v", got.Slots())
	}
}

// ── Append / Land ────────────────────────────────────────────────────────────

func TestAppend_AfterPlaceholder(t *testing.T) {
	got := ledger.EmptyProxySlotSet().Append(slot("1", "101", "X1"))
	assertContiguous(t, got)
	if got.Len() != 2 {
		t.Fatalf("expected 2 slots, got %d", got.Len())
	}
	if !got.Primary().IsEmpty() {
		t.Error("expected placeholder to stay at proxy_1")
	}
}

func TestLand_FillsEmptyPrimary(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("", "", ""), slot("2", "202", ""))
	got := s.Land(slot("1", "101", "X1"))
	assertContiguous(t, got)
	if got.Len() != 2 || got.Primary().Unit != "101" {
		t.Errorf("expected 101 in proxy_1, got %+v", got.Slots())
	}
}

func TestLand_AppendsWhenPrimaryHeld(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("1", "101", ""))
	got := s.Land(slot("2", "202", ""))
	if got.Len() != 2 {
		t.Fatalf("expected 2 slots, got %d", got.Len())
	}
	if last, _ := got.At(2); last.Unit != "202" {
		t.Errorf("expected 202 appended, got %s", last.Unit)
	}
}

// ── Lookup ───────────────────────────────────────────────────────────────────

func TestIndexOf_TrimsAndFoldsCase(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("", "", ""), slot("Torre A", "101", "x1"))
	n, ok := s.IndexOf("  torre a ", "101", "X1 ")
	if !ok || n != 2 {
		t.Fatalf("expected match at 2, got %d ok=%v", n, ok)
	}
}

func TestIndexOf_NeverMatchesPlaceholder(t *testing.T) {
	if _, ok := ledger.EmptyProxySlotSet().IndexOf("", "", ""); ok {
		t.Error("expected blank tuple not to match the placeholder")
	}
}

func TestHasControlNumber(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("1", "101", "C-7"))
	if !s.HasControlNumber(" c-7") {
		t.Error("expected control number match")
	}
	if s.HasControlNumber("") {
		t.Error("expected blank control number never to match")
	}
}

func TestWithControlNumber_ReplacesOnlyThatSlot(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("1", "101", "A1"), slot("2", "202", "B1"))
	got := s.WithControlNumber(2, "  B9 ")
	assertContiguous(t, got)
	if p := got.Primary(); p.ControlNumber != "A1" {
		t.Errorf("expected proxy_1 untouched, got %+v", p)
	}
	if p, _ := got.At(2); p != slot("2", "202", "B9") {
		t.Errorf("expected trimmed control number in proxy_2, got %+v", p)
	}
	if !got.WithControlNumber(3, "Z").Equal(got) {
		t.Error("expected out-of-range edit to leave the set untouched")
	}
}

// ── JSON ─────────────────────────────────────────────────────────────────────

func TestProxySlotSet_JSONKeepsOrder(t *testing.T) {
	s := ledger.NewProxySlotSet(slot("1", "101", "X1"), slot("2", "202", ""))
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"proxy_1":{"tower":"1","unit":"101","control_number":"X1"},"proxy_2":{"tower":"2","unit":"202","control_number":""}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestProxySlotSet_UnmarshalRenumbersLegacyData(t *testing.T) {
	var s ledger.ProxySlotSet
	data := []byte(`{"proxy_3":{"torre":"2","apartamento":"202","numero_control":"C2"},"proxy_1":{"tower":"1","unit":"101"},"junk":"x"}`)
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	assertContiguous(t, s)
	if s.Len() != 2 {
		t.Fatalf("expected 2 slots, got %d", s.Len())
	}
	second, _ := s.At(2)
	if second.Tower != "2" || second.Unit != "202" || second.ControlNumber != "C2" {
		t.Errorf("unexpected legacy slot: %+v", second)
	}
}

func TestProxySlotSet_UnmarshalNull(t *testing.T) {
	var s ledger.ProxySlotSet
	if err := json.Unmarshal([]byte(`null`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !s.IsTrivial() {
		t.Error("expected canonical empty set from null")
	}
}
