package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

// ── Reads ────────────────────────────────────────────────────────────────────

func TestRecordStore_RoundTripsLedgerColumns(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	r := owner("r-1", "Ana", "A", "101", "2.3750")
	r.Proxies = r.Proxies.Append(ledger.ProxySlot{Tower: "B", Unit: "201", ControlNumber: "X9"})
	r.EntryLog = ledger.NewEntryLog(ledger.Activity{Kind: ledger.KindEntry, Time: "9:05AM"})
	seedAssembly(t, s, "asm-1", r)

	got, err := s.GetRecord(ctx, "r-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if !got.Proxies.Equal(r.Proxies) {
		t.Errorf("proxies: expected %+v, got %+v", r.Proxies.Slots(), got.Proxies.Slots())
	}
	if !ledger.IsPresent(got.EntryLog) {
		t.Error("expected entry log to survive the round trip")
	}
	if !got.Coefficient.Valid || got.Coefficient.Decimal.String() != "2.375" {
		t.Errorf("unexpected coefficient: %+v", got.Coefficient)
	}
	if got.Version != 1 || got.AssemblyID != "asm-1" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestRecordStore_ListKeepsRosterOrder(t *testing.T) {
	s, _ := newTestStore(t)
	seedAssembly(t, s, "asm-1",
		owner("r-1", "Zoe", "A", "101", "1"),
		owner("r-2", "Ana", "A", "102", "1"),
	)

	got, err := s.ListRecords(context.Background(), "asm-1")
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r-1" || got[1].ID != "r-2" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestRecordStore_SearchAndSuggest(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seedAssembly(t, s, "asm-1",
		owner("r-1", "Carla", "A", "101", "1"),
		owner("r-2", "Ana", "A", "102", "1"),
		owner("r-3", "Bruno", "B", "201", "1"),
	)

	got, err := s.SearchRecords(ctx, "asm-1", store.RecordQuery{Tower: "a", Unit: "10"})
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Ana" || got[1].Name != "Carla" {
		t.Errorf("unexpected search result: %+v", got)
	}

	got, err = s.SuggestRecords(ctx, "asm-1", store.RecordQuery{Tower: "b", Unit: "102"}, 10)
	if err != nil {
		t.Fatalf("SuggestRecords: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Ana" || got[1].Name != "Bruno" {
		t.Errorf("unexpected suggestions: %+v", got)
	}

	got, _ = s.SuggestRecords(ctx, "asm-1", store.RecordQuery{}, 1)
	if len(got) != 1 {
		t.Errorf("expected limit 1, got %d", len(got))
	}
}

// ── Writes ───────────────────────────────────────────────────────────────────

func TestRecordStore_ApplyBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seedAssembly(t, s, "asm-1",
		owner("r-1", "Ana", "A", "101", "1"),
		owner("r-2", "Bruno", "A", "102", "1"),
	)

	empty := ledger.EmptyProxySlotSet()
	_, err := s.ApplyRecordUpdates(ctx,
		store.RecordUpdate{ID: "r-1", ExpectedVersion: 1, Proxies: &empty},
		store.RecordUpdate{ID: "r-2", ExpectedVersion: 5, Proxies: &empty},
	)
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	r1, _ := s.GetRecord(ctx, "r-1")
	if r1.Version != 1 || r1.Proxies.IsTrivial() {
		t.Errorf("expected r-1 untouched after rollback, got version %d", r1.Version)
	}
}

func TestRecordStore_ApplyBatchCommits(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seedAssembly(t, s, "asm-1",
		owner("r-1", "Ana", "A", "101", "1"),
		owner("r-2", "Bruno", "A", "102", "1"),
	)

	r1, _ := s.GetRecord(ctx, "r-1")
	r2, _ := s.GetRecord(ctx, "r-2")
	from := r1.Proxies.RemoveForTransfer(1)
	to := r2.Proxies.Append(r1.Proxies.Primary())

	out, err := s.ApplyRecordUpdates(ctx,
		store.RecordUpdate{ID: "r-1", ExpectedVersion: r1.Version, Proxies: &from},
		store.RecordUpdate{ID: "r-2", ExpectedVersion: r2.Version, Proxies: &to},
	)
	if err != nil {
		t.Fatalf("ApplyRecordUpdates: %v", err)
	}
	if len(out) != 2 || out[0].Version != 2 || out[1].Proxies.Len() != 2 {
		t.Errorf("unexpected result: %+v", out)
	}
	if !out[0].Proxies.IsTrivial() {
		t.Errorf("expected r-1 to hold nothing, got %+v", out[0].Proxies.Slots())
	}
}

func TestRecordStore_ControlNumberSetAndClear(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seedAssembly(t, s, "asm-1", owner("r-1", "Ana", "A", "101", "1"))

	control := "C-12"
	out, err := s.ApplyRecordUpdates(ctx, store.RecordUpdate{ID: "r-1", ControlNumber: &control})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if out[0].ControlNumber == nil || *out[0].ControlNumber != "C-12" {
		t.Fatalf("expected control C-12, got %v", out[0].ControlNumber)
	}

	out, err = s.ApplyRecordUpdates(ctx, store.RecordUpdate{ID: "r-1", ClearControlNumber: true})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if out[0].ControlNumber != nil {
		t.Errorf("expected control cleared, got %q", *out[0].ControlNumber)
	}
}

func TestRecordStore_UpdateEntryLogMissing(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.UpdateRecordEntryLog(context.Background(), "nope", ledger.EntryLog{})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
