package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

func TestMovementStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seedAssembly(t, s, "asm-1")

	at := time.Date(2026, 4, 2, 19, 0, 0, 0, time.UTC)
	for i, id := range []string{"m-1", "m-2", "m-3"} {
		err := s.RecordMovement(ctx, store.ProxyMovement{
			ID: id, AssemblyID: "asm-1", Kind: store.MovementReturn,
			FromRecordID: "r-1", ToRecordID: "r-2",
			Slot: ledger.ProxySlot{Tower: "A", Unit: "101"},
			At:   at.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordMovement: %v", err)
		}
	}

	got, err := s.ListMovements(ctx, "asm-1", 2)
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m-3" || got[1].ID != "m-2" {
		t.Fatalf("unexpected movements: %+v", got)
	}
	if got[0].Kind != store.MovementReturn || got[0].Slot.Unit != "101" || !got[0].At.Equal(at.Add(2*time.Minute)) {
		t.Errorf("unexpected movement: %+v", got[0])
	}
}
