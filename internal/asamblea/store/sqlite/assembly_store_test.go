package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

func TestAssemblyStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	created := time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC)
	err := s.CreateAssembly(ctx, store.Assembly{
		ID: "asm-1", Title: "Annual", Description: "Budget", Status: store.StatusCreated,
		CreatedBy: "admin", CreatedAt: created,
	}, nil)
	if err != nil {
		t.Fatalf("CreateAssembly: %v", err)
	}

	got, err := s.GetAssembly(ctx, "asm-1")
	if err != nil {
		t.Fatalf("GetAssembly: %v", err)
	}
	if got.Title != "Annual" || got.CreatedBy != "admin" || !got.CreatedAt.Equal(created) {
		t.Errorf("unexpected assembly: %+v", got)
	}
	if got.StartedAt != nil || got.ClosedAt != nil {
		t.Error("expected no start or close time")
	}
}

func TestAssemblyStore_GetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.GetAssembly(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAssemblyStore_UpdateStampsTimes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	seedAssembly(t, s, "asm-1")

	a, _ := s.GetAssembly(ctx, "asm-1")
	started := time.Date(2026, 4, 2, 19, 0, 0, 0, time.UTC)
	a.Status = store.StatusActive
	a.StartedAt = &started
	if err := s.UpdateAssembly(ctx, a); err != nil {
		t.Fatalf("UpdateAssembly: %v", err)
	}

	got, _ := s.GetAssembly(ctx, "asm-1")
	if got.Status != store.StatusActive || got.StartedAt == nil || !got.StartedAt.Equal(started) {
		t.Errorf("unexpected assembly: %+v", got)
	}

	a.ID = "missing"
	if err := s.UpdateAssembly(ctx, a); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAssemblyStore_ListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, title := range []string{"Budget review", "Annual meeting", "Budget vote"} {
		err := s.CreateAssembly(ctx, store.Assembly{
			ID: title, Title: title, Status: store.StatusCreated,
			CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}, nil)
		if err != nil {
			t.Fatalf("CreateAssembly: %v", err)
		}
	}

	got, total, err := s.ListAssemblies(ctx, store.AssemblyFilter{Search: "BUDGET", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListAssemblies: %v", err)
	}
	if total != 2 || len(got) != 1 || got[0].Title != "Budget review" {
		t.Errorf("expected second page of budget assemblies, got total=%d %+v", total, got)
	}

	to := base.Add(24 * time.Hour)
	got, total, _ = s.ListAssemblies(ctx, store.AssemblyFilter{CreatedTo: &to})
	if total != 1 || got[0].Title != "Budget review" {
		t.Errorf("unexpected date filter result: total=%d %+v", total, got)
	}
}

func TestAssemblyStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	s, conn := newTestStore(t)
	seedAssembly(t, s, "asm-1", owner("r-1", "Ana", "A", "101", "1.5"))
	if err := s.RecordMovement(ctx, store.ProxyMovement{ID: "m-1", AssemblyID: "asm-1", Kind: store.MovementTransfer, FromRecordID: "r-1", ToRecordID: "r-1"}); err != nil {
		t.Fatalf("RecordMovement: %v", err)
	}

	if err := s.DeleteAssembly(ctx, "asm-1"); err != nil {
		t.Fatalf("DeleteAssembly: %v", err)
	}

	for _, table := range []string{"attendance_records", "proxy_movements"} {
		var n int
		if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("expected %s to be empty, got %d rows", table, n)
		}
	}
	if err := s.DeleteAssembly(ctx, "asm-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
