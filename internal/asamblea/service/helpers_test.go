package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/goleak"

	apperrors "github.com/BrandonDHaskell/Asamblea/internal/asamblea/errors"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testAssembly = "asm-1"

var testClock = time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func slot(tower, unit, control string) ledger.ProxySlot {
	return ledger.ProxySlot{Tower: tower, Unit: unit, ControlNumber: control}
}

func coef(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func owner(id, name, tower, unit, coefficient string) store.AttendanceRecord {
	r := store.AttendanceRecord{
		ID:         id,
		PersonalID: "P-" + id,
		Name:       name,
		Tower:      tower,
		Unit:       unit,
		Proxies:    ledger.EmptyProxySlotSet(),
	}
	if coefficient != "" {
		r.Coefficient = coef(coefficient)
	}
	return r
}

func withProxies(r store.AttendanceRecord, slots ...ledger.ProxySlot) store.AttendanceRecord {
	r.Proxies = ledger.NewProxySlotSet(slots...)
	return r
}

func withLog(r store.AttendanceRecord, activities ...ledger.Activity) store.AttendanceRecord {
	r.EntryLog = ledger.NewEntryLog(activities...)
	return r
}

func seed(t *testing.T, st store.Store, status store.AssemblyStatus, records ...store.AttendanceRecord) {
	t.Helper()
	a := store.Assembly{ID: testAssembly, Title: "Annual meeting", Status: status, CreatedAt: testClock}
	if err := st.CreateAssembly(context.Background(), a, records); err != nil {
		t.Fatalf("seed assembly: %v", err)
	}
}

func mustRecord(t *testing.T, st store.Store, id string) store.AttendanceRecord {
	t.Helper()
	r, err := st.GetRecord(context.Background(), id)
	if err != nil {
		t.Fatalf("GetRecord(%s): %v", id, err)
	}
	return r
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperrors.CodeOf(err); got != want {
		t.Fatalf("expected code %s, got %s (%v)", want, got, err)
	}
}

// racyStore makes the first `conflicts` versioned batches fail the way a
// concurrent writer would.
type racyStore struct {
	*memory.Store
	conflicts atomic.Int32
	calls     atomic.Int32
}

func (s *racyStore) ApplyRecordUpdates(ctx context.Context, updates ...store.RecordUpdate) ([]store.AttendanceRecord, error) {
	s.calls.Add(1)
	if s.conflicts.Add(-1) >= 0 {
		return nil, store.ErrConflict
	}
	return s.Store.ApplyRecordUpdates(ctx, updates...)
}

// brokenAuditStore fails every movement write.
type brokenAuditStore struct {
	*memory.Store
}

func (brokenAuditStore) RecordMovement(context.Context, store.ProxyMovement) error {
	return errors.New("disk full")
}

// metricValue reads a counter or gauge from reg by name and label values.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metrics:
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}
