package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/BrandonDHaskell/Asamblea/internal/asamblea/errors"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store/memory"
)

func newAttendanceService(st store.Store, clock *fakeClock, m *service.Metrics) *service.AttendanceService {
	return service.NewAttendanceService(st, service.AttendanceOptions{
		Logger:   silentLogger(),
		Metrics:  m,
		Location: time.UTC,
		Now:      clock.Now,
	})
}

func seedDoor(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	seed(t, st, store.StatusActive,
		withProxies(owner("A", "Ana", "1", "101", "1"), slot("1", "101", "")),
		withProxies(owner("B", "Bruno", "2", "202", "1"), slot("2", "202", "B-1")),
		withProxies(owner("C", "Carla", "3", "303", "1"), slot("", "", ""), slot("4", "404", "D-1")),
	)
	return st
}

func TestRegister_EntryExitReEntry(t *testing.T) {
	st := seedDoor(t)
	clock := &fakeClock{now: testClock}
	reg := prometheus.NewRegistry()
	svc := newAttendanceService(st, clock, service.NewMetrics(reg))
	ctx := context.Background()

	next, err := svc.NextAction(ctx, "A")
	if err != nil {
		t.Fatalf("NextAction: %v", err)
	}
	if next.Kind != ledger.KindEntry || !next.NeedsControlNumber {
		t.Fatalf("expected entry needing a control, got %+v", next)
	}

	in, err := svc.Register(ctx, "A", " A-7 ")
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if in.Activity != (ledger.Activity{Kind: ledger.KindEntry, Time: "9:05AM"}) {
		t.Errorf("unexpected activity %+v", in.Activity)
	}
	if in.Record.ControlNumber == nil || *in.Record.ControlNumber != "A-7" {
		t.Errorf("expected control A-7 on the record, got %v", in.Record.ControlNumber)
	}
	if got := in.Record.Proxies.Primary(); got != slot("1", "101", "A-7") {
		t.Errorf("expected proxy_1 to carry A-7, got %+v", got)
	}
	if !ledger.IsPresent(in.Record.EntryLog) {
		t.Error("expected A present after entry")
	}

	clock.now = testClock.Add(6 * time.Hour)
	out, err := svc.Register(ctx, "A", "")
	if err != nil {
		t.Fatalf("exit: %v", err)
	}
	if out.Activity.Kind != ledger.KindExit || out.Activity.Time != "3:05PM" {
		t.Errorf("unexpected exit activity %+v", out.Activity)
	}
	if out.Record.ControlNumber != nil {
		t.Errorf("expected control cleared on exit, got %q", *out.Record.ControlNumber)
	}
	if ledger.IsPresent(out.Record.EntryLog) {
		t.Error("expected A absent after exit")
	}

	back, err := svc.Register(ctx, "A", "A-8")
	if err != nil {
		t.Fatalf("re-entry: %v", err)
	}
	if back.Activity.Kind != ledger.KindReEntry || back.Record.EntryLog.Len() != 3 {
		t.Errorf("expected third activity to be a re-entry, got %+v", back.Activity)
	}

	if v := metricValue(t, reg, "asamblea_attendance_registrations_total", map[string]string{"kind": "entry"}); v != 1 {
		t.Errorf("expected 1 entry counted, got %v", v)
	}
}

func TestRegister_FillsPrimaryUnitFromRecord(t *testing.T) {
	st := memory.New()
	seed(t, st, store.StatusActive, owner("A", "Ana", "1", "101", "1"))
	svc := newAttendanceService(st, &fakeClock{now: testClock}, nil)

	if _, err := st.UpdateRecordProxySlots(context.Background(), "A", ledger.NewProxySlotSet(slot("", "", "OLD"))); err != nil {
		t.Fatalf("seed proxies: %v", err)
	}
	reg, err := svc.Register(context.Background(), "A", "N-1")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := reg.Record.Proxies.Primary(); got != slot("1", "101", "N-1") {
		t.Errorf("expected own unit with the new control, got %+v", got)
	}
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		recordID string
		control  string
		want     apperrors.Code
	}{
		{"missing control on arrival", "A", "  ", apperrors.CodeInvalidArgument},
		{"control held in another record's proxies", "A", "b-1", apperrors.CodeConflict},
		{"control held in another record's proxy_2", "A", "D-1", apperrors.CodeConflict},
		{"primary proxy transferred away", "C", "C-1", apperrors.CodeInvalidOperation},
		{"unknown record", "Z", "Z-1", apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := seedDoor(t)
			svc := newAttendanceService(st, &fakeClock{now: testClock}, nil)

			_, err := svc.Register(context.Background(), tt.recordID, tt.control)
			assertCode(t, err, tt.want)

			if tt.recordID != "Z" {
				if r := mustRecord(t, st, tt.recordID); r.EntryLog.Len() != 0 || r.Version != 1 {
					t.Errorf("expected record untouched, got %d entries v%d", r.EntryLog.Len(), r.Version)
				}
			}
		})
	}
}

func TestRegister_ControlHeldAsOwnNumber(t *testing.T) {
	st := seedDoor(t)
	control := "K-1"
	if _, err := st.ApplyRecordUpdates(context.Background(), store.RecordUpdate{ID: "B", ControlNumber: &control}); err != nil {
		t.Fatalf("seed control: %v", err)
	}
	svc := newAttendanceService(st, &fakeClock{now: testClock}, nil)

	_, err := svc.Register(context.Background(), "A", "k-1")
	assertCode(t, err, apperrors.CodeConflict)
}

func TestRegister_SameRecordMayReuseItsControl(t *testing.T) {
	st := seedDoor(t)
	svc := newAttendanceService(st, &fakeClock{now: testClock}, nil)

	if _, err := svc.Register(context.Background(), "B", "B-1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestRegister_RetriesVersionConflicts(t *testing.T) {
	ms := seedDoor(t)
	st := &racyStore{Store: ms}
	st.conflicts.Store(1)
	svc := newAttendanceService(st, &fakeClock{now: testClock}, nil)

	reg, err := svc.Register(context.Background(), "A", "A-7")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if reg.Record.EntryLog.Len() != 1 {
		t.Errorf("expected a single entry after the retry, got %d", reg.Record.EntryLog.Len())
	}
}
