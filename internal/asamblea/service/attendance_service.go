package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/BrandonDHaskell/Asamblea/internal/asamblea/errors"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

type AttendanceOptions struct {
	Logger      *slog.Logger
	Metrics     *Metrics
	MaxAttempts int
	// Location is the zone door times are written in.
	Location *time.Location
	Now      func() time.Time
}

// Registration is the outcome of Register.
type Registration struct {
	Record   store.AttendanceRecord
	Activity ledger.Activity
}

// AttendanceService records arrivals and departures at the door.
type AttendanceService struct {
	store       store.Store
	logger      *slog.Logger
	metrics     *Metrics
	maxAttempts int
	loc         *time.Location
	now         func() time.Time
}

func NewAttendanceService(st store.Store, opts AttendanceOptions) *AttendanceService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AttendanceService{
		store:       st,
		logger:      opts.Logger.With("component", "attendance"),
		metrics:     opts.Metrics,
		maxAttempts: opts.MaxAttempts,
		loc:         opts.Location,
		now:         opts.Now,
	}
}

// NextAction reports what the desk should record next for the record.
func (s *AttendanceService) NextAction(ctx context.Context, recordID string) (ledger.NextAction, error) {
	r, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return ledger.NextAction{}, fromStore(err, "record %s", recordID)
	}
	return ledger.NextActionFor(r.EntryLog), nil
}

// Register appends the record's next activity stamped with the current
// clock. Arrivals hand out controlNumber, which is written to the record
// and to its proxy_1; an exit clears the record's control number.
func (s *AttendanceService) Register(ctx context.Context, recordID, controlNumber string) (reg Registration, err error) {
	ctx, span := tracer.Start(ctx, "AttendanceService.Register")
	span.SetAttributes(attribute.String("asamblea.record_id", recordID))
	defer func() { endSpan(span, err) }()

	control := strings.TrimSpace(controlNumber)
	err = retryConflicts(ctx, s.logger, s.metrics, s.maxAttempts, "register attendance", func() error {
		r, err := s.store.GetRecord(ctx, recordID)
		if err != nil {
			return fromStore(err, "record %s", recordID)
		}
		if r.Proxies.Primary().IsEmpty() {
			return invalidOperation("record %s has transferred its own proxy and cannot register attendance", r.ID)
		}

		next := ledger.NextActionFor(r.EntryLog)
		activity := ledger.Activity{Kind: next.Kind, Time: ledger.ClockString(s.now().In(s.loc))}
		log := r.EntryLog.Append(activity)
		u := store.RecordUpdate{ID: r.ID, ExpectedVersion: r.Version, EntryLog: &log}

		if next.NeedsControlNumber {
			if control == "" {
				return invalidArgument("a control number is required for %s", next.Kind)
			}
			if err := s.checkControlFree(ctx, r, control); err != nil {
				return err
			}
			primary := r.Proxies.Primary()
			if !primary.HasUnit() {
				primary.Tower, primary.Unit = r.Tower, r.Unit
			}
			primary.ControlNumber = control
			proxies := r.Proxies.WithPrimary(primary)
			u.Proxies = &proxies
			u.ControlNumber = &control
		} else {
			u.ClearControlNumber = true
		}

		out, err := s.store.ApplyRecordUpdates(ctx, u)
		if err != nil {
			return err
		}
		reg = Registration{Record: out[0], Activity: activity}
		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	s.metrics.registered(reg.Activity.Kind)
	s.logger.InfoContext(ctx, "attendance registered",
		"assembly_id", reg.Record.AssemblyID, "record_id", reg.Record.ID,
		"kind", reg.Activity.Kind, "time", reg.Activity.Time)
	return reg, nil
}

// checkControlFree fails with CONFLICT when another record of the assembly
// already carries control, either as its own control number or in one of
// its proxy slots.
func (s *AttendanceService) checkControlFree(ctx context.Context, r store.AttendanceRecord, control string) error {
	records, err := s.store.ListRecords(ctx, r.AssemblyID)
	if err != nil {
		return fromStore(err, "list records")
	}
	for _, other := range records {
		if other.ID == r.ID {
			continue
		}
		if other.Proxies.HasControlNumber(control) ||
			(other.ControlNumber != nil && ledger.SameText(*other.ControlNumber, control)) {
			return apperrors.New(apperrors.CodeConflict, "control number "+control+" is already assigned to "+other.Name)
		}
	}
	return nil
}
