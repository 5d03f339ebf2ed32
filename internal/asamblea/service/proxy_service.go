package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

const defaultMaxAttempts = 3

// ProxyTuple identifies a proxy: the absent owner's tower and unit plus the
// control number handed out with it.
type ProxyTuple struct {
	Tower         string
	Unit          string
	ControlNumber string
}

func (t ProxyTuple) slot() ledger.ProxySlot {
	return ledger.ProxySlot{Tower: t.Tower, Unit: t.Unit, ControlNumber: t.ControlNumber}
}

// TransferResult holds both records as persisted.
type TransferResult struct {
	Origin      store.AttendanceRecord
	Destination store.AttendanceRecord
	Slot        ledger.ProxySlot
}

// ReturnResult holds both records as persisted.
type ReturnResult struct {
	Current       store.AttendanceRecord
	OriginalOwner store.AttendanceRecord
	Slot          ledger.ProxySlot
}

type ProxyOptions struct {
	Logger  *slog.Logger
	Metrics *Metrics
	// MaxAttempts bounds the read-modify-write retries when a concurrent
	// writer bumps a record's version first. Defaults to 3.
	MaxAttempts int
	Now         func() time.Time
}

// ProxyService moves proxies between the records of an assembly. Every
// mutation writes both records in one versioned batch, so a racing writer
// makes the batch fail as a whole and the operation is retried from fresh
// reads.
type ProxyService struct {
	store       store.Store
	logger      *slog.Logger
	metrics     *Metrics
	maxAttempts int
	now         func() time.Time
}

func NewProxyService(st store.Store, opts ProxyOptions) *ProxyService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &ProxyService{
		store:       st,
		logger:      opts.Logger.With("component", "proxy_ledger"),
		metrics:     opts.Metrics,
		maxAttempts: opts.MaxAttempts,
		now:         opts.Now,
	}
}

// FindHolder returns the record currently holding the proxy.
func (s *ProxyService) FindHolder(ctx context.Context, assemblyID string, t ProxyTuple) (Holding, bool, error) {
	records, err := s.records(ctx, assemblyID)
	if err != nil {
		return Holding{}, false, err
	}
	h, ok := findHolder(records, t.Tower, t.Unit, t.ControlNumber)
	return h, ok, nil
}

// FindOriginalOwner returns the record whose own tower and unit match,
// wherever that unit's proxy currently sits.
func (s *ProxyService) FindOriginalOwner(ctx context.Context, assemblyID, tower, unit string) (store.AttendanceRecord, bool, error) {
	records, err := s.records(ctx, assemblyID)
	if err != nil {
		return store.AttendanceRecord{}, false, err
	}
	r, ok := findOwner(records, tower, unit)
	return r, ok, nil
}

// Transfer moves the proxy identified by t from whichever record holds it
// to the destination record, appending it after the destination's slots.
func (s *ProxyService) Transfer(ctx context.Context, assemblyID, destinationID string, t ProxyTuple) (res TransferResult, err error) {
	ctx, span := tracer.Start(ctx, "ProxyService.Transfer")
	span.SetAttributes(assemblyAttr(assemblyID), attribute.String("asamblea.destination_id", destinationID))
	defer func() { endSpan(span, err) }()

	err = s.retry(ctx, "transfer", func() error {
		dest, err := s.recordIn(ctx, assemblyID, destinationID, "destination record")
		if err != nil {
			return err
		}
		records, err := s.store.ListRecords(ctx, assemblyID)
		if err != nil {
			return fromStore(err, "list records")
		}
		holding, ok := findHolder(records, t.Tower, t.Unit, t.ControlNumber)
		if !ok {
			return notFound("no record holds proxy %s", describe(t))
		}
		origin := holding.Record
		if origin.ID == dest.ID {
			return invalidOperation("record %s already holds proxy %s", dest.ID, describe(t))
		}

		slot := t.slot()
		fromSet := removeAll(origin.Proxies, t, ledger.ProxySlotSet.RemoveForTransfer)
		toSet := dest.Proxies.Append(slot)

		out, err := s.store.ApplyRecordUpdates(ctx,
			store.RecordUpdate{ID: origin.ID, ExpectedVersion: origin.Version, Proxies: &fromSet},
			store.RecordUpdate{ID: dest.ID, ExpectedVersion: dest.Version, Proxies: &toSet},
		)
		if err != nil {
			return err
		}
		res = TransferResult{Origin: out[0], Destination: out[1], Slot: slot}
		return nil
	})
	if err != nil {
		s.metrics.movement("transfer", outcome(err))
		return TransferResult{}, err
	}

	s.metrics.movement("transfer", "ok")
	s.audit(ctx, store.MovementTransfer, assemblyID, res.Origin.ID, res.Destination.ID, res.Slot)
	s.logger.InfoContext(ctx, "proxy transferred",
		"assembly_id", assemblyID, "from", res.Origin.ID, "to", res.Destination.ID,
		"tower", res.Slot.Tower, "unit", res.Slot.Unit)
	return res, nil
}

// Return sends the proxy identified by t from the current record back to
// the unit's original owner, landing it in the owner's empty primary slot
// when there is one.
func (s *ProxyService) Return(ctx context.Context, assemblyID, currentID string, t ProxyTuple) (res ReturnResult, err error) {
	ctx, span := tracer.Start(ctx, "ProxyService.Return")
	span.SetAttributes(assemblyAttr(assemblyID), attribute.String("asamblea.current_id", currentID))
	defer func() { endSpan(span, err) }()

	err = s.retry(ctx, "return", func() error {
		current, err := s.recordIn(ctx, assemblyID, currentID, "current record")
		if err != nil {
			return err
		}
		records, err := s.store.ListRecords(ctx, assemblyID)
		if err != nil {
			return fromStore(err, "list records")
		}
		owner, ok := findOwner(records, t.Tower, t.Unit)
		if !ok {
			return notFound("no owner for tower %q unit %q", t.Tower, t.Unit)
		}
		if owner.ID == current.ID {
			return invalidOperation("proxy %s already belongs to record %s", describe(t), current.ID)
		}
		if _, held := current.Proxies.IndexOf(t.Tower, t.Unit, t.ControlNumber); !held {
			return notFound("record %s does not hold proxy %s", current.ID, describe(t))
		}

		slot := t.slot()
		fromSet := removeAll(current.Proxies, t, ledger.ProxySlotSet.Remove)
		toSet := owner.Proxies.Land(slot)

		out, err := s.store.ApplyRecordUpdates(ctx,
			store.RecordUpdate{ID: current.ID, ExpectedVersion: current.Version, Proxies: &fromSet},
			store.RecordUpdate{ID: owner.ID, ExpectedVersion: owner.Version, Proxies: &toSet},
		)
		if err != nil {
			return err
		}
		res = ReturnResult{Current: out[0], OriginalOwner: out[1], Slot: slot}
		return nil
	})
	if err != nil {
		s.metrics.movement("return", outcome(err))
		return ReturnResult{}, err
	}

	s.metrics.movement("return", "ok")
	s.audit(ctx, store.MovementReturn, assemblyID, res.Current.ID, res.OriginalOwner.ID, res.Slot)
	s.logger.InfoContext(ctx, "proxy returned",
		"assembly_id", assemblyID, "from", res.Current.ID, "to", res.OriginalOwner.ID,
		"tower", res.Slot.Tower, "unit", res.Slot.Unit)
	return res, nil
}

// SetSlotControl records the control number handed out with the proxy in
// slot n of the record. The number must not already be carried by any
// other slot in the assembly.
func (s *ProxyService) SetSlotControl(ctx context.Context, assemblyID, recordID string, n int, control string) (rec store.AttendanceRecord, err error) {
	ctx, span := tracer.Start(ctx, "ProxyService.SetSlotControl")
	span.SetAttributes(assemblyAttr(assemblyID), attribute.String("asamblea.record_id", recordID))
	defer func() { endSpan(span, err) }()

	control = strings.TrimSpace(control)
	if control == "" {
		return store.AttendanceRecord{}, invalidArgument("control number is required")
	}
	if n < 1 {
		return store.AttendanceRecord{}, invalidArgument("slot must be 1 or greater, got %d", n)
	}

	err = s.retry(ctx, "set_control", func() error {
		r, err := s.recordIn(ctx, assemblyID, recordID, "record")
		if err != nil {
			return err
		}
		slot, ok := r.Proxies.At(n)
		if !ok {
			return notFound("record %s has no %s", recordID, ledger.ProxyKey(n))
		}
		if slot.IsEmpty() {
			return invalidOperation("record %s holds no proxy in %s", recordID, ledger.ProxyKey(n))
		}
		records, err := s.store.ListRecords(ctx, assemblyID)
		if err != nil {
			return fromStore(err, "list records")
		}
		if other, used := controlHolder(records, control, recordID, n); used {
			return conflict("control number %q is already used by record %s", control, other)
		}

		set := r.Proxies.WithControlNumber(n, control)
		out, err := s.store.ApplyRecordUpdates(ctx,
			store.RecordUpdate{ID: r.ID, ExpectedVersion: r.Version, Proxies: &set},
		)
		if err != nil {
			return err
		}
		rec = out[0]
		return nil
	})
	if err != nil {
		return store.AttendanceRecord{}, err
	}

	s.logger.InfoContext(ctx, "proxy control number set",
		"assembly_id", assemblyID, "record_id", recordID, "slot", n, "control_number", control)
	return rec, nil
}

// Drop removes the proxy identified by t from the record without handing
// it to anyone. It is meant for a proxy handed back whose unit has no owner
// record; when the owner exists the proxy must go through Return instead.
func (s *ProxyService) Drop(ctx context.Context, assemblyID, recordID string, t ProxyTuple) (rec store.AttendanceRecord, err error) {
	ctx, span := tracer.Start(ctx, "ProxyService.Drop")
	span.SetAttributes(assemblyAttr(assemblyID), attribute.String("asamblea.record_id", recordID))
	defer func() { endSpan(span, err) }()

	err = s.retry(ctx, "drop", func() error {
		r, err := s.recordIn(ctx, assemblyID, recordID, "record")
		if err != nil {
			return err
		}
		if _, held := r.Proxies.IndexOf(t.Tower, t.Unit, t.ControlNumber); !held {
			return notFound("record %s does not hold proxy %s", r.ID, describe(t))
		}
		records, err := s.store.ListRecords(ctx, assemblyID)
		if err != nil {
			return fromStore(err, "list records")
		}
		if owner, ok := findOwner(records, t.Tower, t.Unit); ok && owner.ID != r.ID {
			return invalidOperation("proxy %s has owner record %s, return it instead", describe(t), owner.ID)
		}

		set := removeAll(r.Proxies, t, ledger.ProxySlotSet.Remove)
		out, err := s.store.ApplyRecordUpdates(ctx,
			store.RecordUpdate{ID: r.ID, ExpectedVersion: r.Version, Proxies: &set},
		)
		if err != nil {
			return err
		}
		rec = out[0]
		return nil
	})
	if err != nil {
		s.metrics.movement("drop", outcome(err))
		return store.AttendanceRecord{}, err
	}

	s.metrics.movement("drop", "ok")
	s.logger.InfoContext(ctx, "proxy dropped",
		"assembly_id", assemblyID, "record_id", recordID, "tower", t.Tower, "unit", t.Unit)
	return rec, nil
}

// Movements lists the assembly's proxy movements, newest first.
func (s *ProxyService) Movements(ctx context.Context, assemblyID string, limit int) ([]store.ProxyMovement, error) {
	if _, err := s.store.GetAssembly(ctx, assemblyID); err != nil {
		return nil, fromStore(err, "assembly %s", assemblyID)
	}
	ms, err := s.store.ListMovements(ctx, assemblyID, limit)
	if err != nil {
		return nil, fromStore(err, "list movements")
	}
	return ms, nil
}

func (s *ProxyService) retry(ctx context.Context, op string, fn func() error) error {
	return retryConflicts(ctx, s.logger, s.metrics, s.maxAttempts, op, fn)
}

// audit appends to the movement log. A failed write is logged and never
// fails the ledger operation that already committed.
func (s *ProxyService) audit(ctx context.Context, kind store.MovementKind, assemblyID, from, to string, slot ledger.ProxySlot) {
	m := store.ProxyMovement{
		ID:           uuid.NewString(),
		AssemblyID:   assemblyID,
		Kind:         kind,
		FromRecordID: from,
		ToRecordID:   to,
		Slot:         slot,
		At:           s.now(),
	}
	if err := s.store.RecordMovement(ctx, m); err != nil {
		s.metrics.auditFailed()
		s.logger.WarnContext(ctx, "movement audit write failed", "kind", kind, "assembly_id", assemblyID, "err", err)
	}
}

func (s *ProxyService) records(ctx context.Context, assemblyID string) ([]store.AttendanceRecord, error) {
	if _, err := s.store.GetAssembly(ctx, assemblyID); err != nil {
		return nil, fromStore(err, "assembly %s", assemblyID)
	}
	records, err := s.store.ListRecords(ctx, assemblyID)
	if err != nil {
		return nil, fromStore(err, "list records")
	}
	return records, nil
}

// recordIn loads a record and checks that it belongs to the assembly.
func (s *ProxyService) recordIn(ctx context.Context, assemblyID, recordID, what string) (store.AttendanceRecord, error) {
	r, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return store.AttendanceRecord{}, fromStore(err, "%s %s", what, recordID)
	}
	if r.AssemblyID != assemblyID {
		return store.AttendanceRecord{}, notFound("%s %s not found in assembly %s", what, recordID, assemblyID)
	}
	return r, nil
}

// controlHolder returns the record carrying control in any slot other than
// slot n of recordID.
func controlHolder(records []store.AttendanceRecord, control, recordID string, n int) (string, bool) {
	for _, r := range records {
		for _, e := range r.Proxies.Entries() {
			if r.ID == recordID && e.Key == ledger.ProxyKey(n) {
				continue
			}
			if ledger.SameText(e.Slot.ControlNumber, control) {
				return r.ID, true
			}
		}
	}
	return "", false
}

// removeAll drops every slot matching t. The ledger keeps a proxy in a
// single slot, but imported data may repeat one.
func removeAll(set ledger.ProxySlotSet, t ProxyTuple, remove func(ledger.ProxySlotSet, int) ledger.ProxySlotSet) ledger.ProxySlotSet {
	for {
		n, ok := set.IndexOf(t.Tower, t.Unit, t.ControlNumber)
		if !ok {
			return set
		}
		set = remove(set, n)
	}
}

func describe(t ProxyTuple) string {
	return "{" + strings.Join([]string{t.Tower, t.Unit, t.ControlNumber}, "/") + "}"
}
