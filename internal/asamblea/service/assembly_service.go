package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/ledger"
	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

const (
	defaultAssemblyPageSize = 100
	dateLayout              = "2006-01-02"
)

// RosterEntry is one owner listed when an assembly is created.
type RosterEntry struct {
	PersonalID    string
	Name          string
	Phone         string
	Tower         string
	Unit          string
	ControlNumber string
	Coefficient   decimal.NullDecimal
	// Proxies seeds an existing delegation. When nil the record starts
	// holding its own unit in proxy_1.
	Proxies *ledger.ProxySlotSet
}

type CreateAssemblyRequest struct {
	Title       string
	Description string
	CreatedBy   string
	Roster      []RosterEntry
}

// AssemblyQuery is the caller's view of store.AssemblyFilter. Dates are
// YYYY-MM-DD in the service's time zone; both ends are inclusive and
// dates that do not parse are ignored.
type AssemblyQuery struct {
	Search string
	Status string
	From   string
	To     string
	Offset int
	Limit  int
}

type AssemblyOptions struct {
	Logger   *slog.Logger
	Metrics  *Metrics
	Location *time.Location
	Now      func() time.Time
}

// AssemblyService owns the assembly lifecycle: CREATED, then ACTIVE, then
// CLOSED.
type AssemblyService struct {
	store   store.Store
	logger  *slog.Logger
	metrics *Metrics
	loc     *time.Location
	now     func() time.Time
}

func NewAssemblyService(st store.Store, opts AssemblyOptions) *AssemblyService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &AssemblyService{
		store:   st,
		logger:  opts.Logger.With("component", "assemblies"),
		metrics: opts.Metrics,
		loc:     opts.Location,
		now:     opts.Now,
	}
}

// Create stores a new assembly in CREATED status together with its roster.
func (s *AssemblyService) Create(ctx context.Context, req CreateAssemblyRequest) (a store.Assembly, err error) {
	ctx, span := tracer.Start(ctx, "AssemblyService.Create")
	defer func() { endSpan(span, err) }()

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return store.Assembly{}, invalidArgument("title is required")
	}

	now := s.now()
	a = store.Assembly{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      store.StatusCreated,
		CreatedBy:   strings.TrimSpace(req.CreatedBy),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	records := make([]store.AttendanceRecord, 0, len(req.Roster))
	for i, e := range req.Roster {
		r, err := newRosterRecord(a.ID, e, now)
		if err != nil {
			return store.Assembly{}, invalidArgument("roster row %d: %v", i+1, err)
		}
		records = append(records, r)
	}

	if err := s.store.CreateAssembly(ctx, a, records); err != nil {
		return store.Assembly{}, fromStore(err, "create assembly")
	}
	s.logger.InfoContext(ctx, "assembly created", "assembly_id", a.ID, "records", len(records))
	return a, nil
}

func newRosterRecord(assemblyID string, e RosterEntry, now time.Time) (store.AttendanceRecord, error) {
	personalID := strings.TrimSpace(e.PersonalID)
	name := strings.TrimSpace(e.Name)
	switch {
	case personalID == "":
		return store.AttendanceRecord{}, errors.New("personal id is required")
	case name == "":
		return store.AttendanceRecord{}, errors.New("name is required")
	case e.Coefficient.Valid && e.Coefficient.Decimal.IsNegative():
		return store.AttendanceRecord{}, errors.New("coefficient must not be negative")
	}

	r := store.AttendanceRecord{
		ID:          uuid.NewString(),
		AssemblyID:  assemblyID,
		PersonalID:  personalID,
		Name:        name,
		Phone:       strings.TrimSpace(e.Phone),
		Tower:       strings.TrimSpace(e.Tower),
		Unit:        strings.TrimSpace(e.Unit),
		Coefficient: e.Coefficient,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c := strings.TrimSpace(e.ControlNumber); c != "" {
		r.ControlNumber = &c
	}
	if e.Proxies != nil {
		r.Proxies = *e.Proxies
	} else {
		r.Proxies = ledger.NewProxySlotSet(ledger.ProxySlot{Tower: r.Tower, Unit: r.Unit})
	}
	return r, nil
}

func (s *AssemblyService) Get(ctx context.Context, id string) (store.Assembly, error) {
	a, err := s.store.GetAssembly(ctx, id)
	if err != nil {
		return store.Assembly{}, fromStore(err, "assembly %s", id)
	}
	return a, nil
}

// List returns one page of assemblies, newest first, and the total count.
func (s *AssemblyService) List(ctx context.Context, q AssemblyQuery) ([]store.Assembly, int, error) {
	f := store.AssemblyFilter{
		Search: strings.TrimSpace(q.Search),
		Offset: max(q.Offset, 0),
		Limit:  q.Limit,
	}
	if f.Limit <= 0 {
		f.Limit = defaultAssemblyPageSize
	}
	if q.Status != "" {
		status := store.AssemblyStatus(strings.ToUpper(strings.TrimSpace(q.Status)))
		if !status.Valid() {
			return nil, 0, invalidArgument("unknown status %q", q.Status)
		}
		f.Status = status
	}
	if from, ok := s.parseDate(q.From); ok {
		f.CreatedFrom = &from
	}
	if to, ok := s.parseDate(q.To); ok {
		end := to.AddDate(0, 0, 1)
		f.CreatedTo = &end
	}

	out, total, err := s.store.ListAssemblies(ctx, f)
	if err != nil {
		return nil, 0, fromStore(err, "list assemblies")
	}
	return out, total, nil
}

func (s *AssemblyService) parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, v, s.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// UpdateStatus moves the assembly one step along CREATED, ACTIVE, CLOSED.
// Setting the current status again is a no-op.
func (s *AssemblyService) UpdateStatus(ctx context.Context, id, status string) (a store.Assembly, err error) {
	ctx, span := tracer.Start(ctx, "AssemblyService.UpdateStatus")
	span.SetAttributes(assemblyAttr(id))
	defer func() { endSpan(span, err) }()

	next := store.AssemblyStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !next.Valid() {
		return store.Assembly{}, invalidArgument("unknown status %q", status)
	}
	a, err = s.store.GetAssembly(ctx, id)
	if err != nil {
		return store.Assembly{}, fromStore(err, "assembly %s", id)
	}
	if a.Status == next {
		return a, nil
	}
	if !canTransition(a.Status, next) {
		return store.Assembly{}, invalidOperation("assembly %s cannot move from %s to %s", id, a.Status, next)
	}

	now := s.now()
	prev := a.Status
	a.Status = next
	a.UpdatedAt = now
	switch next {
	case store.StatusActive:
		if a.StartedAt == nil {
			a.StartedAt = &now
		}
	case store.StatusClosed:
		if a.ClosedAt == nil {
			a.ClosedAt = &now
		}
		s.metrics.forgetQuorum(id)
	}
	if err := s.store.UpdateAssembly(ctx, a); err != nil {
		return store.Assembly{}, fromStore(err, "assembly %s", id)
	}
	s.logger.InfoContext(ctx, "assembly status changed", "assembly_id", id, "from", prev, "to", next)
	return a, nil
}

func canTransition(from, to store.AssemblyStatus) bool {
	switch from {
	case store.StatusCreated:
		return to == store.StatusActive
	case store.StatusActive:
		return to == store.StatusClosed
	}
	return false
}

// Delete removes the assembly with its records and movements.
func (s *AssemblyService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteAssembly(ctx, id); err != nil {
		return fromStore(err, "assembly %s", id)
	}
	s.metrics.forgetQuorum(id)
	s.logger.InfoContext(ctx, "assembly deleted", "assembly_id", id)
	return nil
}
