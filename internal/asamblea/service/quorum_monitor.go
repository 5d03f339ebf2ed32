package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/store"
)

// QuorumMonitor periodically recomputes QuorumStats for every ACTIVE
// assembly and publishes them as gauges. It runs as a background
// goroutine and is safe to stop via its context or the Stop method.
//
// An interval of 0 disables the monitor entirely.
type QuorumMonitor struct {
	store    store.Store
	interval time.Duration
	logger   *slog.Logger
	metrics  *Metrics

	mu        sync.Mutex
	published map[string]struct{}

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewQuorumMonitor creates a monitor but does not start it.
func NewQuorumMonitor(st store.Store, interval time.Duration, m *Metrics, logger *slog.Logger) *QuorumMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuorumMonitor{
		store:     st,
		interval:  interval,
		logger:    logger.With("component", "quorum_monitor"),
		metrics:   m,
		published: make(map[string]struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs a refresh immediately, then on every tick, until ctx is
// cancelled or Stop is called.
func (q *QuorumMonitor) Start(ctx context.Context) {
	q.started = true
	if q.interval <= 0 {
		q.logger.Info("quorum monitor disabled")
		close(q.done)
		return
	}

	ctx, q.cancel = context.WithCancel(ctx)
	go q.loop(ctx)

	q.logger.Info("quorum monitor started", "interval", q.interval.String())
}

// Stop signals the monitor to exit and waits for it to finish. Calling it
// more than once, or before Start, is fine.
func (q *QuorumMonitor) Stop() {
	q.stopOnce.Do(func() {
		if !q.started {
			return
		}
		if q.cancel != nil {
			q.cancel()
		}
		<-q.done
	})
}

func (q *QuorumMonitor) loop(ctx context.Context) {
	defer close(q.done)

	q.Refresh(ctx)

	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Refresh(ctx)
		}
	}
}

// Refresh recomputes the gauges once. Failures are logged and counted; one
// assembly failing does not stop the others. Gauges published for an
// assembly that is no longer ACTIVE are removed.
func (q *QuorumMonitor) Refresh(ctx context.Context) {
	active, _, err := q.store.ListAssemblies(ctx, store.AssemblyFilter{Status: store.StatusActive})
	if err != nil {
		q.metrics.refreshFailed()
		q.logger.ErrorContext(ctx, "list active assemblies", "err", err)
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	current := make(map[string]struct{}, len(active))
	for _, a := range active {
		current[a.ID] = struct{}{}
	}
	for id := range q.published {
		if _, ok := current[id]; !ok {
			q.metrics.forgetQuorum(id)
			q.logger.DebugContext(ctx, "quorum gauges removed", "assembly_id", id)
		}
	}
	q.published = current

	for _, a := range active {
		records, err := q.store.ListRecords(ctx, a.ID)
		if err != nil {
			q.metrics.refreshFailed()
			q.logger.ErrorContext(ctx, "quorum refresh", "assembly_id", a.ID, "err", err)
			continue
		}
		st := ComputeQuorum(records)
		q.metrics.quorum(a.ID, st)
		q.logger.DebugContext(ctx, "quorum refreshed",
			"assembly_id", a.ID, "present", st.PresentRecords, "percent", st.QuorumPercent.String())
	}
}
