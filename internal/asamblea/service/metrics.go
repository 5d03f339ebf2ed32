package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the ledger services. A nil
// *Metrics records nothing.
type Metrics struct {
	proxyMovements   *prometheus.CounterVec
	ledgerConflicts  prometheus.Counter
	attendance       *prometheus.CounterVec
	auditFailures    prometheus.Counter
	quorumPercent    *prometheus.GaugeVec
	presentRecords   *prometheus.GaugeVec
	presentWeight    *prometheus.GaugeVec
	quorumRefreshErr prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.proxyMovements = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asamblea_proxy_movements_total",
			Help: "proxy transfers, returns and drops, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	m.ledgerConflicts = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "asamblea_ledger_conflicts_total",
			Help: "versioned ledger writes that lost a race and were retried",
		},
	)
	m.attendance = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asamblea_attendance_registrations_total",
			Help: "door registrations, by activity kind",
		},
		[]string{"kind"},
	)
	m.auditFailures = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "asamblea_movement_audit_failures_total",
			Help: "proxy movements that could not be written to the audit log",
		},
	)
	m.quorumPercent = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asamblea_quorum_percent",
			Help: "present coefficient as a percentage of the total",
		},
		[]string{"assembly_id"},
	)
	m.presentRecords = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asamblea_present_records",
			Help: "records whose latest activity is an arrival",
		},
		[]string{"assembly_id"},
	)
	m.presentWeight = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asamblea_present_coefficient",
			Help: "coefficient represented in the room, own plus held proxies",
		},
		[]string{"assembly_id"},
	)
	m.quorumRefreshErr = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "asamblea_quorum_refresh_errors_total",
			Help: "quorum monitor refreshes that failed",
		},
	)
	return m
}

func (m *Metrics) movement(kind, outcome string) {
	if m == nil {
		return
	}
	m.proxyMovements.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) conflict() {
	if m == nil {
		return
	}
	m.ledgerConflicts.Inc()
}

func (m *Metrics) registered(kind string) {
	if m == nil {
		return
	}
	m.attendance.WithLabelValues(kind).Inc()
}

func (m *Metrics) auditFailed() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}

func (m *Metrics) quorum(assemblyID string, st QuorumStats) {
	if m == nil {
		return
	}
	m.quorumPercent.WithLabelValues(assemblyID).Set(st.QuorumPercent.InexactFloat64())
	m.presentRecords.WithLabelValues(assemblyID).Set(float64(st.PresentRecords))
	m.presentWeight.WithLabelValues(assemblyID).Set(st.PresentCoefficient.InexactFloat64())
}

func (m *Metrics) forgetQuorum(assemblyID string) {
	if m == nil {
		return
	}
	m.quorumPercent.DeleteLabelValues(assemblyID)
	m.presentRecords.DeleteLabelValues(assemblyID)
	m.presentWeight.DeleteLabelValues(assemblyID)
}

func (m *Metrics) refreshFailed() {
	if m == nil {
		return
	}
	m.quorumRefreshErr.Inc()
}
