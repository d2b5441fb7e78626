package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const millisecondsPerSecond = 1000.0

// Manager owns the Prometheus collectors for claim runs.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         *prometheus.Registry

	outcomes        *prometheus.CounterVec
	failures        *prometheus.CounterVec
	gatewayLatency  *prometheus.HistogramVec
	duplicates      prometheus.Counter
	accounts        prometheus.Gauge
	lastRunUnix     prometheus.Gauge
	lastRunDuration prometheus.Gauge
}

// NewManager creates a metrics manager on its own registry unless one is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hiveclaim",
		subsystem:        "claims",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		constLabels:      map[string]string{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.outcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "outcomes_total",
		Help:        "Per-account outcomes by kind",
		ConstLabels: m.constLabels,
	}, []string{"gateway", "outcome"})

	m.failures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "failures_total",
		Help:        "Per-account failures by error kind",
		ConstLabels: m.constLabels,
	}, []string{"gateway", "error_kind"})

	m.gatewayLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "gateway_latency_milliseconds",
		Help:        "Latency of chain gateway calls in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"gateway", "operation", "status"})

	m.duplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "duplicate_accounts_total",
		Help:        "Repeated account entries dropped from the account list",
		ConstLabels: m.constLabels,
	})

	m.accounts = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "accounts",
		Help:        "Accounts processed in the last run",
		ConstLabels: m.constLabels,
	})

	m.lastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time the last run finished",
		ConstLabels: m.constLabels,
	})

	m.lastRunDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "last_run_duration_seconds",
		Help:        "Wall time of the last run",
		ConstLabels: m.constLabels,
	})
}

// RecordOutcome counts one terminal account outcome.
func (m *Manager) RecordOutcome(gateway, outcome string) {
	m.outcomes.WithLabelValues(gateway, outcome).Inc()
}

// RecordFailure counts one per-account failure.
func (m *Manager) RecordFailure(gateway, errorKind string) {
	m.failures.WithLabelValues(gateway, errorKind).Inc()
}

// ObserveGatewayCall records the latency of a balance query or claim submission.
func (m *Manager) ObserveGatewayCall(gateway, operation string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.gatewayLatency.WithLabelValues(gateway, operation, status).Observe(float64(d) / float64(time.Millisecond))
}

// RecordDuplicates counts dropped duplicate account entries.
func (m *Manager) RecordDuplicates(n int) {
	m.duplicates.Add(float64(n))
}

// RecordRun stores the size, finish time and duration of a run.
func (m *Manager) RecordRun(accounts int, finished time.Time, d time.Duration) {
	m.accounts.Set(float64(accounts))
	m.lastRunUnix.Set(float64(finished.UnixMilli()) / millisecondsPerSecond)
	m.lastRunDuration.Set(d.Seconds())
}

// Registry returns the registry backing this manager.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node_exporter textfile collector. The write is atomic.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
