package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crisis_globe"

// Metrics holds the Prometheus collectors for loading and viewing crises.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg prometheus.Registerer

	FetchAttempts      *prometheus.CounterVec   // labels: source, outcome={success,empty,failure}
	FetchDuration      *prometheus.HistogramVec // labels: source
	SnapshotsApplied   prometheus.Counter
	SnapshotsDiscarded *prometheus.CounterVec // labels: reason={superseded,stale}
	SnapshotSize       prometheus.Gauge
	PointerEvents      *prometheus.CounterVec // labels: kind
	Selections         prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reg: reg,
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Fallback chain stage attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single fallback chain stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"source"}),
		SnapshotsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_applied_total",
			Help:      "Crisis snapshots persisted and broadcast.",
		}),
		SnapshotsDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_discarded_total",
			Help:      "Crisis snapshots dropped because a newer load won.",
		}, []string{"reason"}),
		SnapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_crises",
			Help:      "Number of crises in the current snapshot.",
		}),
		PointerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pointer_events_total",
			Help:      "Pointer and touch events received by globe sessions.",
		}, []string{"kind"}),
		Selections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Crisis selections made by clicking a marker.",
		}),
	}

	reg.MustRegister(
		m.FetchAttempts,
		m.FetchDuration,
		m.SnapshotsApplied,
		m.SnapshotsDiscarded,
		m.SnapshotSize,
		m.PointerEvents,
		m.Selections,
	)

	return m
}

// NewForTesting registers with a fresh registry so tests can build as many
// as they like.
func NewForTesting() *Metrics {
	return New(prometheus.NewRegistry())
}

// RegisterSessionCount exposes a gauge that reads the live session count on
// every scrape.
func (m *Metrics) RegisterSessionCount(count func() int) {
	if m == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Globe sessions currently open.",
	}, func() float64 { return float64(count()) }))
}

func (m *Metrics) ObserveFetch(source, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(source, outcome).Inc()
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) SnapshotApplied(size int) {
	if m == nil {
		return
	}
	m.SnapshotsApplied.Inc()
	m.SnapshotSize.Set(float64(size))
}

func (m *Metrics) SnapshotDiscarded(reason string) {
	if m == nil {
		return
	}
	m.SnapshotsDiscarded.WithLabelValues(reason).Inc()
}

func (m *Metrics) Pointer(kind string, selected bool) {
	if m == nil {
		return
	}
	m.PointerEvents.WithLabelValues(kind).Inc()
	if selected {
		m.Selections.Inc()
	}
}
