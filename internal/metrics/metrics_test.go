package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recording(t *testing.T) {
	m := NewForTesting()

	m.ObserveFetch("primary", "failure", 10*time.Millisecond)
	m.ObserveFetch("static", "success", 5*time.Millisecond)
	m.SnapshotApplied(12)
	m.SnapshotDiscarded("superseded")
	m.Pointer("up", true)
	m.Pointer("move", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchAttempts.WithLabelValues("primary", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchAttempts.WithLabelValues("static", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotsApplied))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.SnapshotSize))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotsDiscarded.WithLabelValues("superseded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PointerEvents.WithLabelValues("up")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Selections))
}

func TestMetrics_SessionCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	n := 3
	m.RegisterSessionCount(func() int { return n })

	count, err := testutil.GatherAndCount(reg, "crisis_globe_sessions_active")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "crisis_globe_sessions_active" {
			assert.Equal(t, 3.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("primary", "success", time.Second)
		m.SnapshotApplied(1)
		m.SnapshotDiscarded("stale")
		m.Pointer("down", false)
		m.RegisterSessionCount(func() int { return 0 })
	})
}
