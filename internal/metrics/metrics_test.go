package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMetrics builds a Metrics by hand against a fresh registry, so
// each test registers only the collectors it reads and never shares a
// registry with another test.
func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()

	m := &Metrics{
		IndexSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: "test", Name: "index_size", Help: "h"},
			[]string{"table", "index", "kind"},
		),
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: "test", Name: "mutations_total", Help: "h"},
			[]string{"table", "op", "outcome"},
		),
		RecordsLive: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: "test", Name: "records_live", Help: "h"},
		),
	}
	require.NoError(t, reg.Register(m.IndexSize))
	require.NoError(t, reg.Register(m.MutationsTotal))
	require.NoError(t, reg.Register(m.RecordsLive))
	return m, reg
}

func TestIndexSize_TracksLabeledGauge(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.IndexSize.WithLabelValues("t1", "default", "bruteforce").Set(42)
	assert.InDelta(t, 42, testutil.ToFloat64(m.IndexSize.WithLabelValues("t1", "default", "bruteforce")), 1e-9)
}

func TestMutationsTotal_CountsByOutcome(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.MutationsTotal.WithLabelValues("t1", "add", "ok").Inc()
	m.MutationsTotal.WithLabelValues("t1", "add", "ok").Inc()
	m.MutationsTotal.WithLabelValues("t1", "add", "rolled_back").Inc()

	assert.InDelta(t, 2, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("t1", "add", "ok")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("t1", "add", "rolled_back")), 1e-9)
}

func TestNew_RegistersWithoutPanic(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	assert.NotPanics(t, func() { New("testns", reg) })
}

func TestNew_NilRegistererDefaultsToPrivateRegistry(t *testing.T) {
	// Two tables with the same name (the common case: tests, or an
	// application that doesn't bother naming tables uniquely) must not
	// collide on Prometheus's shared default registerer.
	assert.NotPanics(t, func() {
		New("same", nil)
		New("same", nil)
	})
}

func TestNew_SameRegistererSameNamespacePanics(t *testing.T) {
	// Registering identical descriptors twice against one registerer is
	// still a genuine collision; New does not silently swallow it.
	reg := prometheus.NewRegistry()
	New("dup", reg)
	assert.Panics(t, func() { New("dup", reg) })
}
