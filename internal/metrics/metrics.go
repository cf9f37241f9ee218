// Package metrics provides Prometheus metrics for table and index
// operations, following internal/metrics/metrics.go's promauto-registered
// Metrics struct, narrowed to this module's index/query/rebuild surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every metric a table emits.
type Metrics struct {
	// Index size and health
	IndexSize           *prometheus.GaugeVec
	IndexTombstoneRatio *prometheus.GaugeVec
	IndexRebuildsTotal  *prometheus.CounterVec
	IndexRebuildSeconds *prometheus.HistogramVec

	// Query operations
	QueryOperationsTotal   *prometheus.CounterVec
	QueryOperationDuration *prometheus.HistogramVec
	QueryResultsCount      *prometheus.HistogramVec

	// Record store mutations
	MutationsTotal    *prometheus.CounterVec
	MutationRollbacks *prometheus.CounterVec
	RecordsLive       prometheus.Gauge
}

// New creates a Metrics instance with every metric registered against reg.
// If reg is nil, a fresh *prometheus.Registry is created and used instead
// of DefaultRegisterer: table names are caller-chosen and frequently
// reused (tests, multiple tables named the same thing), and registering
// identically-named collectors against one shared default registerer
// twice panics with an AlreadyRegisteredError. A private-by-default
// registry keeps New safe to call once per table; callers that want
// metrics actually scraped pass their own process-wide reg.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "vecstore"
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		IndexSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_size",
				Help:      "Number of live records in an index.",
			},
			[]string{"table", "index", "kind"},
		),
		IndexTombstoneRatio: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_tombstone_ratio",
				Help:      "Fraction of an index's entries that are tombstoned.",
			},
			[]string{"table", "index", "kind"},
		),
		IndexRebuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "index_rebuilds_total",
				Help:      "Total number of index rebuilds triggered.",
			},
			[]string{"table", "index", "kind"},
		),
		IndexRebuildSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "index_rebuild_seconds",
				Help:      "Index rebuild duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"table", "index", "kind"},
		),
		QueryOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_operations_total",
				Help:      "Total number of query pipeline executions.",
			},
			[]string{"table", "mode", "outcome"},
		),
		QueryOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_operation_duration_seconds",
				Help:      "Query pipeline execution duration in seconds.",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"table", "mode"},
		),
		QueryResultsCount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_results_count",
				Help:      "Number of rows returned per query.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 500},
			},
			[]string{"table", "mode"},
		),
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Total number of record mutations by kind and outcome.",
			},
			[]string{"table", "op", "outcome"},
		),
		MutationRollbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutation_rollbacks_total",
				Help:      "Total number of mutations that returned an error.",
			},
			[]string{"table", "op"},
		),
		RecordsLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "records_live",
				Help:      "Current number of live records in the table.",
			},
		),
	}
}
