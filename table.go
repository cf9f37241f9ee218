// Package vecstore is an in-memory vector database library: tables of
// dense-vector records searchable by vector similarity, scalar
// predicate, full text, or a weighted fusion of the two.
//
// Grounded on internal/server's top-level wiring of storage + indexes +
// embedding behind one request-facing type (server.go), generalized from
// an HTTP surface to a plain Go API: no network, no persistence, no
// multi-tenancy, per this module's Non-goals.
package vecstore

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arvolabs/vecstore/internal/config"
	"github.com/arvolabs/vecstore/internal/embedding"
	"github.com/arvolabs/vecstore/internal/errkind"
	"github.com/arvolabs/vecstore/internal/fulltext"
	"github.com/arvolabs/vecstore/internal/kernel"
	"github.com/arvolabs/vecstore/internal/metrics"
	"github.com/arvolabs/vecstore/internal/query"
	"github.com/arvolabs/vecstore/internal/record"
	"github.com/arvolabs/vecstore/internal/vectorindex"
)

// Metric is the table's default distance kernel (§4.1).
type Metric = kernel.Metric

const (
	Cosine    = kernel.Cosine
	Euclidean = kernel.Euclidean
	Dot       = kernel.Dot
)

// IndexKind names a vector index implementation (§4.2).
type IndexKind = vectorindex.Kind

const (
	BruteForce IndexKind = vectorindex.KindBruteForce
	KDTree     IndexKind = vectorindex.KindKDTree
	IVFFlat    IndexKind = vectorindex.KindIVFFlat
	LSH        IndexKind = vectorindex.KindLSH
)

// TableOptions configures a new Table beyond its required dimension and
// metric.
type TableOptions struct {
	// TextFields lists the payload fields tokenized into the table's
	// full-text index. When add/upsert omit a vector and the payload has
	// no non-empty "text" field, these fields are joined and embedded
	// instead (§6).
	TextFields []string

	// Embedder produces a vector from text for auto-embedding. Defaults
	// to a deterministic mock provider sized to the table's dimension
	// if nil, so a table is usable out of the box in tests and demos.
	Embedder embedding.Provider

	// Schema optionally restricts payload shape (§6). Nil disables
	// schema enforcement.
	Schema *record.Schema

	// Config tunes IVF/LSH/BM25/rebuild parameters. Defaults to
	// config.Default() if zero.
	Config config.Config

	// Logger receives structured diagnostics. Defaults to a no-op
	// logger.
	Logger *zap.Logger

	// Metrics receives Prometheus instrumentation. Defaults to a
	// namespaced Metrics instance built by metrics.New.
	Metrics *metrics.Metrics

	// Registerer is where that default Metrics instance registers its
	// collectors. Defaults to a fresh, private *prometheus.Registry (not
	// prometheus.DefaultRegisterer) so creating multiple tables that
	// share a name never panics on double registration; pass the
	// process's real registerer to make a table's metrics scrapeable.
	Registerer prometheus.Registerer
}

// Table owns one embedding dimension, one default metric, a set of named
// vector indexes (always including "default"), at most one scalar index
// per field, and at most one full-text index (§3).
type Table struct {
	name   string
	dim    int
	metric kernel.Metric
	cfg    config.Config
	logger *zap.Logger
	mtx    *metrics.Metrics

	store *record.Store
}

// NewTable creates a table of fixed vector dimension dim and default
// metric, with a brute-force "default" vector index pre-created.
func NewTable(name string, dim int, metric Metric, opts TableOptions) (*Table, error) {
	if dim <= 0 {
		return nil, &errkind.CapacityOrParameterError{Reason: "dimension must be positive"}
	}
	if !metric.Valid() {
		return nil, &errkind.CapacityOrParameterError{Reason: fmt.Sprintf("unknown metric %q", metric)}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	if (cfg == config.Config{}) {
		cfg = config.Default()
	}
	mtx := opts.Metrics
	if mtx == nil {
		mtx = metrics.New(name, opts.Registerer)
	}
	embedder := opts.Embedder
	if embedder == nil {
		embedder = embedding.NewMockProvider(dim)
	}

	store := record.New(dim, metric, opts.TextFields, embedder, logger)
	store.SetSchema(opts.Schema)

	t := &Table{name: name, dim: dim, metric: metric, cfg: cfg, logger: logger, mtx: mtx, store: store}

	if err := store.AddVectorIndex("default", vectorindex.NewBruteForce(dim, metric)); err != nil {
		return nil, err
	}
	if len(opts.TextFields) > 0 {
		ft := fulltext.NewWithConfig(fulltext.Config{K1: cfg.Fulltext.K1, B: cfg.Fulltext.B}, fulltext.DefaultTokenizer)
		store.SetFulltextIndex(ft)
	}
	return t, nil
}

// CreateVectorIndex adds a named vector index of the given kind and
// metric, backfilled from the table's current records. KDTree requires
// euclidean; LSH requires cosine (§4.2).
func (t *Table) CreateVectorIndex(name string, kind IndexKind, metric Metric) error {
	if !vectorindex.CompatibleMetric(kind, metric) {
		return &errkind.IncompatibleIndexError{IndexType: string(kind), Metric: string(metric)}
	}

	var idx vectorindex.Index
	switch kind {
	case vectorindex.KindBruteForce:
		idx = vectorindex.NewBruteForce(t.dim, metric)
	case vectorindex.KindKDTree:
		idx = vectorindex.NewKDTree(t.dim, t.cfg.Rebuild.KDTreeTombstoneRatio)
	case vectorindex.KindIVFFlat:
		if t.cfg.IVF.NLists > 0 && t.cfg.IVF.NProbe > t.cfg.IVF.NLists {
			return &errkind.CapacityOrParameterError{Reason: fmt.Sprintf("ivf n_probe %d exceeds n_lists %d", t.cfg.IVF.NProbe, t.cfg.IVF.NLists)}
		}
		idx = vectorindex.NewIVFFlat(t.dim, metric, vectorindex.IVFConfig{
			NLists: t.cfg.IVF.NLists, NProbe: t.cfg.IVF.NProbe, Seed: t.cfg.IVF.Seed,
			RetrainDeleteRatio: t.cfg.Rebuild.IVFRetrainDeleteRatio,
		})
	case vectorindex.KindLSH:
		idx = vectorindex.NewLSH(t.dim, vectorindex.LSHConfig{
			NTables: t.cfg.LSH.NTables, NBitsPerTable: t.cfg.LSH.NBitsPerTable, Seed: t.cfg.LSH.Seed,
		})
	default:
		return &errkind.CapacityOrParameterError{Reason: fmt.Sprintf("unknown index kind %q", kind)}
	}

	if err := t.store.AddVectorIndex(name, idx); err != nil {
		return err
	}
	t.mtx.IndexSize.WithLabelValues(t.name, name, string(kind)).Set(float64(idx.Len()))
	return nil
}

// CreateBTreeIndex adds a scalar index over a payload field, backfilled
// from the table's current records (§4.3).
func (t *Table) CreateBTreeIndex(field string) error {
	return t.store.AddScalarIndex(field)
}

// CreateFulltextIndex attaches the table's full-text index if one was not
// already auto-created from TableOptions.TextFields.
func (t *Table) CreateFulltextIndex() error {
	if t.store.FulltextIndex() != nil {
		return nil
	}
	t.store.SetFulltextIndex(fulltext.NewWithConfig(
		fulltext.Config{K1: t.cfg.Fulltext.K1, B: t.cfg.Fulltext.B}, fulltext.DefaultTokenizer))
	return nil
}

// Add creates a record. If vector is nil, the payload's "text" field (or
// the configured text fields) is embedded automatically (§6).
func (t *Table) Add(payload map[string]any, vector []float64) (uint64, error) {
	id, err := t.store.Add(payload, vector)
	t.recordMutation("add", err)
	return id, err
}

// Update replaces a record's payload and (if given, or if a text field
// changed) its vector.
func (t *Table) Update(id uint64, payload map[string]any, vector []float64) error {
	err := t.store.Update(id, payload, vector)
	t.recordMutation("update", err)
	return err
}

// Merge updates only the given payload fields, leaving the vector and
// every other field untouched.
func (t *Table) Merge(id uint64, partial map[string]any) error {
	err := t.store.Merge(id, partial)
	t.recordMutation("merge", err)
	return err
}

// Upsert inserts when id is absent (or zero), otherwise updates.
func (t *Table) Upsert(id uint64, payload map[string]any, vector []float64) (uint64, error) {
	newID, err := t.store.Upsert(id, payload, vector)
	t.recordMutation("upsert", err)
	return newID, err
}

// Delete removes a record from the store and every index.
func (t *Table) Delete(id uint64) error {
	err := t.store.Delete(id)
	t.recordMutation("delete", err)
	return err
}

func (t *Table) recordMutation(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		t.mtx.MutationRollbacks.WithLabelValues(t.name, op).Inc()
	}
	t.mtx.MutationsTotal.WithLabelValues(t.name, op, outcome).Inc()
	t.mtx.RecordsLive.Set(float64(t.store.Len()))
}

// VectorSearch ranks by vector similarity alone, using the named index
// (or "default" if indexName is empty).
func (t *Table) VectorSearch(q []float64, k int, indexName string) ([]Row, error) {
	query := t.Query().VectorSearch(q, k)
	if indexName != "" {
		query = query.UseIndex(indexName)
	}
	return query.Run()
}

// TextSearch ranks by BM25 score alone.
func (t *Table) TextSearch(text string, k int) ([]Row, error) {
	return t.Query().TextSearch(text, k).Run()
}

// Hybrid fuses vector and text rankings with vector-side weight w (§4.5).
func (t *Table) Hybrid(qVec []float64, qText string, w float64, k int) ([]Row, error) {
	return t.Query().Hybrid(qVec, qText, w, k).Run()
}

// Query starts a chainable pipeline over this table (§4.6).
func (t *Table) Query() Pipeline {
	return Pipeline{q: query.New(), table: t}
}

// Len returns the number of live records.
func (t *Table) Len() int { return t.store.Len() }
