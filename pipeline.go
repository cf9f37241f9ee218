package vecstore

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arvolabs/vecstore/internal/query"
	"github.com/arvolabs/vecstore/internal/record"
)

// Row is one query result: a record id and its (possibly projected)
// payload, with the id always present (§4.6 step 5).
type Row = query.Row

// Predicate is an opaque boolean test over a record, used with
// Pipeline.Where.
type Predicate func(*record.Record) bool

// Pipeline is the chainable, immutable query value of §4.6, bound to the
// table it will run against. Every chain method returns a new Pipeline;
// execution happens only when Run is called.
type Pipeline struct {
	q     query.Query
	table *Table
}

func (p Pipeline) with(q query.Query) Pipeline {
	return Pipeline{q: q, table: p.table}
}

// Filter adds a conjunctive equality predicate on a payload field.
func (p Pipeline) Filter(field string, value any) Pipeline {
	return p.with(p.q.Filter(field, value))
}

// Where attaches an opaque predicate over the full record.
func (p Pipeline) Where(pred Predicate) Pipeline {
	return p.with(p.q.Where(query.Predicate(pred)))
}

// VectorSearch sets ranking mode to vector.
func (p Pipeline) VectorSearch(q []float64, k int) Pipeline {
	return p.with(p.q.VectorSearch(q, k))
}

// TextSearch sets ranking mode to text.
func (p Pipeline) TextSearch(text string, k int) Pipeline {
	return p.with(p.q.TextSearch(text, k))
}

// Hybrid sets ranking mode to hybrid with vector-side weight w.
func (p Pipeline) Hybrid(vec []float64, text string, w float64, k int) Pipeline {
	return p.with(p.q.Hybrid(vec, text, w, k))
}

// UseIndex selects the named vector index for ranking.
func (p Pipeline) UseIndex(name string) Pipeline {
	return p.with(p.q.UseIndex(name))
}

// Select sets the projection field list.
func (p Pipeline) Select(fields ...string) Pipeline {
	return p.with(p.q.Select(fields...))
}

// Limit caps the rows returned.
func (p Pipeline) Limit(n int) Pipeline {
	return p.with(p.q.Limit(n))
}

// Offset skips the first m ranked rows.
func (p Pipeline) Offset(m int) Pipeline {
	return p.with(p.q.Offset(m))
}

// Run executes the pipeline against its bound table following the fixed
// order of §4.6, logging a trace id the way internal/audit tags each
// recorded operation.
func (p Pipeline) Run() ([]Row, error) {
	traceID := uuid.NewString()
	start := time.Now()

	rows, err := query.Execute(p.q, p.table.store)

	mode := p.q.Mode()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.table.logger.Debug("query executed",
		zap.String("trace_id", traceID),
		zap.String("table", p.table.name),
		zap.Duration("duration", time.Since(start)),
		zap.Int("rows", len(rows)),
		zap.Error(err),
	)
	p.table.mtx.QueryOperationsTotal.WithLabelValues(p.table.name, mode, outcome).Inc()
	p.table.mtx.QueryOperationDuration.WithLabelValues(p.table.name, mode).Observe(time.Since(start).Seconds())
	if err == nil {
		p.table.mtx.QueryResultsCount.WithLabelValues(p.table.name, mode).Observe(float64(len(rows)))
	}
	return rows, err
}
