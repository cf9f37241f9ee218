// Package query implements the chained query builder and fixed execution
// order of §4.6: an immutable value built up by chained stage methods,
// executed only when Execute is called, regardless of the order stages
// were attached in.
//
// Grounded on internal/retrieval's RetrieveOptions value-object shape
// (retriever.go) and its weighted vector/text fusion (scorer.go),
// generalized from a fixed multi-signal scorer into the spec's
// vector/text/hybrid ranking modes over the table's own indexes.
package query

import (
	"sort"

	"github.com/arvolabs/vecstore/internal/errkind"
	"github.com/arvolabs/vecstore/internal/hybrid"
	"github.com/arvolabs/vecstore/internal/record"
	"github.com/arvolabs/vecstore/internal/vectorindex"
)

// mode names the ranking strategy a query was configured with.
type mode int

const (
	modeNone mode = iota
	modeVector
	modeText
	modeHybrid
)

// Mode reports the query's ranking mode as a label-friendly string, for
// callers that want to tag metrics/logs without exposing the mode type.
func (q Query) Mode() string {
	switch q.mode {
	case modeVector:
		return "vector"
	case modeText:
		return "text"
	case modeHybrid:
		return "hybrid"
	default:
		return "none"
	}
}

// Predicate is an opaque boolean test over a record, attached via Where.
type Predicate func(*record.Record) bool

// Query is an immutable, chainable description of a read. Every chain
// method returns a new value; the receiver is never mutated, so a Query
// can be shared and reused as a template for further refinement.
type Query struct {
	eqFilters map[string]any
	where     Predicate

	mode      mode
	vec       []float64
	text      string
	weight    float64
	k         int
	indexName string

	selectFields []string
	limitN       *int
	offsetN      *int
}

// New returns the empty query: no filters, no ranking mode, ascending-id
// order over the full live set.
func New() Query {
	return Query{}
}

// Filter adds a conjunctive equality predicate on a payload field.
func (q Query) Filter(field string, value any) Query {
	out := q.clone()
	if out.eqFilters == nil {
		out.eqFilters = make(map[string]any)
	}
	out.eqFilters[field] = value
	return out
}

// Where attaches an opaque predicate evaluated over the full record.
func (q Query) Where(p Predicate) Query {
	out := q.clone()
	out.where = p
	return out
}

// VectorSearch sets ranking mode to vector with query vector vec and
// candidate cap k.
func (q Query) VectorSearch(vec []float64, k int) Query {
	out := q.clone()
	out.mode = modeVector
	out.vec = vec
	out.k = k
	return out
}

// TextSearch sets ranking mode to text.
func (q Query) TextSearch(text string, k int) Query {
	out := q.clone()
	out.mode = modeText
	out.text = text
	out.k = k
	return out
}

// Hybrid sets ranking mode to hybrid with vector-side weight w.
func (q Query) Hybrid(vec []float64, text string, w float64, k int) Query {
	out := q.clone()
	out.mode = modeHybrid
	out.vec = vec
	out.text = text
	out.weight = w
	out.k = k
	return out
}

// UseIndex selects the named vector index for the vector half of the
// query; the table default is used if this is never called.
func (q Query) UseIndex(name string) Query {
	out := q.clone()
	out.indexName = name
	return out
}

// Select sets the projection field list; record id is always included
// regardless of this list.
func (q Query) Select(fields ...string) Query {
	out := q.clone()
	out.selectFields = append([]string(nil), fields...)
	return out
}

// Limit caps the number of rows returned after ranking and offset.
func (q Query) Limit(n int) Query {
	out := q.clone()
	out.limitN = &n
	return out
}

// Offset skips the first m rows after ranking, before limit.
func (q Query) Offset(m int) Query {
	out := q.clone()
	out.offsetN = &m
	return out
}

func (q Query) clone() Query {
	out := q
	if q.eqFilters != nil {
		out.eqFilters = make(map[string]any, len(q.eqFilters))
		for k, v := range q.eqFilters {
			out.eqFilters[k] = v
		}
	}
	return out
}

// Row is one result row: the record id plus its (possibly projected)
// payload.
type Row struct {
	ID      uint64
	Payload map[string]any
}

func (q Query) matchesEq(rec *record.Record) bool {
	for field, want := range q.eqFilters {
		if rec.Payload[field] != want {
			return false
		}
	}
	return true
}

func (q Query) matches(rec *record.Record) bool {
	if !q.matchesEq(rec) {
		return false
	}
	if q.where != nil && !q.where(rec) {
		return false
	}
	return true
}

// Execute runs q against store following the fixed order of §4.6.
func Execute(q Query, store *record.Store) ([]Row, error) {
	k := q.k
	limit := 0
	if q.limitN != nil {
		limit = *q.limitN
	}
	offset := 0
	if q.offsetN != nil {
		offset = *q.offsetN
	}
	kPrime := k
	if limit+offset > kPrime {
		kPrime = limit + offset
	}

	var ids []uint64

	switch q.mode {
	case modeVector:
		idxName := q.indexName
		if idxName == "" {
			idxName = "default"
		}
		idx, err := store.VectorIndex(idxName)
		if err != nil {
			return nil, err
		}
		filter := q.pushdownFilter(store)
		results, err := idx.Search(q.vec, max(kPrime, 1), filter)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			ids = append(ids, r.ID)
		}

	case modeText:
		ft := store.FulltextIndex()
		if ft == nil {
			return nil, &errkind.CapacityOrParameterError{Reason: "no full-text index configured"}
		}
		hits, err := ft.Search(q.text, max(kPrime, 1))
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			ids = append(ids, h.ID)
		}

	case modeHybrid:
		idxName := q.indexName
		if idxName == "" {
			idxName = "default"
		}
		idx, err := store.VectorIndex(idxName)
		if err != nil {
			return nil, err
		}
		live := len(store.IDs())
		vecResults, err := idx.Search(q.vec, max(live, 1), nil)
		if err != nil {
			return nil, err
		}
		vres := make([]hybrid.VectorResult, len(vecResults))
		for i, r := range vecResults {
			vres[i] = hybrid.VectorResult{ID: r.ID, Distance: r.Distance}
		}

		var tres []hybrid.TextResult
		if ft := store.FulltextIndex(); ft != nil && q.text != "" {
			hits, err := ft.Search(q.text, max(live, 1))
			if err != nil {
				return nil, err
			}
			tres = make([]hybrid.TextResult, len(hits))
			for i, h := range hits {
				tres[i] = hybrid.TextResult{ID: h.ID, Score: h.Score}
			}
		}

		fused := hybrid.Fuse(idx.Metric(), vres, tres, q.weight, max(kPrime, len(vres)+len(tres)))
		for _, f := range fused {
			ids = append(ids, f.ID)
		}

	default:
		ids = store.IDs()
	}

	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		rec, err := store.Get(id)
		if err != nil {
			continue // retracted between ranking and materialization
		}
		if !q.matches(rec) {
			continue
		}
		rows = append(rows, Row{ID: rec.ID, Payload: rec.Payload})
	}

	if q.mode == modeNone {
		sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	}

	if offset > 0 {
		if offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[offset:]
		}
	}
	if q.limitN != nil && len(rows) > limit {
		rows = rows[:limit]
	}

	for i := range rows {
		rows[i].Payload = q.project(rows[i].Payload)
	}
	return rows, nil
}

func (q Query) project(payload map[string]any) map[string]any {
	if len(q.selectFields) == 0 {
		return payload
	}
	out := make(map[string]any, len(q.selectFields))
	for _, f := range q.selectFields {
		if v, ok := payload[f]; ok {
			out[f] = v
		}
	}
	return out
}

// pushdownFilter builds a vectorindex.Filter from the query's scalar
// predicates, for indexes that accept filter pushdown (§4.2.5).
func (q Query) pushdownFilter(store *record.Store) vectorindex.Filter {
	if q.eqFilters == nil && q.where == nil {
		return nil
	}
	return func(id uint64) bool {
		rec, err := store.Get(id)
		if err != nil {
			return false
		}
		return q.matches(rec)
	}
}
