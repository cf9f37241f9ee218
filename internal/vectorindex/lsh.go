package vectorindex

import (
	"math/rand"
	"strings"

	"github.com/arvolabs/vecstore/internal/errkind"
	"github.com/arvolabs/vecstore/internal/kernel"
)

// LSHConfig configures an LSH index (§4.2.4). LSH is cosine-only: its
// hyperplane signatures approximate angular similarity.
type LSHConfig struct {
	NTables       int
	NBitsPerTable int
	Seed          int64
}

// DefaultLSHConfig returns the spec's reference configuration (8 tables x
// 16 bits), which the testable-properties section ties a recall floor to.
func DefaultLSHConfig() LSHConfig {
	return LSHConfig{NTables: 8, NBitsPerTable: 16, Seed: 42}
}

// LSH buckets records by random-hyperplane signature per table, then
// reranks the union of matching buckets exactly with cosine distance.
// Grounded on the hyperplane/signature structure of the retrieved
// engine_lsh.go reference implementation.
type LSH struct {
	dim    int
	cfg    LSHConfig
	planes [][][]float64 // [table][bit][dim]

	buckets []map[string][]uint64
	vectors map[uint64][]float64
}

// NewLSH creates an LSH index over dim-dimensional vectors.
func NewLSH(dim int, cfg LSHConfig) *LSH {
	if cfg.NTables <= 0 || cfg.NBitsPerTable <= 0 {
		cfg = DefaultLSHConfig()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	planes := make([][][]float64, cfg.NTables)
	for t := 0; t < cfg.NTables; t++ {
		planes[t] = make([][]float64, cfg.NBitsPerTable)
		for b := 0; b < cfg.NBitsPerTable; b++ {
			plane := make([]float64, dim)
			for d := 0; d < dim; d++ {
				plane[d] = rng.NormFloat64()
			}
			planes[t][b] = plane
		}
	}

	buckets := make([]map[string][]uint64, cfg.NTables)
	for t := range buckets {
		buckets[t] = make(map[string][]uint64)
	}

	return &LSH{
		dim:     dim,
		cfg:     cfg,
		planes:  planes,
		buckets: buckets,
		vectors: make(map[uint64][]float64),
	}
}

func (l *LSH) Metric() kernel.Metric { return kernel.Cosine }

func (l *LSH) Len() int { return len(l.vectors) }

func (l *LSH) signature(v []float64, table int) string {
	var sb strings.Builder
	sb.Grow(l.cfg.NBitsPerTable)
	for _, plane := range l.planes[table] {
		if kernel.DotProduct(v, plane) >= 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (l *LSH) Insert(id uint64, v []float64) error {
	if err := kernel.Validate(v, l.dim); err != nil {
		return err
	}
	_ = l.Remove(id)

	unit := kernel.Normalize(v)
	l.vectors[id] = unit
	for t := 0; t < l.cfg.NTables; t++ {
		sig := l.signature(unit, t)
		l.buckets[t][sig] = append(l.buckets[t][sig], id)
	}
	return nil
}

func (l *LSH) Remove(id uint64) error {
	v, ok := l.vectors[id]
	if !ok {
		return nil
	}
	for t := 0; t < l.cfg.NTables; t++ {
		sig := l.signature(v, t)
		bucket := l.buckets[t][sig]
		for i, bid := range bucket {
			if bid == id {
				l.buckets[t][sig] = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
	}
	delete(l.vectors, id)
	return nil
}

func (l *LSH) Rebuild() error {
	all := l.vectors
	l.vectors = make(map[uint64][]float64, len(all))
	l.buckets = make([]map[string][]uint64, l.cfg.NTables)
	for t := range l.buckets {
		l.buckets[t] = make(map[string][]uint64)
	}
	for id, v := range all {
		if err := l.Insert(id, v); err != nil {
			return err
		}
	}
	return nil
}

func (l *LSH) Search(q []float64, k int, filter Filter) ([]Result, error) {
	if k <= 0 {
		return nil, &errkind.CapacityOrParameterError{Reason: "k must be positive"}
	}
	if err := kernel.Validate(q, l.dim); err != nil {
		return nil, err
	}

	unit := kernel.Normalize(q)

	search := func(kPrime int) []Result {
		seen := make(map[uint64]struct{})
		for t := 0; t < l.cfg.NTables; t++ {
			sig := l.signature(unit, t)
			for _, id := range l.buckets[t][sig] {
				seen[id] = struct{}{}
			}
		}

		// Fall back to brute force over the full set when the candidate
		// pool can't possibly satisfy kPrime.
		if len(seen) < kPrime {
			for id := range l.vectors {
				seen[id] = struct{}{}
			}
		}

		return topK(kPrime, func(add func(Result)) {
			for id := range seen {
				add(Result{ID: id, Distance: kernel.CosineDistance(unit, l.vectors[id])})
			}
		})
	}

	return oversampleAndFilter(k, l.Len(), filter, search), nil
}
