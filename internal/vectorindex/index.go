// Package vectorindex implements the vector index contract of §4.2 and its
// four variants: BruteForce, KDTree, IVFFlat, LSH. Grounded on
// internal/index/vector/{index.go,hnsw.go}'s Index interface and bounded-heap
// search shape, generalized from a single cosine-only HNSW index to a tagged
// family of exact and approximate indexes over the table's configured
// metric.
package vectorindex

import (
	"container/heap"
	"sort"

	"github.com/arvolabs/vecstore/internal/errkind"
	"github.com/arvolabs/vecstore/internal/kernel"
)

// Filter is an optional predicate over a record ID, used for scalar filter
// pushdown into a vector search (§4.2.5). A nil filter matches everything.
type Filter func(id uint64) bool

// Result is a single (id, distance) pair from a search, ascending distance.
type Result struct {
	ID       uint64
	Distance float64
}

// Index is the common retrieval contract every vector index variant
// implements.
type Index interface {
	// Insert adds or replaces the vector for id.
	Insert(id uint64, v []float64) error
	// Remove deletes id if present; it is a no-op otherwise.
	Remove(id uint64) error
	// Search returns up to k nearest neighbors to q, ascending distance,
	// ties broken by ascending id. filter, if non-nil, restricts results
	// to ids for which it returns true.
	Search(q []float64, k int, filter Filter) ([]Result, error)
	// Rebuild reconstructs internal structure from the current live set.
	Rebuild() error
	// Len returns the number of live records in the index.
	Len() int
	// Metric returns the distance metric this index instance was built with.
	Metric() kernel.Metric
}

// Kind names a vector index implementation, used by table configuration and
// by IncompatibleIndexError messages.
type Kind string

const (
	KindBruteForce Kind = "bruteforce"
	KindKDTree     Kind = "kdtree"
	KindIVFFlat    Kind = "ivfflat"
	KindLSH        Kind = "lsh"
)

// CompatibleMetric reports whether kind may be built with metric.
func CompatibleMetric(kind Kind, metric kernel.Metric) bool {
	switch kind {
	case KindKDTree:
		return metric == kernel.Euclidean
	case KindLSH:
		return metric == kernel.Cosine
	default:
		return metric.Valid()
	}
}

// sortResults orders results ascending by distance, ties broken by
// ascending id, matching the stable tie-break rule every index must honor.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
}

// maxHeap is a bounded max-heap of the k best (smallest-distance) results
// seen so far; popping the root yields the current worst of the k kept.
// Mirrors the distanceHeap pattern in internal/index/vector/hnsw.go.
type maxHeap []Result

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return worseThan(h[i], h[j]) }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// worseThan reports whether a ranks after b: a larger distance, or an equal
// distance and a larger id.
func worseThan(a, b Result) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.ID > b.ID
}

// topK keeps only the k smallest-distance results from a stream, using a
// bounded max-heap, then returns them sorted ascending with stable id
// tie-break.
func topK(k int, push func(add func(Result))) []Result {
	h := &maxHeap{}
	add := func(r Result) {
		if h.Len() < k {
			heap.Push(h, r)
			return
		}
		if len(*h) > 0 && worseThan((*h)[0], r) {
			heap.Pop(h)
			heap.Push(h, r)
		}
	}
	push(add)

	out := make([]Result, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Result)
	}
	sortResults(out)
	return out
}

// oversampleAndFilter implements the §4.2.5 fallback strategy for indexes
// that cannot intersect a filter efficiently: it asks search for
// progressively larger candidate pools (k, 2k, 4k, ... capped at live) up to
// three extra attempts, post-filtering each time, until k matches are found
// or the attempts are exhausted.
func oversampleAndFilter(k, live int, filter Filter, search func(kPrime int) []Result) []Result {
	if filter == nil {
		return search(k)
	}
	kPrime := k
	var kept []Result
	for attempt := 0; attempt < 4; attempt++ {
		if kPrime > live {
			kPrime = live
		}
		candidates := search(kPrime)
		kept = kept[:0]
		for _, c := range candidates {
			if filter(c.ID) {
				kept = append(kept, c)
			}
		}
		if len(kept) >= k || kPrime >= live {
			break
		}
		kPrime *= 2
		if kPrime > 2*k && kPrime > live {
			kPrime = live
		}
	}
	if len(kept) > k {
		kept = kept[:k]
	}
	out := make([]Result, len(kept))
	copy(out, kept)
	return out
}

// BruteForce scans every live record and computes distance with the
// configured metric, returning the exact partial top-k. Grounded on
// internal/index/vector/index.go's BruteForceIndex.
type BruteForce struct {
	dim     int
	metric  kernel.Metric
	vectors map[uint64][]float64
}

// NewBruteForce creates an exact brute-force index over dim-dimensional
// vectors compared with metric.
func NewBruteForce(dim int, metric kernel.Metric) *BruteForce {
	return &BruteForce{dim: dim, metric: metric, vectors: make(map[uint64][]float64)}
}

func (b *BruteForce) Metric() kernel.Metric { return b.metric }

func (b *BruteForce) Insert(id uint64, v []float64) error {
	if err := kernel.Validate(v, b.dim); err != nil {
		return err
	}
	cp := make([]float64, len(v))
	copy(cp, v)
	b.vectors[id] = cp
	return nil
}

func (b *BruteForce) Remove(id uint64) error {
	delete(b.vectors, id)
	return nil
}

func (b *BruteForce) Len() int { return len(b.vectors) }

func (b *BruteForce) Rebuild() error { return nil }

func (b *BruteForce) Search(q []float64, k int, filter Filter) ([]Result, error) {
	if k <= 0 {
		return nil, &errkind.CapacityOrParameterError{Reason: "k must be positive"}
	}
	if err := kernel.Validate(q, b.dim); err != nil {
		return nil, err
	}
	results := topK(k, func(add func(Result)) {
		for id, v := range b.vectors {
			if filter != nil && !filter(id) {
				continue
			}
			add(Result{ID: id, Distance: kernel.Distance(b.metric, q, v)})
		}
	})
	return results, nil
}
