package vectorindex

import (
	"math/rand"
	"sort"

	"github.com/arvolabs/vecstore/internal/errkind"
	"github.com/arvolabs/vecstore/internal/kernel"
)

// IVFConfig configures an IVFFlat index (§4.2.3).
type IVFConfig struct {
	NLists int
	NProbe int
	Seed   int64

	// RetrainDeleteRatio is the fraction of the set-at-last-train size
	// that must be deleted before a retrain is triggered (§4.2.3's 20%
	// default retraining trigger).
	RetrainDeleteRatio float64
}

// DefaultIVFConfig returns reasonable IVFFlat defaults.
func DefaultIVFConfig() IVFConfig {
	return IVFConfig{NLists: 8, NProbe: 2, Seed: 42, RetrainDeleteRatio: 0.20}
}

type ivfEntry struct {
	id     uint64
	vector []float64
}

// IVFFlat is an inverted-file approximate index: records are assigned to
// the nearest of n_lists centroids (trained with seeded Lloyd's iterations)
// and a query probes only the n_probe closest lists. Grounded on the
// centroid/clusters/assignment shape of the retrieved ivf.go reference
// implementations (cluster map keyed by id, nearest-centroid assignment).
type IVFFlat struct {
	dim    int
	metric kernel.Metric
	cfg    IVFConfig
	rng    *rand.Rand

	trained   bool
	centroids [][]float64
	clusters  map[int]map[uint64][]float64
	assign    map[uint64]int

	pending map[uint64][]float64 // not yet trained

	sizeAtLastTrain   int
	deletesSinceTrain int
}

// NewIVFFlat creates an IVFFlat index over dim-dimensional vectors.
func NewIVFFlat(dim int, metric kernel.Metric, cfg IVFConfig) *IVFFlat {
	if cfg.NLists <= 0 {
		cfg.NLists = DefaultIVFConfig().NLists
	}
	if cfg.NProbe <= 0 {
		cfg.NProbe = DefaultIVFConfig().NProbe
	}
	if cfg.RetrainDeleteRatio <= 0 {
		cfg.RetrainDeleteRatio = DefaultIVFConfig().RetrainDeleteRatio
	}
	return &IVFFlat{
		dim:      dim,
		metric:   metric,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		clusters: make(map[int]map[uint64][]float64),
		assign:   make(map[uint64]int),
		pending:  make(map[uint64][]float64),
	}
}

func (idx *IVFFlat) Metric() kernel.Metric { return idx.metric }

func (idx *IVFFlat) Len() int {
	n := len(idx.pending)
	for _, c := range idx.clusters {
		n += len(c)
	}
	return n
}

func (idx *IVFFlat) Insert(id uint64, v []float64) error {
	if err := kernel.Validate(v, idx.dim); err != nil {
		return err
	}
	cp := make([]float64, len(v))
	copy(cp, v)

	_ = idx.Remove(id)

	if !idx.trained {
		idx.pending[id] = cp
		if len(idx.pending) >= idx.cfg.NLists {
			idx.train()
		}
		return nil
	}

	idx.assignToNearest(id, cp)
	if idx.Len() >= 2*idx.sizeAtLastTrain {
		return idx.Rebuild()
	}
	return nil
}

func (idx *IVFFlat) assignToNearest(id uint64, v []float64) {
	c := idx.nearestCentroid(v)
	if idx.clusters[c] == nil {
		idx.clusters[c] = make(map[uint64][]float64)
	}
	idx.clusters[c][id] = v
	idx.assign[id] = c
}

func (idx *IVFFlat) nearestCentroid(v []float64) int {
	best, bestDist := 0, kernel.Distance(idx.metric, v, idx.centroids[0])
	for i := 1; i < len(idx.centroids); i++ {
		d := kernel.Distance(idx.metric, v, idx.centroids[i])
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (idx *IVFFlat) Remove(id uint64) error {
	if _, ok := idx.pending[id]; ok {
		delete(idx.pending, id)
		return nil
	}
	if c, ok := idx.assign[id]; ok {
		delete(idx.clusters[c], id)
		delete(idx.assign, id)
		idx.deletesSinceTrain++
		if idx.sizeAtLastTrain > 0 && float64(idx.deletesSinceTrain) >= idx.cfg.RetrainDeleteRatio*float64(idx.sizeAtLastTrain) {
			return idx.Rebuild()
		}
	}
	return nil
}

// train selects n_lists initial centroids by uniform sampling without
// replacement from the pending set (seeded for determinism), then runs at
// most 25 Lloyd iterations, renormalizing centroids each round for cosine.
func (idx *IVFFlat) train() {
	all := make([]ivfEntry, 0, len(idx.pending))
	for id, v := range idx.pending {
		all = append(all, ivfEntry{id: id, vector: v})
	}
	if len(all) < idx.cfg.NLists {
		return
	}
	sort.Slice(all, func(i, j int) bool { return all[i].id < all[j].id })

	perm := idx.rng.Perm(len(all))
	idx.centroids = make([][]float64, idx.cfg.NLists)
	for i := 0; i < idx.cfg.NLists; i++ {
		src := all[perm[i]].vector
		c := make([]float64, len(src))
		copy(c, src)
		idx.centroids[i] = c
	}

	assignment := make(map[uint64]int, len(all))
	for iter := 0; iter < 25; iter++ {
		changed := false
		sums := make([][]float64, idx.cfg.NLists)
		counts := make([]int, idx.cfg.NLists)
		for i := range sums {
			sums[i] = make([]float64, idx.dim)
		}

		for _, e := range all {
			c := idx.nearestCentroid(e.vector)
			if assignment[e.id] != c {
				changed = true
			}
			assignment[e.id] = c
			counts[c]++
			for d := 0; d < idx.dim; d++ {
				sums[c][d] += e.vector[d]
			}
		}

		for c := 0; c < idx.cfg.NLists; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < idx.dim; d++ {
				sums[c][d] /= float64(counts[c])
			}
			if idx.metric == kernel.Cosine {
				sums[c] = kernel.Normalize(sums[c])
			}
			idx.centroids[c] = sums[c]
		}

		if !changed && iter > 0 {
			break
		}
	}

	idx.clusters = make(map[int]map[uint64][]float64, idx.cfg.NLists)
	idx.assign = make(map[uint64]int, len(all))
	for _, e := range all {
		idx.assignToNearest(e.id, e.vector)
	}
	idx.pending = make(map[uint64][]float64)
	idx.trained = true
	idx.sizeAtLastTrain = len(all)
	idx.deletesSinceTrain = 0
}

// Rebuild retrains the clustering from the current live set (§4.2.3
// retraining trigger: doubled size or 20% deleted since last train).
func (idx *IVFFlat) Rebuild() error {
	live := make(map[uint64][]float64, idx.Len())
	for id, v := range idx.pending {
		live[id] = v
	}
	for _, cluster := range idx.clusters {
		for id, v := range cluster {
			live[id] = v
		}
	}

	idx.trained = false
	idx.centroids = nil
	idx.clusters = make(map[int]map[uint64][]float64)
	idx.assign = make(map[uint64]int)
	idx.pending = live
	idx.deletesSinceTrain = 0

	if len(live) >= idx.cfg.NLists {
		idx.train()
	}
	return nil
}

func (idx *IVFFlat) Search(q []float64, k int, filter Filter) ([]Result, error) {
	if k <= 0 {
		return nil, &errkind.CapacityOrParameterError{Reason: "k must be positive"}
	}
	if err := kernel.Validate(q, idx.dim); err != nil {
		return nil, err
	}

	if !idx.trained {
		// Not enough data to cluster yet: brute force over pending.
		return topK(k, func(add func(Result)) {
			for id, v := range idx.pending {
				if filter != nil && !filter(id) {
					continue
				}
				add(Result{ID: id, Distance: kernel.Distance(idx.metric, q, v)})
			}
		}), nil
	}

	nProbe := idx.cfg.NProbe
	if nProbe > idx.cfg.NLists {
		nProbe = idx.cfg.NLists
	}

	search := func(kPrime int) []Result {
		probe := nProbe
		// Filter pushdown may expand n_probe by doubling per §4.2.5.
		if filter != nil && kPrime > k {
			ratio := kPrime / k
			for ratio > 1 && probe < idx.cfg.NLists {
				probe *= 2
				ratio /= 2
			}
			if probe > idx.cfg.NLists {
				probe = idx.cfg.NLists
			}
		}

		type cd struct {
			cluster int
			dist    float64
		}
		dists := make([]cd, len(idx.centroids))
		for i, c := range idx.centroids {
			dists[i] = cd{cluster: i, dist: kernel.Distance(idx.metric, q, c)}
		}
		// Partial selection of the probe closest centroids.
		for i := 0; i < probe && i < len(dists); i++ {
			minIdx := i
			for j := i + 1; j < len(dists); j++ {
				if dists[j].dist < dists[minIdx].dist {
					minIdx = j
				}
			}
			dists[i], dists[minIdx] = dists[minIdx], dists[i]
		}

		return topK(kPrime, func(add func(Result)) {
			for i := 0; i < probe && i < len(dists); i++ {
				for id, v := range idx.clusters[dists[i].cluster] {
					if filter != nil && !filter(id) {
						continue
					}
					add(Result{ID: id, Distance: kernel.Distance(idx.metric, q, v)})
				}
			}
		})
	}

	return oversampleAndFilter(k, idx.Len(), filter, search), nil
}
