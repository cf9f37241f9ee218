// Package hybrid implements the score fusion of §4.5: converting vector
// distances and BM25 scores to a common [0,1] similarity, then a weighted
// sum with stable ranking. Grounded on internal/retrieval/scorer.go's
// min-max normalization and weighted-sum combination style.
package hybrid

import (
	"math"
	"sort"

	"github.com/arvolabs/vecstore/internal/kernel"
)

// VectorResult is a candidate from the vector ranking pass.
type VectorResult struct {
	ID       uint64
	Distance float64
}

// TextResult is a candidate from the text ranking pass.
type TextResult struct {
	ID    uint64
	Score float64
}

// Fused is a fused (id, score) pair.
type Fused struct {
	ID    uint64
	Score float64
}

// VectorSimilarity converts a distance under metric to a [0,1] similarity
// per §4.5.1: 1/(1+d) for euclidean, 1-d clipped to [0,1] for cosine, and a
// logistic transform of the (already negated) dot distance.
func VectorSimilarity(metric kernel.Metric, distance float64) float64 {
	switch metric {
	case kernel.Euclidean:
		return 1 / (1 + distance)
	case kernel.Dot:
		return 1 / (1 + math.Exp(distance))
	default: // cosine
		sim := 1 - distance
		if sim < 0 {
			sim = 0
		} else if sim > 1 {
			sim = 1
		}
		return sim
	}
}

// minMaxNormalize scales scores into [0,1] across the candidate set. When
// every score is equal, matched candidates are treated as maximally
// relevant (1.0) rather than dividing by zero.
func minMaxNormalize(scores map[uint64]float64) map[uint64]float64 {
	if len(scores) == 0 {
		return scores
	}
	min, max := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	out := make(map[uint64]float64, len(scores))
	if max == min {
		for id := range scores {
			if max > 0 {
				out[id] = 1
			} else {
				out[id] = 0
			}
		}
		return out
	}
	for id, s := range scores {
		out[id] = (s - min) / (max - min)
	}
	return out
}

// Fuse combines vector and text rankings with weight w (weight on the
// vector side), returning the top-k fused results descending by score,
// ties broken by ascending id. Records present in only one list use 0 for
// the missing side (§4.5.2).
func Fuse(metric kernel.Metric, vec []VectorResult, text []TextResult, w float64, k int) []Fused {
	vecSim := make(map[uint64]float64, len(vec))
	for _, v := range vec {
		vecSim[v.ID] = VectorSimilarity(metric, v.Distance)
	}

	textRaw := make(map[uint64]float64, len(text))
	for _, t := range text {
		textRaw[t.ID] = t.Score
	}
	textSim := minMaxNormalize(textRaw)

	ids := make(map[uint64]struct{}, len(vecSim)+len(textSim))
	for id := range vecSim {
		ids[id] = struct{}{}
	}
	for id := range textSim {
		ids[id] = struct{}{}
	}

	fused := make([]Fused, 0, len(ids))
	for id := range ids {
		score := w*vecSim[id] + (1-w)*textSim[id]
		fused = append(fused, Fused{ID: id, Score: score})
	}

	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ID < fused[j].ID
	})

	if k >= 0 && len(fused) > k {
		fused = fused[:k]
	}
	return fused
}
