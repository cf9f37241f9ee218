package hybrid

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arvolabs/vecstore/internal/kernel"
)

func TestFuse_WeightExtremesMatchPureRankings(t *testing.T) {
	// Scenario 4 from spec.md §8: A has cosine distance 0 (exact vector
	// match) but a weak text score; B has a weak vector match but a
	// strong, repeated-term text score.
	vec := []VectorResult{
		{ID: 1, Distance: 0},
		{ID: 2, Distance: 0.9},
	}
	text := []TextResult{
		{ID: 1, Score: 1.0},
		{ID: 2, Score: 5.0},
	}

	withBoth := Fuse(kernel.Cosine, vec, text, 0.5, 2)
	assert.Len(t, withBoth, 2)

	pureVector := Fuse(kernel.Cosine, vec, text, 1.0, 2)
	assert.Equal(t, uint64(1), pureVector[0].ID, "w=1 must rank by vector similarity alone")

	pureText := Fuse(kernel.Cosine, vec, text, 0.0, 2)
	assert.Equal(t, uint64(2), pureText[0].ID, "w=0 must rank by text score alone")
}

func TestFuse_MissingSideDefaultsToZero(t *testing.T) {
	vec := []VectorResult{{ID: 1, Distance: 0}}
	text := []TextResult{{ID: 2, Score: 1}}

	fused := Fuse(kernel.Cosine, vec, text, 0.5, 10)
	scores := make(map[uint64]float64)
	for _, f := range fused {
		scores[f.ID] = f.Score
	}
	assert.InDelta(t, 0.5, scores[1], 1e-9)
	assert.InDelta(t, 0.5, scores[2], 1e-9)
}

func TestVectorSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, VectorSimilarity(kernel.Euclidean, 0), 1e-9)
	assert.InDelta(t, 0.5, VectorSimilarity(kernel.Euclidean, 1), 1e-9)
	assert.InDelta(t, 1.0, VectorSimilarity(kernel.Cosine, 0), 1e-9)
	assert.InDelta(t, 0.0, VectorSimilarity(kernel.Cosine, 2), 1e-9)
	assert.InDelta(t, 0.5, VectorSimilarity(kernel.Dot, 0), 1e-9)
}

func TestFuse_StableTieBreak(t *testing.T) {
	vec := []VectorResult{{ID: 3, Distance: 0}, {ID: 1, Distance: 0}}
	fused := Fuse(kernel.Cosine, vec, nil, 1.0, 10)
	assert.Equal(t, []uint64{1, 3}, []uint64{fused[0].ID, fused[1].ID})
}
