package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvolabs/vecstore/internal/fulltext"
	"github.com/arvolabs/vecstore/internal/kernel"
	"github.com/arvolabs/vecstore/internal/record"
	"github.com/arvolabs/vecstore/internal/vectorindex"
)

func newStore(t *testing.T) *record.Store {
	t.Helper()
	s := record.New(2, kernel.Euclidean, []string{"body"}, nil, nil)
	require.NoError(t, s.AddVectorIndex("default", vectorindex.NewBruteForce(2, kernel.Euclidean)))
	require.NoError(t, s.AddScalarIndex("category"))
	s.SetFulltextIndex(fulltext.New())
	return s
}

func TestExecute_ModeLessAscendingID(t *testing.T) {
	s := newStore(t)
	id3, _ := s.Add(map[string]any{}, []float64{3, 0})
	id1, _ := s.Add(map[string]any{}, []float64{1, 0})
	id2, _ := s.Add(map[string]any{}, []float64{2, 0})

	rows, err := Execute(New(), s)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []uint64{id1, id2, id3}, []uint64{rows[0].ID, rows[1].ID, rows[2].ID})
}

func TestExecute_VectorSearchWithFilterPushdown(t *testing.T) {
	s := newStore(t)
	idA, _ := s.Add(map[string]any{"category": "a"}, []float64{0, 0})
	_, _ = s.Add(map[string]any{"category": "b"}, []float64{0.1, 0})

	q := New().Filter("category", "a").VectorSearch([]float64{0, 0}, 5)
	rows, err := Execute(q, s)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, idA, rows[0].ID)
}

func TestExecute_TextSearch(t *testing.T) {
	s := newStore(t)
	id, _ := s.Add(map[string]any{"body": "hello world"}, []float64{0, 0})
	_, _ = s.Add(map[string]any{"body": "goodbye"}, []float64{1, 1})

	q := New().TextSearch("hello", 5)
	rows, err := Execute(q, s)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].ID)
}

func TestExecute_HybridWeightExtremes(t *testing.T) {
	s := newStore(t)
	idA, _ := s.Add(map[string]any{"body": "cats"}, []float64{0, 0})
	idB, _ := s.Add(map[string]any{"body": "cats cats cats"}, []float64{10, 10})

	pureVec, err := Execute(New().Hybrid([]float64{0, 0}, "cats", 1.0, 2), s)
	require.NoError(t, err)
	require.NotEmpty(t, pureVec)
	assert.Equal(t, idA, pureVec[0].ID)

	pureText, err := Execute(New().Hybrid([]float64{0, 0}, "cats", 0.0, 2), s)
	require.NoError(t, err)
	require.NotEmpty(t, pureText)
	assert.Equal(t, idB, pureText[0].ID)
}

func TestExecute_LimitAndOffset(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 5; i++ {
		_, _ = s.Add(map[string]any{}, []float64{float64(i), 0})
	}

	rows, err := Execute(New().Offset(2).Limit(2), s)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestExecute_SelectProjectsFields(t *testing.T) {
	s := newStore(t)
	id, _ := s.Add(map[string]any{"category": "a", "note": "secret"}, []float64{0, 0})

	rows, err := Execute(New().Select("category"), s)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].ID)
	assert.Equal(t, "a", rows[0].Payload["category"])
	_, hasNote := rows[0].Payload["note"]
	assert.False(t, hasNote)
}

func TestExecute_UnknownIndexIsHardError(t *testing.T) {
	s := newStore(t)
	_, err := Execute(New().UseIndex("nope").VectorSearch([]float64{0, 0}, 1), s)
	require.Error(t, err)
}

func TestExecute_WherePredicate(t *testing.T) {
	s := newStore(t)
	_, _ = s.Add(map[string]any{"score": 1.0}, []float64{0, 0})
	id2, _ := s.Add(map[string]any{"score": 9.0}, []float64{1, 1})

	q := New().Where(func(r *record.Record) bool {
		v, _ := r.Payload["score"].(float64)
		return v > 5
	})
	rows, err := Execute(q, s)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id2, rows[0].ID)
}
