package fulltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizer(t *testing.T) {
	got := DefaultTokenizer("Hello, World! 123-go")
	assert.Equal(t, []string{"hello", "world", "123", "go"}, got)
}

func TestIndexSearch(t *testing.T) {
	idx := New()
	idx.Index(1, "the quick brown fox")
	idx.Index(2, "the lazy dog sleeps")
	idx.Index(3, "quick quick fox fox fox")

	hits, err := idx.Search("quick fox", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	// Document 3 repeats both query terms and should outrank document 1.
	assert.Equal(t, uint64(3), hits[0].ID)

	ids := make(map[uint64]bool)
	for _, h := range hits {
		ids[h.ID] = true
	}
	assert.False(t, ids[2], "document with no matching terms must be excluded")
}

func TestRemoveUpdatesPostings(t *testing.T) {
	idx := New()
	idx.Index(1, "alpha beta")
	idx.Remove(1)
	assert.Equal(t, 0, idx.Len())
	hits, err := idx.Search("alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestReindexReplaces(t *testing.T) {
	idx := New()
	idx.Index(1, "alpha")
	idx.Index(1, "beta")
	hits, err := idx.Search("alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search("beta", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestEmptyQueryRejected(t *testing.T) {
	idx := New()
	idx.Index(1, "alpha")
	_, err := idx.Search("   ", 10)
	require.Error(t, err)
}

func TestStableTieBreak(t *testing.T) {
	idx := New()
	idx.Index(5, "same words here")
	idx.Index(2, "same words here")
	idx.Index(9, "same words here")

	hits, err := idx.Search("same words here", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []uint64{2, 5, 9}, []uint64{hits[0].ID, hits[1].ID, hits[2].ID})
}
