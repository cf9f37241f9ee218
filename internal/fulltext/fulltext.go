// Package fulltext implements the full-text index of §4.4: a tokenizer,
// postings lists, a document-length table, and a BM25-style ranker.
//
// Grounded on the Document/Index interface shape of
// internal/index/fulltext/index.go, but the index itself is hand-rolled
// rather than delegated to Bleve: the spec fixes exact tokenizer rules (no
// stemming, no stopwords) and exact BM25 constants (k1=1.5, b=0.75,
// Lucene-style IDF) that Bleve's analyzer/scoring pipeline does not expose
// as swappable primitives. See DESIGN.md for the full justification.
package fulltext

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/arvolabs/vecstore/internal/errkind"
)

// Config holds the BM25 tuning constants.
type Config struct {
	K1 float64
	B  float64
}

// DefaultConfig returns the spec's fixed BM25 constants.
func DefaultConfig() Config {
	return Config{K1: 1.5, B: 0.75}
}

// Tokenizer converts text to a token sequence. The default implementation
// lowercases and splits on Unicode non-letter/non-digit boundaries with no
// stemming and no stopword removal (§4.4); callers may plug in another
// implementation.
type Tokenizer func(text string) []string

// DefaultTokenizer is the spec's deliberately simple tokenizer.
func DefaultTokenizer(text string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

type posting struct {
	id uint64
	tf int
}

// Index is the BM25 full-text index.
type Index struct {
	cfg      Config
	tokenize Tokenizer

	postings  map[string][]posting
	docLength map[uint64]int
	docTerms  map[uint64]map[string]int // term -> tf, for Remove/update
	totalLen  int64
}

// New creates an empty full-text index with the default BM25 config and
// tokenizer.
func New() *Index {
	return NewWithConfig(DefaultConfig(), DefaultTokenizer)
}

// NewWithConfig creates a full-text index with explicit tuning and
// tokenizer, so a caller can plug in a different tokenizer per §9's
// pluggable-capability open question.
func NewWithConfig(cfg Config, tokenize Tokenizer) *Index {
	return &Index{
		cfg:       cfg,
		tokenize:  tokenize,
		postings:  make(map[string][]posting),
		docLength: make(map[uint64]int),
		docTerms:  make(map[uint64]map[string]int),
	}
}

// Index adds or replaces the document for id.
func (idx *Index) Index(id uint64, text string) {
	idx.Remove(id)

	tokens := idx.tokenize(text)
	if len(tokens) == 0 {
		return
	}

	tf := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		tf[tok]++
	}
	idx.docTerms[id] = tf
	idx.docLength[id] = len(tokens)
	idx.totalLen += int64(len(tokens))

	for term, count := range tf {
		idx.postings[term] = append(idx.postings[term], posting{id: id, tf: count})
	}
}

// Remove deletes the document for id, if present.
func (idx *Index) Remove(id uint64) {
	tf, ok := idx.docTerms[id]
	if !ok {
		return
	}
	for term := range tf {
		list := idx.postings[term]
		for i, p := range list {
			if p.id == id {
				idx.postings[term] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(idx.postings[term]) == 0 {
			delete(idx.postings, term)
		}
	}
	idx.totalLen -= int64(idx.docLength[id])
	delete(idx.docLength, id)
	delete(idx.docTerms, id)
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int { return len(idx.docLength) }

// Hit is a single search result.
type Hit struct {
	ID    uint64
	Score float64
}

// Search tokenizes query with the same tokenizer, scores the union of
// postings for all query terms with BM25, and returns the top-k
// descending by score, ties broken by ascending id. Documents matching no
// query term are excluded (§4.4).
func (idx *Index) Search(query string, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, &errkind.CapacityOrParameterError{Reason: "k must be positive"}
	}
	terms := idx.tokenize(query)
	if len(terms) == 0 {
		return nil, &errkind.CapacityOrParameterError{Reason: "empty text query"}
	}

	n := idx.Len()
	if n == 0 {
		return nil, nil
	}
	avgdl := float64(idx.totalLen) / float64(n)
	if avgdl == 0 {
		avgdl = 1
	}

	scores := make(map[uint64]float64)
	seen := make(map[string]bool)
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true

		list := idx.postings[term]
		df := len(list)
		if df == 0 {
			continue
		}
		idf := math.Log((float64(n-df)+0.5)/(float64(df)+0.5) + 1)
		if idf < 0 {
			idf = 0
		}
		for _, p := range list {
			dl := float64(idx.docLength[p.id])
			tf := float64(p.tf)
			denom := tf + idx.cfg.K1*(1-idx.cfg.B+idx.cfg.B*dl/avgdl)
			scores[p.id] += idf * (tf * (idx.cfg.K1 + 1)) / denom
		}
	}

	hits := make([]Hit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, Hit{ID: id, Score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
