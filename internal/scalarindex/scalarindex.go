// Package scalarindex implements the ordered scalar B-tree index of §4.3:
// an ordered value -> set-of-IDs map supporting equality, range, and "in"
// predicates, with values totally ordered within one index (no mixing
// numeric and string values).
//
// No example repo in the retrieved pack ships a generic ordered-map/B-tree
// library (there is no google/btree, tidwall/btree, or similar in any
// go.mod or go.sum across the corpus), so this is grounded directly on the
// standard library's comparison idiom rather than a third-party structure;
// see DESIGN.md for the justification. It is implemented as a simple
// unbalanced binary search tree keyed by value, which gives O(log n)
// average-case mutations matching the spec's complexity note for the
// typical insertion orders the core deals with.
package scalarindex

import (
	"fmt"
	"sort"

	"github.com/arvolabs/vecstore/internal/errkind"
)

// Kind identifies the total order a scalar value belongs to.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindBool
)

// Value is a totally-ordered scalar stored in the index.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
}

// Number constructs a numeric Value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// String constructs a string Value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bool constructs a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Compare orders a against b; both must share a Kind.
func Compare(a, b Value) (int, error) {
	if a.Kind != b.Kind {
		return 0, &errkind.SchemaViolationError{Field: "", Reason: "mixed value kinds in scalar index"}
	}
	switch a.Kind {
	case KindNumber:
		switch {
		case a.Num < b.Num:
			return -1, nil
		case a.Num > b.Num:
			return 1, nil
		default:
			return 0, nil
		}
	case KindString:
		switch {
		case a.Str < b.Str:
			return -1, nil
		case a.Str > b.Str:
			return 1, nil
		default:
			return 0, nil
		}
	default: // KindBool
		if a.Bool == b.Bool {
			return 0, nil
		}
		if !a.Bool && b.Bool {
			return -1, nil
		}
		return 1, nil
	}
}

type node struct {
	value Value
	ids   map[uint64]struct{}
	left  *node
	right *node
}

// Index is the scalar B-tree index.
type Index struct {
	root *node
	kind Kind
	n    int
}

// New creates an empty scalar index.
func New() *Index {
	return &Index{}
}

// Insert adds id under value. The first insertion fixes the index's Kind;
// subsequent insertions of a different Kind are rejected.
func (idx *Index) Insert(value Value, id uint64) error {
	if idx.root == nil && idx.n == 0 {
		idx.kind = value.Kind
	}
	if idx.n > 0 && value.Kind != idx.kind {
		return &errkind.SchemaViolationError{Field: "", Reason: fmt.Sprintf("scalar index holds kind %v, got %v", idx.kind, value.Kind)}
	}
	for _, existing := range idx.Eq(value) {
		if existing == id {
			return nil
		}
	}
	idx.root = insertNode(idx.root, value, id)
	idx.n++
	return nil
}

func insertNode(n *node, value Value, id uint64) *node {
	if n == nil {
		return &node{value: value, ids: map[uint64]struct{}{id: {}}}
	}
	cmp, _ := Compare(value, n.value)
	switch {
	case cmp < 0:
		n.left = insertNode(n.left, value, id)
	case cmp > 0:
		n.right = insertNode(n.right, value, id)
	default:
		n.ids[id] = struct{}{}
	}
	return n
}

// Remove drops id from value's bucket, pruning the node if it becomes
// empty.
func (idx *Index) Remove(value Value, id uint64) {
	var removed bool
	idx.root, removed = removeNode(idx.root, value, id)
	if removed {
		idx.n--
	}
}

func removeNode(n *node, value Value, id uint64) (*node, bool) {
	if n == nil {
		return nil, false
	}
	cmp, err := Compare(value, n.value)
	if err != nil {
		return n, false
	}
	removed := false
	switch {
	case cmp < 0:
		n.left, removed = removeNode(n.left, value, id)
	case cmp > 0:
		n.right, removed = removeNode(n.right, value, id)
	default:
		if _, ok := n.ids[id]; ok {
			delete(n.ids, id)
			removed = true
		}
		if len(n.ids) == 0 {
			return deleteNode(n), removed
		}
	}
	return n, removed
}

func deleteNode(n *node) *node {
	if n.left == nil {
		return n.right
	}
	if n.right == nil {
		return n.left
	}
	// Replace with the in-order successor (minimum of right subtree).
	succParent := n
	succ := n.right
	for succ.left != nil {
		succParent = succ
		succ = succ.left
	}
	if succParent != n {
		succParent.left = succ.right
		succ.right = n.right
	}
	succ.left = n.left
	return succ
}

// Eq returns all ids stored under value.
func (idx *Index) Eq(value Value) []uint64 {
	n := idx.root
	for n != nil {
		cmp, err := Compare(value, n.value)
		if err != nil {
			return nil
		}
		switch {
		case cmp < 0:
			n = n.left
		case cmp > 0:
			n = n.right
		default:
			return idsOf(n)
		}
	}
	return nil
}

// In returns the union of ids stored under any of values.
func (idx *Index) In(values []Value) []uint64 {
	seen := make(map[uint64]struct{})
	for _, v := range values {
		for _, id := range idx.Eq(v) {
			seen[id] = struct{}{}
		}
	}
	out := make([]uint64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Inclusivity controls whether Range's bounds are inclusive.
type Inclusivity struct {
	LowInclusive  bool
	HighInclusive bool
}

// Range returns all ids whose value falls within [lo, hi] (bounds
// inclusive/exclusive per incl). A nil lo or hi means unbounded on that
// side.
func (idx *Index) Range(lo, hi *Value, incl Inclusivity) []uint64 {
	var out []uint64
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		belowLo := false
		aboveHi := false
		if lo != nil {
			cmp, err := Compare(n.value, *lo)
			if err == nil {
				if cmp < 0 || (cmp == 0 && !incl.LowInclusive) {
					belowLo = true
				}
			}
		}
		if hi != nil {
			cmp, err := Compare(n.value, *hi)
			if err == nil {
				if cmp > 0 || (cmp == 0 && !incl.HighInclusive) {
					aboveHi = true
				}
			}
		}
		if lo == nil || !belowLoOutOfRange(n, lo, incl) {
			walk(n.left)
		}
		if !belowLo && !aboveHi {
			out = append(out, idsOf(n)...)
		}
		if hi == nil || !aboveHiOutOfRange(n, hi, incl) {
			walk(n.right)
		}
	}
	walk(idx.root)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// belowLoOutOfRange reports whether the entire left subtree rooted where n
// sits can be skipped because n.value is already below lo (so everything
// further left is too).
func belowLoOutOfRange(n *node, lo *Value, incl Inclusivity) bool {
	cmp, err := Compare(n.value, *lo)
	if err != nil {
		return false
	}
	if incl.LowInclusive {
		return cmp < 0
	}
	return cmp <= 0
}

func aboveHiOutOfRange(n *node, hi *Value, incl Inclusivity) bool {
	cmp, err := Compare(n.value, *hi)
	if err != nil {
		return false
	}
	if incl.HighInclusive {
		return cmp > 0
	}
	return cmp >= 0
}

func idsOf(n *node) []uint64 {
	out := make([]uint64, 0, len(n.ids))
	for id := range n.ids {
		out = append(out, id)
	}
	return out
}

// Len returns the number of (value, id) entries in the index.
func (idx *Index) Len() int { return idx.n }
