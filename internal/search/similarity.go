// Package search computes cosine similarity and exact top-N nearest neighbors over vector tables.
package search

import (
	"math"

	"github.com/hyperjump/biokgvec/internal/vector"
)

// Cosine returns dot(a,b) / (|a|*|b|). It returns 0 when either vector has zero magnitude or
// the lengths differ.
func Cosine(a, b vector.Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Similarity returns the cosine similarity of two rows of t, using the table's native scorer when
// it has one. ok is false when either URI is absent.
func Similarity(t vector.Table, uri1, uri2 string) (score float64, ok bool) {
	if ps, isPair := t.(vector.PairScorer); isPair {
		return ps.Similarity(uri1, uri2)
	}
	a, ok := t.Get(uri1)
	if !ok {
		return 0, false
	}
	b, ok := t.Get(uri2)
	if !ok {
		return 0, false
	}
	return Cosine(a, b), true
}
