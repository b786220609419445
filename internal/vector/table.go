// Package vector provides immutable vector tables keyed by concept URI, backed either by
// an in-memory map or by a memory-mapped file.
package vector

import (
	"errors"
	"iter"
	"net/url"
)

// Embedding is a fixed-length vector. Embeddings returned by a Table are read-only views.
type Embedding []float32

// Table is an immutable mapping from concept URI to embedding for one (ontology, method) pair.
type Table interface {
	Name() string
	// Dim returns the dimensionality shared by every row.
	Dim() int
	Len() int
	Get(uri string) (Embedding, bool)
	// All yields every (uri, embedding) pair in table order. The order is stable across calls.
	All() iter.Seq2[string, Embedding]
}

// Scorer is implemented by tables that can compute cosine similarity of a query against every
// row without going through Get. Scores are yielded in table order.
type Scorer interface {
	ScoreAll(query Embedding) iter.Seq2[string, float64]
}

// PairScorer is implemented by tables that compute cosine similarity between two stored rows.
type PairScorer interface {
	Similarity(uri1, uri2 string) (float64, bool)
}

var (
	// ErrDimensionMismatch is returned when a row does not match the table dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrDuplicateKey is returned when the same URI is added twice.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrMalformedKey is returned when a key is not an absolute http(s) URI.
	ErrMalformedKey = errors.New("malformed concept URI")
)

// IsConceptURI reports whether s is an absolute http or https URI with a host.
func IsConceptURI(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
