package search

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/hyperjump/biokgvec/internal/vector"
)

// DefaultTopN is the neighbor count used when a request does not specify one.
const DefaultTopN = 10

// ErrInvalidN is returned for a non-positive neighbor count.
var ErrInvalidN = errors.New("n must be a positive integer")

// Scored is a table key with its similarity to a query.
type Scored struct {
	URI   string
	Score float64
}

// TopN scans every row of t except excludeKey and returns the n rows most similar to query,
// highest first. Ties keep table order.
func TopN(query vector.Embedding, t vector.Table, excludeKey string, n int) ([]Scored, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidN, n)
	}
	scores := make([]Scored, 0, t.Len())
	if s, ok := t.(vector.Scorer); ok {
		for uri, score := range s.ScoreAll(query) {
			if uri != excludeKey {
				scores = append(scores, Scored{URI: uri, Score: score})
			}
		}
	} else {
		for uri, vec := range t.All() {
			if uri != excludeKey {
				scores = append(scores, Scored{URI: uri, Score: Cosine(query, vec)})
			}
		}
	}
	slices.SortStableFunc(scores, func(a, b Scored) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if n < len(scores) {
		scores = scores[:n]
	}
	return scores, nil
}
