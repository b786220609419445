// Package models defines the request and response payloads of similarity queries.
package models

import "fmt"

const maxTopN = 1000

// SimilarityRequest asks for the cosine similarity of two concepts under one model.
type SimilarityRequest struct {
	Model string `json:"model"`
	ID1   string `json:"id1"`
	ID2   string `json:"id2"`
}

// Validate reports a missing model or identifier.
func (r *SimilarityRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if r.ID1 == "" || r.ID2 == "" {
		return fmt.Errorf("id1 and id2 cannot be empty")
	}
	return nil
}

// NeighborsRequest asks for the nearest neighbors of a concept under one model.
// TopN is a pointer so an explicit 0 can be told apart from an absent field.
type NeighborsRequest struct {
	Model string `json:"model"`
	Key   string `json:"key"`
	TopN  *int   `json:"top_n,omitempty"`
}

// Validate checks the request and fills TopN with defaultTopN when it is absent.
// Non-positive values are left for the query layer to reject; values above 1000 are capped.
func (r *NeighborsRequest) Validate(defaultTopN int) error {
	if r.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if r.Key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if r.TopN == nil {
		n := defaultTopN
		r.TopN = &n
	}
	if *r.TopN > maxTopN {
		n := maxTopN
		r.TopN = &n
	}
	return nil
}

// N returns the requested neighbor count, or 0 when unset.
func (r *NeighborsRequest) N() int {
	if r.TopN == nil {
		return 0
	}
	return *r.TopN
}
