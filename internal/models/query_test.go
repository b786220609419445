package models

import (
	"testing"
)

func intPtr(n int) *int { return &n }

func TestSimilarityRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *SimilarityRequest
		wantErr bool
	}{
		{"empty model", &SimilarityRequest{ID1: "a", ID2: "b"}, true},
		{"empty id1", &SimilarityRequest{Model: "TransE", ID2: "b"}, true},
		{"empty id2", &SimilarityRequest{Model: "TransE", ID1: "a"}, true},
		{"valid", &SimilarityRequest{Model: "TransE", ID1: "a", ID2: "b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNeighborsRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *NeighborsRequest
		wantErr bool
		wantN   int
	}{
		{"empty model", &NeighborsRequest{Key: "k"}, true, 0},
		{"empty key", &NeighborsRequest{Model: "TransE"}, true, 0},
		{"sets default top_n", &NeighborsRequest{Model: "TransE", Key: "k"}, false, 10},
		{"keeps explicit top_n", &NeighborsRequest{Model: "TransE", Key: "k", TopN: intPtr(3)}, false, 3},
		{"keeps explicit zero", &NeighborsRequest{Model: "TransE", Key: "k", TopN: intPtr(0)}, false, 0},
		{"caps top_n", &NeighborsRequest{Model: "TransE", Key: "k", TopN: intPtr(5000)}, false, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(10)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.req.N() != tt.wantN {
				t.Errorf("expected top_n %d, got %d", tt.wantN, tt.req.N())
			}
		})
	}
}
