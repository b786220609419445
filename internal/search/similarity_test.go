package search

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/hyperjump/biokgvec/internal/vector"
)

const tolerance = 1e-6

func randomVector(r *rand.Rand, dim int) vector.Embedding {
	v := make(vector.Embedding, dim)
	for i := range v {
		v[i] = float32(r.NormFloat64())
	}
	return v
}

func TestCosine_Symmetric(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		a, b := randomVector(r, 16), randomVector(r, 16)
		if ab, ba := Cosine(a, b), Cosine(b, a); ab != ba {
			t.Fatalf("Cosine not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestCosine_SelfIsOne(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 100; i++ {
		a := randomVector(r, 32)
		if got := Cosine(a, a); math.Abs(got-1) > tolerance {
			t.Fatalf("Cosine(a, a) = %v, want 1", got)
		}
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	zero := vector.Embedding{0, 0, 0}
	if got := Cosine(zero, vector.Embedding{1, 2, 3}); got != 0 {
		t.Errorf("Cosine(zero, v) = %v, want 0", got)
	}
	if got := Cosine(vector.Embedding{1, 2, 3}, zero); got != 0 {
		t.Errorf("Cosine(v, zero) = %v, want 0", got)
	}
	if got := Cosine(zero, zero); got != 0 {
		t.Errorf("Cosine(zero, zero) = %v, want 0", got)
	}
}

func TestCosine_Range(t *testing.T) {
	if got := Cosine(vector.Embedding{1, 0}, vector.Embedding{-1, 0}); math.Abs(got+1) > tolerance {
		t.Errorf("opposite vectors: got %v, want -1", got)
	}
	if got := Cosine(vector.Embedding{1, 0}, vector.Embedding{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors: got %v, want 0", got)
	}
	if got := Cosine(vector.Embedding{1}, vector.Embedding{1, 2}); got != 0 {
		t.Errorf("length mismatch: got %v, want 0", got)
	}
}

func TestSimilarity(t *testing.T) {
	tbl := scenarioTable(t)
	got, ok := Similarity(tbl, uri("A"), uri("C"))
	if !ok {
		t.Fatal("expected both keys to be present")
	}
	if math.Abs(got-1/math.Sqrt2) > tolerance {
		t.Errorf("Similarity(A, C) = %v", got)
	}
	if _, ok := Similarity(tbl, uri("A"), uri("missing")); ok {
		t.Error("expected missing key to report !ok")
	}
	if _, ok := Similarity(tbl, uri("missing"), uri("A")); ok {
		t.Error("expected missing key to report !ok")
	}
}
