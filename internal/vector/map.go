package vector

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
)

// MapTable is an in-memory Table. Rows keep insertion order.
type MapTable struct {
	name    string
	dim     int
	keys    []string
	vectors []Embedding
	index   map[string]int
}

// Builder accumulates rows for a MapTable. Keys that are not concept URIs are skipped and counted.
type Builder struct {
	name    string
	dim     int
	keys    []string
	vectors []Embedding
	index   map[string]int
	skipped int
}

// NewBuilder creates a builder for a table called name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, dim: -1, index: make(map[string]int)}
}

// Add appends a row. The first row fixes the dimensionality.
func (b *Builder) Add(uri string, vec []float32) error {
	if !IsConceptURI(uri) {
		b.skipped++
		return nil
	}
	if _, ok := b.index[uri]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, uri)
	}
	if b.dim < 0 {
		b.dim = len(vec)
	}
	if len(vec) != b.dim {
		return fmt.Errorf("%w: %s has %d, expected %d", ErrDimensionMismatch, uri, len(vec), b.dim)
	}
	row := make(Embedding, len(vec))
	copy(row, vec)
	b.index[uri] = len(b.keys)
	b.keys = append(b.keys, uri)
	b.vectors = append(b.vectors, row)
	return nil
}

// Skipped returns the number of rows dropped because their key was not a concept URI.
func (b *Builder) Skipped() int {
	return b.skipped
}

// Table finalizes the builder. The builder must not be used afterwards.
func (b *Builder) Table() *MapTable {
	dim := b.dim
	if dim < 0 {
		dim = 0
	}
	return &MapTable{name: b.name, dim: dim, keys: b.keys, vectors: b.vectors, index: b.index}
}

// NewMapTable builds a table from parallel key and vector slices. Malformed keys are an error.
func NewMapTable(name string, keys []string, vectors [][]float32) (*MapTable, error) {
	if len(keys) != len(vectors) {
		return nil, fmt.Errorf("keys and vectors length mismatch")
	}
	b := NewBuilder(name)
	for i, k := range keys {
		if !IsConceptURI(k) {
			return nil, fmt.Errorf("%w: %q", ErrMalformedKey, k)
		}
		if err := b.Add(k, vectors[i]); err != nil {
			return nil, err
		}
	}
	return b.Table(), nil
}

// ReadJSON decodes a {"uri": [floats...], ...} object, keeping the key order of the document.
// It returns the builder so callers can inspect how many keys were skipped.
func ReadJSON(name string, r io.Reader) (*Builder, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	b := NewBuilder(name)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var vec []float32
		if err := dec.Decode(&vec); err != nil {
			return nil, fmt.Errorf("decode vector for %s: %w", key, err)
		}
		if err := b.Add(key, vec); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON object")
	}
	return b, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// Name returns the composite model name.
func (m *MapTable) Name() string { return m.name }

// Dim returns the vector dimensionality (0 for an empty table).
func (m *MapTable) Dim() int { return m.dim }

// Len returns the number of rows.
func (m *MapTable) Len() int { return len(m.keys) }

// Get returns the embedding for uri.
func (m *MapTable) Get(uri string) (Embedding, bool) {
	i, ok := m.index[uri]
	if !ok {
		return nil, false
	}
	return m.vectors[i], true
}

// All yields rows in insertion order.
func (m *MapTable) All() iter.Seq2[string, Embedding] {
	return func(yield func(string, Embedding) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vectors[i]) {
				return
			}
		}
	}
}
