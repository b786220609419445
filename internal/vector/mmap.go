package vector

import (
	"fmt"
	"iter"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/viant/vec/search"
)

// MmapTable is a Table whose rows are read-only views over a memory-mapped .kvec file.
// The mapping is shared, so concurrent readers and processes share the physical pages.
type MmapTable struct {
	name   string
	dim    int
	keys   []string
	index  map[string]int
	rows   []float32
	norms  []float32
	data   []byte
	unmap  func([]byte) error
	closed atomic.Bool
}

var hostLittleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// OpenMmap maps the .kvec file at path and returns it as a table called name.
func OpenMmap(name, path string) (*MmapTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() < kvecHeaderSize {
		return nil, fmt.Errorf("%w: file shorter than header", ErrBadFormat)
	}
	data, unmap, err := mapFile(f, int(fi.Size()))
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	t, err := newMmapTable(name, data, unmap)
	if err != nil {
		_ = unmap(data)
		return nil, err
	}
	return t, nil
}

func newMmapTable(name string, data []byte, unmap func([]byte) error) (*MmapTable, error) {
	l, err := parseLayout(data)
	if err != nil {
		return nil, err
	}
	n := len(l.keys) * l.dim
	var rows []float32
	switch {
	case n == 0:
	case hostLittleEndian:
		rows = unsafe.Slice((*float32)(unsafe.Pointer(&data[l.rowsOff])), n)
	default:
		if rows, err = DecodeFloat32s(data[l.rowsOff:]); err != nil {
			return nil, err
		}
	}
	t := &MmapTable{
		name:  name,
		dim:   l.dim,
		keys:  l.keys,
		index: make(map[string]int, len(l.keys)),
		rows:  rows,
		norms: make([]float32, len(l.keys)),
		data:  data,
		unmap: unmap,
	}
	for i, k := range l.keys {
		t.index[k] = i
		t.norms[i] = search.Float32s(t.row(i)).Magnitude()
	}
	return t, nil
}

func (t *MmapTable) row(i int) []float32 {
	return t.rows[i*t.dim : (i+1)*t.dim : (i+1)*t.dim]
}

// Name returns the composite model name.
func (t *MmapTable) Name() string { return t.name }

// Dim returns the vector dimensionality.
func (t *MmapTable) Dim() int { return t.dim }

// Len returns the number of rows.
func (t *MmapTable) Len() int { return len(t.keys) }

// Get returns a read-only view of the row for uri.
func (t *MmapTable) Get(uri string) (Embedding, bool) {
	i, ok := t.index[uri]
	if !ok {
		return nil, false
	}
	return t.row(i), true
}

// All yields rows in file order.
func (t *MmapTable) All() iter.Seq2[string, Embedding] {
	return func(yield func(string, Embedding) bool) {
		for i, k := range t.keys {
			if !yield(k, t.row(i)) {
				return
			}
		}
	}
}

// ScoreAll yields the cosine similarity of query against every row using cached row norms.
func (t *MmapTable) ScoreAll(query Embedding) iter.Seq2[string, float64] {
	qn := search.Float32s(query).Magnitude()
	return func(yield func(string, float64) bool) {
		for i, k := range t.keys {
			if !yield(k, cosineWithNorms(t.row(i), query, t.norms[i], qn)) {
				return
			}
		}
	}
}

// Similarity returns the cosine similarity between two stored rows.
func (t *MmapTable) Similarity(uri1, uri2 string) (float64, bool) {
	i, ok := t.index[uri1]
	if !ok {
		return 0, false
	}
	j, ok := t.index[uri2]
	if !ok {
		return 0, false
	}
	return cosineWithNorms(t.row(i), t.row(j), t.norms[i], t.norms[j]), true
}

// cosineWithNorms scores a against b. The cached norms only gate zero vectors; the
// distance itself goes through CosineDistance, which every GOARCH exports.
func cosineWithNorms(a, b []float32, na, nb float32) float64 {
	if na == 0 || nb == 0 || len(a) != len(b) {
		return 0
	}
	return 1 - float64(search.Float32s(a).CosineDistance(b))
}

// Close unmaps the file. Views obtained from the table must not be used afterwards.
func (t *MmapTable) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	data := t.data
	t.data, t.rows = nil, nil
	if t.unmap == nil || data == nil {
		return nil
	}
	return t.unmap(data)
}
