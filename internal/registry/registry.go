// Package registry holds every vector table and label dictionary loaded from the models
// directory, keyed by composite name ("GO_TransE", "HP_Labels").
//
// A Registry is built once, by Load or New, and is read-only afterwards. It owns its tables and
// dictionaries and releases them on Close.
package registry

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/biokgvec/internal/labels"
	"github.com/hyperjump/biokgvec/internal/vector"
)

// Kind distinguishes the two entry types.
type Kind string

const (
	KindTable      Kind = "vector_table"
	KindDictionary Kind = "label_dictionary"
)

var (
	// ErrNotFound is returned when no entry has the requested name.
	ErrNotFound = errors.New("model not found")
	// ErrLoad is matched by every LoadError.
	ErrLoad = errors.New("model load failed")
	// ErrDuplicateName is returned when two entries share a composite name.
	ErrDuplicateName = errors.New("duplicate model name")
)

// LoadError records a file that could not be loaded.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLoad) true for every LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// Entry is one registry member. Exactly one of Table and Labels is set.
type Entry struct {
	Name   string
	Kind   Kind
	Format string
	File   string
	Table  vector.Table
	Labels *labels.Dictionary
}

// TableEntry wraps t as a registry entry.
func TableEntry(t vector.Table) Entry {
	return Entry{Name: t.Name(), Kind: KindTable, Table: t}
}

// DictionaryEntry wraps d as a registry entry.
func DictionaryEntry(d *labels.Dictionary) Entry {
	return Entry{Name: d.Name(), Kind: KindDictionary, Labels: d}
}

// Size returns the number of rows or labels.
func (e Entry) Size() int {
	if e.Table != nil {
		return e.Table.Len()
	}
	return e.Labels.Len()
}

// Dim returns the table dimensionality, or 0 for dictionaries.
func (e Entry) Dim() int {
	if e.Table != nil {
		return e.Table.Dim()
	}
	return 0
}

// Ontology returns the prefix before the first underscore of the entry name.
func (e Entry) Ontology() string {
	ont, _, _ := strings.Cut(e.Name, "_")
	return ont
}

// Method returns the embedding method of a table entry, e.g. "TransE" for "GO_TransE".
func (e Entry) Method() string {
	if e.Kind != KindTable {
		return ""
	}
	_, method, _ := strings.Cut(e.Name, "_")
	return method
}

// Registry is an immutable set of named entries.
type Registry struct {
	id         uuid.UUID
	loadedAt   time.Time
	dir        string
	entries    map[string]Entry
	names      []string
	suggesters map[string]*labels.Suggester
	loadErrors []*LoadError
}

func newRegistry(dir string) *Registry {
	return &Registry{
		id:         uuid.New(),
		loadedAt:   time.Now(),
		dir:        dir,
		entries:    make(map[string]Entry),
		suggesters: make(map[string]*labels.Suggester),
	}
}

// New builds an in-memory registry from entries.
func New(entries ...Entry) (*Registry, error) {
	r := newRegistry("")
	for _, e := range entries {
		if err := r.add(e); err != nil {
			return nil, err
		}
	}
	r.seal()
	return r, nil
}

func (r *Registry) add(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("entry has no name")
	}
	if (e.Table == nil) == (e.Labels == nil) {
		return fmt.Errorf("entry %s must hold exactly one of a table or a dictionary", e.Name)
	}
	if _, ok := r.entries[e.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

func (r *Registry) seal() {
	r.names = make([]string, 0, len(r.entries))
	for name := range r.entries {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
}

// ID identifies this load of the registry.
func (r *Registry) ID() string { return r.id.String() }

// LoadedAt returns when the registry was built.
func (r *Registry) LoadedAt() time.Time { return r.loadedAt }

// Dir returns the models directory, or "" for in-memory registries.
func (r *Registry) Dir() string { return r.dir }

// Get returns the entry called name.
func (r *Registry) Get(name string) (Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return e, nil
}

// Table returns the vector table called name.
func (r *Registry) Table(name string) (vector.Table, error) {
	e, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	if e.Table == nil {
		return nil, fmt.Errorf("%w: %s is a label dictionary", ErrNotFound, name)
	}
	return e.Table, nil
}

// Labels returns the label dictionary of ontology, or nil when none was loaded.
func (r *Registry) Labels(ontology string) *labels.Dictionary {
	e, ok := r.entries[labels.DictionaryName(ontology)]
	if !ok {
		return nil
	}
	return e.Labels
}

// Suggester returns the label suggester of ontology, or nil when none was built.
func (r *Registry) Suggester(ontology string) *labels.Suggester {
	return r.suggesters[ontology]
}

// Names returns every composite name in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Entries returns every entry in name order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.entries[name])
	}
	return out
}

// Methods returns the sorted embedding methods available for ontology.
func (r *Registry) Methods(ontology string) []string {
	var out []string
	for _, name := range r.names {
		e := r.entries[name]
		if e.Kind == KindTable && e.Ontology() == ontology {
			out = append(out, e.Method())
		}
	}
	return out
}

// Count returns the number of entries of kind.
func (r *Registry) Count(kind Kind) int {
	n := 0
	for _, e := range r.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// LoadErrors returns the files that failed to load.
func (r *Registry) LoadErrors() []*LoadError {
	return append([]*LoadError(nil), r.loadErrors...)
}

// Close releases memory mappings and suggestion indexes. The registry must not be used
// afterwards.
func (r *Registry) Close() error {
	var errs []error
	for _, name := range r.names {
		if c, ok := r.entries[name].Table.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", name, err))
			}
		}
	}
	for ont, s := range r.suggesters {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s suggester: %w", ont, err))
		}
	}
	return errors.Join(errs...)
}
