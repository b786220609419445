// Package labels provides the bidirectional mapping between normalized human-readable labels
// and concept URIs of one ontology.
package labels

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"sort"
	"strings"
)

// Suffix marks registry entries that hold a label dictionary, e.g. "GO_Labels".
const Suffix = "_Labels"

// DictionaryName returns the registry name of the dictionary for ontology.
func DictionaryName(ontology string) string {
	return ontology + Suffix
}

// IsDictionaryName reports whether name follows the label dictionary naming convention.
func IsDictionaryName(name string) bool {
	return strings.HasSuffix(name, Suffix) && len(name) > len(Suffix)
}

// Normalize lowercases s and replaces underscores with spaces.
func Normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", " ")
}

// Pair is one label/URI association.
type Pair struct {
	Label string
	URI   string
}

// Dictionary is an immutable label <-> URI mapping. Labels are normalized on construction;
// lookups are exact-match.
type Dictionary struct {
	name     string
	forward  map[string]string
	backward map[string]string
	sorted   []string
}

// New builds a dictionary from pairs. Later pairs win on label collisions.
func New(name string, pairs ...Pair) *Dictionary {
	d := &Dictionary{
		name:     name,
		forward:  make(map[string]string, len(pairs)),
		backward: make(map[string]string, len(pairs)),
	}
	for _, p := range pairs {
		label := Normalize(p.Label)
		d.forward[label] = p.URI
		d.backward[p.URI] = label
	}
	d.index()
	return d
}

func (d *Dictionary) index() {
	d.sorted = make([]string, 0, len(d.forward))
	for label := range d.forward {
		d.sorted = append(d.sorted, label)
	}
	sort.Strings(d.sorted)
}

// ReadJSON decodes a symmetric {"label": "uri", "uri": "label"} object. Entries whose key is an
// http(s) URI populate the backward direction; all other entries populate the forward direction.
// URIs that only appear as forward values get a backward entry from their label.
func ReadJSON(name string, r io.Reader) (*Dictionary, error) {
	var raw map[string]string
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode label dictionary: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after label dictionary")
	}
	if raw == nil {
		return nil, fmt.Errorf("label dictionary is null")
	}
	forward := make(map[string]string, len(raw)/2)
	backward := make(map[string]string, len(raw)/2)
	for k, v := range raw {
		if isURI(k) {
			backward[k] = v
		} else {
			forward[k] = v
		}
	}
	return FromMaps(name, forward, backward), nil
}

// FromMaps builds a dictionary from separate directions. Labels in both maps are normalized.
// URIs that only appear as forward values get a backward entry from their first label in sort
// order.
func FromMaps(name string, forward, backward map[string]string) *Dictionary {
	d := &Dictionary{
		name:     name,
		forward:  make(map[string]string, len(forward)),
		backward: make(map[string]string, len(backward)),
	}
	for label, uri := range forward {
		d.forward[Normalize(label)] = uri
	}
	for uri, label := range backward {
		d.backward[uri] = Normalize(label)
	}
	d.index()
	for _, label := range d.sorted {
		uri := d.forward[label]
		if _, ok := d.backward[uri]; !ok {
			d.backward[uri] = label
		}
	}
	return d
}

func isURI(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Name returns the registry name, e.g. "GO_Labels".
func (d *Dictionary) Name() string { return d.name }

// Ontology returns the ontology prefix of the dictionary name.
func (d *Dictionary) Ontology() string { return strings.TrimSuffix(d.name, Suffix) }

// Len returns the number of labels.
func (d *Dictionary) Len() int { return len(d.forward) }

// Forward returns the URI for an already normalized label.
func (d *Dictionary) Forward(label string) (string, bool) {
	if d == nil {
		return "", false
	}
	uri, ok := d.forward[label]
	return uri, ok
}

// Backward returns the normalized label for uri.
func (d *Dictionary) Backward(uri string) (string, bool) {
	if d == nil {
		return "", false
	}
	label, ok := d.backward[uri]
	return label, ok
}

// URIs yields (uri, label) pairs of the backward direction in URI order.
func (d *Dictionary) URIs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if d == nil {
			return
		}
		uris := make([]string, 0, len(d.backward))
		for uri := range d.backward {
			uris = append(uris, uri)
		}
		sort.Strings(uris)
		for _, uri := range uris {
			if !yield(uri, d.backward[uri]) {
				return
			}
		}
	}
}

// All yields (label, uri) pairs in label order.
func (d *Dictionary) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if d == nil {
			return
		}
		for _, label := range d.sorted {
			if !yield(label, d.forward[label]) {
				return
			}
		}
	}
}
