// Package resolver maps raw user input (a prefixed ontology identifier or a free-text label)
// to a canonical concept URI.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/biokgvec/internal/labels"
)

// DefaultNamespace is the OBO Library base IRI used when an ontology has no explicit namespace.
const DefaultNamespace = "http://purl.obolibrary.org/obo/"

// ErrLabelNotFound is the sentinel wrapped by every ResolutionError.
var ErrLabelNotFound = errors.New("label not found")

// ResolutionError reports a free-text label with no dictionary entry.
type ResolutionError struct {
	Input       string
	Ontology    string
	Suggestions []labels.Suggestion
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s label not found: %q", e.Ontology, e.Input)
}

func (e *ResolutionError) Unwrap() error { return ErrLabelNotFound }

// Resolver holds the base namespace of each known ontology.
type Resolver struct {
	namespaces map[string]string
}

// New creates a resolver. namespaces maps an ontology prefix ("GO") to its base IRI; ontologies
// missing from the map use DefaultNamespace.
func New(namespaces map[string]string) *Resolver {
	ns := make(map[string]string, len(namespaces))
	for k, v := range namespaces {
		ns[k] = v
	}
	return &Resolver{namespaces: ns}
}

// Namespace returns the base IRI for ontology.
func (r *Resolver) Namespace(ontology string) string {
	if ns, ok := r.namespaces[ontology]; ok && ns != "" {
		return ns
	}
	return DefaultNamespace
}

// Resolve returns the concept URI for raw.
//
// Input starting with the ontology's prefix token ("GO_") is trusted: the URI is synthesized
// from the namespace without consulting dict and without any existence check, so a malformed
// identifier only fails later, when it is looked up in a vector table. Any other input is
// treated as a label, normalized and validated immediately against dict. A nil dict has no
// labels.
func (r *Resolver) Resolve(raw, ontology string, dict *labels.Dictionary) (string, error) {
	if IsPrefixed(raw, ontology) {
		return r.Namespace(ontology) + raw, nil
	}
	uri, ok := dict.Forward(labels.Normalize(raw))
	if !ok {
		return "", &ResolutionError{Input: raw, Ontology: ontology}
	}
	return uri, nil
}

// IsPrefixed reports whether raw starts with the ontology prefix token, e.g. "HP_".
func IsPrefixed(raw, ontology string) bool {
	return ontology != "" && strings.HasPrefix(raw, ontology+"_")
}
