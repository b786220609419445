// Package query answers pairwise similarity and nearest-neighbor queries against a loaded
// registry, resolving raw identifiers and annotating results with display labels.
package query

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/biokgvec/internal/labels"
	"github.com/hyperjump/biokgvec/internal/models"
	"github.com/hyperjump/biokgvec/internal/registry"
	"github.com/hyperjump/biokgvec/internal/resolver"
	"github.com/hyperjump/biokgvec/internal/search"
	"github.com/hyperjump/biokgvec/internal/vector"
)

const defaultSuggestionLimit = 5

// Service is safe for concurrent use.
type Service struct {
	registry    *registry.Registry
	resolver    *resolver.Resolver
	observer    Observer
	logger      *zap.Logger
	suggestions int
}

// Option configures a Service.
type Option func(*Service)

// WithObserver reports every query outcome to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSuggestionLimit sets how many label suggestions a ResolutionError carries. 0 disables them.
func WithSuggestionLimit(n int) Option {
	return func(s *Service) { s.suggestions = n }
}

// NewService creates a query service over reg.
func NewService(reg *registry.Registry, res *resolver.Resolver, opts ...Option) *Service {
	s := &Service{
		registry:    reg,
		resolver:    res,
		observer:    NoopObserver,
		logger:      zap.NewNop(),
		suggestions: defaultSuggestionLimit,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Registry returns the registry the service queries.
func (s *Service) Registry() *registry.Registry { return s.registry }

// ModelName returns the composite registry name of a vector table, e.g. "GO_TransE".
func ModelName(ontology, method string) string {
	return ontology + "_" + method
}

// PairwiseSimilarity returns the cosine similarity of two concepts under ontology's method model.
func (s *Service) PairwiseSimilarity(ontology, method, raw1, raw2 string) (res *models.SimilarityResult, err error) {
	defer s.observe(OpSimilarity, time.Now(), &err)

	if err := requireArgs(ontology, method); err != nil {
		return nil, err
	}
	if raw1 == "" || raw2 == "" {
		return nil, &InvalidArgumentError{Field: "id", Reason: "identifiers cannot be empty"}
	}
	t, err := s.table(ontology, method)
	if err != nil {
		return nil, err
	}
	dict := s.registry.Labels(ontology)
	uri1, err := s.resolve(raw1, ontology, dict)
	if err != nil {
		return nil, err
	}
	uri2, err := s.resolve(raw2, ontology, dict)
	if err != nil {
		return nil, err
	}
	for _, id := range [][2]string{{raw1, uri1}, {raw2, uri2}} {
		if _, ok := t.Get(id[1]); !ok {
			return nil, &IdentifierNotFoundError{Model: t.Name(), Input: id[0], URI: id[1]}
		}
	}
	score, _ := search.Similarity(t, uri1, uri2)
	s.logger.Debug("similarity",
		zap.String("model", t.Name()),
		zap.String("uri1", uri1),
		zap.String("uri2", uri2),
		zap.Float64("similarity", score))
	return &models.SimilarityResult{
		Label1:     DisplayLabel(dict, uri1),
		Label2:     DisplayLabel(dict, uri2),
		URL1:       uri1,
		URL2:       uri2,
		Similarity: score,
	}, nil
}

// NearestNeighbors returns the topN concepts most similar to rawKey, excluding rawKey itself,
// highest similarity first.
func (s *Service) NearestNeighbors(ontology, method, rawKey string, topN int) (out []models.Neighbor, err error) {
	defer s.observe(OpNeighbors, time.Now(), &err)

	if err := requireArgs(ontology, method); err != nil {
		return nil, err
	}
	if rawKey == "" {
		return nil, &InvalidArgumentError{Field: "key", Reason: "key cannot be empty"}
	}
	if topN <= 0 {
		return nil, &InvalidArgumentError{Field: "top_n", Reason: search.ErrInvalidN.Error()}
	}
	t, err := s.table(ontology, method)
	if err != nil {
		return nil, err
	}
	dict := s.registry.Labels(ontology)
	uri, err := s.resolve(rawKey, ontology, dict)
	if err != nil {
		return nil, err
	}
	vec, ok := t.Get(uri)
	if !ok {
		return nil, &IdentifierNotFoundError{Model: t.Name(), Input: rawKey, URI: uri}
	}
	scored, err := search.TopN(vec, t, uri, topN)
	if err != nil {
		return nil, &InvalidArgumentError{Field: "top_n", Reason: err.Error()}
	}
	out = make([]models.Neighbor, len(scored))
	for i, sc := range scored {
		out[i] = models.Neighbor{Key: DisplayLabel(dict, sc.URI), Link: sc.URI, Similarity: sc.Score}
	}
	s.logger.Debug("neighbors",
		zap.String("model", t.Name()),
		zap.String("uri", uri),
		zap.Int("top_n", topN),
		zap.Int("results", len(out)))
	return out, nil
}

// Models describes every registry entry.
func (s *Service) Models() []models.ModelInfo {
	entries := s.registry.Entries()
	out := make([]models.ModelInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.ModelInfo{
			Name:     e.Name,
			Kind:     string(e.Kind),
			Ontology: e.Ontology(),
			Method:   e.Method(),
			Size:     e.Size(),
			Dim:      e.Dim(),
			Format:   e.Format,
		})
	}
	return out
}

// SuggestLabels returns labels of ontology close to q. It returns no suggestions when the
// ontology has no suggestion index.
func (s *Service) SuggestLabels(ontology, q string, limit int) ([]labels.Suggestion, error) {
	if strings.TrimSpace(q) == "" {
		return nil, &InvalidArgumentError{Field: "q", Reason: "query cannot be empty"}
	}
	if limit <= 0 {
		return nil, &InvalidArgumentError{Field: "limit", Reason: "limit must be a positive integer"}
	}
	sg := s.registry.Suggester(ontology)
	if sg == nil {
		return []labels.Suggestion{}, nil
	}
	return sg.Suggest(q, limit)
}

func requireArgs(ontology, method string) error {
	if ontology == "" {
		return &InvalidArgumentError{Field: "ontology", Reason: "ontology cannot be empty"}
	}
	if method == "" {
		return &InvalidArgumentError{Field: "model", Reason: "model cannot be empty"}
	}
	return nil
}

func (s *Service) table(ontology, method string) (vector.Table, error) {
	t, err := s.registry.Table(ModelName(ontology, method))
	if err != nil {
		return nil, &ModelNotFoundError{Ontology: ontology, Method: method}
	}
	return t, nil
}

func (s *Service) resolve(raw, ontology string, dict *labels.Dictionary) (string, error) {
	uri, err := s.resolver.Resolve(raw, ontology, dict)
	var re *resolver.ResolutionError
	if errors.As(err, &re) && s.suggestions > 0 {
		if sg := s.registry.Suggester(ontology); sg != nil {
			if found, serr := sg.Suggest(raw, s.suggestions); serr == nil {
				re.Suggestions = found
			} else {
				s.logger.Warn("label suggestion failed", zap.String("ontology", ontology), zap.Error(serr))
			}
		}
	}
	return uri, err
}

func (s *Service) observe(op string, start time.Time, err *error) {
	s.observer.ObserveQuery(op, Code(*err), time.Since(start))
}

// DisplayLabel formats uri for display as "label [LastSegment]", e.g.
// "cell division [GO_0051301]". A URI without a label is shown as its last segment.
func DisplayLabel(dict *labels.Dictionary, uri string) string {
	seg := uri[strings.LastIndex(uri, "/")+1:]
	if label, ok := dict.Backward(uri); ok {
		return label + " [" + seg + "]"
	}
	return seg
}
