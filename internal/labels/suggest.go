package labels

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

const (
	suggestBatchSize = 1000
	defaultFuzziness = 2
)

// Suggestion is a label close to a query that failed exact lookup.
type Suggestion struct {
	Label string  `json:"label"`
	URI   string  `json:"uri"`
	Score float64 `json:"score"`
}

// Suggester answers "did you mean" queries over the labels of one dictionary using an
// in-memory Bleve index. It is read-only once built.
type Suggester struct {
	dict  *Dictionary
	index bleve.Index
}

// NewSuggester indexes every label of d.
func NewSuggester(d *Dictionary) (*Suggester, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	labelField := bleve.NewTextFieldMapping()
	labelField.Analyzer = standard.Name
	labelField.Store = false
	docMapping.AddFieldMappingsAt("label", labelField)
	im.AddDocumentMapping("label", docMapping)
	im.DefaultType = "label"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create label index: %w", err)
	}
	batch := index.NewBatch()
	for label := range d.All() {
		if err := batch.Index(label, map[string]interface{}{"label": label}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("index label %q: %w", label, err)
		}
		if batch.Size() >= suggestBatchSize {
			if err := index.Batch(batch); err != nil {
				_ = index.Close()
				return nil, fmt.Errorf("index label batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}
	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("index label batch: %w", err)
		}
	}
	return &Suggester{dict: d, index: index}, nil
}

// Suggest returns up to limit labels ranked by relevance to query. Exact phrase matches rank
// first, then term matches, then fuzzy term matches.
func (s *Suggester) Suggest(query string, limit int) ([]Suggestion, error) {
	terms := strings.Fields(Normalize(query))
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	req := bleve.NewSearchRequest(buildSuggestQuery(Normalize(query), terms))
	req.Size = limit
	results, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("label search failed: %w", err)
	}
	out := make([]Suggestion, 0, len(results.Hits))
	for _, hit := range results.Hits {
		uri, ok := s.dict.Forward(hit.ID)
		if !ok {
			continue
		}
		out = append(out, Suggestion{Label: hit.ID, URI: uri, Score: hit.Score})
	}
	return out, nil
}

func buildSuggestQuery(phrase string, terms []string) blevequery.Query {
	pq := bleve.NewMatchPhraseQuery(phrase)
	pq.SetField("label")
	pq.SetBoost(4)
	queries := []blevequery.Query{pq}
	for _, term := range terms {
		mq := bleve.NewMatchQuery(term)
		mq.SetField("label")
		mq.SetBoost(2)
		fq := bleve.NewFuzzyQuery(term)
		fq.SetField("label")
		fq.SetFuzziness(defaultFuzziness)
		queries = append(queries, mq, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Close releases the index.
func (s *Suggester) Close() error {
	return s.index.Close()
}
