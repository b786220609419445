package query

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/biokgvec/internal/labels"
	"github.com/hyperjump/biokgvec/internal/registry"
	"github.com/hyperjump/biokgvec/internal/resolver"
	"github.com/hyperjump/biokgvec/internal/vector"
)

const obo = resolver.DefaultNamespace

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingObserver) ObserveQuery(op, code string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op+":"+code)
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	tbl, err := vector.NewMapTable("GO_TransE",
		[]string{obo + "GO_A", obo + "GO_B", obo + "GO_C", obo + "GO_0051301"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}, {-1, 0}},
	)
	require.NoError(t, err)
	dict := labels.New("GO_Labels",
		labels.Pair{Label: "alpha", URI: obo + "GO_A"},
		labels.Pair{Label: "beta", URI: obo + "GO_B"},
		labels.Pair{Label: "cell division", URI: obo + "GO_0051301"},
	)
	reg, err := registry.New(registry.TableEntry(tbl), registry.DictionaryEntry(dict))
	require.NoError(t, err)
	return NewService(reg, resolver.New(nil), opts...)
}

func TestNearestNeighbors_Scenario(t *testing.T) {
	svc := newTestService(t)
	got, err := svc.NearestNeighbors("GO", "TransE", "GO_A", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, obo+"GO_C", got[0].Link)
	assert.Equal(t, "GO_C", got[0].Key, "unlabeled URIs show their last segment")
	assert.InDelta(t, 1/math.Sqrt2, got[0].Similarity, 1e-6)

	assert.Equal(t, obo+"GO_B", got[1].Link)
	assert.Equal(t, "beta [GO_B]", got[1].Key)
	assert.InDelta(t, 0.0, got[1].Similarity, 1e-9)
}

func TestNearestNeighbors_ByLabel(t *testing.T) {
	svc := newTestService(t)
	got, err := svc.NearestNeighbors("GO", "TransE", "cell_division", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for _, n := range got {
		assert.NotEqual(t, obo+"GO_0051301", n.Link)
	}
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
}

func TestPairwiseSimilarity(t *testing.T) {
	svc := newTestService(t)
	got, err := svc.PairwiseSimilarity("GO", "TransE", "cell_division", "GO_A")
	require.NoError(t, err)
	assert.Equal(t, "cell division [GO_0051301]", got.Label1)
	assert.Equal(t, "alpha [GO_A]", got.Label2)
	assert.Equal(t, obo+"GO_0051301", got.URL1)
	assert.Equal(t, obo+"GO_A", got.URL2)
	assert.InDelta(t, -1.0, got.Similarity, 1e-6)

	self, err := svc.PairwiseSimilarity("GO", "TransE", "GO_B", "beta")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, self.Similarity, 1e-6)
}

func TestErrors(t *testing.T) {
	obs := &recordingObserver{}
	svc := newTestService(t, WithObserver(obs))

	_, err := svc.PairwiseSimilarity("GO", "DistMult", "GO_A", "GO_B")
	var mnf *ModelNotFoundError
	require.ErrorAs(t, err, &mnf)
	assert.Equal(t, "DistMult", mnf.Method)
	assert.Equal(t, CodeModelNotFound, Code(err))

	_, err = svc.NearestNeighbors("HP", "TransE", "HP_0001250", 5)
	assert.ErrorIs(t, err, ErrModelNotFound)

	_, err = svc.PairwiseSimilarity("GO", "TransE", "no such label", "GO_A")
	var re *resolver.ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "no such label", re.Input)
	assert.Equal(t, CodeUnresolved, Code(err))

	_, err = svc.PairwiseSimilarity("GO", "TransE", "GO_A", "GO_9999999")
	var inf *IdentifierNotFoundError
	require.ErrorAs(t, err, &inf)
	assert.Equal(t, obo+"GO_9999999", inf.URI)
	assert.Equal(t, "GO_TransE", inf.Model)

	_, err = svc.NearestNeighbors("GO", "TransE", "GO_9999999", 5)
	assert.ErrorIs(t, err, ErrIdentifierNotFound)

	for _, n := range []int{0, -3} {
		_, err = svc.NearestNeighbors("GO", "TransE", "GO_A", n)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
	_, err = svc.PairwiseSimilarity("GO", "TransE", "", "GO_A")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.NearestNeighbors("GO", "", "GO_A", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, CodeInternal, Code(errors.New("boom")))
	assert.Equal(t, CodeOK, Code(nil))

	assert.Equal(t, []string{
		"similarity:model_not_found",
		"neighbors:model_not_found",
		"similarity:label_not_found",
		"similarity:identifier_not_found",
		"neighbors:identifier_not_found",
		"neighbors:invalid_argument",
		"neighbors:invalid_argument",
		"similarity:invalid_argument",
		"neighbors:invalid_argument",
	}, obs.calls)
}

func TestResolutionErrorCarriesSuggestions(t *testing.T) {
	dir := t.TempDir()
	vecs, err := json.Marshal(map[string][]float32{obo + "GO_0051301": {1, 0}, obo + "GO_0007067": {0, 1}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GO_TransE.json"), vecs, 0644))
	dict, err := json.Marshal(map[string]string{
		"cell division":    obo + "GO_0051301",
		"mitotic division": obo + "GO_0007067",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GO_Labels.json"), dict, 0644))

	reg, err := registry.Load(context.Background(), dir, registry.WithSuggestions(true))
	require.NoError(t, err)
	defer reg.Close()
	svc := NewService(reg, resolver.New(nil))

	_, err = svc.NearestNeighbors("GO", "TransE", "cell divison", 3)
	var re *resolver.ResolutionError
	require.ErrorAs(t, err, &re)
	require.NotEmpty(t, re.Suggestions)
	assert.Equal(t, "cell division", re.Suggestions[0].Label)

	found, err := svc.SuggestLabels("GO", "division", 5)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	none, err := svc.SuggestLabels("HP", "division", 5)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.SuggestLabels("GO", " ", 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	noSuggest := NewService(reg, resolver.New(nil), WithSuggestionLimit(0))
	_, err = noSuggest.NearestNeighbors("GO", "TransE", "cell divison", 3)
	require.ErrorAs(t, err, &re)
	assert.Empty(t, re.Suggestions)
}

func TestModels(t *testing.T) {
	svc := newTestService(t)
	infos := svc.Models()
	require.Len(t, infos, 2)
	assert.Equal(t, "GO_Labels", infos[0].Name)
	assert.Equal(t, string(registry.KindDictionary), infos[0].Kind)
	assert.Equal(t, 3, infos[0].Size)
	assert.Equal(t, "TransE", infos[1].Method)
	assert.Equal(t, 2, infos[1].Dim)
	assert.Equal(t, 4, infos[1].Size)
}

func TestDisplayLabel(t *testing.T) {
	dict := labels.New("HP_Labels", labels.Pair{Label: "Seizure", URI: obo + "HP_0001250"})
	assert.Equal(t, "seizure [HP_0001250]", DisplayLabel(dict, obo+"HP_0001250"))
	assert.Equal(t, "HP_0000001", DisplayLabel(dict, obo+"HP_0000001"))
	assert.Equal(t, "HP_0000001", DisplayLabel(nil, obo+"HP_0000001"))
}

func TestConcurrentQueries(t *testing.T) {
	svc := newTestService(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := svc.NearestNeighbors("GO", "TransE", "GO_A", 2); err != nil {
					t.Error(err)
					return
				}
				if _, err := svc.PairwiseSimilarity("GO", "TransE", "alpha", "beta"); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
