package labels

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const obo = "http://purl.obolibrary.org/obo/"

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cell division", Normalize("Cell_Division"))
	assert.Equal(t, "cell division", Normalize("cell division"))
	assert.Equal(t, "", Normalize(""))
}

func TestDictionaryName(t *testing.T) {
	assert.Equal(t, "GO_Labels", DictionaryName("GO"))
	assert.True(t, IsDictionaryName("HP_Labels"))
	assert.False(t, IsDictionaryName("_Labels"))
	assert.False(t, IsDictionaryName("GO_TransE"))
}

func TestNew_ExactMatchLookups(t *testing.T) {
	d := New("GO_Labels", Pair{Label: "Cell_Division", URI: obo + "GO_0051301"})
	uri, ok := d.Forward("cell division")
	require.True(t, ok)
	assert.Equal(t, obo+"GO_0051301", uri)

	_, ok = d.Forward("Cell_Division")
	assert.False(t, ok, "forward lookups are exact-match on the normalized form")

	label, ok := d.Backward(obo + "GO_0051301")
	require.True(t, ok)
	assert.Equal(t, "cell division", label)
	assert.Equal(t, "GO", d.Ontology())
	assert.Equal(t, 1, d.Len())
}

func TestReadJSON_RoundTrip(t *testing.T) {
	doc := `{
		"cell division": "` + obo + `GO_0051301",
		"` + obo + `GO_0051301": "cell division",
		"biological_process": "` + obo + `GO_0008150",
		"` + obo + `GO_0008150": "biological_process",
		"mitotic spindle": "` + obo + `GO_0072686"
	}`
	d, err := ReadJSON("GO_Labels", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())

	for label, uri := range d.All() {
		back, ok := d.Backward(uri)
		require.True(t, ok, uri)
		assert.Equal(t, label, back)
		fwd, ok := d.Forward(back)
		require.True(t, ok, back)
		assert.Equal(t, uri, fwd)
	}

	label, ok := d.Backward(obo + "GO_0072686")
	require.True(t, ok, "backward entry is derived when only the forward entry exists")
	assert.Equal(t, "mitotic spindle", label)

	uri, ok := d.Forward("biological process")
	require.True(t, ok)
	assert.Equal(t, obo+"GO_0008150", uri)
}

func TestReadJSON_Errors(t *testing.T) {
	for _, doc := range []string{`null`, `[]`, `{"a": 1}`, `{"a": "b"`, `{} []`} {
		_, err := ReadJSON("GO_Labels", strings.NewReader(doc))
		assert.Error(t, err, doc)
	}
}

func TestAll_SortedByLabel(t *testing.T) {
	d := New("HP_Labels",
		Pair{Label: "seizure", URI: obo + "HP_0001250"},
		Pair{Label: "ataxia", URI: obo + "HP_0001251"},
	)
	var got []string
	for label := range d.All() {
		got = append(got, label)
	}
	assert.Equal(t, []string{"ataxia", "seizure"}, got)
}

func TestNilDictionary(t *testing.T) {
	var d *Dictionary
	_, ok := d.Forward("x")
	assert.False(t, ok)
	_, ok = d.Backward("x")
	assert.False(t, ok)
	for range d.All() {
		t.Fatal("nil dictionary yielded a pair")
	}
}

func TestFromMaps_BackwardFill(t *testing.T) {
	d := FromMaps("GO_Labels",
		map[string]string{"Mitosis": "http://x/1", "cell_division": "http://x/1", "apoptosis": "http://x/2"},
		map[string]string{"http://x/2": "Programmed_Cell_Death"},
	)
	label, ok := d.Backward("http://x/1")
	require.True(t, ok)
	assert.Equal(t, "cell division", label)

	label, ok = d.Backward("http://x/2")
	require.True(t, ok)
	assert.Equal(t, "programmed cell death", label)

	var uris []string
	for uri := range d.URIs() {
		uris = append(uris, uri)
	}
	assert.Equal(t, []string{"http://x/1", "http://x/2"}, uris)
}
