package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggester(t *testing.T) {
	d := New("GO_Labels",
		Pair{Label: "cell division", URI: obo + "GO_0051301"},
		Pair{Label: "cell cycle", URI: obo + "GO_0007049"},
		Pair{Label: "mitochondrion", URI: obo + "GO_0005739"},
	)
	s, err := NewSuggester(d)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Suggest("cell_divison", 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "cell division", got[0].Label)
	assert.Equal(t, obo+"GO_0051301", got[0].URI)

	got, err = s.Suggest("mitochondrian", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mitochondrion", got[0].Label)

	got, err = s.Suggest("   ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Suggest("cell", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
