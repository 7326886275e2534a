package lineage_test

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/gen192/pkg/combination"
	"github.com/askiada/gen192/pkg/lineage"
)

func newGraph(t *testing.T) (*lineage.Graph, combination.Catalog) {
	t.Helper()

	catalog := combination.DefaultCatalog()
	g, err := lineage.New(catalog.Steps)
	require.NoError(t, err)

	return g, catalog
}

func TestAddDerivation(t *testing.T) {
	t.Parallel()

	g, catalog := newGraph(t)
	namer := combination.DefaultNamer()
	for _, combi := range combination.Number(combination.EnumerateDistinct(catalog)) {
		require.NoError(t, g.AddDerivation(namer.Name(combi.Index, combi.Combination), combi.Combination))
	}

	// every pipeline is the base of 48 documents and the donor of 48 others
	for _, p := range catalog.Pipelines {
		derived, err := g.Derived(p.Label)
		require.NoError(t, err)
		assert.Len(t, derived, 96, p.Label)
	}

	_, err := g.Derived("unknown")
	assert.Error(t, err)
}

func TestAddDerivationTwice(t *testing.T) {
	t.Parallel()

	g, catalog := newGraph(t)
	combi := combination.EnumerateDistinct(catalog)[0]

	require.NoError(t, g.AddDerivation("p000", combi))
	assert.Error(t, g.AddDerivation("p000", combi))
}

func TestWriteDOT(t *testing.T) {
	t.Parallel()

	g, catalog := newGraph(t)
	combis := combination.EnumerateDistinct(catalog)
	require.NoError(t, g.AddDerivation("p000", combis[0]))

	var buf bytes.Buffer
	require.NoError(t, g.WriteDOT(&buf))
	out := buf.String()

	assert.Contains(t, out, "strict digraph {")
	assert.Contains(t, out, `rankdir="LR";`)
	assert.Contains(t, out, `"ABCD" [ label=<ABCD <BR /> <FONT POINT-SIZE="12">cpac_abcd-options</FONT>>, shape="box", weight=0 ];`)
	assert.Contains(t, out, `"ABCD" -> "p000" [ color="#000000", label="base", weight=0 ];`)
	assert.Contains(t, out, `"CCS" -> "p000" [ color="#`)
	assert.Contains(t, out, `label="Structural Masking", weight=0 ];`)
	assert.Contains(t, out, `"p000" [ shape="note", weight=0 ];`)

	var again bytes.Buffer
	require.NoError(t, g.WriteDOT(&again))
	assert.Equal(t, out, again.String())
}

func TestSave(t *testing.T) {
	t.Parallel()

	g, catalog := newGraph(t)
	require.NoError(t, g.AddDerivation("p000", combination.EnumerateDistinct(catalog)[0]))

	fs := afero.NewMemMapFs()
	require.NoError(t, g.Save(fs, "/out/lineage.dot"))

	data, err := afero.ReadFile(fs, "/out/lineage.dot")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"CCS" -> "p000"`)
}
