package combination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/gen192/pkg/combination"
	"github.com/askiada/gen192/pkg/tree"
)

func TestEnumerateDefaultCatalog(t *testing.T) {
	t.Parallel()

	catalog := combination.DefaultCatalog()
	all := combination.Enumerate(catalog)
	require.Len(t, all, 256)

	first := all[0]
	assert.Equal(t, "ABCD", first.Base.Label)
	assert.Equal(t, "ABCD", first.Perturb.Label)
	assert.Equal(t, "Structural Masking", first.Step.Name)
	assert.Equal(t, "AFNI", first.ConnectivityMethod)
	assert.True(t, first.NuisanceCorrection)

	// The nuisance flag is the innermost loop, then the connectivity method.
	assert.False(t, all[1].NuisanceCorrection)
	assert.Equal(t, "Nilearn", all[2].ConnectivityMethod)
	assert.Equal(t, "Structural Registration", all[4].Step.Name)
	assert.Equal(t, "CCS", all[16].Perturb.Label)
	assert.Equal(t, "CCS", all[64].Base.Label)

	last := all[len(all)-1]
	assert.Equal(t, "fMRIPrep", last.Base.Label)
	assert.Equal(t, "fMRIPrep", last.Perturb.Label)
	assert.Equal(t, "Functional Registration", last.Step.Name)
	assert.Equal(t, "Nilearn", last.ConnectivityMethod)
	assert.False(t, last.NuisanceCorrection)
}

func TestEnumerateDistinctDefaultCatalog(t *testing.T) {
	t.Parallel()

	distinct := combination.EnumerateDistinct(combination.DefaultCatalog())
	require.Len(t, distinct, 192)

	for _, combi := range distinct {
		assert.NotEqual(t, combi.Base.ID, combi.Perturb.ID)
	}

	assert.Equal(t, "ABCD", distinct[0].Base.Label)
	assert.Equal(t, "CCS", distinct[0].Perturb.Label)
	assert.Equal(t, "RBC", distinct[16].Perturb.Label)
	assert.Equal(t, "CCS", distinct[48].Base.Label)
	assert.Equal(t, "ABCD", distinct[48].Perturb.Label)
}

func TestEnumerateIsDeterministic(t *testing.T) {
	t.Parallel()

	catalog := combination.DefaultCatalog()
	assert.Equal(t, combination.EnumerateDistinct(catalog), combination.EnumerateDistinct(catalog))
}

func TestDistinctComparesIdentifiers(t *testing.T) {
	t.Parallel()

	catalog := combination.Catalog{
		Pipelines: []combination.Pipeline{
			{Label: "A", ID: "shared"},
			{Label: "B", ID: "shared"},
			{Label: "C", ID: "c"},
			{Label: "D", ID: "d"},
		},
		Steps:               []combination.MergeStep{{Name: "step", Paths: []tree.Path{{"x"}}}},
		ConnectivityMethods: []string{"AFNI"},
		NuisanceFlags:       []bool{true},
	}

	distinct := combination.EnumerateDistinct(catalog)
	require.Len(t, distinct, 10)

	pairs := make([]string, 0, len(distinct))
	for _, combi := range distinct {
		pairs = append(pairs, combi.Base.Label+combi.Perturb.Label)
	}
	assert.Equal(t, []string{"AC", "AD", "BC", "BD", "CA", "CB", "CD", "DA", "DB", "DC"}, pairs)
}

func TestEnumerateEmptyTable(t *testing.T) {
	t.Parallel()

	catalog := combination.DefaultCatalog()
	catalog.ConnectivityMethods = nil
	assert.Empty(t, combination.Enumerate(catalog))
}

func TestNumber(t *testing.T) {
	t.Parallel()

	distinct := combination.EnumerateDistinct(combination.DefaultCatalog())
	numbered := combination.Number(distinct)
	require.Len(t, numbered, len(distinct))
	for i, item := range numbered {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, distinct[i], item.Combination)
	}
}
