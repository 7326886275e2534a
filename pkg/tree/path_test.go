package tree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/gen192/pkg/tree"
)

func sampleTree(t *testing.T) tree.Value {
	t.Helper()

	return tree.MustFromAny(map[string]any{
		"anatomical_preproc": map[string]any{"run": true, "brain_extraction": map[string]any{"using": []any{"3dSkullStrip"}}},
		"pipeline_setup":     map[string]any{"pipeline_name": "A"},
		"scalar":             "leaf",
	})
}

func TestGet(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		path     tree.Path
		expected any
		found    bool
	}{
		"empty path returns root": {path: tree.Path{}, found: true},
		"top level":               {path: tree.Path{"scalar"}, expected: "leaf", found: true},
		"nested":                  {path: tree.Path{"pipeline_setup", "pipeline_name"}, expected: "A", found: true},
		"nested sequence":         {path: tree.Path{"anatomical_preproc", "brain_extraction", "using"}, expected: []any{"3dSkullStrip"}, found: true},
		"missing key":             {path: tree.Path{"missing"}},
		"missing nested key":      {path: tree.Path{"pipeline_setup", "missing"}},
		"through scalar":          {path: tree.Path{"scalar", "child"}},
		"through sequence":        {path: tree.Path{"anatomical_preproc", "brain_extraction", "using", "0"}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := sampleTree(t)
			got, ok := tree.Get(root, tc.path)
			assert.Equal(t, tc.found, ok)
			if !tc.found {
				assert.Nil(t, got)

				return
			}
			if len(tc.path) == 0 {
				assert.Same(t, root, got)

				return
			}
			assert.Equal(t, tc.expected, tree.ToAny(got))
		})
	}
}

func TestSetCreatesIntermediateMappings(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	err := tree.Set(root, tree.Path{"timeseries_extraction", "connectivity_matrix", "using"}, tree.AsList(tree.String("AFNI")))
	require.NoError(t, err)

	got, ok := tree.Get(root, tree.Path{"timeseries_extraction", "connectivity_matrix", "using"})
	require.True(t, ok)
	assert.Equal(t, []any{"AFNI"}, tree.ToAny(got))
}

func TestSetOverwrites(t *testing.T) {
	t.Parallel()

	root := sampleTree(t)
	err := tree.Set(root, tree.Path{"anatomical_preproc"}, tree.MustFromAny(map[string]any{"x": 2}))
	require.NoError(t, err)

	got, ok := tree.Get(root, tree.Path{"anatomical_preproc"})
	require.True(t, ok)
	assert.Equal(t, map[string]any{"x": int64(2)}, tree.ToAny(got))
}

func TestSetKeepsKeyOrder(t *testing.T) {
	t.Parallel()

	root := tree.NewMapping()
	root.Set("first", tree.Int(1))
	root.Set("second", tree.Int(2))
	root.Set("third", tree.Int(3))

	err := tree.Set(root, tree.Path{"second"}, tree.String("changed"))
	require.NoError(t, err)
	err = tree.Set(root, tree.Path{"fourth"}, tree.Null())
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third", "fourth"}, root.Keys())
}

func TestSetThroughNonMapping(t *testing.T) {
	t.Parallel()

	tcs := map[string]tree.Path{
		"through scalar":        {"scalar", "child"},
		"through nested scalar": {"pipeline_setup", "pipeline_name", "child", "grandchild"},
		"through sequence":      {"anatomical_preproc", "brain_extraction", "using", "child"},
	}

	for name, path := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := sampleTree(t)
			before := tree.ToAny(root)

			err := tree.Set(root, path, tree.Bool(true))
			require.ErrorIs(t, err, tree.ErrNotMapping)
			assert.Equal(t, before, tree.ToAny(root))
		})
	}
}

func TestSetEmptyPath(t *testing.T) {
	t.Parallel()

	err := tree.Set(sampleTree(t), tree.Path{}, tree.Bool(true))
	assert.ErrorIs(t, err, tree.ErrEmptyPath)
}

func TestSetNilRoot(t *testing.T) {
	t.Parallel()

	var root *tree.Mapping
	err := tree.Set(root, tree.Path{"a"}, tree.Bool(true))
	assert.ErrorIs(t, err, tree.ErrNotMapping)
}

func TestSetNilValue(t *testing.T) {
	t.Parallel()

	var nilMapping *tree.Mapping
	tcs := map[string]tree.Value{
		"untyped":  nil,
		"mapping":  nilMapping,
		"sequence": (*tree.Sequence)(nil),
	}
	for name, value := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := sampleTree(t)
			before := tree.ToAny(root)
			err := tree.Set(root, tree.Path{"a", "b"}, value)
			require.ErrorIs(t, err, tree.ErrNilValue)
			assert.Equal(t, before, tree.ToAny(root))
			assert.NotPanics(t, func() { root.Clone() })
		})
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	t.Parallel()

	paths := []tree.Path{
		{"scalar"},
		{"pipeline_setup"},
		{"pipeline_setup", "pipeline_name"},
		{"anatomical_preproc", "brain_extraction"},
		{"anatomical_preproc", "brain_extraction", "using"},
	}

	for _, path := range paths {
		t.Run(path.String(), func(t *testing.T) {
			t.Parallel()

			root := sampleTree(t)
			original, ok := tree.Get(root, path)
			require.True(t, ok)
			expected := tree.ToAny(original)

			err := tree.Set(root, path, original)
			require.NoError(t, err)

			got, ok := tree.Get(root, path)
			require.True(t, ok)
			assert.Equal(t, expected, tree.ToAny(got))
		})
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		path     tree.Path
		expected any
		removed  bool
	}{
		"top level":          {path: tree.Path{"scalar"}, expected: "leaf", removed: true},
		"nested":             {path: tree.Path{"pipeline_setup", "pipeline_name"}, expected: "A", removed: true},
		"subtree":            {path: tree.Path{"anatomical_preproc", "brain_extraction"}, expected: map[string]any{"using": []any{"3dSkullStrip"}}, removed: true},
		"missing final key":  {path: tree.Path{"pipeline_setup", "missing"}},
		"missing middle key": {path: tree.Path{"missing", "pipeline_name"}},
		"through scalar":     {path: tree.Path{"scalar", "child"}},
		"empty path":         {path: tree.Path{}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := sampleTree(t)
			before := tree.ToAny(root)

			got, ok := tree.Delete(root, tc.path)
			assert.Equal(t, tc.removed, ok)
			if !tc.removed {
				assert.Nil(t, got)
				assert.Equal(t, before, tree.ToAny(root))

				return
			}
			assert.Equal(t, tc.expected, tree.ToAny(got))

			_, found := tree.Get(root, tc.path)
			assert.False(t, found)
		})
	}
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tree.Path{"registration_workflows", "anatomical_registration"}, tree.ParsePath("registration_workflows.anatomical_registration"))
	assert.Equal(t, tree.Path{}, tree.ParsePath(""))
	assert.True(t, tree.ParsePath("a.b").Equal(tree.Path{"a", "b"}))
	assert.False(t, tree.ParsePath("a.b").Equal(tree.Path{"a"}))
}
