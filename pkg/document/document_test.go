package document_test

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/gen192/pkg/document"
	"github.com/askiada/gen192/pkg/tree"
)

func newDoc(t *testing.T, name string, content map[string]any) *document.Document {
	t.Helper()

	root, ok := tree.MustFromAny(content).(*tree.Mapping)
	require.True(t, ok)
	doc, err := document.New(name, "/configs/"+name+".yml", root)
	require.NoError(t, err)

	return doc
}

func nameInTree(t *testing.T, doc *document.Document) any {
	t.Helper()

	v, ok := tree.Get(doc.Tree(), document.NamePath)
	require.True(t, ok)

	return tree.ToAny(v)
}

func TestNewWritesName(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, "A", map[string]any{"anatomical_preproc": map[string]any{"x": 1}})
	assert.Equal(t, "A", doc.Name())
	assert.Equal(t, "A", nameInTree(t, doc))
}

func TestNewNilTree(t *testing.T) {
	t.Parallel()

	doc, err := document.New("A", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "A", nameInTree(t, doc))
}

func TestNewConflictingShape(t *testing.T) {
	t.Parallel()

	root := tree.MustFromAny(map[string]any{"pipeline_setup": "scalar"}).(*tree.Mapping)
	_, err := document.New("A", "", root)
	assert.ErrorIs(t, err, tree.ErrNotMapping)
}

func TestSetName(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, "A", map[string]any{})
	require.NoError(t, doc.SetName("p000_base-a"))
	assert.Equal(t, "p000_base-a", doc.Name())
	assert.Equal(t, "p000_base-a", nameInTree(t, doc))
}

func TestSetNameFailureKeepsName(t *testing.T) {
	t.Parallel()

	doc := newDoc(t, "A", map[string]any{})
	require.NoError(t, tree.Set(doc.Tree(), tree.Path{"pipeline_setup"}, tree.String("broken")))

	err := doc.SetName("B")
	require.Error(t, err)
	assert.Equal(t, "A", doc.Name())
}

func TestCloneIsolation(t *testing.T) {
	t.Parallel()

	original := newDoc(t, "A", map[string]any{"anatomical_preproc": map[string]any{"x": 1}})
	clone := original.Clone()
	assert.Equal(t, original.Name(), clone.Name())
	assert.Equal(t, original.SourcePath, clone.SourcePath)

	require.NoError(t, tree.Set(clone.Tree(), tree.Path{"anatomical_preproc", "x"}, tree.Int(2)))
	require.NoError(t, clone.SetName("B"))
	_, removed := tree.Delete(clone.Tree(), tree.Path{"anatomical_preproc"})
	require.True(t, removed)

	assert.Equal(t, "A", original.Name())
	assert.Equal(t, map[string]any{
		"anatomical_preproc": map[string]any{"x": int64(1)},
		"pipeline_setup":     map[string]any{"pipeline_name": "A"},
	}, tree.ToAny(original.Tree()))
}

func TestParse(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		data    string
		name    string
		wantErr error
	}{
		"valid":        {data: "pipeline_setup:\n  pipeline_name: cpac_ccs-options\n", name: "cpac_ccs-options"},
		"missing name": {data: "pipeline_setup:\n  system_config: {}\n", wantErr: document.ErrMissingName},
		"name mapping": {data: "pipeline_setup:\n  pipeline_name:\n    a: b\n", wantErr: document.ErrMissingName},
		"name number":  {data: "pipeline_setup:\n  pipeline_name: 12\n", wantErr: document.ErrMissingName},
		"sequence":     {data: "- a\n- b\n", wantErr: document.ErrNotMapping},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc, err := document.Parse("file.yml", []byte(tc.data))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.name, doc.Name())
			assert.Equal(t, "file.yml", doc.SourcePath)
		})
	}
}

func TestPersistAndLoad(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	doc := newDoc(t, "A", map[string]any{"anatomical_preproc": map[string]any{"x": 1}})
	doc.SourcePath = "/out/gen/a.yml"

	require.NoError(t, doc.Persist(fs, false))

	loaded, err := document.Load(fs, "/out/gen/a.yml")
	require.NoError(t, err)
	assert.Equal(t, "A", loaded.Name())
	assert.Equal(t, tree.ToAny(doc.Tree()), tree.ToAny(loaded.Tree()))
}

func TestPersistRefusesOverwrite(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	existing := []byte("precious: true\n")
	require.NoError(t, afero.WriteFile(fs, "/out/a.yml", existing, 0o644))

	doc := newDoc(t, "A", map[string]any{})
	doc.SourcePath = "/out/a.yml"

	err := doc.Persist(fs, false)
	require.ErrorIs(t, err, document.ErrDocumentExists)

	got, err := afero.ReadFile(fs, "/out/a.yml")
	require.NoError(t, err)
	assert.Equal(t, existing, got)
}

func TestPersistOverwrite(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/out/a.yml", []byte("a very long previous content that must be truncated\n"), 0o644))

	doc := newDoc(t, "A", map[string]any{})
	doc.SourcePath = "/out/a.yml"
	require.NoError(t, doc.Persist(fs, true))

	loaded, err := document.Load(fs, "/out/a.yml")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"pipeline_setup": map[string]any{"pipeline_name": "A"}}, tree.ToAny(loaded.Tree()))
}

func TestPersistWithoutPath(t *testing.T) {
	t.Parallel()

	doc, err := document.New("A", "", nil)
	require.NoError(t, err)
	assert.Error(t, doc.Persist(afero.NewMemMapFs(), false))
}

var errDiskFull = errors.New("disk full")

// failingWriteFs opens real files whose writes always fail.
type failingWriteFs struct {
	afero.Fs
}

func (f failingWriteFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}

	return failingWriteFile{File: file}, nil
}

type failingWriteFile struct {
	afero.File
}

func (failingWriteFile) Write([]byte) (int, error) { return 0, errDiskFull }

func TestPersistRemovesPartialFile(t *testing.T) {
	t.Parallel()

	for _, overwrite := range []bool{false, true} {
		t.Run(fmt.Sprintf("overwrite=%t", overwrite), func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			doc := newDoc(t, "A", map[string]any{"anatomical_preproc": map[string]any{"x": 1}})
			doc.SourcePath = "/out/A.yml"

			err := doc.Persist(failingWriteFs{Fs: fs}, overwrite)
			require.ErrorIs(t, err, errDiskFull)

			exists, err := afero.Exists(fs, "/out/A.yml")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}
