// Package document models a named pipeline configuration backed by a tree.
package document

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/askiada/gen192/pkg/tree"
)

var (
	ErrDocumentExists = errors.New("document already exists")
	ErrMissingName    = errors.New("document has no pipeline name")
	ErrNotMapping     = errors.New("document root must be a mapping")
)

// NamePath is where the pipeline name lives inside every document.
var NamePath = tree.Path{"pipeline_setup", "pipeline_name"}

const filePerm = 0o644

// Document is one pipeline configuration.
// The name is also stored in the tree at NamePath and both copies always agree.
type Document struct {
	name       string
	SourcePath string
	tree       *tree.Mapping
}

// New creates a document and writes name into root at NamePath.
func New(name, sourcePath string, root *tree.Mapping) (*Document, error) {
	if root == nil {
		root = tree.NewMapping()
	}
	doc := &Document{SourcePath: sourcePath, tree: root}
	err := doc.SetName(name)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Parse decodes a YAML document. Its name is read from NamePath.
func Parse(sourcePath string, data []byte) (*Document, error) {
	root, err := tree.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode %s", sourcePath)
	}
	m, ok := root.(*tree.Mapping)
	if !ok {
		return nil, errors.Wrapf(ErrNotMapping, "%s holds a %s", sourcePath, root.Kind())
	}

	v, ok := tree.Get(m, NamePath)
	if !ok {
		return nil, errors.Wrapf(ErrMissingName, "%s has no %s", sourcePath, NamePath)
	}
	scalar, ok := v.(tree.Scalar)
	if !ok {
		return nil, errors.Wrapf(ErrMissingName, "%s: %s is a %s", sourcePath, NamePath, v.Kind())
	}
	name, ok := scalar.Interface().(string)
	if !ok || name == "" {
		return nil, errors.Wrapf(ErrMissingName, "%s: %s is not a string", sourcePath, NamePath)
	}

	return &Document{name: name, SourcePath: sourcePath, tree: m}, nil
}

// Load reads and parses the document stored at path.
func Load(fs afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	return Parse(path, data)
}

// Name returns the pipeline name.
func (d *Document) Name() string { return d.name }

// Tree returns the root mapping. Mutations through it are visible on the document.
func (d *Document) Tree() *tree.Mapping { return d.tree }

// Clone returns a deep copy with the same name and path.
func (d *Document) Clone() *Document {
	return &Document{
		name:       d.name,
		SourcePath: d.SourcePath,
		tree:       d.tree.Clone().(*tree.Mapping),
	}
}

// SetName renames the document, keeping the tree in sync.
// The name field is only updated once the tree accepted the new value.
func (d *Document) SetName(name string) error {
	err := tree.Set(d.tree, NamePath, tree.String(name))
	if err != nil {
		return errors.Wrapf(err, "unable to rename %q to %q", d.name, name)
	}
	d.name = name

	return nil
}

// Encode renders the document tree as YAML.
func (d *Document) Encode() ([]byte, error) {
	data, err := tree.Encode(d.tree)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to encode %s", d.name)
	}

	return data, nil
}

// Persist writes the document to SourcePath.
// Without allowOverwrite it fails with ErrDocumentExists and leaves an existing file untouched.
// A failed write removes the file so no partial document is left behind.
func (d *Document) Persist(fs afero.Fs, allowOverwrite bool) error {
	if d.SourcePath == "" {
		return errors.Errorf("document %q has no path", d.name)
	}

	data, err := d.Encode()
	if err != nil {
		return err
	}

	exists, err := afero.Exists(fs, d.SourcePath)
	if err != nil {
		return errors.Wrapf(err, "unable to stat %s", d.SourcePath)
	}
	if exists && !allowOverwrite {
		return errors.Wrapf(ErrDocumentExists, "%s", d.SourcePath)
	}

	err = fs.MkdirAll(filepath.Dir(d.SourcePath), 0o755)
	if err != nil {
		return errors.Wrapf(err, "unable to create directory for %s", d.SourcePath)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !allowOverwrite {
		// Another writer may have created the file since the check above.
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	file, err := fs.OpenFile(d.SourcePath, flags, filePerm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return errors.Wrapf(ErrDocumentExists, "%s", d.SourcePath)
		}

		return errors.Wrapf(err, "unable to open %s", d.SourcePath)
	}

	_, err = file.Write(data)
	if err != nil {
		_ = file.Close()
		_ = fs.Remove(d.SourcePath)

		return errors.Wrapf(err, "unable to write %s", d.SourcePath)
	}

	err = file.Close()
	if err != nil {
		_ = fs.Remove(d.SourcePath)

		return errors.Wrapf(err, "unable to close %s", d.SourcePath)
	}

	return nil
}
