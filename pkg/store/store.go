// Package store loads pipeline documents from a directory into a name keyed table.
package store

import (
	stderrors "errors"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/askiada/gen192/pkg/combination"
	"github.com/askiada/gen192/pkg/document"
)

const (
	// DefaultPattern matches the pipeline configurations shipped with C-PAC.
	DefaultPattern = "pipeline_config_*.yml"
	// DuplicateSuffix is appended to a name already present in the table.
	DuplicateSuffix = "_dup"
)

var ErrPipelineNotFound = errors.New("pipeline not found")

// Table maps pipeline names to loaded documents. Entries must not be mutated, Get hands out clones.
type Table map[string]*document.Document

// Get returns a clone of the document registered under id.
func (t Table) Get(id string) (*document.Document, error) {
	doc, ok := t[id]
	if !ok {
		return nil, errors.Wrapf(ErrPipelineNotFound, "%q", id)
	}

	return doc.Clone(), nil
}

// Names returns the registered names, sorted.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Require checks that every pipeline of the catalog is present and reports all missing ones.
func (t Table) Require(catalog combination.Catalog) error {
	var errs []error
	for _, p := range catalog.Pipelines {
		if _, ok := t[p.ID]; !ok {
			errs = append(errs, errors.Wrapf(ErrPipelineNotFound, "%s (%s)", p.Label, p.ID))
		}
	}

	return stderrors.Join(errs...)
}

// Loader reads documents matching a pattern.
type Loader struct {
	fs      afero.Fs
	pattern string
	logger  zerolog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(l *Loader)

// LoaderPattern overrides the filename pattern. It supports doublestar syntax.
func LoaderPattern(pattern string) LoaderOption {
	return func(l *Loader) {
		l.pattern = pattern
	}
}

// NewLoader creates a loader reading from fs.
func NewLoader(fs afero.Fs, logger zerolog.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:      fs,
		pattern: DefaultPattern,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load parses every matching file of dir. Files are visited in lexical order.
// A name seen twice is suffixed with DuplicateSuffix until unique, so no document is dropped.
func (l *Loader) Load(dir string) (Table, error) {
	ok, err := afero.DirExists(l.fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to stat %s", dir)
	}
	if !ok {
		return nil, errors.Errorf("%s is not a directory", dir)
	}

	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(l.fs, dir)), l.pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to match %s in %s", l.pattern, dir)
	}
	sort.Strings(matches)

	table := make(Table, len(matches))
	for _, match := range matches {
		path := filepath.Join(dir, filepath.FromSlash(match))
		doc, err := document.Load(l.fs, path)
		if err != nil {
			return nil, err
		}

		name := doc.Name()
		for {
			prev, exists := table[name]
			if !exists {
				break
			}
			l.logger.Warn().
				Str("name", name).
				Str("file", path).
				Str("duplicate_of", prev.SourcePath).
				Msg("duplicate pipeline name")
			name += DuplicateSuffix
		}
		table[name] = doc
		l.logger.Debug().Str("name", name).Str("file", path).Msg("loaded pipeline")
	}

	return table, nil
}
