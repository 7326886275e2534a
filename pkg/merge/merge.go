// Package merge builds a derived pipeline document from a combination.
//
// The base pipeline is cloned, every path of the combination's step is replaced wholesale by the perturbation
// pipeline's subtree (or removed when the perturbation pipeline does not define it), the sweep parameters are written
// at fixed locations and the result is renamed after the combination. A path that cannot be written because the base
// pipeline has a scalar on the way is left unchanged and reported as a warning, so only a missing pipeline or an
// unnamable base fails a combination.
package merge

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/askiada/gen192/pkg/combination"
	"github.com/askiada/gen192/pkg/document"
	"github.com/askiada/gen192/pkg/store"
	"github.com/askiada/gen192/pkg/tree"
)

// Fixed locations of the sweep parameters.
var (
	TimeseriesRunPath       = tree.Path{"timeseries_extraction", "run"}
	ConnectivityUsingPath   = tree.Path{"timeseries_extraction", "connectivity_matrix", "using"}
	ConnectivityMeasurePath = tree.Path{"timeseries_extraction", "connectivity_matrix", "measure"}
	NuisanceRunPath         = tree.Path{"nuisance_corrections", "2-nuisance_regression", "run"}
)

// DefaultMeasure is the only connectivity measure generated.
const DefaultMeasure = "Pearson"

// Reason tells why a path could not be taken from the perturbation pipeline.
type Reason string

const (
	// ReasonMissing means the perturbation pipeline does not define the path, it was removed from the base.
	ReasonMissing Reason = "missing"
	// ReasonShapeConflict means a node on the way to the path is not a mapping, the path was left as is.
	ReasonShapeConflict Reason = "shape conflict"
)

// Warning records a path that could not be written as requested.
type Warning struct {
	Path     tree.Path
	Pipeline string
	Reason   Reason
	Err      error
}

// Result is a derived document with the diagnostics raised while building it.
type Result struct {
	Document *document.Document
	Warnings []Warning
}

// Engine builds derived documents.
type Engine struct {
	namer  combination.Namer
	logger zerolog.Logger
}

// NewEngine creates an engine naming its output with namer.
func NewEngine(namer combination.Namer, logger zerolog.Logger) *Engine {
	return &Engine{namer: namer, logger: logger}
}

// Generate derives the document of combi at sequence position index. The table is only read.
func (e *Engine) Generate(index int, combi combination.Combination, table store.Table) (*Result, error) {
	base, err := table.Get(combi.Base.ID)
	if err != nil {
		return nil, errors.Wrap(err, "base")
	}
	perturb, err := table.Get(combi.Perturb.ID)
	if err != nil {
		return nil, errors.Wrap(err, "perturbation")
	}

	res := &Result{Document: base}
	for _, path := range combi.Step.Paths {
		snippet, ok := tree.Get(perturb.Tree(), path)
		if !ok {
			e.logger.Warn().
				Int("index", index).
				Str("path", path.String()).
				Str("pipeline", perturb.Name()).
				Msg("path not found in perturbation pipeline, removing it from base")
			tree.Delete(base.Tree(), path)
			res.Warnings = append(res.Warnings, Warning{Path: path, Pipeline: perturb.Name(), Reason: ReasonMissing})

			continue
		}

		err = tree.Set(base.Tree(), path, snippet)
		if err != nil {
			res.Warnings = append(res.Warnings, e.conflict(index, path, base.Name(), err))
		}
	}

	for _, s := range sweep(combi) {
		err = tree.Set(base.Tree(), s.path, s.value)
		if err != nil {
			res.Warnings = append(res.Warnings, e.conflict(index, s.path, base.Name(), err))
		}
	}

	err = base.SetName(e.namer.Name(index, combi))
	if err != nil {
		return nil, err
	}

	return res, nil
}

func (e *Engine) conflict(index int, path tree.Path, pipeline string, err error) Warning {
	e.logger.Warn().
		Err(err).
		Int("index", index).
		Str("path", path.String()).
		Str("pipeline", pipeline).
		Msg("path conflicts with the base pipeline shape, leaving it unchanged")

	return Warning{Path: path, Pipeline: pipeline, Reason: ReasonShapeConflict, Err: err}
}

type setting struct {
	path  tree.Path
	value tree.Value
}

func sweep(combi combination.Combination) []setting {
	return []setting{
		{TimeseriesRunPath, tree.Bool(true)},
		{ConnectivityUsingPath, tree.AsList(tree.String(combi.ConnectivityMethod))},
		{ConnectivityMeasurePath, tree.AsList(tree.String(DefaultMeasure))},
		{NuisanceRunPath, tree.AsList(tree.Bool(combi.NuisanceCorrection))},
	}
}
