package generator

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/askiada/gen192/pkg/merge"
	"github.com/askiada/gen192/pkg/pipeline/measure"
)

// Output is a persisted document.
type Output struct {
	Index    int
	Name     string
	Path     string
	Warnings []merge.Warning
}

// Failure is a combination that could not be generated or persisted.
type Failure struct {
	Index    int
	Filename string
	Err      error
}

// Report is the outcome of a run. Outputs and failures are sorted by index.
type Report struct {
	Outputs  []Output
	Failures []Failure
	// Warnings is the number of paths that could not be written as requested, see merge.Warning.
	Warnings int
	Stages   []measure.StepSummary
}

// Err joins every failure, nil when the run fully succeeded.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, errors.Wrapf(f.Err, "%s", f.Filename))
	}

	return stderrors.Join(errs...)
}

// Log writes a summary of r.
func (r *Report) Log(logger zerolog.Logger) {
	for _, s := range r.Stages {
		if s.Count == 0 {
			continue
		}
		logger.Debug().
			Str("stage", s.Name).
			Int64("count", s.Count).
			Dur("average", s.Average).
			Msg("stage timing")
	}

	event := logger.Info()
	if len(r.Failures) > 0 {
		event = logger.Warn()
	}
	event.
		Int("generated", len(r.Outputs)).
		Int("failed", len(r.Failures)).
		Int("warnings", r.Warnings).
		Msg("generation finished")
}
