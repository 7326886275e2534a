// Package generator runs one generation batch: every distinct combination of the catalog is merged, named and
// persisted, and the outcome of each one is collected into a report.
package generator

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/askiada/gen192/pkg/combination"
	"github.com/askiada/gen192/pkg/lineage"
	"github.com/askiada/gen192/pkg/merge"
	"github.com/askiada/gen192/pkg/pipeline"
	"github.com/askiada/gen192/pkg/pipeline/measure"
	"github.com/askiada/gen192/pkg/store"
)

// Stage names, as reported in the run report.
const (
	EnumerateStage = "enumerate"
	MergeStage     = "merge"
	PersistStage   = "persist"
	ReportStage    = "report"
)

// Generator writes the documents of a catalog into a directory.
type Generator struct {
	fs          afero.Fs
	catalog     combination.Catalog
	outputDir   string
	namer       combination.Namer
	logger      zerolog.Logger
	concurrency int
	overwrite   bool
	lineageFile string
}

// Option configures a Generator.
type Option func(g *Generator)

// WithConcurrency sets how many documents are merged and persisted in parallel.
func WithConcurrency(concurrency int) Option {
	return func(g *Generator) {
		g.concurrency = concurrency
	}
}

// WithOverwrite allows replacing existing documents.
func WithOverwrite(overwrite bool) Option {
	return func(g *Generator) {
		g.overwrite = overwrite
	}
}

// WithNamer overrides the default namer.
func WithNamer(namer combination.Namer) Option {
	return func(g *Generator) {
		g.namer = namer
	}
}

// WithLineageFile writes the derivation graph of the generated documents to path.
func WithLineageFile(path string) Option {
	return func(g *Generator) {
		g.lineageFile = path
	}
}

// New creates a generator writing into outputDir.
func New(fs afero.Fs, catalog combination.Catalog, outputDir string, logger zerolog.Logger, opts ...Option) *Generator {
	g := &Generator{
		fs:          fs,
		catalog:     catalog,
		outputDir:   outputDir,
		namer:       combination.DefaultNamer(),
		logger:      logger,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// outcome flows through the pipeline. Failures travel as values so that one combination never stops the batch.
type outcome struct {
	combination.Indexed
	filename string
	result   *merge.Result
	err      error
}

// Run generates every distinct combination from table.
// It fails before writing anything when a pipeline of the catalog is missing from table. Per combination failures are
// collected on the report, see Report.Err.
func (g *Generator) Run(ctx context.Context, table store.Table) (*Report, error) {
	err := table.Require(g.catalog)
	if err != nil {
		return nil, errors.Wrap(err, "missing pipelines")
	}

	err = g.fs.MkdirAll(g.outputDir, 0o755)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", g.outputDir)
	}

	var graph *lineage.Graph
	if g.lineageFile != "" {
		graph, err = lineage.New(g.catalog.Steps)
		if err != nil {
			return nil, err
		}
	}

	g.logger.Info().Str("dir", g.outputDir).Msg("generating")

	m := measure.NewDefaultMeasure()
	pipe, err := pipeline.New(ctx, measure.PipelineMeasure(m))
	if err != nil {
		return nil, err
	}
	defer pipe.Close()

	engine := merge.NewEngine(g.namer, g.logger)
	combis := combination.Number(combination.EnumerateDistinct(g.catalog))

	root, err := pipeline.AddRootStep(pipe, EnumerateStage, func(ctx context.Context, rootChan chan<- combination.Indexed) error {
		for _, combi := range combis {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- combi:
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	merged, err := pipeline.AddStepOneToOne(pipe, MergeStage, root, func(_ context.Context, combi combination.Indexed) (*outcome, error) {
		out := &outcome{Indexed: combi, filename: g.namer.Filename(combi.Index, combi.Combination)}
		out.result, out.err = engine.Generate(combi.Index, combi.Combination, table)

		return out, nil
	}, pipeline.StepConcurrency(g.concurrency))
	if err != nil {
		return nil, err
	}

	persisted, err := pipeline.AddStepOneToOne(pipe, PersistStage, merged, func(_ context.Context, out *outcome) (*outcome, error) {
		if out.err != nil {
			return out, nil
		}
		doc := out.result.Document
		doc.SourcePath = filepath.Join(g.outputDir, out.filename)
		g.logger.Info().Int("index", out.Index).Str("file", out.filename).Msg("generating document")
		out.err = doc.Persist(g.fs, g.overwrite)

		return out, nil
	}, pipeline.StepConcurrency(g.concurrency))
	if err != nil {
		return nil, err
	}

	report := &Report{}
	err = pipeline.AddSink(pipe, ReportStage, persisted, func(_ context.Context, out *outcome) error {
		if out.err != nil {
			g.logger.Error().Err(out.err).Int("index", out.Index).Str("file", out.filename).Msg("unable to generate document")
			report.Failures = append(report.Failures, Failure{Index: out.Index, Filename: out.filename, Err: out.err})

			return nil
		}

		report.Warnings += len(out.result.Warnings)
		report.Outputs = append(report.Outputs, Output{
			Index:    out.Index,
			Name:     out.result.Document.Name(),
			Path:     out.result.Document.SourcePath,
			Warnings: out.result.Warnings,
		})
		if graph != nil {
			return graph.AddDerivation(out.result.Document.Name(), out.Combination)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	err = pipe.Run()
	if err != nil {
		return nil, errors.Wrap(err, "generation aborted")
	}

	sort.Slice(report.Outputs, func(i, j int) bool { return report.Outputs[i].Index < report.Outputs[j].Index })
	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].Index < report.Failures[j].Index })
	report.Stages = measure.Summarize(m)

	if graph != nil {
		err = graph.Save(g.fs, g.lineageFile)
		if err != nil {
			return report, err
		}
		g.logger.Info().Str("file", g.lineageFile).Msg("lineage written")
	}

	report.Log(g.logger)

	return report, nil
}
