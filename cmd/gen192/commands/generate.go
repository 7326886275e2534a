package commands

import (
	"github.com/spf13/cobra"

	"github.com/askiada/gen192/internal/archive"
	"github.com/askiada/gen192/internal/config"
	"github.com/askiada/gen192/internal/generator"
	"github.com/askiada/gen192/internal/source"
	"github.com/askiada/gen192/pkg/store"
)

type generateFlags struct {
	revision    string
	repoURL     string
	buildDir    string
	distDir     string
	outputName  string
	concurrency int
	overwrite   bool
	archive     bool
	lineageFile string
	catalogFile string
}

func newGenerateCmd(a *app) *cobra.Command {
	flags := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fetch the reference pipelines and write every derived configuration",
		Long: `Fetch the reference pipelines at the configured revision, derive every
configuration and archive the build directories.

Examples:
  gen192 generate
  gen192 generate --revision 89160708710aa6765479949edaca1fe18e4f65e3
  gen192 generate --overwrite --archive=false --lineage-file build/lineage.dot`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd, flags)
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVar(&flags.revision, "revision", defaults.Revision, "Revision of the source repository")
	cmd.Flags().StringVar(&flags.repoURL, "repo-url", defaults.RepoURL, "Git URL of the source repository")
	cmd.Flags().StringVar(&flags.buildDir, "build-dir", defaults.BuildDir, "Directory of the source cache and the output")
	cmd.Flags().StringVar(&flags.distDir, "dist-dir", defaults.DistDir, "Directory receiving the archives")
	cmd.Flags().StringVar(&flags.outputName, "output-name", defaults.OutputName, "Name of the output directory in the build directory")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", defaults.Concurrency, "Number of documents generated in parallel")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", defaults.Overwrite, "Replace existing documents")
	cmd.Flags().BoolVar(&flags.archive, "archive", defaults.Archive, "Zip the build directories")
	cmd.Flags().StringVar(&flags.lineageFile, "lineage-file", "", "Write the derivation graph as DOT to this file")
	cmd.Flags().StringVar(&flags.catalogFile, "catalog", "", "YAML catalog replacing the built-in one")

	return cmd
}

func (f *generateFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("revision") {
		cfg.Revision = f.revision
	}
	if changed("repo-url") {
		cfg.RepoURL = f.repoURL
	}
	if changed("build-dir") {
		cfg.BuildDir = f.buildDir
	}
	if changed("dist-dir") {
		cfg.DistDir = f.distDir
	}
	if changed("output-name") {
		cfg.OutputName = f.outputName
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("overwrite") {
		cfg.Overwrite = f.overwrite
	}
	if changed("archive") {
		cfg.Archive = f.archive
	}
	if changed("lineage-file") {
		cfg.LineageFile = f.lineageFile
	}
	if changed("catalog") {
		cfg.CatalogFile = f.catalogFile
	}
}

func (a *app) runGenerate(cmd *cobra.Command, flags *generateFlags) error {
	cfg, err := a.loadConfig(cmd, func(cfg *config.Config) { flags.apply(cmd, cfg) })
	if err != nil {
		return err
	}
	logger := a.logger(cmd, cfg)

	catalog, err := a.catalog(cfg)
	if err != nil {
		return err
	}

	fetcher := source.NewFetcher(a.fs, a.runner(logger), logger, cfg.RepoURL, cfg.Revision, cfg.ConfigsSubdir)
	configsDir, err := fetcher.Fetch(cmd.Context(), cfg.BuildDir)
	if err != nil {
		return err
	}

	table, err := store.NewLoader(a.fs, logger).Load(configsDir)
	if err != nil {
		return err
	}

	opts := []generator.Option{
		generator.WithConcurrency(cfg.Concurrency),
		generator.WithOverwrite(cfg.Overwrite),
	}
	if cfg.LineageFile != "" {
		opts = append(opts, generator.WithLineageFile(cfg.LineageFile))
	}
	report, err := generator.New(a.fs, catalog, cfg.OutputDir(), logger, opts...).Run(cmd.Context(), table)
	if err != nil {
		return err
	}
	err = report.Err()
	if err != nil {
		return err
	}

	if cfg.Archive {
		_, err = archive.New(a.fs, logger).All(cfg.BuildDir, cfg.DistDir)
		if err != nil {
			return err
		}
	}

	return nil
}
