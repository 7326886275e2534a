// Package commands provides the CLI commands for gen192.
package commands

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/askiada/gen192/internal/config"
	"github.com/askiada/gen192/internal/logging"
	"github.com/askiada/gen192/internal/source"
	"github.com/askiada/gen192/pkg/combination"
)

// Version is set at build time.
var Version = "0.1.0"

// DefaultEnvFile is loaded when present in the working directory.
const DefaultEnvFile = ".env"

// app holds what commands need from the outside world.
type app struct {
	fs        afero.Fs
	runner    func(logger zerolog.Logger) source.Runner
	lookupEnv func(string) (string, bool)

	configFile string
	envFile    string
	logLevel   string
	logPretty  bool
}

func newApp() *app {
	return &app{
		fs: afero.NewOsFs(),
		runner: func(logger zerolog.Logger) source.Runner {
			return source.ExecRunner{Logger: logger}
		},
		lookupEnv: os.LookupEnv,
	}
}

// newRootCmd creates the gen192 command tree.
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gen192",
		Short: "Generate the C-PAC pipeline perturbation configurations",
		Long: `gen192 derives pipeline configurations from the C-PAC reference pipelines.

Every derived configuration starts from a base pipeline, replaces one
processing step with the same step of another pipeline and sets the
connectivity and nuisance regression parameters being swept.

Run 'gen192 generate' to fetch the reference pipelines and write every
derived configuration, or 'gen192 list' to print them without writing.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", DefaultEnvFile, "dotenv file with GEN192_* variables, ignored when missing")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&a.logPretty, "log-pretty", false, "Human-readable logs")

	rootCmd.AddCommand(newGenerateCmd(a))
	rootCmd.AddCommand(newListCmd(a))

	return rootCmd
}

// Execute runs the root command until it returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRootCmd(newApp()).ExecuteContext(ctx)
}

// loadConfig resolves the configuration: defaults, config file, dotenv file, environment, then flags.
// applyFlags receives the configuration before validation.
func (a *app) loadConfig(cmd *cobra.Command, applyFlags func(cfg *config.Config)) (*config.Config, error) {
	cfg := config.Default()

	if a.configFile != "" {
		err := cfg.LoadFile(a.fs, a.configFile)
		if err != nil {
			return nil, err
		}
	}

	if a.envFile != "" {
		ok, err := afero.Exists(a.fs, a.envFile)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to stat %s", a.envFile)
		}
		if ok {
			err = cfg.LoadDotEnv(a.fs, a.envFile, a.lookupEnv)
			if err != nil {
				return nil, err
			}
		} else if cmd.Flags().Changed("env-file") {
			return nil, errors.Errorf("env file %s not found", a.envFile)
		}
	}

	err := cfg.ApplyEnv(a.lookupEnv)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cmd.Flags().Changed("log-pretty") {
		cfg.LogPretty = a.logPretty
	}
	if applyFlags != nil {
		applyFlags(cfg)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (a *app) logger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	// Validate already rejected unknown levels
	level, _ := logging.ParseLevel(cfg.LogLevel)

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Output = cmd.ErrOrStderr()
	logCfg.Pretty = cfg.LogPretty

	return logging.New(logCfg)
}

func (a *app) catalog(cfg *config.Config) (combination.Catalog, error) {
	if cfg.CatalogFile == "" {
		return combination.DefaultCatalog(), nil
	}

	file, err := a.fs.Open(cfg.CatalogFile)
	if err != nil {
		return combination.Catalog{}, errors.Wrapf(err, "unable to open catalog %s", cfg.CatalogFile)
	}
	defer file.Close()

	catalog, err := combination.LoadCatalog(file)
	if err != nil {
		return combination.Catalog{}, errors.Wrapf(err, "unable to load catalog %s", cfg.CatalogFile)
	}

	return catalog, nil
}
