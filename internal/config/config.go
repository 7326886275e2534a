package config

import (
	stderrors "errors"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/askiada/gen192/internal/logging"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "GEN192_"

// Defaults of the original generator.
const (
	DefaultRevision      = "89160708710aa6765479949edaca1fe18e4f65e3"
	DefaultRepoURL       = "https://github.com/FCP-INDI/C-PAC.git"
	DefaultConfigsSubdir = "CPAC/resources/configs"
	DefaultBuildDir      = "build"
	DefaultDistDir       = "dist"
	DefaultOutputName    = "gen192_nofork"
	DefaultConcurrency   = 4
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the configuration of a generation run.
type Config struct {
	// Revision is the commit of the source repository the pipelines are read from.
	Revision string `yaml:"revision"`
	// RepoURL is the git URL of the source repository.
	RepoURL string `yaml:"repo_url"`
	// ConfigsSubdir is the directory of the repository holding the pipeline configurations.
	ConfigsSubdir string `yaml:"configs_subdir"`

	// BuildDir holds the source cache and the output directory.
	BuildDir string `yaml:"build_dir"`
	// DistDir receives one zip archive per directory of BuildDir.
	DistDir string `yaml:"dist_dir"`
	// OutputName is the directory of BuildDir receiving the generated documents.
	OutputName string `yaml:"output_name"`

	// Concurrency is the number of documents merged in parallel.
	Concurrency int `yaml:"concurrency"`
	// Overwrite allows replacing existing output documents.
	Overwrite bool `yaml:"overwrite"`
	// Archive zips the build directories once generation succeeded.
	Archive bool `yaml:"archive"`

	// LineageFile, when set, receives the derivation graph as DOT.
	LineageFile string `yaml:"lineage_file"`
	// CatalogFile, when set, replaces the built-in catalog.
	CatalogFile string `yaml:"catalog_file"`

	LogLevel  string `yaml:"log_level"`
	LogPretty bool   `yaml:"log_pretty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Revision:      DefaultRevision,
		RepoURL:       DefaultRepoURL,
		ConfigsSubdir: DefaultConfigsSubdir,
		BuildDir:      DefaultBuildDir,
		DistDir:       DefaultDistDir,
		OutputName:    DefaultOutputName,
		Concurrency:   DefaultConcurrency,
		Archive:       true,
		LogLevel:      "INFO",
	}
}

// OutputDir is the directory receiving the generated documents.
func (c *Config) OutputDir() string {
	return filepath.Join(c.BuildDir, c.OutputName)
}

// LoadFile merges the YAML file at path into c. Unknown keys are rejected.
func (c *Config) LoadFile(fs afero.Fs, path string) error {
	file, err := fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open config %s", path)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	err = dec.Decode(c)
	if err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrapf(err, "unable to decode config %s", path)
	}

	return nil
}

// LoadDotEnv applies the GEN192_* variables of the dotenv file at path.
// Variables already set in the process environment win, so lookup is consulted first.
func (c *Config) LoadDotEnv(fs afero.Fs, path string, lookup func(string) (string, bool)) error {
	file, err := fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open env file %s", path)
	}
	defer file.Close()

	values, err := godotenv.Parse(file)
	if err != nil {
		return errors.Wrapf(err, "unable to parse env file %s", path)
	}

	return c.ApplyEnv(func(key string) (string, bool) {
		if lookup != nil {
			if _, ok := lookup(key); ok {
				return "", false
			}
		}
		v, ok := values[key]

		return v, ok
	})
}

type setter func(c *Config, value string) error

func stringSetter(field func(c *Config) *string) setter {
	return func(c *Config, value string) error {
		*field(c) = value

		return nil
	}
}

func boolSetter(field func(c *Config) *bool) setter {
	return func(c *Config, value string) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		*field(c) = b

		return nil
	}
}

func intSetter(field func(c *Config) *int) setter {
	return func(c *Config, value string) error {
		i, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		*field(c) = i

		return nil
	}
}

// envSetters is keyed by the YAML name of each field.
var envSetters = map[string]setter{
	"revision":       stringSetter(func(c *Config) *string { return &c.Revision }),
	"repo_url":       stringSetter(func(c *Config) *string { return &c.RepoURL }),
	"configs_subdir": stringSetter(func(c *Config) *string { return &c.ConfigsSubdir }),
	"build_dir":      stringSetter(func(c *Config) *string { return &c.BuildDir }),
	"dist_dir":       stringSetter(func(c *Config) *string { return &c.DistDir }),
	"output_name":    stringSetter(func(c *Config) *string { return &c.OutputName }),
	"concurrency":    intSetter(func(c *Config) *int { return &c.Concurrency }),
	"overwrite":      boolSetter(func(c *Config) *bool { return &c.Overwrite }),
	"archive":        boolSetter(func(c *Config) *bool { return &c.Archive }),
	"lineage_file":   stringSetter(func(c *Config) *string { return &c.LineageFile }),
	"catalog_file":   stringSetter(func(c *Config) *string { return &c.CatalogFile }),
	"log_level":      stringSetter(func(c *Config) *string { return &c.LogLevel }),
	"log_pretty":     boolSetter(func(c *Config) *bool { return &c.LogPretty }),
}

// EnvName returns the environment variable overriding the field named key in YAML.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

// ApplyEnv overrides c with the GEN192_* variables returned by lookup, usually os.LookupEnv.
// Every malformed value is reported.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	for _, key := range sortedKeys() {
		value, ok := lookup(EnvName(key))
		if !ok {
			continue
		}
		err := envSetters[key](c, value)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "%s", EnvName(key)))
		}
	}

	return stderrors.Join(errs...)
}

func sortedKeys() []string {
	keys := make([]string, 0, len(envSetters))
	for k := range envSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	required := []struct {
		name  string
		value string
	}{
		{"revision", c.Revision},
		{"repo_url", c.RepoURL},
		{"configs_subdir", c.ConfigsSubdir},
		{"build_dir", c.BuildDir},
		{"dist_dir", c.DistDir},
		{"output_name", c.OutputName},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, errors.Wrapf(ErrInvalidConfig, "%s is required", r.name))
		}
	}

	if c.OutputName != "" && (c.OutputName != filepath.Base(c.OutputName) || c.OutputName == "..") {
		errs = append(errs, errors.Wrapf(ErrInvalidConfig, "output_name %q must be a plain directory name", c.OutputName))
	}
	if filepath.IsAbs(c.ConfigsSubdir) {
		errs = append(errs, errors.Wrapf(ErrInvalidConfig, "configs_subdir %q must be relative", c.ConfigsSubdir))
	}
	if c.Concurrency < 1 {
		errs = append(errs, errors.Wrapf(ErrInvalidConfig, "concurrency must be positive, got %d", c.Concurrency))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, errors.Wrap(ErrInvalidConfig, err.Error()))
	}

	return stderrors.Join(errs...)
}
