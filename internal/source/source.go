// Package source fetches the pipeline configurations of a given revision of the source repository.
//
// The configurations are cached in a directory named after the revision, so that a second run with the same revision
// does not touch the network.
package source

import (
	"context"
	"crypto/sha1" //nolint:gosec // used as a cache key, not for security
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// CacheDirPrefix prefixes the name of every cache directory.
const CacheDirPrefix = "cpac_source_configs_"

const (
	// DefaultMaxRetries is the number of clone attempts after the first one.
	DefaultMaxRetries = 3

	cloneDirName = "repo"
)

var (
	ErrClone    = errors.New("unable to clone repository")
	ErrCheckout = errors.New("unable to checkout revision")
)

// CacheDirName returns the cache directory name of revision: the prefix followed by the unpadded URL safe base64 of the
// SHA-1 of the revision.
func CacheDirName(revision string) string {
	sum := sha1.Sum([]byte(revision)) //nolint:gosec

	return CacheDirPrefix + base64.RawURLEncoding.EncodeToString(sum[:])
}

// Fetcher clones the repository and extracts its configurations directory.
// Runner works on the real filesystem, so the Fetcher filesystem must be backed by it outside of tests.
type Fetcher struct {
	fs         afero.Fs
	runner     Runner
	logger     zerolog.Logger
	repoURL    string
	revision   string
	subdir     string
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// FetcherOption configures a Fetcher.
type FetcherOption func(f *Fetcher)

// FetcherBackOff sets the policy between clone attempts.
func FetcherBackOff(newBackOff func() backoff.BackOff) FetcherOption {
	return func(f *Fetcher) {
		f.newBackOff = newBackOff
	}
}

// FetcherMaxRetries sets the number of clone attempts after the first one.
func FetcherMaxRetries(maxRetries uint64) FetcherOption {
	return func(f *Fetcher) {
		f.maxRetries = maxRetries
	}
}

// NewFetcher creates a fetcher for subdir of repoURL at revision.
func NewFetcher(fs afero.Fs, runner Runner, logger zerolog.Logger, repoURL, revision, subdir string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		fs:         fs,
		runner:     runner,
		logger:     logger,
		repoURL:    repoURL,
		revision:   revision,
		subdir:     subdir,
		maxRetries: DefaultMaxRetries,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch makes sure the configurations of the revision are cached under buildDir and returns the cache directory.
// A failed fetch leaves no cache directory behind.
func (f *Fetcher) Fetch(ctx context.Context, buildDir string) (string, error) {
	dst := filepath.Join(buildDir, CacheDirName(f.revision))
	logger := f.logger.With().Str("revision", f.revision).Str("dir", dst).Logger()

	ok, err := afero.DirExists(f.fs, dst)
	if err != nil {
		return "", errors.Wrapf(err, "unable to stat %s", dst)
	}
	if ok {
		logger.Info().Msg("source configs already fetched")

		return dst, nil
	}

	err = f.fs.MkdirAll(buildDir, 0o755)
	if err != nil {
		return "", errors.Wrapf(err, "unable to create %s", buildDir)
	}
	tmp, err := afero.TempDir(f.fs, buildDir, "temp_cpac_")
	if err != nil {
		return "", errors.Wrap(err, "unable to create temporary directory")
	}
	defer func() {
		if err := f.fs.RemoveAll(tmp); err != nil {
			logger.Warn().Err(err).Str("tmp", tmp).Msg("unable to remove clone")
		}
	}()

	repo := filepath.Join(tmp, cloneDirName)
	logger.Info().Str("repo_url", f.repoURL).Msg("cloning source repository")
	err = f.clone(ctx, tmp, repo)
	if err != nil {
		return "", err
	}

	err = f.runner.Run(ctx, repo, "git", "checkout", f.revision)
	if err != nil {
		return "", errors.Wrapf(ErrCheckout, "%s: %v", f.revision, err)
	}

	logger.Info().Str("subdir", f.subdir).Msg("extracting configs")
	err = copyDir(f.fs, filepath.Join(repo, f.subdir), dst)
	if err != nil {
		if rmErr := f.fs.RemoveAll(dst); rmErr != nil {
			logger.Warn().Err(rmErr).Msg("unable to remove partial configs")
		}

		return "", errors.Wrap(err, "unable to extract configs")
	}

	return dst, nil
}

func (f *Fetcher) clone(ctx context.Context, dir, repo string) error {
	attempt := 0
	operation := func() error {
		attempt++
		// git refuses to clone into a non empty directory left by a failed attempt
		err := f.fs.RemoveAll(repo)
		if err != nil {
			return backoff.Permanent(err)
		}

		return f.runner.Run(ctx, dir, "git", "clone", f.repoURL, repo)
	}
	notify := func(err error, next time.Duration) {
		f.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("clone failed")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), f.maxRetries), ctx)
	err := backoff.RetryNotify(operation, b, notify)
	if err != nil {
		return errors.Wrapf(ErrClone, "%s after %d attempts: %v", f.repoURL, attempt, err)
	}

	return nil
}

func copyDir(fs afero.Fs, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "unable to stat %s", src)
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", src)
	}

	return afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Wrapf(err, "unable to relativise %s", path)
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return fs.MkdirAll(target, 0o755)
		}

		return copyFile(fs, path, target, info.Mode().Perm())
	})
}

func copyFile(fs afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", src)
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", dst)
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	if err != nil {
		return errors.Wrapf(err, "unable to copy %s", src)
	}

	return errors.Wrapf(out.Close(), "unable to close %s", dst)
}
