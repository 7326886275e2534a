// Package archive zips build directories for distribution.
package archive

import (
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Extension of every archive.
const Extension = ".zip"

// Archiver writes zip archives on fs.
type Archiver struct {
	fs     afero.Fs
	logger zerolog.Logger
}

func New(fs afero.Fs, logger zerolog.Logger) *Archiver {
	return &Archiver{fs: fs, logger: logger}
}

// All zips every top level directory of buildDir into distDir/<name>.zip and returns the archive paths.
// Regular files of buildDir are ignored. Existing archives are replaced.
func (a *Archiver) All(buildDir, distDir string) ([]string, error) {
	entries, err := afero.ReadDir(a.fs, buildDir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", buildDir)
	}

	err = a.fs.MkdirAll(distDir, 0o755)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create %s", distDir)
	}

	var archives []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dst := filepath.Join(distDir, entry.Name()+Extension)
		err := a.Dir(filepath.Join(buildDir, entry.Name()), dst)
		if err != nil {
			return archives, err
		}
		a.logger.Info().Str("dir", entry.Name()).Str("archive", dst).Msg("archived")
		archives = append(archives, dst)
	}

	return archives, nil
}

// Dir zips the content of src into dst. Entry names are relative to src.
// The archive is written next to dst and renamed once complete.
func (a *Archiver) Dir(src, dst string) error {
	tmp := dst + ".tmp"
	file, err := a.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", tmp)
	}

	err = a.write(file, src)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = errors.Wrapf(closeErr, "unable to close %s", tmp)
	}
	if err != nil {
		_ = a.fs.Remove(tmp)

		return err
	}

	return errors.Wrapf(a.fs.Rename(tmp, dst), "unable to move %s", tmp)
}

func (a *Archiver) write(wrt io.Writer, src string) error {
	zw := zip.NewWriter(wrt)

	err := afero.Walk(a.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == src {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Wrapf(err, "unable to relativise %s", path)
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return errors.Wrapf(err, "unable to build header of %s", path)
		}
		header.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			header.Name += "/"
			_, err = zw.CreateHeader(header)

			return errors.Wrapf(err, "unable to add %s", path)
		}
		header.Method = zip.Deflate

		entry, err := zw.CreateHeader(header)
		if err != nil {
			return errors.Wrapf(err, "unable to add %s", path)
		}

		return copyInto(a.fs, path, entry)
	})
	if err != nil {
		return errors.Wrapf(err, "unable to archive %s", src)
	}

	return errors.Wrap(zw.Close(), "unable to finish archive")
}

func copyInto(fs afero.Fs, path string, wrt io.Writer) error {
	in, err := fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", path)
	}
	defer in.Close()

	_, err = io.Copy(wrt, in)

	return errors.Wrapf(err, "unable to copy %s", path)
}
