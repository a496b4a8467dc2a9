// Package extract unpacks a generated project archive into the Extraction Root.
package extract

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/projgen/projgen/internal/config"
	"github.com/projgen/projgen/internal/constants"
	"github.com/projgen/projgen/internal/diskspace"
	"github.com/projgen/projgen/internal/failure"
	"github.com/projgen/projgen/internal/logging"
	"github.com/projgen/projgen/internal/validation"
)

const op = "extract"

// Extractor writes archive entries below a fixed root directory. The root is
// created on demand and never deleted; existing files with the same relative
// path are overwritten, anything else already there is left alone.
type Extractor struct {
	root        string
	allowUnsafe bool
	logger      *logging.Logger
}

// NewExtractor creates an extractor for root, which must be absolute.
func NewExtractor(root string, allowUnsafe bool, logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Extractor{root: root, allowUnsafe: allowUnsafe, logger: logger}
}

// FromConfig creates an extractor for the configured Extraction Root.
func FromConfig(cfg *config.Config, logger *logging.Logger) (*Extractor, error) {
	root, err := cfg.ResolveExtractionRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve extraction root: %w", err)
	}
	return NewExtractor(root, cfg.AllowUnsafePaths, logger), nil
}

// Root returns the directory archives are extracted into.
func (e *Extractor) Root() string {
	return e.root
}

// planned is one archive entry with its resolved local path.
type planned struct {
	file  *zip.File
	local string
	dir   bool
}

// Extract writes every entry of the archive at archivePath below the root and
// returns the absolute root path. The archive is opened and every entry name
// checked before anything is written, so an unreadable archive or an unsafe
// name leaves the root as it was. Entries are processed in archive order.
func (e *Extractor) Extract(archivePath string) (string, error) {
	root, err := filepath.Abs(e.root)
	if err != nil {
		return "", failure.IO(op, e.root, err)
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", failure.IO(op, archivePath, err)
		}
		return "", failure.ArchiveRead(op, archivePath, err)
	}
	defer r.Close()

	entries, total, err := e.plan(root, r.File)
	if err != nil {
		return "", failure.ArchiveRead(op, archivePath, err)
	}

	if err := diskspace.CheckAvailableSpace(root, total, constants.DiskSpaceSafetyMargin); err != nil {
		return "", failure.IO(op, root, err)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return "", failure.IO(op, root, err)
	}

	e.logger.Info().
		Str("archive", archivePath).
		Str("root", root).
		Int("entries", len(entries)).
		Msg("Extracting archive")

	for _, entry := range entries {
		if entry.dir {
			if err := os.MkdirAll(entry.local, 0755); err != nil {
				return "", failure.IO(op, entry.local, err)
			}
			continue
		}
		if err := writeEntry(entry); err != nil {
			return "", err
		}
		e.logger.Debug().Str("entry", entry.file.Name).Uint64("bytes", entry.file.UncompressedSize64).Msg("Extracted")
	}

	e.logger.Info().Str("root", root).Msg("Extraction complete")
	return root, nil
}

// plan resolves every entry name against root and sums the uncompressed sizes.
func (e *Extractor) plan(root string, files []*zip.File) ([]planned, int64, error) {
	entries := make([]planned, 0, len(files))
	var total int64

	for _, f := range files {
		local, err := validation.ArchiveEntryPath(root, f.Name, e.allowUnsafe)
		if err != nil {
			return nil, 0, err
		}
		isDir := f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/")
		if !isDir {
			total += int64(f.UncompressedSize64)
		}
		entries = append(entries, planned{file: f, local: local, dir: isDir})
	}

	return entries, total, nil
}

// writeEntry creates or truncates the target file and copies the decompressed
// entry into it. Read-side failures (corrupt data, checksum mismatch,
// unsupported method) are ArchiveRead; write-side failures are IO.
func writeEntry(entry planned) error {
	if err := os.MkdirAll(filepath.Dir(entry.local), 0755); err != nil {
		return failure.IO(op, filepath.Dir(entry.local), err)
	}

	rc, err := entry.file.Open()
	if err != nil {
		return failure.ArchiveRead(op, entry.file.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(entry.local, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode(entry.file))
	if err != nil {
		return failure.IO(op, entry.local, err)
	}

	w := &errWriter{w: out}
	_, copyErr := io.Copy(w, rc)
	closeErr := out.Close()

	if copyErr != nil {
		if w.err != nil {
			return failure.IO(op, entry.local, copyErr)
		}
		return failure.ArchiveRead(op, entry.file.Name, copyErr)
	}
	if closeErr != nil {
		return failure.IO(op, entry.local, closeErr)
	}
	return nil
}

// fileMode keeps the entry's executable bits on top of 0644.
func fileMode(f *zip.File) os.FileMode {
	return 0644 | (f.Mode().Perm() & 0111)
}

// errWriter remembers whether a copy failed on the write side.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}
