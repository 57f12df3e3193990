// SPDX-License-Identifier: MPL-2.0

package skillpack

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/skillkit/skillkit/pkg/engine"
	"github.com/skillkit/skillkit/pkg/report"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/flate"
)

// Extension is the archive file suffix.
const Extension = ".skill"

// ErrPackagingBlocked is returned when validation found issues that fail
// the gate and packaging was not forced.
var ErrPackagingBlocked = errors.New("packaging blocked by validation issues")

// archiveTime is stamped on every entry so identical trees produce
// identical archives.
var archiveTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

type (
	// Options configures Pack.
	Options struct {
		// Engine configures the validation run; Engine.Root is the package.
		Engine engine.Options
		// OutputDir overrides the archive location. See OutputDir.
		OutputDir string
		// WorkDir is the fallback output location; defaults to the process
		// working directory.
		WorkDir string
		// Force packages even when validation fails the gate.
		Force bool
	}

	// Result describes a written archive.
	Result struct {
		Path   string
		Source Source
		Files  int
		Forced bool
		Report *report.Report
	}

	// BlockedError carries the report that stopped packaging.
	BlockedError struct {
		Report *report.Report
	}
)

func (e *BlockedError) Error() string {
	n := len(e.Report.Critical())
	if e.Report.Strict {
		n = len(e.Report.Issues)
	}
	return fmt.Sprintf("%s: %d blocking issue(s) in %s", ErrPackagingBlocked, n, e.Report.Name)
}

func (e *BlockedError) Unwrap() error { return ErrPackagingBlocked }

// Pack validates the package at opts.Engine.Root and writes <name>.skill.
// A *BlockedError is returned, together with the validation report in
// Result, when the report fails the gate and Force is unset.
func Pack(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Engine.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("pack")

	r, err := engine.Run(ctx, opts.Engine)
	if err != nil {
		return nil, err
	}
	res := &Result{Report: r}
	if !r.Pass {
		if !opts.Force {
			return res, &BlockedError{Report: r}
		}
		res.Forced = true
		logger.Warn("packaging despite failing validation", "issues", len(r.Issues))
	}

	root, err := filepath.Abs(opts.Engine.Root)
	if err != nil {
		return res, fmt.Errorf("failed to resolve package root: %w", err)
	}
	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return res, fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	outDir, source := OutputDir(root, opts.OutputDir, workDir)
	if err = os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}
	logger.Info("writing archive", "dir", outDir, "source", source)

	paths := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		paths = append(paths, f.Path)
	}
	res.Path = filepath.Join(outDir, r.Name+Extension)
	res.Source = source
	res.Files = len(paths)
	if err = writeFile(res.Path, root, paths); err != nil {
		return res, err
	}
	return res, nil
}

// writeFile archives paths into archivePath, removing it on failure.
func writeFile(archivePath, root string, paths []string) (err error) {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(archivePath)
		}
	}()

	return Write(out, root, paths)
}

// Write streams a zip of the given package-relative paths to w. Entries are
// written in the order given with a fixed timestamp; callers pass sorted
// paths for reproducible output.
func Write(w io.Writer, root string, paths []string) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, p := range paths {
		if err := addFile(zw, root, p); err != nil {
			_ = zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, root, rel string) (err error) {
	src, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rel, err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", rel, err)
	}

	header := &zip.FileHeader{
		Name:     rel,
		Method:   zip.Deflate,
		Modified: archiveTime,
	}
	header.SetMode(info.Mode().Perm())

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", rel, err)
	}
	if _, err = io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", rel, err)
	}
	return nil
}
