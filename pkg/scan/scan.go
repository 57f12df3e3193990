// SPDX-License-Identifier: MPL-2.0

// Package scan enumerates the files of a content package and loads them.
//
// Walk is a sequential, metadata-only pass: it applies the ignore rules,
// guards against symlinks escaping the root, and enforces the resource
// ceiling before any content is read. Load reads one listed file and is safe
// to call concurrently.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/refgraph"

	"github.com/charmbracelet/log"
)

// Default resource ceiling.
const (
	DefaultMaxFiles       = 5000
	DefaultMaxBytes int64 = 64 << 20
)

type (
	// Options configures a walk.
	Options struct {
		// Root is the package directory.
		Root string
		// Ignore adds doublestar patterns to the built-in ignore set.
		Ignore []string
		// MaxFiles and MaxBytes bound the walk; zero selects the defaults
		// and a negative value disables the bound.
		MaxFiles int
		MaxBytes int64
		Logger   *log.Logger
	}

	// Entry is one listed file, before its content is read.
	Entry struct {
		// Path is slash-separated and relative to the root.
		Path string
		// Abs is the file to read; for in-root symlinks it is the link.
		Abs  string
		Size int64
		Kind refgraph.Kind
	}

	// Listing is the result of Walk.
	Listing struct {
		Root string
		// Files are sorted by Path.
		Files []Entry
		// Dirs are the walked directories (excluding the root), sorted.
		Dirs  []string
		Bytes int64
	}
)

// Walk lists the package under opts.Root. A missing or non-directory root,
// an invalid ignore pattern, and an exceeded ceiling are configuration errors.
func Walk(ctx context.Context, opts Options) (*Listing, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("scan")

	root, err := checkRoot(opts.Root)
	if err != nil {
		return nil, err
	}
	ig, err := NewIgnorer(opts.Ignore)
	if err != nil {
		return nil, err
	}

	maxFiles := opts.MaxFiles
	if maxFiles == 0 {
		maxFiles = DefaultMaxFiles
	}
	maxBytes := opts.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}

	listing := &Listing{Root: root}
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == root {
			return err
		}
		rel, relErr := RelPath(root, p)
		if relErr != nil {
			return relErr
		}
		if err != nil {
			// Unlistable entries are skipped; unreadable files surface later.
			logger.Debug("skipping unlistable path", "path", rel, "err", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if ig.SkipDir(rel) {
				logger.Debug("ignoring directory", "path", rel)
				return filepath.SkipDir
			}
			listing.Dirs = append(listing.Dirs, rel)
			return nil
		}
		if ig.SkipFile(rel) {
			logger.Debug("ignoring file", "path", rel)
			return nil
		}

		info, ok := statEntry(root, p, rel, d, logger)
		if !ok {
			return nil
		}

		listing.Files = append(listing.Files, Entry{
			Path: rel,
			Abs:  p,
			Size: info.Size(),
			Kind: refgraph.KindOf(rel),
		})
		listing.Bytes += info.Size()

		if maxFiles > 0 && len(listing.Files) > maxFiles {
			return finding.Configf(finding.ReasonResourceCeiling, opts.Root, "more than %d files", maxFiles)
		}
		if maxBytes > 0 && listing.Bytes > maxBytes {
			return finding.Configf(finding.ReasonResourceCeiling, opts.Root, "more than %d bytes", maxBytes)
		}
		return nil
	})
	if walkErr != nil {
		if _, ok := finding.IsConfiguration(walkErr); ok {
			return nil, walkErr
		}
		return nil, fmt.Errorf("walk %s: %w", opts.Root, walkErr)
	}

	slices.SortFunc(listing.Files, func(a, b Entry) int { return strings.Compare(a.Path, b.Path) })
	slices.Sort(listing.Dirs)
	logger.Info("walked package", "files", len(listing.Files), "dirs", len(listing.Dirs), "bytes", listing.Bytes)
	return listing, nil
}

// checkRoot returns the absolute, symlink-resolved root directory.
func checkRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", finding.Configf(finding.ReasonBadRoot, root, "root path is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &finding.ConfigurationError{Reason: finding.ReasonBadRoot, Path: root, Err: err}
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", &finding.ConfigurationError{Reason: finding.ReasonBadRoot, Path: root, Detail: "root does not exist", Err: err}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", &finding.ConfigurationError{Reason: finding.ReasonBadRoot, Path: root, Err: err}
	}
	if !info.IsDir() {
		return "", finding.Configf(finding.ReasonBadRoot, root, "root is not a directory")
	}
	return resolved, nil
}

// statEntry returns the file info for a regular file or an in-root
// symlink to one. Directory symlinks and escaping links are skipped.
func statEntry(root, p, rel string, d fs.DirEntry, logger *log.Logger) (fs.FileInfo, bool) {
	if d.Type()&fs.ModeSymlink == 0 {
		if !d.Type().IsRegular() {
			logger.Debug("skipping special file", "path", rel)
			return nil, false
		}
		info, err := d.Info()
		if err != nil {
			logger.Debug("skipping unstattable file", "path", rel, "err", err)
			return nil, false
		}
		return info, true
	}

	target, err := filepath.EvalSymlinks(p)
	if err != nil {
		logger.Debug("skipping dangling symlink", "path", rel, "err", err)
		return nil, false
	}
	relToRoot, err := filepath.Rel(root, target)
	if err != nil || relToRoot == ".." || strings.HasPrefix(relToRoot, ".."+string(filepath.Separator)) {
		logger.Debug("skipping symlink escaping the root", "path", rel, "target", target)
		return nil, false
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, false
	}
	if info.IsDir() {
		logger.Debug("not following directory symlink", "path", rel)
		return nil, false
	}
	if !info.Mode().IsRegular() {
		return nil, false
	}
	return info, true
}

// RelPath converts an OS path under root to the package path form.
func RelPath(root, p string) (string, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", errors.New("path is outside the package root")
	}
	return rel, nil
}
