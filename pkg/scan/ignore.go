// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"path"
	"strings"

	"github.com/skillkit/skillkit/pkg/finding"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ignoredDirs are build and tooling directories never walked.
	ignoredDirs = map[string]bool{
		"__pycache__":  true,
		"node_modules": true,
		"dist":         true,
		"build":        true,
		"target":       true,
		"venv":         true,
	}

	// ignoredFiles are file-name globs never scanned.
	ignoredFiles = []string{
		".DS_Store",
		"Thumbs.db",
		"*.pyc",
		"*.pyo",
		"*.skill",
		ConfigFileName,
	}
)

// ConfigFileName is the per-package configuration file, which is not part
// of the package content.
const ConfigFileName = ".skillkit.cue"

type (
	// Ignorer decides which paths the walk skips.
	Ignorer struct {
		patterns []ignorePattern
	}

	ignorePattern struct {
		glob string
		// anchored patterns only match from the package root.
		anchored bool
	}
)

// NewIgnorer compiles extra doublestar patterns on top of the built-in set.
// A pattern with a leading "/" is anchored at the package root; a bare name
// otherwise matches at any depth.
func NewIgnorer(extra []string) (*Ignorer, error) {
	ig := &Ignorer{}
	for _, raw := range extra {
		p := strings.TrimPrefix(strings.TrimSpace(raw), "./")
		anchored := strings.HasPrefix(p, "/")
		p = strings.TrimLeft(p, "/")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, finding.Configf(finding.ReasonBadPattern, raw, "invalid ignore pattern")
		}
		ig.patterns = append(ig.patterns, ignorePattern{glob: p, anchored: anchored})
	}
	return ig, nil
}

// LiteralPattern returns an anchored ignore pattern matching exactly the
// package path rel, with glob metacharacters escaped.
func LiteralPattern(rel string) string {
	var sb strings.Builder
	sb.WriteByte('/')
	for _, r := range strings.TrimPrefix(rel, "./") {
		if strings.ContainsRune(`*?[]{}\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// SkipDir reports whether the directory at rel (slash-separated) is skipped.
func (ig *Ignorer) SkipDir(rel string) bool {
	name := path.Base(rel)
	if strings.HasPrefix(name, ".") || ignoredDirs[name] {
		return true
	}
	return ig.matchUser(rel)
}

// SkipFile reports whether the file at rel is skipped.
func (ig *Ignorer) SkipFile(rel string) bool {
	name := path.Base(rel)
	for _, p := range ignoredFiles {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return ig.matchUser(rel)
}

func (ig *Ignorer) matchUser(rel string) bool {
	for _, p := range ig.patterns {
		if ok, _ := doublestar.Match(p.glob, rel); ok {
			return true
		}
		// A bare name pattern matches at any depth, like .gitignore.
		if !p.anchored && !strings.Contains(p.glob, "/") {
			if ok, _ := doublestar.Match(p.glob, path.Base(rel)); ok {
				return true
			}
		}
	}
	return false
}
