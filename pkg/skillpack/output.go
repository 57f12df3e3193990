// SPDX-License-Identifier: MPL-2.0

package skillpack

import (
	"os"
	"path/filepath"
)

// Source names the rule that chose the output directory.
type Source string

const (
	SourceExplicit Source = "explicit"
	SourceProject  Source = "project"
	SourceWorkDir  Source = "workdir"
)

// projectMarkers identify a directory as the root of a software project.
var projectMarkers = []string{
	".git",
	"go.mod",
	"package.json",
	"pyproject.toml",
	"setup.py",
	"Cargo.toml",
	"pom.xml",
	"build.gradle",
	"composer.json",
	"Gemfile",
}

// OutputDir picks where the archive for the package at root goes: the
// explicit directory when given, else root's parent when it looks like a
// project, else workDir.
func OutputDir(root, explicit, workDir string) (string, Source) {
	if explicit != "" {
		if abs, err := filepath.Abs(explicit); err == nil {
			return abs, SourceExplicit
		}
		return explicit, SourceExplicit
	}
	if parent := filepath.Dir(root); IsProjectDir(parent) {
		return parent, SourceProject
	}
	return workDir, SourceWorkDir
}

// IsProjectDir reports whether dir contains any project marker.
func IsProjectDir(dir string) bool {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return false
	}
	for _, m := range projectMarkers {
		if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
			return true
		}
	}
	return false
}
