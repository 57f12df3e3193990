// SPDX-License-Identifier: MPL-2.0

// Package report aggregates engine findings into the immutable validation
// report: ordered issues, per-kind and per-severity counts, per-file
// statistics and the pass/fail gate. It performs no rendering; formatters
// consume the Report value.
package report

import (
	"cmp"
	"encoding/hex"
	"slices"
	"strings"
	"time"

	"github.com/skillkit/skillkit/pkg/finding"

	"lukechampine.com/blake3"
)

type (
	// Report is the sole output of a validation run. It must not be
	// modified after Aggregate returns it.
	Report struct {
		// Name is the package directory name.
		Name       string          `json:"name"`
		Entries    []string        `json:"entries"`
		Strict     bool            `json:"strict"`
		Pass       bool            `json:"pass"`
		Issues     []finding.Issue `json:"issues"`
		Summary    Summary         `json:"summary"`
		Files      []FileStat      `json:"files"`
		Reachable  []string        `json:"reachable"`
		TreeDigest string          `json:"tree_digest"`
		// GeneratedAt is the only field that differs between runs over an
		// unchanged tree.
		GeneratedAt time.Time `json:"generated_at"`
	}

	// Summary holds aggregate counts. Every kind and severity is present,
	// zero counts included.
	Summary struct {
		Files      int                      `json:"files"`
		Lines      int                      `json:"lines"`
		Tokens     int                      `json:"tokens"`
		Edges      EdgeCounts               `json:"edges"`
		Issues     int                      `json:"issues"`
		ByKind     map[finding.Kind]int     `json:"by_kind"`
		BySeverity map[finding.Severity]int `json:"by_severity"`
	}

	// EdgeCounts breaks extracted references down by resolution state.
	EdgeCounts struct {
		Total     int `json:"total"`
		Resolved  int `json:"resolved"`
		Broken    int `json:"broken"`
		External  int `json:"external"`
		Directory int `json:"directory"`
	}

	// FileStat is the per-file view used for progress-style reporting.
	FileStat struct {
		Path        string  `json:"path"`
		Kind        string  `json:"kind"`
		Tier        string  `json:"tier"`
		Lines       int     `json:"lines"`
		Tokens      int     `json:"tokens"`
		Limit       int     `json:"limit,omitempty"`
		Utilization float64 `json:"utilization"`
		Readable    bool    `json:"readable"`
		Reachable   bool    `json:"reachable"`
		Digest      string  `json:"digest,omitempty"`
	}

	// Input carries everything Aggregate needs.
	Input struct {
		Name      string
		Entries   []string
		Strict    bool
		Issues    []finding.Issue
		Files     []FileStat
		Edges     EdgeCounts
		Reachable []string
		Now       time.Time
	}
)

// Aggregate orders issues, computes the summary and the gate, and returns
// the finished report. Input slices are copied.
func Aggregate(in Input) *Report {
	issues := slices.Clone(in.Issues)
	if issues == nil {
		issues = []finding.Issue{}
	}
	SortIssues(issues)

	files := slices.Clone(in.Files)
	if files == nil {
		files = []FileStat{}
	}
	slices.SortFunc(files, func(a, b FileStat) int { return strings.Compare(a.Path, b.Path) })

	reachable := slices.Clone(in.Reachable)
	if reachable == nil {
		reachable = []string{}
	}

	summary := Summarize(issues, files)
	summary.Edges = in.Edges

	return &Report{
		Name:        in.Name,
		Entries:     slices.Clone(in.Entries),
		Strict:      in.Strict,
		Pass:        Gate(summary, in.Strict),
		Issues:      issues,
		Summary:     summary,
		Files:       files,
		Reachable:   reachable,
		TreeDigest:  TreeDigest(files),
		GeneratedAt: in.Now.UTC(),
	}
}

// SortIssues orders issues by severity, path, line, then kind and message
// so equal-position issues still sort stably.
func SortIssues(issues []finding.Issue) {
	slices.SortStableFunc(issues, func(a, b finding.Issue) int {
		return cmp.Or(
			cmp.Compare(a.Severity.Rank(), b.Severity.Rank()),
			strings.Compare(a.Path, b.Path),
			cmp.Compare(a.Line, b.Line),
			strings.Compare(string(a.Kind), string(b.Kind)),
			strings.Compare(a.Message, b.Message),
		)
	})
}

// Summarize counts issues by kind and severity and totals file sizes.
func Summarize(issues []finding.Issue, files []FileStat) Summary {
	s := Summary{
		Files:      len(files),
		Issues:     len(issues),
		ByKind:     make(map[finding.Kind]int),
		BySeverity: make(map[finding.Severity]int),
	}
	for _, k := range finding.Kinds() {
		s.ByKind[k] = 0
	}
	for _, sev := range finding.Severities() {
		s.BySeverity[sev] = 0
	}

	for _, is := range issues {
		s.ByKind[is.Kind]++
		s.BySeverity[is.Severity]++
	}
	for _, f := range files {
		s.Lines += f.Lines
		s.Tokens += f.Tokens
	}
	return s
}

// Gate passes when there are no critical issues, or in strict mode when
// there are no issues at all.
func Gate(s Summary, strict bool) bool {
	if strict {
		return s.Issues == 0
	}
	return s.BySeverity[finding.SeverityCritical] == 0
}

// TreeDigest hashes the sorted (path, content digest) pairs of files.
func TreeDigest(files []FileStat) string {
	hasher := blake3.New(32, nil)
	for _, f := range files {
		hasher.Write([]byte(f.Path))
		hasher.Write([]byte{0})
		hasher.Write([]byte(f.Digest))
		hasher.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// Critical returns the critical issues.
func (r *Report) Critical() []finding.Issue {
	return r.Filter(func(is finding.Issue) bool { return is.Severity == finding.SeverityCritical })
}

// Filter returns the issues matching keep, in report order.
func (r *Report) Filter(keep func(finding.Issue) bool) []finding.Issue {
	var out []finding.Issue
	for _, is := range r.Issues {
		if keep(is) {
			out = append(out, is)
		}
	}
	return out
}

// Count returns the number of issues of kind.
func (r *Report) Count(kind finding.Kind) int {
	return r.Summary.ByKind[kind]
}

// File returns the stats for path.
func (r *Report) File(path string) (FileStat, bool) {
	i, found := slices.BinarySearchFunc(r.Files, path, func(f FileStat, p string) int {
		return strings.Compare(f.Path, p)
	})
	if !found {
		return FileStat{}, false
	}
	return r.Files[i], true
}
