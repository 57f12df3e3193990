// SPDX-License-Identifier: MPL-2.0

// Package quality grades a validated package on structure, efficiency and
// reference integrity.
//
// The score is derived from a finished report.Report plus the text of the
// primary entry document. Integrity points come straight from the report's
// summary counts; individual issues are neither read nor re-interpreted.
package quality

import (
	"fmt"
	"math"
	"path"
	"regexp"
	"strings"

	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/refgraph"
	"github.com/skillkit/skillkit/pkg/report"
	"github.com/skillkit/skillkit/pkg/scan"
)

// Category names.
const (
	CategoryStructure  = "structure"
	CategoryEfficiency = "efficiency"
	CategoryIntegrity  = "integrity"
)

const (
	// PassPercent is the minimum overall percentage that passes.
	PassPercent = 70.0

	// ReferencesDir holds the documents an entry discloses progressively.
	ReferencesDir = "references"

	// IdealEntryLines and MaxEntryLines bound the entry document's length.
	IdealEntryLines = 500
	MaxEntryLines   = 800

	// MaxEntryTokens is the entry document's token ceiling.
	MaxEntryTokens = 5000

	// MaxSectionLines is the longest a single "##" section may run.
	MaxSectionLines = 150

	// Repetition is only judged on documents longer than repetitionMinLines;
	// fewer than minUniqueRatio distinct non-blank lines counts as bloat.
	repetitionMinLines = 100
	minUniqueRatio     = 0.7
)

var referenceStem = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type (
	// Score is the graded result for one package.
	Score struct {
		Name       string     `json:"name"`
		Entry      string     `json:"entry"`
		Points     int        `json:"points"`
		Max        int        `json:"max"`
		Percent    float64    `json:"percent"`
		Grade      Grade      `json:"grade"`
		Pass       bool       `json:"pass"`
		Categories []Category `json:"categories"`
	}

	// Category is the subtotal of one scoring area.
	Category struct {
		Name    string   `json:"name"`
		Points  int      `json:"points"`
		Max     int      `json:"max"`
		Percent float64  `json:"percent"`
		Issues  []string `json:"issues"`
	}

	// Grade is a letter grade derived from the overall percentage.
	Grade string

	// tally accumulates one category's checks.
	tally struct {
		cat Category
	}
)

// Letter grades.
const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Label returns the grade with its description, e.g. "B (Good)".
func (g Grade) Label() string {
	switch g {
	case GradeA:
		return "A (Excellent)"
	case GradeB:
		return "B (Good)"
	case GradeC:
		return "C (Fair)"
	case GradeD:
		return "D (Needs Improvement)"
	default:
		return "F (Poor)"
	}
}

// GradeFor maps a percentage to a letter grade.
func GradeFor(percent float64) Grade {
	switch {
	case percent >= 90:
		return GradeA
	case percent >= 80:
		return GradeB
	case percent >= 70:
		return GradeC
	case percent >= 60:
		return GradeD
	default:
		return GradeF
	}
}

// Evaluate scores r. entryText is the content of the report's first entry
// document.
func Evaluate(r *report.Report, entryText string) *Score {
	entry := ""
	if len(r.Entries) > 0 {
		entry = r.Entries[0]
	}
	stat, _ := r.File(entry)
	refs := referenceDocs(r)

	s := &Score{
		Name:  r.Name,
		Entry: entry,
		Categories: []Category{
			structure(entryText, stat, refs),
			efficiency(entryText, stat),
			integrity(r.Summary),
		},
	}
	for _, c := range s.Categories {
		s.Points += c.Points
		s.Max += c.Max
	}
	s.Percent = percent(s.Points, s.Max)
	s.Grade = GradeFor(s.Percent)
	s.Pass = s.Percent >= PassPercent
	return s
}

// Issues returns every category issue prefixed with its category.
func (s *Score) Issues() []string {
	var out []string
	for _, c := range s.Categories {
		for _, is := range c.Issues {
			out = append(out, fmt.Sprintf("%s: %s", c.Name, is))
		}
	}
	return out
}

func newTally(name string) *tally {
	return &tally{cat: Category{Name: name, Issues: []string{}}}
}

// check awards points when ok holds and records issue otherwise.
func (t *tally) check(points int, ok bool, issue string) {
	t.cat.Max += points
	if ok {
		t.cat.Points += points
		return
	}
	t.cat.Issues = append(t.cat.Issues, issue)
}

func (t *tally) pass(points int) { t.check(points, true, "") }

func (t *tally) fail(points int, issue string) { t.check(points, false, issue) }

// partial awards got of points and records issue.
func (t *tally) partial(got, points int, issue string) {
	t.cat.Max += points
	t.cat.Points += got
	t.cat.Issues = append(t.cat.Issues, issue)
}

func (t *tally) done() Category {
	t.cat.Percent = percent(t.cat.Points, t.cat.Max)
	return t.cat
}

func structure(text string, entry report.FileStat, refs []report.FileStat) Category {
	t := newTally(CategoryStructure)

	fm, err := scan.ParseFrontmatter(text)
	switch {
	case err != nil:
		t.fail(5, fmt.Sprintf("frontmatter is invalid: %v", err))
	case fm.Format == "":
		t.fail(5, "frontmatter is missing")
	case strings.TrimSpace(fm.Name) == "" || strings.TrimSpace(fm.Description) == "":
		t.fail(5, "frontmatter needs both name and description")
	default:
		t.pass(5)
	}

	var docs int
	for _, f := range refs {
		if f.Kind == refgraph.KindDocument.String() {
			docs++
		}
	}
	t.check(5, len(refs) == 0 || docs > 0,
		fmt.Sprintf("%s/ holds no documents", ReferencesDir))
	t.check(5, entry.Lines < IdealEntryLines || docs > 0,
		fmt.Sprintf("entry has %d lines and no %s/ documents to move detail into", entry.Lines, ReferencesDir))

	var badNames []string
	for _, f := range refs {
		base := path.Base(f.Path)
		if !referenceStem.MatchString(strings.TrimSuffix(base, path.Ext(base))) {
			badNames = append(badNames, f.Path)
		}
	}
	t.check(5, len(badNames) == 0,
		fmt.Sprintf("reference file names should use letters, digits, '-' and '_': %s", strings.Join(badNames, ", ")))
	return t.done()
}

func efficiency(text string, entry report.FileStat) Category {
	t := newTally(CategoryEfficiency)

	switch {
	case entry.Lines < IdealEntryLines:
		t.pass(10)
	case entry.Lines < MaxEntryLines:
		t.partial(5, 10, fmt.Sprintf("entry is longer than ideal (%d lines)", entry.Lines))
	default:
		t.fail(10, fmt.Sprintf("entry is too long (%d lines)", entry.Lines))
	}

	t.check(5, entry.Tokens < MaxEntryTokens,
		fmt.Sprintf("entry costs ~%d tokens", entry.Tokens))

	if reason := bloat(text); reason != "" {
		t.fail(5, reason)
	} else {
		t.pass(5)
	}
	return t.done()
}

func integrity(s report.Summary) Category {
	t := newTally(CategoryIntegrity)

	broken := s.ByKind[finding.KindBrokenReference]
	t.check(10, broken == 0, fmt.Sprintf("%d broken reference(s)", broken))

	orphans := s.ByKind[finding.KindOrphanFile]
	t.check(5, orphans == 0, fmt.Sprintf("%d orphaned file(s)", orphans))

	over := s.ByKind[finding.KindBudgetExceeded]
	t.check(5, over == 0, fmt.Sprintf("%d file(s) over their line budget", over))
	return t.done()
}

// bloat describes why text looks padded, or returns "".
func bloat(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	section, sectionLen, inFence := "", 0, false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(line, "## ") {
			section, sectionLen = strings.TrimSpace(line[3:]), 0
		}
		sectionLen++
		if sectionLen > MaxSectionLines {
			if section == "" {
				return fmt.Sprintf("opening section runs over %d lines", MaxSectionLines)
			}
			return fmt.Sprintf("section %q runs over %d lines", section, MaxSectionLines)
		}
	}

	seen := make(map[string]bool)
	nonBlank := 0
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			nonBlank++
			seen[trimmed] = true
		}
	}
	if nonBlank > repetitionMinLines && float64(len(seen))/float64(nonBlank) < minUniqueRatio {
		return fmt.Sprintf("only %d of %d lines are distinct", len(seen), nonBlank)
	}
	return ""
}

// referenceDocs returns the files directly under ReferencesDir.
func referenceDocs(r *report.Report) []report.FileStat {
	var out []report.FileStat
	for _, f := range r.Files {
		if path.Dir(f.Path) == ReferencesDir {
			out = append(out, f)
		}
	}
	return out
}

// percent is rounded to one decimal so rendered scores are stable.
func percent(points, maxPoints int) float64 {
	if maxPoints == 0 {
		return 0
	}
	return math.Round(float64(points)/float64(maxPoints)*1000) / 10
}
