// SPDX-License-Identifier: MPL-2.0

// Package refextract finds candidate file references in package text.
//
// Extraction is split into pluggable strategies behind the Extractor
// interface. A Set runs its strategies over one Document, merges their
// candidates in document order, and keeps only the first occurrence of each
// raw target. New reference syntaxes are added by implementing Extractor;
// resolution, reachability and budgeting never change.
package refextract

import (
	"cmp"
	"slices"
	"strings"

	"github.com/skillkit/skillkit/pkg/refgraph"
)

type (
	// Extractor is one reference-extraction strategy.
	Extractor interface {
		// Name identifies the strategy in logs.
		Name() string
		// Extract returns candidates in any order; the Set sorts them.
		Extract(doc *Document) []Candidate
	}

	// Candidate is one raw reference before resolution.
	Candidate struct {
		Raw    string
		Line   int
		Column int
		Kind   refgraph.RefKind
		// External is set for scheme-addressed targets.
		External bool
	}

	// Set is an ordered list of strategies. Earlier strategies win ties at
	// the same position.
	Set []Extractor

	// Document is a file's text split into lines with its fenced code
	// regions located.
	Document struct {
		Path  string
		Lines []string
		// CodeOnly treats the whole file as one code region. Code files and
		// text assets are extracted this way.
		CodeOnly bool
		Fences   []Fence
		inFence  []bool
	}

	// Fence is one fenced code block. Start and End are 0-based line
	// indexes of the opening and closing markers; Lang is the lower-cased
	// first word of the info string.
	Fence struct {
		Start int
		End   int
		Lang  string
	}

	ranked struct {
		Candidate
		order int
	}
)

// Default returns the built-in strategies in priority order.
func Default() Set {
	return Set{MarkdownLinks{}, InlineCodePaths{}, CodePaths{}}
}

// Extract runs every strategy over doc. The result is sorted by line, column
// and strategy order, with duplicate raw targets dropped after the first.
func (s Set) Extract(doc *Document) []Candidate {
	var all []ranked
	for i, ex := range s {
		for _, c := range ex.Extract(doc) {
			all = append(all, ranked{Candidate: c, order: i})
		}
	}

	slices.SortStableFunc(all, func(a, b ranked) int {
		return cmp.Or(
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
			cmp.Compare(a.order, b.order),
		)
	})

	seen := make(map[string]bool, len(all))
	out := make([]Candidate, 0, len(all))
	for _, r := range all {
		if seen[r.Raw] {
			continue
		}
		seen[r.Raw] = true
		out = append(out, r.Candidate)
	}
	return out
}

// Names lists the strategy names.
func (s Set) Names() []string {
	names := make([]string, len(s))
	for i, ex := range s {
		names[i] = ex.Name()
	}
	return names
}

// NewDocument splits text into lines and locates fenced code blocks. A
// fence left open runs to the end of the file.
func NewDocument(path, text string, codeOnly bool) *Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if text == "" {
		lines = nil
	}

	doc := &Document{Path: path, Lines: lines, CodeOnly: codeOnly, inFence: make([]bool, len(lines))}
	if codeOnly {
		for i := range doc.inFence {
			doc.inFence[i] = true
		}
		return doc
	}

	var open *Fence
	var marker string
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)
		if open == nil {
			if m := fenceMarker(trimmed); m != "" && indent <= 3 {
				info := strings.TrimSpace(trimmed[len(m):])
				lang, _, _ := strings.Cut(info, " ")
				open = &Fence{Start: i, End: len(lines), Lang: strings.ToLower(lang)}
				marker = m
			}
			continue
		}
		doc.inFence[i] = true
		if strings.HasPrefix(trimmed, marker) && strings.Trim(strings.TrimSpace(trimmed), marker[:1]) == "" {
			doc.inFence[i] = false
			open.End = i
			doc.Fences = append(doc.Fences, *open)
			open = nil
		}
	}
	if open != nil {
		doc.Fences = append(doc.Fences, *open)
	}
	return doc
}

// InFence reports whether the 0-based line idx is fenced code content.
func (d *Document) InFence(idx int) bool {
	return idx >= 0 && idx < len(d.inFence) && d.inFence[idx]
}

// fenceMarker returns the run of backticks or tildes opening a fence.
func fenceMarker(s string) string {
	for _, ch := range []byte{'`', '~'} {
		n := 0
		for n < len(s) && s[n] == ch {
			n++
		}
		if n >= 3 {
			if ch == '`' && strings.ContainsRune(s[n:], '`') {
				return ""
			}
			return s[:n]
		}
	}
	return ""
}
