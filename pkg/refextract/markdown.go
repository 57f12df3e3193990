// SPDX-License-Identifier: MPL-2.0

package refextract

import (
	"regexp"
	"strings"

	"github.com/skillkit/skillkit/pkg/refgraph"
)

var (
	// linkPattern matches [label](target "title") and ![alt](target). The
	// label may hold one level of brackets, as in [![badge](img.png)](a.md).
	linkPattern = regexp.MustCompile(`!?\[((?:[^\[\]]|\[[^\]]*\])*)\]\(\s*(<[^>]*>|[^)\s]+)(?:\s+(?:"[^"]*"|'[^']*'))?\s*\)`)

	// linkDefPattern matches reference-style definitions: [id]: target.
	linkDefPattern = regexp.MustCompile(`^ {0,3}\[[^\]]+\]:\s*(<[^>]*>|\S+)`)

	inlineCodePattern = regexp.MustCompile("`([^`]+)`")
)

type (
	// MarkdownLinks extracts structured links outside fenced code.
	MarkdownLinks struct{}

	// InlineCodePaths extracts path-shaped tokens from single-backtick code
	// spans outside fenced code.
	InlineCodePaths struct{}
)

// Name implements Extractor.
func (MarkdownLinks) Name() string { return "markdown-link" }

// Extract implements Extractor.
func (MarkdownLinks) Extract(doc *Document) []Candidate {
	if doc.CodeOnly {
		return nil
	}

	var out []Candidate
	for i, line := range doc.Lines {
		if doc.InFence(i) || isFenceLine(doc, i) {
			continue
		}
		masked := maskInlineCode(line)

		for _, m := range linkPattern.FindAllStringSubmatchIndex(masked, -1) {
			// An image inside the label is a reference of its own.
			label := masked[m[2]:m[3]]
			for _, n := range linkPattern.FindAllStringSubmatchIndex(label, -1) {
				if c, ok := linkCandidate(label[n[4]:n[5]], i+1, m[2]+n[4]+1); ok {
					out = append(out, c)
				}
			}
			if c, ok := linkCandidate(masked[m[4]:m[5]], i+1, m[4]+1); ok {
				out = append(out, c)
			}
		}
		if m := linkDefPattern.FindStringSubmatchIndex(masked); m != nil {
			if c, ok := linkCandidate(masked[m[2]:m[3]], i+1, m[2]+1); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

func linkCandidate(target string, line, col int) (Candidate, bool) {
	raw := cleanLinkTarget(target)
	if raw == "" {
		return Candidate{}, false
	}
	return Candidate{
		Raw:      raw,
		Line:     line,
		Column:   col,
		Kind:     refgraph.RefStructuredLink,
		External: IsExternal(raw),
	}, true
}

// Name implements Extractor.
func (InlineCodePaths) Name() string { return "inline-code-path" }

// Extract implements Extractor.
func (InlineCodePaths) Extract(doc *Document) []Candidate {
	if doc.CodeOnly {
		return nil
	}

	var out []Candidate
	for i, line := range doc.Lines {
		if doc.InFence(i) || isFenceLine(doc, i) {
			continue
		}
		for _, m := range inlineCodePattern.FindAllStringSubmatchIndex(line, -1) {
			span := line[m[2]:m[3]]
			offset := m[2]
			for _, field := range fieldsIndex(span) {
				tok := trimTrailing(field.text)
				if strings.HasPrefix(tok, "./") {
					tok = tok[2:]
				}
				if !pathShaped(tok, false) || strings.HasPrefix(tok, "/") {
					continue
				}
				out = append(out, Candidate{
					Raw:    tok,
					Line:   i + 1,
					Column: offset + field.start + 1,
					Kind:   refgraph.RefBarePathToken,
				})
			}
		}
	}
	return out
}

// isFenceLine reports whether idx is an opening or closing fence marker.
func isFenceLine(doc *Document, idx int) bool {
	for _, f := range doc.Fences {
		if f.Start == idx || f.End == idx {
			return true
		}
	}
	return false
}

// maskInlineCode blanks code spans so links inside them are ignored while
// byte offsets stay intact.
func maskInlineCode(line string) string {
	if !strings.Contains(line, "`") {
		return line
	}
	return inlineCodePattern.ReplaceAllStringFunc(line, func(s string) string {
		return strings.Repeat(" ", len(s))
	})
}

type field struct {
	text  string
	start int
}

// fieldsIndex splits s on whitespace, keeping byte offsets.
func fieldsIndex(s string) []field {
	var out []field
	start := -1
	for i, r := range s {
		space := r == ' ' || r == '\t'
		switch {
		case !space && start < 0:
			start = i
		case space && start >= 0:
			out = append(out, field{text: s[start:i], start: start})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, field{text: s[start:], start: start})
	}
	return out
}
