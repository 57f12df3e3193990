// SPDX-License-Identifier: MPL-2.0

package refextract

import (
	"regexp"
	"strings"

	"github.com/skillkit/skillkit/pkg/refgraph"

	"mvdan.cc/sh/v3/syntax"
)

var (
	urlPattern    = regexp.MustCompile(`[A-Za-z][A-Za-z0-9+.\-]*://[^\s"'<>()\[\]{}` + "`" + `]+`)
	quotedPattern = regexp.MustCompile(`"([^"\n]*)"|'([^'\n]*)'`)
	barePattern   = regexp.MustCompile(`(?:^|[^\w/:.~$@\-])((?:\.{1,2}/)*[\w.\-]+(?:/[\w.\-]+)+)`)
)

// CodePaths extracts path literals from fenced code blocks, or from the
// whole file for code-only documents. Shell code is tokenized with a real
// shell parser; other languages use quoted-string and bare-path patterns.
type CodePaths struct{}

// Name implements Extractor.
func (CodePaths) Name() string { return "fenced-code-path" }

// Extract implements Extractor.
func (CodePaths) Extract(doc *Document) []Candidate {
	if doc.CodeOnly {
		return codeRegion(doc.Lines, 0, refgraph.Ext(doc.Path))
	}

	var out []Candidate
	for _, f := range doc.Fences {
		end := min(f.End, len(doc.Lines))
		if f.Start+1 >= end {
			continue
		}
		out = append(out, codeRegion(doc.Lines[f.Start+1:end], f.Start+1, f.Lang)...)
	}
	return out
}

// codeRegion extracts from lines whose first element is at 0-based index
// first in the document.
func codeRegion(lines []string, first int, lang string) []Candidate {
	if refgraph.IsShell(lang) {
		if out, err := shellCandidates(strings.Join(lines, "\n"), first); err == nil {
			return out
		}
	}

	var out []Candidate
	for i, line := range lines {
		out = append(out, scanCodeLine(line, first+i+1, 0)...)
	}
	return out
}

// scanCodeLine runs the pattern pass over one line. colOffset shifts
// reported columns when line is a fragment.
func scanCodeLine(line string, lineNo, colOffset int) []Candidate {
	var out []Candidate

	masked := line
	for _, m := range urlPattern.FindAllStringIndex(line, -1) {
		out = append(out, Candidate{
			Raw:      trimTrailing(line[m[0]:m[1]]),
			Line:     lineNo,
			Column:   colOffset + m[0] + 1,
			Kind:     refgraph.RefCodePathMention,
			External: true,
		})
		masked = masked[:m[0]] + strings.Repeat(" ", m[1]-m[0]) + masked[m[1]:]
	}

	for _, m := range quotedPattern.FindAllStringSubmatchIndex(masked, -1) {
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		if tok, ok := codePath(masked[start:end], true); ok {
			out = append(out, codeCandidate(tok, lineNo, colOffset+start+1))
		}
	}

	for _, m := range barePattern.FindAllStringSubmatchIndex(masked, -1) {
		if tok, ok := codePath(masked[m[2]:m[3]], false); ok {
			out = append(out, codeCandidate(tok, lineNo, colOffset+m[2]+1))
		}
	}
	return out
}

func codeCandidate(tok string, line, col int) Candidate {
	return Candidate{
		Raw:      tok,
		Line:     line,
		Column:   col,
		Kind:     refgraph.RefCodePathMention,
		External: IsExternal(tok),
	}
}

// shellCandidates parses src as a shell program and checks every literal
// word. Comments are scanned with the pattern pass.
func shellCandidates(src string, first int) ([]Candidate, error) {
	file, err := syntax.NewParser(syntax.KeepComments(true)).Parse(strings.NewReader(src), "")
	if err != nil {
		return nil, err
	}

	var out []Candidate
	syntax.Walk(file, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.Comment:
			line := first + int(n.Pos().Line())
			out = append(out, scanCodeLine(n.Text, line, int(n.Pos().Col()))...)
		case *syntax.Word:
			val, quoted, ok := wordValue(n)
			if !ok {
				return true
			}
			if !quoted {
				if i := strings.LastIndexByte(val, '='); i >= 0 {
					val = val[i+1:]
				}
			}
			if tok, ok := codePath(val, quoted); ok {
				out = append(out, codeCandidate(tok, first+int(n.Pos().Line()), int(n.Pos().Col())))
			}
		}
		return true
	})
	return out, nil
}

// wordValue returns the static value of a shell word. Words with
// expansions have no static value.
func wordValue(w *syntax.Word) (val string, quoted, ok bool) {
	if lit := w.Lit(); lit != "" {
		return lit, false, true
	}
	if len(w.Parts) != 1 {
		return "", false, false
	}
	switch p := w.Parts[0].(type) {
	case *syntax.SglQuoted:
		return p.Value, true, true
	case *syntax.DblQuoted:
		var sb strings.Builder
		for _, part := range p.Parts {
			lit, isLit := part.(*syntax.Lit)
			if !isLit {
				return "", false, false
			}
			sb.WriteString(lit.Value)
		}
		return sb.String(), true, true
	}
	return "", false, false
}
