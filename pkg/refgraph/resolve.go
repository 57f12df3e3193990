// SPDX-License-Identifier: MPL-2.0

package refgraph

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/skillkit/skillkit/pkg/finding"
)

type (
	// Resolution summarizes a Resolve pass.
	Resolution struct {
		Resolved     int
		CaseMismatch int
		Broken       int
		External     int
		Directory    int
		Issues       []finding.Issue
	}

	// candidates are the normalized lookup paths for one raw reference.
	candidates struct {
		relative string
		root     string
	}
)

// Resolve resolves every unresolved edge against the node set, in edge order.
// The rules are tried in order and the first match wins:
//
//  1. the target relative to the referencing file's directory
//  2. the target relative to the package root
//  3. a case-insensitive match of either, which also yields a
//     ReferenceCaseMismatch info issue
//
// Edges that match none become BrokenReference critical issues. External
// edges are left untouched. Resolve never reads file content.
func Resolve(g *Graph) Resolution {
	var res Resolution
	folded := g.foldedIndex()

	for _, e := range g.edges {
		switch e.State {
		case StateExternal:
			res.External++
			continue
		case StateUnresolved:
		default:
			continue
		}

		c := normalize(e.Source, e.Raw)
		tried := c.list()

		if target, state, ok := g.lookupExact(c); ok {
			e.State = state
			e.Target = target
			if state == StateDirectory {
				res.Directory++
			} else {
				res.Resolved++
			}
			continue
		}

		if target, ok := lookupFolded(folded, c); ok {
			e.State = StateResolved
			e.Target = target
			res.Resolved++
			res.CaseMismatch++
			res.Issues = append(res.Issues, finding.Issue{
				Kind:     finding.KindReferenceCaseMismatch,
				Severity: finding.KindReferenceCaseMismatch.DefaultSeverity(),
				Path:     e.Source,
				Line:     e.Line,
				Message:  fmt.Sprintf("reference %q matches %q only when ignoring case", e.Raw, target),
				Fields:   finding.Fields{Target: e.Raw, ResolvedTo: target},
			})
			continue
		}

		res.Broken++
		msg := fmt.Sprintf("broken reference %q", e.Raw)
		if len(tried) == 0 {
			msg += " (points outside the package root)"
		}
		res.Issues = append(res.Issues, finding.Issue{
			Kind:     finding.KindBrokenReference,
			Severity: finding.KindBrokenReference.DefaultSeverity(),
			Path:     e.Source,
			Line:     e.Line,
			Message:  msg,
			Fields:   finding.Fields{Target: e.Raw, Tried: tried},
		})
	}

	return res
}

// lookupExact applies rules 1 and 2. Directories resolve to StateDirectory.
func (g *Graph) lookupExact(c candidates) (string, State, bool) {
	for _, p := range c.list() {
		if _, ok := g.nodes[p]; ok {
			return p, StateResolved, true
		}
		if g.HasDir(p) {
			return p, StateDirectory, true
		}
	}
	return "", StateUnresolved, false
}

// foldedIndex maps lower-cased node paths to the ascending list of real paths.
func (g *Graph) foldedIndex() map[string][]string {
	idx := make(map[string][]string, len(g.nodes))
	for _, p := range g.Paths() {
		key := strings.ToLower(p)
		idx[key] = append(idx[key], p)
	}
	return idx
}

// lookupFolded applies rule 3; among colliding paths the lowest wins.
func lookupFolded(idx map[string][]string, c candidates) (string, bool) {
	for _, p := range c.list() {
		if matches := idx[strings.ToLower(p)]; len(matches) > 0 {
			return matches[0], true
		}
	}
	return "", false
}

// list returns the candidates in rule order, skipping empty and duplicate
// entries.
func (c candidates) list() []string {
	var out []string
	for _, p := range []string{c.relative, c.root} {
		if p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// normalize turns a raw reference into slash-separated, cleaned candidates.
// A leading slash anchors the reference at the package root.
func normalize(source, raw string) candidates {
	target := strings.ReplaceAll(strings.TrimSpace(raw), `\`, "/")
	var c candidates

	if strings.HasPrefix(target, "/") {
		c.root = clean(strings.TrimLeft(target, "/"))
		return c
	}

	c.relative = clean(path.Join(path.Dir(source), target))
	c.root = clean(target)
	return c
}

// clean returns the cleaned path, or "" when it leaves the package root.
func clean(p string) string {
	p = path.Clean(p)
	if p == ".." || strings.HasPrefix(p, "../") {
		return ""
	}
	return p
}
