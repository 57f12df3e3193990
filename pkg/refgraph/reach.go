// SPDX-License-Identifier: MPL-2.0

package refgraph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/skillkit/skillkit/pkg/finding"

	"github.com/bmatcuk/doublestar/v4"
)

// Allowlist exempts matching nodes from orphan reporting. Patterns are
// doublestar globs relative to the package root; a plain path matches itself.
type Allowlist struct {
	patterns []string
}

// NewAllowlist validates patterns and returns an Allowlist.
func NewAllowlist(patterns []string) (Allowlist, error) {
	var al Allowlist
	for _, p := range patterns {
		p = strings.TrimPrefix(strings.TrimSpace(p), "./")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return Allowlist{}, finding.Configf(finding.ReasonBadPattern, p, "invalid orphan allow-list pattern")
		}
		al.patterns = append(al.patterns, p)
	}
	return al, nil
}

// Match reports whether path is exempt.
func (a Allowlist) Match(path string) bool {
	for _, p := range a.patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// Reach walks resolved edges breadth-first from entries and returns the
// nodes in visit order. Each frontier level is sorted ascending before it is
// expanded, so the order depends only on the resolved graph.
func Reach(g *Graph, entries []string) []string {
	adj := g.adjacency()
	visited := make(map[string]bool, len(g.nodes))

	var level []string
	for _, e := range entries {
		if _, ok := g.nodes[e]; ok && !visited[e] {
			visited[e] = true
			level = append(level, e)
		}
	}

	var order []string
	for len(level) > 0 {
		slices.Sort(level)
		order = append(order, level...)

		var next []string
		for _, n := range level {
			for _, succ := range adj[n] {
				if !visited[succ] {
					visited[succ] = true
					next = append(next, succ)
				}
			}
		}
		level = next
	}
	return order
}

// Orphans reports every document or code node missing from reached, unless
// the allow-list exempts it. Issues are returned in ascending path order.
func Orphans(g *Graph, entries, reached []string, allow Allowlist) []finding.Issue {
	seen := make(map[string]bool, len(reached))
	for _, p := range reached {
		seen[p] = true
	}

	from := strings.Join(entries, ", ")
	var issues []finding.Issue
	for _, n := range g.Nodes() {
		if seen[n.Path] || !n.Kind.Orphanable() || allow.Match(n.Path) {
			continue
		}
		issues = append(issues, finding.Issue{
			Kind:     finding.KindOrphanFile,
			Severity: finding.KindOrphanFile.DefaultSeverity(),
			Path:     n.Path,
			Message:  fmt.Sprintf("%s file is not reachable from %s", n.Kind, from),
		})
	}
	return issues
}
