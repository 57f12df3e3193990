// SPDX-License-Identifier: MPL-2.0

// Package refgraph models a content package as a directed reference graph:
// one Node per scanned file and one Edge per extracted reference. It resolves
// raw references against the node set and computes reachability from the
// package's entry nodes.
//
// A Graph is assembled once per run and is not safe for concurrent mutation.
// Node iteration is always in ascending path order so every derived result is
// reproducible.
package refgraph

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Node kinds.
const (
	KindDocument Kind = "document"
	KindCode     Kind = "code"
	KindAsset    Kind = "asset"
	KindManifest Kind = "manifest"
)

// Priority tiers.
const (
	TierP0   Tier = "P0"
	TierP1   Tier = "P1"
	TierP2   Tier = "P2"
	TierNone Tier = "untiered"
)

// Reference kinds.
const (
	RefStructuredLink  RefKind = "structured-link"
	RefBarePathToken   RefKind = "bare-path-token"
	RefCodePathMention RefKind = "code-path-mention"
)

// Edge resolution states.
const (
	StateUnresolved State = "unresolved"
	StateResolved   State = "resolved"
	StateExternal   State = "external"
	// StateDirectory marks a reference to a scanned directory. It is not
	// broken and contributes no reachability.
	StateDirectory State = "directory"
)

var (
	// ErrDuplicateNode is returned when a path is added twice.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrUnknownNode is returned when an edge endpoint is not a node.
	ErrUnknownNode = errors.New("unknown node")
)

type (
	// Kind classifies a node.
	Kind string

	// Tier is a node's declared priority tier.
	Tier string

	// RefKind records which extraction strategy produced an edge.
	RefKind string

	// State is an edge's resolution state.
	State string

	// Node is one file in the package.
	Node struct {
		// Path is the slash-separated path relative to the package root.
		Path   string `json:"path"`
		Kind   Kind   `json:"kind"`
		Tier   Tier   `json:"tier"`
		Lines  int    `json:"lines"`
		Tokens int    `json:"tokens"`
		Size   int64  `json:"size"`
		// Readable is false for expected-text files that could not be decoded.
		Readable bool `json:"readable"`
		// Text reports whether content was loaded for extraction.
		Text   bool   `json:"text"`
		Digest string `json:"digest,omitempty"`
	}

	// Edge is one extracted reference.
	Edge struct {
		Source  string  `json:"source"`
		Raw     string  `json:"raw"`
		Line    int     `json:"line"`
		Column  int     `json:"-"`
		RefKind RefKind `json:"ref_kind"`
		State   State   `json:"state"`
		// Target is the resolved node path (or directory) when State is
		// resolved or directory.
		Target string `json:"target,omitempty"`
	}

	// Graph maps node paths to nodes and keeps edges in insertion order.
	Graph struct {
		nodes map[string]*Node
		// order caches the sorted node paths; nil after a mutation.
		order []string
		dirs  map[string]bool
		edges []*Edge
	}
)

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// Orphanable reports whether unreachable nodes of this kind are findings.
func (k Kind) Orphanable() bool {
	return k == KindDocument || k == KindCode
}

// String returns the string representation of the Tier.
func (t Tier) String() string { return string(t) }

// ParseTier parses a tier name case-insensitively. Empty input is untiered.
func ParseTier(s string) (Tier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P0":
		return TierP0, nil
	case "P1":
		return TierP1, nil
	case "P2":
		return TierP2, nil
	case "", "UNTIERED", "NONE":
		return TierNone, nil
	default:
		return "", fmt.Errorf("unknown tier %q (valid: P0, P1, P2)", s)
	}
}

// New creates an empty Graph. The package root directory "." is always known.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		dirs:  map[string]bool{".": true},
	}
}

// AddNode inserts a node. Paths are unique keys.
func (g *Graph) AddNode(n Node) error {
	if n.Path == "" {
		return fmt.Errorf("%w: empty path", ErrUnknownNode)
	}
	if _, exists := g.nodes[n.Path]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.Path)
	}
	if n.Tier == "" {
		n.Tier = TierNone
	}
	g.nodes[n.Path] = &n
	g.order = nil
	return nil
}

// AddDir records a scanned directory so references to it are not broken.
func (g *Graph) AddDir(dir string) {
	g.dirs[dir] = true
}

// HasDir reports whether dir was scanned.
func (g *Graph) HasDir(dir string) bool {
	return g.dirs[dir]
}

// AddEdge appends an edge. Its source, and its target when resolved, must be
// nodes of the graph.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.Source]; !ok {
		return fmt.Errorf("%w: edge source %s", ErrUnknownNode, e.Source)
	}
	if e.State == "" {
		e.State = StateUnresolved
	}
	if e.State == StateResolved {
		if _, ok := g.nodes[e.Target]; !ok {
			return fmt.Errorf("%w: edge target %s", ErrUnknownNode, e.Target)
		}
	}
	g.edges = append(g.edges, &e)
	return nil
}

// Node returns the node at path.
func (g *Graph) Node(path string) (*Node, bool) {
	n, ok := g.nodes[path]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Paths returns all node paths in ascending order.
func (g *Graph) Paths() []string {
	if g.order == nil {
		g.order = make([]string, 0, len(g.nodes))
		for p := range g.nodes {
			g.order = append(g.order, p)
		}
		slices.Sort(g.order)
	}
	return slices.Clone(g.order)
}

// Nodes returns all nodes in ascending path order.
func (g *Graph) Nodes() []*Node {
	paths := g.Paths()
	out := make([]*Node, len(paths))
	for i, p := range paths {
		out[i] = g.nodes[p]
	}
	return out
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// adjacency indexes resolved edges by source, each list sorted and unique.
func (g *Graph) adjacency() map[string][]string {
	adj := make(map[string][]string)
	for _, e := range g.edges {
		if e.State == StateResolved {
			adj[e.Source] = append(adj[e.Source], e.Target)
		}
	}
	for src, targets := range adj {
		slices.Sort(targets)
		adj[src] = slices.Compact(targets)
	}
	return adj
}
