// SPDX-License-Identifier: MPL-2.0

package refgraph

import (
	"errors"
	"slices"
	"testing"
)

// newTestGraph builds a graph from paths; kinds default to document.
func newTestGraph(t *testing.T, paths ...string) *Graph {
	t.Helper()
	g := New()
	for _, p := range paths {
		if err := g.AddNode(Node{Path: p, Kind: KindDocument, Readable: true, Text: true}); err != nil {
			t.Fatalf("AddNode(%q): %v", p, err)
		}
	}
	return g
}

func addRef(t *testing.T, g *Graph, source, raw string, line int) {
	t.Helper()
	if err := g.AddEdge(Edge{Source: source, Raw: raw, Line: line, RefKind: RefStructuredLink}); err != nil {
		t.Fatalf("AddEdge(%q -> %q): %v", source, raw, err)
	}
}

func TestGraph_AddNodeRejectsDuplicates(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, "a.md")
	err := g.AddNode(Node{Path: "a.md"})
	if !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("expected ErrDuplicateNode, got %v", err)
	}
}

func TestGraph_AddNodeDefaultsTier(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, "a.md")
	n, _ := g.Node("a.md")
	if n.Tier != TierNone {
		t.Errorf("Tier = %q, want %q", n.Tier, TierNone)
	}
}

func TestGraph_AddEdgeRequiresKnownEndpoints(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, "a.md")

	if err := g.AddEdge(Edge{Source: "missing.md", Raw: "a.md"}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown source: got %v", err)
	}
	if err := g.AddEdge(Edge{Source: "a.md", Raw: "b.md", State: StateResolved, Target: "b.md"}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("unknown resolved target: got %v", err)
	}
	if err := g.AddEdge(Edge{Source: "a.md", Raw: "https://example.com", State: StateExternal}); err != nil {
		t.Errorf("external edge: %v", err)
	}
	if got := g.Edges()[0].State; got != StateExternal {
		t.Errorf("State = %q", got)
	}
}

func TestGraph_PathsSorted(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, "z.md", "a.md", "m/b.md")
	want := []string{"a.md", "m/b.md", "z.md"}
	if got := g.Paths(); !slices.Equal(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
	if err := g.AddNode(Node{Path: "b.md"}); err != nil {
		t.Fatal(err)
	}
	if got := g.Paths(); len(got) != 4 || got[1] != "b.md" {
		t.Errorf("Paths() after insert = %v", got)
	}
}

func TestParseTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"P0", TierP0, false},
		{"p1", TierP1, false},
		{" P2 ", TierP2, false},
		{"", TierNone, false},
		{"untiered", TierNone, false},
		{"P3", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTier(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := map[string]Kind{
		"SKILL.md":            KindDocument,
		"docs/Guide.MARKDOWN": KindDocument,
		"scripts/run.sh":      KindCode,
		"lib/x.py":            KindCode,
		"assets/logo.png":     KindAsset,
		"config.json":         KindAsset,
		"LICENSE":             KindAsset,
	}
	for p, want := range tests {
		if got := KindOf(p); got != want {
			t.Errorf("KindOf(%q) = %q, want %q", p, got, want)
		}
	}
}

func TestExpectText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path        string
		text, known bool
	}{
		{"a.md", true, true},
		{"a.py", true, true},
		{"a.json", true, true},
		{"a.png", false, true},
		{"a.unknownext", false, true},
		{"Makefile", false, false},
	}
	for _, tt := range tests {
		text, known := ExpectText(tt.path)
		if text != tt.text || known != tt.known {
			t.Errorf("ExpectText(%q) = %v, %v", tt.path, text, known)
		}
	}
}
