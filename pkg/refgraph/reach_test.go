// SPDX-License-Identifier: MPL-2.0

package refgraph

import (
	"errors"
	"slices"
	"testing"

	"github.com/skillkit/skillkit/pkg/finding"
)

func TestReach_LevelOrder(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, "SKILL.md", "b.md", "a.md", "c.md", "a/deep.md")
	addRef(t, g, "SKILL.md", "b.md", 1)
	addRef(t, g, "SKILL.md", "a.md", 2)
	addRef(t, g, "b.md", "a/deep.md", 1)
	addRef(t, g, "a.md", "c.md", 1)
	Resolve(g)

	got := Reach(g, []string{"SKILL.md"})
	want := []string{"SKILL.md", "a.md", "b.md", "a/deep.md", "c.md"}
	if !slices.Equal(got, want) {
		t.Errorf("Reach() = %v, want %v", got, want)
	}
}

func TestReach_Cycle(t *testing.T) {
	t.Parallel()
	g := newTestGraph(t, "SKILL.md", "a.md")
	addRef(t, g, "SKILL.md", "a.md", 1)
	addRef(t, g, "a.md", "SKILL.md", 1)
	Resolve(g)

	if got := Reach(g, []string{"SKILL.md"}); !slices.Equal(got, []string{"SKILL.md", "a.md"}) {
		t.Errorf("Reach() = %v", got)
	}
}

func TestReach_ThroughAssets(t *testing.T) {
	t.Parallel()
	g := New()
	for _, n := range []Node{
		{Path: "SKILL.md", Kind: KindManifest},
		{Path: "assets/index.json", Kind: KindAsset},
		{Path: "assets/data.csv", Kind: KindAsset},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	addRef(t, g, "SKILL.md", "assets/index.json", 1)
	addRef(t, g, "assets/index.json", "data.csv", 1)
	Resolve(g)

	got := Reach(g, []string{"SKILL.md"})
	if !slices.Contains(got, "assets/data.csv") {
		t.Errorf("asset chain not followed: %v", got)
	}
}

func TestOrphans(t *testing.T) {
	t.Parallel()
	g := New()
	for _, n := range []Node{
		{Path: "SKILL.md", Kind: KindManifest},
		{Path: "extra.md", Kind: KindDocument},
		{Path: "scripts/tool.py", Kind: KindCode},
		{Path: "templates/base.md", Kind: KindDocument},
		{Path: "logo.png", Kind: KindAsset},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}

	allow, err := NewAllowlist([]string{"templates/**"})
	if err != nil {
		t.Fatal(err)
	}
	entries := []string{"SKILL.md"}
	issues := Orphans(g, entries, Reach(g, entries), allow)

	var paths []string
	for _, is := range issues {
		if is.Kind != finding.KindOrphanFile || is.Severity != finding.SeverityWarning {
			t.Errorf("issue = %+v", is)
		}
		paths = append(paths, is.Path)
	}
	want := []string{"extra.md", "scripts/tool.py"}
	if !slices.Equal(paths, want) {
		t.Errorf("orphans = %v, want %v", paths, want)
	}
}

func TestNewAllowlist_InvalidPattern(t *testing.T) {
	t.Parallel()
	_, err := NewAllowlist([]string{"templates/[abc"})
	if !errors.Is(err, finding.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAllowlist_ExactPath(t *testing.T) {
	t.Parallel()
	al, err := NewAllowlist([]string{"./notes/todo.md", ""})
	if err != nil {
		t.Fatal(err)
	}
	if !al.Match("notes/todo.md") || al.Match("notes/other.md") {
		t.Error("exact path matching failed")
	}
}
