// SPDX-License-Identifier: MPL-2.0

package skillpack

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/skillkit/skillkit/internal/testutil"
	"github.com/skillkit/skillkit/pkg/engine"
)

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPack(t *testing.T) {
	t.Parallel()
	parent := t.TempDir()
	root := testutil.WriteTree(t, filepath.Join(parent, "my-skill"), map[string]string{
		"SKILL.md":          "# Skill\n\n[guide](docs/guide.md) and `scripts/run.sh`\n",
		"docs/guide.md":     "# Guide\n",
		"scripts/run.sh":    "echo run\n",
		".git/HEAD":         "ref\n",
		"__pycache__/x.pyc": "junk",
	})
	out := filepath.Join(parent, "dist")

	res, err := Pack(context.Background(), Options{Engine: engine.Options{Root: root}, OutputDir: out})
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if res.Path != filepath.Join(out, "my-skill.skill") || res.Source != SourceExplicit {
		t.Errorf("result = %+v", res)
	}
	want := []string{"SKILL.md", "docs/guide.md", "scripts/run.sh"}
	if got := zipNames(t, res.Path); !slices.Equal(got, want) {
		t.Errorf("archive entries = %v, want %v", got, want)
	}
}

func TestPack_BlockedByBrokenReference(t *testing.T) {
	t.Parallel()
	parent := t.TempDir()
	root := testutil.WriteTree(t, filepath.Join(parent, "my-skill"), map[string]string{
		"SKILL.md": "[missing](docs/missing.md)\n",
	})
	out := filepath.Join(parent, "dist")

	res, err := Pack(context.Background(), Options{Engine: engine.Options{Root: root}, OutputDir: out})
	if !errors.Is(err, ErrPackagingBlocked) {
		t.Fatalf("Pack() error = %v, want ErrPackagingBlocked", err)
	}
	var blocked *BlockedError
	if !errors.As(err, &blocked) || len(blocked.Report.Critical()) != 1 {
		t.Errorf("blocked error = %#v", err)
	}
	if res == nil || res.Report == nil {
		t.Fatal("blocked result must carry the report")
	}
	if _, statErr := os.Stat(filepath.Join(out, "my-skill.skill")); !os.IsNotExist(statErr) {
		t.Error("no archive may be written when blocked")
	}

	forced, err := Pack(context.Background(), Options{Engine: engine.Options{Root: root}, OutputDir: out, Force: true})
	if err != nil {
		t.Fatalf("forced Pack() error = %v", err)
	}
	if !forced.Forced || forced.Files != 1 {
		t.Errorf("forced result = %+v", forced)
	}
}

func TestPack_StrictBlocksWarnings(t *testing.T) {
	t.Parallel()
	parent := t.TempDir()
	root := testutil.WriteTree(t, filepath.Join(parent, "my-skill"), map[string]string{
		"SKILL.md": "# Skill\n",
		"extra.md": "# Orphan\n",
	})
	out := filepath.Join(parent, "dist")

	if _, err := Pack(context.Background(), Options{Engine: engine.Options{Root: root}, OutputDir: out}); err != nil {
		t.Fatalf("lenient Pack() error = %v", err)
	}
	_, err := Pack(context.Background(), Options{Engine: engine.Options{Root: root, Strict: true}, OutputDir: out})
	if !errors.Is(err, ErrPackagingBlocked) {
		t.Fatalf("strict Pack() error = %v", err)
	}
}

func TestWrite_Deterministic(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, filepath.Join(t.TempDir(), "my-skill"), map[string]string{
		"SKILL.md": "# Skill\n",
		"a/b.md":   "b\n",
	})
	paths := []string{"SKILL.md", "a/b.md"}

	var first, second bytes.Buffer
	if err := Write(&first, root, paths); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(filepath.Join(root, "a", "b.md"), archiveTime.AddDate(30, 0, 0), archiveTime.AddDate(30, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := Write(&second, root, paths); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("archives of an unchanged tree differ")
	}
}

func TestWrite_MissingFile(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := Write(&buf, t.TempDir(), []string{"nope.md"}); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestOutputDir(t *testing.T) {
	t.Parallel()

	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "go.mod"), []byte("module x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	plain := t.TempDir()
	work := t.TempDir()

	tests := []struct {
		name     string
		root     string
		explicit string
		wantDir  string
		want     Source
	}{
		{"explicit wins", filepath.Join(project, "skill"), filepath.Join(work, "out"), filepath.Join(work, "out"), SourceExplicit},
		{"project parent", filepath.Join(project, "skill"), "", project, SourceProject},
		{"working directory", filepath.Join(plain, "skill"), "", work, SourceWorkDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir, src := OutputDir(tt.root, tt.explicit, work)
			if dir != tt.wantDir || src != tt.want {
				t.Errorf("OutputDir() = %q, %q; want %q, %q", dir, src, tt.wantDir, tt.want)
			}
		})
	}
}
