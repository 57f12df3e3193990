// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/skillkit/skillkit/internal/testutil"
	"github.com/skillkit/skillkit/pkg/budget"
	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/refgraph"
	"github.com/skillkit/skillkit/pkg/report"
)

func run(t *testing.T, opts Options) *report.Report {
	t.Helper()
	if opts.Now == nil {
		opts.Now = testutil.Now
	}
	r, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return r
}

func issuesOf(r *report.Report, kind finding.Kind) []finding.Issue {
	return r.Filter(func(is finding.Issue) bool { return is.Kind == kind })
}

func TestScenarioA_ResolvedLink(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"manifest.md":   "# Manifest\n\n[Guide](docs/guide.md)\n",
		"docs/guide.md": "# Guide\n",
	})

	r := run(t, Options{Root: root, Entries: []string{"manifest.md"}})
	if n := len(r.Critical()); n != 0 {
		t.Fatalf("critical issues = %d: %+v", n, r.Issues)
	}
	if !r.Pass {
		t.Error("Pass = false")
	}
	if r.Summary.Edges.Resolved != 1 {
		t.Errorf("edges = %+v", r.Summary.Edges)
	}
}

func TestScenarioB_BrokenLink(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"manifest.md": "# Manifest\n\n[Guide](docs/guide.md)\n",
	})

	r := run(t, Options{Root: root, Entries: []string{"manifest.md"}})
	broken := issuesOf(r, finding.KindBrokenReference)
	if len(broken) != 1 {
		t.Fatalf("BrokenReference issues = %+v", broken)
	}
	is := broken[0]
	if is.Severity != finding.SeverityCritical || is.Path != "manifest.md" || is.Line != 3 {
		t.Errorf("issue = %+v", is)
	}
	if is.Fields.Target != "docs/guide.md" || !strings.Contains(is.Message, "docs/guide.md") {
		t.Errorf("issue target = %+v", is)
	}
	if r.Pass {
		t.Error("Pass = true with a critical issue")
	}
}

func TestScenarioC_Orphan(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"manifest.md":   "[Guide](docs/guide.md)\n",
		"docs/guide.md": "# Guide\n",
		"extra.md":      "# Extra\n",
	})

	r := run(t, Options{Root: root, Entries: []string{"manifest.md"}})
	orphans := issuesOf(r, finding.KindOrphanFile)
	if len(orphans) != 1 || orphans[0].Path != "extra.md" || orphans[0].Severity != finding.SeverityWarning {
		t.Fatalf("orphans = %+v", orphans)
	}
	if !r.Pass {
		t.Error("warnings alone must not fail the gate")
	}
}

func TestScenarioD_BudgetExceeded(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"SKILL.md": "[big](big.md)\n",
		"big.md":   "---\ntier: P0\n---\n" + testutil.Lines(157),
	})

	r := run(t, Options{Root: root})
	exceeded := issuesOf(r, finding.KindBudgetExceeded)
	if len(exceeded) != 1 {
		t.Fatalf("BudgetExceeded = %+v", exceeded)
	}
	f := exceeded[0].Fields
	if f.Limit != 150 || f.Measured != 160 || f.Tier != "P0" {
		t.Errorf("fields = %+v", f)
	}
	if f.Utilization < 1.06 || f.Utilization > 1.07 {
		t.Errorf("utilization = %v", f.Utilization)
	}
	if len(issuesOf(r, finding.KindBudgetWarning)) != 0 {
		t.Error("exceeded file must not also warn")
	}
}

func TestScenarioE_BudgetWarning(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"SKILL.md":         "[ref](reference/api.md)\n",
		"reference/api.md": testutil.Lines(82),
	})

	r := run(t, Options{
		Root:      root,
		TierRules: []TierRule{{Pattern: "reference/**", Tier: refgraph.TierP1}},
	})
	warnings := issuesOf(r, finding.KindBudgetWarning)
	if len(warnings) != 1 {
		t.Fatalf("BudgetWarning = %+v", warnings)
	}
	if warnings[0].Fields.Utilization != 0.82 || warnings[0].Severity != finding.SeverityWarning {
		t.Errorf("warning = %+v", warnings[0])
	}
	if len(issuesOf(r, finding.KindBudgetExceeded)) != 0 {
		t.Error("unexpected BudgetExceeded")
	}
	stat, _ := r.File("reference/api.md")
	if stat.Utilization != 0.82 || stat.Limit != 100 {
		t.Errorf("file stat = %+v", stat)
	}
}

func TestRun_FrontmatterTierBeatsRules(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"SKILL.md": "---\ntier: P2\n---\n[a](a.md)\n",
		"a.md":     "x\n",
	})
	r := run(t, Options{Root: root, TierRules: []TierRule{{Pattern: "**", Tier: refgraph.TierP0}}})

	skill, _ := r.File("SKILL.md")
	a, _ := r.File("a.md")
	if skill.Tier != "P2" || a.Tier != "P0" {
		t.Errorf("tiers = %s, %s", skill.Tier, a.Tier)
	}
	if skill.Kind != string(refgraph.KindManifest) {
		t.Errorf("entry kind = %s", skill.Kind)
	}
}

func TestRun_ExternalAndDuplicates(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"SKILL.md": strings.Join([]string{
			"# Skill",
			"[site](https://example.com/missing.md)",
			"[guide](guide.md)",
			"",
			"",
			"",
			"",
			"",
			"again [guide](guide.md)",
		}, "\n"),
		"guide.md": "# Guide\n",
	})

	r := run(t, Options{Root: root})
	if len(issuesOf(r, finding.KindBrokenReference)) != 0 {
		t.Fatalf("external links must not break: %+v", r.Issues)
	}
	if r.Summary.Edges.External != 1 || r.Summary.Edges.Total != 2 {
		t.Errorf("edges = %+v", r.Summary.Edges)
	}
}

func TestRun_CaseMismatch(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"SKILL.md":      "[Guide](docs/guide.md)\n",
		"docs/Guide.md": "# Guide\n",
	})

	r := run(t, Options{Root: root})
	if len(issuesOf(r, finding.KindBrokenReference)) != 0 || len(issuesOf(r, finding.KindOrphanFile)) != 0 {
		t.Fatalf("issues = %+v", r.Issues)
	}
	infos := issuesOf(r, finding.KindReferenceCaseMismatch)
	if len(infos) != 1 || infos[0].Severity != finding.SeverityInfo {
		t.Fatalf("case mismatch issues = %+v", infos)
	}
	if !r.Pass {
		t.Error("info issues must not fail the gate")
	}
	strict := run(t, Options{Root: root, Strict: true})
	if strict.Pass {
		t.Error("strict mode must fail on any issue")
	}
}

func TestRun_UnreadableFileContinues(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"SKILL.md": "[a](a.md) [b](b.md)\n",
		"a.md":     "bad\x00bytes",
		"b.md":     "[missing](gone.md)\n",
	})

	r := run(t, Options{Root: root})
	unreadable := issuesOf(r, finding.KindUnreadableFile)
	if len(unreadable) != 1 || unreadable[0].Path != "a.md" {
		t.Fatalf("unreadable = %+v", unreadable)
	}
	if len(issuesOf(r, finding.KindBrokenReference)) != 1 {
		t.Errorf("scanning should continue past unreadable files: %+v", r.Issues)
	}
	stat, _ := r.File("a.md")
	if stat.Readable {
		t.Error("a.md should be marked unreadable")
	}
}

func TestRun_AssetChainsAndCode(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{
		"SKILL.md":            "Run `scripts/build.py`.\n\n```json\n{\"index\": \"assets/index.json\"}\n```\n",
		"scripts/build.py":    "import json\nDATA = 'templates/report.md'\n",
		"templates/report.md": "# Report\n",
		"assets/index.json":   "{\"logo\": \"assets/logo.png\"}\n",
		"assets/logo.png":     "\x89PNG\x00",
		"unused/tool.sh":      "echo hi\n",
		"templates/draft.md":  "# Draft\n",
	})

	r := run(t, Options{Root: root, OrphanAllow: []string{"templates/draft.md"}})

	var orphans []string
	for _, is := range issuesOf(r, finding.KindOrphanFile) {
		orphans = append(orphans, is.Path)
	}
	if !slices.Equal(orphans, []string{"unused/tool.sh"}) {
		t.Errorf("orphans = %v", orphans)
	}
	for _, p := range []string{"templates/report.md", "assets/logo.png"} {
		if !slices.Contains(r.Reachable, p) {
			t.Errorf("%s should be reachable: %v", p, r.Reachable)
		}
	}
	if len(r.Critical()) != 0 {
		t.Errorf("critical = %+v", r.Critical())
	}
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()
	files := map[string]string{
		"SKILL.md":  "[a](a.md) [b](b.md) [x](missing.md)\n",
		"a.md":      "see `c.md`\n",
		"b.md":      testutil.Lines(90),
		"c.md":      "[A](A.MD)\n",
		"orphan.md": "x\n",
	}
	root := testutil.WriteTree(t, t.TempDir(), files)
	opts := Options{Root: root, TierRules: []TierRule{{Pattern: "b.md", Tier: refgraph.TierP1}}, Workers: 4}

	var outputs [][]byte
	for range 3 {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(run(t, opts)); err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, buf.Bytes())
	}
	for i := 1; i < len(outputs); i++ {
		if !bytes.Equal(outputs[0], outputs[i]) {
			t.Fatalf("run %d differs:\n%s\n%s", i, outputs[0], outputs[i])
		}
	}
}

func TestRun_ConfigurationErrors(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{"SKILL.md": "x\n", "a.md": "y\n"})

	tests := []struct {
		name   string
		opts   Options
		reason finding.Reason
	}{
		{"missing root", Options{Root: filepath.Join(root, "nope")}, finding.ReasonBadRoot},
		{"missing entry", Options{Root: root, Entries: []string{"README.md"}}, finding.ReasonMissingEntry},
		{"entry outside root", Options{Root: root, Entries: []string{"../x.md"}}, finding.ReasonMissingEntry},
		{"bad budget", Options{Root: root, Budget: budget.Policy{refgraph.TierP0: {HardLimit: -1}}}, finding.ReasonMalformedPolicy},
		{"bad threshold", Options{Root: root, Budget: budget.Policy{refgraph.TierP1: {WarnThreshold: 2}}}, finding.ReasonMalformedPolicy},
		{"ceiling", Options{Root: root, MaxFiles: 1}, finding.ReasonResourceCeiling},
		{"bad allow pattern", Options{Root: root, OrphanAllow: []string{"[x"}}, finding.ReasonBadPattern},
		{"bad tier rule", Options{Root: root, TierRules: []TierRule{{Pattern: "*.md", Tier: "P9"}}}, finding.ReasonMalformedPolicy},
		{"negative workers", Options{Root: root, Workers: -2}, finding.ReasonBadOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := Run(context.Background(), tt.opts)
			if r != nil {
				t.Fatal("no report may be produced on configuration errors")
			}
			ce, ok := finding.IsConfiguration(err)
			if !ok || ce.Reason != tt.reason {
				t.Fatalf("error = %v, want reason %s", err, tt.reason)
			}
		})
	}
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()
	root := testutil.WriteTree(t, t.TempDir(), map[string]string{"SKILL.md": "x\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, Options{Root: root}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v", err)
	}
}

func TestOptionsNormalize(t *testing.T) {
	t.Parallel()
	o := Options{Root: ".", Entries: []string{"./SKILL.md", "SKILL.md", " docs/../README.md "}}.Normalize()
	if !slices.Equal(o.Entries, []string{"SKILL.md", "README.md"}) {
		t.Errorf("Entries = %v", o.Entries)
	}
	if o.Workers <= 0 || o.Extractors == nil || o.Now == nil {
		t.Errorf("defaults not applied: %+v", o)
	}
	if d := (Options{}).Normalize().Entries; !slices.Equal(d, []string{DefaultEntry}) {
		t.Errorf("default entries = %v", d)
	}
}
