// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/skillkit/skillkit/internal/issue"
	"github.com/skillkit/skillkit/pkg/budget"
	"github.com/skillkit/skillkit/pkg/engine"
	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/refgraph"
	"github.com/skillkit/skillkit/pkg/scan"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// load isolates the user config directory so the developer's own file
// never leaks into a test.
func load(t *testing.T, opts LoadOptions) (*Config, error) {
	t.Helper()
	if opts.ConfigDirPath == "" {
		opts.ConfigDirPath = t.TempDir()
	}
	return NewProvider().Load(context.Background(), opts)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := load(t, LoadOptions{RootDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty", cfg.Source)
	}
	if !slices.Equal(cfg.Entries, []string{"SKILL.md"}) || cfg.Output.Format != FormatText || cfg.LogLevel != "warn" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Limits.MaxFiles != scan.DefaultMaxFiles || cfg.Limits.MaxBytes != scan.DefaultMaxBytes {
		t.Errorf("limits = %+v", cfg.Limits)
	}
	policy, err := cfg.Policy()
	if err != nil {
		t.Fatal(err)
	}
	if policy[refgraph.TierP2].HardLimit != 300 || policy[refgraph.TierP0].WarnThreshold != budget.DefaultWarnThreshold {
		t.Errorf("policy = %+v", policy)
	}
}

func TestLoad_PackageFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, scan.ConfigFileName), `
entries: ["README.md"]
strict: true
budget: P1: hard_limit: 80
tiers: [{pattern: "reference/**", tier: "P1"}]
output: format: "json"
`)

	cfg, err := load(t, LoadOptions{RootDir: root})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Source != filepath.Join(root, scan.ConfigFileName) {
		t.Errorf("Source = %q", cfg.Source)
	}
	if !cfg.Strict || cfg.Output.Format != FormatJSON || !slices.Equal(cfg.Entries, []string{"README.md"}) {
		t.Errorf("cfg = %+v", cfg)
	}

	opts, err := cfg.EngineOptions(root)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Budget[refgraph.TierP1].HardLimit != 80 || opts.Budget[refgraph.TierP1].WarnThreshold != budget.DefaultWarnThreshold {
		t.Errorf("budget = %+v", opts.Budget)
	}
	if len(opts.TierRules) != 1 || opts.TierRules[0].Tier != refgraph.TierP1 {
		t.Errorf("tier rules = %+v", opts.TierRules)
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	userDir := t.TempDir()
	explicit := filepath.Join(t.TempDir(), "explicit.cue")
	writeFile(t, filepath.Join(userDir, "config.cue"), `workers: 1`)
	writeFile(t, filepath.Join(root, scan.ConfigFileName), `workers: 2`)
	writeFile(t, explicit, `workers: 3`)

	tests := []struct {
		name string
		opts LoadOptions
		want int
	}{
		{"explicit file", LoadOptions{ConfigFilePath: explicit, RootDir: root, ConfigDirPath: userDir}, 3},
		{"package file", LoadOptions{RootDir: root, ConfigDirPath: userDir}, 2},
		{"user file", LoadOptions{RootDir: t.TempDir(), ConfigDirPath: userDir}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := load(t, tt.opts)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Workers != tt.want {
				t.Errorf("Workers = %d, want %d", cfg.Workers, tt.want)
			}
		})
	}
}

func TestLoad_DeprecatedKeys(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, scan.ConfigFileName), `
manifest: ["README.md"]
strict_mode: true
allowlist: ["drafts/**"]
budgets: P0: {max_lines: 90, warn_ratio: 0.5}
`)

	cfg, err := load(t, LoadOptions{RootDir: root})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !slices.Equal(cfg.Entries, []string{"README.md"}) {
		t.Errorf("Entries = %v", cfg.Entries)
	}
	if !cfg.Strict || !slices.Equal(cfg.OrphanAllow, []string{"drafts/**"}) {
		t.Errorf("cfg = %+v", cfg)
	}
	policy, err := cfg.Policy()
	if err != nil {
		t.Fatal(err)
	}
	if got := policy[refgraph.TierP0]; got.HardLimit != 90 || got.WarnThreshold != 0.5 {
		t.Errorf("P0 = %+v", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "colour: true\n", "colour"},
		{"bad hard limit", "budget: P0: hard_limit: 0\n", "budget.P0.hard_limit"},
		{"bad threshold", "budget: P1: warn_threshold: 1.5\n", "budget.P1.warn_threshold"},
		{"bad tier", `tiers: [{pattern: "*.md", tier: "P7"}]` + "\n", "tiers"},
		{"bad format", `output: format: "yaml"` + "\n", "output.format"},
		{"syntax", "entries: [\n", ".skillkit.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			writeFile(t, filepath.Join(root, scan.ConfigFileName), tt.content)

			_, err := load(t, LoadOptions{RootDir: root})
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, finding.ErrConfiguration) {
				t.Errorf("error should be a configuration error: %v", err)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || !ae.HasSuggestions() {
				t.Errorf("error should be actionable: %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()
	_, err := load(t, LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	if !errors.Is(err, finding.ErrConfiguration) {
		t.Fatalf("error = %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SKILLKIT_STRICT", "true")
	t.Setenv("SKILLKIT_OUTPUT_FORMAT", "markdown")
	t.Setenv("SKILLKIT_BUDGET_P2_HARD_LIMIT", "40")

	cfg, err := load(t, LoadOptions{RootDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Strict || cfg.Output.Format != FormatMarkdown {
		t.Errorf("cfg = %+v", cfg)
	}
	policy, err := cfg.Policy()
	if err != nil {
		t.Fatal(err)
	}
	if policy[refgraph.TierP2].HardLimit != 40 {
		t.Errorf("P2 = %+v", policy[refgraph.TierP2])
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path, err := WriteDefault(dir)
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if _, err := WriteDefault(dir); !errors.Is(err, ErrConfigExists) {
		t.Errorf("second WriteDefault() error = %v", err)
	}

	cfg, err := load(t, LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	want := DefaultConfig()
	if cfg.Limits != want.Limits || cfg.LogLevel != want.LogLevel || cfg.Output != want.Output {
		t.Errorf("round trip = %+v", cfg)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Strict = true
	cfg.OrphanAllow = []string{"drafts/**"}
	cfg.Tiers = append(cfg.Tiers, engineRule("references/**", refgraph.TierP1))
	cfg.Budget["P0"] = TierBudget{HardLimit: 120, WarnThreshold: 0.75}

	path := filepath.Join(t.TempDir(), "gen.cue")
	writeFile(t, path, GenerateCUE(cfg))

	got, err := load(t, LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v\n%s", err, GenerateCUE(cfg))
	}
	if !got.Strict || len(got.Tiers) != 1 || got.Tiers[0].Pattern != "references/**" {
		t.Errorf("got = %+v", got)
	}
	policy, err := got.Policy()
	if err != nil {
		t.Fatal(err)
	}
	if policy[refgraph.TierP0] != (budget.Limit{HardLimit: 120, WarnThreshold: 0.75}) {
		t.Errorf("P0 = %+v", policy[refgraph.TierP0])
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for _, f := range Formats() {
		if got, err := ParseFormat(string(f)); err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %q, %v", f, got, err)
		}
	}
	if _, err := ParseFormat("yaml"); !errors.Is(err, finding.ErrConfiguration) {
		t.Errorf("ParseFormat(yaml) error = %v", err)
	}
}

func TestPolicy_UnknownTier(t *testing.T) {
	t.Parallel()
	cfg := &Config{Budget: map[string]TierBudget{"p9": {HardLimit: 1}}}
	if _, err := cfg.EngineOptions("."); !errors.Is(err, finding.ErrConfiguration) {
		t.Fatalf("error = %v", err)
	}
}

func engineRule(pattern string, tier refgraph.Tier) engine.TierRule {
	return engine.TierRule{Pattern: pattern, Tier: tier}
}
