// SPDX-License-Identifier: MPL-2.0

package config

import (
	"slices"

	"github.com/skillkit/skillkit/pkg/budget"
	"github.com/skillkit/skillkit/pkg/engine"
	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/refgraph"
	"github.com/skillkit/skillkit/pkg/scan"
)

const (
	// FormatText renders a styled terminal report.
	FormatText OutputFormat = "text"
	// FormatJSON renders the report as indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatMarkdown renders the report as markdown tables.
	FormatMarkdown OutputFormat = "markdown"
)

type (
	// OutputFormat selects the report renderer.
	OutputFormat string

	// Config is the effective skillkit configuration.
	Config struct {
		Entries     []string              `json:"entries" mapstructure:"entries"`
		Strict      bool                  `json:"strict" mapstructure:"strict"`
		OrphanAllow []string              `json:"orphan_allow" mapstructure:"orphan_allow"`
		Ignore      []string              `json:"ignore" mapstructure:"ignore"`
		Budget      map[string]TierBudget `json:"budget" mapstructure:"budget"`
		Tiers       []engine.TierRule     `json:"tiers" mapstructure:"tiers"`
		Limits      LimitsConfig          `json:"limits" mapstructure:"limits"`
		Workers     int                   `json:"workers" mapstructure:"workers"`
		Output      OutputConfig          `json:"output" mapstructure:"output"`
		LogLevel    string                `json:"log_level" mapstructure:"log_level"`

		// Source is the file the configuration was read from, empty when
		// only defaults and environment applied.
		Source string `json:"-" mapstructure:"-"`
	}

	// TierBudget overrides one tier's limits. Zero fields keep the default.
	TierBudget struct {
		HardLimit     int     `json:"hard_limit" mapstructure:"hard_limit"`
		WarnThreshold float64 `json:"warn_threshold" mapstructure:"warn_threshold"`
	}

	// LimitsConfig bounds the scan.
	LimitsConfig struct {
		MaxFiles int   `json:"max_files" mapstructure:"max_files"`
		MaxBytes int64 `json:"max_bytes" mapstructure:"max_bytes"`
	}

	// OutputConfig selects how reports are rendered.
	OutputConfig struct {
		Format OutputFormat `json:"format" mapstructure:"format"`
	}
)

// String returns the format name.
func (f OutputFormat) String() string { return string(f) }

// Formats lists the supported output formats.
func Formats() []OutputFormat {
	return []OutputFormat{FormatText, FormatJSON, FormatMarkdown}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (OutputFormat, error) {
	f := OutputFormat(s)
	if slices.Contains(Formats(), f) {
		return f, nil
	}
	return "", finding.Configf(finding.ReasonBadOption, "format", "unknown output format %q (valid: text, json, markdown)", s)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	policy := budget.DefaultPolicy()
	budgets := make(map[string]TierBudget, len(policy))
	for tier, lim := range policy {
		budgets[string(tier)] = TierBudget{HardLimit: lim.HardLimit, WarnThreshold: lim.WarnThreshold}
	}

	return &Config{
		Entries:     []string{engine.DefaultEntry},
		OrphanAllow: []string{},
		Ignore:      []string{},
		Budget:      budgets,
		Tiers:       []engine.TierRule{},
		Limits: LimitsConfig{
			MaxFiles: scan.DefaultMaxFiles,
			MaxBytes: scan.DefaultMaxBytes,
		},
		Output:   OutputConfig{Format: FormatText},
		LogLevel: "warn",
	}
}

// Policy converts the budget section to an engine budget policy. Tier keys
// are matched case-insensitively.
func (c *Config) Policy() (budget.Policy, error) {
	policy := make(budget.Policy, len(c.Budget))
	for key, b := range c.Budget {
		tier, err := refgraph.ParseTier(key)
		if err != nil || tier == refgraph.TierNone {
			return nil, finding.Configf(finding.ReasonMalformedPolicy, "budget."+key, "unknown tier")
		}
		policy[tier] = budget.Limit{HardLimit: b.HardLimit, WarnThreshold: b.WarnThreshold}
	}
	return policy, nil
}

// EngineOptions builds the engine configuration for the package at root.
// Command-line overrides are applied by the caller on the result.
func (c *Config) EngineOptions(root string) (engine.Options, error) {
	policy, err := c.Policy()
	if err != nil {
		return engine.Options{}, err
	}
	tiers := slices.Clone(c.Tiers)
	for i := range tiers {
		if t, err := refgraph.ParseTier(string(tiers[i].Tier)); err == nil {
			tiers[i].Tier = t
		}
	}

	return engine.Options{
		Root:        root,
		Entries:     slices.Clone(c.Entries),
		Budget:      policy,
		TierRules:   tiers,
		OrphanAllow: slices.Clone(c.OrphanAllow),
		Ignore:      slices.Clone(c.Ignore),
		Strict:      c.Strict,
		MaxFiles:    c.Limits.MaxFiles,
		MaxBytes:    c.Limits.MaxBytes,
		Workers:     c.Workers,
	}, nil
}
