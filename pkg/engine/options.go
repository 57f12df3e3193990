// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/skillkit/skillkit/pkg/budget"
	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/refextract"
	"github.com/skillkit/skillkit/pkg/refgraph"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// DefaultEntry is the entry document used when none is configured.
const DefaultEntry = "SKILL.md"

type (
	// Options is the single configuration value an Engine is built from.
	// The zero value plus a Root is a valid configuration.
	Options struct {
		// Root is the package directory.
		Root string
		// Entries are the package-relative entry documents reachability
		// starts from. Defaults to [DefaultEntry].
		Entries []string
		// Budget overrides the default tier budgets per tier.
		Budget budget.Policy
		// TierRules assign tiers by path when a file declares none. The
		// first matching rule wins.
		TierRules []TierRule
		// OrphanAllow lists doublestar patterns exempt from orphan findings.
		OrphanAllow []string
		// Ignore adds doublestar patterns to the scanner's ignore set.
		Ignore []string
		// Strict fails the gate on any issue, not only critical ones.
		Strict bool
		// MaxFiles and MaxBytes bound the scan (see scan.Options).
		MaxFiles int
		MaxBytes int64
		// Workers bounds concurrent file loading; zero means GOMAXPROCS.
		Workers int
		// Extractors overrides the reference extraction strategies.
		Extractors refextract.Set
		Logger     *log.Logger
		// Now stamps the report; defaults to time.Now.
		Now func() time.Time
	}

	// TierRule assigns Tier to files whose path matches Pattern.
	TierRule struct {
		Pattern string        `json:"pattern" mapstructure:"pattern"`
		Tier    refgraph.Tier `json:"tier" mapstructure:"tier"`
	}
)

// Normalize returns a copy of o with defaults applied and paths cleaned.
func (o Options) Normalize() Options {
	out := o
	out.Entries = nil
	for _, e := range o.Entries {
		e = cleanRel(e)
		if e != "" && e != "." && !slices.Contains(out.Entries, e) {
			out.Entries = append(out.Entries, e)
		}
	}
	if len(out.Entries) == 0 {
		out.Entries = []string{DefaultEntry}
	}
	if out.Workers == 0 {
		out.Workers = runtime.GOMAXPROCS(0)
	}
	if out.Extractors == nil {
		out.Extractors = refextract.Default()
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	out.TierRules = slices.Clone(o.TierRules)
	for i := range out.TierRules {
		out.TierRules[i].Pattern = cleanRel(out.TierRules[i].Pattern)
	}
	return out
}

// Validate checks a normalized Options value.
func (o Options) Validate() error {
	if strings.TrimSpace(o.Root) == "" {
		return finding.Configf(finding.ReasonBadRoot, "", "root path is empty")
	}
	if o.Workers < 0 {
		return finding.Configf(finding.ReasonBadOption, "workers", "must not be negative, got %d", o.Workers)
	}
	for _, e := range o.Entries {
		if e == ".." || strings.HasPrefix(e, "../") {
			return finding.Configf(finding.ReasonMissingEntry, e, "entry is outside the package root")
		}
	}
	for _, r := range o.TierRules {
		if !doublestar.ValidatePattern(r.Pattern) {
			return finding.Configf(finding.ReasonBadPattern, r.Pattern, "invalid tier rule pattern")
		}
		if r.Tier == refgraph.TierNone {
			continue
		}
		if _, err := refgraph.ParseTier(string(r.Tier)); err != nil {
			return &finding.ConfigurationError{Reason: finding.ReasonMalformedPolicy, Path: r.Pattern, Err: err}
		}
	}
	return budget.DefaultPolicy().Merge(o.Budget).Validate()
}

// cleanRel converts a user-supplied path to package path form.
func cleanRel(p string) string {
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean(p), "./")
}
