// SPDX-License-Identifier: MPL-2.0

// Package budget enforces per-tier size budgets. Lines are the enforced
// dimension; token estimates ride along in findings for context.
package budget

import (
	"fmt"
	"math"
	"slices"

	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/refgraph"
)

// DefaultWarnThreshold is the warn fraction used when a tier sets none.
const DefaultWarnThreshold = 0.8

type (
	// Limit is one tier's budget.
	Limit struct {
		// HardLimit is the maximum line count; reaching it is a violation.
		HardLimit int `json:"hard_limit"`
		// WarnThreshold is the utilization fraction at which a warning starts.
		WarnThreshold float64 `json:"warn_threshold"`
	}

	// Policy maps tiers to budgets. Tiers absent from the policy, and
	// untiered nodes, are never budget-checked.
	Policy map[refgraph.Tier]Limit

	// Usage is one node's measured budget utilization.
	Usage struct {
		Path        string
		Tier        refgraph.Tier
		Lines       int
		Tokens      int
		Limit       int
		Utilization float64
	}

	// Tracking is the result of checking every node.
	Tracking struct {
		// Usage has one entry per node, in ascending path order.
		Usage  []Usage
		Issues []finding.Issue
	}
)

// DefaultPolicy returns the built-in tier budgets.
func DefaultPolicy() Policy {
	return Policy{
		refgraph.TierP0: {HardLimit: 150, WarnThreshold: DefaultWarnThreshold},
		refgraph.TierP1: {HardLimit: 100, WarnThreshold: DefaultWarnThreshold},
		refgraph.TierP2: {HardLimit: 300, WarnThreshold: DefaultWarnThreshold},
	}
}

// Merge returns a copy of p with overrides applied tier by tier. A zero
// field in an override keeps the base value.
func (p Policy) Merge(overrides Policy) Policy {
	out := make(Policy, len(p)+len(overrides))
	for tier, lim := range p {
		out[tier] = lim
	}
	for tier, o := range overrides {
		lim := out[tier]
		if o.HardLimit != 0 {
			lim.HardLimit = o.HardLimit
		}
		if o.WarnThreshold != 0 {
			lim.WarnThreshold = o.WarnThreshold
		}
		if lim.WarnThreshold == 0 {
			lim.WarnThreshold = DefaultWarnThreshold
		}
		out[tier] = lim
	}
	return out
}

// Validate rejects non-positive limits, thresholds outside (0, 1], and
// budgets for the untiered class.
func (p Policy) Validate() error {
	for _, tier := range p.Tiers() {
		lim := p[tier]
		field := "budget." + tier.String()
		switch {
		case tier != refgraph.TierP0 && tier != refgraph.TierP1 && tier != refgraph.TierP2:
			return finding.Configf(finding.ReasonMalformedPolicy, field, "unknown tier")
		case lim.HardLimit <= 0:
			return finding.Configf(finding.ReasonMalformedPolicy, field, "hard limit must be positive, got %d", lim.HardLimit)
		case lim.WarnThreshold <= 0 || lim.WarnThreshold > 1 || math.IsNaN(lim.WarnThreshold):
			return finding.Configf(finding.ReasonMalformedPolicy, field, "warn threshold must be in (0, 1], got %g", lim.WarnThreshold)
		}
	}
	return nil
}

// Tiers returns the policy's tiers in ascending order.
func (p Policy) Tiers() []refgraph.Tier {
	tiers := make([]refgraph.Tier, 0, len(p))
	for t := range p {
		tiers = append(tiers, t)
	}
	slices.Sort(tiers)
	return tiers
}

// Evaluate measures one node. It returns the usage and, when the node is at
// or past its warn threshold, the resulting issue.
func Evaluate(n *refgraph.Node, p Policy) (Usage, *finding.Issue) {
	u := Usage{Path: n.Path, Tier: n.Tier, Lines: n.Lines, Tokens: n.Tokens}
	lim, ok := p[n.Tier]
	if !ok || n.Tier == refgraph.TierNone || lim.HardLimit <= 0 {
		return u, nil
	}

	u.Limit = lim.HardLimit
	ratio := float64(n.Lines) / float64(lim.HardLimit)
	u.Utilization = Round(ratio)

	fields := finding.Fields{
		Tier:        n.Tier.String(),
		Limit:       lim.HardLimit,
		Measured:    n.Lines,
		Tokens:      n.Tokens,
		Utilization: u.Utilization,
		Threshold:   lim.WarnThreshold,
	}

	switch {
	case ratio >= 1:
		return u, &finding.Issue{
			Kind:     finding.KindBudgetExceeded,
			Severity: finding.KindBudgetExceeded.DefaultSeverity(),
			Path:     n.Path,
			Message:  fmt.Sprintf("%d lines reaches the %s limit of %d (%s)", n.Lines, n.Tier, lim.HardLimit, Percent(u.Utilization)),
			Fields:   fields,
		}
	case ratio >= lim.WarnThreshold:
		return u, &finding.Issue{
			Kind:     finding.KindBudgetWarning,
			Severity: finding.KindBudgetWarning.DefaultSeverity(),
			Path:     n.Path,
			Message:  fmt.Sprintf("%d lines is %s of the %s limit of %d", n.Lines, Percent(u.Utilization), n.Tier, lim.HardLimit),
			Fields:   fields,
		}
	}
	return u, nil
}

// Track evaluates nodes in the given order. Unreadable nodes are skipped for
// issues but still get a usage entry.
func Track(nodes []*refgraph.Node, p Policy) Tracking {
	var t Tracking
	for _, n := range nodes {
		u, is := Evaluate(n, p)
		t.Usage = append(t.Usage, u)
		if is != nil && n.Readable {
			t.Issues = append(t.Issues, *is)
		}
	}
	return t
}

// Round rounds a utilization to four decimals for stable output.
func Round(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// Percent formats a utilization as a whole percentage.
func Percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
