// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// alias maps a deprecated dotted key to its canonical dotted key.
	alias struct {
		from string
		to   string
	}

	// Rewrite records one deprecated key found in a configuration file.
	Rewrite struct {
		From string
		To   string
		// Shadowed is set when the canonical key was also present; the
		// deprecated value was dropped.
		Shadowed bool
	}
)

// topLevelAliases is the single table of deprecated top-level keys.
var topLevelAliases = []alias{
	{"manifest", "entries"},
	{"entry", "entries"},
	{"entry_points", "entries"},
	{"strict_mode", "strict"},
	{"allowlist", "orphan_allow"},
	{"orphan_allowlist", "orphan_allow"},
	{"ignore_orphans", "orphan_allow"},
	{"budgets", "budget"},
	{"budget_policy", "budget"},
	{"max_file_count", "limits.max_files"},
}

// tierAliases apply inside each budget.<tier> block.
var tierAliases = []alias{
	{"max_lines", "hard_limit"},
	{"limit", "hard_limit"},
	{"warn_ratio", "warn_threshold"},
	{"warn_fraction", "warn_threshold"},
	{"warn_at", "warn_threshold"},
}

// String describes the rewrite for a deprecation notice.
func (r Rewrite) String() string {
	if r.Shadowed {
		return fmt.Sprintf("%q is deprecated and ignored because %q is also set", r.From, r.To)
	}
	return fmt.Sprintf("%q is deprecated, use %q", r.From, r.To)
}

// RewriteAliases renames deprecated keys in m to their canonical keys in
// place and reports every rename in table order. When both spellings are
// present the canonical key wins.
func RewriteAliases(m map[string]any) []Rewrite {
	var out []Rewrite
	for _, a := range topLevelAliases {
		out = append(out, rewrite(m, a, "")...)
	}

	b, ok := m["budget"].(map[string]any)
	if !ok {
		return out
	}
	tiers := make([]string, 0, len(b))
	for k := range b {
		tiers = append(tiers, k)
	}
	slices.Sort(tiers)
	for _, tier := range tiers {
		block, ok := b[tier].(map[string]any)
		if !ok {
			continue
		}
		for _, a := range tierAliases {
			out = append(out, rewrite(block, a, "budget."+tier+".")...)
		}
	}
	return out
}

func rewrite(m map[string]any, a alias, prefix string) []Rewrite {
	v, ok := m[a.from]
	if !ok {
		return nil
	}
	delete(m, a.from)

	r := Rewrite{From: prefix + a.from, To: prefix + a.to}
	if lookup(m, a.to) {
		r.Shadowed = true
		return []Rewrite{r}
	}
	if a.to == "entries" {
		if s, isString := v.(string); isString {
			v = []any{s}
		}
	}
	assign(m, a.to, v)
	return []Rewrite{r}
}

func lookup(m map[string]any, dotted string) bool {
	head, rest, nested := strings.Cut(dotted, ".")
	v, ok := m[head]
	if !ok || !nested {
		return ok
	}
	child, ok := v.(map[string]any)
	return ok && lookup(child, rest)
}

func assign(m map[string]any, dotted string, v any) {
	head, rest, nested := strings.Cut(dotted, ".")
	if !nested {
		m[head] = v
		return
	}
	child, ok := m[head].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[head] = child
	}
	assign(child, rest, v)
}
