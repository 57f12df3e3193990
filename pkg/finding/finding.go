// SPDX-License-Identifier: MPL-2.0

package finding

import "fmt"

// Issue kinds.
const (
	KindBrokenReference       Kind = "BrokenReference"
	KindOrphanFile            Kind = "OrphanFile"
	KindBudgetExceeded        Kind = "BudgetExceeded"
	KindBudgetWarning         Kind = "BudgetWarning"
	KindUnreadableFile        Kind = "UnreadableFile"
	KindReferenceCaseMismatch Kind = "ReferenceCaseMismatch"
)

// Severity levels, most severe first.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type (
	// Kind identifies what a finding is about.
	Kind string

	// Severity ranks a finding for ordering and gating.
	Severity string

	// Issue is one validation finding attached to a package file.
	Issue struct {
		Kind     Kind     `json:"kind"`
		Severity Severity `json:"severity"`
		Path     string   `json:"path"`
		// Line is 1-based; zero means the finding is not tied to a line.
		Line    int    `json:"line,omitempty"`
		Message string `json:"message"`
		Fields  Fields `json:"fields"`
	}

	// Fields carries the machine-readable values behind an Issue. Only the
	// members relevant to the issue kind are populated.
	Fields struct {
		Target      string   `json:"target,omitempty"`
		ResolvedTo  string   `json:"resolved_to,omitempty"`
		Tried       []string `json:"tried,omitempty"`
		Tier        string   `json:"tier,omitempty"`
		Limit       int      `json:"limit,omitempty"`
		Measured    int      `json:"measured,omitempty"`
		Tokens      int      `json:"tokens,omitempty"`
		Utilization float64  `json:"utilization,omitempty"`
		Threshold   float64  `json:"threshold,omitempty"`
		Reason      string   `json:"reason,omitempty"`
	}
)

// Kinds returns every issue kind in report order.
func Kinds() []Kind {
	return []Kind{
		KindBrokenReference,
		KindOrphanFile,
		KindBudgetExceeded,
		KindBudgetWarning,
		KindUnreadableFile,
		KindReferenceCaseMismatch,
	}
}

// Severities returns every severity, most severe first.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityWarning, SeverityInfo}
}

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// DefaultSeverity maps a kind to the severity its producer assigns.
func (k Kind) DefaultSeverity() Severity {
	switch k {
	case KindBrokenReference, KindBudgetExceeded:
		return SeverityCritical
	case KindOrphanFile, KindBudgetWarning, KindUnreadableFile:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// String returns the string representation of the Severity.
func (s Severity) String() string { return string(s) }

// Rank orders severities: critical is 0, unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// Location renders path and line the way editors link them.
func (i Issue) Location() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d", i.Path, i.Line)
	}
	return i.Path
}
