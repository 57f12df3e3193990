// SPDX-License-Identifier: MPL-2.0

package render

import (
	"io"

	"github.com/skillkit/skillkit/pkg/finding"

	"github.com/charmbracelet/lipgloss"
)

// Color palette shared by every styled CLI output.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
	ColorVerbose   = lipgloss.Color("#9CA3AF")
)

// styles are bound to one output's renderer so color detection follows the
// writer: plain bytes for pipes and buffers, ANSI for terminals.
type styles struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	success  lipgloss.Style
	failure  lipgloss.Style
	warning  lipgloss.Style
	info     lipgloss.Style
	path     lipgloss.Style
	muted    lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(ColorPrimary),
		subtitle: r.NewStyle().Foreground(ColorMuted),
		success:  r.NewStyle().Bold(true).Foreground(ColorSuccess),
		failure:  r.NewStyle().Bold(true).Foreground(ColorError),
		warning:  r.NewStyle().Foreground(ColorWarning),
		info:     r.NewStyle().Foreground(ColorHighlight),
		path:     r.NewStyle().Foreground(ColorHighlight),
		muted:    r.NewStyle().Foreground(ColorVerbose),
	}
}

func (s styles) severity(sev finding.Severity) lipgloss.Style {
	switch sev {
	case finding.SeverityCritical:
		return s.failure
	case finding.SeverityWarning:
		return s.warning
	default:
		return s.info
	}
}

func severityMark(sev finding.Severity) string {
	switch sev {
	case finding.SeverityCritical:
		return "✗"
	case finding.SeverityWarning:
		return "!"
	default:
		return "i"
	}
}
