// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/skillkit/skillkit/internal/render"

	"github.com/charmbracelet/lipgloss"
)

// Base styles for CLI chrome. Report bodies are styled by internal/render.
var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(render.ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(render.ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(render.ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(render.ColorError)

	// WarningStyle is for warning messages and caution indicators.
	WarningStyle = lipgloss.NewStyle().
			Foreground(render.ColorWarning)

	// CmdStyle is for command names, paths and other literals.
	CmdStyle = lipgloss.NewStyle().
			Foreground(render.ColorHighlight)

	// VerboseHighlightStyle marks watch-mode progress lines.
	VerboseHighlightStyle = lipgloss.NewStyle().
				Foreground(render.ColorHighlight)
)
