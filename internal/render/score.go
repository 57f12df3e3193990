// SPDX-License-Identifier: MPL-2.0

package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/skillkit/skillkit/pkg/quality"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WriteScore renders a quality score in the named format.
func WriteScore(w io.Writer, s *quality.Score, format string, opts Options) error {
	if s == nil {
		return errors.New("score is nil")
	}
	switch format {
	case FormatJSON:
		return WriteJSON(w, s)
	case FormatMarkdown:
		md := ScoreMarkdown(s)
		if opts.Terminal {
			out, err := glamour.Render(md, "auto")
			if err != nil {
				return fmt.Errorf("render markdown: %w", err)
			}
			md = out
		}
		_, err := io.WriteString(w, md)
		return err
	case FormatText, "":
		_, err := io.WriteString(w, ScoreText(w, s))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// ScoreText renders s as a category table followed by the issues.
func ScoreText(w io.Writer, s *quality.Score) string {
	st := newStyles(w)
	var sb strings.Builder

	verdict := st.success.Render(s.Grade.Label())
	if !s.Pass {
		verdict = st.failure.Render(s.Grade.Label())
	}
	fmt.Fprintf(&sb, "%s  %s\n", st.title.Render(s.Name), verdict)
	sb.WriteString(st.subtitle.Render(fmt.Sprintf("Score %d/%d (%.1f%%), entry %s", s.Points, s.Max, s.Percent, s.Entry)))
	sb.WriteString("\n\n")

	rows := make([][]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		rows = append(rows, []string{
			capitalize(c.Name),
			fmt.Sprintf("%d/%d", c.Points, c.Max),
			fmt.Sprintf("%.1f%%", c.Percent),
		})
	}
	categories := s.Categories
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.muted).
		Headers("Category", "Points", "Percent").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || col != 2 || row >= len(categories) {
				return base
			}
			if categories[row].Points < categories[row].Max {
				return base.Inherit(st.warning)
			}
			return base.Inherit(st.success)
		})
	sb.WriteString(t.String())
	sb.WriteString("\n")

	if issues := s.Issues(); len(issues) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", st.warning.Render(fmt.Sprintf("Issues (%d)", len(issues))))
		for _, is := range issues {
			fmt.Fprintf(&sb, "  %s %s\n", st.warning.Render("!"), is)
		}
	}
	return sb.String()
}

// ScoreMarkdown renders s as a markdown document.
func ScoreMarkdown(s *quality.Score) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Quality Report: %s\n\n", s.Name)
	fmt.Fprintf(&sb, "- Score: **%d/%d** (%.1f%%)\n", s.Points, s.Max, s.Percent)
	fmt.Fprintf(&sb, "- Grade: %s\n", s.Grade.Label())
	fmt.Fprintf(&sb, "- Entry: %s\n\n", emptyDash(s.Entry))

	sb.WriteString("## Categories\n\n")
	sb.WriteString("| Category | Points | Percent | Status |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, c := range s.Categories {
		status := "ok"
		if c.Points < c.Max {
			status = "needs work"
		}
		fmt.Fprintf(&sb, "| %s | %d/%d | %.1f%% | %s |\n", capitalize(c.Name), c.Points, c.Max, c.Percent, status)
	}
	sb.WriteString("\n## Issues\n\n")

	issues := s.Issues()
	if len(issues) == 0 {
		sb.WriteString("No issues.\n")
		return sb.String()
	}
	for _, is := range issues {
		fmt.Fprintf(&sb, "- %s\n", is)
	}
	return sb.String()
}
