// SPDX-License-Identifier: MPL-2.0

package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/skillkit/skillkit/pkg/budget"
	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/report"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Text renders r for a terminal. Styles follow w's color support. With
// verbose set, every file is listed; otherwise only budgeted files.
func Text(w io.Writer, r *report.Report, verbose bool) string {
	s := newStyles(w)
	var sb strings.Builder

	verdict := s.success.Render("✓ PASS")
	if !r.Pass {
		verdict = s.failure.Render("✗ FAIL")
	}
	mode := ""
	if r.Strict {
		mode = s.subtitle.Render(" (strict)")
	}
	fmt.Fprintf(&sb, "%s  %s%s\n", s.title.Render(r.Name), verdict, mode)

	sum := r.Summary
	sb.WriteString(s.subtitle.Render(fmt.Sprintf("%d files, %d lines, ~%d tokens", sum.Files, sum.Lines, sum.Tokens)))
	sb.WriteString("\n")
	sb.WriteString(s.subtitle.Render(fmt.Sprintf("%d references: %d resolved, %d broken, %d external, %d directory",
		sum.Edges.Total, sum.Edges.Resolved, sum.Edges.Broken, sum.Edges.External, sum.Edges.Directory)))
	sb.WriteString("\n")

	for _, sev := range finding.Severities() {
		issues := r.Filter(func(is finding.Issue) bool { return is.Severity == sev })
		if len(issues) == 0 {
			continue
		}
		style := s.severity(sev)
		fmt.Fprintf(&sb, "\n%s\n", style.Render(fmt.Sprintf("%s (%d)", capitalize(string(sev)), len(issues))))
		for _, is := range issues {
			fmt.Fprintf(&sb, "  %s %s  %s  %s\n",
				style.Render(severityMark(sev)),
				s.path.Render(is.Location()),
				s.muted.Render(string(is.Kind)),
				is.Message,
			)
		}
	}

	if t := filesTable(s, r, verbose); t != "" {
		sb.WriteString("\n")
		sb.WriteString(s.title.Render("Budgets"))
		sb.WriteString("\n")
		sb.WriteString(t)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\n%d critical, %d warning, %d info\n",
		sum.BySeverity[finding.SeverityCritical],
		sum.BySeverity[finding.SeverityWarning],
		sum.BySeverity[finding.SeverityInfo],
	)
	return sb.String()
}

func filesTable(s styles, r *report.Report, verbose bool) string {
	var rows [][]string
	var utils []float64
	for _, f := range r.Files {
		if f.Limit == 0 && !verbose {
			continue
		}
		limit, util := "-", "-"
		if f.Limit > 0 {
			limit = strconv.Itoa(f.Limit)
			util = budget.Percent(f.Utilization)
		}
		rows = append(rows, []string{f.Path, f.Tier, strconv.Itoa(f.Lines), limit, util, strconv.Itoa(f.Tokens)})
		utils = append(utils, f.Utilization)
	}
	if len(rows) == 0 {
		return ""
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.muted).
		Headers("Path", "Tier", "Lines", "Limit", "Used", "Tokens").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row < 0 || col != 4 {
				return base
			}
			switch {
			case utils[row] >= 1:
				return base.Inherit(s.failure)
			case utils[row] >= budget.DefaultWarnThreshold:
				return base.Inherit(s.warning)
			default:
				return base
			}
		}).
		String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
