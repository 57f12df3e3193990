// SPDX-License-Identifier: MPL-2.0

package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/skillkit/skillkit/pkg/budget"
	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/report"
)

// Markdown renders r as a markdown document with one table per section.
func Markdown(r *report.Report) string {
	var sb strings.Builder

	result := "PASS"
	if !r.Pass {
		result = "FAIL"
	}
	fmt.Fprintf(&sb, "# Validation Report: %s\n\n", r.Name)
	fmt.Fprintf(&sb, "- Result: **%s**\n", result)
	fmt.Fprintf(&sb, "- Strict: %v\n", r.Strict)
	fmt.Fprintf(&sb, "- Entries: %s\n", emptyDash(strings.Join(r.Entries, ", ")))
	if !r.GeneratedAt.IsZero() {
		fmt.Fprintf(&sb, "- Generated: %s\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&sb, "- Tree digest: `%s`\n\n", emptyDash(r.TreeDigest))

	writeSummarySection(&sb, r.Summary)
	writeIssuesSection(&sb, r.Issues)
	writeFilesSection(&sb, r.Files)
	return sb.String()
}

func writeSummarySection(sb *strings.Builder, s report.Summary) {
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|---|---|\n")
	fmt.Fprintf(sb, "| Files | %d |\n", s.Files)
	fmt.Fprintf(sb, "| Lines | %d |\n", s.Lines)
	fmt.Fprintf(sb, "| Tokens | %d |\n", s.Tokens)
	fmt.Fprintf(sb, "| References | %d |\n", s.Edges.Total)
	fmt.Fprintf(sb, "| Resolved | %d |\n", s.Edges.Resolved)
	fmt.Fprintf(sb, "| Broken | %d |\n", s.Edges.Broken)
	fmt.Fprintf(sb, "| External | %d |\n", s.Edges.External)
	fmt.Fprintf(sb, "| Directory | %d |\n\n", s.Edges.Directory)

	sb.WriteString("### Counts by Kind\n\n")
	sb.WriteString("| Kind | Count |\n")
	sb.WriteString("|---|---|\n")
	for _, kind := range finding.Kinds() {
		fmt.Fprintf(sb, "| %s | %d |\n", kind, s.ByKind[kind])
	}
	sb.WriteString("\n")

	sb.WriteString("### Counts by Severity\n\n")
	sb.WriteString("| Severity | Count |\n")
	sb.WriteString("|---|---|\n")
	for _, sev := range finding.Severities() {
		fmt.Fprintf(sb, "| %s | %d |\n", sev, s.BySeverity[sev])
	}
	sb.WriteString("\n")
}

func writeIssuesSection(sb *strings.Builder, issues []finding.Issue) {
	sb.WriteString("## Issues\n\n")
	if len(issues) == 0 {
		sb.WriteString("No issues.\n\n")
		return
	}

	sb.WriteString("| Severity | Kind | Location | Message |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, is := range issues {
		fmt.Fprintf(sb, "| %s | %s | %s | %s |\n",
			is.Severity,
			is.Kind,
			escapeTableValue(is.Location()),
			escapeTableValue(is.Message),
		)
	}
	sb.WriteString("\n")
}

func writeFilesSection(sb *strings.Builder, files []report.FileStat) {
	sb.WriteString("## Files\n\n")
	if len(files) == 0 {
		sb.WriteString("No files.\n\n")
		return
	}

	sb.WriteString("| Path | Kind | Tier | Lines | Limit | Used | Tokens | Reachable |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, f := range files {
		limit, used := "", ""
		if f.Limit > 0 {
			limit = strconv.Itoa(f.Limit)
			used = budget.Percent(f.Utilization)
		}
		reachable := "no"
		if f.Reachable {
			reachable = "yes"
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %d | %s | %s | %d | %s |\n",
			escapeTableValue(f.Path),
			f.Kind,
			f.Tier,
			f.Lines,
			emptyDash(limit),
			emptyDash(used),
			f.Tokens,
			reachable,
		)
	}
	sb.WriteString("\n")
}

func escapeTableValue(value string) string {
	if value == "" {
		return "-"
	}
	escaped := strings.ReplaceAll(value, "\r", "")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return strings.ReplaceAll(escaped, "|", "\\|")
}

func emptyDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
