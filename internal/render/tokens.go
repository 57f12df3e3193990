// SPDX-License-Identifier: MPL-2.0

package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/skillkit/skillkit/pkg/report"
	"github.com/skillkit/skillkit/pkg/tokencount"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type (
	// TokenEstimate is the package-wide token view of a report.
	TokenEstimate struct {
		Name   string       `json:"name"`
		Files  []FileTokens `json:"files"`
		Tokens int          `json:"tokens"`
		Lines  int          `json:"lines"`
	}

	// FileTokens is one text file's measurement.
	FileTokens struct {
		Path   string `json:"path"`
		Tokens int    `json:"tokens"`
		Lines  int    `json:"lines"`
	}
)

// Tokens extracts the token estimate from r. Files that were not read as
// text are left out.
func Tokens(r *report.Report) TokenEstimate {
	est := TokenEstimate{Name: r.Name, Files: []FileTokens{}}
	counts := make([]tokencount.Count, 0, len(r.Files))
	for _, f := range r.Files {
		if f.Lines == 0 && f.Tokens == 0 {
			continue
		}
		est.Files = append(est.Files, FileTokens{Path: f.Path, Tokens: f.Tokens, Lines: f.Lines})
		counts = append(counts, tokencount.Count{Tokens: f.Tokens, Lines: f.Lines})
	}
	total := tokencount.Total(counts...)
	est.Tokens, est.Lines = total.Tokens, total.Lines
	return est
}

// WriteTokens renders the estimate as a table or JSON.
func WriteTokens(w io.Writer, est TokenEstimate, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, est)
	case FormatText, "":
		s := newStyles(w)
		rows := make([][]string, 0, len(est.Files))
		for _, f := range est.Files {
			rows = append(rows, []string{f.Path, strconv.Itoa(f.Lines), strconv.Itoa(f.Tokens)})
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(s.muted).
			Headers("Path", "Lines", "Tokens").
			Rows(rows...).
			String()
		_, err := fmt.Fprintf(w, "%s\n%s\n%s\n",
			s.title.Render(est.Name),
			t,
			s.subtitle.Render(fmt.Sprintf("Total: ~%d tokens in %d lines across %d files", est.Tokens, est.Lines, len(est.Files))),
		)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
