// SPDX-License-Identifier: MPL-2.0

package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/skillkit/skillkit/pkg/report"

	"github.com/charmbracelet/glamour"
)

const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Options tunes rendering.
type Options struct {
	// Terminal marks w as an interactive terminal. Markdown output is then
	// rendered through glamour instead of written raw.
	Terminal bool
	// Verbose adds the per-file table to text output.
	Verbose bool
}

// Write renders r to w in the named format.
func Write(w io.Writer, r *report.Report, format string, opts Options) error {
	if r == nil {
		return errors.New("report is nil")
	}
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatMarkdown:
		md := Markdown(r)
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
		_, err := io.WriteString(w, Text(w, r, opts.Verbose))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
