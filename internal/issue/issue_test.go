// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/skillpack"
)

func TestValues(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != len(issues) {
		t.Fatalf("Values() returned %d guides, want %d", len(values), len(issues))
	}
	for i, is := range values {
		if is.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d", i, is.Id())
		}
		if strings.TrimSpace(string(is.MarkdownMsg())) == "" {
			t.Errorf("guide %d is empty", is.Id())
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id       Id
		contains string
	}{
		{ConfigLoadFailedId, "Failed to load configuration"},
		{PackageRootInvalidId, "Package directory not usable"},
		{EntryNotFoundId, "Entry document not found"},
		{BudgetPolicyInvalidId, "Invalid budget policy"},
		{ResourceCeilingId, "Package too large"},
		{PatternInvalidId, "Invalid glob pattern"},
		{OptionInvalidId, "Invalid option"},
		{PackagingBlockedId, "Packaging blocked"},
	}

	for _, tt := range tests {
		t.Run(tt.contains, func(t *testing.T) {
			t.Parallel()
			is := Get(tt.id)
			if is == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if !strings.Contains(string(is.MarkdownMsg()), tt.contains) {
				t.Errorf("Get(%d) should contain %q", tt.id, tt.contains)
			}
		})
	}

	if Get(Id(9999)) != nil {
		t.Error("Get(9999) should return nil")
	}
}

func TestForError(t *testing.T) {
	t.Parallel()

	configLoad := NewErrorContext().WithOperation("load configuration").Wrap(errors.New("x")).BuildError()

	tests := []struct {
		name string
		err  error
		want Id
	}{
		{"nil", nil, 0},
		{"plain", errors.New("x"), 0},
		{"bad root", finding.Configf(finding.ReasonBadRoot, "", "x"), PackageRootInvalidId},
		{"wrapped missing entry", fmt.Errorf("run: %w", finding.Configf(finding.ReasonMissingEntry, "a", "x")), EntryNotFoundId},
		{"ceiling", finding.Configf(finding.ReasonResourceCeiling, "", "x"), ResourceCeilingId},
		{"config load", configLoad, ConfigLoadFailedId},
		{"packaging", fmt.Errorf("pack: %w", skillpack.ErrPackagingBlocked), PackagingBlockedId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ForError(tt.err)
			if tt.want == 0 {
				if got != nil {
					t.Errorf("ForError() = %d, want nil", got.Id())
				}
				return
			}
			if got == nil || got.Id() != tt.want {
				t.Errorf("ForError() = %v, want %d", got, tt.want)
			}
		})
	}
}

func TestIssue_Render(t *testing.T) {
	// Swaps the package-level renderer; not parallel.
	original := render
	t.Cleanup(func() { render = original })

	var gotStyle string
	render = func(in, stylePath string) (string, error) {
		gotStyle = stylePath
		return in, nil
	}

	out, err := Get(EntryNotFoundId).Render("")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(out, "--entry") {
		t.Errorf("Render() output = %q", out)
	}
	if gotStyle != "auto" {
		t.Errorf("style = %q, want auto", gotStyle)
	}
}
