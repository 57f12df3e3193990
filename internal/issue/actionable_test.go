// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/skillkit/skillkit/pkg/finding"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "load configuration"},
			expected: "failed to load configuration",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load configuration", Resource: "./.skillkit.cue"},
			expected: "failed to load configuration: ./.skillkit.cue",
		},
		{
			name:     "operation with cause",
			err:      &ActionableError{Operation: "validate package", Cause: errors.New("boom")},
			expected: "failed to validate package: boom",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "./.skillkit.cue",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load configuration: ./.skillkit.cue: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	inner := errors.New("permission denied")
	err := &ActionableError{
		Operation:   "load configuration",
		Resource:    "./.skillkit.cue",
		Suggestions: []string{"Run 'skillkit config init'", "Check file permissions"},
		Cause:       fmt.Errorf("open: %w", inner),
	}

	short := err.Format(false)
	for _, want := range []string{"failed to load configuration", "• Run 'skillkit config init'", "• Check file permissions"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Error("non-verbose output must not include the error chain")
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "1. open: permission denied") || !strings.Contains(verbose, "2. permission denied") {
		t.Errorf("Format(true) chain missing:\n%s", verbose)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	ctx := NewErrorContext().WithOperation("pack").WithResource("dir").WithSuggestion("a").WithSuggestion("b").Wrap(cause)
	ae := ctx.Build()
	if ae.Operation != "pack" || ae.Resource != "dir" || len(ae.Suggestions) != 2 || !errors.Is(ae, cause) {
		t.Errorf("Build() = %+v", ae)
	}

	// Later additions must not leak into an already built error.
	ctx.WithSuggestion("c")
	if len(ae.Suggestions) != 2 {
		t.Errorf("Suggestions mutated: %v", ae.Suggestions)
	}

	if NewErrorContext().Build() != nil || NewErrorContext().BuildError() != nil {
		t.Error("a context without an operation builds nil")
	}
}

func TestFromError(t *testing.T) {
	t.Parallel()

	if FromError(nil, "x") != nil {
		t.Error("FromError(nil) should be nil")
	}

	ce := finding.Configf(finding.ReasonMissingEntry, "SKILL.md", "entry document not found")
	ae := FromError(fmt.Errorf("run: %w", ce), "validate package")
	if ae.Operation != "validate package" || !ae.HasSuggestions() {
		t.Errorf("FromError() = %+v", ae)
	}
	if !errors.Is(ae, finding.ErrConfiguration) {
		t.Error("wrapped error must keep the configuration sentinel")
	}

	existing := &ActionableError{Operation: "load configuration"}
	if got := FromError(fmt.Errorf("wrap: %w", existing), "other"); got != existing {
		t.Errorf("FromError() = %+v, want the existing error", got)
	}

	plain := FromError(errors.New("disk on fire"), "validate package")
	if plain.HasSuggestions() {
		t.Errorf("plain errors have no suggestions: %+v", plain)
	}
}
