// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skillkit/skillkit/pkg/finding"
)

type (
	// ActionableError is an error with context for user-facing messages:
	// what operation failed, on which resource, and how to fix it.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("load configuration").
	//		WithResource("./.skillkit.cue").
	//		WithSuggestion("Run 'skillkit config init' to create one").
	//		Wrap(originalErr).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "validate package".
		Operation string
		// Resource identifies the file or directory involved (optional).
		Resource string
		// Suggestions are fix hints (optional).
		Suggestions []string
		// Cause is the underlying error (optional).
		Cause error
	}

	// ErrorContext is a fluent builder for ActionableError.
	ErrorContext struct {
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

// reasonSuggestions holds the fix hints shown for each configuration error.
var reasonSuggestions = map[finding.Reason][]string{
	finding.ReasonBadRoot: {
		"Check that the package directory exists and is a directory",
	},
	finding.ReasonMissingEntry: {
		"Create the entry document or pass the right one with --entry",
		"Entries are relative to the package root and must stay inside it",
	},
	finding.ReasonMalformedPolicy: {
		"Budget hard limits must be positive and warn thresholds within (0, 1]",
		"Valid tiers are P0, P1 and P2",
	},
	finding.ReasonResourceCeiling: {
		"Point skillkit at the package directory, not a parent of it",
		"Raise limits.max_files or limits.max_bytes in .skillkit.cue if the package is really this large",
	},
	finding.ReasonBadPattern: {
		"Patterns use doublestar syntax, e.g. 'drafts/**' or '**/*.tmp.md'",
	},
	finding.ReasonBadOption: {
		"Run 'skillkit validate --help' to see accepted values",
	},
}

// NewErrorContext creates a new ErrorContext builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// FromError wraps err for display. Configuration errors get the operation
// and the suggestions for their reason; an existing ActionableError is
// returned unchanged.
func FromError(err error, operation string) *ActionableError {
	if err == nil {
		return nil
	}
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae
	}

	out := &ActionableError{Operation: operation, Cause: err}
	if ce, ok := finding.IsConfiguration(err); ok {
		out.Suggestions = append(out.Suggestions, reasonSuggestions[ce.Reason]...)
	}
	return out
}

// Error returns the concise single-line message.
func (e *ActionableError) Error() string {
	var msg strings.Builder
	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)
	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}
	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}
	return msg.String()
}

// Unwrap returns the underlying cause error for use with errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format returns the message followed by suggestions as bullets. When
// verbose is set the full error chain is appended.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder
	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, suggestion := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(suggestion)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		depth := 1
		for err := e.Cause; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			depth++
		}
	}
	return msg.String()
}

// HasSuggestions reports whether the error has any suggestions.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// WithOperation sets the operation being performed.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the resource involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion adds a fix hint. It may be called repeatedly.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build creates the ActionableError, or nil when no operation is set.
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: append([]string(nil), c.suggestions...),
		Cause:       c.cause,
	}
}

// BuildError is Build returned as an error, for use in return statements.
func (c *ErrorContext) BuildError() error {
	ae := c.Build()
	if ae == nil {
		return nil
	}
	return ae
}
