// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

// ExitCode is the process exit status.
type ExitCode int

const (
	// ExitPass means validation passed.
	ExitPass ExitCode = 0
	// ExitFailed means the report failed the gate or a command failed.
	ExitFailed ExitCode = 1
	// ExitConfig means the run could not start: bad root, missing entry,
	// malformed policy, exceeded ceiling or an invalid option.
	ExitConfig ExitCode = 2
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE
// handlers. Its message has already been shown when it is returned.
type ExitError struct {
	Code ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
