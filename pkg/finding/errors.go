// SPDX-License-Identifier: MPL-2.0

package finding

import (
	"errors"
	"fmt"
)

// Configuration error reasons.
const (
	ReasonBadRoot         Reason = "bad-root"
	ReasonMissingEntry    Reason = "missing-entry"
	ReasonMalformedPolicy Reason = "malformed-policy"
	ReasonResourceCeiling Reason = "resource-ceiling"
	ReasonBadPattern      Reason = "bad-pattern"
	ReasonBadOption       Reason = "bad-option"
)

// ErrConfiguration is the sentinel error wrapped by ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

type (
	// Reason classifies a ConfigurationError.
	Reason string

	// ConfigurationError aborts a run before any report is produced. It wraps
	// ErrConfiguration for errors.Is() compatibility and exposes the cause.
	ConfigurationError struct {
		Reason Reason
		// Path is the offending path or setting, if any.
		Path string
		// Detail is a short human explanation.
		Detail string
		Err    error
	}
)

// Configf builds a ConfigurationError with a formatted detail.
func Configf(reason Reason, path, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: reason, Path: path, Detail: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := "configuration error (" + string(e.Reason) + ")"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrConfiguration and the underlying cause.
func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

// IsConfiguration reports whether err is fatal configuration error and, if
// so, returns it.
func IsConfiguration(err error) (*ConfigurationError, bool) {
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
