// SPDX-License-Identifier: MPL-2.0

// Package finding defines the validation finding taxonomy shared by every
// engine component: issue kinds, severities, the Issue value itself, and the
// fatal ConfigurationError that aborts a run before any report exists.
//
// Findings are data, never errors. Only ConfigurationError is returned through
// the error path.
package finding
