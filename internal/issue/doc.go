// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// fix suggestions. Issue holds a longer markdown guide per failure class,
// rendered for terminals with glamour.
package issue
