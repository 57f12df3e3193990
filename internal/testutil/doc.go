// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that build skill packages on
// disk and need deterministic timestamps.
package testutil
