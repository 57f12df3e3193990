// SPDX-License-Identifier: MPL-2.0

// Package config handles skillkit configuration using Viper with CUE as the
// file format.
//
// Configuration is read from the first of: an explicit --config file, the
// package's own .skillkit.cue, or config.cue in the user configuration
// directory (~/.config/skillkit on Linux, ~/Library/Application Support/skillkit
// on macOS, %AppData%\skillkit on Windows). SKILLKIT_* environment variables
// override file values.
//
// Files are validated against an embedded CUE schema (config_schema.cue).
// Deprecated key spellings are rewritten to canonical keys first; see
// RewriteAliases.
package config
