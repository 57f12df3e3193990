// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride allows tests to override the user config directory.
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path, bypassing
// os.UserConfigDir, which does not reliably follow HOME on every platform.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
