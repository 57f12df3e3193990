// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the skillkit CLI.
//
// Commands are built per invocation from an App, the composition root that
// holds the configuration provider and output streams. Validation,
// packaging and token estimates all run through pkg/engine.
package cmd
