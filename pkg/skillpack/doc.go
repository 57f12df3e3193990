// SPDX-License-Identifier: MPL-2.0

// Package skillpack builds distributable .skill archives. Packaging runs a
// full validation first and refuses to archive a package whose report fails
// the gate, unless forced.
package skillpack
