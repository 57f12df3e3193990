// SPDX-License-Identifier: MPL-2.0

// Package render turns validation reports into text, JSON or markdown.
// Renderers only read the report; the JSON form is the report itself.
package render
