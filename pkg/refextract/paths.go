// SPDX-License-Identifier: MPL-2.0

package refextract

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/skillkit/skillkit/pkg/refgraph"
)

var (
	schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

	// pathChars is the alphabet of a path-shaped token.
	pathChars = regexp.MustCompile(`^[A-Za-z0-9_./\-@+%]+$`)

	// formatVerb matches printf-style directives such as %s, %02d and %%.
	formatVerb = regexp.MustCompile(`%(?:%|[-+# 0]*(?:\d+|\*)?(?:\.\d+)?[A-Za-z])`)
)

// IsExternal reports whether target is addressed by a URI scheme and must
// never be resolved against the filesystem.
func IsExternal(target string) bool {
	if schemePattern.MatchString(target) {
		return true
	}
	lower := strings.ToLower(target)
	for _, prefix := range []string{"mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// cleanLinkTarget strips angle brackets, fragments and queries from a link
// target and decodes percent escapes. It returns "" for same-document
// anchors.
func cleanLinkTarget(target string) string {
	target = strings.TrimSpace(target)
	target = strings.TrimPrefix(target, "<")
	target = strings.TrimSuffix(target, ">")
	if IsExternal(target) {
		return target
	}
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}
	return strings.TrimSpace(target)
}

// trimTrailing drops sentence punctuation stuck to the end of a token.
func trimTrailing(tok string) string {
	return strings.TrimRight(tok, ".,;:!)]}")
}

// pathShaped reports whether tok looks like a file path with a recognised
// extension. When needSlash is set the token must also contain a
// directory separator.
func pathShaped(tok string, needSlash bool) bool {
	if tok == "" || len(tok) > 512 || !pathChars.MatchString(tok) {
		return false
	}
	if needSlash && !strings.Contains(tok, "/") {
		return false
	}
	if strings.HasPrefix(tok, "-") || strings.HasSuffix(tok, "/") {
		return false
	}
	base := path.Base(tok)
	ext := path.Ext(base)
	if ext == "" || ext == base {
		return false
	}
	return refgraph.KnownExtension(ext)
}

// codePath filters a token found inside code. Absolute, home-relative,
// templated and format-string paths describe the runtime machine rather
// than the package.
func codePath(tok string, quoted bool) (string, bool) {
	tok = strings.TrimSpace(tok)
	if !quoted {
		tok = trimTrailing(tok)
	}
	if IsExternal(tok) {
		return tok, true
	}
	if strings.HasPrefix(tok, "/") || strings.HasPrefix(tok, "~") || strings.ContainsAny(tok, "<>{}$*?") {
		return "", false
	}
	if formatVerb.MatchString(tok) {
		return "", false
	}
	if !pathShaped(tok, !quoted) {
		return "", false
	}
	return tok, true
}
