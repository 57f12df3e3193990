// SPDX-License-Identifier: MPL-2.0

package refgraph

import (
	"path"
	"strings"
)

var (
	documentExts = map[string]bool{
		".md": true, ".markdown": true, ".mdx": true, ".txt": true, ".rst": true, ".adoc": true,
	}

	codeExts = map[string]bool{
		".py": true, ".sh": true, ".bash": true, ".zsh": true, ".js": true, ".mjs": true,
		".cjs": true, ".ts": true, ".tsx": true, ".jsx": true, ".go": true, ".rb": true,
		".rs": true, ".java": true, ".kt": true, ".c": true, ".h": true, ".cpp": true,
		".cs": true, ".php": true, ".swift": true, ".lua": true, ".pl": true, ".ps1": true,
		".sql": true, ".r": true,
	}

	// textAssetExts are assets whose content is loaded and scanned for paths.
	textAssetExts = map[string]bool{
		".json": true, ".yaml": true, ".yml": true, ".toml": true, ".xml": true, ".html": true,
		".htm": true, ".css": true, ".csv": true, ".svg": true, ".cue": true, ".ini": true,
		".cfg": true, ".conf": true, ".env": true, ".tmpl": true, ".tpl": true,
	}

	binaryAssetExts = map[string]bool{
		".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true, ".ico": true,
		".bmp": true, ".pdf": true, ".zip": true, ".gz": true, ".tar": true, ".tgz": true,
		".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".mp3": true, ".mp4": true,
		".wav": true, ".docx": true, ".xlsx": true, ".pptx": true, ".wasm": true, ".bin": true,
	}
)

// Ext returns the lower-cased extension of p.
func Ext(p string) string {
	return strings.ToLower(path.Ext(p))
}

// KindOf classifies a path by extension. Entry nodes are promoted to
// KindManifest by the caller.
func KindOf(p string) Kind {
	ext := Ext(p)
	switch {
	case documentExts[ext]:
		return KindDocument
	case codeExts[ext]:
		return KindCode
	default:
		return KindAsset
	}
}

// ExpectText reports whether files with p's extension must decode as text.
// The second result is false when the extension says nothing and content
// sniffing decides.
func ExpectText(p string) (text, known bool) {
	ext := Ext(p)
	switch {
	case documentExts[ext], codeExts[ext], textAssetExts[ext]:
		return true, true
	case ext == "":
		return false, false
	default:
		return false, true
	}
}

// KnownExtension reports whether ext (with leading dot) names a file type
// the package model recognises.
func KnownExtension(ext string) bool {
	ext = strings.ToLower(ext)
	return documentExts[ext] || codeExts[ext] || textAssetExts[ext] || binaryAssetExts[ext]
}

// IsShell reports whether a code language or file extension is a POSIX shell.
func IsShell(lang string) bool {
	switch strings.TrimPrefix(strings.ToLower(lang), ".") {
	case "sh", "bash", "shell", "zsh", "console", "shellscript":
		return true
	}
	return false
}
