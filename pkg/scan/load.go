// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/refgraph"

	"lukechampine.com/blake3"
)

// sniffLen is how much of an extensionless file decides text versus binary.
const sniffLen = 512

// File is a loaded Entry.
type File struct {
	Entry
	// Content is set only for text files.
	Content string
	// Text is set when the content was loaded for extraction.
	Text bool
	// Readable is false when an expected-text file failed to read or decode.
	Readable bool
	// Problem explains an unreadable file.
	Problem string
	Digest  string
	Front   Frontmatter
	// FrontErr records a frontmatter decode failure; the file is still used.
	FrontErr error
}

// Load reads one entry. It never fails: read and decode problems mark the
// file unreadable when text was expected and are otherwise dropped.
func Load(e Entry) File {
	f := File{Entry: e, Readable: true}
	expectText, known := refgraph.ExpectText(e.Path)

	if known && !expectText {
		// Binary assets are hashed but never decoded.
		digest, err := hashFile(e.Abs)
		if err == nil {
			f.Digest = digest
		}
		return f
	}

	data, err := os.ReadFile(e.Abs)
	if err != nil {
		if known {
			f.Readable = false
			f.Problem = fmt.Sprintf("cannot read file: %v", err)
		}
		return f
	}
	sum := blake3.Sum256(data)
	f.Digest = hex.EncodeToString(sum[:])

	if !known {
		head := data[:min(len(data), sniffLen)]
		if bytes.IndexByte(head, 0) >= 0 || !validUTF8Prefix(head, len(data) > sniffLen) {
			return f
		}
		if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
			return f
		}
	} else {
		if bytes.IndexByte(data, 0) >= 0 {
			f.Readable = false
			f.Problem = "file contains NUL bytes; expected text"
			return f
		}
		if !utf8.Valid(data) {
			f.Readable = false
			f.Problem = "file is not valid UTF-8"
			return f
		}
	}

	f.Text = true
	f.Content = string(data)
	f.Front, f.FrontErr = ParseFrontmatter(f.Content)
	return f
}

// UnreadableIssue returns the warning for an unreadable file, or nil.
func (f File) UnreadableIssue() *finding.Issue {
	if f.Readable {
		return nil
	}
	return &finding.Issue{
		Kind:     finding.KindUnreadableFile,
		Severity: finding.KindUnreadableFile.DefaultSeverity(),
		Path:     f.Path,
		Message:  f.Problem,
		Fields:   finding.Fields{Reason: f.Problem},
	}
}

// validUTF8Prefix tolerates a rune cut at the sniff boundary.
func validUTF8Prefix(b []byte, truncated bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if !truncated {
		return false
	}
	for i := 1; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return true
		}
	}
	return false
}

func hashFile(name string) (string, error) {
	fh, err := os.Open(name)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	hasher := blake3.New(32, nil)
	if _, err := io.Copy(hasher, fh); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
