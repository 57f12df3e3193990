// SPDX-License-Identifier: MPL-2.0

// Package tokencount estimates language-model token counts for package text
// without calling any tokenizer service.
//
// Text is split into Unicode word-boundary segments (UAX #29). Whitespace
// segments are free, punctuation and symbol segments cost one token each, and
// word segments cost WordNumerator/WordDenominator tokens to approximate
// sub-word splitting. The result is an estimate with no accuracy guarantee
// against any particular production tokenizer; it is stable for identical
// input, which is what budget enforcement relies on.
package tokencount

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

const (
	// WordNumerator and WordDenominator form the fixed per-word multiplier (4/3).
	WordNumerator   = 4
	WordDenominator = 3
)

type (
	// Count is the measured size of one text.
	Count struct {
		Tokens int `json:"tokens"`
		Lines  int `json:"lines"`
	}

	// Segments breaks a text down by segment class.
	Segments struct {
		Words       int
		Punctuation int
	}
)

// Measure returns the token and line count of text.
func Measure(text string) Count {
	return Count{Tokens: Tokens(text), Lines: Lines(text)}
}

// Tokens returns the estimated token count of text.
func Tokens(text string) int {
	return Split(text).Tokens()
}

// Tokens applies the word multiplier, rounding half up.
func (s Segments) Tokens() int {
	words := (s.Words*WordNumerator + WordDenominator/2) / WordDenominator
	return words + s.Punctuation
}

// Split classifies the word-boundary segments of text.
func Split(text string) Segments {
	var seg Segments
	state := -1
	rest := text
	var word string
	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		switch classify(word) {
		case segmentWord:
			seg.Words++
		case segmentPunct:
			seg.Punctuation++
		}
	}
	return seg
}

// Lines counts newline-terminated lines; a trailing partial line counts as one.
func Lines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// Total sums per-file counts into a package-wide estimate.
func Total(counts ...Count) Count {
	var total Count
	for _, c := range counts {
		total.Tokens += c.Tokens
		total.Lines += c.Lines
	}
	return total
}

type segmentClass int

const (
	segmentSpace segmentClass = iota
	segmentWord
	segmentPunct
)

func classify(segment string) segmentClass {
	class := segmentSpace
	for _, r := range segment {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r):
			return segmentWord
		case unicode.IsSpace(r):
		default:
			class = segmentPunct
		}
	}
	return class
}
