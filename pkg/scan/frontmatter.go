// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"errors"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Frontmatter formats.
const (
	FrontmatterYAML = "yaml"
	FrontmatterTOML = "toml"
)

// ErrUnterminatedFrontmatter is returned when an opening delimiter has no
// matching close.
var ErrUnterminatedFrontmatter = errors.New("unterminated frontmatter")

// Frontmatter is the metadata block a document may open with, either
// "---" delimited YAML or "+++" delimited TOML.
type Frontmatter struct {
	Format      string `yaml:"-" toml:"-"`
	Name        string `yaml:"name" toml:"name"`
	Description string `yaml:"description" toml:"description"`
	Tier        string `yaml:"tier" toml:"tier"`
	Priority    string `yaml:"priority" toml:"priority"`
}

// DeclaredTier returns the tier named by the frontmatter; "tier" wins over
// "priority".
func (f Frontmatter) DeclaredTier() string {
	if f.Tier != "" {
		return f.Tier
	}
	return f.Priority
}

// ParseFrontmatter decodes a leading frontmatter block. Text without one
// yields a zero Frontmatter and no error.
func ParseFrontmatter(text string) (Frontmatter, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	var fm Frontmatter

	var delim string
	switch {
	case strings.HasPrefix(text, "---\n"), strings.HasPrefix(text, "---\r\n"):
		delim, fm.Format = "---", FrontmatterYAML
	case strings.HasPrefix(text, "+++\n"), strings.HasPrefix(text, "+++\r\n"):
		delim, fm.Format = "+++", FrontmatterTOML
	default:
		return fm, nil
	}

	body, ok := frontmatterBody(text, delim)
	if !ok {
		return Frontmatter{}, ErrUnterminatedFrontmatter
	}

	var err error
	if fm.Format == FrontmatterYAML {
		err = yaml.Unmarshal([]byte(body), &fm)
	} else {
		err = toml.Unmarshal([]byte(body), &fm)
	}
	if err != nil {
		return Frontmatter{}, err
	}
	return fm, nil
}

// frontmatterBody returns the lines between the opening delimiter and the
// next line consisting only of delim.
func frontmatterBody(text, delim string) (string, bool) {
	_, rest, _ := strings.Cut(text, "\n")
	offset := 0
	for {
		line, next, found := strings.Cut(rest[offset:], "\n")
		if strings.TrimRight(line, "\r ") == delim {
			return rest[:offset], true
		}
		if !found {
			return "", false
		}
		offset = len(rest) - len(next)
	}
}
