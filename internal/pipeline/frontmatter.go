package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/alnah/go-vaultsite/internal/yamlutil"
)

// ErrFrontmatter indicates a note's YAML frontmatter could not be decoded.
var ErrFrontmatter = errors.New("invalid frontmatter")

// Only YAML is accepted; TOML and JSON blocks are left in the body.
var frontmatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yamlutil.UnmarshalOptional),
	frontmatter.NewFormat("---yaml", "---", yamlutil.UnmarshalOptional),
}

// Frontmatter holds the note metadata the site generator understands.
// Unknown keys are ignored.
type Frontmatter struct {
	Title      string     `yaml:"title"`
	Tags       StringList `yaml:"tags"`
	CSSClasses StringList `yaml:"cssclasses"`
	Publish    *bool      `yaml:"publish"`
	Date       DateString `yaml:"date"`
}

// Published reports whether the note should be rendered. Notes are published
// unless they set "publish: false".
func (f Frontmatter) Published() bool {
	return f.Publish == nil || *f.Publish
}

// StringList accepts either a YAML sequence or a single string. A string is
// split on commas and whitespace, so "tags: a, b" and "tags: [a, b]" decode
// the same way.
type StringList []string

// UnmarshalYAML implements the goccy/go-yaml InterfaceUnmarshaler.
func (l *StringList) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := unmarshal(&single); err != nil {
		return err
	}
	*l = strings.FieldsFunc(single, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	return nil
}

// DateString keeps a scalar date as text whether YAML reads it as a
// timestamp or as a string. Timestamps are rendered in RFC 3339.
type DateString string

// UnmarshalYAML implements the goccy/go-yaml InterfaceUnmarshaler.
func (d *DateString) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = DateString(t.Format(time.RFC3339))
	case string:
		*d = DateString(t)
	default:
		*d = DateString(fmt.Sprint(t))
	}
	return nil
}

// SplitFrontmatter separates a leading YAML frontmatter block from the note
// body. A note without frontmatter, or with an unterminated block, is returned
// unchanged with a zero Frontmatter.
func SplitFrontmatter(content string) (Frontmatter, string, error) {
	var fm Frontmatter
	body, err := frontmatter.Parse(strings.NewReader(content), &fm, frontmatterFormats...)
	if err != nil {
		return Frontmatter{}, "", fmt.Errorf("%w: %v", ErrFrontmatter, err)
	}
	return fm, string(body), nil
}

// BodyLineOffset returns how many lines of content precede body, so that
// diagnostics reported against the body can be mapped back to the note.
func BodyLineOffset(content, body string) int {
	if len(body) > len(content) {
		return 0
	}
	return strings.Count(content[:len(content)-len(body)], "\n")
}
