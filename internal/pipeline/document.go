package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrTemplateRender indicates the page template failed to execute.
var ErrTemplateRender = errors.New("document template failed")

// DocumentData is the input of the page template.
type DocumentData struct {
	Title       string
	Stylesheets []string
	Scripts     []string
	Tags        []string
	BodyClasses string
	Date        string // formatted page date, empty to omit
	Body        template.HTML
	// MathRender adds the KaTeX auto-render bootstrap; set when the
	// auto-render script is among Scripts.
	MathRender bool
}

// SharedAssets lists the stylesheets and scripts every page links to, as
// paths relative to the site root.
type SharedAssets struct {
	Stylesheets []string
	Scripts     []string
}

// DefaultSharedAssets links the site stylesheet, the highlight theme and the
// KaTeX stylesheet, in that order.
func DefaultSharedAssets() SharedAssets {
	return SharedAssets{
		Stylesheets: []string{"styles.css", "highlight.css", "katex.min.css"},
	}
}

// WithRootPrefix returns the asset list as seen from a page rootPrefix below
// the site root.
func (a SharedAssets) WithRootPrefix(rootPrefix string) SharedAssets {
	prefixed := func(list []string) []string {
		if list == nil {
			return nil
		}
		out := make([]string, len(list))
		for i, p := range list {
			out[i] = rootPrefix + p
		}
		return out
	}
	return SharedAssets{Stylesheets: prefixed(a.Stylesheets), Scripts: prefixed(a.Scripts)}
}

// DocumentTemplate wraps a converted body into a full HTML page.
type DocumentTemplate struct {
	tmpl *template.Template
}

// NewDocumentTemplate parses src. The template receives a DocumentData.
func NewDocumentTemplate(src string) (*DocumentTemplate, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("%w: empty template", ErrTemplateRender)
	}
	tmpl, err := template.New("document").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return &DocumentTemplate{tmpl: tmpl}, nil
}

// Render executes the template.
func (d *DocumentTemplate) Render(ctx context.Context, data DocumentData) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return buf.String(), nil
}
