package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// DefaultHighlightStyle is the chroma style used for code blocks and
// highlight.css.
const DefaultHighlightStyle = "github"

// ConvertOptions carries per-document state for one conversion.
type ConvertOptions struct {
	// Resolver resolves [[wiki-links]]. Nil falls back to FallbackURL.
	Resolver LinkResolver
	// Diagnostics receives warnings from the wiki-link and math extensions.
	Diagnostics *Diagnostics
}

// HTMLConverter abstracts Markdown to HTML conversion.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string, opts ConvertOptions) (string, error)
}

// RenderOptions configures the goldmark instance.
type RenderOptions struct {
	HighlightStyle string
	RawHTML        bool
	HardWraps      bool
}

// DefaultRenderOptions matches Obsidian's reading view: raw HTML allowed and
// single newlines rendered as line breaks.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{HighlightStyle: DefaultHighlightStyle, RawHTML: true, HardWraps: true}
}

// GoldmarkConverter converts Markdown to an HTML fragment using goldmark.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM, footnotes,
// class-based syntax highlighting, wiki-links and math.
func NewGoldmarkConverter(opts RenderOptions) *GoldmarkConverter {
	if opts.HighlightStyle == "" {
		opts.HighlightStyle = DefaultHighlightStyle
	}

	var rendererOpts []renderer.Option
	if opts.HardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if opts.RawHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(opts.HighlightStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true), // colors come from highlight.css
				),
			),
			WikiLinks,
			Math,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // targets for [[Note#Heading]]
		),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return &GoldmarkConverter{md: md}
}

// ToHTML converts Markdown content to an HTML fragment.
// Supports context cancellation via goroutine + select pattern since
// Goldmark doesn't natively support context.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string, opts ConvertOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)
	pc := newParserContext(opts.Resolver, opts.Diagnostics)

	go func() {
		var buf bytes.Buffer
		if err := c.md.Convert([]byte(content), &buf, parser.WithContext(pc)); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
