package vaultsite

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/alnah/go-vaultsite/internal/assets"
	"github.com/alnah/go-vaultsite/internal/dateutil"
	"github.com/alnah/go-vaultsite/internal/pathmap"
	"github.com/alnah/go-vaultsite/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.CommonMarkPreprocessor)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.LinkResolver         = (*vaultResolver)(nil)
)

// Compiler turns one note into one HTML page.
// Create with NewCompiler. A Compiler is safe for concurrent use when its
// CodeRunner is.
type Compiler struct {
	logger        *slog.Logger
	runner        CodeRunner
	dateFormat    string
	assetLoader   assets.AssetLoader
	preprocessor  pipeline.MarkdownPreprocessor
	htmlConverter pipeline.HTMLConverter
	template      *pipeline.DocumentTemplate
	shared        pipeline.SharedAssets
}

// NewCompiler creates a Compiler. Returns an error if the asset path, the
// page template or the date format is invalid.
func NewCompiler(opts ...Option) (*Compiler, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newCompiler(o)
}

func newCompiler(o options) (*Compiler, error) {
	loader, err := assets.NewAssetResolver(o.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}

	if o.dateFormat != "" {
		if _, err := dateutil.ParseDateFormat(o.dateFormat); err != nil {
			return nil, err
		}
	}

	src, err := loader.LoadTemplate(assets.DocumentTemplateName)
	if err != nil {
		return nil, fmt.Errorf("loading page template: %w", err)
	}
	tmpl, err := pipeline.NewDocumentTemplate(src)
	if err != nil {
		return nil, fmt.Errorf("parsing page template: %w", err)
	}

	shared := pipeline.DefaultSharedAssets()
	if o.katexDir != "" {
		shared.Scripts = append(shared.Scripts, assets.KatexScripts...)
	}

	return &Compiler{
		logger:        o.logger,
		runner:        o.runner,
		dateFormat:    o.dateFormat,
		assetLoader:   loader,
		preprocessor:  &pipeline.CommonMarkPreprocessor{},
		htmlConverter: pipeline.NewGoldmarkConverter(o.render),
		template:      tmpl,
		shared:        shared,
	}, nil
}

// Compile runs the pipeline on page.
//
// A fatal diagnostic (a failing code block) returns a *DiagnosticsError
// wrapping ErrPipelineFatal; other diagnostics are returned with the page.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Compiler) Compile(ctx context.Context, page Page) (result *RenderedPage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fm, body, err := pipeline.SplitFrontmatter(page.Content)
	if err != nil {
		return nil, err
	}

	title := fm.Title
	if title == "" {
		title = noteTitle(page.Path)
	}
	if !fm.Published() {
		return &RenderedPage{Title: title}, nil
	}

	diags := &pipeline.Diagnostics{}
	lineOffset := pipeline.BodyLineOffset(page.Content, body)

	// Obsidian syntax
	body = c.preprocessor.PreprocessMarkdown(ctx, body)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Runnable code blocks
	body, err = pipeline.RunCodeBlocks(ctx, body, page.Path, c.runner, diags)
	if err != nil {
		return nil, err
	}
	if diags.HasFatal() {
		return nil, &DiagnosticsError{Diagnostics: shiftLines(diags.List(), lineOffset)}
	}

	// Markdown to HTML
	htmlBody, err := c.htmlConverter.ToHTML(ctx, body, pipeline.ConvertOptions{
		Resolver:    page.Resolver,
		Diagnostics: diags,
	})
	if err != nil {
		return nil, fmt.Errorf("converting to HTML: %w", err)
	}

	shared := c.shared.WithRootPrefix(page.RootPrefix)
	doc, err := c.template.Render(ctx, pipeline.DocumentData{
		Title:       title,
		Stylesheets: shared.Stylesheets,
		Scripts:     shared.Scripts,
		Tags:        fm.Tags,
		BodyClasses: strings.Join(fm.CSSClasses, " "),
		Date:        c.pageDate(fm.Date, page.ModTime, diags),
		Body:        template.HTML(htmlBody), // #nosec G203 -- goldmark output
		MathRender:  len(c.shared.Scripts) > 0,
	})
	if err != nil {
		return nil, err
	}

	// Links and highlights, on the final document
	doc = pipeline.RewriteLinks(doc)
	doc = pipeline.ConvertMarkPlaceholders(doc)

	list := shiftLines(diags.List(), lineOffset)
	for _, d := range list {
		if d.Fatal {
			return nil, &DiagnosticsError{Diagnostics: list}
		}
	}
	for _, d := range list {
		c.logger.Debug("diagnostic", slog.String("page", page.Path), slog.String("diagnostic", d.String()))
	}

	return &RenderedPage{
		HTML:        []byte(doc),
		Title:       title,
		Published:   true,
		Diagnostics: list,
	}, nil
}

// pageDate formats the frontmatter date, or modTime when the note has none.
// An unparseable frontmatter date is a warning and falls back to modTime.
func (c *Compiler) pageDate(fmDate pipeline.DateString, modTime time.Time, diags *pipeline.Diagnostics) string {
	if c.dateFormat == "" {
		return ""
	}

	t := modTime
	if fmDate != "" {
		parsed, err := dateutil.ParseNoteDate(string(fmDate))
		if err != nil {
			diags.Add(Diagnostic{Message: err.Error(), Source: pipeline.SourceFrontmatter})
		} else {
			t = parsed
		}
	}
	if t.IsZero() {
		return ""
	}

	s, err := dateutil.FormatDate(t, c.dateFormat)
	if err != nil {
		// validated in NewCompiler
		return ""
	}
	return s
}

// noteTitle is the file name without its extension, as Obsidian shows it.
func noteTitle(notePath string) string {
	base := path.Base(pathmap.NormalizeSeparators(notePath))
	return strings.TrimSuffix(base, path.Ext(base))
}

// shiftLines maps body line numbers back to the note file.
func shiftLines(list []Diagnostic, offset int) []Diagnostic {
	if offset == 0 {
		return list
	}
	for i := range list {
		if list[i].Line > 0 {
			list[i].Line += offset
		}
	}
	return list
}

// ErrorDiagnostics returns the diagnostics carried by a Compile error, or
// nil when err is not a *DiagnosticsError.
func ErrorDiagnostics(err error) []Diagnostic {
	var de *DiagnosticsError
	if errors.As(err, &de) {
		return de.Diagnostics
	}
	return nil
}
