package vaultsite

import (
	"io"
	"log/slog"
	"time"

	"github.com/alnah/go-vaultsite/internal/pipeline"
)

// Diagnostic is a warning or error reported while compiling a note.
// Line and Column refer to the note file, frontmatter included.
type Diagnostic = pipeline.Diagnostic

// DiagnosticsError aborts a note; it carries every diagnostic of the note.
type DiagnosticsError = pipeline.DiagnosticsError

// CodeRunner executes the runnable code blocks of a note.
// See the internal runner package for the os/exec implementation.
type CodeRunner = pipeline.CodeRunner

// RunRequest is one runnable code block.
type RunRequest = pipeline.RunRequest

// LinkResolver maps a wiki-link target to a page-relative URL.
type LinkResolver = pipeline.LinkResolver

// RenderOptions configures the Markdown renderer.
type RenderOptions = pipeline.RenderOptions

// DefaultRenderOptions matches Obsidian's reading view.
func DefaultRenderOptions() RenderOptions {
	return pipeline.DefaultRenderOptions()
}

// Page is one note to compile.
type Page struct {
	// Path is the note's path on disk. It names the page in diagnostics,
	// gives the default title, and is passed to the code runner.
	Path    string
	Content string

	// ModTime dates the page when a date format is configured and the
	// frontmatter has no date. Zero omits the date.
	ModTime time.Time

	// RootPrefix leads from the page back to the site root ("../" per
	// directory level). Shared asset links and resolved wiki-links get it.
	RootPrefix string

	// Resolver resolves [[wiki-links]]. Nil treats every target as a
	// vault-relative note path.
	Resolver LinkResolver
}

// RenderedPage is the result of Compile.
type RenderedPage struct {
	HTML  []byte
	Title string

	// Published is false for notes with "publish: false"; HTML is then nil.
	Published bool

	// Diagnostics holds the non-fatal diagnostics of the note.
	Diagnostics []Diagnostic
}

// Option configures a Compiler or a Builder.
type Option func(*options)

type options struct {
	logger          *slog.Logger
	runner          CodeRunner
	render          RenderOptions
	assetPath       string
	style           string
	dateFormat      string
	katexDir        string
	exclude         []string
	normalize       bool
	normalizeIgnore []string
}

func defaultOptions() options {
	return options{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		render:    pipeline.DefaultRenderOptions(),
		normalize: true,
	}
}

// WithLogger sets the logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRunner enables runnable code blocks. Without a runner, blocks marked
// run are rendered as code and a warning is reported.
func WithRunner(r CodeRunner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithRenderOptions sets the Markdown renderer options.
func WithRenderOptions(r RenderOptions) Option {
	return func(o *options) {
		o.render = r
	}
}

// WithAssetPath loads styles and the page template from dir, falling back
// to the built-in assets for files it does not have.
//
// Directory structure:
//
//	dir/
//	├── styles/
//	│   └── <name>.css
//	└── templates/
//	    └── document.html
func WithAssetPath(dir string) Option {
	return func(o *options) {
		o.assetPath = dir
	}
}

// WithStyle selects the stylesheet written as styles.css. Default "default".
func WithStyle(name string) Option {
	return func(o *options) {
		o.style = name
	}
}

// WithDateFormat adds a date footer to every page, formatted with tokens
// (YYYY, MMMM, DD, ...) or a preset (iso, european, us, long).
func WithDateFormat(format string) Option {
	return func(o *options) {
		o.dateFormat = format
	}
}

// WithKatexDir copies a KaTeX distribution into the site and loads its
// scripts on every page.
func WithKatexDir(dir string) Option {
	return func(o *options) {
		o.katexDir = dir
	}
}

// WithExclude replaces the exclude patterns used when scanning the vault.
// See DefaultExclude.
func WithExclude(patterns []string) Option {
	return func(o *options) {
		o.exclude = patterns
	}
}

// WithNormalize turns directory case normalization on or off. Default on.
func WithNormalize(enabled bool) Option {
	return func(o *options) {
		o.normalize = enabled
	}
}

// WithNormalizeIgnore replaces the directory names normalization skips.
func WithNormalizeIgnore(names []string) Option {
	return func(o *options) {
		o.normalizeIgnore = names
	}
}
