package vaultsite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-vaultsite/internal/assets"
	"github.com/alnah/go-vaultsite/internal/dirnorm"
	"github.com/alnah/go-vaultsite/internal/fileutil"
	"github.com/alnah/go-vaultsite/internal/pathmap"
	"github.com/alnah/go-vaultsite/internal/pipeline"
	"github.com/alnah/go-vaultsite/internal/vault"
)

// DefaultExclude lists the vault paths skipped unless WithExclude is used.
var DefaultExclude = vault.DefaultExclude

// DefaultNormalizeIgnore lists the directory names normalization skips
// unless WithNormalizeIgnore is used.
var DefaultNormalizeIgnore = dirnorm.DefaultIgnore

// Builder builds a whole vault into a site. Create with NewBuilder.
type Builder struct {
	vaultDir  string
	outputDir string
	opts      options
	compiler  *Compiler

	stylesheet string // styles.css content
	highlight  string // highlight.css content
}

// NewBuilder creates a Builder for vaultDir writing to outputDir.
// The style, highlight style, page template and date format are resolved
// here so that configuration errors surface before anything is written.
func NewBuilder(vaultDir, outputDir string, opts ...Option) (*Builder, error) {
	if vaultDir == "" {
		return nil, ErrEmptyVault
	}
	vaultDir = filepath.Clean(vaultDir)
	outputDir = filepath.Clean(outputDir)
	// The normalizer renames every directory below the output root, so the
	// output must not be the vault or one of its ancestors.
	if containsPath(outputDir, vaultDir) {
		return nil, fmt.Errorf("%w: %s", ErrOutputIsRoot, outputDir)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	compiler, err := newCompiler(o)
	if err != nil {
		return nil, err
	}

	style := o.style
	if style == "" {
		style = assets.DefaultStyleName
	}
	stylesheet, err := compiler.assetLoader.LoadStyle(style)
	if err != nil {
		return nil, fmt.Errorf("loading style %q: %w", style, err)
	}

	highlightStyle := o.render.HighlightStyle
	if highlightStyle == "" {
		highlightStyle = pipeline.DefaultHighlightStyle
	}
	highlight, err := assets.HighlightCSS(highlightStyle)
	if err != nil {
		return nil, err
	}

	return &Builder{
		vaultDir:   vaultDir,
		outputDir:  outputDir,
		opts:       o,
		compiler:   compiler,
		stylesheet: stylesheet,
		highlight:  highlight,
	}, nil
}

// Compiler returns the compiler used for every note.
func (b *Builder) Compiler() *Compiler {
	return b.compiler
}

// Problem is a per-file failure or warning recorded during a build.
type Problem struct {
	Path string
	Err  error
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %v", p.Path, p.Err)
}

// PageResult records one note.
type PageResult struct {
	Source      string
	Output      string // empty when Skipped
	Title       string
	Skipped     bool // publish: false
	Diagnostics []Diagnostic
}

// FileResult records one copied or generated file.
type FileResult struct {
	Source string // empty for generated files
	Output string
}

// BuildReport collects the outcome of a build, in processing order.
type BuildReport struct {
	Pages  []PageResult
	Assets []FileResult
	Shared []FileResult

	// Directories is the normalization report; nil when normalization is
	// disabled or did not run.
	Directories *dirnorm.Report

	// Failures holds the notes, files and directories that could not be
	// written. Warnings holds problems that did not prevent output.
	Failures []Problem
	Warnings []Problem
}

// Err joins every failure, or returns nil.
func (r *BuildReport) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Path, f.Err))
	}
	return errors.Join(errs...)
}

func (r *BuildReport) fail(path string, err error) {
	r.Failures = append(r.Failures, Problem{Path: path, Err: err})
}

func (r *BuildReport) warn(path string, err error) {
	r.Warnings = append(r.Warnings, Problem{Path: path, Err: err})
}

// Build renders every note, copies every other file, writes the shared
// assets and normalizes directory names, in that order.
//
// Per-file failures are recorded in the report and the build goes on. The
// returned error is non-nil only when the vault cannot be enumerated, the
// output root cannot be normalized, or ctx is canceled; the partial report
// is returned with it.
func (b *Builder) Build(ctx context.Context) (*BuildReport, error) {
	logger := b.opts.logger
	report := &BuildReport{}

	v, err := vault.Scan(ctx, b.vaultDir, vault.Options{
		Exclude: b.opts.exclude,
		Skip:    []string{b.outputDir},
	})
	if err != nil {
		return report, err
	}
	logger.Info("vault scanned",
		slog.String("vault", b.vaultDir),
		slog.Int("notes", len(v.Notes)),
		slog.Int("assets", len(v.Assets)))

	mapper := pathmap.New(b.vaultDir, b.outputDir)
	pages := make(map[string]string) // page key -> note written there

	for _, note := range v.Notes {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := b.buildPage(ctx, v, mapper, note, pages)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			if errors.Is(err, ErrPageConflict) {
				logger.Warn("page not written", slog.String("note", note.Path), slog.Any("error", err))
				report.warn(note.Path, err)
				continue
			}
			logger.Error("page failed", slog.String("note", note.Path), slog.Any("error", err))
			report.fail(note.Path, err)
			continue
		}
		report.Pages = append(report.Pages, res)
	}

	for _, asset := range v.Assets {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		dst, err := mapper.OutputPath(asset.Path)
		if err == nil {
			dst = b.reuseNormalized(dst)
			err = fileutil.CopyFile(asset.Path, dst)
		}
		if err != nil {
			logger.Error("copy failed", slog.String("file", asset.Path), slog.Any("error", err))
			report.fail(asset.Path, fmt.Errorf("%w: %v", ErrCopyAsset, err))
			continue
		}
		report.Assets = append(report.Assets, FileResult{Source: asset.Path, Output: dst})
	}

	b.writeShared(v, report)

	if !b.opts.normalize {
		return report, ctx.Err()
	}
	return report, b.normalize(ctx, report)
}

// buildPage compiles one note and writes it. pages records the notes
// already written, keyed by pageKey; a later note mapping to the same page
// is not written and yields ErrPageConflict.
func (b *Builder) buildPage(ctx context.Context, v *vault.Vault, mapper pathmap.Mapper, note vault.Entry, pages map[string]string) (PageResult, error) {
	res := PageResult{Source: note.Path}

	out, err := mapper.PagePath(note.Path)
	if err != nil {
		return res, err
	}
	out = b.reuseNormalized(out)
	rootPrefix, err := mapper.RootPrefix(note.Path)
	if err != nil {
		return res, err
	}

	content, err := os.ReadFile(note.Path) // #nosec G304 -- path comes from the vault walk
	if err != nil {
		return res, fmt.Errorf("reading note: %w", err)
	}
	page, err := b.compiler.Compile(ctx, Page{
		Path:       note.Path,
		Content:    string(content),
		ModTime:    fileModTime(note.Path),
		RootPrefix: rootPrefix,
		Resolver:   &vaultResolver{vault: v, rootPrefix: rootPrefix},
	})
	if err != nil {
		return res, err
	}

	res.Title = page.Title
	res.Diagnostics = page.Diagnostics
	if !page.Published {
		res.Skipped = true
		b.opts.logger.Info("page skipped", slog.String("note", note.Path), slog.String("reason", "publish: false"))
		return res, nil
	}

	for _, d := range page.Diagnostics {
		b.opts.logger.Warn(d.Message,
			slog.String("note", note.Path),
			slog.Int("line", d.Line),
			slog.String("source", d.Source))
	}

	key := b.pageKey(out)
	if first, taken := pages[key]; taken {
		return res, fmt.Errorf("%w: %s (written from %s)", ErrPageConflict, out, first)
	}
	if err := fileutil.WriteFile(out, page.HTML); err != nil {
		return res, fmt.Errorf("%w: %v", ErrWritePage, err)
	}
	pages[key] = note.Path
	res.Output = out
	b.opts.logger.Debug("page written", slog.String("note", note.Path), slog.String("output", out))
	return res, nil
}

// writeShared writes styles.css and highlight.css unless the vault ships its
// own at the root, then copies KaTeX when configured. A missing or
// incomplete KaTeX directory is a warning.
func (b *Builder) writeShared(v *vault.Vault, report *BuildReport) {
	generated := []struct {
		name    string
		content string
	}{
		{assets.StylesheetFile, b.stylesheet},
		{assets.HighlightFile, b.highlight},
	}
	for _, g := range generated {
		if v.Has(g.name) {
			continue
		}
		dst := filepath.Join(b.outputDir, g.name)
		if err := fileutil.WriteFile(dst, []byte(g.content)); err != nil {
			report.fail(dst, fmt.Errorf("%w: %v", ErrSharedAsset, err))
			continue
		}
		report.Shared = append(report.Shared, FileResult{Output: dst})
	}

	if b.opts.katexDir == "" {
		return
	}
	err := assets.CopyKatex(b.opts.katexDir, b.outputDir, func(src, dst string) {
		report.Shared = append(report.Shared, FileResult{Source: src, Output: dst})
	})
	if err != nil {
		b.opts.logger.Warn("KaTeX not copied", slog.String("dir", b.opts.katexDir), slog.Any("error", err))
		report.warn(b.opts.katexDir, err)
	}
}

func (b *Builder) normalize(ctx context.Context, report *BuildReport) error {
	opts := []dirnorm.Option{dirnorm.WithLogger(b.opts.logger)}
	if b.opts.normalizeIgnore != nil {
		opts = append(opts, dirnorm.WithIgnore(b.opts.normalizeIgnore))
	}

	if !fileutil.DirExists(b.outputDir) {
		// empty vault, nothing written
		return ctx.Err()
	}

	dirs, err := dirnorm.New(opts...).Normalize(ctx, b.outputDir)
	report.Directories = dirs
	if err != nil {
		return err
	}

	for _, res := range dirs.Results {
		switch res.Outcome {
		case dirnorm.SkippedCollision:
			report.warn(res.Path, res.Err)
		case dirnorm.FailedRecoverable:
			report.fail(res.Path, res.Err)
		}
	}
	return nil
}

// vaultResolver resolves wiki-links against the scanned vault, relative to
// the page being compiled.
type vaultResolver struct {
	vault      *vault.Vault
	rootPrefix string
}

func (r *vaultResolver) ResolveWikiLink(target string) (string, bool) {
	e, ok := r.vault.Resolve(target)
	if !ok {
		return "", false
	}
	return r.rootPrefix + pathmap.LinkPath(e.Rel), true
}

func fileModTime(p string) (t time.Time) {
	if info, err := os.Stat(p); err == nil {
		t = info.ModTime()
	}
	return t
}

// pageKey identifies the page a path ends up as once directories are
// lower-cased.
func (b *Builder) pageKey(out string) string {
	if b.opts.normalize {
		return strings.ToLower(out)
	}
	return out
}

// reuseNormalized maps dst onto directories that an earlier build already
// lower-cased. Without it a rebuild recreates "Sub Folder" next to
// "sub folder" and the normalizer then reports them as a collision. A
// segment is only redirected when its original-case directory is absent.
func (b *Builder) reuseNormalized(dst string) string {
	if !b.opts.normalize {
		return dst
	}
	rel, err := filepath.Rel(b.outputDir, dst)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return dst
	}
	ignore := b.opts.normalizeIgnore
	if ignore == nil {
		ignore = dirnorm.DefaultIgnore
	}

	parts := strings.Split(rel, string(filepath.Separator))
	cur := b.outputDir
	for _, seg := range parts[:len(parts)-1] {
		next := filepath.Join(cur, seg)
		lower := strings.ToLower(seg)
		if lower != seg && !slices.Contains(ignore, seg) {
			if _, err := os.Lstat(next); err != nil && fileutil.DirExists(filepath.Join(cur, lower)) {
				next = filepath.Join(cur, lower)
			}
		}
		cur = next
	}
	return filepath.Join(cur, parts[len(parts)-1])
}

// containsPath reports whether child is parent or lies below it.
func containsPath(parent, child string) bool {
	absParent, errP := filepath.Abs(parent)
	absChild, errC := filepath.Abs(child)
	if errP != nil || errC != nil {
		return parent == child
	}
	rel, err := filepath.Rel(absParent, absChild)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
