package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	vaultsite "github.com/alnah/go-vaultsite"
	"github.com/alnah/go-vaultsite/internal/assets"
	"github.com/alnah/go-vaultsite/internal/config"
	"github.com/alnah/go-vaultsite/internal/dirnorm"
	"github.com/alnah/go-vaultsite/internal/fileutil"
	"github.com/alnah/go-vaultsite/internal/hints"
	"github.com/alnah/go-vaultsite/internal/pipeline"
	"github.com/alnah/go-vaultsite/internal/runner"
)

// ErrBuildFailed indicates the build finished but some files failed.
var ErrBuildFailed = errors.New("build finished with failures")

// runBuild executes the build command.
func runBuild(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseBuildFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printBuildUsage(env.Stdout)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: expected one vault directory, got %d arguments", ErrUsage, len(positional))
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	cfg, err := loadConfig(flags.common.config, envCfg.ConfigPath, env)
	if err != nil {
		return err
	}

	// CLI flags > env vars > config file > defaults
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, positional, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common)
	opts, err := builderOptions(cfg, logger)
	if err != nil {
		return err
	}

	builder, err := vaultsite.NewBuilder(cfg.Input.VaultDir, cfg.Output.Dir, opts...)
	if err != nil {
		return withHint(err)
	}

	start := env.Now()
	report, err := builder.Build(ctx)
	if report != nil {
		printReport(report, flags.common, env, env.Now().Sub(start))
	}
	if err != nil {
		return withHint(err)
	}
	if len(report.Failures) > 0 {
		return &buildError{failed: len(report.Failures), err: report.Err(), hint: failureHint(report)}
	}
	return nil
}

// loadConfig returns the config named by --config, then VAULTSITE_CONFIG,
// else the environment's default config.
func loadConfig(flagName, envName string, env *Environment) (*config.Config, error) {
	name := flagName
	if name == "" {
		name = envName
	}
	if name == "" {
		if env.Config != nil {
			return env.Config, nil
		}
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(configCandidates(name)))
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// configCandidates lists the .yaml paths LoadConfig searches for a config name.
func configCandidates(name string) []string {
	if fileutil.IsFilePath(name) {
		return nil
	}
	paths := []string{name + ".yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "go-vaultsite", name+".yaml"))
	}
	return paths
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *buildFlags, positional []string, cfg *config.Config) {
	if len(positional) > 0 {
		cfg.Input.VaultDir = positional[0]
	}
	if flags.output != "" {
		cfg.Output.Dir = flags.output
	}
	if len(flags.exclude) > 0 {
		cfg.Input.Exclude = append(cfg.Input.Exclude, flags.exclude...)
	}
	if flags.noNormalize {
		cfg.Normalize.Enabled = false
	}

	// Rendering
	if flags.render.highlightStyle != "" {
		cfg.Render.HighlightStyle = flags.render.highlightStyle
	}
	if flags.render.dateFormat != "" {
		cfg.Render.DateFormat = flags.render.dateFormat
	}

	// Assets
	if flags.assets.style != "" {
		cfg.Assets.Style = flags.assets.style
	}
	if flags.assets.assetPath != "" {
		cfg.Assets.BasePath = flags.assets.assetPath
	}
	if flags.assets.katexDir != "" {
		cfg.Assets.KatexDir = flags.assets.katexDir
	}

	// Code blocks
	if cmd := strings.Fields(flags.run.command); len(cmd) > 0 {
		cfg.Run.Command = cmd
	}
	if flags.run.timeout != "" {
		cfg.Run.Timeout = flags.run.timeout
	}
}

// newLogger returns a text logger on w: INFO by default, DEBUG with
// --verbose, WARN with --quiet.
func newLogger(w io.Writer, f commonFlags) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case f.verbose:
		level = slog.LevelDebug
	case f.quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// builderOptions translates a validated config into builder options.
func builderOptions(cfg *config.Config, logger *slog.Logger) ([]vaultsite.Option, error) {
	opts := []vaultsite.Option{
		vaultsite.WithLogger(logger),
		vaultsite.WithRenderOptions(vaultsite.RenderOptions{
			HighlightStyle: cfg.Render.HighlightStyle,
			RawHTML:        cfg.Render.RawHTML,
			HardWraps:      cfg.Render.HardWraps,
		}),
		vaultsite.WithStyle(cfg.Assets.Style),
		vaultsite.WithExclude(cfg.Input.Exclude),
		vaultsite.WithNormalize(cfg.Normalize.Enabled),
		vaultsite.WithNormalizeIgnore(cfg.Normalize.Ignore),
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, vaultsite.WithAssetPath(cfg.Assets.BasePath))
	}
	if cfg.Assets.KatexDir != "" {
		opts = append(opts, vaultsite.WithKatexDir(cfg.Assets.KatexDir))
	}
	if cfg.Render.DateFormat != "" {
		opts = append(opts, vaultsite.WithDateFormat(cfg.Render.DateFormat))
	}

	if len(cfg.Run.Command) > 0 {
		r, err := runner.New(cfg.Run.Command,
			runner.WithExtension(strings.TrimPrefix(cfg.Run.Extension, ".")),
			runner.WithTimeout(cfg.Run.TimeoutDuration()),
			runner.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: run.command: %v", config.ErrInvalidValue, err)
		}
		opts = append(opts, vaultsite.WithRunner(r))
	}
	return opts, nil
}

// printReport outputs build results using the environment writers.
// Failures always go to stderr; everything else respects --quiet.
func printReport(r *vaultsite.BuildReport, f commonFlags, env *Environment, elapsed time.Duration) {
	skipped := 0
	for _, p := range r.Pages {
		if p.Skipped {
			skipped++
			if f.verbose {
				fmt.Fprintf(env.Stdout, "skipped %s (publish: false)\n", p.Source)
			}
			continue
		}
		if !f.quiet {
			fmt.Fprintf(env.Stdout, "wrote %s\n", p.Output)
		}
	}

	if f.verbose {
		for _, a := range r.Assets {
			fmt.Fprintf(env.Stdout, "copied %s -> %s\n", a.Source, a.Output)
		}
		for _, s := range r.Shared {
			if s.Source == "" {
				fmt.Fprintf(env.Stdout, "wrote %s\n", s.Output)
			} else {
				fmt.Fprintf(env.Stdout, "copied %s -> %s\n", s.Source, s.Output)
			}
		}
	}

	for _, p := range r.Failures {
		fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", p.Path, p.Err)
	}
	if !f.quiet {
		for _, w := range r.Warnings {
			hint := ""
			if errors.Is(w.Err, assets.ErrKatexDir) {
				hint = hints.ForKatex()
			}
			fmt.Fprintf(env.Stderr, "warning: %s%s\n", w, hint)
		}
		if n := notRunBlocks(r); n > 0 {
			fmt.Fprintf(env.Stderr, "warning: %d page(s) have code blocks marked run that were not executed%s\n", n, hints.ForRunner())
		}
	}

	if f.quiet {
		return
	}
	renamed := 0
	if r.Directories != nil {
		renamed = r.Directories.Count(dirnorm.Renamed)
	}
	fmt.Fprintf(env.Stdout, "\n%d pages, %d skipped, %d files copied, %d directories renamed, %d failed (%v)\n",
		len(r.Pages)-skipped, skipped, len(r.Assets), renamed, len(r.Failures), elapsed.Round(time.Millisecond))
}

// notRunBlocks counts written pages whose runnable blocks were left as-is
// because no runner is configured.
func notRunBlocks(r *vaultsite.BuildReport) int {
	n := 0
	for _, p := range r.Pages {
		for _, d := range p.Diagnostics {
			if d.Source == pipeline.SourceRunCode && !d.Fatal {
				n++
				break
			}
		}
	}
	return n
}

// buildError reports a finished build with per-file failures. The failures
// themselves were already printed; the message only counts them.
type buildError struct {
	failed int
	err    error
	hint   string
}

func (e *buildError) Error() string {
	return fmt.Sprintf("%s: %d failed%s", ErrBuildFailed, e.failed, e.hint)
}

func (e *buildError) Unwrap() []error {
	return []error{ErrBuildFailed, e.err}
}

// failureHint picks a hint from the first failure it recognizes.
func failureHint(r *vaultsite.BuildReport) string {
	for _, p := range r.Failures {
		for _, d := range vaultsite.ErrorDiagnostics(p.Err) {
			if d.Source != pipeline.SourceRunCode || !d.Fatal {
				continue
			}
			if strings.Contains(d.Message, runner.ErrRunTimeout.Error()) {
				return hints.ForRunTimeout()
			}
			return hints.ForRunner()
		}
		if errors.Is(p.Err, vaultsite.ErrWritePage) || errors.Is(p.Err, vaultsite.ErrSharedAsset) {
			return hints.ForOutputDirectory()
		}
	}
	return ""
}

// withHint appends a hint to errors that have one.
func withHint(err error) error {
	switch {
	case errors.Is(err, vaultsite.ErrVaultWalk):
		return fmt.Errorf("%w%s", err, hints.ForVaultNotFound())
	case errors.Is(err, vaultsite.ErrStyleNotFound):
		return fmt.Errorf("%w%s", err, hints.ForStyleNotFound([]string{assets.DefaultStyleName}))
	case errors.Is(err, vaultsite.ErrEmptyVault):
		return fmt.Errorf("%w%s", err, hints.ForVaultNotFound())
	}
	return err
}
