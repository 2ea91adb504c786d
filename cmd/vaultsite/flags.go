package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds page rendering flags.
type renderFlags struct {
	highlightStyle string
	dateFormat     string
}

// assetFlags holds shared asset flags.
type assetFlags struct {
	style     string
	assetPath string
	katexDir  string
}

// runFlags holds code block execution flags.
type runFlags struct {
	command string // split on whitespace
	timeout string
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common      commonFlags
	output      string
	exclude     []string
	noNormalize bool
	render      renderFlags
	assets      assetFlags
	run         runFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show copied files and debug logs")
}

// addRenderFlags adds rendering flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.highlightStyle, "highlight-style", "", "chroma style for code blocks")
	fs.StringVar(&f.dateFormat, "date-format", "", "page date format: preset or tokens")
}

// addAssetFlags adds asset flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.style, "style", "", "stylesheet name")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.katexDir, "katex-dir", "", "KaTeX dist directory to copy")
}

// addRunFlags adds code block execution flags to a FlagSet.
func addRunFlags(fs *flag.FlagSet, f *runFlags) {
	fs.StringVar(&f.command, "run-cmd", "", "interpreter for runnable code blocks (e.g. \"node\")")
	fs.StringVar(&f.timeout, "run-timeout", "", "timeout per code block (e.g. 10s)")
}

// newBuildFlagSet registers every build flag on a new FlagSet bound to f.
// Shared by parseBuildFlags and the completion generator.
func newBuildFlagSet(f *buildFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringArrayVarP(&f.exclude, "exclude", "x", nil, "glob of vault paths to skip (repeatable)")
	fs.BoolVar(&f.noNormalize, "no-normalize", false, "keep output directory names as in the vault")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addAssetFlags(fs, &f.assets)
	addRunFlags(fs, &f.run)

	return fs
}

// parseBuildFlags parses build command flags and returns positional args.
// Parse errors are printed by the caller; pflag's own output is discarded.
func parseBuildFlags(args []string) (*buildFlags, []string, error) {
	f := &buildFlags{}
	fs := newBuildFlagSet(f)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
