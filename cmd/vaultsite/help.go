package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vaultsite <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build       Build an Obsidian vault into a static HTML site")
	fmt.Fprintln(w, "  doctor      Check the build environment")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'vaultsite help <command>' for details on a specific command.")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vaultsite build [vault] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build every note of a vault into an HTML page and copy the other files.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  vault     Vault directory (default: input.vaultDir, \"notes\")")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>          Output directory (default: output.dir, \"out\")")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "  -x, --exclude <glob>        Vault paths to skip, repeatable")
	fmt.Fprintln(w, "      --no-normalize          Keep output directory names as in the vault")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --highlight-style <s>   Chroma style for code blocks (default: github)")
	fmt.Fprintln(w, "      --date-format <s>       Page date: iso, european, us, long or tokens")
	fmt.Fprintln(w, "                              Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Assets:")
	fmt.Fprintln(w, "      --style <name>          Stylesheet name (default: default)")
	fmt.Fprintln(w, "      --asset-path <dir>      Directory with styles/ and templates/ overrides")
	fmt.Fprintln(w, "      --katex-dir <dir>       KaTeX dist/ directory, copied to the site")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Code Blocks:")
	fmt.Fprintln(w, "      --run-cmd <cmd>         Interpreter for code blocks marked run (e.g. \"node\")")
	fmt.Fprintln(w, "      --run-timeout <d>       Timeout per code block (e.g. 10s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                 Only show errors")
	fmt.Fprintln(w, "  -v, --verbose               Show copied files and debug logs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  VAULTSITE_CONFIG, VAULTSITE_VAULT_DIR, VAULTSITE_OUTPUT_DIR, VAULTSITE_STYLE,")
	fmt.Fprintln(w, "  VAULTSITE_HIGHLIGHT_STYLE, VAULTSITE_KATEX_DIR, VAULTSITE_RUN_TIMEOUT")
}

// runHelp prints help for a specific command.
// Returns false when the topic is unknown.
func runHelp(args []string, env *Environment) bool {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return true
	}

	switch args[0] {
	case "build":
		printBuildUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: vaultsite version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: vaultsite help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return false
	}
	return true
}
