// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"strings"

	"github.com/alnah/go-vaultsite/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and the user config path among searchedPaths.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, "go-vaultsite") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output write errors.
func ForOutputDirectory() string {
	return format("check the output directory is writable and not inside a read-only mount")
}

// ForVaultNotFound returns hints when the vault directory cannot be read.
func ForVaultNotFound() string {
	return format("pass the vault directory as argument or set input.vaultDir")
}

// ForStyleNotFound returns hints for unknown style names.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForRunner returns hints when runnable code blocks fail or no runner is set.
// Inside a container the interpreter is often missing from the image.
func ForRunner() string {
	hints := []string{`set run.command (e.g. ["node"]) or --run-cmd`}
	if IsInContainer() {
		hints = append(hints, "install the interpreter in the container image")
	}
	return formatHints(hints)
}

// ForRunTimeout returns a hint about raising the code block timeout.
func ForRunTimeout() string {
	return format("raise run.timeout for slow code blocks")
}

// ForKatex returns hints for a missing or incomplete KaTeX directory.
func ForKatex() string {
	return format("point assets.katexDir at the dist/ directory of the katex npm package")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
