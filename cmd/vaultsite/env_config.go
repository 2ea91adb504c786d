package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alnah/go-vaultsite/internal/config"
	"github.com/alnah/go-vaultsite/internal/runner"
)

// envPrefix is the prefix shared by every vaultsite environment variable.
const envPrefix = "VAULTSITE_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath     string        // VAULTSITE_CONFIG: config file name or path
	VaultDir       string        // VAULTSITE_VAULT_DIR: vault to build
	OutputDir      string        // VAULTSITE_OUTPUT_DIR: site output directory
	Style          string        // VAULTSITE_STYLE: stylesheet name
	HighlightStyle string        // VAULTSITE_HIGHLIGHT_STYLE: chroma style name
	KatexDir       string        // VAULTSITE_KATEX_DIR: KaTeX dist directory
	RunTimeout     time.Duration // VAULTSITE_RUN_TIMEOUT: timeout per code block
}

// knownEnvVars lists valid VAULTSITE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"VAULTSITE_CONFIG":          true,
	"VAULTSITE_VAULT_DIR":       true,
	"VAULTSITE_OUTPUT_DIR":      true,
	"VAULTSITE_STYLE":           true,
	"VAULTSITE_HIGHLIGHT_STYLE": true,
	"VAULTSITE_KATEX_DIR":       true,
	"VAULTSITE_RUN_TIMEOUT":     true,
	"VAULTSITE_CONTAINER":       true, // read by doctor
	// Set by the code runner for its child processes, which may be vaultsite.
	runner.SourceEnv: true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:     os.Getenv("VAULTSITE_CONFIG"),
		VaultDir:       os.Getenv("VAULTSITE_VAULT_DIR"),
		OutputDir:      os.Getenv("VAULTSITE_OUTPUT_DIR"),
		Style:          os.Getenv("VAULTSITE_STYLE"),
		HighlightStyle: os.Getenv("VAULTSITE_HIGHLIGHT_STYLE"),
		KatexDir:       os.Getenv("VAULTSITE_KATEX_DIR"),
	}

	// Invalid or negative durations are ignored.
	if timeout := os.Getenv("VAULTSITE_RUN_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.RunTimeout = d
		}
	}

	return cfg
}

// warnUnknownEnvVars writes a warning for each unrecognized VAULTSITE_* variable.
// Helps catch typos like VAULTSITE_OUTPUT instead of VAULTSITE_OUTPUT_DIR.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Set variables override the config file, which always carries defaults.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.VaultDir != "" {
		cfg.Input.VaultDir = env.VaultDir
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Style != "" {
		cfg.Assets.Style = env.Style
	}
	if env.HighlightStyle != "" {
		cfg.Render.HighlightStyle = env.HighlightStyle
	}
	if env.KatexDir != "" {
		cfg.Assets.KatexDir = env.KatexDir
	}
	if env.RunTimeout > 0 {
		cfg.Run.Timeout = env.RunTimeout.String()
	}
}
