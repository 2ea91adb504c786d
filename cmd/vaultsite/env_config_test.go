package main

// Notes:
// - loadEnvConfig: invalid and negative timeouts are ignored, not errors.
// - warnUnknownEnvVars: we test typo detection and that known vars don't warn.
// - applyEnvConfig: set variables override config values, unset ones keep them.
// - Tests use t.Setenv() which prevents t.Parallel().
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-vaultsite/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("VAULTSITE_CONFIG", "site")
	t.Setenv("VAULTSITE_VAULT_DIR", "/vault")
	t.Setenv("VAULTSITE_OUTPUT_DIR", "/public")
	t.Setenv("VAULTSITE_STYLE", "default")
	t.Setenv("VAULTSITE_HIGHLIGHT_STYLE", "monokai")
	t.Setenv("VAULTSITE_KATEX_DIR", "/katex/dist")
	t.Setenv("VAULTSITE_RUN_TIMEOUT", "30s")

	cfg := loadEnvConfig()

	checks := []struct {
		name, got, want string
	}{
		{"ConfigPath", cfg.ConfigPath, "site"},
		{"VaultDir", cfg.VaultDir, "/vault"},
		{"OutputDir", cfg.OutputDir, "/public"},
		{"Style", cfg.Style, "default"},
		{"HighlightStyle", cfg.HighlightStyle, "monokai"},
		{"KatexDir", cfg.KatexDir, "/katex/dist"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if cfg.RunTimeout != 30*time.Second {
		t.Errorf("RunTimeout = %v, want 30s", cfg.RunTimeout)
	}
}

func TestLoadEnvConfig_InvalidTimeout(t *testing.T) {
	for _, value := range []string{"soon", "-5s", "0s"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("VAULTSITE_RUN_TIMEOUT", value)
			if got := loadEnvConfig().RunTimeout; got != 0 {
				t.Errorf("RunTimeout = %v, want 0 for %q", got, value)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("VAULTSITE_OUTPUT", "/typo")
	t.Setenv("VAULTSITE_OUTPUT_DIR", "/public")
	t.Setenv("VAULTSITE_SOURCE", "notes/a.md")

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf)
	out := buf.String()

	if !strings.Contains(out, "unknown environment variable VAULTSITE_OUTPUT (typo?)") {
		t.Errorf("expected typo warning, got %q", out)
	}
	if strings.Contains(out, "VAULTSITE_OUTPUT_DIR") {
		t.Errorf("known variable should not warn, got %q", out)
	}
	if strings.Contains(out, "VAULTSITE_SOURCE") {
		t.Errorf("runner variable should not warn, got %q", out)
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env overrides
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("set values override config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		applyEnvConfig(&envConfig{
			VaultDir:       "/vault",
			OutputDir:      "/public",
			Style:          "custom",
			HighlightStyle: "dracula",
			KatexDir:       "/katex",
			RunTimeout:     2 * time.Minute,
		}, cfg)

		if cfg.Input.VaultDir != "/vault" || cfg.Output.Dir != "/public" {
			t.Errorf("dirs = %q, %q", cfg.Input.VaultDir, cfg.Output.Dir)
		}
		if cfg.Assets.Style != "custom" || cfg.Assets.KatexDir != "/katex" {
			t.Errorf("assets = %+v", cfg.Assets)
		}
		if cfg.Render.HighlightStyle != "dracula" {
			t.Errorf("HighlightStyle = %q, want dracula", cfg.Render.HighlightStyle)
		}
		if cfg.Run.TimeoutDuration() != 2*time.Minute {
			t.Errorf("Run.Timeout = %q, want 2m0s", cfg.Run.Timeout)
		}
	})

	t.Run("unset values keep config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Output.Dir = "site"
		applyEnvConfig(&envConfig{}, cfg)

		if cfg.Output.Dir != "site" || cfg.Input.VaultDir != "notes" {
			t.Errorf("dirs = %q, %q, want notes, site", cfg.Input.VaultDir, cfg.Output.Dir)
		}
		if cfg.Run.Timeout != "" {
			t.Errorf("Run.Timeout = %q, want empty", cfg.Run.Timeout)
		}
	})
}
