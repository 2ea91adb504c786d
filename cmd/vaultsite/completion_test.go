package main

// Notes:
// - GenerateCompletion: we test that shell scripts are generated with expected
//   content markers. We do not test that the scripts actually work in the
//   target shell (that would require integration tests with actual shells).
// - getCommands: we test the command definitions are complete and correct.
// These are acceptable gaps: we test observable behavior, not runtime shell behavior.

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestGenerateCompletion_SupportedShells - Shell completion script generation
// ---------------------------------------------------------------------------

func TestGenerateCompletion_SupportedShells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		shell        Shell
		wantContains []string
	}{
		{
			name:  "bash",
			shell: ShellBash,
			wantContains: []string{
				"_vaultsite_completions",
				"complete -F _vaultsite_completions vaultsite",
				"compgen -d",
				"build",
				"--output",
				"--highlight-style)",
				"-o|--output)",
			},
		},
		{
			name:  "zsh",
			shell: ShellZsh,
			wantContains: []string{
				"#compdef vaultsite",
				"_arguments",
				"_describe 'command' commands",
				"'(-o --output)'{-o,--output}",
				"'1:vault:_directories'",
				"_values 'completion' bash zsh fish",
			},
		},
		{
			name:  "fish",
			shell: ShellFish,
			wantContains: []string{
				"complete -c vaultsite",
				"__fish_vaultsite_needs_command",
				"__fish_vaultsite_using_command build",
				"-s o -l output",
				"-l no-normalize",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			if err := GenerateCompletion(&buf, tt.shell); err != nil {
				t.Fatalf("GenerateCompletion(%q) returned error: %v", tt.shell, err)
			}

			output := buf.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(output, want) {
					t.Errorf("output missing expected content %q", want)
				}
			}
			for _, c := range getCommands() {
				if !strings.Contains(output, c.Name) {
					t.Errorf("output missing command %q", c.Name)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestGenerateCompletion_UnsupportedShell - Error handling for unknown shells
// ---------------------------------------------------------------------------

func TestGenerateCompletion_UnsupportedShell(t *testing.T) {
	t.Parallel()

	for _, shell := range []Shell{"", "sh", "powershell"} {
		t.Run(string(shell), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			err := GenerateCompletion(&buf, shell)
			if !errors.Is(err, ErrUnsupportedShell) {
				t.Errorf("GenerateCompletion(%q) error = %v, want ErrUnsupportedShell", shell, err)
			}
			if buf.Len() != 0 {
				t.Errorf("unsupported shell wrote %d bytes", buf.Len())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunCompletion - Command entry point
// ---------------------------------------------------------------------------

func TestRunCompletion(t *testing.T) {
	t.Parallel()

	t.Run("no args prints usage", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer
		env := &Environment{Now: time.Now, Stdout: &stdout, Stderr: &bytes.Buffer{}}
		if err := runCompletion(nil, env); err != nil {
			t.Fatalf("runCompletion() error = %v", err)
		}
		if !strings.Contains(stdout.String(), "Usage: vaultsite completion") {
			t.Errorf("stdout = %q, want usage", stdout.String())
		}
	})

	t.Run("invalid shell", func(t *testing.T) {
		t.Parallel()

		env := &Environment{Now: time.Now, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
		if err := runCompletion([]string{"tcsh"}, env); !errors.Is(err, ErrUnsupportedShell) {
			t.Errorf("runCompletion(tcsh) error = %v, want ErrUnsupportedShell", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestGetCommands - Command registry
// ---------------------------------------------------------------------------

func TestGetCommands(t *testing.T) {
	t.Parallel()

	cmds := getCommands()
	var names []string
	for _, c := range cmds {
		names = append(names, c.Name)
		if !isCommand(c.Name) {
			t.Errorf("completion lists %q, which runMain does not dispatch", c.Name)
		}
	}
	if len(names) != 5 {
		t.Errorf("got commands %v, want 5", names)
	}

	build := cmds[slices.IndexFunc(cmds, func(c commandDef) bool { return c.Name == "build" })]
	if !build.TakesDir {
		t.Error("build should take a vault directory")
	}

	byName := map[string]flagDef{}
	for _, f := range build.Flags {
		byName[f.Long] = f
	}
	tests := []struct {
		flag string
		want flagType
	}{
		{"output", flagDir},
		{"katex-dir", flagDir},
		{"asset-path", flagDir},
		{"config", flagFile},
		{"highlight-style", flagEnum},
		{"date-format", flagEnum},
		{"no-normalize", flagBool},
		{"verbose", flagBool},
		{"run-cmd", flagString},
	}
	for _, tt := range tests {
		f, ok := byName[tt.flag]
		if !ok {
			t.Errorf("build flags missing --%s", tt.flag)
			continue
		}
		if f.Type != tt.want {
			t.Errorf("--%s type = %d, want %d", tt.flag, f.Type, tt.want)
		}
	}
	if !slices.Contains(byName["highlight-style"].Values, "github") {
		t.Errorf("highlight-style values should include github, got %v", byName["highlight-style"].Values)
	}
}

// ---------------------------------------------------------------------------
// TestZshEscape - Description escaping
// ---------------------------------------------------------------------------

func TestZshEscape(t *testing.T) {
	t.Parallel()

	got := zshEscape("glob [x]: it's")
	want := `glob \[x\]\: it'\''s`
	if got != want {
		t.Errorf("zshEscape() = %q, want %q", got, want)
	}
}
