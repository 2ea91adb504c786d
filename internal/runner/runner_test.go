package runner

// Notes:
// - Execution tests use /bin/sh as the interpreter so they run without Node.
//   They are skipped when sh is not on PATH (Windows CI).

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-vaultsite/internal/pipeline"
)

func newShellRunner(t *testing.T, opts ...Option) *ExecRunner {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r, err := New([]string{"sh"}, append([]Option{WithExtension("sh")}, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return r
}

// ---------------------------------------------------------------------------
// TestNew - Construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("New(nil) error = %v, want ErrEmptyCommand", err)
	}
	if _, err := New([]string{" "}); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("New(blank) error = %v, want ErrEmptyCommand", err)
	}
	if _, err := New([]string{"node"}, WithExtension("../x")); err == nil {
		t.Error("New() with unsafe extension: expected error")
	}

	r, err := New([]string{"node"}, WithExtension(".mjs"), WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if r.extension != "mjs" || r.timeout != time.Second {
		t.Errorf("options not applied: ext=%q timeout=%v", r.extension, r.timeout)
	}
}

// ---------------------------------------------------------------------------
// TestExecRunner_Run - Process execution
// ---------------------------------------------------------------------------

func TestExecRunner_Run(t *testing.T) {
	t.Parallel()

	r := newShellRunner(t)
	out, err := r.Run(context.Background(), pipeline.RunRequest{
		Lang:       "sh",
		Code:       "echo '**generated**'\necho \"from $" + SourceEnv + "\"\n",
		SourcePath: "notes/page.md",
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if out != "**generated**\nfrom notes/page.md\n" {
		t.Errorf("Run() = %q", out)
	}
}

func TestExecRunner_Run_TempFileRemoved(t *testing.T) {
	t.Parallel()

	r := newShellRunner(t)
	out, err := r.Run(context.Background(), pipeline.RunRequest{Code: "echo \"$0\""})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	script := strings.TrimSpace(out)
	if !strings.Contains(script, "vaultsite-run-") {
		t.Fatalf("script path = %q", script)
	}
	if _, err := os.Stat(script); !os.IsNotExist(err) {
		t.Errorf("temp script %s still exists", script)
	}
}

func TestExecRunner_Run_Failure(t *testing.T) {
	t.Parallel()

	r := newShellRunner(t)
	_, err := r.Run(context.Background(), pipeline.RunRequest{Code: "echo boom >&2\nexit 3\n"})
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("Run() error = %v, want ErrRunFailed", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q does not carry stderr", err)
	}
}

func TestExecRunner_Run_Timeout(t *testing.T) {
	t.Parallel()

	r := newShellRunner(t, WithTimeout(100*time.Millisecond))
	start := time.Now()
	_, err := r.Run(context.Background(), pipeline.RunRequest{Code: "sleep 10\n"})
	if !errors.Is(err, ErrRunTimeout) {
		t.Fatalf("Run() error = %v, want ErrRunTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %v", elapsed)
	}
}

func TestExecRunner_Run_Canceled(t *testing.T) {
	t.Parallel()

	r := newShellRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, pipeline.RunRequest{Code: "echo x\n"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestExcerpt(t *testing.T) {
	t.Parallel()

	if got := excerpt("  short \n"); got != "short" {
		t.Errorf("excerpt() = %q", got)
	}
	long := strings.Repeat("e", maxStderr+10)
	if got := excerpt(long); len(got) != maxStderr+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt() length = %d", len(got))
	}
}
