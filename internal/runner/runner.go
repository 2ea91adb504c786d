// Package runner executes runnable code blocks in an external interpreter.
//
// Each block is written to its own temp file and passed as the last argument
// to the configured command, e.g. ["node"] runs `node /tmp/vaultsite-run-3-*.js`.
// Whatever the program prints on stdout is the Markdown that replaces the
// block.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alnah/go-vaultsite/internal/fileutil"
	"github.com/alnah/go-vaultsite/internal/pipeline"
	"github.com/alnah/go-vaultsite/internal/process"
)

// Sentinel errors.
var (
	ErrEmptyCommand = errors.New("run command is empty")
	ErrRunFailed    = errors.New("code block failed")
	ErrRunTimeout   = errors.New("code block timed out")
)

// DefaultExtension is used when no extension is configured.
const DefaultExtension = "js"

// SourceEnv names the environment variable holding the note being rendered.
const SourceEnv = "VAULTSITE_SOURCE"

// waitDelay bounds how long Wait blocks on inherited pipes after a kill.
const waitDelay = 2 * time.Second

// maxStderr caps the stderr excerpt carried in errors.
const maxStderr = 512

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithExtension sets the temp file extension (without dot).
func WithExtension(ext string) Option {
	return func(r *ExecRunner) {
		r.extension = strings.TrimPrefix(ext, ".")
	}
}

// WithTimeout bounds a single block. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(r *ExecRunner) {
		r.timeout = d
	}
}

// WithLogger sets the logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(r *ExecRunner) {
		if l != nil {
			r.logger = l
		}
	}
}

// ExecRunner implements pipeline.CodeRunner with os/exec. Safe for
// concurrent use.
type ExecRunner struct {
	command   []string
	extension string
	timeout   time.Duration
	logger    *slog.Logger
	seq       atomic.Uint64
}

var _ pipeline.CodeRunner = (*ExecRunner)(nil)

// New returns a runner for command (program followed by its fixed arguments).
func New(command []string, opts ...Option) (*ExecRunner, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, ErrEmptyCommand
	}

	r := &ExecRunner{
		command:   append([]string(nil), command...),
		extension: DefaultExtension,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := fileutil.ValidateExtension(r.extension); err != nil {
		return nil, fmt.Errorf("run extension: %w", err)
	}
	return r, nil
}

// Run executes req.Code and returns its stdout.
func (r *ExecRunner) Run(ctx context.Context, req pipeline.RunRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prefix := fmt.Sprintf("vaultsite-run-%d", r.seq.Add(1))
	script, cleanup, err := fileutil.WriteTempFile(prefix, req.Code, r.extension)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRunFailed, err)
	}
	defer cleanup()

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := append(append([]string(nil), r.command[1:]...), script)
	cmd := exec.CommandContext(runCtx, r.command[0], args...) // #nosec G204 -- command comes from the site configuration
	process.SetProcessGroup(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = waitDelay
	cmd.Env = append(os.Environ(), SourceEnv+"="+req.SourcePath)
	if dir := filepath.Dir(req.SourcePath); req.SourcePath != "" && fileutil.DirExists(dir) {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	r.logger.Debug("code block executed",
		slog.String("source", req.SourcePath),
		slog.String("lang", req.Lang),
		slog.Duration("elapsed", time.Since(start)))

	if runErr != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrRunTimeout, r.timeout)
		}
		if msg := excerpt(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %v: %s", ErrRunFailed, runErr, msg)
		}
		return "", fmt.Errorf("%w: %v", ErrRunFailed, runErr)
	}
	return stdout.String(), nil
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[:maxStderr] + "..."
	}
	return s
}
