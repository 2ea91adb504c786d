// Package dirnorm lower-cases directory names in a generated output tree.
//
// Normalization runs in two strict phases. Every directory under the root is
// first enumerated into an immutable list, then the list is processed
// deepest-first so that renaming a parent never invalidates a stored child
// path. A failure on one directory never stops the others.
package dirnorm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sentinel errors recorded in Result.Err.
var (
	// ErrDirectoryCollision means the lower-case name is already taken by a
	// sibling directory. The directory is left as is.
	ErrDirectoryCollision = errors.New("lower-case directory already exists")

	// ErrDirectoryRename means the rename failed for any other reason.
	ErrDirectoryRename = errors.New("directory rename failed")
)

// DefaultIgnore lists directory names excluded from normalization:
// version control, package managers and vault metadata.
var DefaultIgnore = []string{".git", "node_modules", ".obsidian"}

// Outcome is the terminal state of one directory.
type Outcome int

const (
	// Unchanged means the name was already lower-case.
	Unchanged Outcome = iota
	// Renamed means the directory now has its lower-case name.
	Renamed
	// SkippedCollision means a sibling already owns the lower-case name.
	SkippedCollision
	// FailedRecoverable means the rename failed; processing continued.
	FailedRecoverable
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Renamed:
		return "renamed"
	case SkippedCollision:
		return "skipped-collision"
	case FailedRecoverable:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result records what happened to a single directory.
type Result struct {
	Path    string // directory path before normalization
	Target  string // lower-case path, empty when Unchanged
	Outcome Outcome
	Err     error // non-nil for SkippedCollision and FailedRecoverable
}

// RenameError wraps an I/O failure for one directory.
type RenameError struct {
	Path   string
	Target string
	Err    error
}

func (e *RenameError) Error() string {
	return fmt.Sprintf("%v: %s -> %s: %v", ErrDirectoryRename, e.Path, e.Target, e.Err)
}

// Unwrap allows errors.Is against both ErrDirectoryRename and the cause.
func (e *RenameError) Unwrap() []error {
	return []error{ErrDirectoryRename, e.Err}
}

// Report collects the results of one normalization pass, in processing order.
type Report struct {
	Results []Result
}

// Count returns how many directories ended in outcome o.
func (r *Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Normalizer renames output directories to lower case.
type Normalizer struct {
	ignore map[string]struct{}
	logger *slog.Logger
	rename func(oldPath, newPath string) error
	lstat  func(name string) (fs.FileInfo, error)
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithIgnore replaces the ignore set. Names are matched exactly against every
// path segment.
func WithIgnore(names []string) Option {
	return func(n *Normalizer) {
		n.ignore = make(map[string]struct{}, len(names))
		for _, name := range names {
			n.ignore[name] = struct{}{}
		}
	}
}

// WithLogger sets the logger used for per-directory reporting.
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithRenameFunc replaces os.Rename.
func WithRenameFunc(fn func(oldPath, newPath string) error) Option {
	return func(n *Normalizer) {
		if fn != nil {
			n.rename = fn
		}
	}
}

// New creates a Normalizer using DefaultIgnore unless overridden.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		rename: os.Rename,
		lstat:  os.Lstat,
	}
	WithIgnore(DefaultIgnore)(n)

	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize lower-cases every directory name below root, root excluded.
// Only enumeration failures and context cancellation are returned as errors;
// per-directory problems are recorded in the report.
func (n *Normalizer) Normalize(ctx context.Context, root string) (*Report, error) {
	dirs, err := n.collect(root)
	if err != nil {
		return nil, err
	}

	report := &Report{Results: make([]Result, 0, len(dirs))}
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Results = append(report.Results, n.normalizeOne(dir))
	}
	return report, nil
}

// collect enumerates directories below root, deepest first.
func (n *Normalizer) collect(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", p, err)
		}
		if !d.IsDir() || p == root {
			return nil
		}
		if _, ignored := n.ignore[d.Name()]; ignored {
			return fs.SkipDir
		}
		dirs = append(dirs, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})
	return dirs, nil
}

func depth(p string) int {
	return strings.Count(filepath.ToSlash(filepath.Clean(p)), "/")
}

func (n *Normalizer) normalizeOne(dir string) Result {
	name := filepath.Base(dir)
	lower := strings.ToLower(name)
	if name == lower {
		return Result{Path: dir, Outcome: Unchanged}
	}

	target := filepath.Join(filepath.Dir(dir), lower)
	res := Result{Path: dir, Target: target}

	taken, err := n.targetTaken(dir, target)
	if err != nil {
		res.Outcome = FailedRecoverable
		res.Err = &RenameError{Path: dir, Target: target, Err: err}
		n.logger.Error("failed to rename directory", "from", dir, "to", target, "error", err)
		return res
	}
	if taken {
		res.Outcome = SkippedCollision
		res.Err = fmt.Errorf("%w: %s", ErrDirectoryCollision, target)
		n.logger.Warn("skipping rename, target already exists", "from", dir, "to", target)
		return res
	}

	if err := n.rename(dir, target); err != nil {
		res.Outcome = FailedRecoverable
		res.Err = &RenameError{Path: dir, Target: target, Err: err}
		n.logger.Error("failed to rename directory", "from", dir, "to", target, "error", err)
		return res
	}

	res.Outcome = Renamed
	n.logger.Info("renamed directory", "from", dir, "to", target)
	return res
}

// targetTaken reports whether target exists as a different file than dir.
// On case-insensitive filesystems target resolves to dir itself, which is a
// plain case change and not a collision.
func (n *Normalizer) targetTaken(dir, target string) (bool, error) {
	targetInfo, err := n.lstat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	dirInfo, err := n.lstat(dir)
	if err != nil {
		return false, err
	}
	return !os.SameFile(dirInfo, targetInfo), nil
}
