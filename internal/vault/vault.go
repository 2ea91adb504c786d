// Package vault enumerates the notes and attachments of a vault and resolves
// wiki-link targets against them.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/alnah/go-vaultsite/internal/pathmap"
)

// Sentinel errors.
var (
	// ErrVaultWalk means the vault could not be enumerated. It aborts a build.
	ErrVaultWalk = errors.New("cannot read vault")

	// ErrInvalidPattern means an exclude pattern does not compile.
	ErrInvalidPattern = errors.New("invalid exclude pattern")
)

// DefaultExclude skips Obsidian metadata, version control and the trash.
var DefaultExclude = []string{".obsidian", ".git", ".trash"}

// Entry is one file of the vault.
type Entry struct {
	Path string // filesystem path, root included
	Rel  string // slash path relative to the vault root
}

// IsNote reports whether the entry is a Markdown note.
func (e Entry) IsNote() bool {
	return strings.EqualFold(path.Ext(e.Rel), pathmap.NoteExt)
}

// Name is the note title as Obsidian shows it: the file name without .md.
// Attachments keep their extension.
func (e Entry) Name() string {
	base := path.Base(e.Rel)
	if e.IsNote() {
		return strings.TrimSuffix(base, path.Ext(base))
	}
	return base
}

// Options configures Scan.
type Options struct {
	// Exclude holds glob patterns ('*' stops at '/', '**' crosses it). A
	// pattern matches when it matches the slash-relative path or the base
	// name of a file or directory. Nil means DefaultExclude.
	Exclude []string

	// Skip lists filesystem paths never entered, typically the output
	// directory when it lives inside the vault.
	Skip []string
}

// Vault is the result of one scan. Entries are in walk (lexical) order.
type Vault struct {
	Root   string
	Notes  []Entry
	Assets []Entry

	byRel  map[string]Entry
	byName map[string][]Entry // lower-cased name, see Entry.Name
}

// Scan walks root once and classifies every regular file.
func Scan(ctx context.Context, root string, opts Options) (*Vault, error) {
	patterns := opts.Exclude
	if patterns == nil {
		patterns = DefaultExclude
	}
	excludes, err := compilePatterns(patterns)
	if err != nil {
		return nil, err
	}

	skip := make(map[string]struct{}, len(opts.Skip))
	for _, s := range opts.Skip {
		if abs, err := filepath.Abs(s); err == nil {
			skip[abs] = struct{}{}
		}
	}

	v := &Vault{
		Root:   root,
		byRel:  make(map[string]Entry),
		byName: make(map[string][]Entry),
	}

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if matchesAny(excludes, rel, d.Name()) || isSkipped(skip, p) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isFile(p, d) {
			return nil
		}

		v.add(Entry{Path: p, Rel: rel})
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("%w: %v", ErrVaultWalk, walkErr)
	}
	return v, nil
}

func (v *Vault) add(e Entry) {
	if e.IsNote() {
		v.Notes = append(v.Notes, e)
	} else {
		v.Assets = append(v.Assets, e)
	}
	v.byRel[e.Rel] = e
	key := strings.ToLower(e.Name())
	v.byName[key] = append(v.byName[key], e)
}

// Has reports whether rel (slash path relative to the root) is in the vault.
func (v *Vault) Has(rel string) bool {
	_, ok := v.byRel[rel]
	return ok
}

// Resolve finds the entry a wiki-link target points to. In order:
//   - exact relative path, with or without .md;
//   - case-insensitive match on the name, or on a trailing path when the
//     target contains a '/'.
//
// Ambiguous name matches pick the shortest path, then the lexically first.
func (v *Vault) Resolve(target string) (Entry, bool) {
	t := strings.TrimPrefix(pathmap.NormalizeSeparators(target), "/")
	if t == "" || t == "." {
		return Entry{}, false
	}

	if e, ok := v.byRel[t]; ok {
		return e, true
	}
	if e, ok := v.byRel[t+pathmap.NoteExt]; ok {
		return e, true
	}

	lt := strings.ToLower(t)
	name := path.Base(lt)
	if strings.EqualFold(path.Ext(name), pathmap.NoteExt) {
		name = strings.TrimSuffix(name, path.Ext(name))
	}

	var candidates []Entry
	for _, e := range v.byName[name] {
		if matchesTarget(strings.ToLower(e.Rel), lt) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return Entry{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].Rel, candidates[j].Rel
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return candidates[0], true
}

// matchesTarget compares lower-cased paths: rel equals target (with or
// without .md), or ends with "/" + target.
func matchesTarget(rel, target string) bool {
	for _, t := range []string{target, target + pathmap.NoteExt} {
		if rel == t || strings.HasSuffix(rel, "/"+t) {
			return true
		}
	}
	return false
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, p, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

func matchesAny(patterns []glob.Glob, rel, name string) bool {
	for _, g := range patterns {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}

func isSkipped(skip map[string]struct{}, p string) bool {
	if len(skip) == 0 {
		return false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	_, ok := skip[abs]
	return ok
}

// isFile accepts regular files and symlinks to regular files.
func isFile(p string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
