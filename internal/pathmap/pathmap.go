// Package pathmap translates vault note paths into output paths and link
// targets. It performs no I/O.
//
// All paths are handled in slash form. Callers may pass Windows-style paths;
// separators are normalized before any processing.
package pathmap

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidPath indicates a path that does not lie under the vault root.
var ErrInvalidPath = errors.New("path is not under the vault root")

// PageExt is the extension given to rendered notes.
const PageExt = ".html"

// NoteExt is the extension of Markdown notes in the vault.
const NoteExt = ".md"

// Mapper maps paths under VaultRoot to paths under OutputRoot.
type Mapper struct {
	VaultRoot  string
	OutputRoot string
}

// New creates a Mapper with normalized roots.
func New(vaultRoot, outputRoot string) Mapper {
	return Mapper{
		VaultRoot:  NormalizeSeparators(vaultRoot),
		OutputRoot: NormalizeSeparators(outputRoot),
	}
}

// NormalizeSeparators converts backslashes to forward slashes and cleans the
// result. Notes produced on Windows and on Unix end up in the same form.
func NormalizeSeparators(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}

// ResolvePageStem lower-cases stem and replaces every space with a hyphen.
//
//	"Hello World" -> "hello-world"
func ResolvePageStem(stem string) string {
	return strings.ReplaceAll(strings.ToLower(stem), " ", "-")
}

// Rel returns notePath relative to the vault root, in slash form.
// Returns ErrInvalidPath if notePath is the root itself or lies outside it.
func (m Mapper) Rel(notePath string) (string, error) {
	p := NormalizeSeparators(notePath)
	root := m.VaultRoot

	var rel string
	switch {
	case root == ".":
		rel = p
		if path.IsAbs(p) {
			return "", fmt.Errorf("%w: %s", ErrInvalidPath, notePath)
		}
	case strings.HasPrefix(p, root+"/"):
		rel = p[len(root)+1:]
	case root == "/" && strings.HasPrefix(p, "/"):
		rel = p[1:]
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, notePath)
	}

	if rel == "" || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, notePath)
	}
	return rel, nil
}

// OutputPath replaces the vault root prefix of p with the output root.
// Every intermediate segment is kept verbatim; case normalization is a
// separate pass over the written tree.
func (m Mapper) OutputPath(p string) (string, error) {
	rel, err := m.Rel(p)
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(path.Join(m.OutputRoot, rel)), nil
}

// PagePath returns the output path of a rendered note: the mapped directory,
// the stem passed through ResolvePageStem, and the .html extension.
func (m Mapper) PagePath(notePath string) (string, error) {
	rel, err := m.Rel(notePath)
	if err != nil {
		return "", err
	}
	dir, file := path.Split(rel)
	stem := strings.TrimSuffix(file, path.Ext(file))
	return filepath.FromSlash(path.Join(m.OutputRoot, dir, ResolvePageStem(stem)+PageExt)), nil
}

// RootPrefix returns the relative prefix leading from the directory of
// notePath back to the site root: "../" repeated once per directory level
// below the vault root.
//
//	notes/a.md   -> ""
//	notes/a/b.md -> "../"
func (m Mapper) RootPrefix(notePath string) (string, error) {
	rel, err := m.Rel(notePath)
	if err != nil {
		return "", err
	}
	depth := strings.Count(rel, "/")
	return strings.Repeat("../", depth), nil
}

// LinkPath converts a vault-relative path into a site-relative link target.
// Directory segments get spaces replaced by hyphens with their case kept.
// Notes get a resolved page stem and the .html extension; other files keep
// their name.
//
//	"Sub Folder/Other.md"   -> "Sub-Folder/other.html"
//	"Assets/My Image.png"   -> "Assets/My Image.png"
func LinkPath(rel string) string {
	rel = NormalizeSeparators(rel)
	dir, file := path.Split(rel)

	var b strings.Builder
	if dir != "" {
		segments := strings.Split(strings.TrimSuffix(dir, "/"), "/")
		for _, seg := range segments {
			b.WriteString(strings.ReplaceAll(seg, " ", "-"))
			b.WriteByte('/')
		}
	}

	if strings.EqualFold(path.Ext(file), NoteExt) {
		b.WriteString(ResolvePageStem(strings.TrimSuffix(file, path.Ext(file))))
		b.WriteString(PageExt)
	} else {
		b.WriteString(file)
	}
	return b.String()
}
