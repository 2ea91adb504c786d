package assets

import (
	"fmt"
	"path/filepath"

	"github.com/alnah/go-vaultsite/internal/fileutil"
)

// KaTeX distribution files, relative to the KaTeX directory and to the
// output root.
const (
	KatexStylesheet = "katex.min.css"
	KatexScript     = "katex.min.js"
	KatexAutoRender = "contrib/auto-render.min.js"
	katexFonts      = "fonts"
)

// KatexScripts lists the scripts pages load, in order.
var KatexScripts = []string{KatexScript, KatexAutoRender}

var katexFiles = []string{KatexStylesheet, KatexScript, KatexAutoRender}

// CheckKatex reports ErrKatexDir unless dir holds the files CopyKatex needs.
func CheckKatex(dir string) error {
	if !fileutil.DirExists(dir) {
		return fmt.Errorf("%w: %s is not a directory", ErrKatexDir, dir)
	}
	for _, name := range katexFiles {
		if !fileutil.FileExists(filepath.Join(dir, filepath.FromSlash(name))) {
			return fmt.Errorf("%w: missing %s", ErrKatexDir, name)
		}
	}
	return nil
}

// CopyKatex copies a KaTeX distribution (as found in the katex npm package's
// dist/ directory) into outRoot. visit is called for every copied file.
func CopyKatex(dir, outRoot string, visit func(src, dst string)) error {
	if err := CheckKatex(dir); err != nil {
		return err
	}

	for _, name := range katexFiles {
		src := filepath.Join(dir, filepath.FromSlash(name))
		dst := filepath.Join(outRoot, filepath.FromSlash(name))
		if err := fileutil.CopyFile(src, dst); err != nil {
			return err
		}
		if visit != nil {
			visit(src, dst)
		}
	}

	fonts := filepath.Join(dir, katexFonts)
	if !fileutil.DirExists(fonts) {
		return nil
	}
	return fileutil.CopyDir(fonts, filepath.Join(outRoot, katexFonts), visit)
}
