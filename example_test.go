package vaultsite_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-vaultsite"
)

// Example renders a single note with a wiki-link.
func Example() {
	c, err := vaultsite.NewCompiler()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	page, err := c.Compile(context.Background(), vaultsite.Page{
		Path:    "notes/Hello World.md",
		Content: "# Hello\n\nSee [[Other Note]].",
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(page.Title)
	fmt.Println(strings.Contains(string(page.HTML), `href="other-note.html"`))
	// Output:
	// Hello World
	// true
}

// Example_build builds a small vault into a temporary directory.
func Example_build() {
	tmp, err := os.MkdirTemp("", "vaultsite-example")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	vaultDir := filepath.Join(tmp, "notes")
	_ = os.MkdirAll(filepath.Join(vaultDir, "Guides"), 0o755)
	_ = os.WriteFile(filepath.Join(vaultDir, "Guides", "Getting Started.md"), []byte("# Start\n"), 0o644)

	b, err := vaultsite.NewBuilder(vaultDir, filepath.Join(tmp, "out"))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	report, err := b.Build(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	rel, _ := filepath.Rel(tmp, report.Pages[0].Output)
	fmt.Println(filepath.ToSlash(rel))
	_, err = os.Stat(filepath.Join(tmp, "out", "guides", "getting-started.html"))
	fmt.Println(err == nil)
	// Output:
	// out/Guides/getting-started.html
	// true
}
