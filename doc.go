// Package vaultsite turns an Obsidian vault into a static HTML site.
//
// # Quick Start
//
// Build a whole vault:
//
//	b, err := vaultsite.NewBuilder("notes", "out")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := b.Build(ctx)
//	if err != nil {
//	    log.Fatal(err) // the vault could not be read
//	}
//	for _, f := range report.Failures {
//	    log.Printf("FAILED %s: %v", f.Path, f.Err)
//	}
//
// Or render a single note:
//
//	c, err := vaultsite.NewCompiler()
//	page, err := c.Compile(ctx, vaultsite.Page{
//	    Path:    "notes/Hello World.md",
//	    Content: "# Hello\n\nSee [[Other Note]].",
//	})
//	os.WriteFile("hello-world.html", page.HTML, 0o644)
//
// # Build Pipeline
//
// Every note goes through these stages:
//
//  1. Frontmatter split (title, tags, cssclasses, publish, date)
//  2. Obsidian preprocessing (%%comments%%, ==highlights==)
//  3. Runnable code blocks (```js run) replaced by their output
//  4. Markdown to HTML via Goldmark (GFM, footnotes, highlighting,
//     wiki-links, math)
//  5. Page template
//  6. Link rewriting: hyphenated directory segments in relative href and
//     src values become spaces again
//
// Notes are written at their page path ("Sub Folder/My Note.md" becomes
// "Sub Folder/my-note.html"), other files are copied verbatim, and shared
// assets (styles.css, highlight.css, KaTeX) are written at the output root.
// Finally every output directory name is lower-cased, deepest first.
//
// # Failures
//
// A note that fails (bad frontmatter, a failing code block, an I/O error)
// is recorded in BuildReport.Failures and the build goes on. Only a vault
// that cannot be enumerated, or a canceled context, stops Build.
//
// # Configuration
//
// Use functional options on NewBuilder and NewCompiler:
//
//	b, err := vaultsite.NewBuilder("notes", "out",
//	    vaultsite.WithRunner(r),
//	    vaultsite.WithKatexDir("node_modules/katex/dist"),
//	    vaultsite.WithDateFormat("long"),
//	)
package vaultsite
