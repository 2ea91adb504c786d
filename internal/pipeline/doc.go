// Package pipeline turns one Markdown note into one HTML page.
//
// Stages, in the order the compiler runs them:
//   - frontmatter split (SplitFrontmatter)
//   - Obsidian syntax preprocessing: comments and ==highlights==
//   - runnable code blocks replaced by their output (RunCodeBlocks)
//   - Markdown to HTML via goldmark, with wiki-link and math extensions
//   - page template (DocumentTemplate)
//   - link rewriting (RewriteLinks) and <mark> finalization
//
// Stages report problems as Diagnostics. A fatal diagnostic aborts the
// document; warnings are returned alongside the page.
package pipeline
