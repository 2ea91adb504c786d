package pipeline

import (
	"context"
	"regexp"
	"strings"
)

// Highlight placeholders use Unicode Private Use Area characters.
// They pass through goldmark unchanged and are turned into <mark> tags by
// ConvertMarkPlaceholders once the HTML exists.
const (
	MarkStartPlaceholder = "\uE000" // U+E000, Private Use Area
	MarkEndPlaceholder   = "\uE001" // U+E001, Private Use Area
)

var (
	crlfOrCR         = regexp.MustCompile(`\r\n?`)
	highlightPattern = regexp.MustCompile(`==(.*?)==`)

	// Obsidian comments: %%hidden%%, possibly spanning lines.
	commentPattern = regexp.MustCompile(`(?s)%%.*?%%`)

	fenceOpen = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// CommonMarkPreprocessor rewrites Obsidian-only syntax into something goldmark
// can render. Fenced code is never modified and line numbers are preserved,
// so diagnostics from later stages still point at the right line.
type CommonMarkPreprocessor struct{}

// PreprocessMarkdown normalizes line endings, blanks out %%comments%% and
// converts ==highlights== to placeholders.
func (p *CommonMarkPreprocessor) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}

	content = normalizeLineEndings(content)
	return outsideFences(content, func(prose string) string {
		return convertHighlights(stripComments(prose))
	})
}

func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// stripComments removes comments but keeps their line breaks.
func stripComments(content string) string {
	return commentPattern.ReplaceAllStringFunc(content, func(c string) string {
		return strings.Repeat("\n", strings.Count(c, "\n"))
	})
}

// convertHighlights transforms ==text== into placeholder markers.
func convertHighlights(content string) string {
	return highlightPattern.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
}

// outsideFences applies fn to every run of lines that is not inside a fenced
// code block. Fence lines and their content are copied verbatim. An unclosed
// fence extends to the end of the document, as in CommonMark.
func outsideFences(content string, fn func(string) string) string {
	lines := strings.SplitAfter(content, "\n")

	var out, prose strings.Builder
	flush := func() {
		if prose.Len() > 0 {
			out.WriteString(fn(prose.String()))
			prose.Reset()
		}
	}

	fence := ""
	for _, line := range lines {
		if fence != "" {
			out.WriteString(line)
			if closesFence(line, fence) {
				fence = ""
			}
			continue
		}
		if m := fenceOpen.FindStringSubmatch(line); m != nil {
			flush()
			fence = m[1]
			out.WriteString(line)
			continue
		}
		prose.WriteString(line)
	}
	flush()
	return out.String()
}

// closesFence reports whether line is a closing fence for an opening fence
// made of the characters in open: same character, at least as long, nothing
// but whitespace after it.
func closesFence(line, open string) bool {
	trimmed := strings.TrimRight(strings.TrimLeft(line, " "), " \t\n")
	if len(line)-len(strings.TrimLeft(line, " ")) > 3 {
		return false
	}
	if len(trimmed) < len(open) {
		return false
	}
	return strings.Trim(trimmed, open[:1]) == ""
}

// ConvertMarkPlaceholders converts placeholder markers to <mark> tags.
// It runs on the final HTML, after goldmark has escaped everything else.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}
