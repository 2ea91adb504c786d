package pipeline

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// RunMeta is the info-string meta that marks a fenced block for execution:
//
//	```js run
const RunMeta = "run"

// ErrRunnerNotConfigured is reported when a note contains runnable blocks
// but no CodeRunner was provided. The blocks are rendered as code.
var ErrRunnerNotConfigured = errors.New("code block marked run but no runner is configured")

// RunRequest describes one runnable code block.
type RunRequest struct {
	Lang       string
	Code       string
	SourcePath string // note path, for error messages and working directory
}

// CodeRunner executes a code block and returns Markdown to splice in its place.
type CodeRunner interface {
	Run(ctx context.Context, req RunRequest) (string, error)
}

// RunnableBlock is a fenced code block whose output replaces it.
type RunnableBlock struct {
	Start int // offset of the opening fence line
	End   int // offset just past the closing fence line
	Lang  string
	Code  string
}

// blockParser only needs block structure; no extensions.
var blockParser = goldmark.New().Parser()

// FindRunnableBlocks returns the top-level fenced blocks marked "run", in
// document order. Blocks nested in lists or quotes are not executed.
func FindRunnableBlocks(source []byte) []RunnableBlock {
	doc := blockParser.Parse(text.NewReader(source))

	var blocks []RunnableBlock
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok || fence.Info == nil {
			continue
		}
		info := string(fence.Info.Segment.Value(source))
		lang, meta, _ := strings.Cut(info, " ")
		if strings.TrimSpace(meta) != RunMeta {
			continue
		}

		infoStart := fence.Info.Segment.Start
		start := bytes.LastIndexByte(source[:infoStart], '\n') + 1

		var code strings.Builder
		contentEnd := lineEnd(source, infoStart)
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			code.Write(seg.Value(source))
			contentEnd = seg.Stop
		}

		blocks = append(blocks, RunnableBlock{
			Start: start,
			End:   closingFenceEnd(source, contentEnd),
			Lang:  lang,
			Code:  code.String(),
		})
	}
	return blocks
}

// lineEnd returns the offset just past the newline ending the line at offset.
func lineEnd(source []byte, offset int) int {
	i := bytes.IndexByte(source[offset:], '\n')
	if i < 0 {
		return len(source)
	}
	return offset + i + 1
}

// closingFenceEnd returns the end of the closing fence that follows the block
// content, or contentEnd for a block left open until the end of the document.
func closingFenceEnd(source []byte, contentEnd int) int {
	if contentEnd >= len(source) {
		return len(source)
	}
	end := lineEnd(source, contentEnd)
	fence := strings.TrimSpace(string(source[contentEnd:end]))
	if strings.HasPrefix(fence, "```") || strings.HasPrefix(fence, "~~~") {
		return end
	}
	return contentEnd
}

// RunCodeBlocks replaces every runnable block with the output of runner.
// A failing block records a fatal diagnostic "In code block: <err>" and stays
// in place; the remaining blocks still run. With a nil runner every block is
// kept and one warning is recorded.
func RunCodeBlocks(ctx context.Context, content, sourcePath string, runner CodeRunner, diags *Diagnostics) (string, error) {
	source := []byte(content)
	blocks := FindRunnableBlocks(source)
	if len(blocks) == 0 {
		return content, nil
	}
	if runner == nil {
		diags.Warn(source, blocks[0].Start, SourceRunCode, ErrRunnerNotConfigured.Error())
		return content, nil
	}

	outputs := make(map[int]string, len(blocks))
	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := runner.Run(ctx, RunRequest{Lang: b.Lang, Code: b.Code, SourcePath: sourcePath})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			diags.Fail(source, b.Start, SourceRunCode, "In code block: "+err.Error())
			continue
		}
		outputs[i] = out
	}

	return spliceBlocks(content, blocks, outputs), nil
}

// spliceBlocks replaces blocks by their outputs, from the end of the document
// backwards so earlier offsets stay valid.
func spliceBlocks(content string, blocks []RunnableBlock, outputs map[int]string) string {
	idx := make([]int, 0, len(outputs))
	for i := range outputs {
		idx = append(idx, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(idx)))

	for _, i := range idx {
		b := blocks[i]
		out := outputs[i]
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		// Blank lines keep the output from merging into neighbouring paragraphs.
		content = content[:b.Start] + "\n" + out + "\n" + content[b.End:]
	}
	return content
}
