package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrPipelineFatal indicates a stage reported a fatal diagnostic for a document.
var ErrPipelineFatal = errors.New("pipeline reported a fatal diagnostic")

// Diagnostic sources, one per stage that can report.
const (
	SourceFrontmatter = "frontmatter"
	SourceRunCode     = "run-code"
	SourceWikiLink    = "wikilink"
	SourceMath        = "math"
)

// Diagnostic is a warning or error reported by a pipeline stage.
// Line and Column are 1-based; zero means the position is unknown.
type Diagnostic struct {
	Line    int
	Column  int
	Message string
	Source  string
	Fatal   bool
}

// String formats the diagnostic as "line:col: severity: message [source]".
func (d Diagnostic) String() string {
	severity := "warning"
	if d.Fatal {
		severity = "error"
	}

	var b strings.Builder
	if d.Line > 0 {
		fmt.Fprintf(&b, "%d:%d: ", d.Line, d.Column)
	}
	fmt.Fprintf(&b, "%s: %s", severity, d.Message)
	if d.Source != "" {
		fmt.Fprintf(&b, " [%s]", d.Source)
	}
	return b.String()
}

// Diagnostics accumulates diagnostics for one document.
// It is safe for concurrent use: the goldmark stage appends from its own goroutine.
type Diagnostics struct {
	mu   sync.Mutex
	list []Diagnostic
}

// Add records d.
func (ds *Diagnostics) Add(d Diagnostic) {
	if ds == nil {
		return
	}
	ds.mu.Lock()
	ds.list = append(ds.list, d)
	ds.mu.Unlock()
}

// Warn records a non-fatal diagnostic at the given byte offset of source.
func (ds *Diagnostics) Warn(source []byte, offset int, from, msg string) {
	line, col := Position(source, offset)
	ds.Add(Diagnostic{Line: line, Column: col, Message: msg, Source: from})
}

// Fail records a fatal diagnostic at the given byte offset of source.
func (ds *Diagnostics) Fail(source []byte, offset int, from, msg string) {
	line, col := Position(source, offset)
	ds.Add(Diagnostic{Line: line, Column: col, Message: msg, Source: from, Fatal: true})
}

// List returns a copy of the recorded diagnostics in report order.
func (ds *Diagnostics) List() []Diagnostic {
	if ds == nil {
		return nil
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	out := make([]Diagnostic, len(ds.list))
	copy(out, ds.list)
	return out
}

// HasFatal reports whether any fatal diagnostic was recorded.
func (ds *Diagnostics) HasFatal() bool {
	for _, d := range ds.List() {
		if d.Fatal {
			return true
		}
	}
	return false
}

// Err returns a *DiagnosticsError when a fatal diagnostic was recorded, nil otherwise.
func (ds *Diagnostics) Err() error {
	if !ds.HasFatal() {
		return nil
	}
	return &DiagnosticsError{Diagnostics: ds.List()}
}

// DiagnosticsError aborts a document. It carries every diagnostic recorded
// for the document, fatal or not.
type DiagnosticsError struct {
	Diagnostics []Diagnostic
}

func (e *DiagnosticsError) Error() string {
	var fatal []string
	for _, d := range e.Diagnostics {
		if d.Fatal {
			fatal = append(fatal, d.String())
		}
	}
	return fmt.Sprintf("%v: %s", ErrPipelineFatal, strings.Join(fatal, "; "))
}

// Unwrap allows errors.Is(err, ErrPipelineFatal).
func (e *DiagnosticsError) Unwrap() error {
	return ErrPipelineFatal
}

// Position converts a byte offset in source into a 1-based line and column.
// Columns count bytes. Offsets outside source are clamped.
func Position(source []byte, offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(source) {
		offset = len(source)
	}
	before := source[:offset]
	line = bytes.Count(before, []byte{'\n'}) + 1
	col = offset - bytes.LastIndexByte(before, '\n')
	return line, col
}
