package vaultsite

// Notes:
// - Compile is exercised through the real pipeline (goldmark, template, link
//   rewriting). Only the code runner and the link resolver are faked.
// - Line numbers of diagnostics are checked against the note file, with
//   frontmatter lines counted.
// - The panic recovery test panics from the runner: it is called on the
//   Compile goroutine, unlike the goldmark extensions.

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test doubles
// ---------------------------------------------------------------------------

type fakeRunner struct {
	output string
	err    error
	panics bool
	calls  []RunRequest
}

func (f *fakeRunner) Run(ctx context.Context, req RunRequest) (string, error) {
	if f.panics {
		panic("runner exploded")
	}
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

type mapResolver map[string]string

func (m mapResolver) ResolveWikiLink(target string) (string, bool) {
	url, ok := m[target]
	return url, ok
}

func mustCompiler(t *testing.T, opts ...Option) *Compiler {
	t.Helper()
	c, err := NewCompiler(opts...)
	if err != nil {
		t.Fatalf("NewCompiler() error: %v", err)
	}
	return c
}

func compile(t *testing.T, c *Compiler, page Page) *RenderedPage {
	t.Helper()
	res, err := c.Compile(context.Background(), page)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	return res
}

func hasDiagnostic(list []Diagnostic, source, substr string) (Diagnostic, bool) {
	for _, d := range list {
		if d.Source == source && strings.Contains(d.Message, substr) {
			return d, true
		}
	}
	return Diagnostic{}, false
}

// ---------------------------------------------------------------------------
// TestNewCompiler - Construction
// ---------------------------------------------------------------------------

func TestNewCompiler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "defaults", opts: nil, wantErr: nil},
		{name: "date preset", opts: []Option{WithDateFormat("long")}, wantErr: nil},
		{name: "bad date format", opts: []Option{WithDateFormat("[YYYY")}, wantErr: ErrInvalidDateFormat},
		{name: "missing asset path", opts: []Option{WithAssetPath("/nonexistent/assets")}, wantErr: ErrInvalidAssetPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewCompiler(tt.opts...)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("NewCompiler() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewCompiler() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestCompiler_Compile - Page rendering
// ---------------------------------------------------------------------------

func TestCompiler_Compile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		page     Page
		contains []string
		excludes []string
	}{
		{
			name:     "title from file name",
			page:     Page{Path: "notes/Hello World.md", Content: "# Heading\n"},
			contains: []string{"<title>Hello World</title>", `<h1 id="heading">Heading</h1>`},
		},
		{
			name:     "title from frontmatter",
			page:     Page{Path: "notes/a.md", Content: "---\ntitle: Custom Title\ntags: [go, notes]\ncssclasses: wide\n---\nBody\n"},
			contains: []string{"<title>Custom Title</title>", `content="go, notes"`, `<body class="wide">`},
			excludes: []string{"title: Custom Title"},
		},
		{
			name:     "highlights become mark",
			page:     Page{Path: "a.md", Content: "some ==marked== text\n"},
			contains: []string{"<mark>marked</mark>"},
		},
		{
			name:     "comments are removed",
			page:     Page{Path: "a.md", Content: "visible %%hidden%% text\n"},
			excludes: []string{"hidden"},
		},
		{
			name:     "shared assets use the root prefix",
			page:     Page{Path: "notes/a/b.md", Content: "x\n", RootPrefix: "../"},
			contains: []string{`href="../styles.css"`, `href="../highlight.css"`, `href="../katex.min.css"`},
		},
		{
			name: "resolved wiki-link is rewritten to the directory on disk",
			page: Page{
				Path:     "notes/a.md",
				Content:  "See [[Other Note]].\n",
				Resolver: mapResolver{"Other Note": "Sub-Folder/other-note.html"},
			},
			contains: []string{`href="Sub Folder/other-note.html"`, `class="wikilink"`, ">Other Note</a>"},
		},
		{
			name:     "wiki-link heading",
			page:     Page{Path: "a.md", Content: "[[#My Section|jump]]\n"},
			contains: []string{`href="#my-section"`, ">jump</a>"},
		},
		{
			name:     "math markup",
			page:     Page{Path: "a.md", Content: "Euler $e^{i\\pi}$\n\n$$\nx^2\n$$\n"},
			contains: []string{"math-inline", "math-display"},
		},
		{
			name:     "highlighted code uses classes",
			page:     Page{Path: "a.md", Content: "```go\nfunc main() {}\n```\n"},
			contains: []string{`class="chroma"`},
			excludes: []string{"style=\"color"},
		},
		{
			name:     "no date footer without a date format",
			page:     Page{Path: "a.md", Content: "x\n", ModTime: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
			excludes: []string{"page-date"},
		},
	}

	c := mustCompiler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := compile(t, c, tt.page)
			if !res.Published {
				t.Fatal("Published = false")
			}
			html := string(res.HTML)
			for _, want := range tt.contains {
				if !strings.Contains(html, want) {
					t.Errorf("HTML missing %q\n%s", want, html)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(html, unwanted) {
					t.Errorf("HTML contains %q", unwanted)
				}
			}
		})
	}
}

func TestCompiler_Compile_Unpublished(t *testing.T) {
	t.Parallel()

	res := compile(t, mustCompiler(t), Page{Path: "Draft.md", Content: "---\npublish: false\n---\nsecret\n"})
	if res.Published || res.HTML != nil {
		t.Errorf("unpublished note rendered: %+v", res)
	}
	if res.Title != "Draft" {
		t.Errorf("Title = %q, want Draft", res.Title)
	}
}

func TestCompiler_Compile_UnresolvedLink(t *testing.T) {
	t.Parallel()

	res := compile(t, mustCompiler(t), Page{
		Path:     "a.md",
		Content:  "---\ntitle: x\n---\nSee [[Missing]].\n",
		Resolver: mapResolver{},
	})

	d, ok := hasDiagnostic(res.Diagnostics, "wikilink", "Missing")
	if !ok {
		t.Fatalf("no wikilink diagnostic in %v", res.Diagnostics)
	}
	if d.Fatal {
		t.Error("unresolved link must be a warning")
	}
	if d.Line != 4 {
		t.Errorf("Line = %d, want 4 (frontmatter counted)", d.Line)
	}
	if !strings.Contains(string(res.HTML), "wikilink-missing") {
		t.Error("missing link not marked")
	}
}

func TestCompiler_Compile_InlineDoubleDollar(t *testing.T) {
	t.Parallel()

	res := compile(t, mustCompiler(t), Page{Path: "a.md", Content: "inline $$x$$ here\n"})
	if _, ok := hasDiagnostic(res.Diagnostics, "math", "Did you forget newlines"); !ok {
		t.Errorf("no math warning in %v", res.Diagnostics)
	}
}

// ---------------------------------------------------------------------------
// TestCompiler_Compile_RunCode - Runnable code blocks
// ---------------------------------------------------------------------------

const runnableNote = "Before\n\n```js run\nconsole.log('**ran**')\n```\n\nAfter\n"

func TestCompiler_Compile_RunCode(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{output: "**ran**\n"}
	res := compile(t, mustCompiler(t, WithRunner(runner)), Page{Path: "notes/run.md", Content: runnableNote})

	if len(runner.calls) != 1 {
		t.Fatalf("runner calls = %d, want 1", len(runner.calls))
	}
	if runner.calls[0].SourcePath != "notes/run.md" || runner.calls[0].Lang != "js" {
		t.Errorf("request = %+v", runner.calls[0])
	}
	html := string(res.HTML)
	if !strings.Contains(html, "<strong>ran</strong>") {
		t.Errorf("runner output not rendered:\n%s", html)
	}
	if strings.Contains(html, "console.log") {
		t.Error("code block kept after a successful run")
	}
}

func TestCompiler_Compile_RunCodeFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("exit status 1")}
	_, err := mustCompiler(t, WithRunner(runner)).Compile(context.Background(), Page{Path: "a.md", Content: runnableNote})

	if !errors.Is(err, ErrPipelineFatal) {
		t.Fatalf("Compile() error = %v, want ErrPipelineFatal", err)
	}
	diags := ErrorDiagnostics(err)
	d, ok := hasDiagnostic(diags, "run-code", "In code block: exit status 1")
	if !ok {
		t.Fatalf("diagnostics = %v", diags)
	}
	if !d.Fatal || d.Line != 3 {
		t.Errorf("diagnostic = %+v, want fatal at line 3", d)
	}
}

func TestCompiler_Compile_RunCodeWithoutRunner(t *testing.T) {
	t.Parallel()

	res := compile(t, mustCompiler(t), Page{Path: "a.md", Content: runnableNote})
	if _, ok := hasDiagnostic(res.Diagnostics, "run-code", ErrRunnerNotConfigured.Error()); !ok {
		t.Errorf("diagnostics = %v", res.Diagnostics)
	}
	if !strings.Contains(string(res.HTML), "console") {
		t.Error("block should stay as code")
	}
}

// ---------------------------------------------------------------------------
// TestCompiler_Compile_Date - Page date footer
// ---------------------------------------------------------------------------

func TestCompiler_Compile_Date(t *testing.T) {
	t.Parallel()

	modTime := time.Date(2023, 12, 25, 10, 0, 0, 0, time.UTC)
	c := mustCompiler(t, WithDateFormat("iso"))

	tests := []struct {
		name     string
		content  string
		modTime  time.Time
		want     string
		wantWarn bool
	}{
		{name: "frontmatter date", content: "---\ndate: 2024-03-05\n---\nx\n", modTime: modTime, want: "2024-03-05"},
		{name: "modification time", content: "x\n", modTime: modTime, want: "2023-12-25"},
		{name: "bad date falls back", content: "---\ndate: someday\n---\nx\n", modTime: modTime, want: "2023-12-25", wantWarn: true},
		{name: "no date at all", content: "x\n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := compile(t, c, Page{Path: "a.md", Content: tt.content, ModTime: tt.modTime})
			html := string(res.HTML)
			if tt.want == "" {
				if strings.Contains(html, "page-date") {
					t.Errorf("unexpected date footer:\n%s", html)
				}
			} else if !strings.Contains(html, "<time>"+tt.want+"</time>") {
				t.Errorf("date %q not found:\n%s", tt.want, html)
			}
			_, warned := hasDiagnostic(res.Diagnostics, "frontmatter", "someday")
			if warned != tt.wantWarn {
				t.Errorf("warned = %v, want %v (%v)", warned, tt.wantWarn, res.Diagnostics)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestCompiler_Compile_Errors - Failure paths
// ---------------------------------------------------------------------------

func TestCompiler_Compile_Errors(t *testing.T) {
	t.Parallel()

	t.Run("malformed frontmatter", func(t *testing.T) {
		t.Parallel()

		_, err := mustCompiler(t).Compile(context.Background(), Page{Path: "a.md", Content: "---\ntitle: [unclosed\n---\nx\n"})
		if !errors.Is(err, ErrFrontmatter) {
			t.Errorf("error = %v, want ErrFrontmatter", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := mustCompiler(t).Compile(ctx, Page{Path: "a.md", Content: "x"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})

	t.Run("panic is recovered", func(t *testing.T) {
		t.Parallel()

		c := mustCompiler(t, WithRunner(&fakeRunner{panics: true}))
		_, err := c.Compile(context.Background(), Page{Path: "a.md", Content: runnableNote})
		if err == nil || !strings.Contains(err.Error(), "internal error") {
			t.Errorf("error = %v, want internal error", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestCompiler_Katex - KaTeX scripts
// ---------------------------------------------------------------------------

func TestCompiler_Katex(t *testing.T) {
	t.Parallel()

	without := string(compile(t, mustCompiler(t), Page{Path: "a.md", Content: "x\n"}).HTML)
	if strings.Contains(without, "renderMathInElement") {
		t.Error("auto-render bootstrap without KaTeX")
	}

	with := string(compile(t, mustCompiler(t, WithKatexDir("katex")), Page{Path: "a/b.md", Content: "x\n", RootPrefix: "../"}).HTML)
	for _, want := range []string{`src="../katex.min.js"`, `src="../contrib/auto-render.min.js"`, "renderMathInElement"} {
		if !strings.Contains(with, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestNoteTitle(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"notes/My Note.md":    "My Note",
		`notes\Sub\Other.md`: "Other",
		"plain":               "plain",
		"v1.2 release.md":     "v1.2 release",
	}
	for in, want := range tests {
		if got := noteTitle(in); got != want {
			t.Errorf("noteTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
