package pipeline

// Notes:
// - Output is checked with strings.Contains on the significant fragment;
//   goldmark's exact whitespace between blocks is not part of the contract.

import (
	"context"
	"strings"
	"testing"
)

// mapResolver resolves targets from a fixed table.
type mapResolver map[string]string

func (m mapResolver) ResolveWikiLink(target string) (string, bool) {
	url, ok := m[target]
	return url, ok
}

func convert(t *testing.T, c *GoldmarkConverter, md string, opts ConvertOptions) string {
	t.Helper()
	out, err := c.ToHTML(context.Background(), md, opts)
	if err != nil {
		t.Fatalf("ToHTML() error: %v", err)
	}
	return out
}

// ---------------------------------------------------------------------------
// TestGoldmarkConverter - Standard Markdown
// ---------------------------------------------------------------------------

func TestGoldmarkConverter(t *testing.T) {
	t.Parallel()

	c := NewGoldmarkConverter(DefaultRenderOptions())

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "heading with id", in: "# My Heading", want: []string{`<h1 id="my-heading">My Heading</h1>`}},
		{name: "table", in: "| a |\n|---|\n| b |", want: []string{"<table>", "<td>b</td>"}},
		{name: "strikethrough", in: "~~gone~~", want: []string{"<del>gone</del>"}},
		{name: "footnote", in: "x[^1]\n\n[^1]: note", want: []string{`class="footnotes"`}},
		{name: "hard wraps", in: "a\nb", want: []string{"a<br>"}},
		{name: "highlighted code", in: "```go\nfunc main() {}\n```", want: []string{`class="chroma"`}},
		{name: "raw html allowed", in: "<div class=\"x\">raw</div>", want: []string{`<div class="x">raw</div>`}},
		{name: "standard link untouched", in: "[a](dir/b.html)", want: []string{`<a href="dir/b.html">a</a>`}},
		{name: "fragment only", in: "fragment", want: []string{"<p>fragment</p>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := convert(t, c, tt.in, ConvertOptions{})
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q\n got: %s", w, got)
				}
			}
			if strings.Contains(got, "<html") {
				t.Errorf("ToHTML must return a fragment, got %s", got)
			}
		})
	}
}

func TestGoldmarkConverter_RawHTMLDisabled(t *testing.T) {
	t.Parallel()

	c := NewGoldmarkConverter(RenderOptions{RawHTML: false})
	got := convert(t, c, "<script>alert(1)</script>", ConvertOptions{})
	if strings.Contains(got, "<script>") {
		t.Errorf("raw HTML rendered with RawHTML=false: %s", got)
	}
}

func TestGoldmarkConverter_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoldmarkConverter(DefaultRenderOptions()).ToHTML(ctx, "# x", ConvertOptions{})
	if err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestWikiLinks - [[links]] and ![[embeds]]
// ---------------------------------------------------------------------------

func TestWikiLinks(t *testing.T) {
	t.Parallel()

	c := NewGoldmarkConverter(DefaultRenderOptions())
	resolver := mapResolver{
		"Other":        "Sub-Folder/other.html",
		"My Image.png": "Attachments/My Image.png",
	}

	tests := []struct {
		name      string
		in        string
		want      []string
		wantWarns int
	}{
		{
			name: "plain",
			in:   "see [[Other]]",
			want: []string{`<a href="Sub-Folder/other.html" class="wikilink">Other</a>`},
		},
		{
			name: "label",
			in:   "[[Other|the other note]]",
			want: []string{`>the other note</a>`},
		},
		{
			name: "heading",
			in:   "[[Other#Some Heading]]",
			want: []string{`href="Sub-Folder/other.html#some-heading"`, `>Other &gt; Some Heading</a>`},
		},
		{
			name: "same page heading",
			in:   "[[#Intro]]",
			want: []string{`href="#intro"`},
		},
		{
			name: "image embed with width",
			in:   "![[My Image.png|300]]",
			want: []string{`src="Attachments/My%20Image.png"`, `alt="My Image.png"`, `width="300"`},
		},
		{
			name:      "unresolved",
			in:        "[[Missing Note]]",
			want:      []string{`href="missing-note.html"`, `class="wikilink wikilink-missing"`},
			wantWarns: 1,
		},
		{
			name: "empty brackets left as text",
			in:   "[[]]",
			want: []string{"[[]]"},
		},
		{
			name: "wiki-link in code span untouched",
			in:   "`[[Other]]`",
			want: []string{"<code>[[Other]]</code>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			diags := &Diagnostics{}
			got := convert(t, c, tt.in, ConvertOptions{Resolver: resolver, Diagnostics: diags})
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q\n got: %s", w, got)
				}
			}
			if n := len(diags.List()); n != tt.wantWarns {
				t.Errorf("diagnostics = %d, want %d: %v", n, tt.wantWarns, diags.List())
			}
		})
	}
}

func TestWikiLinks_NoResolver(t *testing.T) {
	t.Parallel()

	c := NewGoldmarkConverter(DefaultRenderOptions())
	got := convert(t, c, "[[Sub Folder/Other]]", ConvertOptions{})
	if !strings.Contains(got, `href="Sub-Folder/other.html"`) {
		t.Errorf("fallback link wrong: %s", got)
	}
}

func TestParseWikiLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   WikiLink
		wantOK bool
	}{
		{in: "Note", want: WikiLink{Target: "Note"}, wantOK: true},
		{in: "Note|Label", want: WikiLink{Target: "Note", Label: "Label"}, wantOK: true},
		{in: `Note\|Label`, want: WikiLink{Target: "Note", Label: "Label"}, wantOK: true},
		{in: "Dir/Note#Head|Label", want: WikiLink{Target: "Dir/Note", Fragment: "Head", Label: "Label"}, wantOK: true},
		{in: " ", wantOK: false},
		{in: "|label", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseWikiLink(tt.in, false)
			if ok != tt.wantOK {
				t.Fatalf("ParseWikiLink(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseWikiLink(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHeadingID(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"My Heading":       "my-heading",
		"snake_case title": "snake-case-title",
		"Été 2024!":        "t-2024",
		"???":              "heading",
	}
	for in, want := range tests {
		if got := HeadingID(in); got != want {
			t.Errorf("HeadingID(%q) = %q, want %q", in, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestMath - $inline$ and $$display$$
// ---------------------------------------------------------------------------

func TestMath(t *testing.T) {
	t.Parallel()

	c := NewGoldmarkConverter(DefaultRenderOptions())

	tests := []struct {
		name      string
		in        string
		want      []string
		notWant   []string
		wantWarns int
	}{
		{
			name: "inline",
			in:   "area $\\pi r^2$ here",
			want: []string{`<span class="math math-inline">\(\pi r^2\)</span>`},
		},
		{
			name: "escaped content",
			in:   "$a<b$",
			want: []string{`\(a&lt;b\)`},
		},
		{
			name: "underscores are not emphasis",
			in:   "$x_1 + y_2$",
			want: []string{`\(x_1 + y_2\)`},
		},
		{
			name: "display block",
			in:   "$$\nE = mc^2\n$$",
			want: []string{`<div class="math math-display">\[` + "\nE = mc^2\n" + `\]</div>`},
		},
		{
			name:    "prices are not math",
			in:      "costs $5 and $6",
			notWant: []string{"math-inline"},
		},
		{
			name:      "inline double dollar warns",
			in:        "inline $$x$$ here",
			want:      []string{`\(x\)`},
			wantWarns: 1,
		},
		{
			name:    "code span untouched",
			in:      "`$x$`",
			notWant: []string{"math-inline"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			diags := &Diagnostics{}
			got := convert(t, c, tt.in, ConvertOptions{Diagnostics: diags})
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q\n got: %s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("output must not contain %q\n got: %s", w, got)
				}
			}
			list := diags.List()
			if len(list) != tt.wantWarns {
				t.Fatalf("diagnostics = %v, want %d", list, tt.wantWarns)
			}
			for _, d := range list {
				if d.Fatal || d.Source != SourceMath || d.Message != InlineDoubleDollarWarning {
					t.Errorf("unexpected diagnostic %+v", d)
				}
				if d.Line != 1 || d.Column != 8 {
					t.Errorf("position = %d:%d, want 1:8", d.Line, d.Column)
				}
			}
		})
	}
}
