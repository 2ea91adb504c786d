package pipeline

import (
	"context"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestPreprocessMarkdown - Obsidian syntax outside code
// ---------------------------------------------------------------------------

func TestPreprocessMarkdown(t *testing.T) {
	t.Parallel()

	p := &CommonMarkPreprocessor{}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "crlf normalized",
			in:   "a\r\nb\rc",
			want: "a\nb\nc",
		},
		{
			name: "highlight",
			in:   "some ==marked== text",
			want: "some " + MarkStartPlaceholder + "marked" + MarkEndPlaceholder + " text",
		},
		{
			name: "inline comment removed",
			in:   "visible %%hidden%% text",
			want: "visible  text",
		},
		{
			name: "multi-line comment keeps line count",
			in:   "a\n%%one\ntwo%%\nb",
			want: "a\n\n\nb",
		},
		{
			name: "fenced code untouched",
			in:   "==x==\n```\n==y== %%z%%\n```\n==w==",
			want: MarkStartPlaceholder + "x" + MarkEndPlaceholder + "\n```\n==y== %%z%%\n```\n" + MarkStartPlaceholder + "w" + MarkEndPlaceholder,
		},
		{
			name: "tilde fence and longer closer",
			in:   "~~~\n==y==\n~~~~\n==w==",
			want: "~~~\n==y==\n~~~~\n" + MarkStartPlaceholder + "w" + MarkEndPlaceholder,
		},
		{
			name: "unclosed fence runs to the end",
			in:   "```\n==y==\n",
			want: "```\n==y==\n",
		},
		{
			name: "blank lines kept",
			in:   "a\n\n\n\nb",
			want: "a\n\n\n\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := p.PreprocessMarkdown(context.Background(), tt.in)
			if got != tt.want {
				t.Errorf("PreprocessMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPreprocessMarkdown_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := "==x==\r\n"
	if got := (&CommonMarkPreprocessor{}).PreprocessMarkdown(ctx, in); got != in {
		t.Errorf("canceled preprocess modified input: %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestConvertMarkPlaceholders - Second half of ==highlight==
// ---------------------------------------------------------------------------

func TestConvertMarkPlaceholders(t *testing.T) {
	t.Parallel()

	in := "<p>" + MarkStartPlaceholder + "hi" + MarkEndPlaceholder + "</p>"
	got := ConvertMarkPlaceholders(in)
	if got != "<p><mark>hi</mark></p>" {
		t.Errorf("ConvertMarkPlaceholders() = %q", got)
	}
	if strings.ContainsAny(got, MarkStartPlaceholder+MarkEndPlaceholder) {
		t.Error("placeholders left in output")
	}
}
