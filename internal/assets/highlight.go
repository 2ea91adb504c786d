package assets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightCSS renders the chroma style name as the stylesheet matching the
// class-based markup of highlighted code blocks.
func HighlightCSS(name string) (string, error) {
	style, ok := styles.Registry[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q (available: %s)", ErrHighlightStyle, name, strings.Join(HighlightStyles(), ", "))
	}

	var b strings.Builder
	if err := html.New(html.WithClasses(true)).WriteCSS(&b, style); err != nil {
		return "", fmt.Errorf("writing highlight css: %w", err)
	}
	return b.String(), nil
}

// HighlightStyles lists the registered chroma style names, sorted.
func HighlightStyles() []string {
	names := make([]string, 0, len(styles.Registry))
	for name := range styles.Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
