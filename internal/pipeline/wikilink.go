package pipeline

import (
	"bytes"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-vaultsite/internal/pathmap"
)

// LinkResolver maps a wiki-link target to a page-relative URL.
type LinkResolver interface {
	// ResolveWikiLink returns the URL for target, without fragment.
	// ok is false when the target does not exist in the vault.
	ResolveWikiLink(target string) (url string, ok bool)
}

// Wiki-link CSS classes.
const (
	WikiLinkClass        = "wikilink"
	WikiLinkMissingClass = "wikilink wikilink-missing"
)

var (
	diagnosticsKey  = parser.NewContextKey()
	linkResolverKey = parser.NewContextKey()

	wikiOpen  = []byte("[[")
	wikiClose = []byte("]]")
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".bmp": true, ".avif": true,
}

// newParserContext carries per-document state into the goldmark extensions.
func newParserContext(resolver LinkResolver, diags *Diagnostics) parser.Context {
	pc := parser.NewContext()
	pc.Set(diagnosticsKey, diags)
	if resolver != nil {
		pc.Set(linkResolverKey, resolver)
	}
	return pc
}

func diagnosticsFrom(pc parser.Context) *Diagnostics {
	ds, _ := pc.Get(diagnosticsKey).(*Diagnostics)
	return ds
}

func resolverFrom(pc parser.Context) LinkResolver {
	r, _ := pc.Get(linkResolverKey).(LinkResolver)
	return r
}

// WikiLink is the parsed form of [[target#fragment|label]].
type WikiLink struct {
	Target   string
	Fragment string
	Label    string
	Embed    bool
}

// ParseWikiLink parses the text between [[ and ]].
// Table cells escape the pipe as \|, which is accepted too.
func ParseWikiLink(inner string, embed bool) (WikiLink, bool) {
	inner = strings.ReplaceAll(inner, `\|`, "|")
	target, label, _ := strings.Cut(inner, "|")
	target, fragment, _ := strings.Cut(target, "#")

	wl := WikiLink{
		Target:   strings.TrimSpace(target),
		Fragment: strings.TrimSpace(fragment),
		Label:    strings.TrimSpace(label),
		Embed:    embed,
	}
	if wl.Target == "" && wl.Fragment == "" {
		return WikiLink{}, false
	}
	return wl, true
}

// IsImage reports whether the link embeds an image.
func (wl WikiLink) IsImage() bool {
	return wl.Embed && imageExtensions[strings.ToLower(path.Ext(wl.Target))]
}

// DisplayText is the label, or the target (with heading) when no label is set.
func (wl WikiLink) DisplayText() string {
	if wl.Label != "" {
		return wl.Label
	}
	if wl.Target == "" {
		return wl.Fragment
	}
	if wl.Fragment != "" {
		return wl.Target + " > " + wl.Fragment
	}
	return wl.Target
}

// FallbackURL is used when no resolver is configured or the target is missing:
// the target is treated as a vault-relative note path.
func FallbackURL(target string) string {
	if path.Ext(target) == "" {
		target += pathmap.NoteExt
	}
	return pathmap.LinkPath(target)
}

// HeadingID mirrors goldmark's auto heading IDs so that [[Note#My Heading]]
// lands on the id generated for "My Heading". Non-ASCII characters are
// dropped, as goldmark does. Duplicate-heading suffixes are not predicted.
func HeadingID(heading string) string {
	var b strings.Builder
	for _, c := range []byte(strings.TrimSpace(heading)) {
		switch {
		case c >= utf8.RuneSelf:
		case util.IsAlphaNumeric(c):
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			b.WriteByte(c)
		case util.IsSpace(c) || c == '-' || c == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "heading"
	}
	return b.String()
}

type wikiLinkParser struct{}

func (p *wikiLinkParser) Trigger() []byte { return []byte{'!', '['} }

func (p *wikiLinkParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()

	start := 0
	embed := false
	if len(line) > 0 && line[0] == '!' {
		embed = true
		start = 1
	}
	if !bytes.HasPrefix(line[start:], wikiOpen) {
		return nil
	}
	rest := line[start+len(wikiOpen):]
	end := bytes.Index(rest, wikiClose)
	if end < 0 {
		return nil
	}
	inner := rest[:end]
	if bytes.ContainsAny(inner, "[]\n") {
		return nil
	}
	wl, ok := ParseWikiLink(string(inner), embed)
	if !ok {
		return nil
	}
	block.Advance(start + len(wikiOpen) + end + len(wikiClose))

	url, found := p.resolve(wl, pc)
	if !found {
		msg := "unresolved wiki-link: " + wl.Target
		diagnosticsFrom(pc).Warn(block.Source(), segment.Start, SourceWikiLink, msg)
	}
	return buildWikiLinkNode(wl, url, found)
}

// resolve returns the URL for wl, including its fragment.
func (p *wikiLinkParser) resolve(wl WikiLink, pc parser.Context) (string, bool) {
	fragment := ""
	if wl.Fragment != "" {
		fragment = "#" + HeadingID(wl.Fragment)
	}
	if wl.Target == "" {
		return fragment, true
	}

	if r := resolverFrom(pc); r != nil {
		if url, ok := r.ResolveWikiLink(wl.Target); ok {
			return url + fragment, true
		}
		return FallbackURL(wl.Target) + fragment, false
	}
	return FallbackURL(wl.Target) + fragment, true
}

func buildWikiLinkNode(wl WikiLink, url string, found bool) ast.Node {
	class := WikiLinkClass
	if !found {
		class = WikiLinkMissingClass
	}

	link := ast.NewLink()
	link.Destination = []byte(url)

	if wl.IsImage() {
		alt := path.Base(wl.Target)
		if wl.Label != "" && !isAllDigits(wl.Label) {
			alt = wl.Label
		}
		img := ast.NewImage(link)
		img.AppendChild(img, ast.NewString([]byte(alt)))
		// ![[photo.png|300]] sets the width.
		if isAllDigits(wl.Label) {
			img.SetAttributeString("width", []byte(wl.Label))
		}
		img.SetAttributeString("class", []byte(class))
		return img
	}

	link.AppendChild(link, ast.NewString([]byte(wl.DisplayText())))
	link.SetAttributeString("class", []byte(class))
	return link
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// WikiLinks is a goldmark extension for [[wiki-links]] and ![[embeds]].
// It runs before the standard link parser.
var WikiLinks goldmark.Extender = &wikiLinkExtension{}

type wikiLinkExtension struct{}

func (e *wikiLinkExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&wikiLinkParser{}, 199),
	))
}
