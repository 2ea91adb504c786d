package pipeline

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// LinkReference is one attribute rewrite found in a document. Offset is the
// byte position of the tag text Original; Rewritten replaces it.
type LinkReference struct {
	Tag       string
	Attr      string
	Offset    int
	Original  string
	Rewritten string
}

// linkAttributes lists the passes RewriteLinks makes, in order.
var linkAttributes = []struct{ tag, attr string }{
	{"a", "href"},
	{"img", "src"},
}

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)

// RewriteLinks restores spaces in directory segments of relative links.
// Wiki-link targets are written with hyphens in place of spaces; the pages
// themselves live in directories that kept their spaces. Anchors are
// processed first, then images, each pass over the result of the previous.
//
//	<a href="My-Folder/Sub-Dir/page.html"> -> <a href="My Folder/Sub Dir/page.html">
//
// The file segment is never changed. Markup the tokenizer cannot make sense
// of is passed through unchanged.
func RewriteLinks(doc string) string {
	for _, la := range linkAttributes {
		doc = ApplyLinkRewrites(doc, CollectLinkRewrites(doc, la.tag, la.attr))
	}
	return doc
}

// CollectLinkRewrites finds every <tag> whose attr value changes under
// RewriteTarget. Tags that need no substitution produce no reference.
func CollectLinkRewrites(doc, tag, attr string) []LinkReference {
	var refs []LinkReference
	z := html.NewTokenizer(strings.NewReader(doc))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := string(z.Raw())
		start := offset
		offset += len(raw)

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, _ := z.TagName()
		if string(name) != tag {
			continue
		}
		rewritten, changed := rewriteTag(raw, attr)
		if !changed {
			continue
		}
		refs = append(refs, LinkReference{
			Tag:       tag,
			Attr:      attr,
			Offset:    start,
			Original:  raw,
			Rewritten: rewritten,
		})
	}
	return refs
}

// ApplyLinkRewrites replaces each reference's tag text at its own offset.
// Every occurrence is corrected, including identical duplicate tags, and
// identical text elsewhere in the document is left alone. References whose
// offset no longer matches doc are skipped.
func ApplyLinkRewrites(doc string, refs []LinkReference) string {
	if len(refs) == 0 {
		return doc
	}

	var b strings.Builder
	b.Grow(len(doc))
	pos := 0
	for _, ref := range refs {
		end := ref.Offset + len(ref.Original)
		if ref.Offset < pos || end > len(doc) || doc[ref.Offset:end] != ref.Original {
			continue
		}
		b.WriteString(doc[pos:ref.Offset])
		b.WriteString(ref.Rewritten)
		pos = end
	}
	b.WriteString(doc[pos:])
	return b.String()
}

// rewriteTag rewrites the value of attr inside a raw start tag.
func rewriteTag(raw, attr string) (string, bool) {
	vs, ve, ok := attrValueSpan(raw, attr)
	if !ok {
		return raw, false
	}
	value, changed := RewriteTarget(raw[vs:ve])
	if !changed {
		return raw, false
	}
	if q := raw[vs-1]; q != '"' && q != '\'' {
		// an unquoted value cannot hold the restored spaces
		if strings.Contains(value, `"`) {
			value = "'" + value + "'"
		} else {
			value = `"` + value + `"`
		}
	}
	return raw[:vs] + value + raw[ve:], true
}

// attrValueSpan locates the value of the first attribute named attr in a raw
// start tag. Attributes are walked in order and quoted values are skipped
// whole, so text inside another attribute's value never matches.
func attrValueSpan(raw, attr string) (start, end int, ok bool) {
	n := len(raw)
	i := 1 // past '<'
	for i < n && !isTagSpace(raw[i]) && raw[i] != '>' && raw[i] != '/' {
		i++
	}

	for {
		for i < n && (isTagSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= n || raw[i] == '>' {
			return 0, 0, false
		}

		nameStart := i
		for i < n && !isTagSpace(raw[i]) && raw[i] != '=' && raw[i] != '>' && raw[i] != '/' {
			i++
		}
		if i == nameStart {
			i++ // stray '=' or quote
			continue
		}
		name := raw[nameStart:i]

		for i < n && isTagSpace(raw[i]) {
			i++
		}
		if i >= n || raw[i] != '=' {
			continue // attribute without a value
		}
		i++
		for i < n && isTagSpace(raw[i]) {
			i++
		}
		if i >= n {
			return 0, 0, false
		}

		var vs, ve int
		if q := raw[i]; q == '"' || q == '\'' {
			vs = i + 1
			j := strings.IndexByte(raw[vs:], q)
			if j < 0 {
				return 0, 0, false
			}
			ve = vs + j
			i = ve + 1
		} else {
			vs = i
			for i < n && !isTagSpace(raw[i]) && raw[i] != '>' {
				i++
			}
			ve = i
		}

		if strings.EqualFold(name, attr) {
			return vs, ve, true
		}
	}
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// RewriteTarget applies the hyphen-to-space substitution to the directory
// segments of a relative link. The path is the part before any '?' or '#';
// its last segment is the file and is excluded. Substitutions apply in
// segment order, each to the result of the previous one.
func RewriteTarget(value string) (string, bool) {
	if !isRewriteCandidate(value) {
		return value, false
	}

	pathPart := value
	if i := strings.IndexAny(value, "?#"); i >= 0 {
		pathPart = value[:i]
	}
	segments := strings.Split(pathPart, "/")

	out := value
	changed := false
	for _, seg := range segments[:len(segments)-1] {
		if !strings.Contains(seg, "-") {
			continue
		}
		out = strings.Replace(out, seg, strings.ReplaceAll(seg, "-", " "), 1)
		changed = true
	}
	return out, changed
}

// isRewriteCandidate accepts relative paths with at least one separator.
// URLs with a scheme, protocol-relative and root-absolute paths, and pure
// fragments are rejected.
func isRewriteCandidate(value string) bool {
	if value == "" || !strings.Contains(value, "/") {
		return false
	}
	if strings.HasPrefix(value, "/") || strings.HasPrefix(value, "#") {
		return false
	}
	return !schemePrefix.MatchString(value)
}
