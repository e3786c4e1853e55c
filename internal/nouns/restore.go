package nouns

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	spanOpen  = regexp.MustCompile(`(?i)<span(?:\s[^<>]*)?>`)
	spanClose = regexp.MustCompile(`(?i)</span\s*>`)
	tagAttr   = regexp.MustCompile(`([A-Za-z_:][-A-Za-z0-9_:.]*)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// Restore replaces every fenced span in text with translations[name.form].
// A span without a translation, or with an empty one, is replaced by its own
// inner content. Everything outside fenced spans is copied byte for byte.
//
// Fences are located by scanning for span tags only, so stray '<' in the
// surrounding text, comments and raw-text elements do not hide them.
func Restore(text string, translations map[string]string) string {
	var out strings.Builder
	out.Grow(len(text))

	pos := 0
	for pos < len(text) {
		loc := spanOpen.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		open, openEnd := pos+loc[0], pos+loc[1]

		key, ok := fenceKey(text[open:openEnd])
		if !ok {
			out.WriteString(text[pos:openEnd])
			pos = openEnd
			continue
		}
		innerEnd, closeEnd, ok := closingSpan(text, openEnd)
		if !ok {
			// An unclosed fence is left as it was.
			out.WriteString(text[pos:openEnd])
			pos = openEnd
			continue
		}

		out.WriteString(text[pos:open])
		if v := translations[key]; v != "" {
			out.WriteString(v)
		} else {
			out.WriteString(text[openEnd:innerEnd])
		}
		pos = closeEnd
	}
	out.WriteString(text[pos:])
	return out.String()
}

// closingSpan finds the end tag balancing a span opened just before from.
// It returns where the inner content ends and where the end tag ends.
func closingSpan(text string, from int) (innerEnd, closeEnd int, ok bool) {
	depth := 1
	pos := from
	for {
		c := spanClose.FindStringIndex(text[pos:])
		if c == nil {
			return 0, 0, false
		}
		if o := spanOpen.FindStringIndex(text[pos:]); o != nil && o[0] < c[0] {
			depth++
			pos += o[1]
			continue
		}
		depth--
		if depth == 0 {
			return pos + c[0], pos + c[1], true
		}
		pos += c[1]
	}
}

// fenceKey reads the name and form attributes of a span start tag.
func fenceKey(tag string) (string, bool) {
	var name, form string
	var hasName, hasForm bool
	for _, m := range tagAttr.FindAllStringSubmatch(tag, -1) {
		v := m[2]
		if v == "" {
			v = m[3]
		}
		switch strings.ToLower(m[1]) {
		case "name":
			name, hasName = html.UnescapeString(v), true
		case "form":
			form, hasForm = html.UnescapeString(v), true
		}
	}
	if !hasName || !hasForm {
		return "", false
	}
	return Key(name, form), true
}
