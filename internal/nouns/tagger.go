package nouns

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Match is a glossary hit in a text.
type Match struct {
	Start int
	End   int
	Text  string
	Name  string
	Form  string
}

// Find collects every match of every form in g. Matches of one form never
// overlap each other; matches of different forms may.
func Find(text string, g Glossary) []Match {
	var out []Match
	for _, e := range g {
		for _, f := range e.Forms {
			for _, loc := range f.findAll(text) {
				out = append(out, Match{
					Start: loc[0],
					End:   loc[1],
					Text:  text[loc[0]:loc[1]],
					Name:  e.Name,
					Form:  f.Form,
				})
			}
		}
	}
	return out
}

func (f Form) findAll(text string) [][2]int {
	if f.re == nil {
		return nil
	}
	var out [][2]int
	if !f.boundary {
		// Pattern forms run over the whole text so anchors and \b see the
		// real neighbours of every match.
		for _, loc := range f.re.FindAllStringIndex(text, -1) {
			if loc[1] > loc[0] {
				out = append(out, [2]int{loc[0], loc[1]})
			}
		}
		return out
	}

	// Literal forms retry one rune further when a hit is glued to a word.
	pos := 0
	for pos <= len(text) {
		loc := f.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end == start || !atBoundary(text, start, end) {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + max(size, 1)
			continue
		}
		out = append(out, [2]int{start, end})
		pos = end
	}
	return out
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// atBoundary reports whether text[start:end] is not glued to neighbouring word
// characters. Edges that are themselves non-word characters need no check.
func atBoundary(text string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(text[start:])
	if isWord(first) && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWord(prev) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(text[:end])
	if isWord(last) && end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWord(next) {
			return false
		}
	}
	return true
}

func less(a, b Match) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End > b.End
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if a.Form != b.Form {
		return a.Form < b.Form
	}
	return a.Text < b.Text
}

// ResolveOverlaps keeps the leftmost, then longest, of every group of
// overlapping matches. Empty matches are dropped. The result is sorted by
// Start.
func ResolveOverlaps(matches []Match) []Match {
	sorted := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.End > m.Start {
			sorted = append(sorted, m)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	out := sorted[:0]
	for _, m := range sorted {
		if n := len(out); n > 0 {
			kept := out[n-1]
			if m.Start == kept.Start || m.Start < kept.End {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// Fence wraps every resolved glossary match in a span carrying its name, form
// and matched text:
//
//	<span name="Alice" form="full" literal="Alice">Alice</span>
//
// The matched text itself is copied verbatim between the tags.
func Fence(text string, g Glossary) string {
	matches := ResolveOverlaps(Find(text, g))
	if len(matches) == 0 {
		return text
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(text[last:m.Start])
		sb.WriteString(`<span name="`)
		sb.WriteString(html.EscapeString(m.Name))
		sb.WriteString(`" form="`)
		sb.WriteString(html.EscapeString(m.Form))
		sb.WriteString(`" literal="`)
		sb.WriteString(html.EscapeString(m.Text))
		sb.WriteString(`">`)
		sb.WriteString(m.Text)
		sb.WriteString(`</span>`)
		last = m.End
	}
	sb.WriteString(text[last:])
	return sb.String()
}
