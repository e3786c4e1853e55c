// Package passage splits a single source text into named sections marked by
// comment directives:
//
//	<!-- @ Start -->
//	<!-- # intro forest -->
//	Body of the Start section.
//
// A "@" comment opens a section named by the rest of the comment. "#" comments
// directly after it add whitespace separated tags.
package passage

import (
	"strings"

	"harlowe-toolbox/internal/markup"
	"harlowe-toolbox/internal/slicer"
	"harlowe-toolbox/internal/textutil"
)

// Section is a named part of a source text. Body offsets exclude the header.
type Section struct {
	Name string   `json:"name"`
	Tags []string `json:"tags,omitempty"`
	// HeaderStart is where the header, including absorbed leading line
	// breaks, begins. It equals Start for the unnamed lead section.
	HeaderStart int `json:"headerStart"`
	Start       int `json:"start"`
	End         int `json:"end"`
}

// Body returns the section's content in src.
func (s Section) Body(src string) string {
	return src[s.Start:s.End]
}

// Options controls how many line breaks around a header belong to it.
type Options struct {
	// Leading line breaks directly before a header are cut from the previous
	// section.
	Leading int
	// Trailing line breaks directly after a header are not part of the body.
	Trailing int
	// DefaultName names content before the first header.
	DefaultName string
}

type header struct {
	name       string
	tags       []string
	start, end int
}

func directive(t *markup.Token) (kind byte, value string) {
	if t.Kind != markup.KindComment {
		return 0, ""
	}
	s := strings.TrimSpace(t.InnerText)
	if s == "" {
		return 0, ""
	}
	switch s[0] {
	case '@', '#':
		return s[0], strings.TrimSpace(s[1:])
	}
	return 0, ""
}

// Split lexes src and returns its sections in order. Text before the first
// header becomes a section named opts.DefaultName unless it is blank. Without
// any header the whole text is one section.
func Split(src string, rules markup.Rules, opts Options) []Section {
	return SplitTokens(src, markup.Lex(src, rules).Children, opts)
}

// SplitTokens works on already lexed top-level tokens of src.
func SplitTokens(src string, nodes []*markup.Token, opts Options) []Section {
	lead, trail := max(opts.Leading, 0), max(opts.Trailing, 0)

	var headers []header
	for i := 0; i < len(nodes); i++ {
		kind, name := directive(nodes[i])
		if kind != '@' {
			continue
		}

		h := header{name: name, start: nodes[i].Start, end: nodes[i].End}
		for j, n := i-1, 0; j >= 0 && n < lead && nodes[j].Kind == markup.KindBreak; j-- {
			if len(headers) > 0 && nodes[j].Start < headers[len(headers)-1].end {
				break
			}
			h.start = nodes[j].Start
			n++
		}

		breaks := 0
		for i+1 < len(nodes) {
			next := nodes[i+1]
			if k, v := directive(next); k == '#' {
				h.tags = append(h.tags, strings.Fields(v)...)
				h.end = next.End
				breaks = 0
				i++
				continue
			}
			if next.Kind == markup.KindBreak && breaks < trail {
				breaks++
				h.end = next.End
				i++
				continue
			}
			if next.Kind == markup.KindText && textutil.IsBlank(next.Text) && i+2 < len(nodes) {
				if after := nodes[i+2]; after.Kind == markup.KindBreak && breaks < trail {
					i++
					continue
				}
			}
			break
		}
		headers = append(headers, h)
	}

	if len(headers) == 0 {
		return []Section{{Name: opts.DefaultName, Start: 0, End: len(src)}}
	}

	var out []Section
	if first := headers[0].start; !textutil.IsBlank(src[:first]) {
		out = append(out, Section{Name: opts.DefaultName, Start: 0, End: first})
	}
	for i, h := range headers {
		end := len(src)
		if i+1 < len(headers) {
			end = headers[i+1].start
		}
		out = append(out, Section{
			Name:        h.name,
			Tags:        h.tags,
			HeaderStart: h.start,
			Start:       h.end,
			End:         end,
		})
	}
	return out
}

// Rebuild replaces the body of every section with the matching entry of
// bodies, leaving headers untouched.
func Rebuild(src string, sections []Section, bodies []string) string {
	pieces := make([]slicer.Piece, 0, len(sections))
	for i, s := range sections {
		if i >= len(bodies) {
			break
		}
		pieces = append(pieces, slicer.Piece{Start: s.Start, End: s.End, Text: bodies[i]})
	}
	return slicer.Replace(src, pieces)
}
