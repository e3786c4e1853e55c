package markup

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern matches at an exact position of the source. It is either a literal
// string or an anchored regular expression.
type Pattern struct {
	literal string
	re      *regexp.Regexp
}

// Literal returns a pattern comparing the source byte-for-byte.
func Literal(s string) Pattern {
	return Pattern{literal: s}
}

// Regexp compiles expr into a pattern anchored at the match position.
func Regexp(expr string) (Pattern, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)`)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return Pattern{re: re}, nil
}

// MustRegexp is like Regexp but panics on an invalid expression. It is meant
// for grammar tables built at init time.
func MustRegexp(expr string) Pattern {
	p, err := Regexp(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// IsZero reports whether the pattern matches nothing.
func (p Pattern) IsZero() bool {
	return p.literal == "" && p.re == nil
}

func (p Pattern) String() string {
	if p.re != nil {
		return p.re.String()
	}
	return p.literal
}

// match tries the pattern at src[pos:]. Empty matches never succeed.
func (p Pattern) match(src string, pos int) (*Match, bool) {
	switch {
	case p.re != nil:
		loc := p.re.FindStringSubmatchIndex(src[pos:])
		if loc == nil || loc[1] == 0 {
			return nil, false
		}
		groups := make([]int, len(loc))
		for i, v := range loc {
			if v < 0 {
				groups[i] = -1
				continue
			}
			groups[i] = v + pos
		}
		return &Match{Source: src, Start: pos, End: pos + loc[1], groups: groups}, true
	case p.literal != "":
		if !strings.HasPrefix(src[pos:], p.literal) {
			return nil, false
		}
		end := pos + len(p.literal)
		return &Match{Source: src, Start: pos, End: end, groups: []int{pos, end}}, true
	}
	return nil, false
}

// Match is a successful pattern application. Offsets are absolute.
type Match struct {
	Source     string
	Start, End int
	groups     []int
}

// Text returns the whole matched slice.
func (m *Match) Text() string {
	return m.Source[m.Start:m.End]
}

// Group returns submatch i and its absolute offsets. ok is false when the
// group did not participate in the match.
func (m *Match) Group(i int) (text string, start, end int, ok bool) {
	if 2*i+1 >= len(m.groups) || m.groups[2*i] < 0 {
		return "", -1, -1, false
	}
	start, end = m.groups[2*i], m.groups[2*i+1]
	return m.Source[start:end], start, end, true
}

// GroupText returns submatch i, or "" when it did not participate.
func (m *Match) GroupText(i int) string {
	s, _, _, _ := m.Group(i)
	return s
}

// TextChild builds a text leaf over submatch i, or nil when the group is
// absent or empty.
func (m *Match) TextChild(i int) *Token {
	_, start, end, ok := m.Group(i)
	if !ok || start == end {
		return nil
	}
	return NewText(m.Source, start, end)
}

// AtLineStart reports whether the match begins a line.
func (m *Match) AtLineStart() bool {
	return m.Start == 0 || m.Source[m.Start-1] == '\n'
}

// AtLineEnd reports whether the match is followed by a line break or the end
// of the source.
func (m *Match) AtLineEnd() bool {
	return m.End == len(m.Source) || m.Source[m.End] == '\n' || m.Source[m.End] == '\r'
}

// Convert maps a match to a tentative token. Offsets, Text and Children of
// structural constructs are filled in by the lexer.
type Convert func(m *Match) *Token

// Constraint accepts or rejects a tentative token.
type Constraint func(m *Match, t *Token) bool

// Rule is one entry of the ordered rule table.
type Rule struct {
	// Name is informational; it shows up in debugging output only.
	Name    string
	Kind    Kind
	Pattern Pattern
	// Convert is optional; without it the token only carries Kind.
	Convert    Convert
	Constraint Constraint

	// CannotFollowText forbids the rule right after a plain text run.
	CannotFollowText bool

	// Closer makes the rule structural: the interior is lexed recursively
	// until Closer matches at the same depth.
	Closer Pattern
	// CannotCross lists kinds that may not appear directly in the interior.
	CannotCross []Kind
	// Inner selects the rule table used for the interior; nil keeps the
	// current one.
	Inner *Rules
	// LeaveCloser ends the construct before the closer instead of after it.
	LeaveCloser bool
	// CloseAtEnd lets the end of input close the construct.
	CloseAtEnd bool
}

// Structural reports whether the rule opens a construct with an interior.
func (r *Rule) Structural() bool {
	return !r.Closer.IsZero() || r.CloseAtEnd
}

func (r *Rule) crosses(k Kind) bool {
	for _, c := range r.CannotCross {
		if c == k {
			return true
		}
	}
	return false
}

func (r *Rule) build(m *Match) *Token {
	var t *Token
	if r.Convert != nil {
		t = r.Convert(m)
	}
	if t == nil {
		t = &Token{}
	}
	if t.Kind == "" {
		t.Kind = r.Kind
	}
	t.Start, t.End = m.Start, m.End
	return t
}

// Rules is an ordered rule table. Order is the only priority mechanism.
type Rules []Rule
