package markup

import "unicode/utf8"

// MaxDepth caps the nesting of structural constructs. Deeper openers are
// emitted as plain text.
const MaxDepth = 128

// Lex turns src into a token tree rooted at a KindRoot container. It never
// fails: unmatched or unterminated input degrades into text tokens.
func Lex(src string, rules Rules) *Token {
	lx := &lexer{
		src:    src,
		failed: make(map[attemptKey]failure),
		ids:    make(map[*Rule]int),
	}
	children, _, _ := lx.run(0, rules, nil)

	root := &Token{Kind: KindRoot, Children: children}
	if n := len(children); n > 0 {
		root.End = children[n-1].End
	}
	root.InnerText = Flatten(children)
	return root
}

// frame is an open structural construct.
type frame struct {
	rule   *Rule
	parent *frame
	depth  int
}

type attemptKey struct {
	rule int
	pos  int
}

type outcome int

const (
	closed outcome = iota
	// hitEnd: input ended before the closer.
	hitEnd
	// hitBoundary: an enclosing construct's closer matched first.
	hitBoundary
	// hitCross: a token of a kind the construct cannot cross.
	hitCross
)

// failure records where and why a structural attempt gave up.
type failure struct {
	at  int
	why outcome
}

type lexer struct {
	src    string
	failed map[attemptKey]failure
	ids    map[*Rule]int
}

func (lx *lexer) ruleID(r *Rule) int {
	id, ok := lx.ids[r]
	if !ok {
		id = len(lx.ids) + 1
		lx.ids[r] = id
	}
	return id
}

// stillFails reports whether a recorded failure holds inside fr. Failures at
// the end of input or on a forbidden kind do not depend on the enclosing
// constructs. A boundary failure holds when some enclosing closer matches at
// the same offset; otherwise the attempt must be retried.
func (lx *lexer) stillFails(f failure, fr *frame) bool {
	if f.why != hitBoundary {
		return true
	}
	for a := fr; a != nil; a = a.parent {
		if _, ok := a.rule.Closer.match(lx.src, f.at); ok {
			return true
		}
	}
	return false
}

// run lexes from pos until the closer of fr (or the end of input at the top
// level). It returns the children, the end offset of the construct and how
// it ended; on failure the offset is where lexing gave up.
func (lx *lexer) run(pos int, rules Rules, fr *frame) ([]*Token, int, outcome) {
	src := lx.src
	var (
		out       []*Token
		textStart = -1
		afterText bool
	)

	flush := func(at int) {
		if textStart >= 0 && at > textStart {
			out = append(out, NewText(src, textStart, at))
			afterText = true
		}
		textStart = -1
	}

	for pos < len(src) {
		if fr != nil {
			if m, ok := fr.rule.Closer.match(src, pos); ok {
				flush(pos)
				if fr.rule.LeaveCloser {
					return out, pos, closed
				}
				return out, m.End, closed
			}
			for a := fr.parent; a != nil; a = a.parent {
				if _, ok := a.rule.Closer.match(src, pos); ok {
					return nil, pos, hitBoundary
				}
			}
		}

		tok, next, literal := lx.try(pos, rules, fr, afterText || textStart >= 0)
		switch {
		case tok != nil:
			if fr != nil && fr.rule.crosses(tok.Kind) {
				return nil, pos, hitCross
			}
			flush(pos)
			out = append(out, tok)
			afterText = tok.Kind == KindText
			pos = next
			continue
		case literal:
			if textStart < 0 {
				textStart = pos
			}
			pos = next
			continue
		}

		if textStart < 0 {
			textStart = pos
		}
		_, w := utf8.DecodeRuneInString(src[pos:])
		pos += w
	}

	flush(len(src))
	if fr != nil && !fr.rule.CloseAtEnd {
		return nil, len(src), hitEnd
	}
	return out, len(src), closed
}

// try evaluates the rule table at pos. It returns the winning token and the
// offset after it, or literal=true with the offset after an unterminated
// opener that must be emitted as text.
func (lx *lexer) try(pos int, rules Rules, fr *frame, afterText bool) (tok *Token, next int, literal bool) {
	for i := range rules {
		r := &rules[i]
		if r.CannotFollowText && afterText {
			continue
		}
		m, ok := r.Pattern.match(lx.src, pos)
		if !ok {
			continue
		}
		t := r.build(m)
		if r.Constraint != nil && !r.Constraint(m, t) {
			continue
		}

		if !r.Structural() {
			if t.IsContainer() {
				t.Text = ""
				t.InnerText = Flatten(t.Children)
			} else {
				t.Text = m.Text()
			}
			return t, m.End, false
		}

		depth := 1
		if fr != nil {
			depth = fr.depth + 1
		}
		key := attemptKey{rule: lx.ruleID(r), pos: pos}
		if f, seen := lx.failed[key]; (seen && lx.stillFails(f, fr)) || depth > MaxDepth {
			return nil, m.End, true
		}

		inner := rules
		if r.Inner != nil {
			inner = *r.Inner
		}
		child := &frame{rule: r, parent: fr, depth: depth}
		kids, end, how := lx.run(m.End, inner, child)
		if how != closed {
			lx.failed[key] = failure{at: end, why: how}
			return nil, m.End, true
		}

		t.Children = kids
		t.End = end
		t.Text = ""
		t.InnerText = Flatten(kids)
		return t, end, false
	}
	return nil, pos, false
}
