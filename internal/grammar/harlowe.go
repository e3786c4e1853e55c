// Package grammar holds rule tables for the markup lexer: the built-in
// Harlowe table and tables loaded from TOML files.
package grammar

import (
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"harlowe-toolbox/internal/markup"
)

const ident = `[\pL\pN_\-]+`

// Harlowe returns the built-in rule table for Harlowe prose. The table is
// built once and shared; callers must not modify it.
func Harlowe() markup.Rules {
	return harlowe()
}

var harlowe = sync.OnceValue(buildHarlowe)

func lineStart(m *markup.Match, _ *markup.Token) bool {
	return m.AtLineStart()
}

// wordStart rejects matches glued to a preceding letter or digit.
func wordStart(m *markup.Match, _ *markup.Token) bool {
	if m.Start == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(m.Source[:m.Start])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

func wholeLine(m *markup.Match, _ *markup.Token) bool {
	return m.AtLineStart() && m.AtLineEnd()
}

func style(kind markup.Kind, marker string) markup.Rule {
	return markup.Rule{
		Name:        string(kind),
		Kind:        kind,
		Pattern:     markup.Literal(marker),
		Closer:      markup.Literal(marker),
		CannotCross: []markup.Kind{markup.KindBreak},
	}
}

func buildHarlowe() markup.Rules {
	var prose, macroMode markup.Rules

	hookCloser := markup.MustRegexp(`\](?:<` + ident + `\|)?`)
	hooks := []markup.Rule{
		{
			Name:    "namedHook",
			Kind:    markup.KindHook,
			Pattern: markup.MustRegexp(`\|(` + ident + `)>\[`),
			Convert: func(m *markup.Match) *markup.Token {
				return &markup.Token{Name: m.GroupText(1)}
			},
			Closer: hookCloser,
			Inner:  &prose,
		},
		{
			Name:    "hiddenHook",
			Kind:    markup.KindHook,
			Pattern: markup.MustRegexp(`\|(` + ident + `)\)\[`),
			Convert: func(m *markup.Match) *markup.Token {
				return &markup.Token{Name: m.GroupText(1), Hidden: true}
			},
			Closer: hookCloser,
			Inner:  &prose,
		},
		{
			Name:    "hook",
			Kind:    markup.KindHook,
			Pattern: markup.Literal("["),
			Closer:  hookCloser,
			Inner:   &prose,
		},
	}

	macro := markup.Rule{
		Name:    "macro",
		Kind:    markup.KindMacro,
		Pattern: markup.MustRegexp(`\((` + ident + `):`),
		Convert: func(m *markup.Match) *markup.Token {
			return &markup.Token{Name: m.GroupText(1)}
		},
		Closer: markup.Literal(")"),
		Inner:  &macroMode,
	}

	variables := []markup.Rule{
		{Name: "variable", Kind: markup.KindVariable, Pattern: markup.MustRegexp(`\$[\pL_][\pL\pN_]*`)},
		{Name: "hookRef", Kind: markup.KindHookRef, Pattern: markup.MustRegexp(`\?[\pL_][\pL\pN_]*`)},
	}

	prose = markup.Rules{
		{
			Name:    "comment",
			Kind:    markup.KindComment,
			Pattern: markup.MustRegexp(`<!--([\s\S]*?)-->`),
			Convert: childOf(1),
		},
		{Name: "verbatim", Kind: markup.KindVerbatim, Pattern: markup.MustRegexp("``[\\s\\S]*?``|`[^`]*`")},
		{Name: "br", Kind: markup.KindBreak, Pattern: markup.MustRegexp(`\r?\n`)},
		{
			Name:    "heading",
			Kind:    markup.KindHeading,
			Pattern: markup.MustRegexp(`(#{1,6})[ \t]*`),
			Convert: func(m *markup.Match) *markup.Token {
				return &markup.Token{Depth: len(m.GroupText(1))}
			},
			Constraint:       lineStart,
			CannotFollowText: true,
			Closer:           markup.MustRegexp(`\r?\n`),
			LeaveCloser:      true,
			CloseAtEnd:       true,
		},
		{
			Name:             "hr",
			Kind:             markup.KindRule,
			Pattern:          markup.MustRegexp(`-{3,}[ \t]*`),
			Constraint:       wholeLine,
			CannotFollowText: true,
		},
		{
			Name:             "align",
			Kind:             markup.KindAlign,
			Pattern:          markup.MustRegexp(`(<==+>|=+><=+|==+>|<==+)[ \t]*`),
			Convert:          convertAlign,
			Constraint:       wholeLine,
			CannotFollowText: true,
		},
		{
			Name:    "column",
			Kind:    markup.KindColumn,
			Pattern: markup.MustRegexp(`(\|*)(=+)(\|*)(=*)[ \t]*`),
			Convert: convertColumn,
			Constraint: func(m *markup.Match, t *markup.Token) bool {
				return t.Column != "" && wholeLine(m, t)
			},
			CannotFollowText: true,
		},
		{
			Name:    "link",
			Kind:    markup.KindLink,
			Pattern: markup.MustRegexp(`\[\[(.+?)\]\]`),
			Convert: convertLink,
		},
		macro,
	}
	prose = append(prose, hooks...)
	prose = append(prose,
		markup.Rule{Name: "collapsed", Kind: markup.KindCollapsed, Pattern: markup.Literal("{"), Closer: markup.Literal("}")},
		markup.Rule{
			Name:    "html",
			Kind:    markup.KindHTML,
			Pattern: markup.MustRegexp(`</?([A-Za-z][A-Za-z0-9\-]*)(?:\s[^<>]*)?/?>`),
			Convert: func(m *markup.Match) *markup.Token {
				return &markup.Token{Name: strings.ToLower(m.GroupText(1))}
			},
		},
		style(markup.KindBold, "**"),
		style(markup.KindStrong, "''"),
		style(markup.KindItalic, "//"),
		style(markup.KindEmphasis, "*"),
		style(markup.KindStrike, "~~"),
		style(markup.KindSup, "^^"),
	)
	prose = append(prose, variables...)

	macroMode = markup.Rules{
		{Name: "string", Kind: markup.KindString, Pattern: markup.MustRegexp(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`)},
		macro,
		{
			Name:    "calc",
			Kind:    markup.KindCalc,
			Pattern: markup.Literal("("),
			Closer:  markup.Literal(")"),
		},
	}
	macroMode = append(macroMode, hooks...)
	macroMode = append(macroMode, variables...)
	macroMode = append(macroMode,
		markup.Rule{Name: "tempVariable", Kind: markup.KindTempVar, Pattern: markup.MustRegexp(`_[\pL\pN_]+`), Constraint: wordStart},
		markup.Rule{
			Name:    "colour",
			Kind:    markup.KindColour,
			Pattern: markup.MustRegexp(`#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`),
			Convert: func(m *markup.Match) *markup.Token {
				return &markup.Token{Colour: strings.ToLower(m.Text())}
			},
		},
		markup.Rule{
			Name:    "css",
			Kind:    markup.KindCSS,
			Pattern: markup.MustRegexp(`(-?\d+(?:\.\d+)?)(px|rem|em|%|ms|s|deg)`),
			Convert: func(m *markup.Match) *markup.Token {
				return &markup.Token{Value: parseFloat(m.GroupText(1)), Name: m.GroupText(2)}
			},
		},
		markup.Rule{
			Name:    "number",
			Kind:    markup.KindNumber,
			Pattern: markup.MustRegexp(`-?\d+(?:\.\d+)?`),
			Convert: func(m *markup.Match) *markup.Token {
				return &markup.Token{Value: parseFloat(m.Text())}
			},
		},
		markup.Rule{
			Name:    "operator",
			Kind:    markup.KindOperator,
			Pattern: markup.MustRegexp(`(?:is not in|is not|is in|is a|into|is|to|and|or|not|contains|matches|where|via)\b|>=|<=|\+|-|\*|/|>|<`),
			Convert: func(m *markup.Match) *markup.Token {
				op := m.Text()
				return &markup.Token{Operator: op, Negate: strings.Contains(op, "not")}
			},
			Constraint: wordStart,
		},
	)

	return prose
}

func childOf(group int) markup.Convert {
	return func(m *markup.Match) *markup.Token {
		t := &markup.Token{}
		if c := m.TextChild(group); c != nil {
			t.Children = []*markup.Token{c}
		}
		return t
	}
}

func convertAlign(m *markup.Match) *markup.Token {
	marker := m.GroupText(1)
	var align string
	switch {
	case strings.HasPrefix(marker, "<") && strings.HasSuffix(marker, ">"):
		align = "justify"
	case strings.Contains(marker, "><"):
		align = "center"
	case strings.HasSuffix(marker, ">"):
		align = "right"
	default:
		align = "left"
	}
	return &markup.Token{Align: align}
}

func convertColumn(m *markup.Match) *markup.Token {
	left, lead, right, trail := m.GroupText(1), m.GroupText(2), m.GroupText(3), m.GroupText(4)
	t := &markup.Token{}
	switch {
	case left != "" && right != "":
		t.Column = "none"
	case left != "":
		t.Column = "left"
		t.Width = len(left)
		t.MarginRight = len(lead)
	case right != "" && trail != "":
		t.Column = "center"
		t.Width = len(right)
		t.MarginLeft = len(lead)
		t.MarginRight = len(trail)
	case right != "":
		t.Column = "right"
		t.Width = len(right)
		t.MarginLeft = len(lead)
	}
	return t
}

// convertLink handles [[label->target]], [[target<-label]] and [[target]].
// The visible label becomes the only child; the target is kept in Passage.
func convertLink(m *markup.Match) *markup.Token {
	inner, start, _, _ := m.Group(1)

	labelStart, labelEnd := 0, len(inner)
	target := inner
	if i := strings.LastIndex(inner, "->"); i >= 0 {
		labelEnd = i
		target = inner[i+2:]
	} else if i := strings.Index(inner, "<-"); i >= 0 {
		labelStart = i + 2
		target = inner[:i]
	}

	t := &markup.Token{Passage: target}
	if labelEnd > labelStart {
		t.Children = []*markup.Token{markup.NewText(m.Source, start+labelStart, start+labelEnd)}
	}
	return t
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
