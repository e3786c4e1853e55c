package markup

import "strings"

// Kind identifies the construct a Token represents.
type Kind string

const (
	KindRoot      Kind = "root"
	KindText      Kind = "text"
	KindBreak     Kind = "br"
	KindBold      Kind = "bold"
	KindItalic    Kind = "italic"
	KindEmphasis  Kind = "em"
	KindStrong    Kind = "strong"
	KindStrike    Kind = "del"
	KindSup       Kind = "sup"
	KindHeading   Kind = "heading"
	KindRule      Kind = "hr"
	KindAlign     Kind = "align"
	KindColumn    Kind = "column"
	KindCSS       Kind = "css"
	KindCalc      Kind = "calc"
	KindComment   Kind = "comment"
	KindVerbatim  Kind = "verbatim"
	KindLink      Kind = "link"
	KindMacro     Kind = "macro"
	KindHook      Kind = "hook"
	KindHTML      Kind = "tag"
	KindCollapsed Kind = "collapsed"
	KindVariable  Kind = "variable"
	KindTempVar   Kind = "tempVariable"
	KindHookRef   Kind = "hookRef"
	KindString    Kind = "string"
	KindNumber    Kind = "number"
	KindColour    Kind = "colour"
	KindOperator  Kind = "operator"
)

// Token is a node of the syntax tree. Start and End are byte offsets into the
// lexed source, End exclusive.
type Token struct {
	Kind  Kind `json:"type"`
	Start int  `json:"start"`
	End   int  `json:"end"`

	// Text is the literal source slice of a leaf token.
	Text string `json:"text,omitempty"`
	// InnerText is the concatenated Text of every leaf below a container.
	InnerText string   `json:"innerText,omitempty"`
	Children  []*Token `json:"children,omitempty"`
	Name      string   `json:"name,omitempty"`

	// Kind specific attributes. Only the grammar sets them.
	Depth       int     `json:"depth,omitempty"`
	Align       string  `json:"align,omitempty"`
	Column      string  `json:"column,omitempty"`
	Width       int     `json:"width,omitempty"`
	MarginLeft  int     `json:"marginLeft,omitempty"`
	MarginRight int     `json:"marginRight,omitempty"`
	Value       float64 `json:"value,omitempty"`
	Colour      string  `json:"colour,omitempty"`
	Operator    string  `json:"operator,omitempty"`
	Negate      bool    `json:"negate,omitempty"`
	Passage     string  `json:"passage,omitempty"`
	Hidden      bool    `json:"hidden,omitempty"`
}

// IsContainer reports whether the token has children.
func (t *Token) IsContainer() bool {
	return len(t.Children) > 0
}

// Display returns the text a consumer should see for the token: the literal
// text of a leaf or the flattened inner text of a container.
func (t *Token) Display() string {
	if t.IsContainer() {
		return t.InnerText
	}
	return t.Text
}

// Label returns the kind, suffixed with "[name]" when the token is named.
func (t *Token) Label() string {
	if t.Name == "" {
		return string(t.Kind)
	}
	return string(t.Kind) + "[" + t.Name + "]"
}

// Flatten concatenates the Text of every leaf below the given tokens.
func Flatten(tokens []*Token) string {
	var sb strings.Builder
	var rec func([]*Token)
	rec = func(ts []*Token) {
		for _, t := range ts {
			if t.IsContainer() {
				rec(t.Children)
				continue
			}
			sb.WriteString(t.Text)
		}
	}
	rec(tokens)
	return sb.String()
}

// NewText builds a text leaf over src[start:end].
func NewText(src string, start, end int) *Token {
	return &Token{Kind: KindText, Start: start, End: end, Text: src[start:end]}
}
