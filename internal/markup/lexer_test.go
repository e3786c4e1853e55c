package markup

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testRules is a small grammar: line breaks, bold runs that cannot cross a
// line break, bracket hooks, parenthesised macros with strings inside, and a
// horizontal rule marker that cannot follow text.
func testRules() Rules {
	var macroMode Rules
	prose := Rules{
		{Kind: KindBreak, Pattern: Literal("\n")},
		{Kind: KindRule, Pattern: MustRegexp(`---+`), CannotFollowText: true},
		{Kind: KindBold, Pattern: Literal("**"), Closer: Literal("**"), CannotCross: []Kind{KindBreak}},
		{Kind: KindHook, Pattern: Literal("["), Closer: Literal("]")},
		{
			Kind:    KindMacro,
			Pattern: MustRegexp(`\(([a-z]+):`),
			Convert: func(m *Match) *Token { return &Token{Name: m.GroupText(1)} },
			Closer:  Literal(")"),
			Inner:   &macroMode,
		},
	}
	hook := prose[3]
	hook.Inner = &prose
	macroMode = Rules{
		{Kind: KindString, Pattern: MustRegexp(`"[^"]*"`)},
		prose[4],
		hook,
	}
	return prose
}

func kinds(ts []*Token) []Kind {
	out := make([]Kind, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Kind)
	}
	return out
}

func TestLex_Empty(t *testing.T) {
	root := Lex("", testRules())
	require.Equal(t, KindRoot, root.Kind)
	require.Equal(t, 0, root.Start)
	require.Equal(t, 0, root.End)
	require.Empty(t, root.Children)
}

func TestLex_PlainTextMerges(t *testing.T) {
	src := "hello, wörld"
	root := Lex(src, testRules())
	require.NoError(t, Check(root, src))
	require.Len(t, root.Children, 1)

	tok := root.Children[0]
	require.Equal(t, KindText, tok.Kind)
	require.Equal(t, 0, tok.Start)
	require.Equal(t, len(src), tok.End)
	require.Equal(t, src, tok.Text)
}

func TestLex_Bold(t *testing.T) {
	src := "a**b**c"
	root := Lex(src, testRules())
	require.NoError(t, Check(root, src))
	require.Equal(t, []Kind{KindText, KindBold, KindText}, kinds(root.Children))

	bold := root.Children[1]
	require.Equal(t, 1, bold.Start)
	require.Equal(t, 6, bold.End)
	require.Equal(t, "", bold.Text)
	require.Equal(t, "b", bold.InnerText)
	require.Len(t, bold.Children, 1)
	require.Equal(t, 3, bold.Children[0].Start)
	require.Equal(t, 4, bold.Children[0].End)
	require.Equal(t, "abc", root.InnerText)
}

func TestLex_UnterminatedFallsBackToText(t *testing.T) {
	src := "a **b"
	root := Lex(src, testRules())
	require.NoError(t, Check(root, src))
	require.Len(t, root.Children, 1)
	require.Equal(t, KindText, root.Children[0].Kind)
	require.Equal(t, src, root.Children[0].Text)
}

func TestLex_CannotCrossBoundary(t *testing.T) {
	src := "**a\nb**"
	root := Lex(src, testRules())
	require.NoError(t, Check(root, src))
	require.Equal(t, []Kind{KindText, KindBreak, KindText}, kinds(root.Children))
	require.Equal(t, "**a", root.Children[0].Text)
	require.Equal(t, "b**", root.Children[2].Text)
}

func TestLex_NestedConstructs(t *testing.T) {
	src := `x(set: "a)b" [y **z**])w`
	root := Lex(src, testRules())
	require.NoError(t, Check(root, src))
	require.Equal(t, []Kind{KindText, KindMacro, KindText}, kinds(root.Children))

	macro := root.Children[1]
	require.Equal(t, "set", macro.Name)
	require.Equal(t, 1, macro.Start)
	require.Equal(t, len(src)-1, macro.End)
	require.Equal(t, []Kind{KindText, KindString, KindText, KindHook}, kinds(macro.Children))
	require.Equal(t, `"a)b"`, macro.Children[1].Text)
}

func TestLex_EnclosingCloserIsBoundary(t *testing.T) {
	// The bold run inside the hook never closes before the hook does.
	src := "[a **b] c**"
	root := Lex(src, testRules())
	require.NoError(t, Check(root, src))
	require.Equal(t, []Kind{KindHook, KindText}, kinds(root.Children))

	hook := root.Children[0]
	require.Equal(t, 0, hook.Start)
	require.Equal(t, 7, hook.End)
	require.Equal(t, []Kind{KindText}, kinds(hook.Children))
	require.Equal(t, "a **b", hook.Children[0].Text)
}

func TestLex_CannotFollowText(t *testing.T) {
	src := "---\nab---\n---"
	root := Lex(src, testRules())
	require.NoError(t, Check(root, src))
	require.Equal(t, []Kind{KindRule, KindBreak, KindText, KindBreak, KindRule}, kinds(root.Children))
	require.Equal(t, "ab---", root.Children[2].Text)
}

func TestLex_LeaveCloserAndCloseAtEnd(t *testing.T) {
	rules := Rules{
		{Kind: KindBreak, Pattern: Literal("\n")},
		{Kind: KindHeading, Pattern: MustRegexp(`#+ `), Closer: Literal("\n"), LeaveCloser: true, CloseAtEnd: true},
	}
	src := "# one\n# two"
	root := Lex(src, rules)
	require.NoError(t, Check(root, src))
	require.Equal(t, []Kind{KindHeading, KindBreak, KindHeading}, kinds(root.Children))
	require.Equal(t, "one", root.Children[0].InnerText)
	require.Equal(t, 5, root.Children[0].End)
	require.Equal(t, "two", root.Children[2].InnerText)
	require.Equal(t, len(src), root.Children[2].End)
}

func TestLex_ConstraintRejects(t *testing.T) {
	rules := Rules{{
		Kind:       KindVariable,
		Pattern:    MustRegexp(`\$[a-z]+`),
		Constraint: func(m *Match, _ *Token) bool { return m.AtLineStart() },
	}}
	src := "$a $b"
	root := Lex(src, rules)
	require.NoError(t, Check(root, src))
	require.Equal(t, []Kind{KindVariable, KindText}, kinds(root.Children))
	require.Equal(t, " $b", root.Children[1].Text)
}

func TestLex_ConvertChildren(t *testing.T) {
	rules := Rules{{
		Kind:    KindLink,
		Pattern: MustRegexp(`\[\[([^\]]*)\]\]`),
		Convert: func(m *Match) *Token {
			t := &Token{Passage: m.GroupText(1)}
			if c := m.TextChild(1); c != nil {
				t.Children = []*Token{c}
			}
			return t
		},
	}}
	src := "go [[Next]]"
	root := Lex(src, rules)
	require.NoError(t, Check(root, src))

	link := root.Children[1]
	require.Equal(t, KindLink, link.Kind)
	require.Equal(t, "Next", link.InnerText)
	require.Equal(t, "Next", link.Passage)
	require.Equal(t, 5, link.Children[0].Start)
}

func TestLex_InvariantHoldsOnNoise(t *testing.T) {
	inputs := []string{
		"**", "****", "[[[", "]]]", "(a:", "(a: [b", "(a: \"", "**[**]**",
		"a\n**b\n**", "((a: (b: (c: x)))", "[**a** [b] **c]", "---",
		"日本語 **テキスト** [フック]", "\n\n\n", "(set: [)])",
	}
	for _, src := range inputs {
		root := Lex(src, testRules())
		require.NoError(t, Check(root, src), "input %q", src)
		require.Equal(t, len(src), root.End, "input %q", src)
	}
}

func TestLex_DeepNestingDegrades(t *testing.T) {
	src := ""
	for i := 0; i < MaxDepth+10; i++ {
		src += "["
	}
	for i := 0; i < MaxDepth+10; i++ {
		src += "]"
	}
	root := Lex(src, testRules())
	require.NoError(t, Check(root, src))
	require.Equal(t, len(src), root.End)
}

func TestLex_UnclosedOpenersStayFast(t *testing.T) {
	inputs := []string{
		strings.Repeat("[", 64),
		strings.Repeat("(a:", 64),
		strings.Repeat("(a: [", 64),
		strings.Repeat("[**", 64),
		"(a: " + strings.Repeat("[", 64) + ")",
		strings.Repeat("[", 64) + strings.Repeat("(a: ", 64) + ")",
	}
	for _, src := range inputs {
		began := time.Now()
		root := Lex(src, testRules())
		require.Less(t, time.Since(began), 2*time.Second, "input %q", src)
		require.NoError(t, Check(root, src), "input %q", src)
		require.Equal(t, len(src), root.End, "input %q", src)
	}
}

func TestLex_FailedHooksInsideMacro(t *testing.T) {
	src := "(a: " + strings.Repeat("[", 40) + ")"
	root := Lex(src, testRules())
	require.Len(t, root.Children, 1)
	macro := root.Children[0]
	require.Equal(t, KindMacro, macro.Kind)
	require.Equal(t, len(src), macro.End)
	require.Equal(t, " "+strings.Repeat("[", 40), macro.InnerText)
}

func TestLex_RandomInputsKeepInvariant(t *testing.T) {
	alphabet := []string{"[", "]", "(a:", "(b:", ")", "**", "\n", "\"", "---", "x", " ", "é"}
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		var sb strings.Builder
		for n := rng.IntN(40); n > 0; n-- {
			sb.WriteString(alphabet[rng.IntN(len(alphabet))])
		}
		src := sb.String()
		root := Lex(src, testRules())
		require.NoError(t, Check(root, src), "input %q", src)
		require.Equal(t, len(src), root.End, "input %q", src)
	}
}
