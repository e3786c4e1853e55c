package nouns

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustForm(t *testing.T, form, typ, literal, target string) Form {
	t.Helper()
	f, err := NewForm(form, typ, literal, target)
	require.NoError(t, err)
	return f
}

func aliceGlossary(t *testing.T) Glossary {
	return Glossary{
		{Name: "Alice", Forms: []Form{mustForm(t, "full", "", "Alice", "Alicia")}},
		{Name: "Alice Smith", Forms: []Form{mustForm(t, "full-name", "", "Alice Smith", "Alicia Smith")}},
	}
}

func TestResolveOverlaps_LeftmostLongest(t *testing.T) {
	g := aliceGlossary(t)
	text := "Alice Smith said hi"

	found := Find(text, g)
	require.Len(t, found, 2)

	kept := ResolveOverlaps(found)
	require.Len(t, kept, 1)
	require.Equal(t, Match{Start: 0, End: 11, Text: "Alice Smith", Name: "Alice Smith", Form: "full-name"}, kept[0])
}

func TestFenceRestore_Translates(t *testing.T) {
	text := "Alice Smith said hi"
	fenced := Fence(text, aliceGlossary(t))
	require.Equal(t, `<span name="Alice Smith" form="full-name" literal="Alice Smith">Alice Smith</span> said hi`, fenced)

	restored := Restore(fenced, map[string]string{"Alice Smith.full-name": "Alicia Smith"})
	require.Equal(t, "Alicia Smith said hi", restored)
}

func TestFenceRestore_EmptyMapIsIdentity(t *testing.T) {
	g := aliceGlossary(t)
	inputs := []string{
		"",
		"Alice Smith said hi",
		"alice met ALICE and Alice Smith; Alicette stayed home.",
		"<b>Alice</b> & co. a < b &amp; Alice&nbsp;Smith",
		"Alice\nSmith",
		`(print: "Alice")[Alice's hook]`,
	}
	for _, text := range inputs {
		require.Equal(t, text, Restore(Fence(text, g), nil), text)
		require.Equal(t, text, Restore(Fence(text, g), map[string]string{}), text)
	}
}

func TestRestore_EmptyTranslationFallsBack(t *testing.T) {
	fenced := Fence("Alice waves", aliceGlossary(t))
	require.Equal(t, "Alice waves", Restore(fenced, map[string]string{"Alice.full": ""}))
	require.Equal(t, "Alicia waves", Restore(fenced, aliceGlossary(t).Targets()))
}

func TestRestore_LeavesForeignSpans(t *testing.T) {
	text := `<span class="x">keep</span> <span name="A" form="f">a <span>b</span></span> <span name="B" form="g">open`
	out := Restore(text, map[string]string{"A.f": "Z"})
	require.Equal(t, `<span class="x">keep</span> Z <span name="B" form="g">open`, out)
}

func TestFence_EscapesAttributes(t *testing.T) {
	g := Glossary{{Name: `Tom "T"`, Forms: []Form{mustForm(t, "a&b", "", "Tom", "Thomas")}}}
	fenced := Fence("Tom", g)
	require.Equal(t, `<span name="Tom &#34;T&#34;" form="a&amp;b" literal="Tom">Tom</span>`, fenced)
	require.Equal(t, "Thomas", Restore(fenced, map[string]string{Key(`Tom "T"`, "a&b"): "Thomas"}))
}

func TestFind_WordBoundaries(t *testing.T) {
	g := Glossary{{Name: "Al", Forms: []Form{mustForm(t, "short", "", "Al", "")}}}
	found := Find("Al, Alan, al; pAl Al", g)
	var starts []int
	for _, m := range found {
		starts = append(starts, m.Start)
	}
	require.Equal(t, []int{0, 10, 18}, starts)
}

func TestFind_UnicodeBoundaries(t *testing.T) {
	g := Glossary{{Name: "Zoë", Forms: []Form{mustForm(t, "f", "", "Zoë", "")}}}
	require.Len(t, Find("Zoë. Zoëlle", g), 1)
	require.Len(t, Find("Über zoë", g), 1)
}

func TestFind_MatchTypes(t *testing.T) {
	text := "Bob bob BOB Robert"
	cases := []struct {
		typ, literal string
		want         int
	}{
		{TypeLiteral, "bob", 3},
		{TypeLiteralSensitive, "bob", 1},
		{TypePattern, `b.b`, 3},
		{TypePatternSensitive, `B[a-z]b`, 1},
		{TypePatternSensitive, `(Rob|Bob)(ert)?`, 2},
	}
	for _, tc := range cases {
		g := Glossary{{Name: "n", Forms: []Form{mustForm(t, "f", tc.typ, tc.literal, "")}}}
		require.Len(t, Find(text, g), tc.want, "%s %s", tc.typ, tc.literal)
	}
}

func TestResolveOverlaps_TieBreaks(t *testing.T) {
	matches := []Match{
		{Start: 5, End: 9, Text: "x", Name: "b", Form: "f"},
		{Start: 0, End: 3, Text: "x", Name: "z", Form: "f"},
		{Start: 5, End: 9, Text: "x", Name: "a", Form: "g"},
		{Start: 5, End: 9, Text: "x", Name: "a", Form: "f"},
		{Start: 2, End: 6, Text: "x", Name: "a", Form: "f"},
		{Start: 4, End: 4, Text: "", Name: "a", Form: "f"},
		{Start: 9, End: 10, Text: "x", Name: "a", Form: "f"},
	}
	kept := ResolveOverlaps(matches)
	require.Equal(t, []Match{
		{Start: 0, End: 3, Text: "x", Name: "z", Form: "f"},
		{Start: 5, End: 9, Text: "x", Name: "a", Form: "f"},
		{Start: 9, End: 10, Text: "x", Name: "a", Form: "f"},
	}, kept)
}

func TestNewForm_InvalidPattern(t *testing.T) {
	_, err := NewForm("f", TypePattern, "(", "")
	require.Error(t, err)
	_, err = NewForm("f", TypeLiteral, "", "")
	require.Error(t, err)
}

const glossaryCSV = "\uFEFFname,form,type,literal,target\n" +
	"Alice,full,,Alice,Alicia\n" +
	",orphan,,Nobody,\n" +
	"Bob,nick,r,bob+y,Bobby\n" +
	"Alice,full,S,ALICE,Second\n" +
	"Alice,short,R,Al\\b,Ali\n"

func TestReadCSV_Build(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(glossaryCSV))
	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.Equal(t, "Alice", rows[0].Name)

	g, err := Build(rows)
	require.NoError(t, err)
	require.Len(t, g, 2)
	require.Equal(t, "Alice", g[0].Name)
	require.Len(t, g[0].Forms, 3)
	require.Equal(t, "Bob", g[1].Name)
	require.Equal(t, 4, g.Len())

	require.Equal(t, map[string]string{
		"Alice.full":  "Alicia",
		"Alice.short": "Ali",
		"Bob.nick":    "Bobby",
	}, g.Targets())
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("name,target\nA,B\n"))
	require.Error(t, err)

	rows, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = Build([]Row{{Name: "A", Form: "f", Type: "r", Literal: "[", Target: ""}})
	require.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.csv")
	require.NoError(t, os.WriteFile(path, []byte(glossaryCSV), 0o644))

	g, err := LoadCSV(path)
	require.NoError(t, err)
	require.Equal(t,
		`<span name="Bob" form="nick" literal="Bobby">Bobby</span> and <span name="Alice" form="full" literal="alice">alice</span>`,
		Fence("Bobby and alice", g))

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestFind_PatternsKeepContext(t *testing.T) {
	cases := []struct {
		literal, text string
		want          [][2]int
	}{
		{`\bAl`, "AlAl", [][2]int{{0, 2}}},
		{`^Al`, "AlAlAl", [][2]int{{0, 2}}},
		{`Al\B`, "AlAl x", [][2]int{{0, 2}}},
		{`\bAl\b`, "Al pAl Al", [][2]int{{0, 2}, {7, 9}}},
	}
	for _, tc := range cases {
		g := Glossary{{Name: "Al", Forms: []Form{mustForm(t, "f", TypePatternSensitive, tc.literal, "X")}}}
		var got [][2]int
		for _, m := range Find(tc.text, g) {
			got = append(got, [2]int{m.Start, m.End})
		}
		require.Equal(t, tc.want, got, "%s on %q", tc.literal, tc.text)
	}

	g := Glossary{{Name: "Al", Forms: []Form{mustForm(t, "f", TypePatternSensitive, `\bAl`, "X")}}}
	require.Equal(t, "XAl", Restore(Fence("AlAl", g), g.Targets()))
}

func TestFenceRestore_StrayMarkupAroundNouns(t *testing.T) {
	g := aliceGlossary(t)
	inputs := []string{
		"if a<b then Alice wins",
		"<i Alice",
		"x <!-- open Alice",
		"<script>Alice</script> and <textarea>Alice Smith</textarea>",
		"<title>Alice</title>",
		"<span class=\"x\">Alice</span>",
		"Alice </span> <span>",
	}
	for _, text := range inputs {
		require.Equal(t, text, Restore(Fence(text, g), nil), text)
	}

	require.Equal(t, "if a<b then Alicia wins", Restore(Fence("if a<b then Alice wins", g), g.Targets()))
	require.Equal(t, "<script>Alicia</script> <!-- Alicia Smith",
		Restore(Fence("<script>Alice</script> <!-- Alice Smith", g), g.Targets()))
}

func TestRestore_AttributeOrderAndQuotes(t *testing.T) {
	text := `<SPAN literal='Alice' form='full' name='Alice'>Alice</SPAN>!`
	require.Equal(t, "Alicia!", Restore(text, map[string]string{"Alice.full": "Alicia"}))
}
