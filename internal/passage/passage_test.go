package passage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"harlowe-toolbox/internal/grammar"
)

const sample = "intro\n<!-- @ A -->\n<!-- # t1 t2 -->\nbody a\n\n<!-- @ B -->\nbody b\n"

func TestSplit_Sections(t *testing.T) {
	secs := Split(sample, grammar.Harlowe(), Options{Leading: 1, Trailing: 1, DefaultName: "file"})
	require.Len(t, secs, 3)

	require.Equal(t, "file", secs[0].Name)
	require.Equal(t, "intro", secs[0].Body(sample))

	require.Equal(t, "A", secs[1].Name)
	require.Equal(t, []string{"t1", "t2"}, secs[1].Tags)
	require.Equal(t, "body a\n", secs[1].Body(sample))
	require.Equal(t, 5, secs[1].HeaderStart)

	require.Equal(t, "B", secs[2].Name)
	require.Empty(t, secs[2].Tags)
	require.Equal(t, "body b\n", secs[2].Body(sample))
}

func TestSplit_NoLeadingOrTrailing(t *testing.T) {
	secs := Split(sample, grammar.Harlowe(), Options{DefaultName: "file"})
	require.Len(t, secs, 3)
	require.Equal(t, "intro\n", secs[0].Body(sample))
	require.Empty(t, secs[1].Tags)
	require.Equal(t, "\n<!-- # t1 t2 -->\nbody a\n\n", secs[1].Body(sample))
	require.Equal(t, "\nbody b\n", secs[2].Body(sample))
}

func TestSplit_NoHeader(t *testing.T) {
	src := "just text\n<!-- plain comment -->"
	secs := Split(src, grammar.Harlowe(), Options{DefaultName: "x"})
	require.Equal(t, []Section{{Name: "x", Start: 0, End: len(src)}}, secs)
}

func TestSplit_BlankLeadIsDropped(t *testing.T) {
	src := "\n  \n<!-- @Only -->  \nbody"
	secs := Split(src, grammar.Harlowe(), Options{Trailing: 1})
	require.Len(t, secs, 1)
	require.Equal(t, "Only", secs[0].Name)
	require.Equal(t, "body", secs[0].Body(src))
}

func TestSplit_TrailingStopsAtText(t *testing.T) {
	src := "<!-- @ A -->text right away"
	secs := Split(src, grammar.Harlowe(), Options{Trailing: 3})
	require.Len(t, secs, 1)
	require.Equal(t, "text right away", secs[0].Body(src))
}

func TestRebuild(t *testing.T) {
	opts := Options{Leading: 1, Trailing: 1, DefaultName: "file"}
	secs := Split(sample, grammar.Harlowe(), opts)

	bodies := make([]string, len(secs))
	for i, s := range secs {
		bodies[i] = s.Body(sample)
	}
	require.Equal(t, sample, Rebuild(sample, secs, bodies))

	bodies[1] = "corps a\n"
	out := Rebuild(sample, secs, bodies)
	require.Equal(t, "intro\n<!-- @ A -->\n<!-- # t1 t2 -->\ncorps a\n\n<!-- @ B -->\nbody b\n", out)

	again := Split(out, grammar.Harlowe(), opts)
	require.Equal(t, "corps a\n", again[1].Body(out))
}
