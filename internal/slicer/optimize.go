package slicer

import (
	"slices"

	"harlowe-toolbox/internal/markup"
)

// DefaultMarkers maps the inline style kinds Optimize knows how to rejoin to
// the marker written around them.
var DefaultMarkers = map[string]string{
	string(markup.KindBold):     "**",
	string(markup.KindStrong):   "''",
	string(markup.KindItalic):   "//",
	string(markup.KindEmphasis): "*",
}

// Optimize rejoins sentences split by a single inline style run using
// DefaultMarkers. See OptimizeWith.
func Optimize(pieces []Piece) []Piece {
	return OptimizeWith(pieces, DefaultMarkers)
}

// OptimizeWith scans consecutive triples (a, b, c) and merges them into one
// piece when b sits one style level below a and c, and the byte gaps on each
// side of b equal the style marker's length. The merged text reinserts the
// marker around b. Merges chain: after a merge the scan resumes one position
// earlier. Pieces must carry Types.
func OptimizeWith(pieces []Piece, markers map[string]string) []Piece {
	out := make([]Piece, len(pieces))
	copy(out, pieces)

	for i := 0; i+2 < len(out); {
		a, b, c := out[i], out[i+1], out[i+2]
		merged, ok := mergeTriple(a, b, c, markers)
		if !ok {
			i++
			continue
		}
		out[i] = merged
		out = slices.Delete(out, i+1, i+3)
		if i > 0 {
			i--
		}
	}
	return out
}

func mergeTriple(a, b, c Piece, markers map[string]string) (Piece, bool) {
	n := len(b.Types)
	if n == 0 || n != len(a.Types)+1 {
		return Piece{}, false
	}
	marker, ok := markers[b.Types[n-1]]
	if !ok {
		return Piece{}, false
	}
	if !slices.Equal(a.Types, c.Types) || !slices.Equal(b.Types[:n-1], a.Types) {
		return Piece{}, false
	}
	if b.Start-a.End != len(marker) || c.Start-b.End != len(marker) {
		return Piece{}, false
	}

	return Piece{
		Start: a.Start,
		End:   c.End,
		Text:  a.Text + marker + b.Text + marker + c.Text,
		Kind:  a.Kind,
		Types: a.Types,
		Ext:   a.Ext,
	}, true
}
