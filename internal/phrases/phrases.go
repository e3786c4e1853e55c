// Package phrases turns extracted pieces into a deduplicated list of phrases
// for translation, and maps translated phrases back onto the pieces.
//
// Identical text is translated once wherever it appears. Two occurrences that
// would need different translations in context cannot be told apart here.
package phrases

import (
	"harlowe-toolbox/internal/slicer"
	"harlowe-toolbox/internal/textutil"
)

// DedupeOrdered returns the distinct non-blank texts of pieces in order of
// first occurrence.
func DedupeOrdered(pieces []slicer.Piece) []string {
	seen := make(map[string]struct{}, len(pieces))
	var out []string
	for _, p := range pieces {
		if textutil.IsBlank(p.Text) {
			continue
		}
		if _, ok := seen[p.Text]; ok {
			continue
		}
		seen[p.Text] = struct{}{}
		out = append(out, p.Text)
	}
	return out
}

// ApplyOrdered returns a copy of pieces where each text is replaced by the
// entry of replacements at the position DedupeOrdered gave that text. Blank
// pieces and texts past the end of replacements are left unchanged.
func ApplyOrdered(pieces []slicer.Piece, replacements []string) []slicer.Piece {
	index := make(map[string]int)
	for i, p := range DedupeOrdered(pieces) {
		index[p] = i
	}

	out := make([]slicer.Piece, len(pieces))
	for i, p := range pieces {
		if j, ok := index[p.Text]; ok && j < len(replacements) {
			p.Text = replacements[j]
		}
		out[i] = p
	}
	return out
}

// Map builds a text-to-translation map from aligned phrase lists.
func Map(originals, translated []string) map[string]string {
	m := make(map[string]string, len(originals))
	for i, o := range originals {
		if i >= len(translated) {
			break
		}
		m[o] = translated[i]
	}
	return m
}
