package slicer

import (
	"sort"
	"strings"
)

// Replace splices each piece's Text into original over [Start, End).
// Pieces are applied from the highest Start down so that earlier offsets stay
// valid while the buffer changes length. Pieces whose offsets are negative,
// reversed or past the current end of the buffer are skipped. Overlapping
// pieces are not detected.
func Replace(original string, pieces []Piece) string {
	if len(pieces) == 0 {
		return original
	}

	ordered := make([]Piece, len(pieces))
	copy(ordered, pieces)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})

	buf := original
	for _, p := range ordered {
		if p.Start < 0 || p.End < 0 || p.End < p.Start || p.Start > len(buf) || p.End > len(buf) {
			continue
		}
		var sb strings.Builder
		sb.Grow(len(buf) - (p.End - p.Start) + len(p.Text))
		sb.WriteString(buf[:p.Start])
		sb.WriteString(p.Text)
		sb.WriteString(buf[p.End:])
		buf = sb.String()
	}
	return buf
}
