package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

// IsBlank reports whether s is empty or holds only whitespace.
func IsBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// CountNewlines returns the number of "\n" in s.
func CountNewlines(s string) int {
	return strings.Count(s, "\n")
}

// Hash computes a SHA-256 hex hash of a string, used as a translation memory key.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Truncate shortens s to at most width terminal cells, appending "..." if
// truncated. Line breaks are shown as "⏎".
func Truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\r\n", "⏎")
	s = strings.ReplaceAll(s, "\n", "⏎")
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
