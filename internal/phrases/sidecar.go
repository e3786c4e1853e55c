package phrases

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"harlowe-toolbox/internal/textutil"
)

// ErrLineCount is returned when a flat translation file does not have the
// number of lines its source phrases need.
var ErrLineCount = errors.New("line count mismatch")

// needsQuote reports whether a phrase cannot be written as a bare line.
func needsQuote(p string) bool {
	return strings.ContainsAny(p, "\r\n") || strings.HasPrefix(p, `"`)
}

// Write writes one phrase per line. Phrases that span lines, or start with a
// double quote, are written as a single Go-quoted line.
func Write(w io.Writer, phrases []string) error {
	bw := bufio.NewWriter(w)
	for _, p := range phrases {
		if needsQuote(p) {
			p = strconv.Quote(p)
		}
		if _, err := bw.WriteString(p); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes phrases to path.
func WriteFile(path string, phrases []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create phrase file: %w", err)
	}
	if err := Write(f, phrases); err != nil {
		f.Close()
		return fmt.Errorf("write phrase file %s: %w", path, err)
	}
	return f.Close()
}

// Lines splits r into lines without their terminators. A final empty line
// after the last terminator is not reported.
func Lines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var out []string
	for sc.Scan() {
		out = append(out, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Read reads a file written by Write, unquoting quoted lines.
func Read(r io.Reader) ([]string, error) {
	lines, err := Lines(r)
	if err != nil {
		return nil, err
	}
	for i, l := range lines {
		if !strings.HasPrefix(l, `"`) {
			continue
		}
		u, err := strconv.Unquote(l)
		if err != nil {
			return nil, fmt.Errorf("line %d: unquote: %w", i+1, err)
		}
		lines[i] = u
	}
	return lines, nil
}

// ReadFile reads a phrase file from path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open phrase file: %w", err)
	}
	defer f.Close()
	out, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// LinesFile reads the lines of a plain text file.
func LinesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open translated file: %w", err)
	}
	defer f.Close()
	lines, err := Lines(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lines, nil
}

// Realign groups a flat, line-per-line translation back into phrases. The
// i-th phrase takes as many lines as originals[i] has, rejoined with the
// terminators originals[i] used ("\r\n" or "\n"), in order.
func Realign(lines, originals []string) ([]string, error) {
	want := 0
	for _, o := range originals {
		want += textutil.CountNewlines(o) + 1
	}
	if want != len(lines) {
		return nil, fmt.Errorf("%w: have %d lines, want %d", ErrLineCount, len(lines), want)
	}

	out := make([]string, len(originals))
	pos := 0
	for i, o := range originals {
		var sb strings.Builder
		sb.WriteString(lines[pos])
		pos++
		for _, term := range terminators(o) {
			sb.WriteString(term)
			sb.WriteString(lines[pos])
			pos++
		}
		out[i] = sb.String()
	}
	return out, nil
}

// terminators lists the line terminator of every line break in s.
func terminators(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' {
			continue
		}
		if i > 0 && s[i-1] == '\r' {
			out = append(out, "\r\n")
		} else {
			out = append(out, "\n")
		}
	}
	return out
}
