// Package nouns tags glossary terms in text and swaps them for their
// translations afterwards.
package nouns

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Match types of a glossary row.
const (
	TypeLiteral          = ""  // literal, case-insensitive
	TypeLiteralSensitive = "S" // literal, case-sensitive
	TypePattern          = "r" // regular expression, case-insensitive
	TypePatternSensitive = "R" // regular expression, case-sensitive
)

// Form is one spelling of a proper noun.
type Form struct {
	Form    string
	Type    string
	Literal string
	Target  string

	re *regexp.Regexp
	// boundary is set for literal forms, whose matches must not be glued to
	// surrounding word characters.
	boundary bool
}

// NewForm compiles a form. typ is one of the Type constants; unknown types are
// literal case-insensitive forms. Invalid patterns are reported here rather
// than at match time.
func NewForm(form, typ, literal, target string) (Form, error) {
	f := Form{Form: form, Type: typ, Literal: literal, Target: target}
	if literal == "" {
		return Form{}, errors.New("empty literal")
	}

	var expr string
	switch typ {
	case TypePattern:
		expr = "(?i)" + literal
	case TypePatternSensitive:
		expr = literal
	case TypeLiteralSensitive:
		expr = regexp.QuoteMeta(literal)
		f.boundary = true
	default:
		f.Type = TypeLiteral
		expr = "(?i)" + regexp.QuoteMeta(literal)
		f.boundary = true
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return Form{}, fmt.Errorf("compile form %q: %w", form, err)
	}
	f.re = re
	return f, nil
}

// Entry is a proper noun with all of its forms.
type Entry struct {
	Name  string
	Forms []Form
}

// Glossary is an ordered list of entries.
type Glossary []Entry

// Key joins a name and form into a translation key.
func Key(name, form string) string {
	return name + "." + form
}

// Targets maps every name.form key to its default translation. The first form
// seen for a key wins, even when its target is empty.
func (g Glossary) Targets() map[string]string {
	out := make(map[string]string)
	for _, e := range g {
		for _, f := range e.Forms {
			k := Key(e.Name, f.Form)
			if _, ok := out[k]; ok {
				continue
			}
			out[k] = f.Target
		}
	}
	return out
}

// Len returns the total number of forms.
func (g Glossary) Len() int {
	n := 0
	for _, e := range g {
		n += len(e.Forms)
	}
	return n
}

// Row is one line of a glossary table.
type Row struct {
	Name    string
	Form    string
	Type    string
	Literal string
	Target  string
}

var required = []string{"name", "form", "literal"}

// ReadCSV reads glossary rows from a CSV stream with a header line naming the
// columns. A leading UTF-8 byte order mark is dropped.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read glossary header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range required {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("glossary header lacks column %q", c)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read glossary row: %w", err)
		}
		rows = append(rows, Row{
			Name:    field(rec, "name"),
			Form:    field(rec, "form"),
			Type:    field(rec, "type"),
			Literal: field(rec, "literal"),
			Target:  field(rec, "target"),
		})
	}
	return rows, nil
}

// Build groups rows by name in first-appearance order. Rows without a name
// are ignored.
func Build(rows []Row) (Glossary, error) {
	var g Glossary
	pos := make(map[string]int)
	for i, r := range rows {
		if r.Name == "" {
			continue
		}
		f, err := NewForm(r.Form, r.Type, r.Literal, r.Target)
		if err != nil {
			return nil, fmt.Errorf("glossary row %d (%s): %w", i+1, Key(r.Name, r.Form), err)
		}
		j, ok := pos[r.Name]
		if !ok {
			j = len(g)
			pos[r.Name] = j
			g = append(g, Entry{Name: r.Name})
		}
		g[j].Forms = append(g[j].Forms, f)
	}
	return g, nil
}

// LoadCSV reads and builds a glossary file.
func LoadCSV(path string) (Glossary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open glossary: %w", err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g, err := Build(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
