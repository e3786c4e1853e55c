package story

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"harlowe-toolbox/internal/markup"
	"harlowe-toolbox/internal/passage"
)

// TextFormat handles plain text sources split into passages by
// "<!-- @ name -->" comments.
type TextFormat struct {
	rules markup.Rules
	opts  passage.Options
}

// NewTextFormat creates a TextFormat. opts.DefaultName is replaced per file by
// the file's base name without extension.
func NewTextFormat(rules markup.Rules, opts passage.Options) *TextFormat {
	return &TextFormat{rules: rules, opts: opts}
}

func (f *TextFormat) Name() string { return "text" }

func (f *TextFormat) CanParse(ext string) bool {
	return ext == ".txt" || ext == ".tw" || ext == ".harlowe"
}

func (f *TextFormat) Load(path string) (*Story, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	base := filepath.Base(path)
	st := f.Parse(string(raw), strings.TrimSuffix(base, filepath.Ext(base)))
	st.Path = path
	return st, nil
}

// Parse splits src into passages. defaultName names content before the first
// header.
func (f *TextFormat) Parse(src, defaultName string) *Story {
	opts := f.opts
	opts.DefaultName = defaultName

	st := &Story{Format: "text", Name: defaultName, raw: []byte(src)}
	for _, sec := range passage.Split(src, f.rules, opts) {
		st.Passages = append(st.Passages, Passage{
			Name:    sec.Name,
			Tags:    sec.Tags,
			Content: sec.Body(src),
		})
		st.bounds = append(st.bounds, [2]int{sec.Start, sec.End})
	}
	return st
}

func (f *TextFormat) Save(st *Story, path string) error {
	if err := writeFile(path, []byte(RenderText(st))); err != nil {
		return fmt.Errorf("write text file: %w", err)
	}
	return nil
}

// RenderText writes the passage contents back between their headers.
func RenderText(st *Story) string {
	src := string(st.raw)
	secs := make([]passage.Section, 0, len(st.bounds))
	bodies := make([]string, 0, len(st.bounds))
	for i, b := range st.bounds {
		if i >= len(st.Passages) {
			break
		}
		secs = append(secs, passage.Section{Start: b[0], End: b[1]})
		bodies = append(bodies, st.Passages[i].Content)
	}
	return passage.Rebuild(src, secs, bodies)
}
