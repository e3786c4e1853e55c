package story

import (
	"bytes"
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// HTMLFormat handles Twine 2 published stories and archives.
type HTMLFormat struct{}

func NewHTMLFormat() *HTMLFormat { return &HTMLFormat{} }

func (f *HTMLFormat) Name() string { return "html" }

func (f *HTMLFormat) CanParse(ext string) bool {
	return ext == ".html" || ext == ".htm"
}

func (f *HTMLFormat) Load(path string) (*Story, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read html file: %w", err)
	}
	st, err := ParseHTML(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	st.Path = path
	return st, nil
}

// ParseHTML reads a story from the bytes of an HTML document.
func ParseHTML(raw []byte) (*Story, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	root := doc.Find("tw-storydata").First()
	if root.Length() == 0 {
		return nil, ErrNoStoryData
	}

	st := &Story{
		Format:         "html",
		Name:           root.AttrOr("name", ""),
		IFID:           root.AttrOr("ifid", ""),
		Creator:        root.AttrOr("creator", ""),
		CreatorVersion: root.AttrOr("creator-version", ""),
		StoryFormat:    root.AttrOr("format", ""),
		FormatVersion:  root.AttrOr("format-version", ""),
		Options:        splitFields(root.AttrOr("options", "")),
		raw:            raw,
	}
	startNode := root.AttrOr("startnode", "")

	root.Find("tw-tag").Each(func(_ int, s *goquery.Selection) {
		color := s.AttrOr("color", "")
		if color == "" {
			color = s.AttrOr("colour", "")
		}
		st.Tags = append(st.Tags, Tag{Name: s.AttrOr("name", ""), Color: color})
	})

	root.Find("tw-passagedata").Each(func(_ int, s *goquery.Selection) {
		pid := s.AttrOr("pid", "")
		name, ok := s.Attr("name")
		if !ok && pid != "" {
			name = "#" + pid
		}
		if pid != "" && pid == startNode {
			st.StartPassage = name
		}
		st.Passages = append(st.Passages, Passage{
			Name:     name,
			PID:      pid,
			Tags:     splitFields(s.AttrOr("tags", "")),
			Position: s.AttrOr("position", ""),
			Size:     s.AttrOr("size", ""),
			Content:  s.Text(),
		})
	})

	return st, nil
}

func (f *HTMLFormat) Save(st *Story, path string) error {
	out, err := RenderHTML(st)
	if err != nil {
		return fmt.Errorf("render %s: %w", st.Path, err)
	}
	if err := writeFile(path, out); err != nil {
		return fmt.Errorf("write html file: %w", err)
	}
	return nil
}

// RenderHTML writes the story's passage contents into the document it was
// loaded from. Passages missing from the document are skipped.
func RenderHTML(st *Story) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(st.raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	root := doc.Find("tw-storydata").First()
	if root.Length() == 0 {
		return nil, ErrNoStoryData
	}
	nodes := root.Find("tw-passagedata")

	for _, p := range st.Passages {
		sel := lookup(nodes, p.PID, p.Name)
		if sel.Length() == 0 {
			log.Warn().Str("passage", p.Name).Str("pid", p.PID).Msg("Passage not found in document")
			continue
		}
		sel.SetText(p.Content)
	}

	html, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return []byte(html), nil
}

func lookup(nodes *goquery.Selection, pid, name string) *goquery.Selection {
	match := func(pred func(*goquery.Selection) bool) *goquery.Selection {
		return nodes.FilterFunction(func(_ int, s *goquery.Selection) bool { return pred(s) }).First()
	}
	named := func(s *goquery.Selection) bool {
		n, ok := s.Attr("name")
		if !ok && s.AttrOr("pid", "") != "" {
			n = "#" + s.AttrOr("pid", "")
		}
		return n == name
	}

	if pid != "" {
		if sel := match(func(s *goquery.Selection) bool { return s.AttrOr("pid", "") == pid && named(s) }); sel.Length() > 0 {
			return sel
		}
		if sel := match(func(s *goquery.Selection) bool { return s.AttrOr("pid", "") == pid }); sel.Length() > 0 {
			return sel
		}
	}
	return match(named)
}
