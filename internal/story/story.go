// Package story loads and saves story containers: the passages of a game
// together with whatever is needed to write edited passages back.
package story

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoStoryData is returned when an HTML file has no tw-storydata element.
var ErrNoStoryData = errors.New("no tw-storydata element")

// Passage is one unit of story text.
type Passage struct {
	Name string
	// PID is the numeric id of a Twine passage as written in the file, or
	// empty.
	PID      string
	Tags     []string
	Position string
	Size     string
	Content  string
}

// Tag describes a Twine tag colour.
type Tag struct {
	Name  string
	Color string
}

// Story is a loaded container.
type Story struct {
	Path   string
	Format string

	Name           string
	IFID           string
	StartPassage   string
	Creator        string
	CreatorVersion string
	StoryFormat    string
	FormatVersion  string
	Options        []string

	Tags     []Tag
	Passages []Passage

	// raw holds the file as loaded; saving edits it in place.
	raw []byte
	// bounds records, for formats that need it, where each passage body lies
	// in raw.
	bounds [][2]int
}

// Format is implemented by every supported container.
type Format interface {
	// Name identifies the format in logs and records.
	Name() string
	// CanParse returns true if this format handles the given file extension.
	CanParse(ext string) bool
	// Load reads a story from path.
	Load(path string) (*Story, error)
	// Save writes st, with its current passage contents, to path.
	Save(st *Story, path string) error
}

// Passage returns the passage with the given pid and name. Like Twine's own
// lookup it falls back to pid alone and then to name alone.
func (s *Story) Passage(pid, name string) (*Passage, bool) {
	if i := s.find(pid, name); i >= 0 {
		return &s.Passages[i], true
	}
	return nil, false
}

func (s *Story) find(pid, name string) int {
	if pid != "" {
		for i, p := range s.Passages {
			if p.PID == pid && p.Name == name {
				return i
			}
		}
		for i, p := range s.Passages {
			if p.PID == pid {
				return i
			}
		}
	}
	for i, p := range s.Passages {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Ext returns the lower-cased extension of path.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func splitFields(s string) []string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return nil
	}
	return f
}
