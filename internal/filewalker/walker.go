package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"harlowe-toolbox/internal/story"
)

// Walker traverses directories and dispatches files to the matching story
// format.
type Walker struct {
	formats []story.Format
}

// NewWalker creates a Walker over the given formats, tried in order.
func NewWalker(formats ...story.Format) *Walker {
	return &Walker{formats: formats}
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	Path string
	// Rel is Path relative to the walked root, used to mirror the layout on
	// output.
	Rel    string
	Ext    string
	Format story.Format
}

// Format returns the first format that handles path, or nil.
func (w *Walker) Format(path string) story.Format {
	ext := story.Ext(path)
	for _, f := range w.formats {
		if f.CanParse(ext) {
			return f
		}
	}
	return nil
}

// Walk discovers all supported files under root. A root that is a file is
// returned alone if a format handles it.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		f := w.Format(root)
		if f == nil {
			return nil, fmt.Errorf("unsupported file type: %s", root)
		}
		return []FileEntry{{Path: root, Rel: filepath.Base(root), Ext: story.Ext(root), Format: f}}, nil
	}

	var entries []FileEntry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if d.IsDir() {
			return nil
		}

		f := w.Format(path)
		if f == nil {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, FileEntry{
			Path:   path,
			Rel:    rel,
			Ext:    story.Ext(path),
			Format: f,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Rel < entries[j].Rel })
	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}

// Load loads a discovered file with its format.
func (w *Walker) Load(entry FileEntry) (*story.Story, error) {
	return entry.Format.Load(entry.Path)
}
