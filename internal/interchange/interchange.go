// Package interchange reads and writes piece record files. Files ending in
// ".mp" or ".msgpack" use MessagePack; everything else is indented JSON.
package interchange

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"harlowe-toolbox/internal/slicer"
)

// Source identifies the passage a piece was sliced from. It travels in
// slicer.Piece.Ext.
type Source struct {
	File    string `json:"file" msgpack:"file"`
	Passage string `json:"passage" msgpack:"passage"`
	PID     string `json:"pid,omitempty" msgpack:"pid,omitempty"`
}

// SourceOf recovers the Source carried by p, whether it was attached directly
// or decoded from a record file as a generic map.
func SourceOf(p slicer.Piece) (Source, bool) {
	switch ext := p.Ext.(type) {
	case Source:
		return ext, true
	case *Source:
		if ext == nil {
			return Source{}, false
		}
		return *ext, true
	case map[string]any:
		str := func(k string) string {
			s, _ := ext[k].(string)
			return s
		}
		src := Source{File: str("file"), Passage: str("passage"), PID: str("pid")}
		return src, src.File != "" || src.Passage != ""
	}
	return Source{}, false
}

// Binary reports whether path selects the MessagePack encoding.
func Binary(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp", ".msgpack":
		return true
	}
	return false
}

// Encode writes pieces to w.
func Encode(w io.Writer, pieces []slicer.Piece, binary bool) error {
	if pieces == nil {
		pieces = []slicer.Piece{}
	}
	if binary {
		return msgpack.NewEncoder(w).Encode(pieces)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(pieces)
}

// Decode reads pieces from r.
func Decode(r io.Reader, binary bool) ([]slicer.Piece, error) {
	var pieces []slicer.Piece
	if binary {
		if err := msgpack.NewDecoder(r).Decode(&pieces); err != nil {
			return nil, err
		}
		return pieces, nil
	}
	if err := json.NewDecoder(r).Decode(&pieces); err != nil {
		return nil, err
	}
	return pieces, nil
}

// WriteFile writes pieces to path through a temporary file in the same
// directory, so readers never see a partial file.
func WriteFile(path string, pieces []slicer.Piece) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "records-*")
	if err != nil {
		return fmt.Errorf("create temp record file: %w", err)
	}
	defer os.Remove(f.Name())

	if err := Encode(f, pieces, Binary(path)); err != nil {
		f.Close()
		return fmt.Errorf("encode records: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadFile reads pieces from path.
func ReadFile(path string) ([]slicer.Piece, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()

	pieces, err := Decode(f, Binary(path))
	if err != nil {
		return nil, fmt.Errorf("decode records %s: %w", path, err)
	}
	return pieces, nil
}
