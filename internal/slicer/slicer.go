// Package slicer extracts translatable text spans from a token tree and
// replays edited spans back into the source text.
package slicer

import (
	"harlowe-toolbox/internal/markup"
)

// Piece is an extracted span of the source. Pieces produced by one Slice call
// are in document order and never overlap.
type Piece struct {
	Start int    `json:"start" msgpack:"start"`
	End   int    `json:"end" msgpack:"end"`
	Text  string `json:"text" msgpack:"text"`
	// Kind is the token kind, suffixed with "[name]" for named tokens.
	Kind string `json:"type" msgpack:"type"`
	// Types lists the kinds of the piece's ancestors, root first.
	Types []string `json:"types,omitempty" msgpack:"types,omitempty"`
	// Ext is an opaque caller value carried through unchanged.
	Ext any `json:"ext,omitempty" msgpack:"ext,omitempty"`
}

// Options controls extraction.
type Options struct {
	// Included kinds are emitted as pieces; their subtrees are not descended.
	Included []markup.Kind
	// Skipped kinds are pruned without extraction.
	Skipped []markup.Kind
	// Shallow prunes every entered node after inspection, the root included:
	// only the root itself can become a piece.
	Shallow bool
	// TopLevel prunes every node below the root, so only the root's direct
	// children are looked at.
	TopLevel bool
	// WithTypes fills Piece.Types.
	WithTypes bool
	// Extension is attached to every produced piece.
	Extension any
}

// DefaultOptions extracts text and prunes macros.
func DefaultOptions() Options {
	return Options{
		Included: []markup.Kind{markup.KindText},
		Skipped:  []markup.Kind{markup.KindMacro},
	}
}

func contains(kinds []markup.Kind, k markup.Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

// Slice lexes src with rules and extracts pieces from the resulting tree.
func Slice(src string, rules markup.Rules, opts Options) []Piece {
	return SliceToken(markup.Lex(src, rules), opts)
}

// SliceForest extracts pieces from a list of sibling tokens wrapped in a
// synthetic root.
func SliceForest(nodes []*markup.Token, opts Options) []Piece {
	root := &markup.Token{Kind: markup.KindRoot, Children: nodes}
	if n := len(nodes); n > 0 {
		root.Start = nodes[0].Start
		root.End = nodes[n-1].End
	}
	return SliceToken(root, opts)
}

// SliceToken walks root and extracts pieces.
func SliceToken(root *markup.Token, opts Options) []Piece {
	if root == nil {
		return nil
	}

	w := markup.NewWalker(root)
	var (
		records []string
		pieces  []Piece
		prev    *markup.Token
	)

	skip := func() {
		if _, ok := w.Skip(); ok {
			records = records[:len(records)-1]
		}
	}

	for w.HasNext() {
		ev, ok := w.Step()
		if !ok {
			break
		}
		node := ev.Node
		if !ev.Entering {
			records = records[:len(records)-1]
			continue
		}
		records = append(records, string(node.Kind))

		last := prev
		prev = node

		if contains(opts.Included, node.Kind) {
			text := node.Display()
			if !(last != nil && last.Kind == markup.KindLink && text == last.Passage) {
				p := Piece{
					Start: node.Start,
					End:   node.End,
					Text:  text,
					Kind:  node.Label(),
					Ext:   opts.Extension,
				}
				if opts.WithTypes {
					p.Types = append([]string(nil), records[:len(records)-1]...)
				}
				pieces = append(pieces, p)
			}
			skip()
			continue
		}

		if contains(opts.Skipped, node.Kind) || opts.Shallow || (opts.TopLevel && node != root) {
			skip()
		}
	}

	return pieces
}
