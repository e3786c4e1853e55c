package markup

import "fmt"

// Check verifies the structural invariants of a tree lexed from src: every
// range lies inside the source, children are ordered, disjoint and contained
// in their parent, and leaf text matches the source slice. A violation is a
// lexer bug, never a property of the input.
func Check(root *Token, src string) error {
	if root == nil {
		return nil
	}
	if root.Start != 0 || root.End != len(src) {
		return fmt.Errorf("root spans [%d,%d), source has %d bytes", root.Start, root.End, len(src))
	}
	return check(root, src)
}

func check(t *Token, src string) error {
	if t.Start < 0 || t.Start > t.End || t.End > len(src) {
		return fmt.Errorf("%s: invalid range [%d,%d)", t.Kind, t.Start, t.End)
	}
	if !t.IsContainer() {
		if t.Text != "" && t.Text != src[t.Start:t.End] {
			return fmt.Errorf("%s [%d,%d): text %q does not match source", t.Kind, t.Start, t.End, t.Text)
		}
		return nil
	}
	prev := t.Start
	for _, c := range t.Children {
		if c.Start < prev {
			return fmt.Errorf("%s [%d,%d) overlaps its previous sibling or parent start", c.Kind, c.Start, c.End)
		}
		if c.End > t.End {
			return fmt.Errorf("%s [%d,%d) escapes parent %s [%d,%d)", c.Kind, c.Start, c.End, t.Kind, t.Start, t.End)
		}
		if err := check(c, src); err != nil {
			return err
		}
		prev = c.End
	}
	return nil
}
