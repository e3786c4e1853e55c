package markup

// Event is one step of a depth-first traversal.
type Event struct {
	Node     *Token
	Entering bool
}

type cursor struct {
	node *Token
	next int
}

// Walker traverses a token tree iteratively, reporting an entering and a
// leaving event for every node in document order. A Walker carries mutable
// state and must not be shared between goroutines; the tree itself is
// read-only and may be walked by many walkers at once.
type Walker struct {
	root      *Token
	stack     []cursor
	firstStep bool
}

// NewWalker creates a walker positioned before the root.
func NewWalker(root *Token) *Walker {
	w := &Walker{root: root}
	w.Reset()
	return w
}

// Reset returns the walker to its initial state over the same root.
func (w *Walker) Reset() {
	w.stack = w.stack[:0]
	w.firstStep = false
	if w.root != nil {
		w.firstStep = true
		w.stack = append(w.stack, cursor{node: w.root})
	}
}

// HasNext reports whether another event is available.
func (w *Walker) HasNext() bool {
	return len(w.stack) > 0
}

// Current returns the node on top of the traversal stack, or nil.
func (w *Walker) Current() *Token {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1].node
}

// Depth returns the number of nodes currently open.
func (w *Walker) Depth() int {
	return len(w.stack)
}

// Step advances the traversal. ok is false once the traversal is over.
func (w *Walker) Step() (Event, bool) {
	if w.firstStep {
		w.firstStep = false
		return Event{Node: w.root, Entering: true}, true
	}
	if len(w.stack) == 0 {
		return Event{}, false
	}

	top := &w.stack[len(w.stack)-1]
	if top.next < len(top.node.Children) {
		child := top.node.Children[top.next]
		top.next++
		w.stack = append(w.stack, cursor{node: child})
		return Event{Node: child, Entering: true}, true
	}

	node := top.node
	w.stack = w.stack[:len(w.stack)-1]
	return Event{Node: node, Entering: false}, true
}

// Skip leaves the most recently entered node without visiting its remaining
// children. Called before the first Step it behaves like Step.
func (w *Walker) Skip() (Event, bool) {
	if w.firstStep {
		w.firstStep = false
		return Event{Node: w.root, Entering: true}, true
	}
	if len(w.stack) == 0 {
		return Event{}, false
	}
	node := w.stack[len(w.stack)-1].node
	w.stack = w.stack[:len(w.stack)-1]
	return Event{Node: node, Entering: false}, true
}
