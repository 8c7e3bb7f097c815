package sticky

import (
	"strconv"

	"github.com/odvcencio/codepane/pkg/overlay"
)

// Position is a document coordinate. Line and Column are 1-based.
type Position struct {
	Line   int
	Column int
}

// SlotIndexFromNode resolves an arbitrary node within the rendered stack to
// its stack-slot index by walking ownership upward until a node carrying
// the slot marker is found. A malformed marker reads as not found.
func (w *StackWidget) SlotIndexFromNode(node *overlay.Node) (int, bool) {
	if node == nil {
		return 0, false
	}
	marked := node.Closest(func(n *overlay.Node) bool {
		_, ok := n.Attr(slotAttr)
		return ok
	})
	if marked == nil {
		return 0, false
	}
	raw, _ := marked.Attr(slotAttr)
	slot, err := strconv.Atoi(raw)
	if err != nil || slot < 0 {
		return 0, false
	}
	return slot, true
}

// LineNumberFromNode resolves a node to the document line rendered in its
// slot during the most recent pass.
func (w *StackWidget) LineNumberFromNode(node *overlay.Node) (int, bool) {
	slot, ok := w.SlotIndexFromNode(node)
	if !ok {
		return 0, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if slot >= len(w.rendered) || w.rendered[slot] == nil {
		return 0, false
	}
	return w.rendered[slot].LineNumber, true
}

// PositionFromNode resolves a leaf node inside a rendered content fragment
// to its (line, column) document position. Non-leaf nodes and nodes outside
// any recorded slot resolve to not found.
func (w *StackWidget) PositionFromNode(node *overlay.Node) (Position, bool) {
	if node == nil || !node.IsLeaf() {
		return Position{}, false
	}
	slot, ok := w.SlotIndexFromNode(node)
	if !ok {
		return Position{}, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if slot >= len(w.rendered) || w.rendered[slot] == nil {
		return Position{}, false
	}
	rl := w.rendered[slot]
	if !rl.Fragment.IsAncestorOf(node) {
		return Position{}, false
	}
	// Horizontal offset of the node within the fragment: rects are
	// parent-relative, so offsets accumulate up to the fragment root.
	offset := 0
	for cur := node; cur != nil && cur != rl.Fragment; cur = cur.Parent() {
		offset += cur.Rect().X
	}
	column := rl.Mapping.ColumnAt(offset)
	return Position{Line: rl.LineNumber, Column: column}, true
}
