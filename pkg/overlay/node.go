// Package overlay provides the retained visual tree that overlay widgets
// render into, plus the host interface that positions overlays above a view.
// Nodes carry attributes and class lists so interaction code can resolve an
// arbitrary node back to the widget structure that produced it.
package overlay

import (
	"slices"
	"strings"
)

// Rect is a positioned rectangle in host units.
// For terminal presentation with a line height of one, units are cells.
type Rect struct {
	X, Y, Width, Height int
}

// Node is a single element in an overlay tree.
// A node with no children and non-empty text is a leaf text node.
type Node struct {
	kind     string
	parent   *Node
	children []*Node
	attrs    map[string]string
	classes  []string
	text     string

	rect   Rect
	zIndex int
	hidden bool
}

// NewNode creates an element node of the given kind.
func NewNode(kind string) *Node {
	return &Node{kind: kind}
}

// NewText creates a leaf text node.
func NewText(text string) *Node {
	return &Node{text: text}
}

// Kind returns the node's element kind. Empty for text nodes.
func (n *Node) Kind() string {
	return n.kind
}

// Text returns the node's text payload.
func (n *Node) Text() string {
	return n.text
}

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children in insertion order.
func (n *Node) Children() []*Node {
	return n.children
}

// IsLeaf reports whether the node has no child content.
func (n *Node) IsLeaf() bool {
	return len(n.children) == 0
}

// Append adds children to the node, reparenting them.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	return n
}

// RemoveChildren detaches all children.
func (n *Node) RemoveChildren() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

// SetAttr sets a string attribute on the node.
func (n *Node) SetAttr(key, value string) *Node {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
	return n
}

// Attr returns the attribute value and whether it is set.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// AddClass appends classes not already present.
func (n *Node) AddClass(classes ...string) *Node {
	for _, c := range classes {
		if c == "" || slices.Contains(n.classes, c) {
			continue
		}
		n.classes = append(n.classes, c)
	}
	return n
}

// RemoveClass removes a class if present.
func (n *Node) RemoveClass(class string) {
	n.classes = slices.DeleteFunc(n.classes, func(c string) bool { return c == class })
}

// HasClass reports whether the node carries the class.
func (n *Node) HasClass(class string) bool {
	return slices.Contains(n.classes, class)
}

// Classes returns the node's class list.
func (n *Node) Classes() []string {
	return n.classes
}

// ClassString returns the class list joined by spaces.
func (n *Node) ClassString() string {
	return strings.Join(n.classes, " ")
}

// SetRect positions the node relative to its parent.
func (n *Node) SetRect(r Rect) *Node {
	n.rect = r
	return n
}

// Rect returns the node's rect relative to its parent.
func (n *Node) Rect() Rect {
	return n.rect
}

// SetZIndex assigns the node's paint priority. Higher paints later (on top).
func (n *Node) SetZIndex(z int) *Node {
	n.zIndex = z
	return n
}

// ZIndex returns the node's paint priority.
func (n *Node) ZIndex() int {
	return n.zIndex
}

// SetHidden toggles visibility of the node and its subtree.
func (n *Node) SetHidden(hidden bool) {
	n.hidden = hidden
}

// Hidden reports whether the node is hidden.
func (n *Node) Hidden() bool {
	return n.hidden
}

// Closest walks from the node up through its ancestors and returns the first
// node for which match returns true, or nil if none matches.
func (n *Node) Closest(match func(*Node) bool) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if match(cur) {
			return cur
		}
	}
	return nil
}

// IsAncestorOf reports whether n is other or an ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Walk visits the node and its subtree depth-first, parents before children.
// Returning false from visit skips the node's subtree.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(visit)
	}
}
