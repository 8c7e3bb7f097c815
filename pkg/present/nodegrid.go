package present

import "github.com/odvcencio/codepane/pkg/overlay"

// NodeGrid maps screen cells to overlay nodes for mouse hit testing.
// Registration order matters: later nodes overwrite earlier ones, so
// presenters register parents before children and the deepest node wins.
type NodeGrid struct {
	width  int
	height int
	cells  []int
	nodes  []*overlay.Node
}

// NewNodeGrid creates a grid with the given dimensions.
func NewNodeGrid(width, height int) *NodeGrid {
	g := &NodeGrid{}
	g.Resize(width, height)
	return g
}

// Resize updates the grid dimensions.
func (g *NodeGrid) Resize(width, height int) {
	if width == g.width && height == g.height {
		return
	}
	g.width = width
	g.height = height
	size := width * height
	if size <= 0 {
		g.cells = nil
		g.nodes = nil
		return
	}
	g.cells = make([]int, size)
	g.Clear()
}

// Clear resets the grid contents.
func (g *NodeGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = -1
	}
	g.nodes = g.nodes[:0]
}

// Add records a node occupying the given screen-space bounds.
func (g *NodeGrid) Add(node *overlay.Node, x, y, w, h int) {
	if node == nil || g.width <= 0 || g.height <= 0 || w <= 0 || h <= 0 {
		return
	}
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, g.width), min(y+h, g.height)
	if x1 <= x0 || y1 <= y0 {
		return
	}

	id := len(g.nodes)
	g.nodes = append(g.nodes, node)

	for row := y0; row < y1; row++ {
		base := row * g.width
		for col := x0; col < x1; col++ {
			g.cells[base+col] = id
		}
	}
}

// NodeAt returns the overlay node at the given screen position.
func (g *NodeGrid) NodeAt(x, y int) *overlay.Node {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return nil
	}
	idx := g.cells[y*g.width+x]
	if idx < 0 || idx >= len(g.nodes) {
		return nil
	}
	return g.nodes[idx]
}
