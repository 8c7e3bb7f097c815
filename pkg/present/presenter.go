// Package present draws overlay node trees onto a terminal cell buffer.
// Nodes are painted in z-index order so overlay stacking (for example a
// compressing sticky slot sliding beneath its neighbors) renders without
// flicker, and every painted node is registered in a hit grid for mouse
// resolution.
package present

import (
	"sort"

	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/codepane/pkg/overlay"
	"github.com/odvcencio/codepane/pkg/ui/runtime"
	"github.com/odvcencio/codepane/pkg/ui/theme"
)

// Presenter rasterizes overlay trees. Host units are interpreted as cells,
// which assumes the view is configured with a line height of one.
type Presenter struct {
	theme *theme.Theme
	grid  *NodeGrid
}

// New creates a presenter over a hit grid of the given dimensions.
func New(th *theme.Theme, width, height int) *Presenter {
	if th == nil {
		th = theme.DefaultTheme()
	}
	return &Presenter{theme: th, grid: NewNodeGrid(width, height)}
}

// Resize updates the hit grid dimensions.
func (p *Presenter) Resize(width, height int) {
	p.grid.Resize(width, height)
}

// Grid returns the hit grid populated by the last Draw.
func (p *Presenter) Grid() *NodeGrid {
	return p.grid
}

// paintOp is one rasterization unit: a background fill or a text run.
type paintOp struct {
	node    *overlay.Node
	x, y    int
	z       int
	clip    clipRect
	classes []string
	text    string // empty for fills
	width   int    // fill width
	height  int    // fill height
}

type clipRect struct {
	x0, y0, x1, y1 int
}

func (c clipRect) intersect(x, y, w, h int) clipRect {
	return clipRect{
		x0: max(c.x0, x),
		y0: max(c.y0, y),
		x1: min(c.x1, x+w),
		y1: min(c.y1, y+h),
	}
}

func (c clipRect) contains(x, y int) bool {
	return x >= c.x0 && x < c.x1 && y >= c.y0 && y < c.y1
}

func (c clipRect) empty() bool {
	return c.x1 <= c.x0 || c.y1 <= c.y0
}

// Draw clears the hit grid and paints the tree into the buffer.
func (p *Presenter) Draw(root *overlay.Node, buf *runtime.Buffer) {
	p.grid.Clear()
	if root == nil || root.Hidden() {
		return
	}
	w, h := buf.Size()
	var ops []paintOp
	collect(root, 0, 0, 0, clipRect{0, 0, w, h}, nil, &ops)

	// Stable: equal z preserves tree order, parents before children.
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].z < ops[j].z })

	for _, op := range ops {
		style := p.theme.StyleForClasses(op.classes)
		if op.text == "" {
			for y := op.y; y < op.y+op.height; y++ {
				for x := op.x; x < op.x+op.width; x++ {
					if op.clip.contains(x, y) {
						buf.Set(x, y, ' ', style)
					}
				}
			}
		} else {
			x := op.x
			for _, r := range op.text {
				rw := runewidth.RuneWidth(r)
				if op.clip.contains(x, op.y) {
					buf.Set(x, op.y, r, style)
				}
				x += rw
			}
		}
		p.grid.Add(op.node, max(op.x, op.clip.x0), max(op.y, op.clip.y0),
			min(op.x+opWidth(op), op.clip.x1)-max(op.x, op.clip.x0),
			min(op.y+opHeight(op), op.clip.y1)-max(op.y, op.clip.y0))
	}
}

func opWidth(op paintOp) int {
	if op.text != "" {
		return runewidth.StringWidth(op.text)
	}
	return op.width
}

func opHeight(op paintOp) int {
	if op.text != "" {
		return 1
	}
	return op.height
}

// collect flattens the tree into paint ops. Positions accumulate
// parent-relative rects; z inherits downward and children may only raise
// it; each node's rect clips its subtree.
func collect(n *overlay.Node, absX, absY, z int, clip clipRect, classes []string, ops *[]paintOp) {
	if n.Hidden() {
		return
	}
	r := n.Rect()
	x, y := absX+r.X, absY+r.Y
	if n.ZIndex() > z {
		z = n.ZIndex()
	}
	merged := classes
	if len(n.Classes()) > 0 {
		merged = append(append([]string{}, classes...), n.Classes()...)
	}

	if n.IsLeaf() && n.Text() != "" {
		if !clip.empty() {
			*ops = append(*ops, paintOp{node: n, x: x, y: y, z: z, clip: clip, classes: merged, text: n.Text()})
		}
		return
	}

	if r.Width > 0 && r.Height > 0 {
		clip = clip.intersect(x, y, r.Width, r.Height)
		if clip.empty() {
			return
		}
		// Container nodes with their own rect paint a background strip so
		// overlapping slots occlude cleanly.
		if fillsBackground(n) {
			*ops = append(*ops, paintOp{node: n, x: x, y: y, z: z, clip: clip, classes: merged, width: r.Width, height: r.Height})
		}
	}

	for _, c := range n.Children() {
		collect(c, x, y, z, clip, merged, ops)
	}
}

// fillsBackground reports whether the node paints its rect before its
// children. Spans inherit the fill of their slot instead of refilling.
func fillsBackground(n *overlay.Node) bool {
	switch n.Kind() {
	case "sticky-widget", "line", "line-number":
		return true
	}
	return false
}
