// Package runtime provides the cell-level rendering runtime for the code
// pane: the render buffer with dirty tracking and the geometry it reports.
package runtime

// Rect is a positioned rectangle in cell coordinates.
type Rect struct {
	X, Y, Width, Height int
}
