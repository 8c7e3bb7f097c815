// Package hostview defines the host code-view boundary consumed by overlay
// widgets, plus an in-memory reference implementation backed by chroma
// tokenization. Widgets read line-rendering data, configuration, and scroll
// state through the View interface and subscribe to change notifications on
// the view's event hub.
package hostview

import (
	"github.com/odvcencio/codepane/pkg/events"
	"github.com/odvcencio/codepane/pkg/linerender"
)

// LineNumberMode controls the line-number affordance next to rendered lines.
type LineNumberMode int

const (
	// LineNumbersOff hides line numbers.
	LineNumbersOff LineNumberMode = iota
	// LineNumbersAbsolute shows the document line number.
	LineNumbersAbsolute
	// LineNumbersRelative shows the distance to the cursor line.
	LineNumbersRelative
	// LineNumbersInterval shows absolute numbers every Nth line.
	LineNumbersInterval
)

// MinimapSide says where a minimap-like side panel sits, if any.
type MinimapSide int

const (
	MinimapNone MinimapSide = iota
	MinimapLeft
	MinimapRight
)

// Config is the host view configuration snapshot read by widgets.
type Config struct {
	// LineHeight is the height of one rendered line in host units.
	LineHeight int

	// LineNumbers selects the line-number display mode.
	LineNumbers LineNumberMode

	// LineNumberInterval is the Nth-line stride for LineNumbersInterval.
	LineNumberInterval int

	// LineNumberWidth is the width of the line-number column.
	LineNumberWidth int

	// Minimap describes the side panel, MinimapNone when absent.
	Minimap      MinimapSide
	MinimapWidth int

	// VerticalScrollbarWidth is the width reserved for the vertical
	// scroll affordance.
	VerticalScrollbarWidth int

	// ScrollableWidth is the total horizontally scrollable content width.
	ScrollableWidth int

	// ViewportWidth is the visible width of the view.
	ViewportWidth int

	// ViewportHeight is the visible height of the view in host units.
	ViewportHeight int

	// CursorLine is the 1-based document line holding the cursor.
	CursorLine int

	// ScrollLeft is the current horizontal scroll offset.
	ScrollLeft int

	// StickyFollowsHorizontalScroll scrolls pinned lines together with the
	// view's horizontal scroll.
	StickyFollowsHorizontalScroll bool

	// TabSize is the tab stop width in columns.
	TabSize int
}

// RenderData is everything needed to render one view row.
type RenderData struct {
	Content          string
	Tokens           []linerender.TokenRun
	Decorations      []linerender.Decoration
	TabSize          int
	RTL              bool
	ASCIIOnly        bool
	WrapContinuation bool
}

// View is the read-only host boundary widgets depend on. Scroll position is
// the only thing a widget may write, and only through SetScrollTop.
type View interface {
	// HasModel reports whether a document model is attached.
	HasModel() bool

	// ViewRowForLine resolves a 1-based document line to its first view row
	// (0-based), accounting for soft wrapping. Returns false when the line
	// is out of range or no model is attached.
	ViewRowForLine(line int) (int, bool)

	// RenderData fetches rendering data for a 0-based view row.
	RenderData(viewRow int) (RenderData, error)

	// Config returns the current configuration snapshot.
	Config() Config

	// ScrollTop returns the vertical scroll offset in host units.
	ScrollTop() int

	// SetScrollTop moves the vertical scroll offset.
	SetScrollTop(top int)

	// TopForLine returns the vertical position of a document line's first
	// view row in host units, independent of the current scroll.
	TopForLine(line int) int

	// Events returns the view's notification hub.
	Events() *events.Hub
}
