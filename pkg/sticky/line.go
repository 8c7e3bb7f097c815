package sticky

import (
	"github.com/odvcencio/codepane/pkg/linerender"
	"github.com/odvcencio/codepane/pkg/overlay"
)

// RenderedLine associates one rendered slot with its document line, the
// visual fragment committed to the display surface, and the column mapping
// used by the coordinate queries. Records live for exactly one render pass:
// SetState discards the whole table and builds a new one.
type RenderedLine struct {
	// LineNumber is the document line actually rendered.
	LineNumber int

	// Fragment is the slot's content node committed to the overlay tree.
	Fragment *overlay.Node

	// Mapping translates horizontal offsets within Fragment to columns.
	Mapping *linerender.CharacterMapping
}
