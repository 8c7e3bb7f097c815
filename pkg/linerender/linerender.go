// Package linerender turns tokenized line content into an overlay fragment
// plus the character mapping needed to translate horizontal offsets back to
// text columns. It is the shaping routine shared by overlay widgets that
// show document lines outside the main view.
package linerender

import (
	"sort"

	"github.com/mattn/go-runewidth"

	apperrors "github.com/odvcencio/codepane/pkg/errors"
	"github.com/odvcencio/codepane/pkg/overlay"
)

// TokenRun is a styled run of characters. EndIndex is the exclusive rune
// index where the run ends; runs are contiguous and ordered.
type TokenRun struct {
	EndIndex int
	Class    string
}

// Decoration is an inline decoration over a column range.
// Columns are 1-based; EndCol is exclusive.
type Decoration struct {
	StartCol int
	EndCol   int
	Class    string
}

// Input is everything needed to render one line.
type Input struct {
	Content     string
	Tokens      []TokenRun
	Decorations []Decoration
	TabSize     int
	RTL         bool
	ASCIIOnly   bool
}

// Options control line shaping.
type Options struct {
	// RenderWhitespace draws visible glyphs for spaces and tabs.
	RenderWhitespace bool

	// MaxColumns caps how many source columns are rendered.
	MaxColumns int
}

// StickyOptions returns the fixed options used for pinned header lines:
// whitespace rendering on, no horizontal scroll, and a generous column cap.
func StickyOptions() Options {
	return Options{
		RenderWhitespace: true,
		MaxColumns:       10000,
	}
}

// FilterDecorations keeps decorations that overlap the visible column range
// 1..maxCol. A malformed decoration (inverted or non-positive range) makes
// the whole filter fail; callers fall back to an empty list.
func FilterDecorations(decos []Decoration, maxCol int) ([]Decoration, error) {
	var out []Decoration
	for _, d := range decos {
		if d.StartCol < 1 || d.EndCol < d.StartCol {
			return nil, apperrors.New(apperrors.ErrCodeRenderDecoration, "malformed decoration range").
				WithContext("start", d.StartCol).
				WithContext("end", d.EndCol)
		}
		if d.StartCol > maxCol {
			continue
		}
		if d.EndCol > maxCol+1 {
			d.EndCol = maxCol + 1
		}
		out = append(out, d)
	}
	return out, nil
}

// CharacterMapping translates between horizontal offsets within a rendered
// fragment and 1-based text columns of the source line.
type CharacterMapping struct {
	// starts[i] is the horizontal offset where column i+1 begins.
	// The final entry is the total rendered width.
	starts []int
}

// Columns returns the number of source columns covered by the mapping.
func (m *CharacterMapping) Columns() int {
	return len(m.starts) - 1
}

// Width returns the total rendered width in host units.
func (m *CharacterMapping) Width() int {
	return m.starts[len(m.starts)-1]
}

// OffsetAt returns the horizontal offset where the given 1-based column
// begins, clamped to the mapping's range.
func (m *CharacterMapping) OffsetAt(column int) int {
	if column < 1 {
		column = 1
	}
	if column > len(m.starts) {
		column = len(m.starts)
	}
	return m.starts[column-1]
}

// ColumnAt returns the 1-based column containing the given horizontal
// offset. Offsets beyond the rendered width map to the column past the
// last character.
func (m *CharacterMapping) ColumnAt(offset int) int {
	if offset < 0 {
		return 1
	}
	// First column whose start lies beyond the offset; the one before it
	// contains the offset.
	i := sort.Search(len(m.starts), func(i int) bool { return m.starts[i] > offset })
	if i == 0 {
		return 1
	}
	if i > m.Columns() {
		return m.Columns() + 1
	}
	return i
}

// Render shapes a line into an overlay fragment and its character mapping.
// Rects are parent-relative: a node's horizontal offset within the fragment
// is the sum of rect X values up to the fragment root. Text is
// passed through the sanitizer rune by rune so that dropped characters keep
// zero width in the mapping instead of shifting later columns.
func Render(in Input, opts Options, san overlay.Sanitizer) (*overlay.Node, *CharacterMapping) {
	if san == nil {
		san = overlay.TextSanitizer{}
	}
	tabSize := in.TabSize
	if tabSize <= 0 {
		tabSize = 4
	}

	runes := []rune(in.Content)
	if opts.MaxColumns > 0 && len(runes) > opts.MaxColumns {
		runes = runes[:opts.MaxColumns]
	}

	fragment := overlay.NewNode("line").AddClass("rendered-line")
	if in.RTL {
		fragment.AddClass("rtl")
	}

	segments := splitSegments(len(runes), in.Tokens, in.Decorations)

	starts := make([]int, 0, len(runes)+1)
	offset := 0
	for _, seg := range segments {
		var text []rune
		segStart := offset
		for i := seg.start; i < seg.end; i++ {
			starts = append(starts, offset)
			r := runes[i]
			if r == '\t' {
				w := tabSize - offset%tabSize
				text = append(text, tabGlyphs(w, opts.RenderWhitespace)...)
				offset += w
				continue
			}
			clean := san.Sanitize(string(r))
			for _, cr := range clean {
				if cr == ' ' && opts.RenderWhitespace {
					cr = '·'
				}
				text = append(text, cr)
				offset += runewidth.RuneWidth(cr)
			}
		}
		if seg.end == seg.start {
			continue
		}
		span := overlay.NewNode("span")
		if seg.class != "" {
			span.AddClass(seg.class)
		}
		span.AddClass(seg.extra...)
		span.SetRect(overlay.Rect{X: segStart, Y: 0, Width: offset - segStart, Height: 1})
		leaf := overlay.NewText(string(text))
		leaf.SetRect(overlay.Rect{X: 0, Y: 0, Width: offset - segStart, Height: 1})
		span.Append(leaf)
		fragment.Append(span)
	}
	starts = append(starts, offset)

	fragment.SetRect(overlay.Rect{X: 0, Y: 0, Width: offset, Height: 1})
	return fragment, &CharacterMapping{starts: starts}
}

type segment struct {
	start, end int
	class      string
	extra      []string
}

// splitSegments cuts the rune range at every token and decoration boundary
// so each produced segment has a single class combination.
func splitSegments(n int, tokens []TokenRun, decos []Decoration) []segment {
	bounds := map[int]struct{}{0: {}, n: {}}
	for _, t := range tokens {
		if t.EndIndex > 0 && t.EndIndex < n {
			bounds[t.EndIndex] = struct{}{}
		}
	}
	for _, d := range decos {
		s, e := d.StartCol-1, d.EndCol-1
		if s > 0 && s < n {
			bounds[s] = struct{}{}
		}
		if e > 0 && e < n {
			bounds[e] = struct{}{}
		}
	}
	cuts := make([]int, 0, len(bounds))
	for b := range bounds {
		if b >= 0 && b <= n {
			cuts = append(cuts, b)
		}
	}
	sort.Ints(cuts)

	var segs []segment
	for i := 0; i+1 < len(cuts); i++ {
		start, end := cuts[i], cuts[i+1]
		seg := segment{start: start, end: end, class: tokenClassAt(tokens, start)}
		for _, d := range decos {
			if d.StartCol-1 <= start && end <= d.EndCol-1 {
				seg.extra = append(seg.extra, d.Class)
			}
		}
		segs = append(segs, seg)
	}
	if len(segs) == 0 && n == 0 {
		return nil
	}
	return segs
}

func tokenClassAt(tokens []TokenRun, index int) string {
	for _, t := range tokens {
		if index < t.EndIndex {
			return t.Class
		}
	}
	return ""
}

func tabGlyphs(width int, visible bool) []rune {
	out := make([]rune, width)
	for i := range out {
		out[i] = ' '
	}
	if visible && width > 0 {
		out[0] = '→'
	}
	return out
}
