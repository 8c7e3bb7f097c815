package hostview

import (
	"sync"

	apperrors "github.com/odvcencio/codepane/pkg/errors"
	"github.com/odvcencio/codepane/pkg/events"
	"github.com/odvcencio/codepane/pkg/linerender"
)

// rowRef locates one view row inside a document line.
type rowRef struct {
	line      int // 1-based document line
	startRune int // rune offset of the row within the line
	endRune   int // exclusive
}

// SimpleView is the reference View: an in-memory model with greedy soft
// wrapping at the viewport width. Mutations publish the documented view
// notifications on the hub.
type SimpleView struct {
	mu          sync.Mutex
	model       *Model
	cfg         Config
	scrollTop   int
	hub         *events.Hub
	rows        []rowRef
	firstRow    []int // firstRow[i] is the first view row of line i+1
	decorations map[int][]linerender.Decoration
}

// NewSimpleView creates a view over a model. A nil model is valid: the view
// reports HasModel false until one is attached.
func NewSimpleView(model *Model, cfg Config) *SimpleView {
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = 1
	}
	if cfg.TabSize <= 0 {
		cfg.TabSize = 4
	}
	v := &SimpleView{
		model:       model,
		cfg:         cfg,
		hub:         events.NewHub(),
		decorations: make(map[int][]linerender.Decoration),
	}
	v.reflow()
	return v
}

// Events returns the view's notification hub.
func (v *SimpleView) Events() *events.Hub {
	return v.hub
}

// HasModel implements View.
func (v *SimpleView) HasModel() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.model != nil
}

// Model returns the attached model, or nil.
func (v *SimpleView) Model() *Model {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.model
}

// SetModel replaces the document model and publishes a model-changed event.
func (v *SimpleView) SetModel(m *Model) {
	v.mu.Lock()
	v.model = m
	v.scrollTop = 0
	v.reflow()
	v.mu.Unlock()

	id := ""
	if m != nil {
		id = m.ID()
	}
	v.hub.Publish(events.SubjectModelChanged, id)
}

// SetConfig replaces the configuration and publishes config- and
// layout-changed events.
func (v *SimpleView) SetConfig(cfg Config) {
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = 1
	}
	if cfg.TabSize <= 0 {
		cfg.TabSize = 4
	}
	v.mu.Lock()
	layoutChanged := cfg.ViewportWidth != v.cfg.ViewportWidth ||
		cfg.ViewportHeight != v.cfg.ViewportHeight ||
		cfg.LineHeight != v.cfg.LineHeight
	v.cfg = cfg
	v.reflow()
	v.mu.Unlock()

	v.hub.Publish(events.SubjectConfigChanged, cfg)
	if layoutChanged {
		v.hub.Publish(events.SubjectLayoutChanged, nil)
	}
}

// SetDecorations installs inline decorations for a document line.
func (v *SimpleView) SetDecorations(line int, decos []linerender.Decoration) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(decos) == 0 {
		delete(v.decorations, line)
		return
	}
	v.decorations[line] = decos
}

// Config implements View.
func (v *SimpleView) Config() Config {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg
}

// ScrollTop implements View.
func (v *SimpleView) ScrollTop() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollTop
}

// SetScrollTop implements View. The offset is clamped to the scrollable
// range and a scroll-changed event fires when it moves.
func (v *SimpleView) SetScrollTop(top int) {
	v.mu.Lock()
	maxTop := len(v.rows)*v.cfg.LineHeight - v.cfg.ViewportHeight
	if maxTop < 0 {
		maxTop = 0
	}
	if top < 0 {
		top = 0
	}
	if top > maxTop {
		top = maxTop
	}
	changed := top != v.scrollTop
	v.scrollTop = top
	v.mu.Unlock()

	if changed {
		v.hub.Publish(events.SubjectScrollChanged, top)
	}
}

// RowCount returns the total number of view rows.
func (v *SimpleView) RowCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.rows)
}

// ViewRowForLine implements View.
func (v *SimpleView) ViewRowForLine(line int) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.model == nil || line < 1 || line > len(v.firstRow) {
		return 0, false
	}
	return v.firstRow[line-1], true
}

// LineForRow returns the 1-based document line shown on a view row.
func (v *SimpleView) LineForRow(viewRow int) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if viewRow < 0 || viewRow >= len(v.rows) {
		return 0, false
	}
	return v.rows[viewRow].line, true
}

// TopForLine implements View.
func (v *SimpleView) TopForLine(line int) int {
	row, ok := v.ViewRowForLine(line)
	if !ok {
		return 0
	}
	return row * v.Config().LineHeight
}

// RenderData implements View. Token runs and decorations are re-based onto
// the wrapped row segment.
func (v *SimpleView) RenderData(viewRow int) (RenderData, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.model == nil {
		return RenderData{}, apperrors.New(apperrors.ErrCodeViewNoModel, "no model attached")
	}
	if viewRow < 0 || viewRow >= len(v.rows) {
		return RenderData{}, apperrors.New(apperrors.ErrCodeViewRange, "view row out of range").
			WithContext("row", viewRow).
			WithContext("rows", len(v.rows))
	}
	ref := v.rows[viewRow]
	content, _ := v.model.Line(ref.line)
	runes := []rune(content)

	data := RenderData{
		Content:          string(runes[ref.startRune:ref.endRune]),
		TabSize:          v.cfg.TabSize,
		WrapContinuation: ref.startRune > 0,
	}
	for _, run := range v.model.TokenRuns(ref.line) {
		if run.EndIndex <= ref.startRune {
			continue
		}
		end := run.EndIndex - ref.startRune
		if end > ref.endRune-ref.startRune {
			end = ref.endRune - ref.startRune
		}
		data.Tokens = append(data.Tokens, linerender.TokenRun{EndIndex: end, Class: run.Class})
	}
	for _, d := range v.decorations[ref.line] {
		start := d.StartCol - ref.startRune
		end := d.EndCol - ref.startRune
		if end <= 1 || start > ref.endRune-ref.startRune {
			continue
		}
		if start < 1 {
			start = 1
		}
		data.Decorations = append(data.Decorations, linerender.Decoration{
			StartCol: start, EndCol: end, Class: d.Class,
		})
	}
	return data, nil
}

// reflow rebuilds the wrap layout. Caller holds the lock.
func (v *SimpleView) reflow() {
	v.rows = v.rows[:0]
	v.firstRow = v.firstRow[:0]
	if v.model == nil {
		return
	}
	width := v.cfg.ViewportWidth
	for i, line := range v.model.Lines() {
		lineNo := i + 1
		v.firstRow = append(v.firstRow, len(v.rows))
		n := len([]rune(line))
		if width <= 0 || n <= width {
			v.rows = append(v.rows, rowRef{line: lineNo, startRune: 0, endRune: n})
			continue
		}
		for start := 0; start < n; start += width {
			end := start + width
			if end > n {
				end = n
			}
			v.rows = append(v.rows, rowRef{line: lineNo, startRune: start, endRune: end})
		}
	}
}
