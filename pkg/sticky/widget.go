package sticky

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/codepane/pkg/events"
	"github.com/odvcencio/codepane/pkg/folding"
	"github.com/odvcencio/codepane/pkg/hostview"
	"github.com/odvcencio/codepane/pkg/linerender"
	"github.com/odvcencio/codepane/pkg/logging"
	"github.com/odvcencio/codepane/pkg/overlay"
)

// WidgetID is the overlay identity the stack registers under.
const WidgetID = "codepane.sticky-scroll"

// slotAttr is the queryable marker carried by each slot's content fragment.
const slotAttr = "slot-index"

// Options configure a StackWidget at construction.
type Options struct {
	// Sanitizer cleans untrusted token text. Nil means the default
	// TextSanitizer.
	Sanitizer overlay.Sanitizer

	// Logger receives non-fatal render diagnostics. Nil discards.
	Logger *logging.Logger

	// Nested marks the widget as living inside an embedded (peek-style)
	// view. Cosmetic: it only adds a class on the root node.
	Nested bool
}

// StackWidget renders a WidgetState into an overlay node tree above the
// host view. Every SetState call fully replaces the previous pass's output:
// fragments, line-number affordances, folding icons, and click listeners.
type StackWidget struct {
	view      hostview.View
	host      overlay.Host
	provider  folding.Provider
	sanitizer overlay.Sanitizer
	log       *logging.Logger

	// seq tags each render pass; completions carrying a stale sequence
	// number are dropped instead of overwriting a newer pass.
	seq atomic.Uint64

	mu           sync.Mutex
	state        WidgetState
	foldingModel *folding.Model
	rendered     []*RenderedLine
	clickTargets []clickTarget
	focusedSlot  int
	height       int
	minWidth     int

	root        *overlay.Node
	numbersNode *overlay.Node
	linesNode   *overlay.Node

	subs []*events.Subscription
}

// clickTarget pairs an affordance node with its action. The table is
// rebuilt from scratch every render pass.
type clickTarget struct {
	node *overlay.Node
	fn   func()
}

// NewStackWidget creates the widget, registers it with the overlay host,
// and subscribes to the view's change notifications. Call Close to release
// the subscriptions and unregister.
func NewStackWidget(view hostview.View, host overlay.Host, provider folding.Provider, opts Options) *StackWidget {
	san := opts.Sanitizer
	if san == nil {
		san = overlay.NewTextSanitizer()
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	w := &StackWidget{
		view:        view,
		host:        host,
		provider:    provider,
		sanitizer:   san,
		log:         log,
		state:       EmptyState(),
		focusedSlot: -1,
		root:        overlay.NewNode("sticky-widget").AddClass("sticky-widget"),
		numbersNode: overlay.NewNode("sticky-line-numbers").AddClass("sticky-widget-line-numbers"),
		linesNode:   overlay.NewNode("sticky-lines").AddClass("sticky-widget-lines"),
	}
	if opts.Nested {
		w.root.AddClass("nested")
	}
	w.root.SetHidden(true)
	w.root.Append(w.numbersNode, w.linesNode)

	if host != nil {
		host.AddWidget(w)
	}
	w.subscribe()
	return w
}

// subscribe wires the four documented view notifications.
//
//	view.config — configuration snapshot changed; the pass is re-rendered
//	  from the cached state against the new configuration.
//	view.scroll — vertical scroll moved; only horizontal alignment of the
//	  content column is refreshed (the stack itself stays pinned).
//	view.model  — the document model was replaced or removed; all output is
//	  discarded until the next SetState.
//	view.layout — viewport geometry changed; sizing is recomputed and a
//	  relayout requested.
func (w *StackWidget) subscribe() {
	hub := w.view.Events()
	if hub == nil {
		return
	}
	add := func(subject string, h events.Handler) {
		sub, err := hub.Subscribe(subject, h)
		if err != nil {
			w.log.Warn(logging.CategoryOverlay, "subscribe-failed", subject, map[string]any{"error": err.Error()})
			return
		}
		w.subs = append(w.subs, sub)
	}
	add(events.SubjectConfigChanged, func(events.Event) {
		w.mu.Lock()
		w.renderPass()
		w.mu.Unlock()
	})
	add(events.SubjectScrollChanged, func(events.Event) {
		w.mu.Lock()
		w.applyHorizontalScroll()
		w.mu.Unlock()
	})
	add(events.SubjectModelChanged, func(events.Event) {
		w.mu.Lock()
		w.state = EmptyState()
		w.foldingModel = nil
		w.renderPass()
		w.mu.Unlock()
	})
	add(events.SubjectLayoutChanged, func(events.Event) {
		w.mu.Lock()
		w.applySizing(w.view.Config())
		w.mu.Unlock()
		if w.host != nil {
			w.host.Relayout(w)
		}
	})
}

// Close releases the widget's subscriptions, click listeners, and host
// registration.
func (w *StackWidget) Close() {
	for _, sub := range w.subs {
		sub.Unsubscribe()
	}
	w.subs = nil
	w.mu.Lock()
	w.clickTargets = nil
	w.mu.Unlock()
	if w.host != nil {
		w.host.RemoveWidget(w)
	}
}

// ID implements overlay.Widget.
func (w *StackWidget) ID() string {
	return WidgetID
}

// Root implements overlay.Widget.
func (w *StackWidget) Root() *overlay.Node {
	return w.root
}

// Preference implements overlay.Widget. The host chooses placement.
func (w *StackWidget) Preference() *overlay.Preference {
	return nil
}

// MinContentWidth implements overlay.Widget: the widest rendered fragment
// plus the vertical scroll affordance.
func (w *StackWidget) MinContentWidth() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minWidth
}

// Height returns the stack's current total height in host units.
func (w *StackWidget) Height() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.height
}

// SlotCount returns the number of slots in the current state.
func (w *StackWidget) SlotCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.SlotCount()
}

// LineNumbers returns the document lines currently displayed, in slot
// order. Slots whose render failed are omitted.
func (w *StackWidget) LineNumbers() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []int
	for _, rl := range w.rendered {
		if rl != nil {
			out = append(out, rl.LineNumber)
		}
	}
	return out
}

// State returns the state of the most recent committed pass.
func (w *StackWidget) State() WidgetState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SetState replaces the sticky configuration and re-renders. The folding
// model fetch is the pass's one asynchronous dependency; if another
// SetState supersedes this one while the fetch is in flight, the stale
// completion is discarded.
func (w *StackWidget) SetState(ctx context.Context, st WidgetState) error {
	seq := w.seq.Add(1)

	var model *folding.Model
	if w.provider != nil {
		m, err := w.provider.FoldingModel(ctx)
		if err != nil {
			w.log.Warn(logging.CategoryFolding, "model-unavailable", "", map[string]any{"error": err.Error()})
		} else {
			model = m
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq.Load() != seq {
		// A newer pass started while the folding fetch was in flight.
		return nil
	}
	w.state = st
	w.foldingModel = model
	w.renderPass()
	return nil
}

// renderPass rebuilds all output from the cached state. Caller holds the
// lock.
func (w *StackWidget) renderPass() {
	if !w.view.HasModel() {
		// Deferred to the next state update; nothing is cleared.
		return
	}
	cfg := w.view.Config()
	lineHeight := cfg.LineHeight
	if lineHeight <= 0 {
		lineHeight = 1
	}

	// Prior pass's fragments and affordances are released before any new
	// ones are built.
	w.clickTargets = nil
	w.numbersNode.RemoveChildren()
	w.linesNode.RemoveChildren()
	w.rendered = nil

	slotCount := w.state.SlotCount()
	total := slotCount*lineHeight + w.state.LastLineOffset()
	if slotCount == 0 || total <= 0 {
		w.height = 0
		w.minWidth = 0
		w.root.SetHidden(true)
		r := w.root.Rect()
		w.root.SetRect(overlay.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: 0})
		if w.host != nil {
			w.host.Relayout(w)
		}
		return
	}

	numbersWidth := lineNumberColumnWidth(cfg)
	w.rendered = make([]*RenderedLine, slotCount)
	maxFragmentWidth := 0

	for i := 0; i < slotCount; i++ {
		line := w.state.EffectiveLine(i)

		top := i * lineHeight
		if i == slotCount-1 {
			top = (slotCount-1)*lineHeight + w.state.LastLineOffset()
		}
		// The last slot paints beneath the rest so higher slots overtake
		// it as it compresses toward zero height.
		z := 1
		if i == slotCount-1 {
			z = 0
		}

		fragment, mapping, ok := w.renderSlotContent(i, line, cfg)
		if !ok {
			continue
		}
		fragment.SetZIndex(z)
		fragment.SetRect(overlay.Rect{X: 0, Y: top, Width: mapping.Width(), Height: lineHeight})
		if i == w.focusedSlot {
			fragment.AddClass("focused")
		}

		number := w.buildLineNumberNode(line, cfg, numbersWidth)
		number.SetZIndex(z)
		number.SetRect(overlay.Rect{X: 0, Y: top, Width: numbersWidth, Height: lineHeight})
		w.attachFoldingIcon(number, i, line, lineHeight)

		w.numbersNode.Append(number)
		w.linesNode.Append(fragment)
		w.rendered[i] = &RenderedLine{LineNumber: line, Fragment: fragment, Mapping: mapping}

		if mapping.Width() > maxFragmentWidth {
			maxFragmentWidth = mapping.Width()
		}
	}

	w.height = total
	w.minWidth = maxFragmentWidth + cfg.VerticalScrollbarWidth
	w.root.SetHidden(false)
	w.applySizing(cfg)
	if w.host != nil {
		w.host.Relayout(w)
	}
}

// renderSlotContent builds one slot's content fragment. Failures are
// isolated to the slot: the pass continues with the slot left empty.
func (w *StackWidget) renderSlotContent(slot, line int, cfg hostview.Config) (*overlay.Node, *linerender.CharacterMapping, bool) {
	row, ok := w.view.ViewRowForLine(line)
	if !ok {
		w.log.Warn(logging.CategoryRender, "line-unresolved", "", map[string]any{"line": line, "slot": slot})
		return nil, nil, false
	}
	data, err := w.view.RenderData(row)
	if err != nil {
		w.log.Warn(logging.CategoryRender, "line-data-failed", "", map[string]any{"line": line, "slot": slot, "error": err.Error()})
		return nil, nil, false
	}

	opts := linerender.StickyOptions()
	decos, err := linerender.FilterDecorations(data.Decorations, opts.MaxColumns)
	if err != nil {
		// Non-fatal: the slot still renders, with no decorations.
		w.log.Warn(logging.CategoryRender, "decoration-filter-failed", "", map[string]any{"line": line, "error": err.Error()})
		decos = nil
	}

	fragment, mapping := linerender.Render(linerender.Input{
		Content:     data.Content,
		Tokens:      data.Tokens,
		Decorations: decos,
		TabSize:     data.TabSize,
		RTL:         data.RTL,
		ASCIIOnly:   data.ASCIIOnly,
	}, opts, w.sanitizer)
	fragment.AddClass("sticky-line-content")
	fragment.SetAttr(slotAttr, strconv.Itoa(slot))
	return fragment, mapping, true
}

// buildLineNumberNode renders the line-number affordance for one slot.
func (w *StackWidget) buildLineNumberNode(line int, cfg hostview.Config, width int) *overlay.Node {
	node := overlay.NewNode("line-number").AddClass("sticky-line-number")

	text := ""
	switch cfg.LineNumbers {
	case hostview.LineNumbersAbsolute:
		text = strconv.Itoa(line)
	case hostview.LineNumbersRelative:
		d := line - cfg.CursorLine
		if d < 0 {
			d = -d
		}
		if d == 0 {
			text = strconv.Itoa(line)
		} else {
			text = strconv.Itoa(d)
		}
	case hostview.LineNumbersInterval:
		interval := cfg.LineNumberInterval
		if interval <= 0 {
			interval = 10
		}
		if line%interval == 0 {
			text = strconv.Itoa(line)
		}
	}
	if text == "" {
		return node
	}

	// Numbers sit flush right; the left padding grows when a side panel is
	// configured on the left so the column clears the panel edge.
	leftPad := 1
	if cfg.Minimap == hostview.MinimapLeft {
		leftPad = 2
	}
	x := width - runewidth.StringWidth(text) - 1
	if x < leftPad {
		x = leftPad
	}
	leaf := overlay.NewText(text)
	leaf.SetRect(overlay.Rect{X: x, Y: 0, Width: runewidth.StringWidth(text), Height: 1})
	node.Append(leaf)
	return node
}

// attachFoldingIcon adds a click-to-toggle control when the slot's line is
// a fold region's header. No folding model or no region means no icon.
func (w *StackWidget) attachFoldingIcon(number *overlay.Node, slot, line, lineHeight int) {
	model := w.foldingModel
	if model == nil {
		return
	}
	region, ok := model.RegionStartingAt(line)
	if !ok {
		return
	}

	glyph := "▼"
	if region.Collapsed {
		glyph = "▶"
	}
	icon := overlay.NewNode("fold-icon").AddClass("folding-icon")
	if region.Collapsed {
		icon.AddClass("collapsed")
	}
	icon.SetRect(overlay.Rect{X: 0, Y: 0, Width: 1, Height: 1})
	icon.Append(overlay.NewText(glyph).SetRect(overlay.Rect{X: 0, Y: 0, Width: 1, Height: 1}))
	number.Append(icon)

	w.clickTargets = append(w.clickTargets, clickTarget{
		node: icon,
		fn:   func() { w.toggleFold(slot, line, lineHeight) },
	})
}

// toggleFold flips the region headed at line and re-anchors the host scroll
// so the toggled scope stays at the stack boundary: its start when
// collapsing, its end when expanding.
//
// Runs without w.mu held: SetScrollTop publishes a scroll event whose
// handler takes the lock again on the same goroutine.
func (w *StackWidget) toggleFold(slot, line, lineHeight int) {
	model := w.foldingModel
	if model == nil {
		return
	}
	if model.ToggleLines([]int{line}) == 0 {
		return
	}
	region, ok := model.RegionStartingAt(line)
	if !ok {
		return
	}
	target := region.EndLine
	if region.Collapsed {
		target = region.StartLine
	}
	w.view.SetScrollTop(w.view.TopForLine(target) - slot*lineHeight + 1)
}

// HandleClick dispatches a pointer event landing on node to the affordance
// owning it, if any. Returns whether an affordance consumed the click.
// The target table is copied out so the action runs unlocked; see
// toggleFold.
func (w *StackWidget) HandleClick(node *overlay.Node) bool {
	if node == nil {
		return false
	}
	w.mu.Lock()
	targets := make([]clickTarget, len(w.clickTargets))
	copy(targets, w.clickTargets)
	w.mu.Unlock()

	for _, t := range targets {
		if t.node.IsAncestorOf(node) {
			t.fn()
			return true
		}
	}
	return false
}

// FocusSlot moves focus to the given slot. Returns false when the slot is
// out of range or failed to render.
func (w *StackWidget) FocusSlot(slot int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if slot < 0 || slot >= len(w.rendered) || w.rendered[slot] == nil {
		return false
	}
	if w.focusedSlot >= 0 && w.focusedSlot < len(w.rendered) && w.rendered[w.focusedSlot] != nil {
		w.rendered[w.focusedSlot].Fragment.RemoveClass("focused")
	}
	w.focusedSlot = slot
	w.rendered[slot].Fragment.AddClass("focused")
	return true
}

// FocusedSlot returns the focused slot index, or -1.
func (w *StackWidget) FocusedSlot() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focusedSlot
}

// applySizing recomputes the widget's horizontal geometry from the current
// configuration. Caller holds the lock.
func (w *StackWidget) applySizing(cfg hostview.Config) {
	numbersWidth := lineNumberColumnWidth(cfg)
	width := cfg.ViewportWidth - cfg.VerticalScrollbarWidth
	if cfg.Minimap != hostview.MinimapNone {
		width -= cfg.MinimapWidth
	}
	if width < 0 {
		width = 0
	}

	r := w.root.Rect()
	w.root.SetRect(overlay.Rect{X: r.X, Y: r.Y, Width: width, Height: w.height})
	w.numbersNode.SetRect(overlay.Rect{X: 0, Y: 0, Width: numbersWidth, Height: w.height})

	linesWidth := width - numbersWidth
	if linesWidth < 0 {
		linesWidth = 0
	}
	linesX := numbersWidth
	if cfg.StickyFollowsHorizontalScroll {
		linesX -= cfg.ScrollLeft
	}
	w.linesNode.SetRect(overlay.Rect{X: linesX, Y: 0, Width: linesWidth, Height: w.height})
}

// applyHorizontalScroll realigns the content column after a scroll event.
// Caller holds the lock.
func (w *StackWidget) applyHorizontalScroll() {
	if w.height == 0 {
		return
	}
	w.applySizing(w.view.Config())
}

// lineNumberColumnWidth returns the width of the line-number column. A
// left side panel widens the column by one cell so the grown left padding
// does not eat into the space the right-aligned digits need.
func lineNumberColumnWidth(cfg hostview.Config) int {
	if cfg.LineNumbers == hostview.LineNumbersOff {
		return 0
	}
	width := cfg.LineNumberWidth
	if width <= 0 {
		width = 5
	}
	if cfg.Minimap == hostview.MinimapLeft {
		width++
	}
	return width
}
