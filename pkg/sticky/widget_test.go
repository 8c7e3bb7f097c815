package sticky

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/odvcencio/codepane/pkg/events"
	"github.com/odvcencio/codepane/pkg/folding"
	"github.com/odvcencio/codepane/pkg/hostview"
	"github.com/odvcencio/codepane/pkg/linerender"
	"github.com/odvcencio/codepane/pkg/overlay"
)

// fakeView is a minimal host: one view row per document line, no wrapping.
type fakeView struct {
	mu        sync.Mutex
	lines     []string
	tokens    map[int][]linerender.TokenRun
	decos     map[int][]linerender.Decoration
	cfg       hostview.Config
	scrollTop int
	hub       *events.Hub
	failLines map[int]bool
	noModel   bool
}

func newFakeView(lineCount int, cfg hostview.Config) *fakeView {
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = 1
	}
	lines := make([]string, lineCount)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return &fakeView{
		lines:     lines,
		tokens:    make(map[int][]linerender.TokenRun),
		decos:     make(map[int][]linerender.Decoration),
		cfg:       cfg,
		hub:       events.NewHub(),
		failLines: make(map[int]bool),
	}
}

func (v *fakeView) HasModel() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.noModel
}

func (v *fakeView) ViewRowForLine(line int) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.noModel || line < 1 || line > len(v.lines) {
		return 0, false
	}
	return line - 1, true
}

func (v *fakeView) RenderData(viewRow int) (hostview.RenderData, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if viewRow < 0 || viewRow >= len(v.lines) {
		return hostview.RenderData{}, errors.New("row out of range")
	}
	if v.failLines[viewRow+1] {
		return hostview.RenderData{}, errors.New("render failed")
	}
	return hostview.RenderData{
		Content:     v.lines[viewRow],
		Tokens:      v.tokens[viewRow+1],
		Decorations: v.decos[viewRow+1],
		TabSize:     4,
	}, nil
}

func (v *fakeView) Config() hostview.Config {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cfg
}

func (v *fakeView) ScrollTop() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollTop
}

func (v *fakeView) SetScrollTop(top int) {
	v.mu.Lock()
	v.scrollTop = top
	v.mu.Unlock()
	v.hub.Publish(events.SubjectScrollChanged, top)
}

func (v *fakeView) TopForLine(line int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return (line - 1) * v.cfg.LineHeight
}

func (v *fakeView) Events() *events.Hub {
	return v.hub
}

func (v *fakeView) setConfig(cfg hostview.Config) {
	v.mu.Lock()
	v.cfg = cfg
	v.mu.Unlock()
	v.hub.Publish(events.SubjectConfigChanged, cfg)
}

func mustState(t *testing.T, starts, ends []int, lastLineOffset, showEndForSlot int) WidgetState {
	t.Helper()
	st, err := NewWidgetState(starts, ends, lastLineOffset, showEndForSlot)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func testConfig(lineHeight int) hostview.Config {
	return hostview.Config{
		LineHeight:             lineHeight,
		LineNumbers:            hostview.LineNumbersAbsolute,
		LineNumberWidth:        5,
		VerticalScrollbarWidth: 1,
		ViewportWidth:          100,
		ViewportHeight:         40 * lineHeight,
		TabSize:                4,
	}
}

func TestWidgetGeometry(t *testing.T) {
	view := newFakeView(40, testConfig(20))
	host := overlay.NewStackHost(overlay.Rect{Width: 100, Height: 800})
	w := NewStackWidget(view, host, nil, Options{})
	defer w.Close()

	err := w.SetState(context.Background(), mustState(t, []int{1, 5, 9}, []int{30, 20, 15}, -15, -1))
	if err != nil {
		t.Fatal(err)
	}

	// 3 slots of height 20 with the last compressed by 15.
	if got := w.Height(); got != 45 {
		t.Errorf("Height = %d, want 45", got)
	}
	if w.root.Hidden() {
		t.Fatal("widget should be visible")
	}
	if got := w.root.Rect().Height; got != 45 {
		t.Errorf("root height = %d, want 45", got)
	}

	frags := w.linesNode.Children()
	if len(frags) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(frags))
	}
	wantTops := []int{0, 20, 25}
	wantZ := []int{1, 1, 0}
	for i, f := range frags {
		if got := f.Rect().Y; got != wantTops[i] {
			t.Errorf("slot %d top = %d, want %d", i, got, wantTops[i])
		}
		if got := f.ZIndex(); got != wantZ[i] {
			t.Errorf("slot %d z = %d, want %d", i, got, wantZ[i])
		}
	}

	numbers := w.numbersNode.Children()
	if len(numbers) != 3 {
		t.Fatalf("expected 3 number nodes, got %d", len(numbers))
	}
	if got := numbers[2].Rect().Y; got != 25 {
		t.Errorf("last number node top = %d, want 25", got)
	}

	// "line N" renders 6 cells wide, plus the scroll affordance.
	if got := w.MinContentWidth(); got != 7 {
		t.Errorf("MinContentWidth = %d, want 7", got)
	}
}

func TestWidgetHiddenWhenCompressedAway(t *testing.T) {
	view := newFakeView(40, testConfig(20))
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 800}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1}, []int{30}, -20, -1)); err != nil {
		t.Fatal(err)
	}
	if !w.root.Hidden() {
		t.Error("a fully compressed stack should hide")
	}
	if got := w.Height(); got != 0 {
		t.Errorf("Height = %d, want 0", got)
	}
	if got := w.root.Rect().Height; got != 0 {
		t.Errorf("root height = %d, want 0", got)
	}
}

func TestWidgetEmptyState(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{3}, []int{9}, 0, -1)); err != nil {
		t.Fatal(err)
	}
	if w.root.Hidden() {
		t.Fatal("widget should be visible with one slot")
	}

	if err := w.SetState(context.Background(), EmptyState()); err != nil {
		t.Fatal(err)
	}
	if !w.root.Hidden() {
		t.Error("empty state should hide the widget")
	}
	if got := w.LineNumbers(); got != nil {
		t.Errorf("LineNumbers = %v, want none", got)
	}
}

func TestWidgetDefersWithoutModel(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	view.noModel = true
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1, 3}, []int{9, 7}, 0, -1)); err != nil {
		t.Fatal(err)
	}
	if !w.root.Hidden() {
		t.Error("no model means no output yet")
	}

	// The state was cached; rendering happens once a model exists.
	view.mu.Lock()
	view.noModel = false
	view.mu.Unlock()
	if err := w.SetState(context.Background(), w.State()); err != nil {
		t.Fatal(err)
	}
	if w.root.Hidden() {
		t.Error("widget should render once the model is attached")
	}
	if got := w.LineNumbers(); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("LineNumbers = %v, want [1 3]", got)
	}
}

func TestWidgetSlotFailureIsolated(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	view.failLines[5] = true
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1, 5, 9}, []int{30, 20, 15}, 0, -1)); err != nil {
		t.Fatal(err)
	}

	if got := w.SlotCount(); got != 3 {
		t.Errorf("SlotCount = %d, want 3 (state keeps the failed slot)", got)
	}
	if got := w.LineNumbers(); !reflect.DeepEqual(got, []int{1, 9}) {
		t.Errorf("LineNumbers = %v, want [1 9]", got)
	}
	if len(w.linesNode.Children()) != 2 {
		t.Errorf("expected 2 rendered fragments, got %d", len(w.linesNode.Children()))
	}

	if w.FocusSlot(1) {
		t.Error("focusing a failed slot should be refused")
	}
	if !w.FocusSlot(2) {
		t.Fatal("focusing a rendered slot should succeed")
	}
	if got := w.FocusedSlot(); got != 2 {
		t.Errorf("FocusedSlot = %d, want 2", got)
	}
}

func TestWidgetMalformedDecorationFallsBack(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	view.decos[1] = []linerender.Decoration{{StartCol: 9, EndCol: 3, Class: "search-hit"}}
	view.decos[5] = []linerender.Decoration{{StartCol: 1, EndCol: 5, Class: "search-hit"}}
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1, 5}, []int{30, 20}, 0, -1)); err != nil {
		t.Fatal(err)
	}

	// The inverted range drops that line's decorations, not the line.
	if got := w.LineNumbers(); !reflect.DeepEqual(got, []int{1, 5}) {
		t.Errorf("LineNumbers = %v, want [1 5]", got)
	}
	decorated := func(frag *overlay.Node) bool {
		found := false
		frag.Walk(func(n *overlay.Node) bool {
			if n.HasClass("search-hit") {
				found = true
				return false
			}
			return true
		})
		return found
	}
	if decorated(w.rendered[0].Fragment) {
		t.Error("slot 0 should render with empty decorations")
	}
	if !decorated(w.rendered[1].Fragment) {
		t.Error("slot 1's well-formed decoration should survive")
	}
}

func TestWidgetLineNumberColumnTracksSidePanel(t *testing.T) {
	cfg := testConfig(1)
	cfg.Minimap = hostview.MinimapLeft
	cfg.MinimapWidth = 10
	view := newFakeView(40, cfg)
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1}, []int{30}, 0, -1)); err != nil {
		t.Fatal(err)
	}
	if got := w.numbersNode.Rect().Width; got != 6 {
		t.Errorf("numbers column width = %d, want 6 with a left panel", got)
	}

	cfg.Minimap = hostview.MinimapRight
	view.setConfig(cfg)
	if got := w.numbersNode.Rect().Width; got != 5 {
		t.Errorf("numbers column width = %d, want 5 with a right panel", got)
	}
}

func TestWidgetShowEndForSlot(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1, 10}, []int{30, 18}, 0, 1)); err != nil {
		t.Fatal(err)
	}
	if got := w.LineNumbers(); !reflect.DeepEqual(got, []int{1, 18}) {
		t.Errorf("LineNumbers = %v, want [1 18]", got)
	}
}

func TestWidgetFocusMoves(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1, 5}, []int{30, 20}, 0, -1)); err != nil {
		t.Fatal(err)
	}

	if !w.FocusSlot(0) {
		t.Fatal("FocusSlot(0) should succeed")
	}
	frags := w.linesNode.Children()
	if !frags[0].HasClass("focused") {
		t.Error("focused slot should carry the focused class")
	}

	if !w.FocusSlot(1) {
		t.Fatal("FocusSlot(1) should succeed")
	}
	if frags[0].HasClass("focused") {
		t.Error("previous slot should lose the focused class")
	}
	if !frags[1].HasClass("focused") {
		t.Error("new slot should gain the focused class")
	}

	if w.FocusSlot(5) {
		t.Error("out-of-range slot should be refused")
	}
	if got := w.FocusedSlot(); got != 1 {
		t.Errorf("FocusedSlot = %d, want 1 after a refused move", got)
	}

	// A re-render keeps the focus marker.
	if err := w.SetState(context.Background(), w.State()); err != nil {
		t.Fatal(err)
	}
	if !w.linesNode.Children()[1].HasClass("focused") {
		t.Error("focus should survive a render pass")
	}
}

// gatedProvider blocks its first fetch until released, so a test can race
// two state updates deterministically.
type gatedProvider struct {
	first   chan struct{}
	release chan struct{}
	calls   atomic.Int32
	model   *folding.Model
}

func (p *gatedProvider) FoldingModel(ctx context.Context) (*folding.Model, error) {
	if p.calls.Add(1) == 1 {
		close(p.first)
		<-p.release
	}
	return p.model, nil
}

func TestWidgetStaleStateDropped(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	prov := &gatedProvider{
		first:   make(chan struct{}),
		release: make(chan struct{}),
		model:   folding.NewModel(nil),
	}
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), prov, Options{})
	defer w.Close()

	stale := mustState(t, []int{3}, []int{9}, 0, -1)
	fresh := mustState(t, []int{1, 2}, []int{30, 6}, 0, -1)

	done := make(chan error, 1)
	go func() { done <- w.SetState(context.Background(), stale) }()
	<-prov.first

	// A newer update lands while the first fetch is still in flight.
	if err := w.SetState(context.Background(), fresh); err != nil {
		t.Fatal(err)
	}
	close(prov.release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	if got := w.LineNumbers(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("LineNumbers = %v, want the newer pass [1 2]", got)
	}
	if got := w.SlotCount(); got != 2 {
		t.Errorf("SlotCount = %d, want 2", got)
	}
}

// countingProvider records how many fetches the widget issues.
type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) FoldingModel(ctx context.Context) (*folding.Model, error) {
	p.calls.Add(1)
	return folding.NewModel(nil), nil
}

func TestWidgetEmptyStateFetchesOncePerUpdate(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	prov := &countingProvider{}
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), prov, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), EmptyState()); err != nil {
		t.Fatal(err)
	}
	if err := w.SetState(context.Background(), EmptyState()); err != nil {
		t.Fatal(err)
	}

	if got := w.LineNumbers(); got != nil {
		t.Errorf("LineNumbers = %v, want none", got)
	}
	if got := prov.calls.Load(); got != 2 {
		t.Errorf("folding fetches = %d, want exactly one per update", got)
	}
}

func TestWidgetFoldToggleScroll(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	model := folding.NewModel([]folding.Region{{StartLine: 2, EndLine: 6}})
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), folding.StaticProvider{Model: model}, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1, 2}, []int{30, 6}, 0, -1)); err != nil {
		t.Fatal(err)
	}

	var icon *overlay.Node
	w.root.Walk(func(n *overlay.Node) bool {
		if n.Kind() == "fold-icon" {
			icon = n
		}
		return true
	})
	if icon == nil {
		t.Fatal("expected a folding icon on the region header slot")
	}

	// Collapsing anchors the region's start at the stack boundary: the
	// header sits in slot 1 with line height 1.
	if !w.HandleClick(icon) {
		t.Fatal("the icon should consume the click")
	}
	region, ok := model.RegionStartingAt(2)
	if !ok || !region.Collapsed {
		t.Fatal("the region should be collapsed after the click")
	}
	if got := view.ScrollTop(); got != 1 {
		t.Errorf("scroll after collapse = %d, want 1", got)
	}

	// Expanding anchors the region's end instead.
	if !w.HandleClick(icon) {
		t.Fatal("the second click should also be consumed")
	}
	region, _ = model.RegionStartingAt(2)
	if region.Collapsed {
		t.Fatal("the region should be expanded again")
	}
	if got := view.ScrollTop(); got != 5 {
		t.Errorf("scroll after expand = %d, want 5", got)
	}

	// Clicks elsewhere fall through to the host.
	if w.HandleClick(w.linesNode.Children()[0]) {
		t.Error("a click outside any affordance should not be consumed")
	}
	if w.HandleClick(nil) {
		t.Error("nil nodes are never consumed")
	}
}

func TestWidgetProviderErrorStillRenders(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), folding.StaticProvider{Err: errors.New("language server down")}, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1, 2}, []int{30, 6}, 0, -1)); err != nil {
		t.Fatal(err)
	}
	if got := w.LineNumbers(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("LineNumbers = %v, want [1 2] despite the folding failure", got)
	}

	var icon *overlay.Node
	w.root.Walk(func(n *overlay.Node) bool {
		if n.Kind() == "fold-icon" {
			icon = n
		}
		return true
	})
	if icon != nil {
		t.Error("no folding model means no icons")
	}
}

func TestWidgetModelChangeResets(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1, 2}, []int{30, 6}, 0, -1)); err != nil {
		t.Fatal(err)
	}
	if w.root.Hidden() {
		t.Fatal("widget should be visible before the model change")
	}

	view.hub.Publish(events.SubjectModelChanged, "new-model")

	if !w.root.Hidden() {
		t.Error("a model change should discard all output")
	}
	if got := w.SlotCount(); got != 0 {
		t.Errorf("SlotCount = %d, want 0 after reset", got)
	}
	if got := w.LineNumbers(); got != nil {
		t.Errorf("LineNumbers = %v, want none after reset", got)
	}
}

func TestWidgetConfigChangeRerenders(t *testing.T) {
	view := newFakeView(40, testConfig(20))
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 800}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1, 5, 9}, []int{30, 20, 15}, 0, -1)); err != nil {
		t.Fatal(err)
	}
	if got := w.Height(); got != 60 {
		t.Fatalf("Height = %d, want 60", got)
	}

	cfg := view.Config()
	cfg.LineHeight = 10
	view.setConfig(cfg)

	if got := w.Height(); got != 30 {
		t.Errorf("Height = %d, want 30 after the line height change", got)
	}
	if got := w.linesNode.Children()[1].Rect().Y; got != 10 {
		t.Errorf("slot 1 top = %d, want 10 after the line height change", got)
	}
}

func TestWidgetFollowsHorizontalScroll(t *testing.T) {
	cfg := testConfig(1)
	cfg.StickyFollowsHorizontalScroll = true
	view := newFakeView(40, cfg)
	w := NewStackWidget(view, overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40}), nil, Options{})
	defer w.Close()

	if err := w.SetState(context.Background(), mustState(t, []int{1}, []int{30}, 0, -1)); err != nil {
		t.Fatal(err)
	}
	if got := w.linesNode.Rect().X; got != 5 {
		t.Fatalf("content column X = %d, want the line-number width 5", got)
	}

	view.mu.Lock()
	view.cfg.ScrollLeft = 7
	view.mu.Unlock()
	view.hub.Publish(events.SubjectScrollChanged, 0)

	if got := w.linesNode.Rect().X; got != -2 {
		t.Errorf("content column X = %d, want -2 after scrolling right by 7", got)
	}
}

func TestWidgetNestedOption(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	w := NewStackWidget(view, nil, nil, Options{Nested: true})
	defer w.Close()

	if !w.root.HasClass("nested") {
		t.Error("nested widgets should carry the nested class")
	}
}

func TestWidgetClose(t *testing.T) {
	view := newFakeView(40, testConfig(1))
	host := overlay.NewStackHost(overlay.Rect{Width: 100, Height: 40})
	w := NewStackWidget(view, host, nil, Options{})

	if err := w.SetState(context.Background(), mustState(t, []int{1}, []int{30}, 0, -1)); err != nil {
		t.Fatal(err)
	}
	w.Close()

	// Events no longer reach the widget.
	before := w.SlotCount()
	view.hub.Publish(events.SubjectModelChanged, "replaced")
	if got := w.SlotCount(); got != before {
		t.Error("a closed widget should ignore view notifications")
	}
	if w.HandleClick(w.root) {
		t.Error("a closed widget has no click targets")
	}
}
