package overlay

import "sync"

// Widget is an overlay that a Host can place above a view.
type Widget interface {
	// ID returns a stable identity for the overlay, unique per host.
	ID() string

	// Root returns the overlay's visual root node.
	Root() *Node

	// MinContentWidth returns the minimum width in host units the overlay
	// needs to show its content without clipping.
	MinContentWidth() int

	// Preference returns the overlay's placement preference, or nil to let
	// the host choose.
	Preference() *Preference
}

// Preference expresses where an overlay would like to be placed.
type Preference struct {
	Top int
}

// Host owns overlay placement. Widgets request a relayout whenever their
// content or geometry changes; the host repositions overlay roots in
// response.
type Host interface {
	// AddWidget registers an overlay. Adding an already-registered overlay
	// replaces it.
	AddWidget(w Widget)

	// RemoveWidget unregisters an overlay.
	RemoveWidget(w Widget)

	// Relayout recomputes placement for the given overlay.
	Relayout(w Widget)
}

// StackHost is a Host that parks overlays at the top edge of a region,
// honoring a widget's Preference when present.
type StackHost struct {
	mu      sync.Mutex
	region  Rect
	widgets map[string]Widget

	relayouts int
}

// NewStackHost creates a host for the given placement region.
func NewStackHost(region Rect) *StackHost {
	return &StackHost{
		region:  region,
		widgets: make(map[string]Widget),
	}
}

// SetRegion updates the placement region and relayouts every overlay.
func (h *StackHost) SetRegion(region Rect) {
	h.mu.Lock()
	h.region = region
	widgets := make([]Widget, 0, len(h.widgets))
	for _, w := range h.widgets {
		widgets = append(widgets, w)
	}
	h.mu.Unlock()

	for _, w := range widgets {
		h.Relayout(w)
	}
}

// AddWidget implements Host.
func (h *StackHost) AddWidget(w Widget) {
	h.mu.Lock()
	h.widgets[w.ID()] = w
	h.mu.Unlock()
	h.Relayout(w)
}

// RemoveWidget implements Host.
func (h *StackHost) RemoveWidget(w Widget) {
	h.mu.Lock()
	delete(h.widgets, w.ID())
	h.mu.Unlock()
}

// Relayout implements Host.
func (h *StackHost) Relayout(w Widget) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.widgets[w.ID()]; !ok {
		return
	}
	h.relayouts++

	root := w.Root()
	if root == nil {
		return
	}
	top := h.region.Y
	if pref := w.Preference(); pref != nil {
		top = h.region.Y + pref.Top
	}
	r := root.Rect()
	root.SetRect(Rect{X: h.region.X, Y: top, Width: r.Width, Height: r.Height})
}

// Relayouts returns how many relayout requests the host has served.
func (h *StackHost) Relayouts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.relayouts
}

// WidgetByID returns a registered overlay by identity.
func (h *StackHost) WidgetByID(id string) (Widget, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.widgets[id]
	return w, ok
}
