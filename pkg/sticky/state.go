// Package sticky renders a pinned stack of scope-header lines above a
// scrolling code view. The widget consumes an externally computed
// WidgetState, re-renders each line from the host view's source of truth,
// positions the slots with exact stacking order, and maps rendered nodes
// back to document coordinates for hit testing, focus, and folding.
package sticky

import "fmt"

// WidgetState is the desired sticky configuration for one render pass.
// It is immutable: each update replaces the previous state wholesale.
type WidgetState struct {
	startLines []int
	endLines   []int

	// lastLineOffset is the signed vertical offset applied to the final
	// slot only, compressing the stack as the covered scope's end nears
	// the viewport top.
	lastLineOffset int

	// showEndForSlot is the slot index displaying its end line instead of
	// its start line, or -1.
	showEndForSlot int
}

// NewWidgetState builds a state. startLines and endLines pair up one slot
// each, outermost first; showEndForSlot must be -1 or a valid slot index.
func NewWidgetState(startLines, endLines []int, lastLineOffset, showEndForSlot int) (WidgetState, error) {
	if len(startLines) != len(endLines) {
		return WidgetState{}, fmt.Errorf("sticky: %d start lines but %d end lines", len(startLines), len(endLines))
	}
	if showEndForSlot != -1 && (showEndForSlot < 0 || showEndForSlot >= len(startLines)) {
		return WidgetState{}, fmt.Errorf("sticky: showEndForSlot %d out of range for %d slots", showEndForSlot, len(startLines))
	}
	st := WidgetState{
		startLines:     make([]int, len(startLines)),
		endLines:       make([]int, len(endLines)),
		lastLineOffset: lastLineOffset,
		showEndForSlot: showEndForSlot,
	}
	copy(st.startLines, startLines)
	copy(st.endLines, endLines)
	return st, nil
}

// EmptyState returns the state with no slots.
func EmptyState() WidgetState {
	return WidgetState{showEndForSlot: -1}
}

// SlotCount returns the number of stack slots.
func (s WidgetState) SlotCount() int {
	return len(s.startLines)
}

// StartLine returns the scope-opening line of a slot.
func (s WidgetState) StartLine(slot int) int {
	return s.startLines[slot]
}

// EndLine returns the scope-closing line of a slot.
func (s WidgetState) EndLine(slot int) int {
	return s.endLines[slot]
}

// LastLineOffset returns the signed offset applied to the final slot.
func (s WidgetState) LastLineOffset() int {
	return s.lastLineOffset
}

// ShowEndForSlot returns the slot displaying its end line, or -1.
func (s WidgetState) ShowEndForSlot() int {
	return s.showEndForSlot
}

// EffectiveLine returns the document line a slot displays: the end line for
// the showEndForSlot slot, the start line otherwise.
func (s WidgetState) EffectiveLine(slot int) int {
	if slot == s.showEndForSlot {
		return s.endLines[slot]
	}
	return s.startLines[slot]
}

// EffectiveLines returns the displayed line per slot, outermost first.
func (s WidgetState) EffectiveLines() []int {
	out := make([]int, len(s.startLines))
	for i := range out {
		out[i] = s.EffectiveLine(i)
	}
	return out
}
