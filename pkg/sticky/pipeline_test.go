package sticky

import (
	"context"
	"reflect"
	"testing"

	"github.com/odvcencio/codepane/pkg/hostview"
	"github.com/odvcencio/codepane/pkg/present"
	"github.com/odvcencio/codepane/pkg/ui/backend/sim"
	"github.com/odvcencio/codepane/pkg/ui/runtime"
	"github.com/odvcencio/codepane/pkg/ui/theme"
)

// Drives the whole output path: widget state to overlay nodes, presenter to
// cell buffer, dirty-cell flush into the simulation screen, frame readback.
func TestWidgetGoldenFrame(t *testing.T) {
	const width, height = 20, 4

	cfg := hostview.Config{
		LineHeight:             1,
		LineNumbers:            hostview.LineNumbersAbsolute,
		LineNumberWidth:        5,
		VerticalScrollbarWidth: 1,
		ViewportWidth:          width,
		ViewportHeight:         height,
		TabSize:                4,
	}
	view := newFakeView(9, cfg)
	w := NewStackWidget(view, nil, nil, Options{})
	defer w.Close()

	be := sim.New(width, height)
	if err := be.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer be.Fini()

	p := present.New(theme.DefaultTheme(), width, height)
	buf := runtime.NewBuffer(width, height)

	flush := func() []string {
		p.Draw(w.Root(), buf)
		buf.ForEachDirtyCell(func(x, y int, cell runtime.Cell) {
			be.SetContent(x, y, cell.Rune, nil, cell.Style)
		})
		buf.ClearDirty()
		be.Show()
		return be.Lines()
	}

	if err := w.SetState(context.Background(), mustState(t, []int{2, 5}, []int{10, 9}, 0, -1)); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"   2 line·2",
		"   5 line·5",
		"",
		"",
	}
	if got := flush(); !reflect.DeepEqual(got, want) {
		t.Errorf("frame mismatch:\ngot  %q\nwant %q", got, want)
	}

	// An empty state hides the stack; the next frame is blank.
	if err := w.SetState(context.Background(), EmptyState()); err != nil {
		t.Fatal(err)
	}
	buf.Clear()
	want = []string{"", "", "", ""}
	if got := flush(); !reflect.DeepEqual(got, want) {
		t.Errorf("frame after empty state:\ngot  %q\nwant %q", got, want)
	}
}
