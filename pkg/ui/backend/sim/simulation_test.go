package sim

import (
	"testing"
	"time"

	"github.com/odvcencio/codepane/pkg/ui/backend"
	"github.com/odvcencio/codepane/pkg/ui/terminal"
)

func newTestBackend(t *testing.T, w, h int) *Backend {
	t.Helper()
	s := New(w, h)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(s.Fini)
	return s
}

func drawString(s *Backend, x, y int, text string, style backend.Style) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func TestBackend_Lines(t *testing.T) {
	s := newTestBackend(t, 20, 5)

	drawString(s, 0, 0, "func main() {", backend.DefaultStyle())
	drawString(s, 5, 2, "body", backend.DefaultStyle())
	s.Show()

	lines := s.Lines()
	if len(lines) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(lines))
	}
	if lines[0] != "func main() {" {
		t.Errorf("row 0 = %q", lines[0])
	}
	if lines[1] != "" {
		t.Errorf("untouched row should trim to empty, got %q", lines[1])
	}
	if lines[2] != "     body" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestBackend_Size(t *testing.T) {
	s := newTestBackend(t, 80, 24)

	w, h := s.Size()
	if w != 80 {
		t.Errorf("expected width 80, got %d", w)
	}
	if h < 24 || h > 25 {
		t.Errorf("expected height around 24, got %d", h)
	}
}

func TestBackend_Resize(t *testing.T) {
	s := newTestBackend(t, 80, 24)

	s.Resize(40, 12)

	w, h := s.Size()
	if w != 40 || h != 12 {
		t.Errorf("expected size 40x12 after resize, got %dx%d", w, h)
	}
}

func TestBackend_InjectKey(t *testing.T) {
	s := newTestBackend(t, 20, 10)

	s.InjectKeyRune('q')

	done := make(chan struct{})
	var ev terminal.Event

	go func() {
		ev = s.PollEvent()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("PollEvent did not deliver the injected key")
	}

	keyEv, ok := ev.(terminal.KeyEvent)
	if !ok {
		t.Fatalf("expected terminal.KeyEvent, got %T", ev)
	}
	if keyEv.Key != terminal.KeyRune || keyEv.Rune != 'q' {
		t.Errorf("expected KeyRune 'q', got key=%v rune=%c", keyEv.Key, keyEv.Rune)
	}
}

func TestBackend_Styles(t *testing.T) {
	s := newTestBackend(t, 20, 10)

	style := backend.DefaultStyle().
		Foreground(backend.ColorRed).
		Background(backend.ColorBlue).
		Bold(true)

	s.SetContent(0, 0, 'S', nil, style)
	s.Show()

	mainc, _, captured := s.CaptureCell(0, 0)
	if mainc != 'S' {
		t.Errorf("expected 'S', got %c", mainc)
	}
	if captured.Attributes()&backend.AttrBold == 0 {
		t.Error("expected bold attribute to be set")
	}
}
