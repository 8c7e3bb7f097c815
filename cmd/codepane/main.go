// Command codepane shows a syntax-highlighted file with a sticky header
// stack: the enclosing scopes of the first visible line stay pinned above
// the view while scrolling, and fold icons on pinned lines collapse or
// expand their regions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/odvcencio/codepane/pkg/config"
	"github.com/odvcencio/codepane/pkg/folding"
	"github.com/odvcencio/codepane/pkg/hostview"
	"github.com/odvcencio/codepane/pkg/linerender"
	"github.com/odvcencio/codepane/pkg/logging"
	"github.com/odvcencio/codepane/pkg/overlay"
	"github.com/odvcencio/codepane/pkg/present"
	"github.com/odvcencio/codepane/pkg/sticky"
	"github.com/odvcencio/codepane/pkg/ui/backend"
	tcellbackend "github.com/odvcencio/codepane/pkg/ui/backend/tcell"
	"github.com/odvcencio/codepane/pkg/ui/runtime"
	"github.com/odvcencio/codepane/pkg/ui/terminal"
	"github.com/odvcencio/codepane/pkg/ui/theme"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default: ~/.codepane/config.yaml, ./.codepane/config.yaml)")
	language := flag.String("language", "", "syntax language (default: from the file extension)")
	logPath := flag.String("log", "", "append JSONL diagnostics to this file")
	flag.Parse()

	if err := run(*configPath, *language, *logPath, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "codepane:", err)
		os.Exit(1)
	}
}

func run(configPath, language, logPath, file string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logger := logging.Discard()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger = logging.New(f, logging.LevelDebug)
	}

	content := sampleSource
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		content = string(data)
		if language == "" {
			language = strings.TrimPrefix(filepath.Ext(file), ".")
		}
	}
	if language == "" {
		language = "go"
	}

	be, err := tcellbackend.New()
	if err != nil {
		return fmt.Errorf("creating terminal backend: %w", err)
	}
	if err := be.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer be.Fini()

	app := newApp(be, cfg, content, language, logger)
	defer app.close()
	return app.run()
}

// app owns the demo's widget tree: one code view plus the sticky stack.
type app struct {
	backend   backend.Backend
	cfg       *config.Config
	log       *logging.Logger
	view      *hostview.SimpleView
	host      *overlay.StackHost
	widget    *sticky.StackWidget
	folds     *folding.IndentProvider
	presenter *present.Presenter
	buffer    *runtime.Buffer
	sanitizer overlay.Sanitizer

	width, height int
}

func newApp(be backend.Backend, cfg *config.Config, content, language string, log *logging.Logger) *app {
	w, h := be.Size()
	model := hostview.NewModel(content, language)
	view := hostview.NewSimpleView(model, viewConfig(cfg, w, h))

	host := overlay.NewStackHost(overlay.Rect{X: 0, Y: 0, Width: w, Height: h})
	folds := folding.NewIndentProvider(model.Lines(), cfg.Editor.TabSize, 2)

	var widget *sticky.StackWidget
	if cfg.Sticky.Enabled {
		widget = sticky.NewStackWidget(view, host, folds, sticky.Options{Logger: log})
	}

	a := &app{
		backend:   be,
		cfg:       cfg,
		log:       log,
		view:      view,
		host:      host,
		widget:    widget,
		folds:     folds,
		presenter: present.New(theme.ByName(cfg.Theme.Name), w, h),
		buffer:    runtime.NewBuffer(w, h),
		sanitizer: overlay.NewTextSanitizer(),
		width:     w,
		height:    h,
	}
	return a
}

func (a *app) close() {
	if a.widget != nil {
		a.widget.Close()
	}
}

func (a *app) run() error {
	ctx := context.Background()
	a.backend.HideCursor()
	a.updateSticky(ctx)
	a.render()

	for {
		ev := a.backend.PollEvent()
		if ev == nil {
			return nil
		}
		switch ev := ev.(type) {
		case terminal.KeyEvent:
			if a.handleKey(ev) {
				return nil
			}
		case terminal.MouseEvent:
			a.handleMouse(ev)
		case terminal.ResizeEvent:
			a.resize(ev.Width, ev.Height)
		}
		a.updateSticky(ctx)
		a.render()
	}
}

// handleKey returns true when the app should quit.
func (a *app) handleKey(ev terminal.KeyEvent) bool {
	switch ev.Key {
	case terminal.KeyEscape, terminal.KeyCtrlC:
		return true
	case terminal.KeyRune:
		if ev.Rune == 'q' {
			return true
		}
	case terminal.KeyUp:
		a.scrollBy(-1)
	case terminal.KeyDown:
		a.scrollBy(1)
	case terminal.KeyPageUp:
		a.scrollBy(-a.view.Config().ViewportHeight)
	case terminal.KeyPageDown:
		a.scrollBy(a.view.Config().ViewportHeight)
	case terminal.KeyHome:
		a.view.SetScrollTop(0)
	case terminal.KeyEnd:
		a.view.SetScrollTop(a.view.RowCount() * a.view.Config().LineHeight)
	}
	return false
}

func (a *app) scrollBy(delta int) {
	a.view.SetScrollTop(a.view.ScrollTop() + delta*a.view.Config().LineHeight)
}

func (a *app) handleMouse(ev terminal.MouseEvent) {
	switch ev.Button {
	case terminal.MouseWheelUp:
		a.scrollBy(-3)
	case terminal.MouseWheelDown:
		a.scrollBy(3)
	case terminal.MouseLeft:
		if ev.Action != terminal.MousePress || a.widget == nil {
			return
		}
		node := a.presenter.Grid().NodeAt(ev.X, ev.Y)
		if node == nil {
			return
		}
		if a.widget.HandleClick(node) {
			a.log.Debug(logging.CategoryInput, "fold-toggled", "", nil)
			return
		}
		if line, ok := a.widget.LineNumberFromNode(node); ok {
			// Clicking pinned content jumps the view to that line.
			a.view.SetScrollTop(a.view.TopForLine(line))
		}
	}
}

func (a *app) resize(w, h int) {
	a.width, a.height = w, h
	a.buffer.Resize(w, h)
	a.presenter.Resize(w, h)
	a.host.SetRegion(overlay.Rect{X: 0, Y: 0, Width: w, Height: h})
	a.view.SetConfig(viewConfig(a.cfg, w, h))
	a.backend.Sync()
}

// updateSticky recomputes which lines are pinned: the enclosing fold
// regions of the first visible line, outermost first, ignoring headers
// that are still on screen.
func (a *app) updateSticky(ctx context.Context) {
	if a.widget == nil {
		return
	}
	vc := a.view.Config()
	row := a.view.ScrollTop() / vc.LineHeight
	line, ok := a.view.LineForRow(row)
	if !ok {
		_ = a.widget.SetState(ctx, sticky.EmptyState())
		return
	}

	model, err := a.folds.FoldingModel(ctx)
	if err != nil {
		a.log.Warn(logging.CategoryFolding, "model-unavailable", "", map[string]any{"error": err.Error()})
		_ = a.widget.SetState(ctx, sticky.EmptyState())
		return
	}

	var starts, ends []int
	for _, region := range model.EnclosingRegions(line) {
		if region.StartLine >= line {
			continue
		}
		starts = append(starts, region.StartLine)
		ends = append(ends, region.EndLine)
	}
	if len(starts) > a.cfg.Sticky.MaxLines {
		starts = starts[:a.cfg.Sticky.MaxLines]
		ends = ends[:a.cfg.Sticky.MaxLines]
	}

	st, err := sticky.NewWidgetState(starts, ends, 0, -1)
	if err != nil {
		a.log.Warn(logging.CategoryView, "sticky-state-invalid", "", map[string]any{"error": err.Error()})
		return
	}
	if err := a.widget.SetState(ctx, st); err != nil {
		a.log.Warn(logging.CategoryView, "sticky-update-failed", "", map[string]any{"error": err.Error()})
	}
}

// render rebuilds the frame's overlay tree and rasterizes it.
func (a *app) render() {
	vc := a.view.Config()
	scene := overlay.NewNode("screen")
	scene.SetRect(overlay.Rect{X: 0, Y: 0, Width: a.width, Height: a.height})

	numbersWidth := vc.LineNumberWidth
	if vc.LineNumbers == hostview.LineNumbersOff {
		numbersWidth = 0
	}

	topRow := a.view.ScrollTop() / vc.LineHeight
	for y := 0; y < a.height; y += vc.LineHeight {
		row := topRow + y/vc.LineHeight
		data, err := a.view.RenderData(row)
		if err != nil {
			break
		}

		if numbersWidth > 0 {
			if line, ok := a.view.LineForRow(row); ok && !data.WrapContinuation {
				scene.Append(lineNumberNode(line, y, numbersWidth, vc))
			}
		}

		fragment, _ := linerender.Render(linerender.Input{
			Content:     data.Content,
			Tokens:      data.Tokens,
			Decorations: data.Decorations,
			TabSize:     data.TabSize,
		}, linerender.Options{MaxColumns: a.width + vc.ScrollLeft}, a.sanitizer)
		fragment.SetRect(overlay.Rect{
			X:      numbersWidth - vc.ScrollLeft,
			Y:      y,
			Width:  fragment.Rect().Width,
			Height: vc.LineHeight,
		})
		scene.Append(fragment)
	}

	// The sticky stack paints last so it sits above the code rows.
	if a.widget != nil {
		scene.Append(a.widget.Root())
	}

	a.buffer.Clear()
	a.presenter.Draw(scene, a.buffer)
	a.buffer.ForEachDirtyCell(func(x, y int, cell runtime.Cell) {
		a.backend.SetContent(x, y, cell.Rune, nil, cell.Style)
	})
	a.buffer.ClearDirty()
	a.backend.Show()
}

func lineNumberNode(line, y, width int, vc hostview.Config) *overlay.Node {
	text := ""
	switch vc.LineNumbers {
	case hostview.LineNumbersAbsolute:
		text = strconv.Itoa(line)
	case hostview.LineNumbersRelative:
		d := line - vc.CursorLine
		if d < 0 {
			d = -d
		}
		if d == 0 {
			text = strconv.Itoa(line)
		} else {
			text = strconv.Itoa(d)
		}
	case hostview.LineNumbersInterval:
		interval := vc.LineNumberInterval
		if interval <= 0 {
			interval = 10
		}
		if line%interval == 0 {
			text = strconv.Itoa(line)
		}
	}

	node := overlay.NewNode("line-number").AddClass("line-number")
	node.SetRect(overlay.Rect{X: 0, Y: y, Width: width, Height: 1})
	if text != "" {
		x := width - len(text) - 1
		if x < 0 {
			x = 0
		}
		leaf := overlay.NewText(text)
		leaf.SetRect(overlay.Rect{X: x, Y: 0, Width: len(text), Height: 1})
		node.Append(leaf)
	}
	return node
}

// viewConfig maps the YAML configuration to a host view snapshot for the
// current terminal size.
func viewConfig(cfg *config.Config, width, height int) hostview.Config {
	mode := hostview.LineNumbersAbsolute
	switch strings.ToLower(cfg.Editor.LineNumbers) {
	case "off":
		mode = hostview.LineNumbersOff
	case "relative":
		mode = hostview.LineNumbersRelative
	case "interval":
		mode = hostview.LineNumbersInterval
	}

	side := hostview.MinimapNone
	switch strings.ToLower(cfg.Minimap.Side) {
	case "left":
		side = hostview.MinimapLeft
	case "right":
		side = hostview.MinimapRight
	}

	return hostview.Config{
		LineHeight:                    cfg.Editor.LineHeight,
		LineNumbers:                   mode,
		LineNumberInterval:            cfg.Editor.LineNumberInterval,
		LineNumberWidth:               cfg.Editor.LineNumberWidth,
		Minimap:                       side,
		MinimapWidth:                  cfg.Minimap.Width,
		VerticalScrollbarWidth:        cfg.Scrollbar.Width,
		ViewportWidth:                 width,
		ViewportHeight:                height,
		CursorLine:                    1,
		StickyFollowsHorizontalScroll: cfg.Sticky.FollowHorizontalScroll,
		TabSize:                       cfg.Editor.TabSize,
	}
}

// sampleSource is shown when no file argument is given.
const sampleSource = `package sample

import "fmt"

type Server struct {
	addr     string
	handlers map[string]func() error
}

func NewServer(addr string) *Server {
	return &Server{
		addr:     addr,
		handlers: make(map[string]func() error),
	}
}

func (s *Server) Register(name string, fn func() error) {
	if fn == nil {
		return
	}
	s.handlers[name] = fn
}

func (s *Server) Run() error {
	for name, fn := range s.handlers {
		if err := fn(); err != nil {
			return fmt.Errorf("handler %s: %w", name, err)
		}
	}
	return nil
}

func main() {
	srv := NewServer("localhost:8080")
	srv.Register("health", func() error {
		fmt.Println("ok")
		return nil
	})
	if err := srv.Run(); err != nil {
		fmt.Println(err)
	}
}
`
