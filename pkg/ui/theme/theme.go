// Package theme provides the visual design system for the code pane:
// editor chrome styles plus the palette that overlay class names resolve
// against when a node tree is presented on a terminal.
package theme

import (
	"github.com/odvcencio/codepane/pkg/ui/backend"
)

// Theme defines the complete visual language for the code pane.
type Theme struct {
	// Editor chrome
	Background       backend.Style
	Text             backend.Style
	LineNumber       backend.Style
	LineNumberActive backend.Style
	Whitespace       backend.Style

	// Sticky stack
	StickyBackground backend.Style
	StickyLineNumber backend.Style
	StickyFocused    backend.Style

	// Folding
	FoldIcon          backend.Style
	FoldIconCollapsed backend.Style

	// Syntax token classes
	Tokens map[string]backend.Style
}

// DefaultTheme returns the dark code-view theme.
func DefaultTheme() *Theme {
	base := backend.DefaultStyle().
		Foreground(backend.ColorRGB(212, 212, 212)).
		Background(backend.ColorRGB(20, 20, 24))
	stickyBG := backend.ColorRGB(32, 32, 40)

	return &Theme{
		Background:       base,
		Text:             base,
		LineNumber:       base.Foreground(backend.ColorRGB(110, 110, 118)),
		LineNumberActive: base.Foreground(backend.ColorRGB(200, 200, 208)),
		Whitespace:       base.Foreground(backend.ColorRGB(68, 68, 76)),

		StickyBackground: base.Background(stickyBG),
		StickyLineNumber: backend.DefaultStyle().
			Foreground(backend.ColorRGB(110, 110, 118)).
			Background(stickyBG),
		StickyFocused: base.Background(backend.ColorRGB(52, 52, 68)),

		FoldIcon: backend.DefaultStyle().
			Foreground(backend.ColorRGB(160, 160, 170)).
			Background(stickyBG),
		FoldIconCollapsed: backend.DefaultStyle().
			Foreground(backend.ColorRGB(230, 200, 110)).
			Background(stickyBG),

		Tokens: map[string]backend.Style{
			"keyword":     base.Foreground(backend.ColorRGB(197, 134, 192)).Bold(true),
			"string":      base.Foreground(backend.ColorRGB(152, 195, 121)),
			"comment":     base.Foreground(backend.ColorRGB(106, 153, 85)).Italic(true),
			"number":      base.Foreground(backend.ColorRGB(229, 192, 123)),
			"type":        base.Foreground(backend.ColorRGB(86, 182, 194)),
			"function":    base.Foreground(backend.ColorRGB(97, 175, 239)),
			"builtin":     base.Foreground(backend.ColorRGB(86, 182, 194)),
			"operator":    base.Foreground(backend.ColorRGB(160, 160, 170)),
			"punctuation": base.Foreground(backend.ColorRGB(140, 140, 150)),
			"tag":         base.Foreground(backend.ColorRGB(224, 108, 117)),
			"attribute":   base.Foreground(backend.ColorRGB(97, 175, 239)),
			"error":       base.Foreground(backend.ColorRGB(224, 108, 117)).Bold(true),
		},
	}
}

// LightTheme returns the light code-view theme.
func LightTheme() *Theme {
	base := backend.DefaultStyle().
		Foreground(backend.ColorRGB(36, 36, 36)).
		Background(backend.ColorRGB(250, 250, 250))
	stickyBG := backend.ColorRGB(232, 232, 236)

	return &Theme{
		Background:       base,
		Text:             base,
		LineNumber:       base.Foreground(backend.ColorRGB(150, 150, 158)),
		LineNumberActive: base.Foreground(backend.ColorRGB(60, 60, 68)),
		Whitespace:       base.Foreground(backend.ColorRGB(200, 200, 208)),

		StickyBackground: base.Background(stickyBG),
		StickyLineNumber: backend.DefaultStyle().
			Foreground(backend.ColorRGB(150, 150, 158)).
			Background(stickyBG),
		StickyFocused: base.Background(backend.ColorRGB(214, 214, 224)),

		FoldIcon: backend.DefaultStyle().
			Foreground(backend.ColorRGB(110, 110, 120)).
			Background(stickyBG),
		FoldIconCollapsed: backend.DefaultStyle().
			Foreground(backend.ColorRGB(176, 130, 20)).
			Background(stickyBG),

		Tokens: map[string]backend.Style{
			"keyword":     base.Foreground(backend.ColorRGB(156, 40, 176)).Bold(true),
			"string":      base.Foreground(backend.ColorRGB(34, 120, 52)),
			"comment":     base.Foreground(backend.ColorRGB(110, 140, 110)).Italic(true),
			"number":      base.Foreground(backend.ColorRGB(170, 110, 20)),
			"type":        base.Foreground(backend.ColorRGB(20, 120, 140)),
			"function":    base.Foreground(backend.ColorRGB(30, 90, 190)),
			"builtin":     base.Foreground(backend.ColorRGB(20, 120, 140)),
			"operator":    base.Foreground(backend.ColorRGB(90, 90, 100)),
			"punctuation": base.Foreground(backend.ColorRGB(120, 120, 130)),
			"tag":         base.Foreground(backend.ColorRGB(190, 50, 60)),
			"attribute":   base.Foreground(backend.ColorRGB(30, 90, 190)),
			"error":       base.Foreground(backend.ColorRGB(190, 50, 60)).Bold(true),
		},
	}
}

// ByName returns the theme registered under name, falling back to the
// default dark theme for unknown names.
func ByName(name string) *Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DefaultTheme()
	}
}

// StyleForClasses resolves an overlay node's class list to a concrete
// style. Structural classes (sticky chrome) set the ground; token classes
// paint on top of it, keeping the sticky background.
func (t *Theme) StyleForClasses(classes []string) backend.Style {
	style := t.Text
	sticky := false
	for _, c := range classes {
		switch c {
		case "sticky-widget", "sticky-line-content", "sticky-widget-lines", "sticky-widget-line-numbers":
			sticky = true
			style = t.StickyBackground
		case "sticky-line-number":
			sticky = true
			style = t.StickyLineNumber
		case "line-number":
			style = t.LineNumber
		case "line-number-active":
			style = t.LineNumberActive
		case "folding-icon":
			style = t.FoldIcon
		case "collapsed":
			style = t.FoldIconCollapsed
		case "focused":
			style = t.StickyFocused
		}
	}
	for _, c := range classes {
		if tok, ok := t.Tokens[c]; ok {
			if sticky {
				tok = tok.Background(t.StickyBackground.BG())
			}
			style = tok
		}
	}
	return style
}
