package overlay

import (
	"strings"
	"unicode"
)

// Sanitizer cleans untrusted text before it enters an overlay tree.
// It is an injected policy object: widgets receive one at construction
// rather than consulting process-global state.
type Sanitizer interface {
	// Sanitize returns text safe for insertion into the display surface.
	Sanitize(text string) string
}

// TextSanitizer strips terminal control sequences and non-printable runes.
// Tabs are preserved so renderers can expand them against a tab stop;
// everything else below U+0020, the C1 range, and DEL are dropped.
type TextSanitizer struct{}

// NewTextSanitizer returns the default sanitizer.
func NewTextSanitizer() TextSanitizer {
	return TextSanitizer{}
}

// Sanitize implements Sanitizer.
func (TextSanitizer) Sanitize(text string) string {
	clean := true
	for _, r := range text {
		if !allowedRune(r) {
			clean = false
			break
		}
	}
	if clean {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if allowedRune(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allowedRune(r rune) bool {
	if r == '\t' {
		return true
	}
	if r < 0x20 || r == 0x7f {
		return false
	}
	if r >= 0x80 && r <= 0x9f {
		return false
	}
	return !unicode.Is(unicode.Cf, r) || r == '‍'
}

// PassthroughSanitizer performs no cleaning. Intended for trusted sources
// in tests and tooling.
type PassthroughSanitizer struct{}

// Sanitize implements Sanitizer.
func (PassthroughSanitizer) Sanitize(text string) string {
	return text
}
