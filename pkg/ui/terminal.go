package ui

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"
)

var (
	unicodeOnce sync.Once
	unicodeOK   bool
)

// UnicodeTerminal reports whether stderr can render Unicode glyphs
// (check marks, box drawing). Returns false when output is piped,
// redirected, TERM is "dumb", or on Windows without Windows Terminal.
//
// On Windows, legacy consoles (conhost, older PowerShell) cannot render
// check marks or emoji even with SetConsoleOutputCP(65001) because the
// default fonts lack those glyphs. Windows Terminal (detected via
// WT_SESSION) handles them correctly.
func UnicodeTerminal() bool {
	unicodeOnce.Do(func() {
		if os.Getenv("TERM") == "dumb" {
			return
		}
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			return
		}
		if runtime.GOOS == "windows" {
			// Windows Terminal sets WT_SESSION; legacy conhost does not.
			unicodeOK = os.Getenv("WT_SESSION") != ""
			return
		}
		unicodeOK = true
	})
	return unicodeOK
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// Icon returns unicode when the terminal supports it, ascii otherwise.
// Use at every call site that renders emoji or special characters to
// stderr: ui.Icon("✔", "+")
func Icon(unicode, ascii string) string {
	if UnicodeTerminal() {
		return unicode
	}
	return ascii
}

// SanitizeString strips emoji and multi-byte Unicode symbols from s
// when the terminal cannot render them. On Unicode-capable terminals,
// returns s unchanged.
//
// This is applied automatically by Print* functions so callers can
// embed emoji directly without wrapping each one in Icon().
func SanitizeString(s string) string {
	if UnicodeTerminal() {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r < 0x80:
			// ASCII is always safe
			b.WriteByte(s[i])
		case isVariationSelector(r):
			// Variation selectors (U+FE00-U+FE0F) are dropped silently
		case isSafeForLegacy(r):
			b.WriteRune(r)
		default:
			// Emoji, block chars, symbols: drop
		}
		i += size
	}
	return b.String()
}

// Sanitizef formats a string and sanitizes it for the current terminal.
// Drop-in replacement for fmt.Sprintf when the result goes to the terminal.
func Sanitizef(format string, args ...any) string {
	return SanitizeString(fmt.Sprintf(format, args...))
}

// Fprintf writes to w with terminal-appropriate sanitization.
// Drop-in replacement for fmt.Fprintf when output may contain emoji.
func Fprintf(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, Sanitizef(format, args...))
}

// isVariationSelector returns true for Unicode variation selectors
// that modify the preceding character's display (e.g., U+FE0F emoji style).
func isVariationSelector(r rune) bool {
	return r >= 0xFE00 && r <= 0xFE0F
}

// isSafeForLegacy returns true for runes that legacy Windows consoles
// can typically render: Latin scripts and Latin-1 punctuation.
func isSafeForLegacy(r rune) bool {
	if r <= 0xFF {
		return true
	}
	// Latin letters render in every console font; box drawing and
	// block elements do not.
	return unicode.Is(unicode.Latin, r)
}
