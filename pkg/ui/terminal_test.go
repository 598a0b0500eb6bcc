package ui

import (
	"bytes"
	"os"
	"testing"
)

func TestIcon(t *testing.T) {
	tests := []struct {
		name    string
		unicode string
		ascii   string
	}{
		{"check", "✔", "+"},
		{"cross", "✖", "x"},
		{"warning", "⚠", "!"},
		{"empty_ascii", "📊", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Icon(tt.unicode, tt.ascii)
			want := tt.ascii
			if UnicodeTerminal() {
				want = tt.unicode
			}
			if result != want {
				t.Errorf("Icon(%q, %q) = %q; want %q", tt.unicode, tt.ascii, result, want)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	if UnicodeTerminal() {
		t.Skip("running in a Unicode terminal; strings are returned unchanged")
	}
	tests := []struct {
		in, want string
	}{
		{"plain ascii", "plain ascii"},
		{"café résumé", "café résumé"},
		{"✔ done", " done"},
		{"warn ⚠️ here", "warn  here"},
		{"bar ███", "bar "},
	}
	for _, tt := range tests {
		if got := SanitizeString(tt.in); got != tt.want {
			t.Errorf("SanitizeString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	var buf bytes.Buffer
	if IsTerminal(&buf) {
		t.Error("a buffer is not a terminal")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
}
