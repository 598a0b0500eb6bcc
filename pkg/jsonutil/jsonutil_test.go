package jsonutil

import (
	"bytes"
	"strings"
	"testing"
)

type entry struct {
	ID       string `json:"id"`
	Line     int    `json:"line"`
	Column   int    `json:"column,omitzero"`
	Verbose  string `json:"verbose,omitempty"`
	Symbols  []string
	internal string
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(entry{ID: "nullPointer", Line: 10, internal: "x"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got := string(data)
	if !strings.Contains(got, `"id":"nullPointer"`) {
		t.Errorf("missing id in %s", got)
	}
	if strings.Contains(got, "column") || strings.Contains(got, "verbose") {
		t.Errorf("zero fields not omitted: %s", got)
	}
	if strings.Contains(got, "internal") {
		t.Errorf("unexported field encoded: %s", got)
	}
}

func TestUnmarshal(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var e entry
		if err := Unmarshal([]byte(`{"id":"memleak","line":22,"column":3}`), &e); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if e.ID != "memleak" || e.Line != 22 || e.Column != 3 {
			t.Errorf("unexpected value %+v", e)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		var e entry
		if err := Unmarshal([]byte(`{invalid}`), &e); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(map[string]int{"a": 1}, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent() error = %v", err)
	}
	if !strings.Contains(string(data), "\n  \"a\": 1") {
		t.Errorf("expected indented output, got %q", data)
	}
}

func TestStreamEncoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewStreamEncoder(&buf)
	if err := enc.Encode(entry{ID: "a"}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := enc.Encode(entry{ID: "b"}); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	for _, line := range lines {
		if !Valid([]byte(line)) {
			t.Errorf("invalid JSON line %q", line)
		}
	}
}

func TestStreamDecoder(t *testing.T) {
	var e entry
	if err := NewStreamDecoder(strings.NewReader(`{"id":"x","line":1}`)).Decode(&e); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if e.ID != "x" {
		t.Errorf("ID = %q, want x", e.ID)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`{}`, true},
		{`[1,2]`, true},
		{`{"a":}`, false},
		{``, false},
	}
	for _, tt := range tests {
		if got := Valid([]byte(tt.in)); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
