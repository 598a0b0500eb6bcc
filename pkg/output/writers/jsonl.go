// Package writers provides output writers for various formats.
//
// This package contains implementations of the dispatcher.Writer interface
// for JUnit XML, SARIF, JSON, JSONL (newline-delimited JSON), CSV, Markdown,
// PDF and user templates.
package writers

import (
	"io"
	"sync"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/jsonutil"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*JSONLWriter)(nil)

// JSONLWriter writes events as newline-delimited JSON (JSONL).
// Each event is serialized as a complete JSON object on a single line,
// so tools like jq can process the stream line by line.
type JSONLWriter struct {
	w       io.Writer
	mu      sync.Mutex
	opts    JSONLOptions
	encoder *jsonutil.Encoder
}

// JSONLOptions configures the JSONL writer behavior.
type JSONLOptions struct {
	// OnlyFailed filters issue events to failing issues.
	// Other event types are always written.
	OnlyFailed bool
}

// NewJSONLWriter creates a new JSONL writer that writes to w.
// The writer is safe for concurrent use.
func NewJSONLWriter(w io.Writer, opts JSONLOptions) *JSONLWriter {
	return &JSONLWriter{
		w:       w,
		opts:    opts,
		encoder: jsonutil.NewStreamEncoder(w),
	}
}

// Write writes an event as a single JSON line.
// Returns nil if the event was filtered out by options.
func (jw *JSONLWriter) Write(event events.Event) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.opts.OnlyFailed {
		if ie, ok := event.(*events.IssueEvent); ok && !ie.Failed() {
			return nil
		}
	}

	return jw.encoder.Encode(event)
}

// Flush is a no-op; JSONL writes immediately.
func (jw *JSONLWriter) Flush() error {
	return nil
}

// Close closes the writer and releases any resources.
// If the underlying writer implements io.Closer, it will be closed.
func (jw *JSONLWriter) Close() error {
	if closer, ok := jw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for all event types.
func (jw *JSONLWriter) SupportsEvent(_ events.EventType) bool {
	return true
}
