// Package writers provides output writers for various formats.
package writers

import (
	"errors"
	"io"
	"sync"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/junit"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*JUnitWriter)(nil)

// JUnitWriter writes the run as a JUnit XML document.
// JUnit XML is understood by Jenkins, GitLab CI, GitHub Actions, Azure DevOps
// and Bitbucket Pipelines.
// Issues are buffered and written as a complete document on Close.
// The writer is safe for concurrent use.
type JUnitWriter struct {
	w      io.Writer
	mu     sync.Mutex
	opts   junit.Options
	report cppcheck.Report
	doc    *junit.Document
}

// NewJUnitWriter creates a new JUnit XML writer that writes to w.
// opts.Suppressed is ignored; suppression is read from the issue events.
func NewJUnitWriter(w io.Writer, opts junit.Options) *JUnitWriter {
	opts.Suppressed = make(map[int]bool)
	return &JUnitWriter{
		w:      w,
		opts:   opts,
		report: cppcheck.Report{Issues: []cppcheck.Issue{}},
	}
}

// Write records start metadata and issues. Other event types are ignored.
func (jw *JUnitWriter) Write(event events.Event) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		jw.report.FormatVersion = e.FormatVersion
		jw.report.CppcheckVersion = e.CppcheckVersion
	case *events.IssueEvent:
		jw.report.Issues = append(jw.report.Issues, e.Issue)
		if e.Suppressed {
			jw.opts.Suppressed[e.Issue.Index] = true
		}
	}
	return nil
}

// Document returns the document written by Close, or nil before Close.
func (jw *JUnitWriter) Document() *junit.Document {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	return jw.doc
}

// Flush is a no-op for JUnit writer.
// All issues are written as a single document on Close.
func (jw *JUnitWriter) Flush() error {
	return nil
}

// Close converts the buffered issues and writes the JUnit document.
// If the underlying writer implements io.Closer, it will be closed.
func (jw *JUnitWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	jw.doc = junit.Convert(&jw.report, jw.opts)
	_, err := jw.doc.WriteTo(jw.w)

	if closer, ok := jw.w.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			err = errors.Join(err, &junit.WriteError{Err: cerr})
		}
	}
	return err
}

// SupportsEvent returns true for start and issue events.
func (jw *JUnitWriter) SupportsEvent(eventType events.EventType) bool {
	return eventType == events.EventTypeStart || eventType == events.EventTypeIssue
}
