// Package writers provides output writers for various formats.
package writers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*CSVWriter)(nil)

// UTF-8 BOM for Excel compatibility.
const utf8BOM = "\xEF\xBB\xBF"

// CSVWriter writes one row per issue, for spreadsheets and database imports.
//
// Features:
//   - Excel compatibility with UTF-8 BOM
//   - CSV injection prevention (formula sanitization)
//   - Summary rows at the end
type CSVWriter struct {
	w             io.Writer
	csvWriter     *csv.Writer
	mu            sync.Mutex
	opts          CSVOptions
	headerWritten bool
	summary       *events.SummaryEvent
}

// CSVOptions configures the CSV writer behavior.
type CSVOptions struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool

	// Delimiter sets the field delimiter character.
	// Default is comma when zero value.
	Delimiter rune

	// ExcelCompatible adds UTF-8 BOM for Excel compatibility.
	ExcelCompatible bool

	// SanitizeFormulas prevents CSV injection by prefixing dangerous characters.
	// Dangerous characters: = + - @ TAB CR
	SanitizeFormulas bool

	// TruncateAt limits field length (0 = no limit).
	TruncateAt int
}

var csvColumns = []string{
	"index",
	"id",
	"severity",
	"outcome",
	"file",
	"line",
	"column",
	"cwe",
	"inconclusive",
	"message",
	"fingerprint",
}

// sanitizeForCSV prevents CSV injection by prefixing dangerous characters.
func sanitizeForCSV(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// truncateField truncates a field to the specified length in runes.
func truncateField(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes[:maxLen])
}

// NewCSVWriter creates a new CSV writer.
// If IncludeHeader is true, a header row is written immediately.
// The writer is safe for concurrent use.
func NewCSVWriter(w io.Writer, opts CSVOptions) *CSVWriter {
	if opts.ExcelCompatible {
		_, _ = w.Write([]byte(utf8BOM))
	}

	csvWriter := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		csvWriter.Comma = opts.Delimiter
	}

	cw := &CSVWriter{
		w:         w,
		csvWriter: csvWriter,
		opts:      opts,
	}

	if opts.IncludeHeader {
		_ = csvWriter.Write(csvColumns)
		csvWriter.Flush()
		cw.headerWritten = true
	}

	return cw
}

// Write writes an issue event as a CSV row.
// Summary events are captured for output on Close().
func (cw *CSVWriter) Write(event events.Event) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	switch e := event.(type) {
	case *events.IssueEvent:
		return cw.writeIssue(e)
	case *events.SummaryEvent:
		cw.summary = e
		return nil
	default:
		return nil
	}
}

func (cw *CSVWriter) writeIssue(e *events.IssueEvent) error {
	issue := e.Issue

	cwe := ""
	if issue.CWE > 0 {
		cwe = fmt.Sprintf("CWE-%d", issue.CWE)
	}

	row := []string{
		strconv.Itoa(issue.Index),
		issue.ID,
		issue.Severity.String(),
		string(e.Outcome),
		e.File,
		strconv.Itoa(issue.Line),
		strconv.Itoa(issue.Column),
		cwe,
		strconv.FormatBool(issue.Inconclusive),
		issue.Message,
		e.Fingerprint,
	}

	for i, field := range row {
		if cw.opts.SanitizeFormulas {
			field = sanitizeForCSV(field)
		}
		if cw.opts.TruncateAt > 0 {
			field = truncateField(field, cw.opts.TruncateAt)
		}
		row[i] = field
	}

	return cw.csvWriter.Write(row)
}

// Flush flushes the CSV writer's internal buffer.
func (cw *CSVWriter) Flush() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.csvWriter.Flush()
	return cw.csvWriter.Error()
}

// Close flushes the CSV writer and writes summary if available.
// If the underlying writer implements io.Closer, it will be closed.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.summary != nil {
		cw.writeSummaryLocked()
	}

	cw.csvWriter.Flush()
	if err := cw.csvWriter.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}

	if closer, ok := cw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// writeSummaryLocked writes a summary section at the end of the CSV.
// Must be called with mu held.
func (cw *CSVWriter) writeSummaryLocked() {
	t := cw.summary.Totals
	_ = cw.csvWriter.Write([]string{})
	_ = cw.csvWriter.Write([]string{"# SUMMARY"})
	_ = cw.csvWriter.Write([]string{"Issues", strconv.Itoa(t.Issues)})
	_ = cw.csvWriter.Write([]string{"Defects", strconv.Itoa(t.Defects)})
	_ = cw.csvWriter.Write([]string{"Failed", strconv.Itoa(t.Failed)})
	_ = cw.csvWriter.Write([]string{"Suppressed", strconv.Itoa(t.Suppressed)})
}

// SupportsEvent returns true for issue and summary events.
func (cw *CSVWriter) SupportsEvent(eventType events.EventType) bool {
	return eventType == events.EventTypeIssue || eventType == events.EventTypeSummary
}
