// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*PDFWriter)(nil)

// pdfSeverityColors maps severities to RGB text colors.
var pdfSeverityColors = map[string][]int{
	"error":       {220, 38, 38},
	"warning":     {234, 88, 12},
	"portability": {202, 138, 4},
	"performance": {202, 138, 4},
	"style":       {37, 99, 235},
	"information": {100, 116, 139},
	"debug":       {148, 163, 184},
}

// PDFConfig configures the PDF report writer.
type PDFConfig struct {
	// Title is the report title (default: "Cppcheck report").
	Title string

	// Author is written to the document metadata.
	Author string

	// PageSize is "A4" (default) or "Letter".
	PageSize string

	// Orientation is "P" (default) or "L".
	Orientation string
}

// PDFWriter renders the run as a printable PDF report: a summary page
// followed by a table of every issue.
// It buffers all events and renders the document on Close.
type PDFWriter struct {
	w       io.Writer
	mu      sync.Mutex
	config  PDFConfig
	start   *events.StartEvent
	issues  []*events.IssueEvent
	summary *events.SummaryEvent

	// noCompress disables stream compression so tests can search the raw bytes.
	noCompress bool
}

// NewPDFWriter creates a new PDF report writer.
func NewPDFWriter(w io.Writer, config PDFConfig) *PDFWriter {
	if config.Title == "" {
		config.Title = "Cppcheck report"
	}
	if config.PageSize == "" {
		config.PageSize = "A4"
	}
	if config.Orientation == "" {
		config.Orientation = "P"
	}
	return &PDFWriter{w: w, config: config}
}

// Write buffers an event for later rendering.
func (pw *PDFWriter) Write(event events.Event) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		pw.start = e
	case *events.IssueEvent:
		pw.issues = append(pw.issues, e)
	case *events.SummaryEvent:
		pw.summary = e
	}
	return nil
}

// Flush is a no-op for PDF writer.
func (pw *PDFWriter) Flush() error {
	return nil
}

// Close renders the PDF and writes it to the output.
// If the underlying writer implements io.Closer, it will be closed.
func (pw *PDFWriter) Close() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	pdf := gofpdf.New(pw.config.Orientation, "mm", pw.config.PageSize, "")
	pdf.SetCompression(!pw.noCompress)
	pdf.SetTitle(pw.config.Title, true)
	pdf.SetAuthor(pw.config.Author, true)
	pdf.SetCreator(defaults.ToolVersionString(), true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pw.addSummaryPage(pdf, tr)
	if len(pw.issues) > 0 {
		pw.addIssueTable(pdf, tr)
	}

	if err := pdf.Output(pw.w); err != nil {
		return fmt.Errorf("pdf: render: %w", err)
	}

	if closer, ok := pw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for start, issue and summary events.
func (pw *PDFWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeStart, events.EventTypeIssue, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

func (pw *PDFWriter) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(30, 41, 59)
	pdf.CellFormat(0, 10, title, "B", 1, "L", false, 0, "")
	pdf.Ln(3)
}

func (pw *PDFWriter) addSummaryPage(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(15, 23, 42)
	pdf.CellFormat(0, 12, tr(pw.config.Title), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.CellFormat(0, 6, "Generated by "+defaults.ToolVersionString(), "", 1, "L", false, 0, "")
	if pw.start != nil {
		if pw.start.Input != "" {
			pdf.CellFormat(0, 6, tr("Input: "+pw.start.Input), "", 1, "L", false, 0, "")
		}
		if pw.start.CppcheckVersion != "" {
			pdf.CellFormat(0, 6, "Cppcheck "+pw.start.CppcheckVersion, "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(6)

	pw.addSectionHeader(pdf, "Summary")

	counts := make(map[finding.Severity]int)
	failed := 0
	for _, e := range pw.issues {
		counts[e.Issue.Severity]++
		if e.Failed() {
			failed++
		}
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(30, 41, 59)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(50, 8, "Severity", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Issues", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, sev := range finding.Ordered() {
		if counts[sev] == 0 {
			continue
		}
		c := pdfSeverityColors[sev.String()]
		if c == nil {
			c = []int{128, 128, 128}
		}
		pdf.SetTextColor(c[0], c[1], c[2])
		pdf.CellFormat(50, 7, severityTitle(sev), "1", 0, "L", false, 0, "")
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(30, 7, strconv.Itoa(counts[sev]), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(15, 23, 42)
	pdf.CellFormat(50, 7, "Total", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, strconv.Itoa(len(pw.issues)), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	if failed == 0 {
		pdf.SetTextColor(22, 163, 74)
		pdf.CellFormat(0, 8, "No failing issues", "", 1, "L", false, 0, "")
	} else {
		pdf.SetTextColor(220, 38, 38)
		pdf.CellFormat(0, 8, fmt.Sprintf("%d failing issues", failed), "", 1, "L", false, 0, "")
	}

	if pw.summary != nil && pw.summary.Policy.Evaluated && !pw.summary.Policy.Passed {
		pdf.Ln(4)
		pw.addSectionHeader(pdf, "Policy violations")
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(60, 60, 60)
		for _, f := range pw.summary.Policy.Failures {
			pdf.MultiCell(0, 6, tr("- "+f), "", "L", false)
		}
	}
}

func (pw *PDFWriter) addIssueTable(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.AddPage()
	pw.addSectionHeader(pdf, "Issues")

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	widths := []float64{55, 14, 24, 35}
	msgW := pageW - left - right
	for _, w := range widths {
		msgW -= w
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(30, 41, 59)
		pdf.SetTextColor(255, 255, 255)
		for i, title := range []string{"File", "Line", "Severity", "ID"} {
			pdf.CellFormat(widths[i], 7, title, "1", 0, "L", true, 0, "")
		}
		pdf.CellFormat(msgW, 7, "Message", "1", 1, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 8)
	}
	header()

	_, pageH := pdf.GetPageSize()
	for _, e := range pw.issues {
		if pdf.GetY()+6 > pageH-20 {
			pdf.AddPage()
			header()
		}
		file := e.File
		if file == "" {
			file = defaults.ErrorCaseName
		}

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(widths[0], 6, fitText(pdf, tr(file), widths[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, strconv.Itoa(e.Issue.Line), "1", 0, "R", false, 0, "")

		c := pdfSeverityColors[e.Issue.Severity.String()]
		if c == nil {
			c = []int{128, 128, 128}
		}
		pdf.SetTextColor(c[0], c[1], c[2])
		pdf.CellFormat(widths[2], 6, severityTitle(e.Issue.Severity), "1", 0, "L", false, 0, "")

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(widths[3], 6, fitText(pdf, e.Issue.ID, widths[3]), "1", 0, "L", false, 0, "")

		msg := e.Issue.Message
		if e.Suppressed {
			msg = "[baseline] " + msg
		}
		pdf.CellFormat(msgW, 6, fitText(pdf, tr(msg), msgW), "1", 1, "L", false, 0, "")
	}
}

// fitText truncates s with "..." so it fits in a cell of width w.
func fitText(pdf *gofpdf.Fpdf, s string, w float64) string {
	const padding = 2
	if pdf.GetStringWidth(s) <= w-padding {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > w-padding {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
