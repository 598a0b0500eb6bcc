// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*MarkdownWriter)(nil)

// MarkdownConfig configures the Markdown report writer.
type MarkdownConfig struct {
	// Title is the report title (default: "Cppcheck report").
	Title string

	// UseEmojis prefixes outcomes with status emojis.
	UseEmojis bool

	// CollapseSections wraps each file in a <details> block.
	CollapseSections bool
}

// MarkdownWriter writes the run as a Markdown report suitable for a GitHub
// job summary or merge request comment.
// It buffers all events and renders the document on Close.
// The writer is safe for concurrent use.
type MarkdownWriter struct {
	w       io.Writer
	mu      sync.Mutex
	config  MarkdownConfig
	input   string
	issues  []*events.IssueEvent
	summary *events.SummaryEvent
}

// NewMarkdownWriter creates a new Markdown report writer.
func NewMarkdownWriter(w io.Writer, config MarkdownConfig) *MarkdownWriter {
	if config.Title == "" {
		config.Title = "Cppcheck report"
	}
	return &MarkdownWriter{
		w:      w,
		config: config,
	}
}

// Write buffers an event for later Markdown output.
func (mw *MarkdownWriter) Write(event events.Event) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		mw.input = e.Input
	case *events.IssueEvent:
		mw.issues = append(mw.issues, e)
	case *events.SummaryEvent:
		mw.summary = e
	}
	return nil
}

// Flush is a no-op for Markdown writer.
// All events are written as a single Markdown document on Close.
func (mw *MarkdownWriter) Flush() error {
	return nil
}

// Close renders and writes the complete Markdown report.
func (mw *MarkdownWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	sb := &strings.Builder{}
	mw.renderMarkdown(sb)

	if _, err := io.WriteString(mw.w, sb.String()); err != nil {
		return fmt.Errorf("markdown: write: %w", err)
	}

	if closer, ok := mw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for start, issue and summary events.
func (mw *MarkdownWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeStart, events.EventTypeIssue, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// severityTitle returns "Error", "Warning" and so on.
func severityTitle(s finding.Severity) string {
	return cases.Title(language.English).String(string(s))
}

func (mw *MarkdownWriter) outcomeLabel(o events.Outcome) string {
	if !mw.config.UseEmojis {
		return string(o)
	}
	switch o {
	case events.OutcomeFailed:
		return "❌ failed"
	case events.OutcomeSuppressed:
		return "⏭️ suppressed"
	default:
		return "ℹ️ passed"
	}
}

// escapeCell makes s safe inside a Markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}

type markdownFile struct {
	name   string
	issues []*events.IssueEvent
	failed int
}

func (mw *MarkdownWriter) groupFiles() []*markdownFile {
	var files []*markdownFile
	index := make(map[string]*markdownFile)
	for _, e := range mw.issues {
		f, ok := index[e.File]
		if !ok {
			f = &markdownFile{name: e.File}
			if f.name == "" {
				f.name = defaults.ErrorCaseName
			}
			index[e.File] = f
			files = append(files, f)
		}
		f.issues = append(f.issues, e)
		if e.Failed() {
			f.failed++
		}
	}
	return files
}

func (mw *MarkdownWriter) renderMarkdown(sb *strings.Builder) {
	fmt.Fprintf(sb, "# %s\n\n", mw.config.Title)
	if mw.input != "" {
		fmt.Fprintf(sb, "*Generated by %s from `%s`*\n\n", defaults.ToolVersionString(), mw.input)
	} else {
		fmt.Fprintf(sb, "*Generated by %s*\n\n", defaults.ToolVersionString())
	}

	counts := make(map[finding.Severity]int)
	failed := 0
	for _, e := range mw.issues {
		counts[e.Issue.Severity]++
		if e.Failed() {
			failed++
		}
	}
	files := mw.groupFiles()

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Severity | Issues |\n")
	sb.WriteString("|----------|-------:|\n")
	for _, sev := range finding.Ordered() {
		if counts[sev] == 0 {
			continue
		}
		fmt.Fprintf(sb, "| %s | %d |\n", severityTitle(sev), counts[sev])
	}
	fmt.Fprintf(sb, "| **Total** | **%d** |\n\n", len(mw.issues))

	switch {
	case failed == 0:
		sb.WriteString("**Result:** no failing issues\n\n")
	default:
		failingFiles := 0
		for _, f := range files {
			if f.failed > 0 {
				failingFiles++
			}
		}
		fmt.Fprintf(sb, "**Result:** %d failing issues in %d files\n\n", failed, failingFiles)
	}

	if mw.summary != nil && mw.summary.Policy.Evaluated && !mw.summary.Policy.Passed {
		sb.WriteString("### Policy violations\n\n")
		for _, f := range mw.summary.Policy.Failures {
			fmt.Fprintf(sb, "- %s\n", f)
		}
		sb.WriteString("\n")
	}

	if len(files) == 0 {
		return
	}

	sb.WriteString("## Findings\n\n")
	for _, f := range files {
		if mw.config.CollapseSections {
			fmt.Fprintf(sb, "<details>\n<summary><code>%s</code> (%d)</summary>\n\n", f.name, len(f.issues))
		} else {
			fmt.Fprintf(sb, "### `%s`\n\n", f.name)
		}

		sb.WriteString("| Line | Severity | ID | Message | Status |\n")
		sb.WriteString("|-----:|----------|----|---------|--------|\n")
		for _, e := range f.issues {
			fmt.Fprintf(sb, "| %d | %s | `%s` | %s | %s |\n",
				e.Issue.Line,
				severityTitle(e.Issue.Severity),
				e.Issue.ID,
				escapeCell(e.Issue.Message),
				mw.outcomeLabel(e.Outcome))
		}
		sb.WriteString("\n")

		if mw.config.CollapseSections {
			sb.WriteString("</details>\n\n")
		}
	}
}
