// Package writers provides output writers for various formats.
package writers

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/jsonutil"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*TemplateWriter)(nil)

// TemplateConfig configures the template writer.
type TemplateConfig struct {
	// TemplatePath is the path to a custom template file.
	TemplatePath string

	// TemplateString is an inline template string (alternative to TemplatePath).
	TemplateString string

	// BuiltIn is the name of a built-in template: "text-summary" or "github-annotations".
	BuiltIn string
}

// builtInTemplates contains pre-defined templates for common output formats.
var builtInTemplates = map[string]string{
	"text-summary": `{{ .Tool }} summary
{{ repeat (len (printf "%s summary" .Tool)) "=" }}
Input: {{ .Input | default "-" }}
{{- if .CppcheckVersion }}
Cppcheck: {{ .CppcheckVersion }}
{{- end }}

Issues: {{ .Total }} ({{ .Failed }} failing, {{ .Suppressed }} suppressed)
{{- range $sev := .Severities }}
  {{ $sev | title }}: {{ index $.SeverityCounts $sev }}
{{- end }}
{{ if .Files }}
Files:
{{- range .Files }}
  {{ .Name }}: {{ .Issues }} issues, {{ .Failed }} failing
{{- end }}
{{ end -}}
Exit code: {{ .ExitCode }}{{ if .ExitReason }} ({{ .ExitReason }}){{ end }}
`,

	"github-annotations": `{{- range .Issues }}
{{- if ne (toString .Outcome) "suppressed" }}
::{{ annotationLevel . }} {{ if .File }}file={{ ghProperty .File }},line={{ .Issue.Line }},{{ end }}title={{ ghProperty .Issue.ID }}::{{ ghMessage (printf "(%s) %s" .Issue.Severity .Issue.Message) }}
{{- end }}
{{- end }}
`,
}

// BuiltInTemplateNames returns the sorted names of the built-in templates.
func BuiltInTemplateNames() []string {
	names := make([]string, 0, len(builtInTemplates))
	for name := range builtInTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TemplateWriter renders the run using Go templates.
// It buffers all events in memory and renders the template on Close.
// Sprig functions and the helpers below are available in templates.
type TemplateWriter struct {
	w       io.Writer
	mu      sync.Mutex
	config  TemplateConfig
	tmpl    *template.Template
	start   *events.StartEvent
	issues  []*events.IssueEvent
	summary *events.SummaryEvent
	runID   string
}

// NewTemplateWriter creates a new template writer.
// It parses the template immediately and returns an error if the template is invalid.
func NewTemplateWriter(w io.Writer, config TemplateConfig) (*TemplateWriter, error) {
	tw := &TemplateWriter{
		w:      w,
		config: config,
	}

	if err := tw.parseTemplate(); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}

	return tw, nil
}

// parseTemplate parses the template from config (path, string, or built-in).
func (tw *TemplateWriter) parseTemplate() error {
	var templateContent string

	switch {
	case tw.config.TemplatePath != "":
		content, err := os.ReadFile(tw.config.TemplatePath)
		if err != nil {
			return fmt.Errorf("read template file: %w", err)
		}
		templateContent = string(content)

	case tw.config.TemplateString != "":
		templateContent = tw.config.TemplateString

	case tw.config.BuiltIn != "":
		content, ok := builtInTemplates[tw.config.BuiltIn]
		if !ok {
			return fmt.Errorf("unknown built-in template: %s (available: %s)",
				tw.config.BuiltIn, strings.Join(BuiltInTemplateNames(), ", "))
		}
		templateContent = content

	default:
		return fmt.Errorf("no template specified: set TemplatePath, TemplateString, or BuiltIn")
	}

	funcMap := sprig.TxtFuncMap()
	funcMap["escapeCSV"] = tmplEscapeCSV
	funcMap["escapeXML"] = tmplEscapeXML
	funcMap["json"] = tmplToJSON
	funcMap["prettyJSON"] = tmplPrettyJSON
	funcMap["cweLink"] = tmplCweLink
	funcMap["ghMessage"] = tmplGitHubMessage
	funcMap["ghProperty"] = tmplGitHubProperty
	funcMap["annotationLevel"] = tmplAnnotationLevel

	tmpl, err := template.New(defaults.ToolName).Funcs(funcMap).Parse(templateContent)
	if err != nil {
		return fmt.Errorf("parse output template: %w", err)
	}

	tw.tmpl = tmpl
	return nil
}

// Write buffers an event for later template rendering.
func (tw *TemplateWriter) Write(event events.Event) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.runID == "" {
		tw.runID = event.RunID()
	}

	switch e := event.(type) {
	case *events.StartEvent:
		tw.start = e
	case *events.IssueEvent:
		tw.issues = append(tw.issues, e)
	case *events.SummaryEvent:
		tw.summary = e
	}
	return nil
}

// Flush is a no-op for template writer.
// All events are rendered as a single document on Close.
func (tw *TemplateWriter) Flush() error {
	return nil
}

// Close renders the template with all buffered events and writes to the output.
func (tw *TemplateWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	var buf bytes.Buffer
	if err := tw.tmpl.Execute(&buf, tw.buildTemplateData()); err != nil {
		return fmt.Errorf("template: execute: %w", err)
	}

	if _, err := tw.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("template: write: %w", err)
	}

	if closer, ok := tw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for start, issue and summary events.
func (tw *TemplateWriter) SupportsEvent(eventType events.EventType) bool {
	switch eventType {
	case events.EventTypeStart, events.EventTypeIssue, events.EventTypeSummary:
		return true
	default:
		return false
	}
}

// tmplData holds all data available to templates.
type tmplData struct {
	RunID           string
	Tool            string
	Version         string
	Input           string
	CppcheckVersion string

	Issues []*events.IssueEvent
	Files  []tmplFile

	Total      int
	Failed     int
	Passed     int
	Suppressed int

	// Severities lists the severities present, most severe first.
	Severities     []string
	SeverityCounts map[string]int

	ExitCode   int
	ExitReason string
}

type tmplFile struct {
	Name   string
	Issues int
	Failed int
}

// buildTemplateData constructs the data object for template rendering.
func (tw *TemplateWriter) buildTemplateData() *tmplData {
	data := &tmplData{
		RunID:          tw.runID,
		Tool:           defaults.ToolName,
		Version:        defaults.Version,
		Issues:         tw.issues,
		SeverityCounts: make(map[string]int),
	}
	if tw.start != nil {
		data.Input = tw.start.Input
		data.CppcheckVersion = tw.start.CppcheckVersion
	}

	fileIndex := make(map[string]int)
	for _, e := range tw.issues {
		data.Total++
		switch e.Outcome {
		case events.OutcomeFailed:
			data.Failed++
		case events.OutcomeSuppressed:
			data.Suppressed++
		default:
			data.Passed++
		}
		data.SeverityCounts[e.Issue.Severity.String()]++

		name := e.File
		if name == "" {
			name = defaults.ErrorCaseName
		}
		i, ok := fileIndex[name]
		if !ok {
			i = len(data.Files)
			fileIndex[name] = i
			data.Files = append(data.Files, tmplFile{Name: name})
		}
		data.Files[i].Issues++
		if e.Failed() {
			data.Files[i].Failed++
		}
	}

	for _, sev := range finding.OrderedStrings() {
		if data.SeverityCounts[sev] > 0 {
			data.Severities = append(data.Severities, sev)
		}
	}

	if tw.summary != nil {
		data.ExitCode = tw.summary.ExitCode
		data.ExitReason = tw.summary.ExitReason
	}
	return data
}

// Template helper functions

// tmplEscapeCSV escapes a string for CSV output.
// It wraps the value in quotes if it contains commas, quotes, or newlines.
func tmplEscapeCSV(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, ",\"\n\r") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}

// tmplEscapeXML escapes a string for XML output.
func tmplEscapeXML(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

// tmplToJSON converts a value to a JSON string.
func tmplToJSON(v any) string {
	b, err := jsonutil.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

// tmplPrettyJSON converts a value to a formatted JSON string.
func tmplPrettyJSON(v any) string {
	b, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

// tmplCweLink returns a link to the CWE page for a given ID.
func tmplCweLink(id int) string {
	return fmt.Sprintf("https://cwe.mitre.org/data/definitions/%d.html", id)
}

// tmplGitHubMessage escapes workflow command data.
func tmplGitHubMessage(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

// tmplGitHubProperty escapes a workflow command property value.
func tmplGitHubProperty(s string) string {
	s = tmplGitHubMessage(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}

// tmplAnnotationLevel maps an issue to error, warning or notice.
func tmplAnnotationLevel(e *events.IssueEvent) string {
	switch {
	case !e.Failed():
		return "notice"
	case e.Issue.Severity == finding.Error:
		return "error"
	default:
		return "warning"
	}
}
