// Package writers provides output writers for various formats.
package writers

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/jsonutil"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Writer = (*SARIFWriter)(nil)

const (
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	sarifVersion = "2.1.0"

	// sarifFingerprintKey names the partial fingerprint; GitHub code scanning
	// uses it to track alerts across commits.
	sarifFingerprintKey = "cppcheckFingerprint/v1"

	cppcheckURI = "https://cppcheck.sourceforge.io/"
)

// SARIFWriter writes the run in SARIF 2.1.0 format for the GitHub Security
// tab, GitLab SAST and Azure DevOps.
// Results are buffered and written as a complete SARIF document on Close.
type SARIFWriter struct {
	w       io.Writer
	mu      sync.Mutex
	opts    SARIFOptions
	runID   string
	version string
	results []sarifResult
	rules   map[string]sarifRule
}

// SARIFOptions configures the SARIF writer.
type SARIFOptions struct {
	// IncludePassed also emits non-failing issues with level "note".
	// By default only failing and suppressed issues are reported.
	IncludePassed bool
}

// SARIF 2.1.0 structures.

type sarifDocument struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool               `json:"tool"`
	AutomationDetails *sarifAutomationDetails `json:"automationDetails,omitempty"`
	Results           []sarifResult           `json:"results"`
	ColumnKind        string                  `json:"columnKind,omitempty"`
}

type sarifAutomationDetails struct {
	ID   string `json:"id,omitempty"`
	GUID string `json:"guid,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	ShortDescription *sarifMessage       `json:"shortDescription,omitempty"`
	DefaultConfig    *sarifConfiguration `json:"defaultConfiguration,omitempty"`
	Properties       map[string]any      `json:"properties,omitempty"`
}

type sarifConfiguration struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID              string             `json:"ruleId"`
	Level               string             `json:"level"`
	Message             sarifMessage       `json:"message"`
	Locations           []sarifLocation    `json:"locations,omitempty"`
	RelatedLocations    []sarifLocation    `json:"relatedLocations,omitempty"`
	PartialFingerprints map[string]string  `json:"partialFingerprints,omitempty"`
	Suppressions        []sarifSuppression `json:"suppressions,omitempty"`
}

type sarifSuppression struct {
	Kind          string `json:"kind"`
	Justification string `json:"justification,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	ID               int                    `json:"id,omitzero"`
	PhysicalLocation *sarifPhysicalLocation `json:"physicalLocation,omitempty"`
	Message          *sarifMessage          `json:"message,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitzero"`
	StartColumn int `json:"startColumn,omitzero"`
}

// NewSARIFWriter creates a new SARIF 2.1.0 writer.
// The writer buffers all results and writes a complete SARIF document on Close.
// The writer is safe for concurrent use.
func NewSARIFWriter(w io.Writer, opts SARIFOptions) *SARIFWriter {
	return &SARIFWriter{
		w:     w,
		opts:  opts,
		rules: make(map[string]sarifRule),
	}
}

// severityToLevel maps cppcheck severity to SARIF level.
// Delegates to finding.Severity.ToSARIF for canonical mapping.
func severityToLevel(severity events.Severity) string {
	return severity.ToSARIF()
}

func physicalLocation(file string, line, column int) *sarifPhysicalLocation {
	loc := &sarifPhysicalLocation{ArtifactLocation: sarifArtifactLocation{URI: file}}
	if line > 0 {
		loc.Region = &sarifRegion{StartLine: line, StartColumn: column}
	}
	return loc
}

// Write converts issue events to SARIF results.
func (sw *SARIFWriter) Write(event events.Event) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	switch e := event.(type) {
	case *events.StartEvent:
		sw.runID = e.RunID()
		sw.version = e.CppcheckVersion
		return nil
	case *events.IssueEvent:
		sw.addIssue(e)
	}
	return nil
}

func (sw *SARIFWriter) addIssue(e *events.IssueEvent) {
	if e.Outcome == events.OutcomePassed && !sw.opts.IncludePassed {
		return
	}
	issue := e.Issue

	if _, exists := sw.rules[issue.ID]; !exists {
		props := map[string]any{
			"tags": []string{defaults.AnalyzerName, issue.Severity.String()},
		}
		if issue.CWE > 0 {
			props["cwe"] = fmt.Sprintf("CWE-%d", issue.CWE)
			props["security-severity"] = issue.Severity.ToSARIFScore()
		}
		sw.rules[issue.ID] = sarifRule{
			ID:               issue.ID,
			ShortDescription: &sarifMessage{Text: issue.Message},
			DefaultConfig:    &sarifConfiguration{Level: severityToLevel(issue.Severity)},
			Properties:       props,
		}
	}

	level := severityToLevel(issue.Severity)
	if e.Outcome == events.OutcomePassed {
		level = "note"
	}

	result := sarifResult{
		RuleID:  issue.ID,
		Level:   level,
		Message: sarifMessage{Text: issue.Verbose},
		PartialFingerprints: map[string]string{
			sarifFingerprintKey: e.Fingerprint,
		},
	}
	if result.Message.Text == "" {
		result.Message.Text = issue.Message
	}
	if e.File != "" {
		result.Locations = []sarifLocation{{PhysicalLocation: physicalLocation(e.File, issue.Line, issue.Column)}}
	}
	if len(issue.Locations) > 1 {
		for i, loc := range issue.Locations[1:] {
			related := sarifLocation{
				ID:               i + 1,
				PhysicalLocation: physicalLocation(loc.File, loc.Line, loc.Column),
			}
			if loc.Info != "" {
				related.Message = &sarifMessage{Text: loc.Info}
			}
			result.RelatedLocations = append(result.RelatedLocations, related)
		}
	}
	if e.Suppressed {
		result.Suppressions = []sarifSuppression{{Kind: "external", Justification: "baseline"}}
	}

	sw.results = append(sw.results, result)
}

// Flush is a no-op for SARIF writer.
// All results are written as a single document on Close.
func (sw *SARIFWriter) Flush() error { return nil }

// Close writes all buffered results as a complete SARIF 2.1.0 document.
// If the underlying writer implements io.Closer, it will be closed.
func (sw *SARIFWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	// Sort rules by ID for deterministic output.
	rules := make([]sarifRule, 0, len(sw.rules))
	for _, rule := range sw.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].ID < rules[j].ID
	})

	// Ensure results is never nil so JSON encodes as [] not null per SARIF spec.
	results := sw.results
	if results == nil {
		results = make([]sarifResult, 0)
	}

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:           defaults.AnalyzerName,
				Version:        sw.version,
				InformationURI: cppcheckURI,
				Rules:          rules,
			},
		},
		Results:    results,
		ColumnKind: "utf16CodeUnits",
	}
	if sw.runID != "" {
		run.AutomationDetails = &sarifAutomationDetails{
			ID:   defaults.ToolName + "/",
			GUID: sw.runID,
		}
	}

	doc := sarifDocument{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []sarifRun{run},
	}

	encoder := jsonutil.NewStreamEncoder(sw.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("sarif: encode: %w", err)
	}

	if closer, ok := sw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SupportsEvent returns true for start and issue events.
func (sw *SARIFWriter) SupportsEvent(eventType events.EventType) bool {
	return eventType == events.EventTypeStart || eventType == events.EventTypeIssue
}
