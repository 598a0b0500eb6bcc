package testfixtures

import (
	"github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// RunID is a fixed run ID so outputs are comparable across tests.
const RunID = "6f1c1d6e-3b0a-4a8e-9a57-2f8e1f0c9b11"

// CppcheckVersion is the analyzer version recorded in the sample report.
const CppcheckVersion = "2.13.0"

// SuppressedIndex is the index of the baseline-suppressed sample issue.
const SuppressedIndex = 4

// ============================================================================
// ISSUE GENERATORS
// ============================================================================

// MakeIssue creates an issue with one location (none when file is empty).
// This is the canonical way to create issues in output tests.
func MakeIssue(idx int, id string, sev finding.Severity, file string, line int, msg string) cppcheck.Issue {
	is := cppcheck.Issue{
		Index:    idx,
		ID:       id,
		Severity: sev,
		File:     file,
		Line:     line,
		Message:  msg,
		Verbose:  msg,
	}
	if file != "" {
		is.Locations = []cppcheck.Location{{File: file, Line: line}}
	}
	return is
}

// SampleIssues returns the five sample issues in input order.
func SampleIssues() []cppcheck.Issue {
	null := MakeIssue(0, "nullPointer", finding.Error, "src/a.c", 10, "Null pointer dereference")
	null.CWE = 476
	null.Locations = append(null.Locations, cppcheck.Location{File: "src/a.c", Line: 8, Info: "Assignment 'p=NULL'"})

	return []cppcheck.Issue{
		null,
		MakeIssue(1, "unusedVariable", finding.Style, "src/b.c", 3, "Unused variable: x"),
		MakeIssue(2, "memleak", finding.Error, "src/a.c", 22, "Memory leak: buf"),
		MakeIssue(3, "missingIncludeSystem", finding.Information, "", 0, "Include file not found"),
		MakeIssue(SuppressedIndex, "knownConditionTrueFalse", finding.Style, "src/c.c", 7, "Condition is always true"),
	}
}

// SampleReport wraps SampleIssues in a version 2 report.
func SampleReport() *cppcheck.Report {
	return &cppcheck.Report{
		FormatVersion:   2,
		CppcheckVersion: CppcheckVersion,
		Issues:          SampleIssues(),
	}
}

// ============================================================================
// EVENT GENERATORS
// ============================================================================

// MakeIssueEvent wraps an issue in an IssueEvent with the given outcome.
func MakeIssueEvent(runID string, is cppcheck.Issue, outcome events.Outcome) *events.IssueEvent {
	return &events.IssueEvent{
		BaseEvent:   events.NewBase(events.EventTypeIssue, runID),
		Issue:       is,
		File:        is.File,
		Fingerprint: is.Fingerprint(),
		Outcome:     outcome,
		Suppressed:  outcome == events.OutcomeSuppressed,
	}
}

// SampleOutcomes maps the sample issues to outcomes under default options
// with the suppressed sample in the baseline.
func SampleOutcomes() []events.Outcome {
	return []events.Outcome{
		events.OutcomeFailed,
		events.OutcomeFailed,
		events.OutcomeFailed,
		events.OutcomePassed,
		events.OutcomeSuppressed,
	}
}

// SampleEvents returns the start event, one issue event per sample issue
// and a summary event, in dispatch order.
func SampleEvents(runID string) []events.Event {
	out := []events.Event{&events.StartEvent{
		BaseEvent:       events.NewBase(events.EventTypeStart, runID),
		Input:           "cppcheck.xml",
		FormatVersion:   2,
		CppcheckVersion: CppcheckVersion,
		TotalIssues:     len(SampleIssues()),
	}}

	outcomes := SampleOutcomes()
	for i, is := range SampleIssues() {
		out = append(out, MakeIssueEvent(runID, is, outcomes[i]))
	}

	out = append(out, &events.SummaryEvent{
		BaseEvent:       events.NewBase(events.EventTypeSummary, runID),
		Input:           "cppcheck.xml",
		CppcheckVersion: CppcheckVersion,
		Totals:          events.SummaryTotals{Issues: 5, Defects: 4, Failed: 3, Passed: 1, Suppressed: 1},
		BySeverity:      map[string]int{"error": 2, "style": 2, "information": 1},
		Files: []events.FileStats{
			{File: "src/a.c", Issues: 2, Failed: 2},
			{File: "src/b.c", Issues: 1, Failed: 1},
			{File: "", Issues: 1},
			{File: "src/c.c", Issues: 1},
		},
		JUnit:    events.JUnitTotals{Tests: 4, Failures: 3, Skipped: 1},
		ExitCode: 1,
	})
	return out
}
