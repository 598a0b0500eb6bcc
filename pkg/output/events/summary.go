package events

import "time"

// SummaryEvent is the aggregate view of a run. It is emitted after every
// IssueEvent and before the CompleteEvent.
type SummaryEvent struct {
	BaseEvent
	Version         string         `json:"version"`
	Input           string         `json:"input"`
	CppcheckVersion string         `json:"cppcheck_version,omitempty"`
	Totals          SummaryTotals  `json:"totals"`
	BySeverity      map[string]int `json:"by_severity"`
	Files           []FileStats    `json:"files,omitempty"`
	JUnit           JUnitTotals    `json:"junit"`
	Policy          PolicyResult   `json:"policy"`
	Timing          SummaryTiming  `json:"timing"`
	ExitCode        int            `json:"exit_code"`
	ExitReason      string         `json:"exit_reason"`
}

// SummaryTotals counts issues by outcome.
type SummaryTotals struct {
	Issues     int `json:"issues"`
	Defects    int `json:"defects"`
	Failed     int `json:"failed"`
	Passed     int `json:"passed"`
	Suppressed int `json:"suppressed"`
}

// FileStats are per-file counts in first-appearance order.
type FileStats struct {
	File   string `json:"file"`
	Issues int    `json:"issues"`
	Failed int    `json:"failed"`
}

// JUnitTotals mirror the counters of the written JUnit document.
type JUnitTotals struct {
	Tests    int `json:"tests"`
	Failures int `json:"failures"`
	Errors   int `json:"errors"`
	Skipped  int `json:"skipped"`
}

// PolicyResult is the outcome of the optional policy evaluation.
type PolicyResult struct {
	Evaluated bool     `json:"evaluated"`
	Passed    bool     `json:"passed"`
	Failures  []string `json:"failures,omitempty"`
}

// SummaryTiming contains timing information for the run.
type SummaryTiming struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationSec float64   `json:"duration_sec"`
}
