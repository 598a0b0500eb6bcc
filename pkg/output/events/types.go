// Package events defines the event types emitted while converting a cppcheck
// report. All events are designed for JSON serialization and CI/CD integration.
//
// BaseEvent is embedded in every concrete event (StartEvent, IssueEvent,
// SummaryEvent, CompleteEvent).
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/junit"
)

// EventType represents the type of output event.
type EventType string

const (
	// EventTypeStart indicates a report was parsed and conversion began.
	EventTypeStart EventType = "start"
	// EventTypeIssue carries a single cppcheck issue.
	EventTypeIssue EventType = "issue"
	// EventTypeSummary carries the aggregate counts.
	EventTypeSummary EventType = "summary"
	// EventTypeComplete indicates the run finished.
	EventTypeComplete EventType = "complete"
)

// Outcome is how an issue is represented in the JUnit document.
type Outcome = junit.Outcome

const (
	OutcomeFailed     = junit.OutcomeFailed
	OutcomePassed     = junit.OutcomePassed
	OutcomeSuppressed = junit.OutcomeSuppressed
)

// Severity is a type alias for finding.Severity.
type Severity = finding.Severity

// Event is the base interface for all events.
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	RunID() string
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Type EventType `json:"type"`
	Time time.Time `json:"timestamp"`
	Run  string    `json:"run_id"`
}

// NewBase returns a BaseEvent stamped with the current time.
func NewBase(t EventType, runID string) BaseEvent {
	return BaseEvent{Type: t, Time: time.Now(), Run: runID}
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// EventType returns the type of this event.
func (e BaseEvent) EventType() EventType { return e.Type }

// Timestamp returns when this event occurred.
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// RunID returns the identifier of the conversion run that produced this event.
func (e BaseEvent) RunID() string { return e.Run }
