package events

import "github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"

// IssueEvent carries one cppcheck issue in input order.
type IssueEvent struct {
	BaseEvent
	Issue cppcheck.Issue `json:"issue"`

	// File is the issue path relative to the configured path base.
	File        string  `json:"file"`
	Fingerprint string  `json:"fingerprint"`
	Outcome     Outcome `json:"outcome"`
	Suppressed  bool    `json:"suppressed,omitzero"`
}

// Failed reports whether the issue fails the JUnit document.
func (e *IssueEvent) Failed() bool {
	return e.Outcome == OutcomeFailed
}
