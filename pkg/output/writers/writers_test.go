package writers

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/testfixtures"
)

const testRunID = testfixtures.RunID

// closingBuffer records whether Close was called.
type closingBuffer struct {
	bytes.Buffer
	closed bool
}

func (c *closingBuffer) Close() error {
	c.closed = true
	return nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func testIssue(idx int, id string, sev finding.Severity, file string, line int, msg string) cppcheck.Issue {
	return testfixtures.MakeIssue(idx, id, sev, file, line, msg)
}

func issueEvent(is cppcheck.Issue, outcome events.Outcome) *events.IssueEvent {
	return testfixtures.MakeIssueEvent(testRunID, is, outcome)
}

func sampleEvents() []events.Event {
	return testfixtures.SampleEvents(testRunID)
}

// feed writes the events a writer supports, the way the dispatcher does, and closes it.
func feed(t *testing.T, w dispatcher.Writer, evs []events.Event) {
	t.Helper()
	for _, e := range evs {
		if !w.SupportsEvent(e.EventType()) {
			continue
		}
		require.NoError(t, w.Write(e))
	}
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())
}
