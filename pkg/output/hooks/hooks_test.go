package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

const runID = "0b8d3d3c-6a57-4c43-9c39-3fd1a5f8c6a2"

func runEvents(exitCode int) []events.Event {
	issue := func(idx int, id string, sev finding.Severity, file string, outcome events.Outcome) *events.IssueEvent {
		is := cppcheck.Issue{Index: idx, ID: id, Severity: sev, File: file, Line: idx + 1, Message: id}
		return &events.IssueEvent{
			BaseEvent:   events.NewBase(events.EventTypeIssue, runID),
			Issue:       is,
			File:        file,
			Fingerprint: is.Fingerprint(),
			Outcome:     outcome,
			Suppressed:  outcome == events.OutcomeSuppressed,
		}
	}

	completed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	summary := &events.SummaryEvent{
		BaseEvent: events.NewBase(events.EventTypeSummary, runID),
		Totals:    events.SummaryTotals{Issues: 3, Defects: 2, Failed: 1, Passed: 1, Suppressed: 1},
		Files:     []events.FileStats{{File: "a.c", Issues: 2, Failed: 1}, {File: "b.c", Issues: 1}},
		JUnit:     events.JUnitTotals{Tests: 2, Failures: 1},
		Timing:    events.SummaryTiming{CompletedAt: completed, DurationSec: 0.25},
		ExitCode:  exitCode,
	}
	return []events.Event{
		&events.StartEvent{
			BaseEvent:       events.NewBase(events.EventTypeStart, runID),
			Input:           "report.xml",
			FormatVersion:   2,
			CppcheckVersion: "2.13.0",
			TotalIssues:     3,
		},
		issue(0, "nullPointer", finding.Error, "a.c", events.OutcomeFailed),
		issue(1, "missingInclude", finding.Information, "a.c", events.OutcomePassed),
		issue(2, "unusedFunction", finding.Style, "b.c", events.OutcomeSuppressed),
		summary,
		&events.CompleteEvent{
			BaseEvent: events.NewBase(events.EventTypeComplete, runID),
			Success:   exitCode == 0,
			ExitCode:  exitCode,
			Summary:   summary,
		},
	}
}

func dispatchAll(t *testing.T, onEvent func(context.Context, events.Event) error, evs []events.Event) {
	t.Helper()
	for _, e := range evs {
		require.NoError(t, onEvent(context.Background(), e))
	}
}

func TestLoggerHook(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	hook := NewLoggerHook(zap.New(core))
	dispatchAll(t, hook.OnEvent, runEvents(0))

	assert.Equal(t, 3, logs.FilterMessage("issue").Len())

	summaries := logs.FilterMessage("conversion summary").All()
	require.Len(t, summaries, 1)
	assert.Equal(t, zapcore.InfoLevel, summaries[0].Level)
	fields := summaries[0].ContextMap()
	assert.Equal(t, int64(3), fields["issues"])
	assert.Equal(t, runID, fields["run_id"])

	first := logs.FilterMessage("issue").All()[0].ContextMap()
	assert.Equal(t, "nullPointer", first["id"])
	assert.Equal(t, "error", first["severity"])
}

func TestLoggerHook_PolicyFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	hook := NewLoggerHook(zap.New(core))

	summary := &events.SummaryEvent{
		BaseEvent: events.NewBase(events.EventTypeSummary, runID),
		Policy:    events.PolicyResult{Evaluated: true, Failures: []string{"too many errors"}},
	}
	require.NoError(t, hook.OnEvent(context.Background(), summary))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "policy failed", logs.All()[0].Message)
}

func TestLoggerHook_NilLogger(t *testing.T) {
	hook := NewLoggerHook(nil)
	dispatchAll(t, hook.OnEvent, runEvents(0))
}

func TestPrometheusHook_Metrics(t *testing.T) {
	hook, err := NewPrometheusHook(PrometheusOptions{})
	require.NoError(t, err)
	dispatchAll(t, hook.OnEvent, runEvents(1))

	assert.Equal(t, 1.0, testutil.ToFloat64(hook.issuesTotal.WithLabelValues("error", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(hook.issuesTotal.WithLabelValues("style", "suppressed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(hook.files))
	assert.Equal(t, 1.0, testutil.ToFloat64(hook.exitCode))
	assert.Equal(t, 1.0, testutil.ToFloat64(hook.policyPassed))

	expected := `
# HELP cppcheck_junit_junit_testcases JUnit testcases written, by status
# TYPE cppcheck_junit_junit_testcases gauge
cppcheck_junit_junit_testcases{status="error"} 0
cppcheck_junit_junit_testcases{status="failure"} 1
cppcheck_junit_junit_testcases{status="skipped"} 0
cppcheck_junit_junit_testcases{status="total"} 2
`
	require.NoError(t, testutil.GatherAndCompare(hook.Registry(), strings.NewReader(expected), "cppcheck_junit_junit_testcases"))
}

func TestPrometheusHook_Textfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cppcheck.prom")
	hook, err := NewPrometheusHook(PrometheusOptions{
		TextfilePath: path,
		ConstLabels:  map[string]string{"project": "core"},
	})
	require.NoError(t, err)
	dispatchAll(t, hook.OnEvent, runEvents(0))
	require.NoError(t, hook.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `cppcheck_junit_issues_total{outcome="failed",project="core",severity="error"} 1`)
	assert.Contains(t, out, `cppcheck_junit_last_run_timestamp_seconds{project="core"} 1.7092944e+09`)
}

func TestPrometheusHook_CloseWithoutComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.prom")
	hook, err := NewPrometheusHook(PrometheusOptions{TextfilePath: path})
	require.NoError(t, err)

	evs := runEvents(0)
	dispatchAll(t, hook.OnEvent, evs[:2])
	require.NoError(t, hook.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestPrometheusHook_AbortWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aborted.prom")
	hook, err := NewPrometheusHook(PrometheusOptions{TextfilePath: path})
	require.NoError(t, err)

	evs := runEvents(0)
	dispatchAll(t, hook.OnEvent, evs[:2])
	require.NoError(t, hook.Abort())
	require.NoError(t, hook.Close())

	assert.NoFileExists(t, path)
}

func newRecordingHook() (*OTelHook, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return NewOTelHook(OTelOptions{TracerProvider: tp}), sr
}

func TestOTelHook_Span(t *testing.T) {
	hook, sr := newRecordingHook()
	dispatchAll(t, hook.OnEvent, runEvents(0))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "cppcheck_junit.report", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)

	var names []string
	for _, ev := range span.Events() {
		names = append(names, ev.Name)
	}
	// The passing issue gets no span event.
	assert.Equal(t, []string{"issue", "issue", "completed"}, names)

	attrs := make(map[string]any)
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "report.xml", attrs["input"])
	assert.Equal(t, int64(1), attrs["totals.failed"])
	assert.Equal(t, int64(2), attrs["junit.tests"])
}

func TestOTelHook_FailedRun(t *testing.T) {
	hook, sr := newRecordingHook()
	dispatchAll(t, hook.OnEvent, runEvents(3))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestOTelHook_CloseEndsOpenSpan(t *testing.T) {
	hook, sr := newRecordingHook()
	evs := runEvents(0)
	dispatchAll(t, hook.OnEvent, evs[:2])
	require.Empty(t, sr.Ended())

	require.NoError(t, hook.Close())
	require.Len(t, sr.Ended(), 1)
	assert.Equal(t, codes.Error, sr.Ended()[0].Status().Code)

	// Events after Close are ignored.
	require.NoError(t, hook.OnEvent(context.Background(), evs[0]))
	require.NoError(t, hook.Close())
	assert.Len(t, sr.Ended(), 1)
}

func TestEventTypes(t *testing.T) {
	prom, err := NewPrometheusHook(PrometheusOptions{})
	require.NoError(t, err)

	assert.Contains(t, NewLoggerHook(nil).EventTypes(), events.EventTypeIssue)
	assert.Contains(t, prom.EventTypes(), events.EventTypeComplete)
	assert.Len(t, NewOTelHook(OTelOptions{}).EventTypes(), 4)
}
