package hooks

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*OTelHook)(nil)

// TracerName is the instrumentation scope of spans created by this module.
const TracerName = defaults.ToolName + "/output"

// OTelHook records the run as an OpenTelemetry span with one span event per
// failing issue. The span is a child of whatever span the dispatch context
// carries. Exporting is left to the tracer provider the embedding program
// installs; with the default global provider every call is a no-op.
type OTelHook struct {
	tracer trace.Tracer

	mu       sync.Mutex
	rootSpan trace.Span
	closed   bool
}

// OTelOptions configures the OpenTelemetry hook behavior.
type OTelOptions struct {
	// TracerProvider overrides the global tracer provider.
	TracerProvider trace.TracerProvider
}

// NewOTelHook creates a tracing hook.
func NewOTelHook(opts OTelOptions) *OTelHook {
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &OTelHook{tracer: tp.Tracer(TracerName)}
}

// OnEvent processes events and records span data.
func (h *OTelHook) OnEvent(ctx context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	switch e := event.(type) {
	case *events.StartEvent:
		h.handleStart(ctx, e)
	case *events.IssueEvent:
		h.handleIssue(e)
	case *events.SummaryEvent:
		h.handleSummary(e)
	case *events.CompleteEvent:
		h.handleComplete(e)
	}
	return nil
}

// handleStart opens the report span.
func (h *OTelHook) handleStart(ctx context.Context, start *events.StartEvent) {
	if h.rootSpan != nil {
		h.rootSpan.End()
	}
	_, span := h.tracer.Start(ctx, "cppcheck_junit.report",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run_id", start.RunID()),
			attribute.String("input", start.Input),
			attribute.Int("format_version", start.FormatVersion),
			attribute.String("cppcheck_version", start.CppcheckVersion),
			attribute.Int("total_issues", start.TotalIssues),
			attribute.String("grouping", start.Config.Grouping),
			attribute.String("layout", start.Config.Layout),
		),
	)
	h.rootSpan = span
}

// handleIssue adds a span event for failing and suppressed issues.
// Passing issues are only counted in the summary.
func (h *OTelHook) handleIssue(e *events.IssueEvent) {
	if h.rootSpan == nil || e.Outcome == events.OutcomePassed {
		return
	}
	h.rootSpan.AddEvent("issue", trace.WithAttributes(
		attribute.String("id", e.Issue.ID),
		attribute.String("severity", e.Issue.Severity.String()),
		attribute.String("file", e.File),
		attribute.Int("line", e.Issue.Line),
		attribute.String("outcome", string(e.Outcome)),
		attribute.String("fingerprint", e.Fingerprint),
	))
}

// handleSummary adds summary attributes to the report span.
func (h *OTelHook) handleSummary(summary *events.SummaryEvent) {
	if h.rootSpan == nil {
		return
	}
	h.rootSpan.SetAttributes(
		attribute.Int("totals.issues", summary.Totals.Issues),
		attribute.Int("totals.defects", summary.Totals.Defects),
		attribute.Int("totals.failed", summary.Totals.Failed),
		attribute.Int("totals.suppressed", summary.Totals.Suppressed),
		attribute.Int("junit.tests", summary.JUnit.Tests),
		attribute.Int("junit.failures", summary.JUnit.Failures),
		attribute.Int("junit.errors", summary.JUnit.Errors),
		attribute.Int("junit.skipped", summary.JUnit.Skipped),
		attribute.Bool("policy.passed", !summary.Policy.Evaluated || summary.Policy.Passed),
	)
}

// handleComplete ends the report span.
func (h *OTelHook) handleComplete(complete *events.CompleteEvent) {
	if h.rootSpan == nil {
		return
	}
	h.rootSpan.AddEvent("completed", trace.WithAttributes(
		attribute.Bool("success", complete.Success),
		attribute.Int("exit_code", complete.ExitCode),
		attribute.String("exit_reason", complete.ExitReason),
	))
	if complete.Success {
		h.rootSpan.SetStatus(codes.Ok, "")
	} else {
		h.rootSpan.SetStatus(codes.Error, complete.ExitReason)
	}
	h.rootSpan.End()
	h.rootSpan = nil
}

// EventTypes returns the event types this hook handles.
func (h *OTelHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeStart,
		events.EventTypeIssue,
		events.EventTypeSummary,
		events.EventTypeComplete,
	}
}

// Close ends any span left open by an interrupted run.
func (h *OTelHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.rootSpan != nil {
		h.rootSpan.SetStatus(codes.Error, "run did not complete")
		h.rootSpan.End()
		h.rootSpan = nil
	}
	return nil
}
