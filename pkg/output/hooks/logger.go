// Package hooks provides dispatcher hooks that observe a conversion run:
// structured logging, a Prometheus textfile and OpenTelemetry span events.
package hooks

import (
	"context"

	"go.uber.org/zap"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*LoggerHook)(nil)

// orNop returns l if non-nil, otherwise a no-op logger.
func orNop(l *zap.Logger) *zap.Logger {
	if l != nil {
		return l
	}
	return zap.NewNop()
}

// LoggerHook logs each issue at debug level and the run summary at info level.
type LoggerHook struct {
	logger *zap.Logger
}

// NewLoggerHook creates a logging hook. A nil logger discards everything.
func NewLoggerHook(logger *zap.Logger) *LoggerHook {
	return &LoggerHook{logger: orNop(logger).Named("run")}
}

// OnEvent logs the event.
func (h *LoggerHook) OnEvent(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case *events.StartEvent:
		h.logger.Debug("conversion started",
			zap.String("run_id", e.RunID()),
			zap.String("input", e.Input),
			zap.Int("format_version", e.FormatVersion),
			zap.String("cppcheck_version", e.CppcheckVersion),
			zap.Int("issues", e.TotalIssues),
		)
	case *events.IssueEvent:
		h.logger.Debug("issue",
			zap.String("id", e.Issue.ID),
			zap.Stringer("severity", e.Issue.Severity),
			zap.String("file", e.File),
			zap.Int("line", e.Issue.Line),
			zap.String("outcome", string(e.Outcome)),
		)
	case *events.SummaryEvent:
		h.logger.Info("conversion summary",
			zap.String("run_id", e.RunID()),
			zap.Int("issues", e.Totals.Issues),
			zap.Int("failed", e.Totals.Failed),
			zap.Int("suppressed", e.Totals.Suppressed),
			zap.Int("tests", e.JUnit.Tests),
			zap.Int("exit_code", e.ExitCode),
			zap.Float64("duration_sec", e.Timing.DurationSec),
		)
		if e.Policy.Evaluated && !e.Policy.Passed {
			h.logger.Warn("policy failed", zap.Strings("failures", e.Policy.Failures))
		}
	}
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *LoggerHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeStart,
		events.EventTypeIssue,
		events.EventTypeSummary,
	}
}
