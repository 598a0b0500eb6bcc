package logging

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// SpanLogger is an OpenTelemetry span exporter that writes each finished
// span as one info log line. It backs the --tracing flag when no collector
// is configured.
type SpanLogger struct {
	logger *zap.Logger
}

var _ sdktrace.SpanExporter = (*SpanLogger)(nil)

// NewSpanLogger returns an exporter logging to logger.
func NewSpanLogger(logger *zap.Logger) *SpanLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpanLogger{logger: logger.Named("trace")}
}

// NewTracerProvider returns a tracer provider that exports synchronously
// through a SpanLogger. Callers must Shutdown it.
func NewTracerProvider(logger *zap.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(NewSpanLogger(logger)))
}

// ExportSpans implements sdktrace.SpanExporter.
func (s *SpanLogger) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		fields := []zap.Field{
			zap.String("span", span.Name()),
			zap.Stringer("trace_id", span.SpanContext().TraceID()),
			zap.Duration("duration", span.EndTime().Sub(span.StartTime())),
		}
		for _, kv := range span.Attributes() {
			fields = append(fields, zap.String(string(kv.Key), kv.Value.Emit()))
		}
		if st := span.Status(); st.Code == codes.Error {
			fields = append(fields, zap.String("error", st.Description))
		}
		s.logger.Info("span finished", fields...)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (s *SpanLogger) Shutdown(context.Context) error {
	// stderr may not support fsync.
	_ = s.logger.Sync()
	return nil
}
