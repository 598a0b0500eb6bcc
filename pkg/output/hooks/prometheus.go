package hooks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Compile-time interface check.
var _ dispatcher.Hook = (*PrometheusHook)(nil)

const metricsNamespace = "cppcheck_junit"

// PrometheusHook records run metrics in a private registry and writes them
// in the text exposition format when the run completes. The file is meant for
// the node_exporter textfile collector; nothing listens on the network.
type PrometheusHook struct {
	registry *prometheus.Registry
	opts     PrometheusOptions

	// Counters
	issuesTotal *prometheus.CounterVec

	// Gauges
	files            prometheus.Gauge
	testcases        *prometheus.GaugeVec
	policyPassed     prometheus.Gauge
	exitCode         prometheus.Gauge
	durationSeconds  prometheus.Gauge
	lastRunTimestamp prometheus.Gauge

	mu      sync.Mutex
	written bool
}

// PrometheusOptions configures the Prometheus hook behavior.
type PrometheusOptions struct {
	// TextfilePath is where metrics are written on completion.
	// Empty keeps the metrics in memory only.
	TextfilePath string

	// ConstLabels are attached to every metric, e.g. {"project": "core"}.
	ConstLabels prometheus.Labels
}

// NewPrometheusHook creates a new Prometheus hook with its own registry.
func NewPrometheusHook(opts PrometheusOptions) (*PrometheusHook, error) {
	hook := &PrometheusHook{
		registry: prometheus.NewRegistry(),
		opts:     opts,
	}

	if err := hook.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return hook, nil
}

// initMetrics creates and registers all Prometheus metrics.
func (h *PrometheusHook) initMetrics() error {
	labels := h.opts.ConstLabels

	h.issuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "issues_total",
			Help:        "Cppcheck issues converted, by severity and outcome",
			ConstLabels: labels,
		},
		[]string{"severity", "outcome"},
	)

	h.files = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "files",
		Help:        "Number of files with at least one issue",
		ConstLabels: labels,
	})

	h.testcases = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "junit_testcases",
			Help:        "JUnit testcases written, by status",
			ConstLabels: labels,
		},
		[]string{"status"},
	)

	h.policyPassed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "policy_passed",
		Help:        "1 when the policy passed or was not configured, 0 otherwise",
		ConstLabels: labels,
	})

	h.exitCode = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "exit_code",
		Help:        "Process exit code of the last run",
		ConstLabels: labels,
	})

	h.durationSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "duration_seconds",
		Help:        "Conversion duration in seconds",
		ConstLabels: labels,
	})

	h.lastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Name:        "last_run_timestamp_seconds",
		Help:        "Unix time the last run completed",
		ConstLabels: labels,
	})

	collectors := []prometheus.Collector{
		h.issuesTotal,
		h.files,
		h.testcases,
		h.policyPassed,
		h.exitCode,
		h.durationSeconds,
		h.lastRunTimestamp,
	}
	for _, c := range collectors {
		if err := h.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// OnEvent processes events and updates Prometheus metrics.
func (h *PrometheusHook) OnEvent(_ context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch e := event.(type) {
	case *events.IssueEvent:
		h.issuesTotal.WithLabelValues(e.Issue.Severity.String(), string(e.Outcome)).Inc()
	case *events.SummaryEvent:
		h.handleSummary(e)
	case *events.CompleteEvent:
		h.exitCode.Set(float64(e.ExitCode))
		return h.writeTextfile()
	}
	return nil
}

func (h *PrometheusHook) handleSummary(summary *events.SummaryEvent) {
	h.files.Set(float64(len(summary.Files)))

	h.testcases.WithLabelValues("total").Set(float64(summary.JUnit.Tests))
	h.testcases.WithLabelValues("failure").Set(float64(summary.JUnit.Failures))
	h.testcases.WithLabelValues("error").Set(float64(summary.JUnit.Errors))
	h.testcases.WithLabelValues("skipped").Set(float64(summary.JUnit.Skipped))

	if !summary.Policy.Evaluated || summary.Policy.Passed {
		h.policyPassed.Set(1)
	} else {
		h.policyPassed.Set(0)
	}

	h.exitCode.Set(float64(summary.ExitCode))
	h.durationSeconds.Set(summary.Timing.DurationSec)
	if !summary.Timing.CompletedAt.IsZero() {
		h.lastRunTimestamp.Set(float64(summary.Timing.CompletedAt.Unix()))
	}
}

// writeTextfile writes the registry once. Must be called with mu held.
func (h *PrometheusHook) writeTextfile() error {
	if h.written || h.opts.TextfilePath == "" {
		return nil
	}
	h.written = true
	if err := prometheus.WriteToTextfile(h.opts.TextfilePath, h.registry); err != nil {
		return fmt.Errorf("prometheus: write textfile: %w", err)
	}
	return nil
}

// EventTypes returns the event types this hook handles.
func (h *PrometheusHook) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventTypeIssue,
		events.EventTypeSummary,
		events.EventTypeComplete,
	}
}

// Registry exposes the hook's registry for embedding programs and tests.
func (h *PrometheusHook) Registry() *prometheus.Registry {
	return h.registry
}

// Close writes the textfile if the run ended without a complete event.
func (h *PrometheusHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writeTextfile()
}

// Abort discards the metrics of a run that failed before completing.
// A later Close writes nothing.
func (h *PrometheusHook) Abort() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.written = true
	return nil
}
