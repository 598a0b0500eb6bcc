// Package convert runs one cppcheck-to-JUnit conversion: it parses the
// report, applies the optional baseline, streams events to the configured
// writers and hooks, evaluates the optional policy and settles the exit code.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/iohelper"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/junit"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/baseline"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/exitcode"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/policy"
)

// TracerName is the instrumentation scope of the pipeline spans.
const TracerName = defaults.ToolName + "/convert"

// Options configures Run.
type Options struct {
	// Input is the cppcheck XML report; "-" reads Stdin.
	Input string
	// Stdin replaces os.Stdin when Input is "-".
	Stdin io.Reader
	// Strict rejects anything but cppcheck XML version 2.
	Strict bool

	// Output is the JUnit XML destination; "-" writes stdout. Empty skips it.
	Output string
	JUnit  junit.Options

	// Outputs holds the additional report destinations and hooks.
	// Its JUnit, Logger and TracerProvider fields are set by Run.
	Outputs output.Config

	BaselinePath string
	PolicyPath   string

	// IssuesExitCode is returned when at least one issue fails.
	IssuesExitCode int

	Logger         *zap.Logger
	TracerProvider trace.TracerProvider

	// RunID defaults to a random UUID.
	RunID string
}

// Result describes a finished conversion.
type Result struct {
	RunID  string
	Report *cppcheck.Report

	BySeverity map[finding.Severity]int
	Defects    int
	Failed     int
	Passed     int
	Suppressed int

	// JUnit holds the counters of the written document.
	JUnit junit.Totals

	Baseline *baseline.ComparisonResult
	Policy   *policy.PolicyResult

	ExitCode   exitcode.Code
	ExitReason string
	Summary    *events.SummaryEvent
}

// Run performs the conversion. On error the Result carries only the run ID,
// the exit code for err and its reason. A run that fails before the outputs
// are closed removes the files it created.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(TracerName)

	ctx, span := tracer.Start(ctx, "cppcheck_junit.convert",
		trace.WithAttributes(attribute.String("input", opts.Input)))
	defer span.End()

	if opts.RunID == "" {
		opts.RunID = events.NewRunID()
	}
	mgr := exitcode.New(exitcode.Config{IssuesCode: opts.IssuesExitCode})

	res, err := run(ctx, tracer, logger, mgr, opts)
	if err != nil {
		mgr.SetError(err)
		code, reason := mgr.ExitCode()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.Int("exit_code", int(code)),
			attribute.String("exit_status", code.String()),
		)
		return &Result{RunID: opts.RunID, ExitCode: code, ExitReason: reason}, err
	}
	span.SetAttributes(
		attribute.Int("issues", res.Report.Len()),
		attribute.Int("exit_code", int(res.ExitCode)),
		attribute.String("exit_status", res.ExitCode.String()),
	)
	return res, nil
}

func run(ctx context.Context, tracer trace.Tracer, logger *zap.Logger, mgr *exitcode.Manager, opts Options) (*Result, error) {
	started := time.Now()

	if err := opts.JUnit.Validate(); err != nil {
		return nil, err
	}
	jopts := opts.JUnit.WithDefaults()

	// Policy and baseline are read before any output is truncated.
	var pol *policy.Policy
	if opts.PolicyPath != "" {
		p, err := policy.LoadPolicy(opts.PolicyPath)
		if err != nil {
			return nil, err
		}
		pol = p
	}
	var known *baseline.Baseline
	if opts.BaselinePath != "" {
		b, err := baseline.Load(opts.BaselinePath)
		switch {
		case errors.Is(err, baseline.ErrBaselineNotFound):
			logger.Warn("baseline not found, no issues suppressed", zap.String("path", opts.BaselinePath))
		case err != nil:
			return nil, err
		default:
			known = b
		}
	}

	report, err := parse(ctx, tracer, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("report parsed",
		zap.Int("issues", report.Len()),
		zap.Int("format_version", report.FormatVersion),
		zap.String("cppcheck_version", report.CppcheckVersion))

	res := &Result{
		RunID:      opts.RunID,
		Report:     report,
		BySeverity: report.CountBySeverity(),
		Defects:    report.Defects(),
	}

	jopts.Suppressed = make(map[int]bool)
	fingerprints := make([]string, len(report.Issues))
	for i, issue := range report.Issues {
		fingerprints[i] = baseline.Fingerprint(issue, jopts.PathBase)
		if known != nil && known.Contains(fingerprints[i]) {
			jopts.Suppressed[issue.Index] = true
		}
	}
	if known != nil {
		cmp := known.Compare(baseline.ExtractEntries(report, jopts.PathBase))
		res.Baseline = &cmp
		logger.Info("baseline compared", zap.String("summary", cmp.Summary))
	}

	cfg := opts.Outputs
	cfg.JUnitExport = opts.Output
	cfg.JUnit = opts.JUnit
	cfg.Logger = logger
	if opts.TracerProvider != nil {
		cfg.TracerProvider = opts.TracerProvider
	}
	d, err := output.BuildDispatcher(cfg)
	if err != nil {
		return nil, err
	}

	summary, err := dispatch(ctx, tracer, d, dispatchInput{
		opts:         opts,
		jopts:        jopts,
		report:       report,
		fingerprints: fingerprints,
		policy:       pol,
		mgr:          mgr,
		res:          res,
		started:      started,
	})
	if err != nil {
		if abortErr := d.Abort(); abortErr != nil {
			logger.Warn("discarding outputs failed", zap.Error(abortErr))
		}
		return nil, err
	}

	if err := d.Close(); err != nil {
		return nil, asWriteError(err)
	}

	res.Summary = summary
	return res, nil
}

func parse(ctx context.Context, tracer trace.Tracer, opts Options) (*cppcheck.Report, error) {
	_, span := tracer.Start(ctx, "parse")
	defer span.End()

	popts := cppcheck.ParseOptions{RequireVersion2: opts.Strict}

	var (
		report *cppcheck.Report
		err    error
	)
	if iohelper.IsStdStream(opts.Input) && opts.Stdin != nil {
		var data []byte
		data, err = iohelper.ReadAll(opts.Stdin, iohelper.DefaultMaxReportSize)
		if err == nil {
			report, err = cppcheck.ParseBytes(data, popts)
		}
	} else {
		report, err = cppcheck.ParseFile(opts.Input, popts)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("issues", report.Len()))
	return report, nil
}

type dispatchInput struct {
	opts         Options
	jopts        junit.Options
	report       *cppcheck.Report
	fingerprints []string
	policy       *policy.Policy
	mgr          *exitcode.Manager
	res          *Result
	started      time.Time
}

// dispatch emits start, issue, summary and complete events in that order.
func dispatch(ctx context.Context, tracer trace.Tracer, d *output.Dispatcher, in dispatchInput) (*events.SummaryEvent, error) {
	ctx, span := tracer.Start(ctx, "dispatch")
	defer span.End()

	runID := in.res.RunID
	report := in.report
	jopts := in.jopts

	start := &events.StartEvent{
		BaseEvent:       events.NewBase(events.EventTypeStart, runID),
		Input:           in.opts.Input,
		FormatVersion:   report.FormatVersion,
		CppcheckVersion: report.CppcheckVersion,
		TotalIssues:     report.Len(),
		Config: events.MappingConfig{
			Grouping:    string(jopts.Grouping),
			Information: string(jopts.Information),
			Element:     string(jopts.Element),
			Layout:      string(jopts.Layout),
			Strict:      in.opts.Strict,
			Baseline:    in.opts.BaselinePath,
			PathBase:    jopts.PathBase,
		},
	}
	if err := d.Dispatch(ctx, start); err != nil {
		return nil, asWriteError(err)
	}

	fileIndex := make(map[string]int)
	var files []events.FileStats
	var refs []policy.IssueRef

	for i, issue := range report.Issues {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome := jopts.Classify(issue)
		in.mgr.Record(outcome)
		rel := cppcheck.RelPath(issue.File, jopts.PathBase)

		switch outcome {
		case events.OutcomePassed:
			in.res.Passed++
		case events.OutcomeSuppressed:
			in.res.Suppressed++
		}

		idx, ok := fileIndex[rel]
		if !ok {
			idx = len(files)
			fileIndex[rel] = idx
			files = append(files, events.FileStats{File: rel})
		}
		files[idx].Issues++
		if outcome == events.OutcomeFailed {
			files[idx].Failed++
		}

		if outcome != events.OutcomeSuppressed {
			refs = append(refs, policy.IssueRef{ID: issue.ID, Severity: issue.Severity, File: rel, CWE: issue.CWE})
		}

		ev := &events.IssueEvent{
			BaseEvent:   events.NewBase(events.EventTypeIssue, runID),
			Issue:       issue,
			File:        rel,
			Fingerprint: in.fingerprints[i],
			Outcome:     outcome,
			Suppressed:  outcome == events.OutcomeSuppressed,
		}
		if err := d.Dispatch(ctx, ev); err != nil {
			return nil, asWriteError(err)
		}
	}

	in.res.Failed = in.mgr.Failed()

	var polResult events.PolicyResult
	if in.policy != nil {
		pr := in.policy.Evaluate(refs)
		in.res.Policy = &pr
		polResult = events.PolicyResult{Evaluated: true, Passed: pr.Pass, Failures: pr.Failures}
		if !pr.Pass {
			in.mgr.SetPolicyFailure(pr.Failures)
		}
	}

	// Convert is pure, so the writer's document has the same counters.
	totals := junit.Convert(report, jopts).Totals()
	in.res.JUnit = totals

	code, reason := in.mgr.ExitCode()
	in.res.ExitCode = code
	in.res.ExitReason = reason

	completed := time.Now()
	bySeverity := make(map[string]int, len(in.res.BySeverity))
	for sev, n := range in.res.BySeverity {
		bySeverity[sev.String()] = n
	}
	summary := &events.SummaryEvent{
		BaseEvent:       events.NewBase(events.EventTypeSummary, runID),
		Version:         defaults.Version,
		Input:           in.opts.Input,
		CppcheckVersion: report.CppcheckVersion,
		Totals: events.SummaryTotals{
			Issues:     report.Len(),
			Defects:    in.res.Defects,
			Failed:     in.res.Failed,
			Passed:     in.res.Passed,
			Suppressed: in.res.Suppressed,
		},
		BySeverity: bySeverity,
		Files:      files,
		JUnit: events.JUnitTotals{
			Tests:    totals.Tests,
			Failures: totals.Failures,
			Errors:   totals.Errors,
			Skipped:  totals.Skipped,
		},
		Policy: polResult,
		Timing: events.SummaryTiming{
			StartedAt:   in.started,
			CompletedAt: completed,
			DurationSec: completed.Sub(in.started).Seconds(),
		},
		ExitCode:   int(code),
		ExitReason: reason,
	}
	if err := d.Dispatch(ctx, summary); err != nil {
		return nil, asWriteError(err)
	}

	complete := &events.CompleteEvent{
		BaseEvent:  events.NewBase(events.EventTypeComplete, runID),
		Success:    code == exitcode.Success,
		ExitCode:   int(code),
		ExitReason: reason,
		Summary:    summary,
	}
	if err := d.Dispatch(ctx, complete); err != nil {
		return nil, asWriteError(err)
	}

	span.SetAttributes(
		attribute.Int("failed", in.res.Failed),
		attribute.Int("suppressed", in.res.Suppressed),
	)
	return summary, nil
}

// asWriteError makes every output failure match junit.ErrWrite.
func asWriteError(err error) error {
	if err == nil || errors.Is(err, junit.ErrWrite) {
		return err
	}
	return &junit.WriteError{Err: fmt.Errorf("output: %w", err)}
}
