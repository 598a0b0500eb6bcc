// Package output provides the builder that wires output dispatching from
// CLI flags: it opens every requested destination and registers the
// matching writers and hooks.
package output

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/iohelper"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/junit"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/dispatcher"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/exitcode"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/hooks"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/writers"
)

// Config configures the output dispatcher based on CLI flags.
// Every *Export path may be "-" for standard output; at most one may be.
type Config struct {
	// JUnit document (the primary output)
	JUnitExport string
	JUnit       junit.Options

	// Additional file outputs
	SARIFExport        string
	SARIFIncludePassed bool
	JSONExport         string
	JSONLExport        string
	JSONLOnlyFailed    bool
	CSVExport          string
	MDExport           string
	MDTitle            string
	PDFExport          string

	// Template output: a built-in name or a template file, written to TemplateExport.
	TemplateBuiltIn string
	TemplateFile    string
	TemplateExport  string

	// Hooks
	MetricsFile    string
	MetricsLabels  string // "key=value,key=value"
	TracerProvider trace.TracerProvider
	Tracing        bool

	// Stdout receives the output whose path is "-". Nil is os.Stdout.
	Stdout io.Writer

	Logger *zap.Logger
}

// Dispatcher is a dispatcher.Dispatcher that also closes the hooks and
// files the builder created.
type Dispatcher struct {
	*dispatcher.Dispatcher
	hookClosers []io.Closer
	files       []openedFile
}

type openedFile struct {
	path string
	f    io.Closer
}

// aborter is implemented by hooks that can drop their output.
type aborter interface {
	Abort() error
}

// Close closes every writer, then every hook. All errors are joined.
func (d *Dispatcher) Close() error {
	errs := []error{d.Dispatcher.Close()}
	for _, c := range d.hookClosers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Abort ends a failed run. Writers are never closed, so no partial report
// is rendered; every file the builder created is closed and removed.
// Output already streamed to stdout cannot be taken back.
func (d *Dispatcher) Abort() error {
	d.Dispatcher.Abort()
	errs := []error{d.discardFiles()}
	for _, c := range d.hookClosers {
		if a, ok := c.(aborter); ok {
			errs = append(errs, a.Abort())
			continue
		}
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// discardFiles closes and removes the created files.
func (d *Dispatcher) discardFiles() error {
	var errs []error
	for _, of := range d.files {
		errs = append(errs, of.f.Close())
		if iohelper.IsStdStream(of.path) {
			continue
		}
		if err := os.Remove(of.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	d.files = nil
	return errors.Join(errs...)
}

// BuildDispatcher creates a dispatcher configured with writers and hooks based on the config.
// It opens all output files and registers the appropriate writers and hooks.
// The caller is responsible for calling Close() on the dispatcher when done,
// or Abort() when the run failed; on error nothing is left open or created.
func BuildDispatcher(cfg Config) (*Dispatcher, error) {
	if err := checkStdout(cfg); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{Dispatcher: dispatcher.New(dispatcher.Config{Logger: logger})}

	cleanup := func() {
		_ = d.discardFiles()
	}

	// Helper to open a file for writing
	openFile := func(path string) (io.WriteCloser, error) {
		f, err := iohelper.CreateOutputTo(path, cfg.Stdout)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		d.files = append(d.files, openedFile{path: path, f: f})
		return f, nil
	}

	// === FILE WRITERS ===

	// Template first: a bad template is a usage error and should fail before any file is truncated.
	var tmplCfg *writers.TemplateConfig
	if cfg.TemplateBuiltIn != "" || cfg.TemplateFile != "" {
		tmplCfg = &writers.TemplateConfig{BuiltIn: cfg.TemplateBuiltIn, TemplatePath: cfg.TemplateFile}
		if _, err := writers.NewTemplateWriter(io.Discard, *tmplCfg); err != nil {
			return nil, fmt.Errorf("%w: %v", exitcode.ErrUsage, err)
		}
	}

	// JUnit export (CI/CD)
	if cfg.JUnitExport != "" {
		opts := cfg.JUnit.WithDefaults()
		if err := opts.Validate(); err != nil {
			return nil, err
		}
		f, err := openFile(cfg.JUnitExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewJUnitWriter(f, opts))
	}

	// SARIF export (GitHub/GitLab security)
	if cfg.SARIFExport != "" {
		f, err := openFile(cfg.SARIFExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewSARIFWriter(f, writers.SARIFOptions{
			IncludePassed: cfg.SARIFIncludePassed,
		}))
	}

	// JSON export
	if cfg.JSONExport != "" {
		f, err := openFile(cfg.JSONExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewJSONWriter(f, writers.JSONOptions{Pretty: true}))
	}

	// JSONL export (streaming)
	if cfg.JSONLExport != "" {
		f, err := openFile(cfg.JSONLExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewJSONLWriter(f, writers.JSONLOptions{
			OnlyFailed: cfg.JSONLOnlyFailed,
		}))
	}

	// CSV export
	if cfg.CSVExport != "" {
		f, err := openFile(cfg.CSVExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewCSVWriter(f, writers.CSVOptions{
			IncludeHeader:    true,
			SanitizeFormulas: true,
		}))
	}

	// Markdown export
	if cfg.MDExport != "" {
		f, err := openFile(cfg.MDExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewMarkdownWriter(f, writers.MarkdownConfig{
			Title:            cfg.MDTitle,
			CollapseSections: true,
		}))
	}

	// PDF export
	if cfg.PDFExport != "" {
		f, err := openFile(cfg.PDFExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewPDFWriter(f, writers.PDFConfig{
			Author: defaults.ToolNameDisplay,
		}))
	}

	// Template export
	if tmplCfg != nil {
		dest := cfg.TemplateExport
		if dest == "" {
			dest = defaults.StdStream
		}
		f, err := openFile(dest)
		if err != nil {
			cleanup()
			return nil, err
		}
		tw, err := writers.NewTemplateWriter(f, *tmplCfg)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("%w: %v", exitcode.ErrUsage, err)
		}
		d.RegisterWriter(tw)
	}

	// === HOOKS ===

	d.RegisterHook(hooks.NewLoggerHook(logger))

	if cfg.MetricsFile != "" {
		labels, err := parseLabels(cfg.MetricsLabels)
		if err != nil {
			cleanup()
			return nil, err
		}
		prom, err := hooks.NewPrometheusHook(hooks.PrometheusOptions{
			TextfilePath: cfg.MetricsFile,
			ConstLabels:  labels,
		})
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterHook(prom)
		d.hookClosers = append(d.hookClosers, prom)
	}

	if cfg.Tracing || cfg.TracerProvider != nil {
		tracing := hooks.NewOTelHook(hooks.OTelOptions{TracerProvider: cfg.TracerProvider})
		d.RegisterHook(tracing)
		d.hookClosers = append(d.hookClosers, tracing)
	}

	return d, nil
}

// checkStdout rejects configurations that send two outputs to stdout.
func checkStdout(cfg Config) error {
	var onStdout []string
	add := func(name, path string) {
		if iohelper.IsStdStream(path) {
			onStdout = append(onStdout, name)
		}
	}
	add("junit", cfg.JUnitExport)
	add("sarif", cfg.SARIFExport)
	add("json", cfg.JSONExport)
	add("jsonl", cfg.JSONLExport)
	add("csv", cfg.CSVExport)
	add("markdown", cfg.MDExport)
	add("pdf", cfg.PDFExport)
	if cfg.TemplateBuiltIn != "" || cfg.TemplateFile != "" {
		if cfg.TemplateExport == "" {
			onStdout = append(onStdout, "template")
		} else {
			add("template", cfg.TemplateExport)
		}
	}

	if len(onStdout) > 1 {
		return fmt.Errorf("%w: only one output may be written to stdout, got %s",
			exitcode.ErrUsage, strings.Join(onStdout, ", "))
	}
	return nil
}

// parseCSV splits a comma-separated string, trimming whitespace and dropping
// empty elements. Returns nil for an empty result.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseLabels parses "key=value,key=value" into Prometheus const labels.
func parseLabels(s string) (map[string]string, error) {
	parts := parseCSV(s)
	if parts == nil {
		return nil, nil
	}
	labels := make(map[string]string, len(parts))
	for _, part := range parts {
		k, v, ok := strings.Cut(part, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: metrics label %q is not key=value", exitcode.ErrUsage, part)
		}
		labels[k] = strings.TrimSpace(v)
	}
	return labels, nil
}
