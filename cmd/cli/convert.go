package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/cli"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/config"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/convert"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/iohelper"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/logging"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/exitcode"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/ui"
)

// signalGrace is how long a second Ctrl-C waits before forcing exit.
const signalGrace = 5 * time.Second

// convertFlags holds the convert flags. Only flags set on the command
// line override the config file.
type convertFlags struct {
	configPath string
	input      string
	output     string

	groupBy     string
	information string
	element     string
	bitbucket   bool
	successCase bool
	suiteName   string
	pathBase    string
	strict      bool

	sarif          string
	json           string
	jsonl          string
	csv            string
	markdown       string
	pdf            string
	template       string
	templateFile   string
	templateOutput string
	metricsFile    string
	metricsLabels  string
	tracing        bool

	baseline      string
	policy        string
	errorExitCode int

	quiet   bool
	noColor bool
	debug   bool
}

func (f *convertFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.SortFlags = false

	fs.StringVarP(&f.input, "input", "i", "", "cppcheck XML report (- for stdin)")
	fs.StringVarP(&f.output, "output", "o", "", "JUnit XML destination (- for stdout)")
	fs.StringVar(&f.configPath, "config", "", "config file (default ./.cppcheck-junit.yaml when present)")

	fs.StringVar(&f.groupBy, "group-by", "file", "testcase grouping: file or issue")
	fs.StringVar(&f.information, "information", "pass", "information-severity issues: pass or fail")
	fs.StringVar(&f.element, "element", "failure", "element for failing testcases: failure or error")
	fs.BoolVar(&f.bitbucket, "bitbucket", false, "Bitbucket Pipelines layout")
	fs.BoolVar(&f.successCase, "success-testcase", false, "emit a passing testcase when the report has no issues")
	fs.StringVar(&f.suiteName, "suite-name", "", "testsuite name")
	fs.StringVar(&f.pathBase, "path-base", "", "make file paths relative to this directory")
	fs.BoolVar(&f.strict, "strict", false, "reject reports that are not cppcheck XML version 2")

	fs.StringVar(&f.sarif, "sarif", "", "also write SARIF 2.1.0 to this file")
	fs.StringVar(&f.json, "json", "", "also write a JSON report to this file")
	fs.StringVar(&f.jsonl, "jsonl", "", "also stream JSON lines events to this file")
	fs.StringVar(&f.csv, "csv", "", "also write a CSV issue list to this file")
	fs.StringVar(&f.markdown, "markdown", "", "also write a Markdown report to this file")
	fs.StringVar(&f.pdf, "pdf", "", "also write a PDF report to this file")
	fs.StringVar(&f.template, "template", "", "built-in template to render")
	fs.StringVar(&f.templateFile, "template-file", "", "Go template file to render")
	fs.StringVar(&f.templateOutput, "template-output", "", "template destination (default stdout)")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this file")
	fs.StringVar(&f.metricsLabels, "metrics-labels", "", "constant metric labels: key=value,key=value")
	fs.BoolVar(&f.tracing, "tracing", false, "log OpenTelemetry spans of the run")

	fs.StringVar(&f.baseline, "baseline", "", "baseline file of known issues to suppress")
	fs.StringVar(&f.policy, "policy", "", "policy file with failure thresholds")
	fs.IntVar(&f.errorExitCode, "error-exitcode", 0, "exit code when at least one issue fails")

	fs.BoolVarP(&f.quiet, "quiet", "q", false, "no console summary, errors only")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	fs.BoolVar(&f.debug, "debug", false, "debug logging")
}

// apply copies changed flags over cfg.
func (f *convertFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}

	set("input", func() { cfg.Input = f.input })
	set("output", func() { cfg.Output = f.output })

	set("group-by", func() { cfg.JUnit.GroupBy = f.groupBy })
	set("information", func() { cfg.JUnit.Information = f.information })
	set("element", func() { cfg.JUnit.Element = f.element })
	set("bitbucket", func() { cfg.JUnit.Bitbucket = f.bitbucket })
	set("success-testcase", func() { cfg.JUnit.SuccessCase = f.successCase })
	set("suite-name", func() { cfg.JUnit.SuiteName = f.suiteName })
	set("path-base", func() { cfg.JUnit.PathBase = f.pathBase })
	set("strict", func() { cfg.JUnit.Strict = f.strict })

	set("sarif", func() { cfg.Outputs.SARIF = f.sarif })
	set("json", func() { cfg.Outputs.JSON = f.json })
	set("jsonl", func() { cfg.Outputs.JSONL = f.jsonl })
	set("csv", func() { cfg.Outputs.CSV = f.csv })
	set("markdown", func() { cfg.Outputs.Markdown = f.markdown })
	set("pdf", func() { cfg.Outputs.PDF = f.pdf })
	set("template", func() { cfg.Outputs.Template = f.template })
	set("template-file", func() { cfg.Outputs.TemplateFile = f.templateFile })
	set("template-output", func() { cfg.Outputs.TemplateOutput = f.templateOutput })
	set("metrics-file", func() { cfg.Outputs.MetricsFile = f.metricsFile })
	set("metrics-labels", func() { cfg.Outputs.MetricsLabels = f.metricsLabels })

	set("baseline", func() { cfg.Baseline = f.baseline })
	set("policy", func() { cfg.Policy = f.policy })
	set("error-exitcode", func() { cfg.ErrorExitCode = f.errorExitCode })

	set("quiet", func() { cfg.Console.Quiet = f.quiet })
	set("no-color", func() { cfg.Console.NoColor = f.noColor })
	set("debug", func() { cfg.Console.Debug = f.debug })
}

// applyPositional applies INPUT OUTPUT [ERROR_EXITCODE]. Positional
// arguments win over flags and the config file.
func applyPositional(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if len(args) > 1 {
		cfg.Output = args[1]
	}
	if len(args) > 2 {
		code, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("%w: ERROR_EXITCODE %q is not an integer", exitcode.ErrUsage, args[2])
		}
		cfg.ErrorExitCode = code
	}
	return nil
}

// resolveConfig layers the config file, changed flags and positional arguments.
func resolveConfig(cmd *cobra.Command, flags *convertFlags, args []string) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	flags.apply(cmd, cfg)
	if err := applyPositional(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RequireIO(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConvert(cmd *cobra.Command, c CLIConfig, flags *convertFlags, args []string) error {
	cfg, err := resolveConfig(cmd, flags, args)
	if err != nil {
		return err
	}

	ui.SetSilent(cfg.Console.Quiet)
	if cfg.Console.NoColor || !ui.IsTerminal(c.Stderr) {
		ui.SetNoColor(true)
	}

	logger, err := c.NewLogger(logging.Options{
		Debug:   cfg.Console.Debug,
		Quiet:   cfg.Console.Quiet,
		Tracing: flags.tracing,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var tp trace.TracerProvider
	if flags.tracing {
		sdk := logging.NewTracerProvider(logger)
		defer func() { _ = sdk.Shutdown(context.Background()) }()
		tp = sdk
	}

	ctx, cancel := cli.SignalContext(cmd.Context(), cli.SignalOptions{
		GracePeriod: signalGrace,
		Logger:      logger,
	})
	defer cancel()

	opts := convertOptions(cfg, c, logger, tp)
	logger.Debug("converting",
		zap.String("input", opts.Input),
		zap.String("output", opts.Output),
		zap.String("group_by", cfg.JUnit.GroupBy))

	res, err := convert.Run(ctx, opts)
	if err != nil {
		ui.PrintError(c.Stderr, res.ExitReason)
		return &exitError{code: res.ExitCode, reason: res.ExitReason}
	}

	ui.PrintSummary(c.Stderr, res.Summary, outputFiles(cfg))
	if res.ExitCode != exitcode.Success {
		return &exitError{code: res.ExitCode, reason: res.ExitReason}
	}
	return nil
}

func convertOptions(cfg *config.Config, c CLIConfig, logger *zap.Logger, tp trace.TracerProvider) convert.Options {
	jopts := cfg.JUnitOptions()
	jopts.Timestamp = time.Now()
	if host, err := os.Hostname(); err == nil {
		jopts.Hostname = host
	}

	return convert.Options{
		Input:  cfg.Input,
		Stdin:  c.Stdin,
		Strict: cfg.JUnit.Strict,
		Output: cfg.Output,
		JUnit:  jopts,
		Outputs: output.Config{
			SARIFExport:     cfg.Outputs.SARIF,
			JSONExport:      cfg.Outputs.JSON,
			JSONLExport:     cfg.Outputs.JSONL,
			CSVExport:       cfg.Outputs.CSV,
			MDExport:        cfg.Outputs.Markdown,
			PDFExport:       cfg.Outputs.PDF,
			TemplateBuiltIn: cfg.Outputs.Template,
			TemplateFile:    cfg.Outputs.TemplateFile,
			TemplateExport:  cfg.Outputs.TemplateOutput,
			MetricsFile:     cfg.Outputs.MetricsFile,
			MetricsLabels:   cfg.Outputs.MetricsLabels,
			Stdout:          c.Stdout,
		},
		BaselinePath:   cfg.Baseline,
		PolicyPath:     cfg.Policy,
		IssuesExitCode: cfg.ErrorExitCode,
		Logger:         logger,
		TracerProvider: tp,
	}
}

// outputFiles lists the written outputs for the console summary.
func outputFiles(cfg *config.Config) []ui.OutputFile {
	var files []ui.OutputFile
	add := func(kind, path string) {
		if path == "" {
			return
		}
		size := int64(-1)
		if !iohelper.IsStdStream(path) {
			if info, err := os.Stat(path); err == nil {
				size = info.Size()
			}
		}
		files = append(files, ui.OutputFile{Kind: kind, Path: path, Size: size})
	}

	add("junit", cfg.Output)
	add("sarif", cfg.Outputs.SARIF)
	add("json", cfg.Outputs.JSON)
	add("jsonl", cfg.Outputs.JSONL)
	add("csv", cfg.Outputs.CSV)
	add("markdown", cfg.Outputs.Markdown)
	add("pdf", cfg.Outputs.PDF)
	if cfg.Outputs.Template != "" || cfg.Outputs.TemplateFile != "" {
		dest := cfg.Outputs.TemplateOutput
		if dest == "" {
			dest = defaults.StdStream
		}
		add("template", dest)
	}
	add("metrics", cfg.Outputs.MetricsFile)
	return files
}
