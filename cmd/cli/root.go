package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/config"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/logging"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/exitcode"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/ui"
)

// CLIConfig holds the process resources the command tree runs against.
type CLIConfig struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// NewLogger builds the run logger once flags are known.
	// Nil logs to Stderr.
	NewLogger func(logging.Options) (*zap.Logger, error)
}

func (c CLIConfig) withDefaults() CLIConfig {
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.NewLogger == nil {
		stderr := c.Stderr
		c.NewLogger = func(opts logging.Options) (*zap.Logger, error) {
			return logging.NewWriter(stderr, opts), nil
		}
	}
	return c
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(args []string, cfg CLIConfig) int {
	cfg = cfg.withDefaults()
	cmd := NewRootCommand(cfg)
	cmd.SetArgs(args)
	return exitCode(cmd.ExecuteContext(context.Background()), cfg.Stderr)
}

// NewRootCommand builds the command tree. The root command itself accepts
// the positional INPUT OUTPUT [ERROR_EXITCODE] form and every convert flag.
func NewRootCommand(cfg CLIConfig) *cobra.Command {
	cfg = cfg.withDefaults()
	flags := &convertFlags{}

	command := &cobra.Command{
		Use:   defaults.ToolName + " INPUT OUTPUT [ERROR_EXITCODE]",
		Short: "Convert cppcheck XML reports to JUnit XML",
		Long: `Convert a cppcheck XML report (--xml --xml-version=2) to a JUnit XML document
for CI systems. "-" reads the report from stdin or writes the document to stdout.

` + exitCodesHelp(),
		Version:       ui.VersionString(),
		Args:          usageArgs(cobra.MaximumNArgs(3)),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, cfg, flags, args)
		},
	}
	command.SetVersionTemplate("{{.Version}}\n")
	command.SetIn(cfg.Stdin)
	command.SetOut(cfg.Stdout)
	command.SetErr(cfg.Stderr)
	command.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", exitcode.ErrUsage, err)
	})
	flags.register(command)

	command.AddCommand(NewConvertCmd(cfg))
	command.AddCommand(NewBaselineCmd(cfg))
	command.AddCommand(NewConfigCmd())
	command.AddCommand(NewVersionCmd())

	return command
}

// NewConvertCmd is the flag-only form of the root command.
func NewConvertCmd(cfg CLIConfig) *cobra.Command {
	flags := &convertFlags{}
	command := &cobra.Command{
		Use:   "convert",
		Short: "Convert a cppcheck report using flags and the config file",
		Example: `  cppcheck-junit convert -i cppcheck.xml -o junit.xml --error-exitcode 1
  cppcheck-junit convert -i - -o - --group-by issue < cppcheck.xml
  cppcheck-junit convert -i cppcheck.xml -o junit.xml --sarif cppcheck.sarif --baseline baseline.json`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConvert(cmd, cfg, flags, nil)
		},
	}
	flags.register(command)
	return command
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println(ui.VersionString())
			return nil
		},
	}
}

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Print a default " + defaults.ConfigFile,
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return config.WriteDefault(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(initCmd)
	return cmd
}

// exitCodesHelp lists the process exit codes for the root help.
func exitCodesHelp() string {
	var b strings.Builder
	b.WriteString("Exit codes:\n")
	for _, code := range []exitcode.Code{exitcode.Success, exitcode.Failure, exitcode.Usage, exitcode.Policy} {
		fmt.Fprintf(&b, "  %d  %s\n", int(code), exitcode.CodeDescription(code))
	}
	b.WriteString("  ERROR_EXITCODE  returned when at least one issue fails (default 0)")
	return b.String()
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", exitcode.ErrUsage, err)
		}
		return nil
	}
}

// exitError carries a non-zero exit code for a run whose outcome was
// already reported on the console.
type exitError struct {
	code   exitcode.Code
	reason string
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit %d: %s", int(e.code), e.reason)
}

// exitCode maps a command error to the process exit code, printing it
// unless the run already reported it.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return int(exitcode.Success)
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return int(ee.code)
	}
	ui.PrintError(stderr, err.Error())
	if errors.Is(err, config.ErrMissingRequired) {
		fmt.Fprintf(stderr, "\nUsage: %s INPUT OUTPUT [ERROR_EXITCODE]\n", defaults.ToolName)
	}
	return int(exitcode.FromError(err))
}
