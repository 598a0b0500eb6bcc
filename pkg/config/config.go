// Package config loads the cppcheck-junit YAML configuration file.
//
// Settings are resolved in three layers: built-in defaults, then the config
// file, then explicit command line flags. This package owns the first two;
// the CLI applies flags on top of the *Config returned by Load.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/iohelper"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/junit"
)

// maxConfigBytes caps the config file size.
const maxConfigBytes = 1 << 20

// Config holds all converter options that can be set from a file.
type Config struct {
	// Input is the cppcheck XML report ("-" = stdin)
	Input string `yaml:"input,omitempty"`
	// Output is the JUnit XML destination ("-" = stdout)
	Output string `yaml:"output,omitempty"`

	JUnit   JUnitConfig   `yaml:"junit"`
	Outputs OutputsConfig `yaml:"outputs"`

	Baseline string `yaml:"baseline,omitempty"`
	Policy   string `yaml:"policy,omitempty"`

	// ErrorExitCode is returned when at least one issue fails
	ErrorExitCode int `yaml:"error_exitcode"`

	Console ConsoleConfig `yaml:"console"`
}

// JUnitConfig controls how issues map to JUnit test cases.
type JUnitConfig struct {
	GroupBy     string `yaml:"group_by"`    // file, issue
	Information string `yaml:"information"` // pass, fail
	Element     string `yaml:"element"`     // failure, error
	Bitbucket   bool   `yaml:"bitbucket"`
	SuccessCase bool   `yaml:"success_testcase"`
	SuiteName   string `yaml:"suite_name"`
	PathBase    string `yaml:"path_base,omitempty"`
	// Strict rejects reports that are not cppcheck XML version 2
	Strict bool `yaml:"strict"`
}

// OutputsConfig names additional report files. Empty disables an output.
type OutputsConfig struct {
	SARIF          string `yaml:"sarif,omitempty"`
	JSON           string `yaml:"json,omitempty"`
	JSONL          string `yaml:"jsonl,omitempty"`
	CSV            string `yaml:"csv,omitempty"`
	Markdown       string `yaml:"markdown,omitempty"`
	PDF            string `yaml:"pdf,omitempty"`
	Template       string `yaml:"template,omitempty"`
	TemplateFile   string `yaml:"template_file,omitempty"`
	TemplateOutput string `yaml:"template_output,omitempty"`
	MetricsFile    string `yaml:"metrics_file,omitempty"`
	MetricsLabels  string `yaml:"metrics_labels,omitempty"`
}

// ConsoleConfig controls the human-readable summary on stderr.
type ConsoleConfig struct {
	Quiet   bool `yaml:"quiet"`
	NoColor bool `yaml:"no_color"`
	Debug   bool `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		JUnit: JUnitConfig{
			GroupBy:     string(junit.GroupByFile),
			Information: string(junit.InformationPass),
			Element:     string(junit.ElementFailure),
			SuiteName:   defaults.SuiteName,
		},
	}
}

// Load reads the config file at path on top of Default.
// An empty path looks for defaults.ConfigFile in the working directory and
// silently falls back to Default when it is absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaults.ConfigFile
	}

	data, err := iohelper.ReadFile(path, maxConfigBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file %s not found", ErrInvalidConfig, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config data on top of Default and validates it.
// Unknown keys are rejected so typos do not pass silently.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum values and numeric ranges.
func (c *Config) Validate() error {
	if err := c.JUnitOptions().Validate(); err != nil {
		return fmt.Errorf("%w: junit: %v", ErrInvalidConfig, err)
	}
	if c.ErrorExitCode < 0 || c.ErrorExitCode > 255 {
		return fmt.Errorf("%w: error_exitcode %d out of range 0-255", ErrInvalidConfig, c.ErrorExitCode)
	}
	if c.Outputs.Template != "" && c.Outputs.TemplateFile != "" {
		return fmt.Errorf("%w: outputs.template and outputs.template_file are mutually exclusive", ErrInvalidConfig)
	}
	return nil
}

// RequireIO reports ErrMissingRequired when no input or output is set.
func (c *Config) RequireIO() error {
	switch {
	case c.Input == "":
		return fmt.Errorf("%w: %w: input", ErrInvalidConfig, ErrMissingRequired)
	case c.Output == "":
		return fmt.Errorf("%w: %w: output", ErrInvalidConfig, ErrMissingRequired)
	}
	return nil
}

// JUnitOptions converts the junit section to converter options.
// Timestamp, Hostname and Suppressed are left for the caller.
func (c *Config) JUnitOptions() junit.Options {
	opts := junit.Options{
		Grouping:    junit.Grouping(c.JUnit.GroupBy),
		Information: junit.InformationPolicy(c.JUnit.Information),
		Element:     junit.Element(c.JUnit.Element),
		SuccessCase: c.JUnit.SuccessCase,
		SuiteName:   c.JUnit.SuiteName,
		PathBase:    c.JUnit.PathBase,
	}
	if c.JUnit.Bitbucket {
		opts.Layout = junit.LayoutBitbucket
		// The failure default gives way to the bitbucket default of error.
		if c.JUnit.Element == string(junit.ElementFailure) {
			opts.Element = ""
		}
	}
	return opts
}

// WriteDefault writes a commented default config file, for `config init`.
func WriteDefault(w io.Writer) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s configuration (%s)\n", defaults.ToolName, defaults.ConfigFile)
	buf.WriteString("# Command line flags override every value below.\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Default()); err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}

	_, err := w.Write(buf.Bytes())
	return err
}
