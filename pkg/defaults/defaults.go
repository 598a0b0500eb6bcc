// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for converter defaults.
//
// Usage:
//
//	opts.SuiteName = defaults.SuiteName
//	cfg.ConfigFile = defaults.ConfigFile
//
// DO NOT hardcode tool names, suite names or file names anywhere else.
// Instead, reference the appropriate constant from this package.
package defaults

import "fmt"

// Version is the current cppcheck-junit version
const Version = "2.2.0"

// ============================================================================
// TOOL IDENTITY
// ============================================================================
//
// Use these for report metadata, SARIF driver names and log fields.
// ============================================================================

const (
	// ToolName is the machine-readable tool name
	ToolName = "cppcheck-junit"

	// ToolNameDisplay is the human-readable tool name
	ToolNameDisplay = "Cppcheck JUnit"

	// ToolURI is the project home page
	ToolURI = "https://github.com/cppcheck-junit/cppcheck-junit"

	// AnalyzerName is the name of the analyzer whose reports we convert
	AnalyzerName = "cppcheck"
)

// ToolVersionString returns "name version" for banners and report footers.
func ToolVersionString() string {
	return fmt.Sprintf("%s %s", ToolName, Version)
}

// ============================================================================
// JUNIT NAMING
// ============================================================================
//
// Names used by JUnit consumers to group and label cppcheck findings.
// Changing these breaks CI dashboards that key off the old values.
// ============================================================================

const (
	// SuiteName is the default <testsuite name>
	SuiteName = "Cppcheck errors"

	// ErrorCaseName is used for testcases whose file is unknown
	ErrorCaseName = "Cppcheck error"

	// ErrorClassName is the classname for per-file testcases
	ErrorClassName = "Cppcheck error"

	// SuccessCaseName is the single passing case emitted for clean reports
	SuccessCaseName = "Cppcheck success"

	// IssueClassPrefix prefixes the rule ID for per-issue testcases
	IssueClassPrefix = "cppcheck."

	// PropertyVersion names the suite property carrying the cppcheck version
	PropertyVersion = "cppcheck.version"

	// PropertyIssues names the suite property carrying the input issue count
	PropertyIssues = "cppcheck.issues"
)

// ============================================================================
// FILES
// ============================================================================

const (
	// ConfigFile is the config file looked up in the working directory
	ConfigFile = ".cppcheck-junit.yaml"

	// StdStream is the path that selects stdin or stdout
	StdStream = "-"

	// FilePermission is used for every output file we create
	FilePermission = 0o644
)

// ============================================================================
// PARSER LIMITS
// ============================================================================

const (
	// MaxReportBytes caps the input size read from a file or stdin (256 MiB)
	MaxReportBytes = 256 << 20

	// SupportedFormatVersion is the cppcheck XML format version we target
	SupportedFormatVersion = 2
)
