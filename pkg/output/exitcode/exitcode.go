// Package exitcode provides semantic exit codes for CI/CD integration.
// Exit codes communicate conversion outcomes to automation pipelines.
//
// Exit codes:
//   - 0: Success (or issues found, when the issues code is left at 0)
//   - 1: Parse, schema, I/O or write failure
//   - 2: Invalid flags or configuration
//   - 3: Policy failure
//
// The code for "issues found" is configurable (the positional
// ERROR_EXITCODE argument or --error-exitcode) and defaults to 0.
package exitcode

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/config"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/junit"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/baseline"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/policy"
)

// Code represents a semantic exit code for CI/CD pipelines.
type Code int

const (
	// Success indicates the conversion completed with no failing issues.
	Success Code = defaults.ExitSuccess
	// Failure indicates the input could not be read or parsed, or an output could not be written.
	Failure Code = defaults.ExitFailure
	// Usage indicates invalid command line flags or configuration.
	Usage Code = defaults.ExitUserError
	// Policy indicates the policy file thresholds were exceeded.
	Policy Code = defaults.ExitPolicy
)

// ErrUsage marks command line errors. Wrap it with fmt.Errorf("...: %w", ErrUsage).
var ErrUsage = errors.New("invalid usage")

// codeStrings maps exit codes to machine-readable reasons.
var codeStrings = map[Code]string{
	Success: "success",
	Failure: "failure",
	Usage:   "usage_error",
	Policy:  "policy_failed",
}

// codeDescriptions provides detailed descriptions for exit codes.
var codeDescriptions = map[Code]string{
	Success: "Conversion completed with no failing issues",
	Failure: "Input could not be parsed or output could not be written",
	Usage:   "Invalid flags or configuration",
	Policy:  "Policy thresholds exceeded",
}

// issuesDescription is the reason reported when failing issues select the issues code.
const issuesDescription = "Cppcheck reported failing issues"

// usageErrors are the error classes mapped to Usage.
var usageErrors = []error{
	ErrUsage,
	config.ErrInvalidConfig,
	policy.ErrInvalidPolicy,
	baseline.ErrInvalidBaseline,
	junit.ErrInvalidOption,
}

// FromError maps an error to its exit code: nil is Success, configuration
// and usage errors are Usage, everything else is Failure.
func FromError(err error) Code {
	if err == nil {
		return Success
	}
	for _, target := range usageErrors {
		if errors.Is(err, target) {
			return Usage
		}
	}
	return Failure
}

// Config holds configuration for the exit code manager.
type Config struct {
	// IssuesCode is returned when at least one issue fails.
	// Default: 0, so findings alone never fail the build.
	IssuesCode int
}

// Manager tracks run outcomes and determines the appropriate exit code.
type Manager struct {
	cfg    Config
	failed int
	mu     sync.Mutex

	// Special state flags
	err            error
	policyFailures []string
}

// New creates a new exit code manager with the given configuration.
func New(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// Record records the outcome of one issue.
func (m *Manager) Record(outcome events.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if outcome == events.OutcomeFailed {
		m.failed++
	}
}

// SetError records a fatal error. The first error wins.
func (m *Manager) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err == nil {
		m.err = err
	}
}

// SetPolicyFailure marks that the policy rejected the run.
func (m *Manager) SetPolicyFailure(failures []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policyFailures = append(m.policyFailures, failures...)
	if len(m.policyFailures) == 0 {
		m.policyFailures = []string{"policy failed"}
	}
}

// ExitCode returns the appropriate exit code based on recorded outcomes.
// The returned string provides a human-readable reason for the code.
//
// Priority order (highest to lowest):
//  1. Fatal error (Failure or Usage)
//  2. Policy failure
//  3. Failing issues (IssuesCode)
//  4. Success
func (m *Manager) ExitCode() (Code, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		code := FromError(m.err)
		return code, fmt.Sprintf("%s: %v", codeDescriptions[code], m.err)
	}

	if len(m.policyFailures) > 0 {
		return Policy, fmt.Sprintf("%s (%d violations)", codeDescriptions[Policy], len(m.policyFailures))
	}

	if m.failed > 0 {
		return Code(m.cfg.IssuesCode), fmt.Sprintf("%s (count: %d)", issuesDescription, m.failed)
	}

	return Success, codeDescriptions[Success]
}

// Failed returns the number of failing issues recorded.
func (m *Manager) Failed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failed
}

// String returns the machine-readable name of the code.
func (c Code) String() string {
	return CodeString(c)
}

// CodeString returns the string representation of any exit code.
// Codes outside the fixed set come from a custom issues code.
func CodeString(code Code) string {
	if s, ok := codeStrings[code]; ok {
		return s
	}
	return fmt.Sprintf("issues_found_%d", int(code))
}

// CodeDescription returns a detailed description of an exit code.
func CodeDescription(code Code) string {
	if s, ok := codeDescriptions[code]; ok {
		return s
	}
	return fmt.Sprintf("%s (exit code %d)", issuesDescription, int(code))
}
