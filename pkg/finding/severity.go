package finding

import (
	"fmt"
	"strings"
)

// Severity represents the severity level cppcheck assigned to a finding.
// Values are the lowercase strings cppcheck writes into its XML output.
type Severity string

const (
	// Error represents undefined behaviour or a certain bug (null dereference, leak).
	Error Severity = "error"

	// Warning represents suspicious code that is likely a bug.
	Warning Severity = "warning"

	// Style represents stylistic issues and dead code.
	Style Severity = "style"

	// Performance represents code that could be made faster.
	Performance Severity = "performance"

	// Portability represents code that may misbehave on other platforms or compilers.
	Portability Severity = "portability"

	// Information represents configuration notes (missing includes, checker limits).
	Information Severity = "information"

	// Debug represents cppcheck debug output, only present with --debug-warnings.
	Debug Severity = "debug"

	// None is used by cppcheck for internal messages without a severity.
	None Severity = "none"
)

// ordered lists every severity from most to least severe.
var ordered = []Severity{Error, Warning, Portability, Performance, Style, Information, Debug, None}

// Ordered returns all known severities, most severe first.
func Ordered() []Severity {
	out := make([]Severity, len(ordered))
	copy(out, ordered)
	return out
}

// OrderedStrings returns Ordered as plain strings.
func OrderedStrings() []string {
	out := make([]string, len(ordered))
	for i, s := range ordered {
		out[i] = string(s)
	}
	return out
}

// ParseSeverity converts a cppcheck severity attribute into a Severity.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
	}
	return sev, nil
}

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case Error, Warning, Style, Performance, Portability, Information, Debug, None:
		return true
	}
	return false
}

// IsDefect reports whether a finding of this severity should fail a build.
// Information, debug and none are informational.
func (s Severity) IsDefect() bool {
	switch s {
	case Error, Warning, Style, Performance, Portability:
		return true
	}
	return false
}

// Score returns a numeric score for sorting and comparison.
// Error=7, Warning=6, Portability=5, Performance=4, Style=3, Information=2, Debug=1, None/Unknown=0.
func (s Severity) Score() int {
	switch s {
	case Error:
		return 7
	case Warning:
		return 6
	case Portability:
		return 5
	case Performance:
		return 4
	case Style:
		return 3
	case Information:
		return 2
	case Debug:
		return 1
	default:
		return 0
	}
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// ToSARIF maps severity to SARIF result level.
// Error → error, Warning/Portability → warning, Performance/Style → note, rest → none.
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/
func (s Severity) ToSARIF() string {
	switch s {
	case Error:
		return "error"
	case Warning, Portability:
		return "warning"
	case Performance, Style:
		return "note"
	default:
		return "none"
	}
}

// ToSARIFScore maps severity to GitHub security-severity score.
func (s Severity) ToSARIFScore() string {
	switch s {
	case Error:
		return "8.0"
	case Warning:
		return "5.5"
	case Portability, Performance:
		return "3.0"
	case Style:
		return "2.0"
	default:
		return "0.0"
	}
}
