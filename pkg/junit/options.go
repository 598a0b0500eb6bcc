package junit

import (
	"errors"
	"fmt"
	"time"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
)

// ErrInvalidOption is returned for an unknown grouping, policy, element or layout.
var ErrInvalidOption = errors.New("junit: invalid option")

// Grouping selects how issues become test cases.
type Grouping string

const (
	// GroupByFile produces one test case per source file.
	GroupByFile Grouping = "file"
	// GroupByIssue produces one test case per issue.
	GroupByIssue Grouping = "issue"
)

// InformationPolicy decides whether informational findings fail.
type InformationPolicy string

const (
	// InformationPass records informational findings without failing.
	InformationPass InformationPolicy = "pass"
	// InformationFail treats informational findings like defects.
	InformationFail InformationPolicy = "fail"
)

// Element selects the child element used for failing issues.
type Element string

const (
	// ElementFailure emits <failure>.
	ElementFailure Element = "failure"
	// ElementError emits <error>.
	ElementError Element = "error"
)

// Layout selects the document shape.
type Layout string

const (
	// LayoutSuite emits a single <testsuite> root.
	LayoutSuite Layout = "suite"
	// LayoutBitbucket emits <testsuites> with one suite per file and one case per issue.
	LayoutBitbucket Layout = "bitbucket"
)

// Outcome is how a single issue is represented.
type Outcome string

const (
	// OutcomeFailed issues produce a failure or error element.
	OutcomeFailed Outcome = "failed"
	// OutcomePassed issues are recorded without failing.
	OutcomePassed Outcome = "passed"
	// OutcomeSuppressed issues matched the baseline.
	OutcomeSuppressed Outcome = "suppressed"
)

// Options configures Convert. The zero value is usable.
type Options struct {
	Grouping    Grouping
	Information InformationPolicy

	// Element defaults to failure, or error for the bitbucket layout.
	Element Element
	Layout  Layout

	// SuccessCase emits a single passing case when the report is empty.
	SuccessCase bool

	SuiteName string
	Hostname  string

	// Timestamp is written verbatim so output stays reproducible.
	// The zero time omits the attribute.
	Timestamp time.Time

	// PathBase makes absolute file paths relative to it.
	PathBase string

	// Suppressed holds the Index of issues that matched the baseline.
	Suppressed map[int]bool
}

// WithDefaults fills unset fields.
func (o Options) WithDefaults() Options {
	if o.Grouping == "" {
		o.Grouping = GroupByFile
	}
	if o.Information == "" {
		o.Information = InformationPass
	}
	if o.Layout == "" {
		o.Layout = LayoutSuite
	}
	if o.Element == "" {
		o.Element = ElementFailure
		if o.Layout == LayoutBitbucket {
			o.Element = ElementError
		}
	}
	if o.SuiteName == "" {
		o.SuiteName = defaults.SuiteName
	}
	return o
}

// Validate rejects unknown enum values. Empty values are valid.
func (o Options) Validate() error {
	switch o.Grouping {
	case "", GroupByFile, GroupByIssue:
	default:
		return fmt.Errorf("%w: grouping %q (want file or issue)", ErrInvalidOption, o.Grouping)
	}
	switch o.Information {
	case "", InformationPass, InformationFail:
	default:
		return fmt.Errorf("%w: information %q (want pass or fail)", ErrInvalidOption, o.Information)
	}
	switch o.Element {
	case "", ElementFailure, ElementError:
	default:
		return fmt.Errorf("%w: element %q (want failure or error)", ErrInvalidOption, o.Element)
	}
	switch o.Layout {
	case "", LayoutSuite, LayoutBitbucket:
	default:
		return fmt.Errorf("%w: layout %q (want suite or bitbucket)", ErrInvalidOption, o.Layout)
	}
	return nil
}

// Classify returns how issue is represented under o.
func (o Options) Classify(issue cppcheck.Issue) Outcome {
	if o.Suppressed[issue.Index] {
		return OutcomeSuppressed
	}
	if issue.Severity.IsDefect() || o.Information == InformationFail {
		return OutcomeFailed
	}
	return OutcomePassed
}
