package junit

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
)

// TimestampLayout is the JUnit timestamp format (ISO 8601 without zone).
const TimestampLayout = "2006-01-02T15:04:05"

const suppressedMessage = "known issue (baseline)"

// Convert maps report onto a JUnit document. Convert is pure: the same
// report and options always produce the same document.
func Convert(report *cppcheck.Report, opts Options) *Document {
	opts = opts.WithDefaults()

	doc := &Document{Layout: opts.Layout, issues: report.Len()}
	if opts.Layout == LayoutBitbucket {
		doc.Suites = bitbucketSuites(report, opts)
		return doc
	}

	suite := newSuite(opts.SuiteName, opts)
	if report != nil && report.CppcheckVersion != "" {
		suite.addProperty(defaults.PropertyVersion, report.CppcheckVersion)
	}
	suite.addProperty(defaults.PropertyIssues, strconv.Itoa(report.Len()))

	switch {
	case report.Len() == 0:
		if opts.SuccessCase {
			suite.TestCases = append(suite.TestCases, successCase())
		}
	case opts.Grouping == GroupByIssue:
		for _, issue := range report.Issues {
			suite.TestCases = append(suite.TestCases, issueCase(issue, opts))
		}
	default:
		for _, group := range report.GroupByFile() {
			suite.TestCases = append(suite.TestCases, fileCase(group, opts))
		}
	}

	suite.recount()
	doc.Suites = []*TestSuite{suite}
	return doc
}

func newSuite(name string, opts Options) *TestSuite {
	s := &TestSuite{Name: name, Hostname: opts.Hostname}
	if !opts.Timestamp.IsZero() {
		s.Timestamp = opts.Timestamp.Format(TimestampLayout)
	}
	return s
}

func successCase() *TestCase {
	return &TestCase{Name: defaults.SuccessCaseName, ClassName: defaults.SuccessCaseName}
}

// displayName is the case name for a file; issues without a location share
// the generic error case.
func displayName(rel string) string {
	if rel == "" {
		return defaults.ErrorCaseName
	}
	return rel
}

func summaryLine(issue cppcheck.Issue) string {
	return fmt.Sprintf("%d: (%s) %s", issue.Line, issue.Severity, issue.Message)
}

func (o Options) attach(tc *TestCase, r Result) {
	if o.Element == ElementError {
		tc.Errors = append(tc.Errors, r)
		return
	}
	tc.Failures = append(tc.Failures, r)
}

// fileCase builds one case per source file. Each failing issue becomes one
// child element; passing and suppressed issues are listed in system-out.
func fileCase(group cppcheck.FileGroup, opts Options) *TestCase {
	rel := cppcheck.RelPath(group.File, opts.PathBase)
	tc := &TestCase{
		Name:      displayName(rel),
		ClassName: defaults.ErrorClassName,
		File:      rel,
	}

	var out []string
	suppressed := 0
	for _, issue := range group.Issues {
		switch opts.Classify(issue) {
		case OutcomeFailed:
			opts.attach(tc, Result{
				Message: summaryLine(issue),
				Type:    issue.ID,
				File:    rel,
				Line:    issue.Line,
				Body:    issue.Detail(),
			})
		case OutcomeSuppressed:
			suppressed++
			out = append(out, summaryLine(issue)+" ["+suppressedMessage+"]")
		default:
			out = append(out, summaryLine(issue))
		}
	}

	if suppressed == len(group.Issues) {
		tc.Skipped = &Skipped{Message: suppressedMessage}
	}
	tc.SystemOut = strings.Join(out, "\n")
	return tc
}

// issueCase builds one case per issue.
func issueCase(issue cppcheck.Issue, opts Options) *TestCase {
	rel := cppcheck.RelPath(issue.File, opts.PathBase)
	name := defaults.ErrorCaseName
	if rel != "" {
		name = rel + ":" + strconv.Itoa(issue.Line)
	}
	tc := &TestCase{
		Name:      name,
		ClassName: defaults.IssueClassPrefix + issue.ID,
		File:      rel,
		Line:      issue.Line,
	}

	switch opts.Classify(issue) {
	case OutcomeFailed:
		opts.attach(tc, Result{
			Message: summaryLine(issue),
			Type:    issue.ID,
			File:    rel,
			Line:    issue.Line,
			Body:    issue.Detail(),
		})
	case OutcomeSuppressed:
		tc.Skipped = &Skipped{Message: suppressedMessage}
	default:
		tc.SystemOut = summaryLine(issue)
	}
	return tc
}

// bitbucketSuites emits one suite per file with one case per issue, named
// so Bitbucket Pipelines can show them inline.
func bitbucketSuites(report *cppcheck.Report, opts Options) []*TestSuite {
	if report.Len() == 0 {
		if !opts.SuccessCase {
			return nil
		}
		s := newSuite(opts.SuiteName, opts)
		s.TestCases = []*TestCase{successCase()}
		s.recount()
		return []*TestSuite{s}
	}

	groups := report.GroupByFile()
	suites := make([]*TestSuite, 0, len(groups))
	for _, group := range groups {
		rel := cppcheck.RelPath(group.File, opts.PathBase)
		s := newSuite(displayName(rel), opts)
		s.addProperty(defaults.PropertyIssues, strconv.Itoa(len(group.Issues)))

		base := defaults.ErrorCaseName
		if rel != "" {
			base = path.Base(rel)
		}
		for _, issue := range group.Issues {
			tc := &TestCase{
				Name:      base + ":" + strconv.Itoa(issue.Line),
				ClassName: "(" + issue.Severity.String() + ")",
				File:      rel,
				Line:      issue.Line,
			}
			switch opts.Classify(issue) {
			case OutcomeFailed:
				opts.attach(tc, Result{
					Message: issue.Message,
					Type:    issue.Severity.String(),
					File:    rel,
					Line:    issue.Line,
					Body:    issue.Detail(),
				})
			case OutcomeSuppressed:
				tc.Skipped = &Skipped{Message: suppressedMessage}
			default:
				tc.SystemOut = summaryLine(issue)
			}
			s.TestCases = append(s.TestCases, tc)
		}
		s.recount()
		suites = append(suites, s)
	}
	return suites
}
