// Package junit maps parsed cppcheck reports onto the JUnit XML model and
// serializes it.
//
// JUnit XML has no formal standard; the element and attribute set here is the
// common subset understood by Jenkins, GitLab, GitHub Actions reporters,
// Azure DevOps and Bitbucket Pipelines.
package junit

import "encoding/xml"

// TestSuites is the <testsuites> root used by the bitbucket layout.
type TestSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Name     string       `xml:"name,attr,omitempty"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Errors   int          `xml:"errors,attr"`
	Skipped  int          `xml:"skipped,attr"`
	Time     float64      `xml:"time,attr"`
	Suites   []*TestSuite `xml:"testsuite"`
}

// TestSuite is a <testsuite> element.
type TestSuite struct {
	XMLName    xml.Name    `xml:"testsuite"`
	Name       string      `xml:"name,attr"`
	Tests      int         `xml:"tests,attr"`
	Failures   int         `xml:"failures,attr"`
	Errors     int         `xml:"errors,attr"`
	Skipped    int         `xml:"skipped,attr"`
	Time       float64     `xml:"time,attr"`
	Timestamp  string      `xml:"timestamp,attr,omitempty"`
	Hostname   string      `xml:"hostname,attr,omitempty"`
	Properties *Properties `xml:"properties,omitempty"`
	TestCases  []*TestCase `xml:"testcase"`
}

// Properties is the <properties> block of a suite.
type Properties struct {
	Property []Property `xml:"property"`
}

// Property is a single name/value pair.
type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// TestCase is a <testcase> element. A case fails when it has at least one
// failure or error child.
type TestCase struct {
	Name      string   `xml:"name,attr"`
	ClassName string   `xml:"classname,attr"`
	Time      float64  `xml:"time,attr"`
	File      string   `xml:"file,attr,omitempty"`
	Line      int      `xml:"line,attr,omitempty"`
	Failures  []Result `xml:"failure"`
	Errors    []Result `xml:"error"`
	Skipped   *Skipped `xml:"skipped,omitempty"`
	SystemOut string   `xml:"system-out,omitempty"`
}

// Failed reports whether the case carries a failure or error.
func (tc *TestCase) Failed() bool {
	return len(tc.Failures) > 0 || len(tc.Errors) > 0
}

// Result is the body of a <failure> or <error> element.
type Result struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	File    string `xml:"file,attr,omitempty"`
	Line    int    `xml:"line,attr,omitempty"`
	Body    string `xml:",chardata"`
}

// Skipped marks a case as skipped.
type Skipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// Totals are the aggregate counts of a suite or document.
type Totals struct {
	Tests    int
	Failures int
	Errors   int
	Skipped  int
}

func (t *Totals) add(o Totals) {
	t.Tests += o.Tests
	t.Failures += o.Failures
	t.Errors += o.Errors
	t.Skipped += o.Skipped
}

// Count recomputes the suite counters from its test cases.
// tests is the number of cases, failures and errors count elements.
func (s *TestSuite) Count() Totals {
	var t Totals
	t.Tests = len(s.TestCases)
	for _, tc := range s.TestCases {
		t.Failures += len(tc.Failures)
		t.Errors += len(tc.Errors)
		if tc.Skipped != nil {
			t.Skipped++
		}
	}
	return t
}

func (s *TestSuite) recount() {
	t := s.Count()
	s.Tests, s.Failures, s.Errors, s.Skipped = t.Tests, t.Failures, t.Errors, t.Skipped
}

func (s *TestSuite) addProperty(name, value string) {
	if s.Properties == nil {
		s.Properties = &Properties{}
	}
	s.Properties.Property = append(s.Properties.Property, Property{Name: name, Value: value})
}

// Property returns the value of the named suite property.
func (s *TestSuite) Property(name string) (string, bool) {
	if s.Properties == nil {
		return "", false
	}
	for _, p := range s.Properties.Property {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Document is a converted report ready for serialization.
type Document struct {
	// Layout selects the root element: a single <testsuite> or <testsuites>.
	Layout Layout

	// Suites holds exactly one suite for LayoutSuite, one per file for LayoutBitbucket.
	Suites []*TestSuite

	issues int
}

// Suite returns the first suite, or nil when there is none.
func (d *Document) Suite() *TestSuite {
	if d == nil || len(d.Suites) == 0 {
		return nil
	}
	return d.Suites[0]
}

// TestCases returns every case in document order.
func (d *Document) TestCases() []*TestCase {
	var out []*TestCase
	for _, s := range d.Suites {
		out = append(out, s.TestCases...)
	}
	return out
}

// Totals sums the counters of every suite.
func (d *Document) Totals() Totals {
	var t Totals
	for _, s := range d.Suites {
		t.add(s.Count())
	}
	return t
}

// IssueCount is the number of cppcheck issues represented in the document.
// It always equals the number of issues in the converted report.
func (d *Document) IssueCount() int {
	return d.issues
}

func (d *Document) root() any {
	if d.Layout == LayoutBitbucket {
		t := d.Totals()
		return &TestSuites{
			Tests:    t.Tests,
			Failures: t.Failures,
			Errors:   t.Errors,
			Skipped:  t.Skipped,
			Suites:   d.Suites,
		}
	}
	if s := d.Suite(); s != nil {
		return s
	}
	return &TestSuite{}
}
