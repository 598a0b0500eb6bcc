package cppcheck

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/iohelper"
)

// ParseOptions configures the parser.
type ParseOptions struct {
	// RequireVersion2 rejects documents without results version="2",
	// including the legacy v1 layout.
	RequireVersion2 bool
}

// rawError captures the children of an <error> element.
type rawError struct {
	Locations []rawLocation `xml:"location"`
	Symbols   []string      `xml:"symbol"`
}

type rawLocation struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

// Parse reads a cppcheck XML report from r.
func Parse(r io.Reader, opts ParseOptions) (*Report, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	p := &parser{dec: dec, opts: opts}
	report, err := p.parse()
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ParseBytes parses an in-memory report.
func ParseBytes(data []byte, opts ParseOptions) (*Report, error) {
	return Parse(bytes.NewReader(data), opts)
}

// ParseFile reads and parses the report at path. "-" reads standard input.
func ParseFile(path string, opts ParseOptions) (*Report, error) {
	data, err := iohelper.ReadFile(path, iohelper.DefaultMaxReportSize)
	if err != nil {
		return nil, fmt.Errorf("cppcheck: read %s: %w", path, err)
	}
	return ParseBytes(data, opts)
}

type parser struct {
	dec  *xml.Decoder
	opts ParseOptions
}

// next returns the next token, converting decoder failures into *ParseError.
// io.EOF is returned unchanged.
func (p *parser) next() (xml.Token, error) {
	tok, err := p.dec.Token()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, p.parseError(err)
	}
	return tok, nil
}

func (p *parser) parseError(err error) *ParseError {
	line, col := p.dec.InputPos()
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		return &ParseError{Line: syntax.Line, Column: col, Err: errors.New(syntax.Msg)}
	}
	return &ParseError{Line: line, Column: col, Err: err}
}

func (p *parser) line() int {
	line, _ := p.dec.InputPos()
	return line
}

func (p *parser) parse() (*Report, error) {
	root, err := p.root()
	if err != nil {
		return nil, err
	}

	report := &Report{Issues: []Issue{}}
	if err := p.version(root, report); err != nil {
		return nil, err
	}

	if err := p.results(report); err != nil {
		return nil, err
	}

	if err := p.trailer(); err != nil {
		return nil, err
	}
	return report, nil
}

// root skips the prolog and returns the document element.
func (p *parser) root() (xml.StartElement, error) {
	for {
		tok, err := p.next()
		if err == io.EOF {
			return xml.StartElement{}, &ParseError{Line: p.line(), Err: ErrEmptyDocument}
		}
		if err != nil {
			return xml.StartElement{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "results" {
				return xml.StartElement{}, &SchemaError{
					Element: t.Name.Local,
					Line:    p.line(),
					Reason:  "root element must be <results>",
				}
			}
			return t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return xml.StartElement{}, &ParseError{Line: p.line(), Err: errors.New("text before root element")}
			}
		}
	}
}

func (p *parser) version(root xml.StartElement, report *Report) error {
	v, ok := attr(root.Attr, "version")
	v = strings.TrimSpace(v)
	switch {
	case ok && v == strconv.Itoa(defaults.SupportedFormatVersion):
		report.FormatVersion = 2
		return nil
	case (!ok || v == "1") && !p.opts.RequireVersion2:
		report.FormatVersion = 1
		return nil
	}
	reason := fmt.Sprintf("version %q is not supported, use --xml-version=2", v)
	if !ok {
		reason = "missing version, use --xml-version=2"
	}
	return &SchemaError{
		Element: "results",
		Attr:    "version",
		Line:    p.line(),
		Reason:  reason,
		Err:     ErrUnsupportedVersion,
	}
}

// results consumes the children of <results> up to its end tag.
func (p *parser) results(report *Report) error {
	for {
		tok, err := p.next()
		if err == io.EOF {
			return &ParseError{Line: p.line(), Err: errors.New("unexpected EOF")}
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "cppcheck":
				report.CppcheckVersion, _ = attr(t.Attr, "version")
				if err := p.skip(); err != nil {
					return err
				}
			case "errors":
				if err := p.errorList(report); err != nil {
					return err
				}
			case "error":
				if err := p.issue(t, report); err != nil {
					return err
				}
			default:
				if err := p.skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) errorList(report *Report) error {
	for {
		tok, err := p.next()
		if err == io.EOF {
			return &ParseError{Line: p.line(), Err: errors.New("unexpected EOF")}
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "error" {
				if err := p.issue(t, report); err != nil {
					return err
				}
				continue
			}
			if err := p.skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *parser) skip() error {
	if err := p.dec.Skip(); err != nil {
		return p.parseError(err)
	}
	return nil
}

// trailer reads to EOF so that garbage after </results> is reported.
func (p *parser) trailer() error {
	for {
		tok, err := p.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return &ParseError{Line: p.line(), Err: fmt.Errorf("unexpected element <%s> after root element", t.Name.Local)}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return &ParseError{Line: p.line(), Err: errors.New("text after root element")}
			}
		}
	}
}

func (p *parser) issue(start xml.StartElement, report *Report) error {
	line := p.line()

	var raw rawError
	if err := p.dec.DecodeElement(&raw, &start); err != nil {
		return p.parseError(err)
	}

	schemaErr := func(name, reason string, cause error) error {
		return &SchemaError{Element: "error", Attr: name, Line: line, Reason: reason, Err: cause}
	}

	id, ok := attr(start.Attr, "id")
	if !ok || id == "" {
		return schemaErr("id", "missing required attribute", nil)
	}
	sevAttr, ok := attr(start.Attr, "severity")
	if !ok || sevAttr == "" {
		return schemaErr("severity", "missing required attribute", nil)
	}
	msg, ok := attr(start.Attr, "msg")
	if !ok {
		return schemaErr("msg", "missing required attribute", nil)
	}
	sev, err := finding.ParseSeverity(sevAttr)
	if err != nil {
		return schemaErr("severity", "invalid value", err)
	}

	issue := Issue{
		Index:    len(report.Issues),
		ID:       id,
		Severity: sev,
		Message:  msg,
		Verbose:  msg,
	}
	if v, ok := attr(start.Attr, "verbose"); ok && v != "" {
		issue.Verbose = v
	}
	issue.File0, _ = attr(start.Attr, "file0")
	if v, _ := attr(start.Attr, "inconclusive"); v == "true" {
		issue.Inconclusive = true
	}
	if v, ok := attr(start.Attr, "cwe"); ok && v != "" {
		cwe, err := parseNonNegative(v)
		if err != nil {
			return schemaErr("cwe", "invalid value", err)
		}
		issue.CWE = cwe
	}

	for _, rl := range raw.Locations {
		loc, err := location(rl.Attrs)
		if err != nil {
			var se *SchemaError
			if errors.As(err, &se) {
				se.Line = line
			}
			return err
		}
		issue.Locations = append(issue.Locations, loc)
	}

	// Legacy layout: the location lives on the <error> element itself.
	if len(issue.Locations) == 0 {
		if file, ok := attr(start.Attr, "file"); ok {
			loc := Location{File: file}
			if v, ok := attr(start.Attr, "line"); ok && v != "" {
				n, err := parseNonNegative(v)
				if err != nil {
					return schemaErr("line", "invalid value", err)
				}
				loc.Line = n
			}
			issue.Locations = append(issue.Locations, loc)
		}
	}

	if len(issue.Locations) > 0 {
		primary := issue.Locations[0]
		issue.File, issue.Line, issue.Column = primary.File, primary.Line, primary.Column
	}

	for _, s := range raw.Symbols {
		if s = strings.TrimSpace(s); s != "" {
			issue.Symbols = append(issue.Symbols, s)
		}
	}

	report.Issues = append(report.Issues, issue)
	return nil
}

func location(attrs []xml.Attr) (Location, error) {
	schemaErr := func(name, reason string, cause error) error {
		return &SchemaError{Element: "location", Attr: name, Reason: reason, Err: cause}
	}

	var loc Location
	file, ok := attr(attrs, "file")
	if !ok {
		return loc, schemaErr("file", "missing required attribute", nil)
	}
	loc.File = file

	lineAttr, ok := attr(attrs, "line")
	if !ok {
		return loc, schemaErr("line", "missing required attribute", nil)
	}
	n, err := parseNonNegative(lineAttr)
	if err != nil {
		return loc, schemaErr("line", "invalid value", err)
	}
	loc.Line = n

	if v, ok := attr(attrs, "column"); ok && v != "" {
		col, err := parseNonNegative(v)
		if err != nil {
			return loc, schemaErr("column", "invalid value", err)
		}
		loc.Column = col
	}
	loc.Info, _ = attr(attrs, "info")
	return loc, nil
}

func parseNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

func attr(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}
