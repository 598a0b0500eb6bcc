package cppcheck

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers should use errors.Is() to check for these.
var (
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("cppcheck: malformed XML")

	// ErrSchema matches every *SchemaError.
	ErrSchema = errors.New("cppcheck: invalid report")

	// ErrUnsupportedVersion is wrapped by the SchemaError for an unknown results version.
	ErrUnsupportedVersion = errors.New("unsupported cppcheck XML version")

	// ErrEmptyDocument is wrapped by the ParseError for input without a root element.
	ErrEmptyDocument = errors.New("document has no root element")
)

// ParseError reports input that is not well-formed XML.
type ParseError struct {
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("%s at line %d, column %d: %v", ErrParse, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s at line %d: %v", ErrParse, e.Line, e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// SchemaError reports well-formed XML that breaks the cppcheck report schema:
// a missing required attribute, a non-numeric line, an unknown severity or an
// unsupported format version.
type SchemaError struct {
	Element string
	Attr    string
	Line    int
	Reason  string
	Err     error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("%s: <%s> at line %d", ErrSchema, e.Element, e.Line)
	if e.Attr != "" {
		msg += fmt.Sprintf(", attribute %q", e.Attr)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause, if any.
func (e *SchemaError) Unwrap() error { return e.Err }

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
