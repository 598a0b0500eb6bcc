// Package cppcheck parses cppcheck XML reports into an ordered list of issues.
//
// The parser targets the format written by "cppcheck --xml --xml-version=2":
//
//	<results version="2">
//	  <cppcheck version="2.13.0"/>
//	  <errors>
//	    <error id="nullPointer" severity="error" msg="Null pointer dereference"
//	           verbose="Null pointer dereference: p" cwe="476">
//	      <location file="src/a.c" line="10" column="5"/>
//	      <symbol>p</symbol>
//	    </error>
//	  </errors>
//	</results>
//
// The legacy layout, where <error> elements sit directly under <results> and
// carry file and line attributes, is accepted unless ParseOptions.RequireVersion2
// is set.
//
// # Errors
//
// Malformed XML yields a *ParseError; well-formed XML that does not describe a
// cppcheck report yields a *SchemaError. Both match ErrParse or ErrSchema with
// errors.Is. On error no Report is returned, so callers can never act on a
// partially parsed document.
package cppcheck
