// Package finding provides the shared severity model for cppcheck findings.
//
// cppcheck reports a fixed set of severities. Most of them describe a
// defect that should fail a CI build; a few are purely informational.
// Every writer and the JUnit mapper classify severities through this
// package so the classification cannot drift between output formats.
//
// Usage:
//
//	sev, err := finding.ParseSeverity(attr)
//	if err != nil {
//	    return err
//	}
//	if sev.IsDefect() {
//	    // emit a failure
//	}
package finding
