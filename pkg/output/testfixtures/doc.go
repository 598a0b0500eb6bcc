// Package testfixtures provides shared test data for output testing.
//
// All sample issues and events used by writer, hook and pipeline tests are
// built here so every output format is checked against the same run.
//
// Usage:
//
//	evs := testfixtures.SampleEvents(testfixtures.RunID)
//	report := testfixtures.SampleReport()
//
// The sample run has five issues:
//
//	0  nullPointer             error        src/a.c:10  failed (CWE-476, two locations)
//	1  unusedVariable          style        src/b.c:3   failed
//	2  memleak                 error        src/a.c:22  failed
//	3  missingIncludeSystem    information  (no file)   passed
//	4  knownConditionTrueFalse style        src/c.c:7   suppressed by the baseline
package testfixtures
