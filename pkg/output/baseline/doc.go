// Package baseline records the issues of a reference run so later runs can
// tell known issues from new ones.
//
// The baseline supports CI/CD workflows where you want to:
//   - Fail only on NEW issues while legacy findings are worked down
//   - Track when known issues get fixed
//   - Update the baseline on main branch merges
//
// Known issues are still written to the JUnit document, as skipped testcases
// or system-out lines, so nothing disappears from the report.
//
// # Baseline File Format
//
//	{
//	  "version": "1.0",
//	  "created_at": "2026-01-15T10:30:00Z",
//	  "updated_at": "2026-01-20T14:45:00Z",
//	  "tool": "cppcheck-junit 2.2.0",
//	  "cppcheck_version": "2.13.0",
//	  "entries": [
//	    {
//	      "fingerprint": "5d1c0f5e2b7a9c3e8f4a6b1d0e2c7f93",
//	      "id": "nullPointer",
//	      "file": "src/a.c",
//	      "severity": "error",
//	      "line": 10,
//	      "first_seen": "2026-01-15T10:30:00Z"
//	    }
//	  ]
//	}
//
// # Issue Identity
//
// Issues are identified by a fingerprint over rule ID, relative file path and
// message. The line number is left out so unrelated edits that shift code do
// not turn a known issue into a new one.
//
// # Usage
//
//	b, err := baseline.Load("baseline.json")
//	if err != nil {
//	    return err
//	}
//	if b.Contains(baseline.Fingerprint(issue, pathBase)) {
//	    // known issue
//	}
//
// # Thread Safety
//
// All Baseline methods are safe for concurrent use.
package baseline
