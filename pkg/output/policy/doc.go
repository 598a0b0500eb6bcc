// Package policy provides a policy engine for evaluating cppcheck results
// against user-defined rules to determine CI/CD pass/fail outcomes.
//
// The policy engine parses YAML policy files that define conditions under which
// a run should be considered a failure, independently of the JUnit document:
//   - Issue thresholds (defects in total, or by severity)
//   - Rule IDs that must never appear
//   - CWE IDs that must never appear
//
// # Policy File Format
//
//	version: "1.0"
//	name: "release-gate"
//
//	fail_on:
//	  issues:
//	    defects: 10        # Fail if more than 10 defects
//	    error: 0           # Fail on any error
//	    warning: 5
//	  ids:
//	    - nullPointer
//	  cwes:
//	    - 476
//
//	ignore:
//	  ids:
//	    - missingIncludeSystem
//	  files:
//	    - "third_party/**"
//	    - "*_generated.c"
//
// # Usage
//
//	p, err := policy.LoadPolicy("policy.yaml")
//	if err != nil {
//	    return err
//	}
//	result := p.Evaluate(refs)
//	if !result.Pass {
//	    fmt.Printf("Policy failed: %v\n", result.Failures)
//	}
//
// # Thread Safety
//
// Policy evaluation is thread-safe. A single Policy instance can be used
// concurrently from multiple goroutines.
package policy
