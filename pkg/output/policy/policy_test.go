package policy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantErr     bool
		errContains string
		validate    func(t *testing.T, p *Policy)
	}{
		{
			name: "valid full policy",
			content: `
version: "1.0"
name: "release-gate"
fail_on:
  issues:
    defects: 10
    error: 0
    warning: 5
  ids:
    - nullPointer
  cwes:
    - 476
ignore:
  ids:
    - missingIncludeSystem
  files:
    - "third_party/**"
`,
			validate: func(t *testing.T, p *Policy) {
				if p.Name != "release-gate" {
					t.Errorf("got name %q, want %q", p.Name, "release-gate")
				}
				if p.FailOn.Issues.Defects == nil || *p.FailOn.Issues.Defects != 10 {
					t.Errorf("got defects threshold %v, want 10", p.FailOn.Issues.Defects)
				}
				if p.FailOn.Issues.Error == nil || *p.FailOn.Issues.Error != 0 {
					t.Errorf("got error threshold %v, want 0", p.FailOn.Issues.Error)
				}
				if p.FailOn.Issues.Style != nil {
					t.Errorf("style threshold should be unset, got %v", *p.FailOn.Issues.Style)
				}
				if len(p.FailOn.CWEs) != 1 || p.FailOn.CWEs[0] != 476 {
					t.Errorf("got cwes %v, want [476]", p.FailOn.CWEs)
				}
				if len(p.Ignore.Files) != 1 {
					t.Errorf("got %d ignored file patterns, want 1", len(p.Ignore.Files))
				}
			},
		},
		{
			name:    "empty policy",
			content: "",
			validate: func(t *testing.T, p *Policy) {
				if p.Version != "1.0" {
					t.Errorf("default version should be 1.0, got %q", p.Version)
				}
			},
		},
		{
			name:        "invalid yaml",
			content:     "fail_on: [",
			wantErr:     true,
			errContains: "invalid policy",
		},
		{
			name: "unknown key",
			content: `
fail_on:
  issues:
    errors: 0
`,
			wantErr:     true,
			errContains: "errors",
		},
		{
			name: "negative threshold",
			content: `
fail_on:
  issues:
    warning: -1
`,
			wantErr:     true,
			errContains: "fail_on.issues.warning",
		},
		{
			name:        "unsupported version",
			content:     `version: "2.0"`,
			wantErr:     true,
			errContains: "unsupported version",
		},
		{
			name: "bad glob",
			content: `
ignore:
  files: ["src/["]
`,
			wantErr:     true,
			errContains: "ignore.files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePolicy([]byte(tt.content))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidPolicy) {
					t.Errorf("error %v should wrap ErrInvalidPolicy", err)
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicy(filepath.Join(dir, "nope.yaml"))
		if !errors.Is(err, ErrPolicyNotFound) {
			t.Errorf("expected ErrPolicyNotFound, got %v", err)
		}
	})

	t.Run("file on disk", func(t *testing.T) {
		path := filepath.Join(dir, "policy.yaml")
		if err := os.WriteFile(path, []byte("name: disk\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		p, err := LoadPolicy(path)
		if err != nil {
			t.Fatalf("LoadPolicy: %v", err)
		}
		if p.String() != "Policy(disk v1.0)" {
			t.Errorf("String() = %q", p.String())
		}
	})
}

func sampleIssues() []IssueRef {
	return []IssueRef{
		{ID: "nullPointer", Severity: finding.Error, File: "src/a.c", CWE: 476},
		{ID: "memleak", Severity: finding.Error, File: "src/b.c", CWE: 401},
		{ID: "unusedVariable", Severity: finding.Style, File: "src/a.c"},
		{ID: "unusedVariable", Severity: finding.Style, File: "third_party/zlib/inflate.c"},
		{ID: "missingIncludeSystem", Severity: finding.Information},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		policy       *Policy
		wantPass     bool
		wantFailures []string
		wantIgnored  int
	}{
		{
			name:     "no rules passes",
			policy:   &Policy{},
			wantPass: true,
		},
		{
			name: "error threshold exceeded",
			policy: &Policy{FailOn: FailOn{Issues: IssueThresholds{
				Error: intPtr(1),
			}}},
			wantPass:     false,
			wantFailures: []string{"error issues (2) exceeds threshold (1)"},
		},
		{
			name: "threshold equal to count passes",
			policy: &Policy{FailOn: FailOn{Issues: IssueThresholds{
				Error: intPtr(2),
				Style: intPtr(2),
			}}},
			wantPass: true,
		},
		{
			name: "defects exclude information",
			policy: &Policy{FailOn: FailOn{Issues: IssueThresholds{
				Defects: intPtr(3),
			}}},
			wantPass:     false,
			wantFailures: []string{"defects (4) exceeds threshold (3)"},
		},
		{
			name: "ignored file and id",
			policy: &Policy{
				FailOn: FailOn{Issues: IssueThresholds{Defects: intPtr(3), Information: intPtr(0)}},
				Ignore: IgnoreSpec{IDs: []string{"missingIncludeSystem"}, Files: []string{"third_party/**"}},
			},
			wantPass:    true,
			wantIgnored: 2,
		},
		{
			name: "basename glob",
			policy: &Policy{
				FailOn: FailOn{Issues: IssueThresholds{Error: intPtr(0)}},
				Ignore: IgnoreSpec{Files: []string{"*.c"}},
			},
			wantPass:    true,
			wantIgnored: 4,
		},
		{
			name:         "forbidden id",
			policy:       &Policy{FailOn: FailOn{IDs: []string{"memleak", "uninitvar"}}},
			wantPass:     false,
			wantFailures: []string{"issues with id 'memleak' detected (1 found)"},
		},
		{
			name:         "forbidden cwe",
			policy:       &Policy{FailOn: FailOn{CWEs: []int{476}}},
			wantPass:     false,
			wantFailures: []string{"issues with CWE-476 detected (1 found)"},
		},
		{
			name: "failures ordered by severity",
			policy: &Policy{FailOn: FailOn{Issues: IssueThresholds{
				Style: intPtr(0),
				Error: intPtr(0),
			}}},
			wantPass: false,
			wantFailures: []string{
				"error issues (2) exceeds threshold (0)",
				"style issues (2) exceeds threshold (0)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.policy.Evaluate(sampleIssues())

			if result.Pass != tt.wantPass {
				t.Errorf("Pass = %v, want %v (failures: %v)", result.Pass, tt.wantPass, result.Failures)
			}
			if len(result.Failures) != len(tt.wantFailures) {
				t.Fatalf("got %d failures %v, want %d", len(result.Failures), result.Failures, len(tt.wantFailures))
			}
			for i, want := range tt.wantFailures {
				if result.Failures[i] != want {
					t.Errorf("failure[%d] = %q, want %q", i, result.Failures[i], want)
				}
			}
			if result.Ignored != tt.wantIgnored {
				t.Errorf("Ignored = %d, want %d", result.Ignored, tt.wantIgnored)
			}
		})
	}
}

func TestIgnoresFile(t *testing.T) {
	p := &Policy{Ignore: IgnoreSpec{Files: []string{"vendor/**", "src/gen_*.c", "*.pb.cc"}}}

	tests := []struct {
		file string
		want bool
	}{
		{"vendor/lib/a.c", true},
		{"vendor", true},
		{"vendored/a.c", false},
		{"src/gen_tables.c", true},
		{"src/sub/gen_tables.c", false},
		{"proto/msg.pb.cc", true},
		{"./vendor/x.c", true},
		{`vendor\win\x.c`, true},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.ignoresFile(tt.file); got != tt.want {
			t.Errorf("ignoresFile(%q) = %v, want %v", tt.file, got, tt.want)
		}
	}
}

func TestEvaluateConcurrent(t *testing.T) {
	p := &Policy{FailOn: FailOn{Issues: IssueThresholds{Error: intPtr(0)}}}
	issues := sampleIssues()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r := p.Evaluate(issues); r.Pass {
				t.Error("expected failure")
			}
		}()
	}
	wg.Wait()
}
