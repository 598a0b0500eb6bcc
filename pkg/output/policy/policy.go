package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
)

// ErrPolicyNotFound is returned when a policy file does not exist.
var ErrPolicyNotFound = errors.New("policy file not found")

// ErrInvalidPolicy is returned when a policy file is malformed.
var ErrInvalidPolicy = errors.New("invalid policy file")

// Policy represents a parsed policy configuration.
type Policy struct {
	Version string     `yaml:"version"`
	Name    string     `yaml:"name"`
	FailOn  FailOn     `yaml:"fail_on"`
	Ignore  IgnoreSpec `yaml:"ignore"`

	mu sync.RWMutex // protects evaluation
}

// FailOn defines conditions that cause a run to fail.
type FailOn struct {
	Issues IssueThresholds `yaml:"issues"`
	IDs    []string        `yaml:"ids"`
	CWEs   []int           `yaml:"cwes"`
}

// IssueThresholds defines maximum allowed issues by severity.
// A nil value means no threshold.
// A value of N means fail if issues > N.
type IssueThresholds struct {
	Defects     *int `yaml:"defects"`
	Error       *int `yaml:"error"`
	Warning     *int `yaml:"warning"`
	Style       *int `yaml:"style"`
	Performance *int `yaml:"performance"`
	Portability *int `yaml:"portability"`
	Information *int `yaml:"information"`
}

// IgnoreSpec defines patterns to ignore during evaluation.
type IgnoreSpec struct {
	// IDs are cppcheck rule IDs, e.g. "missingIncludeSystem".
	IDs []string `yaml:"ids"`

	// Files are slash-separated glob patterns (path.Match syntax). A pattern
	// without a slash also matches the base name; a trailing "/**" matches a
	// whole directory tree.
	Files []string `yaml:"files"`
}

// IssueRef is the part of an issue the policy looks at.
type IssueRef struct {
	ID       string
	Severity finding.Severity
	File     string
	CWE      int
}

// PolicyResult contains the outcome of a policy evaluation.
type PolicyResult struct {
	// Pass is true if the policy passed (no failures).
	Pass bool

	// Failures contains human-readable failure messages.
	Failures []string

	// Ignored is the number of issues excluded by the ignore rules.
	Ignored int

	// PolicyName is the name of the evaluated policy.
	PolicyName string
}

// LoadPolicy loads and parses a policy file from the given path.
// Returns ErrPolicyNotFound if the file doesn't exist.
// Returns ErrInvalidPolicy if the file is malformed.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPolicyNotFound, path)
		}
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	return ParsePolicy(data)
}

// ParsePolicy parses policy YAML data. Unknown keys are rejected so a
// misspelled threshold cannot silently disable a gate.
// Returns ErrInvalidPolicy if the data is malformed.
func ParsePolicy(data []byte) (*Policy, error) {
	var policy Policy
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&policy); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	if policy.Version == "" {
		policy.Version = "1.0"
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (p *Policy) validate() error {
	if p.Version != "1" && p.Version != "1.0" {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidPolicy, p.Version)
	}
	for name, limit := range p.thresholds() {
		if limit != nil && *limit < 0 {
			return fmt.Errorf("%w: fail_on.issues.%s must not be negative", ErrInvalidPolicy, name)
		}
	}
	for _, pattern := range p.Ignore.Files {
		if _, err := path.Match(strings.TrimSuffix(pattern, "/**"), ""); err != nil {
			return fmt.Errorf("%w: ignore.files %q: %v", ErrInvalidPolicy, pattern, err)
		}
	}
	return nil
}

// thresholds maps severity names (and "defects") to their limits.
func (p *Policy) thresholds() map[string]*int {
	t := p.FailOn.Issues
	return map[string]*int{
		"defects":                    t.Defects,
		finding.Error.String():       t.Error,
		finding.Warning.String():     t.Warning,
		finding.Style.String():       t.Style,
		finding.Performance.String(): t.Performance,
		finding.Portability.String(): t.Portability,
		finding.Information.String(): t.Information,
	}
}

// Evaluate evaluates the policy against the issues of a run. Callers pass
// only issues that still count, i.e. without baseline-suppressed ones.
// This method is thread-safe.
func (p *Policy) Evaluate(issues []IssueRef) PolicyResult {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := PolicyResult{
		Pass:       true,
		Failures:   make([]string, 0),
		PolicyName: p.Name,
	}

	ignoreIDs := make(map[string]bool)
	for _, id := range p.Ignore.IDs {
		ignoreIDs[id] = true
	}

	var kept []IssueRef
	for _, is := range issues {
		if ignoreIDs[is.ID] || p.ignoresFile(is.File) {
			result.Ignored++
			continue
		}
		kept = append(kept, is)
	}

	p.checkThresholds(&result, kept)
	p.checkIDs(&result, kept)
	p.checkCWEs(&result, kept)

	if len(result.Failures) > 0 {
		result.Pass = false
	}
	return result
}

func (p *Policy) ignoresFile(file string) bool {
	if file == "" {
		return false
	}
	file = strings.TrimPrefix(path.Clean(strings.ReplaceAll(file, "\\", "/")), "./")
	for _, pattern := range p.Ignore.Files {
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if file == dir || strings.HasPrefix(file, dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pattern, file); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := path.Match(pattern, path.Base(file)); ok {
				return true
			}
		}
	}
	return false
}

// checkThresholds checks issue count thresholds, most severe first.
func (p *Policy) checkThresholds(result *PolicyResult, issues []IssueRef) {
	counts := make(map[finding.Severity]int)
	defects := 0
	for _, is := range issues {
		counts[is.Severity]++
		if is.Severity.IsDefect() {
			defects++
		}
	}

	limits := p.thresholds()
	if limit := limits["defects"]; limit != nil && defects > *limit {
		result.Failures = append(result.Failures,
			fmt.Sprintf("defects (%d) exceeds threshold (%d)", defects, *limit))
	}
	for _, sev := range finding.Ordered() {
		limit := limits[sev.String()]
		if limit == nil {
			continue
		}
		if count := counts[sev]; count > *limit {
			result.Failures = append(result.Failures,
				fmt.Sprintf("%s issues (%d) exceeds threshold (%d)", sev, count, *limit))
		}
	}
}

// checkIDs fails on any issue whose rule ID is listed.
func (p *Policy) checkIDs(result *PolicyResult, issues []IssueRef) {
	for _, id := range p.FailOn.IDs {
		count := 0
		for _, is := range issues {
			if is.ID == id {
				count++
			}
		}
		if count > 0 {
			result.Failures = append(result.Failures,
				fmt.Sprintf("issues with id '%s' detected (%d found)", id, count))
		}
	}
}

// checkCWEs fails on any issue tagged with a listed CWE.
func (p *Policy) checkCWEs(result *PolicyResult, issues []IssueRef) {
	for _, cwe := range p.FailOn.CWEs {
		count := 0
		for _, is := range issues {
			if is.CWE == cwe {
				count++
			}
		}
		if count > 0 {
			result.Failures = append(result.Failures,
				fmt.Sprintf("issues with CWE-%d detected (%d found)", cwe, count))
		}
	}
}

// String returns a human-readable representation of the policy.
func (p *Policy) String() string {
	if p.Name != "" {
		return fmt.Sprintf("Policy(%s v%s)", p.Name, p.Version)
	}
	return fmt.Sprintf("Policy(v%s)", p.Version)
}

// intPtr is a helper to create a pointer to an int.
func intPtr(i int) *int {
	return &i
}
