package baseline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/cppcheck"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/iohelper"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/jsonutil"
)

// Version is the current baseline file format version.
const Version = "1.0"

// ErrBaselineNotFound is returned when a baseline file does not exist.
var ErrBaselineNotFound = errors.New("baseline file not found")

// ErrInvalidBaseline is returned when a baseline file is malformed.
var ErrInvalidBaseline = errors.New("invalid baseline file")

// Baseline is the set of known issues recorded from a reference run.
type Baseline struct {
	Version         string    `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Tool            string    `json:"tool,omitempty"`
	CppcheckVersion string    `json:"cppcheck_version,omitempty"`
	Entries         []Entry   `json:"entries"`

	mu sync.RWMutex
}

// Entry is a single known issue.
type Entry struct {
	Fingerprint string    `json:"fingerprint"`
	ID          string    `json:"id"`
	File        string    `json:"file"`
	Severity    string    `json:"severity"`
	Line        int       `json:"line,omitzero"`
	FirstSeen   time.Time `json:"first_seen,omitzero"`
}

// ComparisonResult contains the outcome of comparing current issues against a baseline.
type ComparisonResult struct {
	// New contains issues in the current run but not in the baseline.
	New []Entry

	// Fixed contains baseline issues missing from the current run.
	Fixed []Entry

	// Unchanged contains issues present in both.
	Unchanged []Entry

	// HasNew is true if there are any new issues.
	HasNew bool

	// Summary is a human-readable summary of the comparison.
	Summary string
}

// New creates a new empty baseline.
func New() *Baseline {
	now := time.Now().UTC()
	return &Baseline{
		Version:   Version,
		CreatedAt: now,
		UpdatedAt: now,
		Tool:      defaults.ToolVersionString(),
		Entries:   []Entry{},
	}
}

// Fingerprint identifies an issue independently of its line number and of
// the absolute checkout path: the file is made relative to base first.
func Fingerprint(issue cppcheck.Issue, base string) string {
	issue.File = cppcheck.RelPath(issue.File, base)
	return issue.Fingerprint()
}

// Load loads and parses a baseline file from the given path.
// Returns ErrBaselineNotFound if the file doesn't exist.
// Returns ErrInvalidBaseline if the file is malformed.
func Load(path string) (*Baseline, error) {
	data, err := iohelper.ReadFile(path, defaults.MaxReportBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBaselineNotFound, path)
		}
		return nil, fmt.Errorf("reading baseline file: %w", err)
	}
	return Parse(data)
}

// Parse decodes baseline JSON.
func Parse(data []byte) (*Baseline, error) {
	var b Baseline
	if err := jsonutil.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseline, err)
	}

	// Validate required fields
	if b.Version == "" {
		return nil, fmt.Errorf("%w: missing version field", ErrInvalidBaseline)
	}
	if b.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidBaseline, b.Version)
	}
	for i, e := range b.Entries {
		if e.Fingerprint == "" {
			return nil, fmt.Errorf("%w: entry %d has no fingerprint", ErrInvalidBaseline, i)
		}
	}
	if b.Entries == nil {
		b.Entries = []Entry{}
	}
	return &b, nil
}

// Save writes the baseline to path ("-" writes to stdout).
func (b *Baseline) Save(path string) error {
	out, err := iohelper.CreateOutput(path)
	if err != nil {
		return fmt.Errorf("writing baseline file: %w", err)
	}
	if err := b.Write(out); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("writing baseline file: %w", err)
	}
	return nil
}

// Write encodes the baseline as indented JSON.
func (b *Baseline) Write(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.UpdatedAt = time.Now().UTC()

	data, err := jsonutil.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling baseline: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing baseline file: %w", err)
	}
	return nil
}

// FromReport creates a baseline holding every issue of the report.
func FromReport(report *cppcheck.Report, base string) *Baseline {
	b := New()
	if report != nil {
		b.CppcheckVersion = report.CppcheckVersion
	}

	entries := ExtractEntries(report, base)
	for i := range entries {
		entries[i].FirstSeen = b.CreatedAt
	}
	b.Entries = entries
	return b
}

// ExtractEntries converts report issues to baseline entries, deduplicated by
// fingerprint and sorted by file, ID and line.
func ExtractEntries(report *cppcheck.Report, base string) []Entry {
	entries := []Entry{}
	if report == nil {
		return entries
	}
	seen := make(map[string]bool)

	for _, issue := range report.Issues {
		fp := Fingerprint(issue, base)
		if seen[fp] {
			continue
		}
		seen[fp] = true

		entries = append(entries, Entry{
			Fingerprint: fp,
			ID:          issue.ID,
			File:        cppcheck.RelPath(issue.File, base),
			Severity:    issue.Severity.String(),
			Line:        issue.Line,
		})
	}

	// Sort for deterministic output
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].File != entries[j].File {
			return entries[i].File < entries[j].File
		}
		if entries[i].ID != entries[j].ID {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Line < entries[j].Line
	})
	return entries
}

// Update refreshes b from a newer report: fixed entries are dropped, new
// issues are added and unchanged entries keep their FirstSeen.
func (b *Baseline) Update(report *cppcheck.Report, base string) ComparisonResult {
	cmp := b.Compare(ExtractEntries(report, base))
	for _, entry := range cmp.Fixed {
		b.Remove(entry.Fingerprint)
	}
	b.Merge(FromReport(report, base))

	b.mu.Lock()
	defer b.mu.Unlock()
	if report != nil && report.CppcheckVersion != "" {
		b.CppcheckVersion = report.CppcheckVersion
	}
	sort.SliceStable(b.Entries, func(i, j int) bool {
		if b.Entries[i].File != b.Entries[j].File {
			return b.Entries[i].File < b.Entries[j].File
		}
		if b.Entries[i].ID != b.Entries[j].ID {
			return b.Entries[i].ID < b.Entries[j].ID
		}
		return b.Entries[i].Line < b.Entries[j].Line
	})
	return cmp
}

// Contains reports whether fingerprint is a known issue.
// Thread-safe.
func (b *Baseline) Contains(fingerprint string) bool {
	_, ok := b.Get(fingerprint)
	return ok
}

// Compare compares the given current entries against the baseline.
func (b *Baseline) Compare(current []Entry) ComparisonResult {
	b.mu.RLock()
	defer b.mu.RUnlock()

	known := make(map[string]bool, len(b.Entries))
	for _, entry := range b.Entries {
		known[entry.Fingerprint] = true
	}
	present := make(map[string]bool, len(current))
	for _, entry := range current {
		present[entry.Fingerprint] = true
	}

	result := ComparisonResult{
		New:       []Entry{},
		Fixed:     []Entry{},
		Unchanged: []Entry{},
	}
	for _, entry := range current {
		if known[entry.Fingerprint] {
			result.Unchanged = append(result.Unchanged, entry)
		} else {
			result.New = append(result.New, entry)
		}
	}
	for _, entry := range b.Entries {
		if !present[entry.Fingerprint] {
			result.Fixed = append(result.Fixed, entry)
		}
	}

	result.HasNew = len(result.New) > 0
	result.Summary = generateSummary(result)
	return result
}

// generateSummary creates a human-readable summary of the comparison result.
func generateSummary(result ComparisonResult) string {
	var summary string

	if result.HasNew {
		summary = fmt.Sprintf("%d new issue(s)", len(result.New))
	} else {
		summary = "No new issues"
	}

	if len(result.Fixed) > 0 {
		summary += fmt.Sprintf(", %d fixed", len(result.Fixed))
	}

	if len(result.Unchanged) > 0 {
		summary += fmt.Sprintf(", %d unchanged", len(result.Unchanged))
	}

	return summary
}

// Add adds an entry unless its fingerprint is already known.
// Thread-safe.
func (b *Baseline) Add(entry Entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, existing := range b.Entries {
		if existing.Fingerprint == entry.Fingerprint {
			return false
		}
	}
	if entry.FirstSeen.IsZero() {
		entry.FirstSeen = time.Now().UTC()
	}
	b.Entries = append(b.Entries, entry)
	b.UpdatedAt = time.Now().UTC()
	return true
}

// Remove removes an entry by fingerprint.
// Thread-safe.
func (b *Baseline) Remove(fingerprint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, entry := range b.Entries {
		if entry.Fingerprint == fingerprint {
			b.Entries = append(b.Entries[:i], b.Entries[i+1:]...)
			b.UpdatedAt = time.Now().UTC()
			return true
		}
	}
	return false
}

// Get returns an entry by fingerprint.
// Thread-safe.
func (b *Baseline) Get(fingerprint string) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, entry := range b.Entries {
		if entry.Fingerprint == fingerprint {
			return entry, true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries in the baseline.
// Thread-safe.
func (b *Baseline) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.Entries)
}

// Merge merges another baseline into this one, preserving earliest FirstSeen times.
// Thread-safe.
func (b *Baseline) Merge(other *Baseline) {
	if other == nil || other == b {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	other.mu.RLock()
	defer other.mu.RUnlock()

	existing := make(map[string]int, len(b.Entries))
	for i := range b.Entries {
		existing[b.Entries[i].Fingerprint] = i
	}

	for _, entry := range other.Entries {
		if i, ok := existing[entry.Fingerprint]; ok {
			if !entry.FirstSeen.IsZero() && entry.FirstSeen.Before(b.Entries[i].FirstSeen) {
				b.Entries[i].FirstSeen = entry.FirstSeen
			}
			continue
		}
		existing[entry.Fingerprint] = len(b.Entries)
		b.Entries = append(b.Entries, entry)
	}
	b.UpdatedAt = time.Now().UTC()
}
