package cppcheck

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
)

// Location is one <location> of an issue. The first location is the primary one.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitzero"`
	Info   string `json:"info,omitempty"`
}

// Issue is a single cppcheck finding.
type Issue struct {
	// Index is the position of the issue in the input document.
	Index int `json:"index"`

	ID       string           `json:"id"`
	Severity finding.Severity `json:"severity"`
	Message  string           `json:"message"`
	Verbose  string           `json:"verbose,omitempty"`

	// File, Line and Column mirror the primary location. File is empty and
	// Line is 0 when cppcheck reported no location.
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitzero"`

	CWE          int        `json:"cwe,omitzero"`
	Inconclusive bool       `json:"inconclusive,omitzero"`
	File0        string     `json:"file0,omitempty"`
	Locations    []Location `json:"locations,omitempty"`
	Symbols      []string   `json:"symbols,omitempty"`
}

// Fingerprint returns a stable identifier for the issue. The line number is
// deliberately excluded so that edits above a finding do not change it.
func (i Issue) Fingerprint() string {
	h := murmur3.New128()
	h.Write([]byte(i.ID))
	h.Write([]byte{0})
	h.Write([]byte(filepath.ToSlash(i.File)))
	h.Write([]byte{0})
	h.Write([]byte(i.Message))
	hi, lo := h.Sum128()
	return fmt.Sprintf("%016x%016x", hi, lo)
}

// Detail returns the multi-line description used in failure bodies:
// the verbose message, the CWE and any secondary locations.
func (i Issue) Detail() string {
	var b strings.Builder
	text := i.Verbose
	if text == "" {
		text = i.Message
	}
	b.WriteString(text)
	if i.CWE > 0 {
		fmt.Fprintf(&b, "\nCWE-%d", i.CWE)
	}
	if i.Inconclusive {
		b.WriteString("\ninconclusive")
	}
	if len(i.Locations) > 1 {
		for _, loc := range i.Locations {
			fmt.Fprintf(&b, "\n  %s:%d", loc.File, loc.Line)
			if loc.Info != "" {
				fmt.Fprintf(&b, ": %s", loc.Info)
			}
		}
	}
	return b.String()
}

// Report is the parsed form of one cppcheck XML document.
type Report struct {
	// FormatVersion is 2 for --xml-version=2 output and 1 for the legacy layout.
	FormatVersion int `json:"format_version"`

	// CppcheckVersion comes from <cppcheck version="...">, empty if absent.
	CppcheckVersion string `json:"cppcheck_version,omitempty"`

	// Issues in input order.
	Issues []Issue `json:"issues"`
}

// Len returns the number of issues.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Issues)
}

// FileGroup is the set of issues reported against one file.
type FileGroup struct {
	File   string
	Issues []Issue
}

// GroupByFile groups issues by their primary file. Groups are ordered by the
// first appearance of each file and keep input order within a group.
func (r *Report) GroupByFile() []FileGroup {
	if r == nil {
		return nil
	}
	index := make(map[string]int)
	var groups []FileGroup
	for _, issue := range r.Issues {
		i, ok := index[issue.File]
		if !ok {
			i = len(groups)
			index[issue.File] = i
			groups = append(groups, FileGroup{File: issue.File})
		}
		groups[i].Issues = append(groups[i].Issues, issue)
	}
	return groups
}

// Files returns the distinct primary files in first-appearance order.
func (r *Report) Files() []string {
	groups := r.GroupByFile()
	files := make([]string, len(groups))
	for i, g := range groups {
		files[i] = g.File
	}
	return files
}

// CountBySeverity counts issues per severity.
func (r *Report) CountBySeverity() map[finding.Severity]int {
	counts := make(map[finding.Severity]int)
	if r == nil {
		return counts
	}
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}

// Defects returns the number of issues whose severity is a defect.
func (r *Report) Defects() int {
	n := 0
	if r == nil {
		return n
	}
	for _, issue := range r.Issues {
		if issue.Severity.IsDefect() {
			n++
		}
	}
	return n
}

// RelPath renders file for display. Absolute paths are made relative to base
// when base is set; the result always uses forward slashes.
func RelPath(file, base string) string {
	if file == "" {
		return ""
	}
	if base != "" && filepath.IsAbs(file) {
		if rel, err := filepath.Rel(base, file); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(filepath.Clean(file))
}
