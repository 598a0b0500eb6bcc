package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// OutputFile is a report written by the run, listed in the summary.
type OutputFile struct {
	Kind string // junit, sarif, json, ...
	Path string
	Size int64 // bytes; negative when unknown (stdout)
}

// maxFilesShown caps the per-file breakdown.
const maxFilesShown = 10

var titleCaser = cases.Title(language.English)

// PrintSummary writes the human-readable end-of-run summary.
// Nothing is written in silent mode.
func PrintSummary(w io.Writer, s *events.SummaryEvent, outputs []OutputFile) {
	if IsSilent() || s == nil {
		return
	}

	PrintBanner(w)

	input := s.Input
	if s.CppcheckVersion != "" {
		input = fmt.Sprintf("%s (cppcheck %s)", input, s.CppcheckVersion)
	}
	stat(w, "Input", PathStyle.Render(input))

	issues := humanize.Comma(int64(s.Totals.Issues))
	var extra []string
	if s.Totals.Failed > 0 {
		extra = append(extra, FailStyle.Render(humanize.Comma(int64(s.Totals.Failed))+" failing"))
	}
	if s.Totals.Suppressed > 0 {
		extra = append(extra, humanize.Comma(int64(s.Totals.Suppressed))+" suppressed")
	}
	if len(extra) > 0 {
		issues += " (" + strings.Join(extra, ", ") + ")"
	}
	stat(w, "Issues", issues)

	for _, sev := range finding.Ordered() {
		n := s.BySeverity[sev.String()]
		if n == 0 {
			continue
		}
		label := SeverityStyle(sev).Render(fmt.Sprintf("%-12s", titleCaser.String(sev.String())))
		fmt.Fprintf(w, "  %s %s\n", label, humanize.Comma(int64(n)))
	}

	if len(s.Files) > 0 {
		stat(w, "Files", humanize.Comma(int64(len(s.Files))))
		for i, f := range s.Files {
			if i == maxFilesShown {
				fmt.Fprintf(w, "  %s\n", MutedStyle.Render(fmt.Sprintf("... and %d more", len(s.Files)-maxFilesShown)))
				break
			}
			name := f.File
			if name == "" {
				name = "(no file)"
			}
			fmt.Fprintf(w, "  %s %s\n", PathStyle.Render(name),
				MutedStyle.Render(fmt.Sprintf("%s, %d failing", english.Plural(f.Issues, "issue", "issues"), f.Failed)))
		}
	}

	stat(w, "JUnit", fmt.Sprintf("%s, %s, %s, %d skipped",
		english.Plural(s.JUnit.Tests, "test", "tests"),
		english.Plural(s.JUnit.Failures, "failure", "failures"),
		english.Plural(s.JUnit.Errors, "error", "errors"),
		s.JUnit.Skipped))

	if s.Policy.Evaluated {
		if s.Policy.Passed {
			stat(w, "Policy", PassStyle.Render("passed"))
		} else {
			stat(w, "Policy", FailStyle.Render("failed"))
			for _, f := range s.Policy.Failures {
				fmt.Fprintf(w, "  %s %s\n", FailStyle.Render(Icon("✖", "x")), f)
			}
		}
	}

	for i, o := range outputs {
		label := ""
		if i == 0 {
			label = "Outputs"
		}
		stat(w, label, formatOutput(o))
	}

	d := time.Duration(s.Timing.DurationSec * float64(time.Second))
	stat(w, "Duration", d.Round(time.Millisecond).String())

	if s.ExitCode == 0 {
		PrintSuccess(w, fmt.Sprintf("exit %d: %s", s.ExitCode, s.ExitReason))
	} else {
		fmt.Fprintf(w, "%s exit %d: %s\n", FailStyle.Render(Icon("✖", "x")), s.ExitCode, SanitizeString(s.ExitReason))
	}
}

func stat(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", StatLabelStyle.Render(label), value)
}

func formatOutput(o OutputFile) string {
	path := PathStyle.Render(o.Path)
	if o.Path == defaults.StdStream {
		path = PathStyle.Render("stdout")
	}
	if o.Size < 0 {
		return fmt.Sprintf("%s %s", path, MutedStyle.Render(o.Kind))
	}
	return fmt.Sprintf("%s %s", path, MutedStyle.Render(fmt.Sprintf("%s, %s", o.Kind, humanize.Bytes(uint64(o.Size)))))
}
