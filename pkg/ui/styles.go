package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/finding"
	"github.com/cppcheck-junit/cppcheck-junit/pkg/output/events"
)

// Color palette
var (
	// Brand colors
	Primary   = lipgloss.Color("#7D56F4") // Purple - brand color
	Secondary = lipgloss.Color("#00D4AA") // Cyan/Teal

	// Severity colors, most to least serious
	SevError       = lipgloss.Color("#FF3838") // Red
	SevWarning     = lipgloss.Color("#FF6B6B") // Red/Orange
	SevPortability = lipgloss.Color("#FFB800") // Amber
	SevPerformance = lipgloss.Color("#FFD93D") // Yellow
	SevStyle       = lipgloss.Color("#6BCB77") // Green
	SevInformation = lipgloss.Color("#4D96FF") // Blue

	// Status colors
	Success = lipgloss.Color("#00D26A") // Bright green
	Warning = lipgloss.Color("#FFB800") // Amber
	Error   = lipgloss.Color("#FF3838") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray
)

// Pre-configured styles
var (
	// Banner style
	BannerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	// Version badge
	VersionStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Section headers
	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	// Statistics
	StatLabelStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Width(14)

	StatValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true)

	// Outcome styles
	PassStyle = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	FailStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// File paths
	PathStyle = lipgloss.NewStyle().
			Foreground(Secondary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(Muted)
)

// SeverityStyle returns the appropriate style for a cppcheck severity
func SeverityStyle(severity finding.Severity) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch severity {
	case finding.Error:
		return base.Foreground(SevError)
	case finding.Warning:
		return base.Foreground(SevWarning)
	case finding.Portability:
		return base.Foreground(SevPortability)
	case finding.Performance:
		return base.Foreground(SevPerformance)
	case finding.Style:
		return base.Foreground(SevStyle)
	case finding.Information:
		return base.Foreground(SevInformation)
	default:
		return base.Foreground(Muted)
	}
}

// OutcomeStyle returns the appropriate style for an issue outcome
func OutcomeStyle(outcome events.Outcome) lipgloss.Style {
	switch outcome {
	case events.OutcomeFailed:
		return FailStyle
	case events.OutcomePassed:
		return PassStyle
	default:
		return MutedStyle
	}
}
