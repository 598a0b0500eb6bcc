package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/cppcheck-junit/cppcheck-junit/pkg/defaults"
)

// Version information - these can be overridden at build time via ldflags:
// go build -ldflags "-X github.com/cppcheck-junit/cppcheck-junit/pkg/ui.Commit=abc123"
var (
	Version   = defaults.Version
	BuildDate = "unknown"
	Commit    = "dev"
)

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex
)

// SetSilent enables or disables silent mode (suppresses the console summary)
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		// Use ASCII profile to disable colors
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

// VersionString is the long version printed by `version`.
func VersionString() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", defaults.ToolName, Version, Commit, BuildDate)
}

// PrintBanner writes a one-line tool banner.
func PrintBanner(w io.Writer) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(w, "%s %s\n",
		BannerStyle.Render(defaults.ToolNameDisplay),
		VersionStyle.Render("v"+Version))
}

// PrintError writes an error line. It is shown even in silent mode.
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render(Icon("✖", "x")), SanitizeString(message))
}

// PrintWarning writes a warning line.
func PrintWarning(w io.Writer, message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(w, "%s %s\n", WarningStyle.Render(Icon("⚠", "!")), SanitizeString(message))
}

// PrintSuccess writes a success line.
func PrintSuccess(w io.Writer, message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(w, "%s %s\n", PassStyle.Render(Icon("✔", "+")), SanitizeString(message))
}
