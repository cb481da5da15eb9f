// Package theme provides the Lip Gloss color palette and reusable styles for
// planmon output. It is a leaf package with no internal imports.
package theme

import "github.com/charmbracelet/lipgloss"

// Finding severity colors.
var (
	ColorCritical = lipgloss.Color("#dc2626")
	ColorHigh     = lipgloss.Color("#ea580c")
	ColorMedium   = lipgloss.Color("#d97706")
	ColorLow      = lipgloss.Color("#2563eb")
	ColorInfo     = lipgloss.Color("#06b6d4")
	ColorNeutral  = lipgloss.Color("#9ca3af")
)

// Event panel accents.
var (
	ColorThought        = lipgloss.Color("#06b6d4")
	ColorStrategy       = lipgloss.Color("#a855f7")
	ColorReasoning      = lipgloss.Color("#3b82f6")
	ColorClassification = lipgloss.Color("#22c55e")
	ColorPlan           = lipgloss.Color("#f59e0b")
	ColorPhase          = lipgloss.Color("#eab308")
	ColorSummary        = lipgloss.Color("#16a34a")
	ColorError          = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder = lipgloss.Color("#4b5563")
	ColorDimmed = lipgloss.Color("#6b7280")
	ColorBright = lipgloss.Color("#f9fafb")
)

// SeverityColor maps a finding severity to its display color. Unrecognized
// severities get the neutral color.
func SeverityColor(severity string) lipgloss.Color {
	switch severity {
	case "critical":
		return ColorCritical
	case "high":
		return ColorHigh
	case "medium":
		return ColorMedium
	case "low":
		return ColorLow
	case "info":
		return ColorInfo
	default:
		return ColorNeutral
	}
}

// Shared styles.
var (
	PanelTitle = lipgloss.NewStyle().Bold(true)
	Dimmed     = lipgloss.NewStyle().Foreground(ColorDimmed)
	Bright     = lipgloss.NewStyle().Foreground(ColorBright).Bold(true)
	TableHead  = lipgloss.NewStyle().Bold(true).Foreground(ColorStrategy)
)
