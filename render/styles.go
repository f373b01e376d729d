// Package render draws scan records, lists, insights and chat replies for
// the terminal.
package render

import (
	"github.com/charmbracelet/lipgloss"

	"veribuy/models"
)

var (
	Genuine    = lipgloss.Color("#10b981") // emerald
	Suspicious = lipgloss.Color("#f59e0b") // amber
	HighRisk   = lipgloss.Color("#ef4444") // red

	Accent = lipgloss.Color("#8b5cf6")
	Muted  = lipgloss.Color("#71717a")
)

// VerdictClass names the three display classes a verdict can fall in.
type VerdictClass string

const (
	ClassGenuine    VerdictClass = "genuine"
	ClassSuspicious VerdictClass = "suspicious"
	ClassHighRisk   VerdictClass = "high-risk"
)

// ClassFor maps a verdict to its class. Anything that is not a known safe or
// suspicious verdict is shown as high risk.
func ClassFor(v models.Verdict) VerdictClass {
	switch v {
	case models.VerdictGenuine:
		return ClassGenuine
	case models.VerdictSuspicious:
		return ClassSuspicious
	default:
		return ClassHighRisk
	}
}

// VerdictColor returns the color of v's class.
func VerdictColor(v models.Verdict) lipgloss.Color {
	switch ClassFor(v) {
	case ClassGenuine:
		return Genuine
	case ClassSuspicious:
		return Suspicious
	default:
		return HighRisk
	}
}

func VerdictStyle(v models.Verdict) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(VerdictColor(v))
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(Accent)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(Suspicious)
	mutedStyle   = lipgloss.NewStyle().Foreground(Muted)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	goodStyle    = lipgloss.NewStyle().Foreground(Genuine)
	badStyle     = lipgloss.NewStyle().Foreground(HighRisk)
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Muted).
			Padding(0, 1)
)
