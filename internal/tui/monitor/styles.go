package monitor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/onboard/internal/store"
)

var (
	// Base colors
	primaryColor = lipgloss.Color("212")
	mutedColor   = lipgloss.Color("241")
	successColor = lipgloss.Color("42")
	warningColor = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	// Text styles
	titleStyle       = lipgloss.NewStyle().Bold(true)
	subtleStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	selectedRowStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	flashStyle       = lipgloss.NewStyle().Foreground(successColor)
	errorStyle       = lipgloss.NewStyle().Foreground(errorColor)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			MarginTop(1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	phaseStyles = map[store.Phase]lipgloss.Style{
		store.PhaseUninitialized: lipgloss.NewStyle().Foreground(mutedColor),
		store.PhaseLocalLoaded:   lipgloss.NewStyle().Foreground(mutedColor),
		store.PhaseHydrating:     lipgloss.NewStyle().Foreground(warningColor),
		store.PhaseHydrated:      lipgloss.NewStyle().Foreground(successColor),
	}
)

// formatPhase renders a sync phase with color
func formatPhase(p store.Phase) string {
	style, ok := phaseStyles[p]
	if !ok {
		return p.String()
	}
	return style.Render(p.String())
}
