package application

import "github.com/charmbracelet/lipgloss"

var (
	accentFg  = lipgloss.Color("#7C3AED")
	dimFg     = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#6B7280"}
	errorFg   = lipgloss.Color("#EF4444")
	borderCol = lipgloss.Color("#243141")

	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(borderCol).Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Foreground(accentFg).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(accentFg)
	dimStyle      = lipgloss.NewStyle().Foreground(dimFg)
	statusStyle   = lipgloss.NewStyle().Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(errorFg)
)
