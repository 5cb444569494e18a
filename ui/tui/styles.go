package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/healthpredictor/core/view"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#2563EB")).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563EB"))
	labelStyle  = lipgloss.NewStyle().Width(26)
	helpStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#6B7280"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#2563EB")).
			Padding(0, 2)
	buttonBusyStyle = buttonStyle.Background(lipgloss.Color("#9CA3AF"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(56)
	errorPanelStyle = panelStyle.BorderForeground(lipgloss.Color(view.TierDanger.Color()))
)

func tierStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
}
