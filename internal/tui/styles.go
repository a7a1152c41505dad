package tui

import "github.com/charmbracelet/lipgloss"

// --- Color palette ---

var (
	white  = lipgloss.Color("#E2E2E2")
	gray   = lipgloss.Color("#888888")
	muted  = lipgloss.Color("#555555")
	blue   = lipgloss.Color("#5FAFFF")
	green  = lipgloss.Color("#5FD787")
	yellow = lipgloss.Color("#FFD787")
	red    = lipgloss.Color("#FF8787")
)

// --- Styles ---

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	accentStyle  = lipgloss.NewStyle().Foreground(blue).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(red).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(yellow)
	successStyle = lipgloss.NewStyle().Foreground(green)
	nodeStyle    = lipgloss.NewStyle().Foreground(white)
	linkStyle    = lipgloss.NewStyle().Foreground(gray)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
)
