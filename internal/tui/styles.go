package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	// Connection colors
	liveColor    = lipgloss.Color("10") // Green
	pausedColor  = lipgloss.Color("11") // Yellow
	offlineColor = lipgloss.Color("9")  // Red

	// UI colors
	headerBg    = lipgloss.Color("235")
	activeTabBg = lipgloss.Color("62")
	statusBg    = lipgloss.Color("236")
	helpBg      = lipgloss.Color("234")
	jumpBg      = lipgloss.Color("24")
	errorColor  = lipgloss.Color("9")
	dimColor    = lipgloss.Color("8")

	// Source name colors (for log lines)
	sourceColorList = []lipgloss.Color{
		lipgloss.Color("14"),  // Cyan
		lipgloss.Color("13"),  // Magenta
		lipgloss.Color("12"),  // Blue
		lipgloss.Color("11"),  // Yellow
		lipgloss.Color("10"),  // Green
		lipgloss.Color("208"), // Orange
		lipgloss.Color("207"), // Pink
		lipgloss.Color("159"), // Light blue
		lipgloss.Color("156"), // Light green
	}
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Background(headerBg).
			Padding(0, 1).
			MarginBottom(1)

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(activeTabBg).
			Foreground(lipgloss.Color("15")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	jumpStyle = lipgloss.NewStyle().
			Background(jumpBg).
			Foreground(lipgloss.Color("15")).
			Bold(true).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Background(helpBg).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	// Stderr lines
	errorLineStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// Lifecycle lines
	lifecycleStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true)

	// Timestamps
	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	liveStyle    = lipgloss.NewStyle().Foreground(liveColor).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(pausedColor).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(offlineColor).Bold(true)

	defaultSourceStyle = lipgloss.NewStyle()

	// Source colors for log lines
	sourceColors []lipgloss.Style
)

func init() {
	for _, color := range sourceColorList {
		sourceColors = append(sourceColors, lipgloss.NewStyle().Foreground(color))
	}
}
