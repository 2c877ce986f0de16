package styles

import "github.com/charmbracelet/lipgloss"

// Centralized Lip Gloss styles for the arcopilot TUI.
// All colors are specified using hex codes.
//
// Styles used inside the select menu carry no margins or padding: the menu
// lays out a fixed number of lines and any vertical spacing would break it.

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff5fd2"))

	RuleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5f5fff"))

	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5fd7ff"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff005f")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffaf00"))

	HelpStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(lipgloss.Color("#a8a8a8"))

	// Row styles for the selection list
	CursorRowStyle = lipgloss.NewStyle().
			Bold(true)

	SelectedMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#00ff5f"))

	// Search match highlight, shown while the search term is being edited
	MatchStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffff00"))

	// Detail pane with rounded border, matching the list accent color.
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#ff5faf")).
			PaddingLeft(1).
			PaddingRight(1)
)
