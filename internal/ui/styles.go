package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
)

// TitleStyle for the heading line.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// InputBox wraps the query input.
var InputBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

// InputBoxFocused is InputBox while the input has focus.
var InputBoxFocused = InputBox.BorderForeground(colorPrimary)

// HistoryToggle is the clock affordance next to the input.
var HistoryToggle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// HistoryToggleActive is HistoryToggle while the panel is open.
var HistoryToggleActive = HistoryToggle.Foreground(colorHighlight)

// HistoryPanel frames the history list.
var HistoryPanel = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	BorderForeground(colorMuted)

// SelectedItem style for the currently highlighted history row.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for other history rows.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// EmptyItem style for the "No history available" row.
var EmptyItem = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Italic(true).
	Padding(0, 1)

// Button is the submit control.
var Button = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("238")).
	Padding(0, 2).
	MarginLeft(1)

// ButtonFocused is Button while it has focus.
var ButtonFocused = Button.Background(colorPrimary).Bold(true)

// ButtonDisabled is Button while a request is in flight.
var ButtonDisabled = Button.Foreground(colorSecondary).Background(lipgloss.Color("236"))

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// StatusBarOK marks a settled state in the status bar.
var StatusBarOK = lipgloss.NewStyle().
	Foreground(colorSuccess)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// DebugPanel style for the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
