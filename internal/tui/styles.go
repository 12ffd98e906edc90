package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/retype/internal/ui"
)

var (
	titleBarStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor).
			Background(ui.PrimaryColor).
			Bold(true).
			Padding(0, 1)

	modeStyle = lipgloss.NewStyle().
			Foreground(ui.PrimaryColor).
			Background(ui.TextColor).
			Padding(0, 1)

	hoverCellStyle = lipgloss.NewStyle().
			Foreground(ui.HoverColor).
			Underline(true)

	lockedCellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(ui.LockedColor)

	statusStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(ui.ErrorColor).
				Bold(true)

	dirtyStyle = lipgloss.NewStyle().
			Foreground(ui.WarningColor).
			Bold(true)

	savedStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor)
)
