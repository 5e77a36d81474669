package commands

import (
	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/api"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Terminal styles shared by the table-rendering and watch commands.
var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// noColor reports whether styled cells should render as plain text, for
// dumb terminals and NO_COLOR environments.
func noColor() bool {
	return termenv.EnvNoColor() || termenv.ColorProfile() == termenv.Ascii
}

func render(style lipgloss.Style, s string) string {
	if noColor() {
		return s
	}
	return style.Render(s)
}

// statusCell colors an execution or dataset status for a table cell.
func statusCell(status string) string {
	switch status {
	case api.ExecutionSucceeded, "ready":
		return render(successStyle, status)
	case api.ExecutionFailed:
		return render(errorStyle, status)
	case api.ExecutionPartiallySucceeded:
		return render(warnStyle, status)
	case api.ExecutionRunning, "profiling":
		return render(infoStyle, status)
	case api.ExecutionQueued, api.ExecutionCancelled:
		return render(mutedStyle, status)
	}
	return status
}

// severityCell colors a rule or issue severity for a table cell.
func severityCell(severity string) string {
	switch severity {
	case api.SeverityCritical:
		return render(errorStyle, severity)
	case api.SeverityHigh:
		return render(warnStyle, severity)
	case api.SeverityMedium:
		return render(infoStyle, severity)
	case api.SeverityLow:
		return render(mutedStyle, severity)
	}
	return severity
}

// activeCell renders a rule's enabled state.
func activeCell(active bool) string {
	if active {
		return render(successStyle, "active")
	}
	return render(mutedStyle, "disabled")
}

// statusMark returns a one-glyph marker for a terminal execution status.
func statusMark(status string) string {
	switch status {
	case api.ExecutionSucceeded:
		return render(successStyle, "✓")
	case api.ExecutionFailed:
		return render(errorStyle, "✗")
	case api.ExecutionPartiallySucceeded:
		return render(warnStyle, "!")
	case api.ExecutionCancelled:
		return render(mutedStyle, "-")
	}
	return " "
}
