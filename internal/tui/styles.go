package tui

import "github.com/charmbracelet/lipgloss"

// 256-color palette shared by every style below.
const (
	colorDim    = lipgloss.Color("240")
	colorText   = lipgloss.Color("252")
	colorMuted  = lipgloss.Color("244")
	colorOK     = lipgloss.Color("46")
	colorError  = lipgloss.Color("196")
	colorAccent = lipgloss.Color("86")
	colorWarn   = lipgloss.Color("214")
	colorUser   = lipgloss.Color("220")
)

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	iconPending  = fg(colorDim).Render("○")
	iconComplete = fg(colorOK).Render("✓")
	iconError    = fg(colorError).Render("✗")
	iconSkipped  = fg(colorDim).Render("-")

	taskNameStyle = fg(colorText)
	taskDimStyle  = fg(colorDim)
	messageStyle  = fg(colorMuted)
	errorStyle    = fg(colorError)
	spinnerStyle  = fg(colorAccent)
	warnStyle     = fg(colorWarn)
	userStyle     = fg(colorUser).Bold(true)
	footerStyle   = fg(colorDim).MarginTop(1)
)

// StatusIcon returns the icon for a task status. Running tasks show the
// current spinner frame.
func StatusIcon(status TaskStatus, spinnerFrame string) string {
	switch status {
	case StatusRunning:
		return spinnerStyle.Render(spinnerFrame)
	case StatusComplete:
		return iconComplete
	case StatusError:
		return iconError
	case StatusSkipped:
		return iconSkipped
	default:
		return iconPending
	}
}
