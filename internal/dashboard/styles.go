package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/buildwatch/internal/buildlog"
)

// styles contains all lipgloss styles used by the dashboard.
var styles = struct {
	// Frame styles
	Border lipgloss.Style
	Title  lipgloss.Style

	// Pane text
	Text lipgloss.Style

	// Severity tags
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Debug   lipgloss.Style
}{
	Border: lipgloss.NewStyle().
		Foreground(lipgloss.Color("5")),

	Title: lipgloss.NewStyle().
		Foreground(lipgloss.Color("6")),

	Text: lipgloss.NewStyle().
		Foreground(lipgloss.Color("7")),

	Info: lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")),

	Warning: lipgloss.NewStyle().
		Foreground(lipgloss.Color("3")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("1")),

	Debug: lipgloss.NewStyle().
		Foreground(lipgloss.Color("6")),
}

// severityStyle returns the tag colour for a severity.
func severityStyle(s buildlog.Severity) lipgloss.Style {
	switch s {
	case buildlog.SeverityInfo:
		return styles.Info
	case buildlog.SeverityWarning:
		return styles.Warning
	case buildlog.SeverityError:
		return styles.Error
	case buildlog.SeverityDebug:
		return styles.Debug
	default:
		return styles.Text
	}
}
