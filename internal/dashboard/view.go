package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// View implements tea.Model. It draws the three framed panes in their
// fixed layout.
func (m model) View() string {
	top := renderFrame(m.output, m.layout.OutputFrame)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		renderFrame(m.status, m.layout.StatusFrame),
		renderFrame(m.telemetry, m.layout.TelemetryFrame),
	)
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

// renderFrame draws a pane inside a border whose top edge carries the
// title, as in "┌──┤ TITLE ├────┐".
func renderFrame(p *Pane, frame Rect) string {
	inner := frame.Inner()

	body := make([]string, inner.Height)
	for i := range body {
		if i < len(p.rows) {
			body[i] = renderRow(p.rows[i], inner.Width)
		}
	}

	bodyStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, true, true).
		BorderForeground(styles.Border.GetForeground()).
		Width(inner.Width).
		Height(inner.Height)

	return titleBar(p.Title(), frame.Width) + "\n" + bodyStyle.Render(strings.Join(body, "\n"))
}

// titleBar renders the top border line of a frame.
func titleBar(title string, width int) string {
	b := lipgloss.NormalBorder()
	fill := width - 8 - ansi.StringWidth(title)
	if fill < 0 {
		title = ansi.Truncate(title, max(0, width-8), "")
		fill = width - 8 - ansi.StringWidth(title)
	}

	var sb strings.Builder
	sb.WriteString(styles.Border.Render(b.TopLeft + strings.Repeat(b.Top, 2) + "┤ "))
	sb.WriteString(styles.Title.Render(title))
	sb.WriteString(styles.Border.Render(" ├" + strings.Repeat(b.Top, max(0, fill)) + b.TopRight))
	return sb.String()
}

// renderRow colours the severity tag of a row and truncates it to width.
func renderRow(r paneRow, width int) string {
	text := ansi.Truncate(r.text, width, "")
	if !r.tagged {
		return styles.Text.Render(text)
	}

	name := r.severity.String()
	if !strings.HasPrefix(text, "["+name+"]") {
		return styles.Text.Render(text)
	}
	return styles.Text.Render("[") +
		severityStyle(r.severity).Render(name) +
		styles.Text.Render(text[len(name)+1:])
}
