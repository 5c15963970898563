package dashboard

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/npratt/buildwatch/internal/buildlog"
)

const tabWidth = 8

// paneRow is one screen row of a pane. Severity is set only on the first
// row of a tagged message so the view can colour its tag.
type paneRow struct {
	text     string
	severity buildlog.Severity
	tagged   bool
}

// Pane is a fixed-size scrolling text surface with a line cursor. The
// cursor is the row the next write starts on and always satisfies
// 0 <= cursor <= height-1.
type Pane struct {
	title  string
	width  int
	height int
	cursor int
	rows   []paneRow
}

// WriteResult reports how a write affected the pane.
type WriteResult struct {
	Rows     int
	Scrolled bool
}

// NewPane creates an empty pane for the content region r.
func NewPane(title string, r Rect) *Pane {
	width := max(1, r.Width)
	height := max(1, r.Height)
	return &Pane{
		title:  title,
		width:  width,
		height: height,
		rows:   make([]paneRow, height),
	}
}

// Write draws msg at the cursor. The message occupies
// max(1, ceil(len/(width-2))) rows; rows that would fall off the bottom
// scroll the pane up, and the cursor stays on the last row once the pane
// is full.
func (p *Pane) Write(msg StatusMessage) WriteResult {
	text := expandTabs(msg.Render())
	n := rowsFor(ansi.StringWidth(text), p.width)

	wrapped := strings.Split(ansi.Hardwrap(text, p.width, true), "\n")
	// Wide runes at a wrap boundary can cost an extra row.
	n = max(n, len(wrapped))
	for len(wrapped) < n {
		wrapped = append(wrapped, "")
	}

	p.cursor = min(p.cursor, p.height-1)
	scrolled := false
	for i, line := range wrapped {
		if p.cursor == p.height {
			p.scroll()
			p.cursor = p.height - 1
			scrolled = true
		}
		row := paneRow{text: line}
		if i == 0 && msg.Severity != buildlog.SeverityNone {
			row.severity = msg.Severity
			row.tagged = true
		}
		p.rows[p.cursor] = row
		p.cursor++
	}
	if p.cursor > p.height-1 {
		p.scroll()
		p.cursor = p.height - 1
		scrolled = true
	}

	return WriteResult{Rows: n, Scrolled: scrolled}
}

// Overlay draws glyph in the first cell of the cursor row without moving
// the cursor. The next write replaces it.
func (p *Pane) Overlay(glyph string) {
	row := &p.rows[p.cursor]
	rest := ansi.Cut(row.text, ansi.StringWidth(glyph), p.width)
	row.text = glyph + rest
	row.tagged = false
}

// Replace erases the pane and draws lines from the top. Lines beyond the
// pane height are dropped and long lines are truncated.
func (p *Pane) Replace(lines []string) {
	for i := range p.rows {
		p.rows[i] = paneRow{}
	}
	for i, line := range lines {
		if i >= p.height {
			break
		}
		p.rows[i] = paneRow{text: ansi.Truncate(expandTabs(line), p.width, "")}
	}
	p.cursor = min(len(lines), p.height-1)
}

// Title returns the frame title.
func (p *Pane) Title() string { return p.title }

// Cursor returns the row the next write starts on.
func (p *Pane) Cursor() int { return p.cursor }

// Lines returns the plain text of every row, top to bottom.
func (p *Pane) Lines() []string {
	out := make([]string, len(p.rows))
	for i, r := range p.rows {
		out[i] = r.text
	}
	return out
}

func (p *Pane) scroll() {
	copy(p.rows, p.rows[1:])
	p.rows[len(p.rows)-1] = paneRow{}
}

// rowsFor returns how many rows a message of the given display width
// consumes in a pane of paneWidth columns.
func rowsFor(width, paneWidth int) int {
	span := max(1, paneWidth-2)
	return max(1, (width+span-1)/span)
}

// expandTabs replaces tabs with spaces up to the next multiple of eight
// columns, as a terminal would.
func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			pad := tabWidth - col%tabWidth
			sb.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		sb.WriteRune(r)
		col += ansi.StringWidth(string(r))
	}
	return sb.String()
}
