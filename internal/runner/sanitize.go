package runner

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize strips terminal escape sequences from one line of process output.
// Carriage returns inside the line are treated as in-place redraws: only the
// last segment survives, which is what a terminal would show.
func Sanitize(line string) string {
	line = strings.TrimRight(line, "\r\n")
	if i := strings.LastIndexByte(line, '\r'); i >= 0 {
		line = line[i+1:]
	}
	return ansi.Strip(line)
}
