package dashboard

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) && isatty.IsTerminal(os.Stdin.Fd())
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if stdout is not a terminal or its size cannot be determined.
func terminalSize() (width, height int) {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return 0, 0
	}
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}
