package dashboard

import "github.com/pkg/errors"

// Minimum terminal size. Anything smaller leaves the bottom panes with no
// room for the seven telemetry rows.
const (
	MinWidth  = 80
	MinHeight = 20
)

// ErrTerminalTooSmall is returned by NewLayout for undersized terminals.
var ErrTerminalTooSmall = errors.New("terminal too small")

// Rect is a screen region in cells.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Inner returns the region inside a one-cell border.
func (r Rect) Inner() Rect {
	return Rect{X: r.X + 1, Y: r.Y + 1, Width: r.Width - 2, Height: r.Height - 2}
}

// Layout is the fixed geometry of the dashboard. The output pane spans the
// top half; status and telemetry split the bottom half.
type Layout struct {
	Screen Rect

	OutputFrame    Rect
	StatusFrame    Rect
	TelemetryFrame Rect

	Output    Rect
	Status    Rect
	Telemetry Rect
}

// NewLayout computes the pane geometry for a width x height terminal.
func NewLayout(width, height int) (Layout, error) {
	if width < MinWidth || height < MinHeight {
		return Layout{}, errors.Wrapf(ErrTerminalTooSmall,
			"terminal is %dx%d, at least %dx%d is required", width, height, MinWidth, MinHeight)
	}

	cols := width - 1
	half := height/2 + 1

	l := Layout{
		Screen:         Rect{Width: width, Height: height},
		OutputFrame:    Rect{X: 0, Y: 0, Width: width, Height: half},
		StatusFrame:    Rect{X: 0, Y: half, Width: cols / 2, Height: half - 2},
		TelemetryFrame: Rect{X: cols / 2, Y: half, Width: cols - cols/2 + 1, Height: half - 2},
	}
	l.Output = l.OutputFrame.Inner()
	l.Status = l.StatusFrame.Inner()
	l.Telemetry = l.TelemetryFrame.Inner()
	return l, nil
}
