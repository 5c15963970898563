// Package spinner animates the build progress glyph on its own goroutine.
package spinner

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// Frames is the glyph cycle drawn in the output pane.
var Frames = spinner.Line.Frames

// DefaultInterval is the time between glyphs.
var DefaultInterval = spinner.Line.FPS

// Start launches a goroutine that pushes one glyph every interval while
// active reports true. The returned channel holds a single glyph; when the
// consumer falls behind, the stale glyph is replaced rather than queued.
// The channel is never closed: once active turns false the goroutine exits
// and the consumer simply stops reading.
func Start(interval time.Duration, active func() bool) <-chan string {
	if interval <= 0 {
		interval = DefaultInterval
	}
	glyphs := make(chan string, 1)

	go func() {
		for i := 0; active(); i = (i + 1) % len(Frames) {
			push(glyphs, Frames[i])
			time.Sleep(interval)
		}
	}()

	return glyphs
}

// push stores glyph in the single slot, evicting an unread one.
func push(glyphs chan string, glyph string) {
	for {
		select {
		case glyphs <- glyph:
			return
		default:
		}
		select {
		case <-glyphs:
		default:
		}
	}
}

// Latest returns the freshest glyph given one already received from ch,
// discarding anything older that is still queued.
func Latest(first string, ch <-chan string) string {
	latest := first
	for {
		select {
		case glyph, ok := <-ch:
			if !ok {
				return latest
			}
			latest = glyph
		default:
			return latest
		}
	}
}
