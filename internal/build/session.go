package build

import (
	"time"

	"github.com/npratt/buildwatch/internal/runner"
	"github.com/npratt/buildwatch/internal/spinner"
)

// Event is one result of Session.Next.
type Event interface {
	isEvent()
}

// LineEvent carries exactly one output line.
type LineEvent struct {
	Line string
}

// GlyphEvent carries the freshest spinner glyph.
type GlyphEvent struct {
	Glyph string
}

// OutcomeEvent ends a session. Missing is set when the runner closed its
// outcome channel without sending a result.
type OutcomeEvent struct {
	Outcome runner.Outcome
	Missing bool
}

// IdleEvent means nothing arrived within the timeout.
type IdleEvent struct{}

func (LineEvent) isEvent()    {}
func (GlyphEvent) isEvent()   {}
func (OutcomeEvent) isEvent() {}
func (IdleEvent) isEvent()    {}

// Session is the channel set of one running phase.
type Session struct {
	phase    Phase
	lines    <-chan string
	outcomes <-chan runner.Outcome
	glyphs   <-chan string
	done     bool
}

// Phase returns the phase this session runs.
func (s *Session) Phase() Phase {
	return s.phase
}

// Done reports whether the outcome has been received.
func (s *Session) Done() bool {
	return s.done
}

// Next waits up to timeout for the next line, glyph or outcome. After an
// OutcomeEvent the session only returns IdleEvent; callers must Drain it.
func (s *Session) Next(timeout time.Duration) Event {
	if s.done {
		return IdleEvent{}
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				// Closed channels are always ready; nil blocks forever.
				s.lines = nil
				continue
			}
			return LineEvent{Line: line}
		case glyph := <-s.glyphs:
			return GlyphEvent{Glyph: spinner.Latest(glyph, s.glyphs)}
		case outcome, ok := <-s.outcomes:
			s.done = true
			if !ok {
				return OutcomeEvent{Missing: true}
			}
			return OutcomeEvent{Outcome: outcome}
		case <-timer.C:
			return IdleEvent{}
		}
	}
}

// Drain returns every line still queued after the outcome arrived. The
// runner finishes all line sends before sending its outcome, so one
// non-blocking pass sees the complete tail.
func (s *Session) Drain() []string {
	var tail []string
	for s.lines != nil {
		select {
		case line, ok := <-s.lines:
			if !ok {
				s.lines = nil
				continue
			}
			tail = append(tail, line)
		default:
			return tail
		}
	}
	return tail
}
