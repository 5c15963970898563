// Package build sequences build phases and multiplexes each running
// phase's output, spinner and outcome channels into a single event stream
// for the render loop.
package build

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/npratt/buildwatch/internal/runner"
)

// Phase is one command of the build.
type Phase struct {
	Name string
	Argv []string
}

// Command returns the argv joined with spaces.
func (p Phase) Command() string {
	return strings.Join(p.Argv, " ")
}

// DefaultPhases returns the phases run when none are configured.
func DefaultPhases() []Phase {
	return []Phase{
		{Name: "clean", Argv: []string{"make", "clean"}},
		{Name: "build", Argv: []string{"make"}},
	}
}

// PhaseState tracks a phase through its lifecycle.
type PhaseState int

const (
	NotStarted PhaseState = iota
	Running
	Succeeded
	Failed
	// Incomplete means the runner ended without reporting an outcome.
	Incomplete
)

func (s PhaseState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Incomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// PhaseResult records how a phase ended. Outcome is meaningful only when
// State is Succeeded or Failed.
type PhaseResult struct {
	Phase   Phase
	State   PhaseState
	Outcome runner.Outcome
}

// Err returns a stack-carrying error for a failed phase and nil otherwise.
func (r PhaseResult) Err() error {
	if r.State != Failed {
		return nil
	}
	return errors.New(r.Outcome.String())
}
