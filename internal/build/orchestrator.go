package build

import (
	"context"
	"log/slog"

	"github.com/npratt/buildwatch/internal/runner"
)

// StartFunc launches argv and returns its line and outcome channels. It
// has the signature of runner.ProcessRunner.Run.
type StartFunc func(ctx context.Context, argv []string) (<-chan string, <-chan runner.Outcome)

// Orchestrator runs phases one at a time and records their results.
// It is not safe for concurrent use; the render loop owns it.
type Orchestrator struct {
	start  StartFunc
	glyphs <-chan string
	logger *slog.Logger

	results []PhaseResult
	current int // index of the running phase, -1 when none
	next    int
	aborted bool
}

// New creates an Orchestrator for phases. If logger is nil, slog.Default() is used.
func New(phases []Phase, start StartFunc, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	results := make([]PhaseResult, len(phases))
	for i, p := range phases {
		results[i] = PhaseResult{Phase: p, State: NotStarted}
	}
	return &Orchestrator{
		start:   start,
		logger:  logger,
		results: results,
		current: -1,
	}
}

// AttachSpinner makes every subsequent session deliver glyphs from ch.
func (o *Orchestrator) AttachSpinner(ch <-chan string) {
	o.glyphs = ch
}

// StartNext launches the next phase. It returns false when every phase
// has run, a phase failed, or a phase is still running.
func (o *Orchestrator) StartNext(ctx context.Context) (*Session, Phase, bool) {
	if o.aborted || o.current >= 0 || o.next >= len(o.results) {
		return nil, Phase{}, false
	}

	idx := o.next
	o.next++
	o.current = idx

	phase := o.results[idx].Phase
	o.results[idx].State = Running
	o.logger.Info("phase started", "phase", phase.Name, "argv", phase.Argv)

	lines, outcomes := o.start(ctx, phase.Argv)
	return &Session{
		phase:    phase,
		lines:    lines,
		outcomes: outcomes,
		glyphs:   o.glyphs,
	}, phase, true
}

// Finish records the outcome of the running phase. A failed phase aborts
// the remaining ones; a missing outcome marks the phase Incomplete and
// lets the build continue.
func (o *Orchestrator) Finish(ev OutcomeEvent) PhaseResult {
	if o.current < 0 {
		return PhaseResult{}
	}
	r := &o.results[o.current]
	o.current = -1

	switch {
	case ev.Missing:
		r.State = Incomplete
		o.logger.Warn("phase ended without outcome", "phase", r.Phase.Name)
	case ev.Outcome.Ok():
		r.State = Succeeded
		r.Outcome = ev.Outcome
		o.logger.Info("phase succeeded", "phase", r.Phase.Name)
	default:
		r.State = Failed
		r.Outcome = ev.Outcome
		o.aborted = true
		o.logger.Warn("phase failed",
			"phase", r.Phase.Name,
			"exit_code", ev.Outcome.ExitCode,
			"message", ev.Outcome.Message)
	}
	return *r
}

// Abort stops the build. A running phase is recorded as failed with
// reason; phases not yet started stay NotStarted.
func (o *Orchestrator) Abort(reason string) {
	o.aborted = true
	if o.current >= 0 {
		r := &o.results[o.current]
		r.State = Failed
		r.Outcome = runner.LaunchFailure(reason, runner.NoNativeCode)
		o.current = -1
		o.logger.Warn("phase aborted", "phase", r.Phase.Name, "reason", reason)
	}
}

// Running reports whether a phase is in progress.
func (o *Orchestrator) Running() bool {
	return o.current >= 0
}

// Done reports whether no further phase will be started.
func (o *Orchestrator) Done() bool {
	return o.current < 0 && (o.aborted || o.next >= len(o.results))
}

// Results returns a copy of every phase's result in phase order.
func (o *Orchestrator) Results() []PhaseResult {
	out := make([]PhaseResult, len(o.results))
	copy(out, o.results)
	return out
}

// Succeeded reports whether every phase ended with Success(0).
func (o *Orchestrator) Succeeded() bool {
	if len(o.results) == 0 {
		return false
	}
	for _, r := range o.results {
		if r.State != Succeeded {
			return false
		}
	}
	return true
}
