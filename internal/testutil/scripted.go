package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/npratt/buildwatch/internal/runner"
)

// PhaseScript is the canned behaviour of one scripted command.
type PhaseScript struct {
	Lines   []string
	Outcome runner.Outcome
	// NoOutcome closes the outcome channel without sending a result.
	NoOutcome bool
	// Hold, when non-nil, delays the outcome until it is closed or the
	// context is cancelled.
	Hold chan struct{}
}

// ScriptedStarter stands in for ProcessRunner.Run. Each argv is matched
// against a script by its space-joined form; unscripted commands succeed
// with no output.
type ScriptedStarter struct {
	mu      sync.Mutex
	scripts map[string]PhaseScript
	calls   [][]string
}

// NewScriptedStarter creates an empty ScriptedStarter.
func NewScriptedStarter() *ScriptedStarter {
	return &ScriptedStarter{scripts: make(map[string]PhaseScript)}
}

// Script registers the behaviour for argv.
func (s *ScriptedStarter) Script(argv []string, script PhaseScript) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[strings.Join(argv, " ")] = script
}

// Start has the signature of runner.ProcessRunner.Run.
func (s *ScriptedStarter) Start(ctx context.Context, argv []string) (<-chan string, <-chan runner.Outcome) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string(nil), argv...))
	script, ok := s.scripts[strings.Join(argv, " ")]
	s.mu.Unlock()
	if !ok {
		script = PhaseScript{Outcome: runner.Success(0)}
	}

	lines := make(chan string, len(script.Lines))
	outcomes := make(chan runner.Outcome, 1)

	go func() {
		defer close(outcomes)
		defer close(lines)

		for _, line := range script.Lines {
			lines <- line
		}

		outcome := script.Outcome
		if script.Hold != nil {
			select {
			case <-script.Hold:
			case <-ctx.Done():
				outcome = runner.LaunchFailure("cancelled", runner.NoNativeCode)
			}
		}
		if script.NoOutcome {
			return
		}
		outcomes <- outcome
	}()

	return lines, outcomes
}

// Calls returns the argv of every Start call in order.
func (s *ScriptedStarter) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([][]string, len(s.calls))
	copy(result, s.calls)
	return result
}

// FakeTelemetrySource implements telemetry.Source with fixed readings.
// A nil Temperature or BatteryPercent makes that reading unavailable.
type FakeTelemetrySource struct {
	mu sync.Mutex

	CPU        float64
	CPUErr     error
	UsedBytes  uint64
	TotalBytes uint64
	MemErr     error

	Temperature     *float64
	BatteryPercent  *float64
	BatteryCharging bool

	samples int
}

// CPUPercent implements telemetry.Source.
func (f *FakeTelemetrySource) CPUPercent() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples++
	return f.CPU, f.CPUErr
}

// Memory implements telemetry.Source.
func (f *FakeTelemetrySource) Memory() (uint64, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.UsedBytes, f.TotalBytes, f.MemErr
}

// CPUTemperature implements telemetry.Source.
func (f *FakeTelemetrySource) CPUTemperature() (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Temperature == nil {
		return 0, false
	}
	return *f.Temperature, true
}

// Battery implements telemetry.Source.
func (f *FakeTelemetrySource) Battery() (float64, bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.BatteryPercent == nil {
		return 0, false, false
	}
	return *f.BatteryPercent, f.BatteryCharging, true
}

// Samples returns how many times CPUPercent was called.
func (f *FakeTelemetrySource) Samples() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.samples
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
