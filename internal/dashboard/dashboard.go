// Package dashboard renders a build on a fixed three-pane terminal screen
// using bubbletea. The bubbletea model is the single render authority:
// subprocess output, spinner glyphs and telemetry all reach the panes
// through Update.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/buildwatch/internal/build"
	"github.com/npratt/buildwatch/internal/buildlog"
	"github.com/npratt/buildwatch/internal/runner"
	"github.com/npratt/buildwatch/internal/spinner"
	"github.com/npratt/buildwatch/internal/telemetry"
)

// DefaultPollInterval bounds how long one wait on a running phase blocks.
const DefaultPollInterval = 10 * time.Millisecond

// Result summarizes a finished run.
type Result struct {
	ExitCode int
	Phases   []build.PhaseResult
	Cursors  []buildlog.PaneCursor
	// Err is the fatal build error, nil on success.
	Err error
}

// Dashboard runs a build under the terminal UI.
type Dashboard struct {
	phases []build.Phase
	log    *buildlog.Log

	start          build.StartFunc
	source         telemetry.Source
	logger         *slog.Logger
	timing         timing
	noExitKeypress bool
	width, height  int
	programOpts    []tea.ProgramOption
}

// Option configures the Dashboard.
type Option func(*Dashboard)

// New creates a Dashboard that runs phases in order and mirrors every
// status message into log.
func New(phases []build.Phase, log *buildlog.Log, opts ...Option) *Dashboard {
	d := &Dashboard{
		phases: phases,
		log:    log,
		logger: slog.Default(),
		timing: timing{
			poll:      DefaultPollInterval,
			spinner:   spinner.DefaultInterval,
			telemetry: telemetry.DefaultInterval,
		},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// WithStarter replaces the process runner used to launch phases.
func WithStarter(fn build.StartFunc) Option {
	return func(d *Dashboard) {
		d.start = fn
	}
}

// WithTelemetrySource replaces the host telemetry source.
func WithTelemetrySource(src telemetry.Source) Option {
	return func(d *Dashboard) {
		d.source = src
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dashboard) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithNoExitKeypress makes the dashboard quit as soon as the build ends
// instead of waiting for a key.
func WithNoExitKeypress(v bool) Option {
	return func(d *Dashboard) {
		d.noExitKeypress = v
	}
}

// WithTiming sets the poll, spinner and telemetry cadences. Zero values
// keep the defaults.
func WithTiming(poll, spinnerInterval, telemetryInterval time.Duration) Option {
	return func(d *Dashboard) {
		if poll > 0 {
			d.timing.poll = poll
		}
		if spinnerInterval > 0 {
			d.timing.spinner = spinnerInterval
		}
		if telemetryInterval > 0 {
			d.timing.telemetry = telemetryInterval
		}
	}
}

// WithTerminalSize fixes the screen size instead of querying the terminal.
func WithTerminalSize(width, height int) Option {
	return func(d *Dashboard) {
		d.width = width
		d.height = height
	}
}

// WithProgramOptions passes extra options to the bubbletea program.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(d *Dashboard) {
		d.programOpts = append(d.programOpts, opts...)
	}
}

// Run lays out the screen, runs every phase and blocks until the program
// exits. A startup error (undersized terminal, program failure) is
// returned before any phase starts; build failures are reported through
// Result. Cancelling ctx kills the running phase and fails the build.
func (d *Dashboard) Run(ctx context.Context) (Result, error) {
	width, height := d.width, d.height
	fixedSize := width != 0 || height != 0
	if !fixedSize {
		width, height = terminalSize()
	}

	layout, err := NewLayout(width, height)
	if err != nil {
		return Result{ExitCode: ExitFailure}, err
	}

	start := d.start
	if start == nil {
		start = runner.NewProcessRunner(runner.WithLogger(d.logger)).Run
	}
	source := d.source
	if source == nil {
		source = telemetry.NewHostSource()
	}

	buildCtx, cancelBuild := context.WithCancel(ctx)
	defer cancelBuild()

	m := newModel(
		buildCtx,
		cancelBuild,
		layout,
		build.New(d.phases, start, d.logger),
		source,
		d.log,
		d.logger,
		d.timing,
		d.noExitKeypress,
	)

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithoutSignalHandler()}
	if !fixedSize && isTerminal() {
		opts = append(opts, tea.WithAltScreen())
	}
	opts = append(opts, d.programOpts...)

	d.logger.Info("dashboard starting", "width", width, "height", height, "phases", len(d.phases))
	final, runErr := tea.NewProgram(m, opts...).Run()

	fm, ok := final.(model)
	if !ok {
		fm = m
	}
	fm.spinnerActive.Store(false)

	if runErr != nil {
		if errors.Is(runErr, tea.ErrProgramKilled) && ctx.Err() != nil {
			fm.interrupt()
			return fm.result(), nil
		}
		fm.exitCode = ExitFailure
		return fm.result(), fmt.Errorf("run dashboard: %w", runErr)
	}
	return fm.result(), nil
}
