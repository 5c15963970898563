package dashboard

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/buildwatch/internal/build"
	"github.com/npratt/buildwatch/internal/buildlog"
	"github.com/npratt/buildwatch/internal/telemetry"
)

// Pane titles.
const (
	titleOutput    = "BUILD OUTPUT"
	titleStatus    = "BUILD STATUS"
	titleTelemetry = "SYSTEM STATUS"
)

// Exit codes reported in Result.
const (
	ExitSuccess = 0
	ExitFailure = -1
)

// timing holds the cadences of the render loop.
type timing struct {
	poll      time.Duration
	spinner   time.Duration
	telemetry time.Duration
}

// model is the bubbletea model and the only writer of pane state. Every
// field is touched from Update alone; background goroutines reach it
// through messages.
type model struct {
	ctx    context.Context
	cancel context.CancelFunc

	layout    Layout
	output    *Pane
	status    *Pane
	telemetry *Pane

	orch    *build.Orchestrator
	session *build.Session
	sampler *telemetry.Sampler
	log     *buildlog.Log
	logger  *slog.Logger
	timing  timing

	spinnerActive *atomic.Bool

	noExitKeypress bool
	startedAt      time.Time
	finished       bool
	awaitingKey    bool
	exitCode       int
	failure        error
}

// newModel wires a model for one build. The layout must already be valid.
func newModel(
	ctx context.Context,
	cancel context.CancelFunc,
	layout Layout,
	orch *build.Orchestrator,
	source telemetry.Source,
	log *buildlog.Log,
	logger *slog.Logger,
	tm timing,
	noExitKeypress bool,
) model {
	startedAt := time.Now()
	return model{
		ctx:            ctx,
		cancel:         cancel,
		layout:         layout,
		output:         NewPane(titleOutput, layout.Output),
		status:         NewPane(titleStatus, layout.Status),
		telemetry:      NewPane(titleTelemetry, layout.Telemetry),
		orch:           orch,
		sampler:        telemetry.NewSampler(source, startedAt, tm.telemetry, logger),
		log:            log,
		logger:         logger,
		timing:         tm,
		spinnerActive:  &atomic.Bool{},
		noExitKeypress: noExitKeypress,
		startedAt:      startedAt,
		exitCode:       ExitSuccess,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return func() tea.Msg { return buildStartMsg{} }
}

// pane returns the pane a message is addressed to.
func (m model) pane(id PaneID) *Pane {
	switch id {
	case PaneStatus:
		return m.status
	case PaneTelemetry:
		return m.telemetry
	default:
		return m.output
	}
}

// post writes msg to its pane and appends it to the build log.
func (m model) post(msg StatusMessage) {
	m.pane(msg.Target).Write(msg)
	m.log.Append(msg.Severity, msg.Text)
}

// cursors returns the line cursor of every pane for diagnostics.
func (m model) cursors() []buildlog.PaneCursor {
	return []buildlog.PaneCursor{
		{Pane: PaneStatus.String(), Line: m.status.Cursor()},
		{Pane: PaneOutput.String(), Line: m.output.Cursor()},
		{Pane: PaneTelemetry.String(), Line: m.telemetry.Cursor()},
	}
}

// result snapshots the outcome of the run.
func (m model) result() Result {
	return Result{
		ExitCode: m.exitCode,
		Phases:   m.orch.Results(),
		Cursors:  m.cursors(),
		Err:      m.failure,
	}
}
