package dashboard

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/npratt/buildwatch/internal/build"
	"github.com/npratt/buildwatch/internal/buildlog"
	"github.com/npratt/buildwatch/internal/spinner"
	"github.com/npratt/buildwatch/internal/telemetry"
)

const (
	timestampLayout = "2006-01-02 15:04:05"

	msgMissingOutcome = "Process thread did not provide a return code."
	msgPressAnyKey    = "<== PRESS ANY KEY TO EXIT ==>"
)

// buildStartMsg kicks off the first phase once the program is running.
type buildStartMsg struct{}

// sessionMsg carries one event from a running phase. The session pointer
// lets Update drop events from a session it has already abandoned.
type sessionMsg struct {
	session *build.Session
	event   build.Event
}

// waitForSession creates a command that performs one multiplexed wait on
// the current session.
func waitForSession(s *build.Session, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		return sessionMsg{session: s, event: s.Next(timeout)}
	}
}

// Update implements tea.Model. Terminal resizes are ignored; the layout is
// fixed at startup.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case buildStartMsg:
		cmd := m.startBuild()
		return m, cmd

	case sessionMsg:
		if m.session == nil || msg.session != m.session {
			return m, nil
		}
		cmd := m.handleSessionEvent(msg.event)
		return m, cmd
	}

	return m, nil
}

// handleKey quits on ctrl+c at any time, and on any key once the build
// has finished and the exit prompt is showing.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.interrupt()
		return m, tea.Quit
	}
	if m.awaitingKey {
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) startBuild() tea.Cmd {
	m.sampleTelemetry(time.Now())
	m.post(StatusMessage{
		Text:     "Build started at: " + m.startedAt.Format(timestampLayout),
		Severity: buildlog.SeverityInfo,
		Target:   PaneStatus,
	})

	m.spinnerActive.Store(true)
	m.orch.AttachSpinner(spinner.Start(m.timing.spinner, m.spinnerActive.Load))

	return m.startNextPhase()
}

func (m *model) startNextPhase() tea.Cmd {
	session, phase, ok := m.orch.StartNext(m.ctx)
	if !ok {
		return m.finishBuild()
	}
	m.session = session
	m.post(StatusMessage{
		Text:     `Running process "` + phase.Command() + `"...`,
		Severity: buildlog.SeverityInfo,
		Target:   PaneStatus,
	})
	return waitForSession(session, m.timing.poll)
}

func (m *model) handleSessionEvent(ev build.Event) tea.Cmd {
	m.sampleTelemetry(time.Now())

	switch ev := ev.(type) {
	case build.LineEvent:
		m.post(StatusMessage{Text: ev.Line, Severity: buildlog.SeverityNone, Target: PaneOutput})
	case build.GlyphEvent:
		m.output.Overlay(ev.Glyph)
	case build.OutcomeEvent:
		return m.finishPhase(ev)
	}
	return waitForSession(m.session, m.timing.poll)
}

// finishPhase flushes the tail of the phase output, reports the outcome
// and either starts the next phase or ends the build.
func (m *model) finishPhase(ev build.OutcomeEvent) tea.Cmd {
	for _, line := range m.session.Drain() {
		m.post(StatusMessage{Text: line, Severity: buildlog.SeverityNone, Target: PaneOutput})
	}
	m.session = nil

	result := m.orch.Finish(ev)
	if ev.Missing {
		m.post(StatusMessage{Text: msgMissingOutcome, Severity: buildlog.SeverityWarning, Target: PaneStatus})
	} else {
		severity := buildlog.SeverityInfo
		if !ev.Outcome.Ok() {
			severity = buildlog.SeverityError
		}
		m.post(StatusMessage{Text: ev.Outcome.String(), Severity: severity, Target: PaneOutput})
	}

	if err := result.Err(); err != nil {
		m.fail(err)
		return m.finishBuild()
	}
	return m.startNextPhase()
}

// finishBuild stops the spinner and either quits or prompts for a key.
func (m *model) finishBuild() tea.Cmd {
	m.finished = true
	m.session = nil
	m.spinnerActive.Store(false)

	if m.failure == nil && !m.orch.Succeeded() {
		m.fail(errors.New("build incomplete: not every phase reported success"))
	}

	if m.noExitKeypress {
		return tea.Quit
	}
	m.post(StatusMessage{Text: msgPressAnyKey, Severity: buildlog.SeverityNone, Target: PaneStatus})
	m.awaitingKey = true
	return nil
}

// fail records the first fatal error of the build: it is shown in the
// status pane, written to the build log with a diagnostic, and turns the
// exit code to ExitFailure.
func (m *model) fail(err error) {
	if m.failure != nil {
		return
	}
	m.failure = err
	m.exitCode = ExitFailure
	m.post(StatusMessage{Text: "Build failed: " + err.Error(), Severity: buildlog.SeverityError, Target: PaneStatus})
	m.log.Diagnostic(err, m.cursors())
	m.logger.Error("build failed", "error", err)
}

// interrupt aborts a running build: the subprocess is killed through the
// build context and the build is recorded as failed.
func (m *model) interrupt() {
	if m.finished {
		return
	}
	m.orch.Abort("interrupted")
	m.cancel()
	m.session = nil
	m.finished = true
	m.spinnerActive.Store(false)
	m.fail(errors.New("build interrupted"))
}

func (m *model) sampleTelemetry(now time.Time) {
	if !m.sampler.Due(now) {
		return
	}
	m.telemetry.Replace(telemetry.Lines(m.sampler.Sample(now)))
}
