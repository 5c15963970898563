package dashboard

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/buildwatch/internal/build"
	"github.com/npratt/buildwatch/internal/buildlog"
	"github.com/npratt/buildwatch/internal/testutil"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var fastTiming = timing{
	poll:      5 * time.Millisecond,
	spinner:   5 * time.Millisecond,
	telemetry: 20 * time.Millisecond,
}

// fixture bundles a model with the fakes behind it.
type fixture struct {
	model   model
	starter *testutil.ScriptedStarter
	source  *testutil.FakeTelemetrySource
	logBuf  *bytes.Buffer
	log     *buildlog.Log
}

func newFixture(t *testing.T, width, height int, noExitKeypress bool) *fixture {
	t.Helper()

	layout, err := NewLayout(width, height)
	if err != nil {
		t.Fatalf("NewLayout(%d, %d): %v", width, height, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f := &fixture{
		starter: testutil.NewScriptedStarter(),
		source: &testutil.FakeTelemetrySource{
			CPU:        10,
			UsedBytes:  1 << 30,
			TotalBytes: 4 << 30,
		},
		logBuf: &bytes.Buffer{},
	}
	f.log = buildlog.New(f.logBuf)

	orch := build.New(build.DefaultPhases(), f.starter.Start, discardLogger)
	f.model = newModel(ctx, cancel, layout, orch, f.source, f.log, discardLogger, fastTiming, noExitKeypress)
	t.Cleanup(func() { f.model.spinnerActive.Store(false) })
	return f
}

// pump feeds messages produced by cmd back into the model until no
// command remains or the model quits.
func pump(t *testing.T, m model, cmd tea.Cmd) (model, bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for cmd != nil {
		if time.Now().After(deadline) {
			t.Fatal("model did not settle within 5s")
		}
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return m, true
		}
		next, nextCmd := m.Update(msg)
		m = next.(model)
		cmd = nextCmd
	}
	return m, false
}

// runBuild starts the build and pumps it to completion.
func (f *fixture) runBuild(t *testing.T) (model, bool) {
	t.Helper()
	next, cmd := f.model.Update(buildStartMsg{})
	m, quit := pump(t, next.(model), cmd)
	f.model = m
	return m, quit
}

func (f *fixture) entries(t *testing.T) []buildlog.Entry {
	t.Helper()
	entries, err := buildlog.Replay(bytes.NewReader(f.logBuf.Bytes()))
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	return entries
}

func countText(entries []buildlog.Entry, text string) int {
	n := 0
	for _, e := range entries {
		if e.Text == text {
			n++
		}
	}
	return n
}
