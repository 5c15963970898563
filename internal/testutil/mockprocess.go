// Package testutil provides test infrastructure for unit and integration testing.
package testutil

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// Errors returned by MockProcess.
var (
	ErrProcessAlreadyStarted = errors.New("process already started")
	ErrProcessNotStarted     = errors.New("process not started")
	ErrProcessKilled         = errors.New("process killed")
)

// ProcessCall records a single Start call.
type ProcessCall struct {
	Name string
	Args []string
}

// MockProcess implements runner.Process for testing.
// It serves canned merged output and records calls for assertion.
type MockProcess struct {
	mu sync.Mutex

	// Configuration
	output   string
	startErr error
	waitErr  error

	// State tracking
	started    bool
	killed     bool
	waitCalled bool
	calls      []ProcessCall
	pipe       *mockPipe
}

// NewMockProcess creates a new mock for testing.
func NewMockProcess() *MockProcess {
	return &MockProcess{}
}

// SetOutput configures the merged output content to return.
func (m *MockProcess) SetOutput(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.output = content
}

// SetStartError configures an error to return from Start.
func (m *MockProcess) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// SetWaitError configures an error to return from Wait.
func (m *MockProcess) SetWaitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitErr = err
}

// Start implements runner.Process.Start.
func (m *MockProcess) Start(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil, ErrProcessAlreadyStarted
	}

	m.calls = append(m.calls, ProcessCall{Name: name, Args: args})

	if m.startErr != nil {
		return nil, m.startErr
	}

	m.started = true
	m.pipe = newMockPipe(m.output)
	return m.pipe, nil
}

// Wait implements runner.Process.Wait.
func (m *MockProcess) Wait() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrProcessNotStarted
	}

	m.waitCalled = true

	if m.killed {
		return ErrProcessKilled
	}

	return m.waitErr
}

// Kill implements runner.Process.Kill.
func (m *MockProcess) Kill() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil // Safe to call if not started
	}

	m.killed = true

	// Close the pipe to unblock readers
	if m.pipe != nil {
		_ = m.pipe.Close()
	}

	return nil
}

// Calls returns a copy of all recorded Start calls.
func (m *MockProcess) Calls() []ProcessCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]ProcessCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// Killed returns whether the process was killed.
func (m *MockProcess) Killed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.killed
}

// WaitCalled returns whether Wait was called.
func (m *MockProcess) WaitCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitCalled
}

// mockPipe provides a simple io.ReadCloser for mock output.
type mockPipe struct {
	reader io.Reader
	closed bool
	mu     sync.Mutex
}

func newMockPipe(content string) *mockPipe {
	return &mockPipe{
		reader: strings.NewReader(content),
	}
}

func (p *mockPipe) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, io.EOF
	}

	return p.reader.Read(buf)
}

func (p *mockPipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
