// Package runner spawns build subprocesses and streams their merged output.
// The low-level Process abstraction enables testability by allowing mock
// implementations to be substituted for real process execution.
package runner

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Process abstracts a single streaming subprocess.
// Implementations are single use: Start may be called once.
type Process interface {
	// Start spawns a process and returns one reader carrying stdout and
	// stderr merged in the order the process wrote them.
	Start(ctx context.Context, name string, args ...string) (io.ReadCloser, error)

	// Wait blocks until the process exits and returns the exit error.
	// Must be called after Start to avoid resource leaks.
	Wait() error

	// Kill terminates the process immediately with SIGKILL.
	// Safe to call multiple times or if process already exited.
	Kill() error
}

// ExecProcess implements Process using os/exec.
type ExecProcess struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	started bool
}

// NewExecProcess creates a new ExecProcess.
func NewExecProcess() *ExecProcess {
	return &ExecProcess{}
}

// Start spawns the named process with the given arguments.
// Stderr is pointed at the same pipe as stdout so the two streams share
// one ordering.
func (p *ExecProcess) Start(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil, fmt.Errorf("process already started")
	}

	p.cmd = exec.CommandContext(ctx, name, args...)

	output, err := p.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	p.cmd.Stderr = p.cmd.Stdout

	if err := p.cmd.Start(); err != nil {
		_ = output.Close()
		return nil, fmt.Errorf("start process: %w", err)
	}

	p.started = true
	return output, nil
}

// Wait blocks until the process exits and returns the exit error.
func (p *ExecProcess) Wait() error {
	p.mu.Lock()
	cmd := p.cmd
	started := p.started
	p.mu.Unlock()

	if cmd == nil || !started {
		return fmt.Errorf("process not started")
	}

	return cmd.Wait()
}

// Kill terminates the process immediately with SIGKILL.
func (p *ExecProcess) Kill() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return nil // Not started or already cleaned up
	}

	return p.cmd.Process.Kill()
}
