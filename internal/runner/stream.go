package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
)

const (
	// DefaultLineBuffer is the capacity of the line channel returned by Run.
	DefaultLineBuffer = 256
	// MaxLineBytes bounds a single output line. Longer lines are truncated
	// and the rest of the line is discarded.
	MaxLineBytes = 1024 * 1024
)

// ProcessRunner runs one external command per Run call and streams its
// merged output on a channel.
type ProcessRunner struct {
	newProcess func() Process
	lineBuffer int
	logger     *slog.Logger
}

// Option configures a ProcessRunner.
type Option func(*ProcessRunner)

// WithProcessFactory sets the constructor used for each Run call.
func WithProcessFactory(fn func() Process) Option {
	return func(r *ProcessRunner) {
		r.newProcess = fn
	}
}

// WithLineBuffer sets the line channel capacity.
func WithLineBuffer(n int) Option {
	return func(r *ProcessRunner) {
		if n > 0 {
			r.lineBuffer = n
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ProcessRunner) {
		r.logger = logger
	}
}

// NewProcessRunner creates a ProcessRunner that spawns real processes
// unless a factory is supplied.
func NewProcessRunner(opts ...Option) *ProcessRunner {
	r := &ProcessRunner{
		newProcess: func() Process { return NewExecProcess() },
		lineBuffer: DefaultLineBuffer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts argv in a background goroutine and returns immediately.
// Sanitized output lines arrive on the first channel in the order the
// process wrote them. Exactly one Outcome is sent on the second channel,
// after the last line, and then both channels are closed.
func (r *ProcessRunner) Run(ctx context.Context, argv []string) (<-chan string, <-chan Outcome) {
	lines := make(chan string, r.lineBuffer)
	outcomes := make(chan Outcome, 1)

	go func() {
		defer close(outcomes)
		defer close(lines)
		outcome := r.execute(ctx, argv, lines)
		r.logger.Debug("process finished",
			"argv", strings.Join(argv, " "),
			"kind", outcome.Kind,
			"exit_code", outcome.ExitCode)
		outcomes <- outcome
	}()

	return lines, outcomes
}

func (r *ProcessRunner) execute(ctx context.Context, argv []string, lines chan<- string) Outcome {
	if len(argv) == 0 {
		return LaunchFailure("empty command", NoNativeCode)
	}

	proc := r.newProcess()
	output, err := proc.Start(ctx, argv[0], argv[1:]...)
	if err != nil {
		return LaunchFailure(err.Error(), nativeCode(err))
	}
	defer func() { _ = output.Close() }()

	reader := bufio.NewReaderSize(output, 64*1024)
	for {
		line, err := readLine(reader)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = proc.Kill()
			_ = proc.Wait()
			return LaunchFailure(fmt.Sprintf("read output: %v", err), NoNativeCode)
		}
		select {
		case lines <- Sanitize(line):
		case <-ctx.Done():
			// Nobody is draining anymore.
			_ = proc.Kill()
			_ = proc.Wait()
			return LaunchFailure(fmt.Sprintf("cancelled: %v", ctx.Err()), NoNativeCode)
		}
	}

	if err := proc.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Success(exitErr.ExitCode())
		}
		return LaunchFailure(err.Error(), nativeCode(err))
	}
	return Success(0)
}

// readLine returns the next line without its terminator. A final line
// with no newline is still returned before io.EOF.
func readLine(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	truncated := false
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			if sb.Len() > 0 {
				break
			}
			return "", err
		}
		if room := MaxLineBytes - sb.Len(); len(frag) > room {
			frag = frag[:room]
			truncated = true
		}
		sb.Write(frag)
		if !isPrefix {
			break
		}
	}
	if truncated {
		// The cut may land inside a multi-byte rune.
		return strings.ToValidUTF8(sb.String(), ""), nil
	}
	return sb.String(), nil
}

// nativeCode extracts an OS error number from err, or NoNativeCode.
func nativeCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return NoNativeCode
}
