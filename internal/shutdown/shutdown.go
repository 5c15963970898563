// Package shutdown cancels a running build when the process is signalled.
package shutdown

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// DefaultTimeout is how long RunUntilSignal waits for run to return after
// a signal.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when run does not return within the timeout
// after a signal.
var ErrTimeout = errors.New("shutdown timeout exceeded")

// RunUntilSignal calls run and blocks until it returns. On SIGINT, SIGTERM
// or SIGHUP the context passed to run is cancelled and run gets timeout to
// finish. The dashboard kills its subprocess and restores the terminal when
// its context is cancelled.
func RunUntilSignal(ctx context.Context, logger *slog.Logger, timeout time.Duration, run func(ctx context.Context) error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	return runWithSignals(ctx, logger, timeout, sigChan, run)
}

func runWithSignals(ctx context.Context, logger *slog.Logger, timeout time.Duration, sigChan <-chan os.Signal, run func(ctx context.Context) error) error {
	// Create cancellable context for the runner
	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	runDone := make(chan error, 1)
	go func() {
		runDone <- run(runCtx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received signal, cancelling build", "signal", sig)
		runCancel()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case err := <-runDone:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case <-timer.C:
			logger.Warn("shutdown timeout exceeded", "timeout", timeout)
			return ErrTimeout
		}

	case err := <-runDone:
		return err
	}
}
