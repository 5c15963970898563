package runner

import "fmt"

// OutcomeKind distinguishes the two terminal results of a process run.
type OutcomeKind int

const (
	// OutcomeSuccess means the process ran and exited with ExitCode.
	OutcomeSuccess OutcomeKind = iota + 1
	// OutcomeLaunchFailure means the process could not be spawned or its
	// output could not be read.
	OutcomeLaunchFailure
)

// NoNativeCode is the exit code used when a failure carries no code of its own.
const NoNativeCode = -1

// Outcome is the single terminal result of one ProcessRunner invocation.
type Outcome struct {
	Kind     OutcomeKind
	ExitCode int
	Message  string // set for launch failures
}

// Success returns the outcome of a process that exited with code.
func Success(code int) Outcome {
	return Outcome{Kind: OutcomeSuccess, ExitCode: code}
}

// LaunchFailure returns the outcome of a process that never produced an exit code.
func LaunchFailure(message string, code int) Outcome {
	return Outcome{Kind: OutcomeLaunchFailure, ExitCode: code, Message: message}
}

// Ok reports whether the outcome is Success(0).
func (o Outcome) Ok() bool {
	return o.Kind == OutcomeSuccess && o.ExitCode == 0
}

// String renders the outcome the way it is reported in the output pane.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		if o.ExitCode == 0 {
			return "Process finished with return code 0"
		}
		return fmt.Sprintf("Process failed with return code %d", o.ExitCode)
	case OutcomeLaunchFailure:
		return fmt.Sprintf("Process failed with message %q (return code = %d)", o.Message, o.ExitCode)
	default:
		return "Process produced no outcome"
	}
}
