package runner_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/npratt/buildwatch/internal/runner"
	"github.com/npratt/buildwatch/internal/testutil"
)

// collect drains both channels the way the dashboard does and fails the
// test if the runner does not finish in time.
func collect(t *testing.T, lines <-chan string, outcomes <-chan runner.Outcome) ([]string, []runner.Outcome) {
	t.Helper()

	var gotLines []string
	var gotOutcomes []runner.Outcome
	timeout := time.After(5 * time.Second)

	for lines != nil || outcomes != nil {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			gotLines = append(gotLines, line)
		case outcome, ok := <-outcomes:
			if !ok {
				outcomes = nil
				continue
			}
			gotOutcomes = append(gotOutcomes, outcome)
		case <-timeout:
			t.Fatal("runner did not finish within 5s")
		}
	}
	return gotLines, gotOutcomes
}

// run starts argv on r and collects everything it produces.
func run(t *testing.T, r *runner.ProcessRunner, argv []string) ([]string, []runner.Outcome) {
	t.Helper()
	lines, outcomes := r.Run(context.Background(), argv)
	return collect(t, lines, outcomes)
}

func mockFactory(p *testutil.MockProcess) runner.Option {
	return runner.WithProcessFactory(func() runner.Process { return p })
}

func TestProcessRunner_StreamsLinesInOrder(t *testing.T) {
	proc := testutil.NewMockProcess()
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	proc.SetOutput(sb.String())

	r := runner.NewProcessRunner(mockFactory(proc), runner.WithLineBuffer(4))
	lines, outcomes := run(t, r, []string{"make", "all"})

	if len(lines) != 500 {
		t.Fatalf("got %d lines, want 500", len(lines))
	}
	for i, line := range lines {
		if want := fmt.Sprintf("line %d", i); line != want {
			t.Fatalf("lines[%d] = %q, want %q", i, line, want)
		}
	}
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want exactly 1", len(outcomes))
	}
	if !outcomes[0].Ok() {
		t.Errorf("outcome = %+v, want Success(0)", outcomes[0])
	}

	calls := proc.Calls()
	if len(calls) != 1 || calls[0].Name != "make" || len(calls[0].Args) != 1 || calls[0].Args[0] != "all" {
		t.Errorf("unexpected Start calls: %+v", calls)
	}
	if !proc.WaitCalled() {
		t.Error("Wait was not called")
	}
}

func TestProcessRunner_StripsEscapes(t *testing.T) {
	proc := testutil.NewMockProcess()
	proc.SetOutput("\x1b[32mCC\x1b[0m main.o\r\n 10%\r 55%\r100%\n")

	r := runner.NewProcessRunner(mockFactory(proc))
	lines, _ := run(t, r, []string{"make"})

	want := []string{"CC main.o", "100%"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("lines[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestProcessRunner_StartFailure(t *testing.T) {
	proc := testutil.NewMockProcess()
	proc.SetStartError(errors.New("start process: exec: \"mak\": executable file not found in $PATH"))

	r := runner.NewProcessRunner(mockFactory(proc))
	lines, outcomes := run(t, r, []string{"mak"})

	if len(lines) != 0 {
		t.Errorf("expected no lines, got %q", lines)
	}
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	got := outcomes[0]
	if got.Kind != runner.OutcomeLaunchFailure {
		t.Errorf("Kind = %v, want OutcomeLaunchFailure", got.Kind)
	}
	if got.ExitCode != runner.NoNativeCode {
		t.Errorf("ExitCode = %d, want %d", got.ExitCode, runner.NoNativeCode)
	}
	if !strings.Contains(got.Message, "executable file not found") {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestProcessRunner_EmptyCommand(t *testing.T) {
	r := runner.NewProcessRunner()
	_, outcomes := run(t, r, nil)

	if len(outcomes) != 1 || outcomes[0].Kind != runner.OutcomeLaunchFailure {
		t.Fatalf("outcomes = %+v, want one launch failure", outcomes)
	}
}

func TestProcessRunner_WaitErrorIsLaunchFailure(t *testing.T) {
	proc := testutil.NewMockProcess()
	proc.SetOutput("partial\n")
	proc.SetWaitError(errors.New("wait: broken pipe"))

	r := runner.NewProcessRunner(mockFactory(proc))
	lines, outcomes := run(t, r, []string{"make"})

	if len(lines) != 1 || lines[0] != "partial" {
		t.Errorf("lines = %q", lines)
	}
	if outcomes[0].Kind != runner.OutcomeLaunchFailure || outcomes[0].ExitCode != -1 {
		t.Errorf("outcome = %+v, want LaunchFailure(-1)", outcomes[0])
	}
}

func TestProcessRunner_RealProcessExitCode(t *testing.T) {
	r := runner.NewProcessRunner()
	lines, outcomes := run(t, r, []string{"sh", "-c", "echo building; echo oops >&2; exit 2"})

	if len(lines) != 2 || lines[0] != "building" || lines[1] != "oops" {
		t.Errorf("lines = %q, want [building oops]", lines)
	}
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outcomes))
	}
	if outcomes[0].Kind != runner.OutcomeSuccess || outcomes[0].ExitCode != 2 {
		t.Errorf("outcome = %+v, want Success(2)", outcomes[0])
	}
	if outcomes[0].Ok() {
		t.Error("Success(2) must not be Ok")
	}
}

func TestProcessRunner_RealProcessNotFound(t *testing.T) {
	r := runner.NewProcessRunner()
	_, outcomes := run(t, r, []string{"nonexistent-command-12345"})

	if outcomes[0].Kind != runner.OutcomeLaunchFailure {
		t.Errorf("outcome = %+v, want launch failure", outcomes[0])
	}
}

func TestProcessRunner_LaunchFailureCarriesErrno(t *testing.T) {
	r := runner.NewProcessRunner()
	_, outcomes := run(t, r, []string{"/nonexistent/buildwatch-tool"})

	if len(outcomes) != 1 || outcomes[0].Kind != runner.OutcomeLaunchFailure {
		t.Fatalf("outcomes = %+v, want one launch failure", outcomes)
	}
	if outcomes[0].ExitCode != int(syscall.ENOENT) {
		t.Errorf("ExitCode = %d, want ENOENT (%d)", outcomes[0].ExitCode, int(syscall.ENOENT))
	}
}

func TestProcessRunner_TruncatesLongLines(t *testing.T) {
	proc := testutil.NewMockProcess()
	proc.SetOutput(strings.Repeat("x", 2*runner.MaxLineBytes) + "\nnext\nno newline")

	r := runner.NewProcessRunner(mockFactory(proc))
	lines, outcomes := run(t, r, []string{"make"})

	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if len(lines[0]) != runner.MaxLineBytes {
		t.Errorf("len(lines[0]) = %d, want %d", len(lines[0]), runner.MaxLineBytes)
	}
	if lines[1] != "next" || lines[2] != "no newline" {
		t.Errorf("lines after the long one = %q", lines[1:])
	}
	if len(outcomes) != 1 || !outcomes[0].Ok() {
		t.Errorf("outcomes = %+v, want Success(0)", outcomes)
	}
	if proc.Killed() {
		t.Error("process was killed over a long line")
	}
}

func TestProcessRunner_TruncationKeepsUTF8(t *testing.T) {
	proc := testutil.NewMockProcess()
	// The two-byte rune straddles the cut.
	proc.SetOutput(strings.Repeat("a", runner.MaxLineBytes-1) + "é tail\n")

	r := runner.NewProcessRunner(mockFactory(proc))
	lines, _ := run(t, r, []string{"make"})

	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !utf8.ValidString(lines[0]) {
		t.Error("truncated line is not valid UTF-8")
	}
	if len(lines[0]) != runner.MaxLineBytes-1 {
		t.Errorf("len = %d, want %d", len(lines[0]), runner.MaxLineBytes-1)
	}
}

func TestProcessRunner_RealProcessInterleaving(t *testing.T) {
	r := runner.NewProcessRunner(runner.WithLineBuffer(8))
	script := `i=0; while [ $i -lt 500 ]; do echo "out $i"; echo "err $i" >&2; i=$((i+1)); done; echo end`
	lines, outcomes := run(t, r, []string{"sh", "-c", script})

	if len(lines) != 1001 {
		t.Fatalf("got %d lines, want 1001", len(lines))
	}
	for i := 0; i < 500; i++ {
		if want := fmt.Sprintf("out %d", i); lines[2*i] != want {
			t.Fatalf("lines[%d] = %q, want %q", 2*i, lines[2*i], want)
		}
		if want := fmt.Sprintf("err %d", i); lines[2*i+1] != want {
			t.Fatalf("lines[%d] = %q, want %q", 2*i+1, lines[2*i+1], want)
		}
	}
	if lines[1000] != "end" {
		t.Errorf("last line = %q", lines[1000])
	}
	if len(outcomes) != 1 || !outcomes[0].Ok() {
		t.Errorf("outcomes = %+v", outcomes)
	}
}

func TestProcessRunner_RunDoesNotBlock(t *testing.T) {
	r := runner.NewProcessRunner()

	start := time.Now()
	lines, outcomes := r.Run(context.Background(), []string{"sh", "-c", "sleep 0.3; echo done"})
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Run blocked for %v", elapsed)
	}

	got, _ := collect(t, lines, outcomes)
	if len(got) != 1 || got[0] != "done" {
		t.Errorf("lines = %q", got)
	}
}

func TestProcessRunner_CancelWhileBlocked(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	r := runner.NewProcessRunner(runner.WithLineBuffer(1))
	lines, outcomes := r.Run(ctx, []string{"sh", "-c", "while true; do echo spam; done"})

	// Let the buffer fill, then walk away without draining.
	<-lines
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case outcome := <-outcomes:
		if outcome.Ok() {
			t.Errorf("cancelled run reported success: %+v", outcome)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runner goroutine did not exit after cancel")
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome runner.Outcome
		want    string
	}{
		{runner.Success(0), "Process finished with return code 0"},
		{runner.Success(2), "Process failed with return code 2"},
		{runner.LaunchFailure("no such file", -1), `Process failed with message "no such file" (return code = -1)`},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "gcc -c main.c", "gcc -c main.c"},
		{"color codes", "\x1b[1;31merror:\x1b[0m undefined", "error: undefined"},
		{"trailing cr", "done\r", "done"},
		{"progress redraw", "[ 10%]\r[ 50%]\r[100%]", "[100%]"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runner.Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
