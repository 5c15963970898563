// Package buildlog writes the durable, append-only record of a build:
// every status message shown on the dashboard plus postmortem diagnostics.
package buildlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

const (
	// DefaultPath is where the log is written when nothing else is configured.
	DefaultPath = "BuildLog.txt"

	failureStart = "--- failure ---"
	failureEnd   = "--- end failure ---"
)

// PaneCursor is the line cursor of one pane at the time of a failure.
type PaneCursor struct {
	Pane string
	Line int
}

// Log is the append-only build log. It is written only from the render
// loop and carries no locking. The first write error is kept and
// returned by Err and Close; later writes are dropped.
type Log struct {
	w       io.Writer
	closer  io.Closer
	err     error
	entries int
}

// Open truncates (or creates) the file at path and returns a Log writing to it.
func Open(path string) (*Log, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open build log: %w", err)
	}
	return &Log{w: file, closer: file}, nil
}

// New returns a Log writing to w. Close does not close w.
func New(w io.Writer) *Log {
	return &Log{w: w}
}

// Append records one status message as "\n[SEVERITY] >> text".
func (l *Log) Append(severity Severity, text string) {
	entry := Entry{Severity: severity, Text: Flatten(text)}
	l.write("\n" + entry.Tagged())
	l.entries++
}

// Diagnostic appends a failure block with the full error (including any
// stack trace carried by err) and the cursor line of every pane.
func (l *Log) Diagnostic(err error, cursors []PaneCursor) {
	var sb strings.Builder
	sb.WriteString("\n" + failureStart)
	fmt.Fprintf(&sb, "\n%+v", err)
	for _, c := range cursors {
		fmt.Fprintf(&sb, "\ncursor %s: %d", c.Pane, c.Line)
	}
	sb.WriteString("\n" + failureEnd)
	l.write(sb.String())
}

// Entries returns how many status messages have been appended.
func (l *Log) Entries() int {
	return l.entries
}

// Err returns the first write error, if any.
func (l *Log) Err() error {
	return l.err
}

// Close closes the underlying file when the log owns one.
func (l *Log) Close() error {
	if l.closer != nil {
		if err := l.closer.Close(); err != nil && l.err == nil {
			l.err = fmt.Errorf("close build log: %w", err)
		}
		l.closer = nil
	}
	return l.err
}

func (l *Log) write(s string) {
	if l.err != nil {
		return
	}
	if _, err := io.WriteString(l.w, s); err != nil {
		l.err = fmt.Errorf("write build log: %w", err)
	}
}

var entryPattern = regexp.MustCompile(`^\[([A-Z]+)\] >> (.*)$`)

// Replay reads a log written by Log and returns its status messages in
// the order they were appended. Diagnostic blocks are skipped.
func Replay(r io.Reader) ([]Entry, error) {
	var entries []Entry
	inFailure := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == failureStart:
			inFailure = true
			continue
		case line == failureEnd:
			inFailure = false
			continue
		case inFailure:
			continue
		}

		m := entryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		severity, ok := ParseSeverity(m[1])
		if !ok {
			continue
		}
		entries = append(entries, Entry{Severity: severity, Text: m[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read build log: %w", err)
	}
	return entries, nil
}
