package dashboard

import "github.com/npratt/buildwatch/internal/buildlog"

// PaneID names one of the three panes.
type PaneID int

const (
	PaneOutput PaneID = iota
	PaneStatus
	PaneTelemetry
)

func (id PaneID) String() string {
	switch id {
	case PaneOutput:
		return "output"
	case PaneStatus:
		return "status"
	case PaneTelemetry:
		return "telemetry"
	default:
		return "unknown"
	}
}

// StatusMessage is one line of text bound for a pane and the build log.
type StatusMessage struct {
	Text     string
	Severity buildlog.Severity
	Target   PaneID
}

// Render returns the message as drawn in a pane: untagged for
// SeverityNone, "[SEVERITY] >> text" otherwise.
func (m StatusMessage) Render() string {
	text := buildlog.Flatten(m.Text)
	if m.Severity == buildlog.SeverityNone {
		return text
	}
	return buildlog.Entry{Severity: m.Severity, Text: text}.Tagged()
}
