package buildlog

import "strings"

// Severity tags a status message.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityDebug
)

var severityNames = [...]string{
	SeverityNone:    "NONE",
	SeverityInfo:    "INFO",
	SeverityWarning: "WARNING",
	SeverityError:   "ERROR",
	SeverityDebug:   "DEBUG",
}

// String returns the upper-case tag name.
func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "UNKNOWN"
	}
	return severityNames[s]
}

// ParseSeverity is the inverse of String.
func ParseSeverity(name string) (Severity, bool) {
	for i, n := range severityNames {
		if n == name {
			return Severity(i), true
		}
	}
	return SeverityNone, false
}

// Entry is one status message as recorded in the log.
type Entry struct {
	Severity Severity
	Text     string
}

// Tagged renders the entry as "[SEVERITY] >> text".
func (e Entry) Tagged() string {
	return "[" + e.Severity.String() + "] >> " + e.Text
}

// Flatten folds line breaks into spaces so a message occupies one log line.
func Flatten(text string) string {
	if !strings.ContainsAny(text, "\r\n") {
		return text
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)
}
