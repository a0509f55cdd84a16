package diag

import (
	"strings"

	"cgbridge/internal/source"
)

// Severity orders diagnostics by importance.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
	// SevFatal: the unit was abandoned after this diagnostic.
	SevFatal
)

var severityNames = [...]string{"INFO", "WARNING", "ERROR", "FATAL"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// Label is the lower-case name used in one-line output.
func (s Severity) Label() string { return strings.ToLower(s.String()) }

// Note points at a secondary location.
type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	// Global: attributed to the whole session, Primary is meaningless.
	Global bool
	Notes  []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

// NewGlobal builds a diagnostic without a source location.
func NewGlobal(sev Severity, code Code, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Message: msg, Global: true}
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}
