// Package diag defines the diagnostics reported while generating code.
//
// A Diagnostic has a Severity, a Code with a stable identifier such as
// CG4001, a message, and either a primary span or the Global flag for
// diagnostics that belong to the whole session. SevFatal marks the
// diagnostic after which a unit was abandoned.
//
// Producers report through a Reporter, usually with ReportError or
// ReportFatal so notes can be chained before Emit. Each unit collects into
// its own Bag; the driver merges them and sorts the result for output.
//
// Rendering beyond the one-line form of FormatShortDiagnostics lives in
// internal/diagfmt.
package diag
