// Package session carries the per-unit diagnostic context of a compilation.
//
// A Session is created for every compilation unit and handed to the code
// generator. Unrecoverable conditions never travel as error values through the
// code generator: Fatal and SpanFatal report a diagnostic and unwind with
// FatalError, which the unit boundary (CatchFatal) turns back into an error.
// Bug aborts with a *BugError that CatchFatal deliberately does not stop.
package session

import (
	"errors"
	"fmt"
	"runtime/debug"

	"cgbridge/internal/diag"
	"cgbridge/internal/source"
	"cgbridge/internal/trace"
)

// ErrAborted is returned by CatchFatal when the unit ended with a fatal diagnostic.
var ErrAborted = errors.New("compilation unit aborted due to previous error")

// FatalError is the unwind payload of Fatal/SpanFatal. It carries no data:
// the diagnostic has already been reported.
type FatalError struct{}

func (FatalError) Error() string { return ErrAborted.Error() }

// BugError describes an internal compiler error.
type BugError struct {
	Msg   string
	Stack []byte
}

func (e *BugError) Error() string {
	return "internal compiler error: " + e.Msg
}

// Session is the diagnostic sink of a single compilation unit.
type Session struct {
	Name     string
	Files    *source.FileSet
	reporter diag.Reporter
	tracer   trace.Tracer
}

// New creates a session that reports into r.
func New(name string, files *source.FileSet, r diag.Reporter, tr trace.Tracer) *Session {
	if r == nil {
		r = diag.NopReporter{}
	}
	if tr == nil {
		tr = trace.Nop
	}
	return &Session{Name: name, Files: files, reporter: r, tracer: tr}
}

// Reporter exposes the underlying reporter for non-fatal diagnostics.
func (s *Session) Reporter() diag.Reporter {
	return s.reporter
}

// Tracer returns the tracer used by this session.
func (s *Session) Tracer() trace.Tracer {
	return s.tracer
}

// SpanFatal reports a fatal diagnostic attributed to sp and terminates the unit.
func (s *Session) SpanFatal(code diag.Code, sp source.Span, msg string) {
	diag.ReportFatal(s.reporter, code, diag.Diagnostic{Primary: sp, Message: msg}).Emit()
	trace.Point(s.tracer, trace.ScopeUnit, "fatal", msg, 0)
	panic(FatalError{})
}

// Fatal reports a session-wide fatal diagnostic and terminates the unit.
func (s *Session) Fatal(code diag.Code, msg string) {
	diag.ReportFatal(s.reporter, code, diag.Diagnostic{Global: true, Message: msg}).Emit()
	trace.Point(s.tracer, trace.ScopeUnit, "fatal", msg, 0)
	panic(FatalError{})
}

// Bug aborts with an internal compiler error. It is not a user diagnostic.
func Bug(format string, args ...any) {
	panic(&BugError{Msg: fmt.Sprintf(format, args...), Stack: debug.Stack()})
}

// CatchFatal runs fn and converts a FatalError unwind into ErrAborted.
// Any other panic, including *BugError, is propagated unchanged.
func CatchFatal(fn func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(FatalError); ok {
			err = ErrAborted
			return
		}
		panic(r)
	}()
	return fn()
}

// CatchBug converts a *BugError panic into an error. It is meant for the
// outermost driver only, so that an ICE is printed instead of a raw stack.
func CatchBug(fn func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if bug, ok := r.(*BugError); ok {
			err = bug
			return
		}
		panic(r)
	}()
	return fn()
}
