package trace

import (
	"time"
)

// Span is an operation with a begin and an end event. A span of a scope
// the tracer does not record is inert but still measures its duration.
type Span struct {
	t      Tracer
	scope  Scope
	id     uint64
	parent uint64
	name   string
	start  time.Time
	attrs  []Attr
}

// Begin starts a span below parent (0 for a root span).
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	now := time.Now()
	if !Enabled(t, scope) {
		return &Span{start: now}
	}
	s := &Span{t: t, scope: scope, id: spanCounter.Add(1), parent: parent, name: name, start: now}
	t.Emit(Event{Time: now, Kind: KindBegin, Scope: scope, Span: s.id, Parent: parent, Name: name})
	return s
}

// Attr adds a key/value pair to the end event.
func (s *Span) Attr(key, value string) *Span {
	if s != nil && s.t != nil {
		s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	}
	return s
}

// End emits the end event and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil {
		return 0
	}
	now := time.Now()
	dur := now.Sub(s.start)
	if s.t != nil {
		s.t.Emit(Event{
			Time:   now,
			Kind:   KindEnd,
			Scope:  s.scope,
			Span:   s.id,
			Parent: s.parent,
			Name:   s.name,
			Detail: detail,
			Dur:    dur,
			Attrs:  s.attrs,
		})
	}
	return dur
}

// ID is the span id, 0 for inert spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Point records an instant event.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if !Enabled(t, scope) {
		return
	}
	t.Emit(Event{Time: time.Now(), Kind: KindPoint, Scope: scope, Parent: parent, Name: name, Detail: detail})
}
