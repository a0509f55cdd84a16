package trace

import (
	"io"
	"sync"
)

// Ring keeps the most recent events in memory.
type Ring struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
	level  Level
}

// NewRing returns a ring holding up to size events; size <= 0 means 4096.
func NewRing(size int, level Level) *Ring {
	if size <= 0 {
		size = 4096
	}
	return &Ring{events: make([]Event, size), level: level}
}

func (r *Ring) Emit(ev Event) {
	if ev.Kind != KindHeartbeat && !r.level.Allows(ev.Scope) {
		return
	}
	stamp(&ev)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[r.next] = ev
	r.next++
	if r.next == len(r.events) {
		r.next = 0
		r.full = true
	}
}

// Events returns the kept events, oldest first.
func (r *Ring) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Event(nil), r.events[:r.next]...)
	}
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	return append(out, r.events[:r.next]...)
}

// Dump writes the kept events to w.
func (r *Ring) Dump(w io.Writer, format Format) error {
	for _, ev := range r.Events() {
		if _, err := w.Write(ev.encode(format)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Ring) Level() Level { return r.level }
func (r *Ring) Close() error { return nil }
