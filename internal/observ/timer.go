// Package observ measures where a build spends its time.
package observ

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Timer collects two kinds of entries: wall-clock phases of the driver and
// totals summed over parallel workers. Only phases count towards the wall
// time of a report. A Timer is safe for concurrent use.
type Timer struct {
	mu      sync.Mutex
	now     func() time.Time
	entries []entry
}

type entry struct {
	name   string
	start  time.Time
	dur    time.Duration
	note   string
	summed bool
	count  int
}

// NewTimer returns an empty Timer reading the wall clock.
func NewTimer() *Timer { return &Timer{now: time.Now} }

// Phase starts a wall-clock phase; the returned func finishes it. Calling
// the func again only replaces the note.
func (t *Timer) Phase(name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	t.mu.Lock()
	idx := len(t.entries)
	t.entries = append(t.entries, entry{name: name, start: t.now()})
	t.mu.Unlock()

	var once sync.Once
	return func(note string) {
		t.mu.Lock()
		defer t.mu.Unlock()
		e := &t.entries[idx]
		once.Do(func() { e.dur = t.now().Sub(e.start) })
		e.note = note
	}
}

// Add accumulates dur measured elsewhere into the summed entry name.
func (t *Timer) Add(name string, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if e := &t.entries[i]; e.summed && e.name == name {
			e.dur += dur
			e.count++
			return
		}
	}
	t.entries = append(t.entries, entry{name: name, dur: dur, summed: true, count: 1})
}

// Entry is one line of a Report.
type Entry struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
	// Count is the number of measurements in a summed entry.
	Count int `json:"count,omitempty"`
}

// Report is a snapshot of a Timer.
type Report struct {
	WallMS float64 `json:"wall_ms"`
	Phases []Entry `json:"phases"`
	Summed []Entry `json:"summed,omitempty"`
}

// Report takes a snapshot of the entries recorded so far.
func (t *Timer) Report() Report {
	var r Report
	if t == nil {
		return r
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var wall time.Duration
	for _, e := range t.entries {
		out := Entry{Name: e.name, DurationMS: millis(e.dur), Note: e.note}
		if e.summed {
			out.Count = e.count
			r.Summed = append(r.Summed, out)
			continue
		}
		wall += e.dur
		r.Phases = append(r.Phases, out)
	}
	r.WallMS = millis(wall)
	return r
}

// WriteText renders r as an aligned table.
func (r Report) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "timings:"); err != nil {
		return err
	}
	for _, e := range r.Phases {
		if err := writeEntry(w, e.Name, e.DurationMS, e.Note); err != nil {
			return err
		}
	}
	if err := writeEntry(w, "total", r.WallMS, ""); err != nil {
		return err
	}
	for _, e := range r.Summed {
		note := fmt.Sprintf("summed over %d", e.Count)
		if e.Note != "" {
			note += ", " + e.Note
		}
		if err := writeEntry(w, e.Name, e.DurationMS, note); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(w io.Writer, name string, ms float64, note string) error {
	line := fmt.Sprintf("  %-20s %9.2f ms", name, ms)
	if note != "" {
		line += "  // " + note
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
