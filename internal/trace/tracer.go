package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Tracer consumes events. Emit is called from worker goroutines and must
// be safe for concurrent use.
type Tracer interface {
	Emit(ev Event)
	Level() Level
	Close() error
}

type nop struct{}

func (nop) Emit(Event)   {}
func (nop) Level() Level { return LevelOff }
func (nop) Close() error { return nil }

// Nop records nothing.
var Nop Tracer = nop{}

// Mode selects where events go.
type Mode uint8

const (
	ModeStream Mode = iota + 1 // written as they happen
	ModeRing                   // kept in memory for a dump
	ModeBoth
)

// ParseMode accepts stream, ring and both.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return 0, fmt.Errorf("invalid trace mode %q (expected stream|ring|both)", s)
	}
}

// Config describes a tracer to Open.
type Config struct {
	Level Level
	Mode  Mode // 0 = ModeStream
	// Path is the stream output; "" and "-" mean stderr. A .ndjson suffix
	// selects NDJSON unless Format says otherwise.
	Path     string
	Format   Format
	RingSize int // 0 = 4096
}

// Open builds the tracer described by cfg.
func Open(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	mode := cfg.Mode
	if mode == 0 {
		mode = ModeStream
	}
	var ring *Ring
	if mode == ModeRing || mode == ModeBoth {
		ring = NewRing(cfg.RingSize, cfg.Level)
		if mode == ModeRing {
			return ring, nil
		}
	}
	format := cfg.Format
	if format == FormatText && strings.HasSuffix(cfg.Path, ".ndjson") {
		format = FormatNDJSON
	}
	var stream *Writer
	if cfg.Path == "" || cfg.Path == "-" {
		stream = NewWriter(os.Stderr, cfg.Level, format)
	} else {
		f, err := os.Create(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open trace output: %w", err)
		}
		stream = NewWriter(bufio.NewWriter(f), cfg.Level, format)
		stream.closer = f
	}
	if ring == nil {
		return stream, nil
	}
	return Tee(stream, ring), nil
}

// Writer encodes events to an io.Writer as they arrive.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
	closer io.Closer
	buf    []byte
}

// NewWriter returns a tracer writing to w. Write errors are dropped: a
// broken trace output never fails a build.
func NewWriter(w io.Writer, level Level, format Format) *Writer {
	return &Writer{w: w, level: level, format: format}
}

func (t *Writer) Emit(ev Event) {
	if !t.accepts(ev) {
		return
	}
	stamp(&ev)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = t.buf[:0]
	if t.format == FormatNDJSON {
		t.buf = ev.appendJSON(t.buf)
	} else {
		t.buf = ev.appendText(t.buf)
	}
	_, _ = t.w.Write(t.buf) //nolint:errcheck
}

func (t *Writer) accepts(ev Event) bool {
	if ev.Kind == KindHeartbeat {
		return t.level != LevelOff
	}
	return t.level.Allows(ev.Scope)
}

func (t *Writer) Level() Level { return t.level }

// Close flushes buffered output and closes files opened by Open.
func (t *Writer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var errs []error
	if f, ok := t.w.(interface{ Flush() error }); ok {
		errs = append(errs, f.Flush())
	}
	if t.closer != nil {
		errs = append(errs, t.closer.Close())
		t.closer = nil
	}
	return errors.Join(errs...)
}

type tee []Tracer

// Tee sends every event to all tracers; the level is the finest of theirs.
func Tee(tracers ...Tracer) Tracer {
	return tee(tracers)
}

func (t tee) Emit(ev Event) {
	// одна последовательность для всех приёмников
	stamp(&ev)
	for _, tr := range t {
		tr.Emit(ev)
	}
}

func (t tee) Level() Level {
	lvl := LevelOff
	for _, tr := range t {
		lvl = max(lvl, tr.Level())
	}
	return lvl
}

func (t tee) Close() error {
	errs := make([]error, 0, len(t))
	for _, tr := range t {
		errs = append(errs, tr.Close())
	}
	return errors.Join(errs...)
}

// RingOf returns the ring buffer behind t, if it has one.
func RingOf(t Tracer) *Ring {
	switch tr := t.(type) {
	case *Ring:
		return tr
	case tee:
		for _, inner := range tr {
			if r := RingOf(inner); r != nil {
				return r
			}
		}
	}
	return nil
}
