package trace

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Kind says what an event marks.
type Kind uint8

const (
	KindBegin Kind = iota + 1
	KindEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindBegin:
		return "begin"
	case KindEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

func (k Kind) glyph() byte {
	switch k {
	case KindBegin:
		return '>'
	case KindEnd:
		return '<'
	case KindHeartbeat:
		return '~'
	default:
		return '*'
	}
}

// Attr is a key/value pair attached to an event; order is kept.
type Attr struct {
	Key   string
	Value string
}

// Event is one trace record.
type Event struct {
	Seq    uint64 // assigned by the first sink that sees the event
	Time   time.Time
	Kind   Kind
	Scope  Scope
	Span   uint64
	Parent uint64
	Name   string
	Detail string
	Dur    time.Duration // end events only
	Attrs  []Attr
}

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

func stamp(ev *Event) {
	if ev.Seq == 0 {
		ev.Seq = seqCounter.Add(1)
	}
}

// Format selects the encoding of written events.
type Format uint8

const (
	FormatText Format = iota
	FormatNDJSON
)

func (ev *Event) encode(f Format) []byte {
	if f == FormatNDJSON {
		return ev.appendJSON(nil)
	}
	return ev.appendText(nil)
}

// appendText renders "[seq] <indent><glyph> scope name (detail) k=v [dur]".
func (ev *Event) appendText(b []byte) []byte {
	b = append(b, '[')
	seq := strconv.FormatUint(ev.Seq, 10)
	for i := len(seq); i < 6; i++ {
		b = append(b, ' ')
	}
	b = append(b, seq...)
	b = append(b, "] "...)
	if ev.Scope > ScopeBuild {
		b = append(b, strings.Repeat("  ", int(ev.Scope-ScopeBuild))...)
	}
	b = append(b, ev.Kind.glyph(), ' ')
	b = append(b, ev.Scope.String()...)
	b = append(b, ' ')
	b = append(b, ev.Name...)
	if ev.Detail != "" {
		b = append(b, " ("...)
		b = append(b, ev.Detail...)
		b = append(b, ')')
	}
	for _, a := range ev.Attrs {
		b = append(b, ' ')
		b = append(b, a.Key...)
		b = append(b, '=')
		b = append(b, a.Value...)
	}
	if ev.Kind == KindEnd {
		b = append(b, " ["...)
		b = append(b, ev.Dur.Round(time.Microsecond).String()...)
		b = append(b, ']')
	}
	return append(b, '\n')
}

type jsonEvent struct {
	Seq    uint64            `json:"seq"`
	Time   string            `json:"time"`
	Kind   string            `json:"kind"`
	Scope  string            `json:"scope"`
	Span   uint64            `json:"span,omitempty"`
	Parent uint64            `json:"parent,omitempty"`
	Name   string            `json:"name"`
	Detail string            `json:"detail,omitempty"`
	DurUS  int64             `json:"dur_us,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

func (ev *Event) appendJSON(b []byte) []byte {
	out := jsonEvent{
		Seq:    ev.Seq,
		Time:   ev.Time.UTC().Format(time.RFC3339Nano),
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Span:   ev.Span,
		Parent: ev.Parent,
		Name:   ev.Name,
		Detail: ev.Detail,
		DurUS:  ev.Dur.Microseconds(),
	}
	if len(ev.Attrs) > 0 {
		out.Attrs = make(map[string]string, len(ev.Attrs))
		for _, a := range ev.Attrs {
			out.Attrs[a.Key] = a.Value
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return b
	}
	b = append(b, data...)
	return append(b, '\n')
}
