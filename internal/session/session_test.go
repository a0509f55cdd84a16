package session

import (
	"errors"
	"testing"

	"cgbridge/internal/diag"
	"cgbridge/internal/source"
)

func TestSpanFatalReportsAndAborts(t *testing.T) {
	bag := diag.NewBag(10)
	sess := New("unit", nil, diag.BagReporter{Bag: bag}, nil)
	sp := source.Span{File: 0, Start: 3, End: 9}

	reachedAfter := false
	err := CatchFatal(func() error {
		sess.SpanFatal(diag.CgMissingLangItem, sp, "boom")
		reachedAfter = true
		return nil
	})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("want ErrAborted, got %v", err)
	}
	if reachedAfter {
		t.Fatalf("SpanFatal must not return")
	}
	items := bag.Items()
	if len(items) != 1 || items[0].Severity != diag.SevFatal || items[0].Primary != sp || items[0].Global {
		t.Fatalf("unexpected diagnostics: %+v", items)
	}
}

func TestFatalIsSessionWide(t *testing.T) {
	bag := diag.NewBag(10)
	sess := New("unit", nil, diag.BagReporter{Bag: bag}, nil)
	err := CatchFatal(func() error {
		sess.Fatal(diag.CgMissingLangItem, "no span")
		return nil
	})
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("want ErrAborted, got %v", err)
	}
	if !bag.Items()[0].Global {
		t.Fatalf("session-wide fatal must be marked global")
	}
}

func TestCatchFatalDoesNotSwallowBugs(t *testing.T) {
	defer func() {
		r := recover()
		bug, ok := r.(*BugError)
		if !ok {
			t.Fatalf("want *BugError panic, got %v", r)
		}
		if bug.Msg != "bad kind Float" {
			t.Fatalf("unexpected bug message %q", bug.Msg)
		}
	}()
	_ = CatchFatal(func() error {
		Bug("bad kind %s", "Float")
		return nil
	})
}

func TestCatchBug(t *testing.T) {
	err := CatchBug(func() error {
		Bug("oops")
		return nil
	})
	var bug *BugError
	if !errors.As(err, &bug) || bug.Msg != "oops" {
		t.Fatalf("want BugError, got %v", err)
	}
}
