package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Unix(0, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestPhasesAndSums(t *testing.T) {
	tm := &Timer{now: fakeClock(2 * time.Millisecond)}
	stop := tm.Phase("lang items")
	stop("3 items")
	stop("ignored duration, new note")

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Add("codegen", 5*time.Millisecond)
		}()
	}
	wg.Wait()
	tm.Phase("units")("2 jobs")

	r := tm.Report()
	if len(r.Phases) != 2 || len(r.Summed) != 1 {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.Phases[0].DurationMS != 2 || r.Phases[0].Note != "ignored duration, new note" {
		t.Fatalf("unexpected phase %+v", r.Phases[0])
	}
	if r.WallMS != 4 {
		t.Fatalf("summed entries must not count as wall time, got %v", r.WallMS)
	}
	if r.Summed[0].DurationMS != 20 || r.Summed[0].Count != 4 {
		t.Fatalf("unexpected sum %+v", r.Summed[0])
	}

	var sb strings.Builder
	if err := r.WriteText(&sb); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	want := "timings:\n" +
		"  lang items                2.00 ms  // ignored duration, new note\n" +
		"  units                     2.00 ms  // 2 jobs\n" +
		"  total                     4.00 ms\n" +
		"  codegen                  20.00 ms  // summed over 4\n"
	if sb.String() != want {
		t.Fatalf("unexpected text:\n%s", sb.String())
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.Phase("x")("y")
	tm.Add("x", time.Second)
	if r := tm.Report(); len(r.Phases) != 0 || r.WallMS != 0 {
		t.Fatalf("unexpected report %+v", r)
	}
}
