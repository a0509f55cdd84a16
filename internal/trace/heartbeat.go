package trace

import (
	"runtime"
	"strconv"
	"sync"
	"time"
)

// StartHeartbeat emits a heartbeat every interval until the returned func
// is called. A build stuck in one unit keeps beating without any span
// ending, which tells a hang apart from a crash in the trace.
func StartHeartbeat(t Tracer, every time.Duration) (stop func()) {
	if t == nil || t.Level() == LevelOff || every <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for beat := 1; ; beat++ {
			select {
			case now := <-ticker.C:
				t.Emit(Event{
					Time:   now,
					Kind:   KindHeartbeat,
					Scope:  ScopeBuild,
					Name:   "heartbeat",
					Detail: "#" + strconv.Itoa(beat),
					Attrs:  []Attr{{Key: "goroutines", Value: strconv.Itoa(runtime.NumGoroutine())}},
				})
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		wg.Wait()
	}
}
