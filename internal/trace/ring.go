package trace

import (
	"io"
	"sync"
)

// RingTracer keeps the last events in memory so that a crashed or failed
// fix-all run can be dumped afterwards. At LevelError it keeps every scope.
type RingTracer struct {
	mu     sync.Mutex
	events []Event
	next   int
	filled bool
	level  Level
}

// NewRingTracer creates a ring of the given capacity (default 4096).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{events: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.records(ev.Scope) {
		return
	}
	t.mu.Lock()
	t.events[t.next] = *ev
	t.next++
	if t.next == len(t.events) {
		t.next, t.filled = 0, true
	}
	t.mu.Unlock()
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.filled {
		return append([]Event(nil), t.events[:t.next]...)
	}
	out := make([]Event, 0, len(t.events))
	out = append(out, t.events[t.next:]...)
	return append(out, t.events[:t.next]...)
}

// Operation returns the stored events of one fix-all run, oldest first.
func (t *RingTracer) Operation(id string) []Event {
	var out []Event
	for _, ev := range t.Snapshot() {
		if ev.Operation == id {
			out = append(out, ev)
		}
	}
	return out
}

// Dump writes every stored event to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	return dumpEvents(w, format, t.Snapshot())
}

// DumpOperation writes the stored events of one fix-all run to w.
func (t *RingTracer) DumpOperation(w io.Writer, format Format, id string) error {
	return dumpEvents(w, format, t.Operation(id))
}

func dumpEvents(w io.Writer, format Format, events []Event) error {
	doc := chromeDoc{w: w, format: format}
	if err := doc.open(); err != nil {
		return err
	}
	for i := range events {
		if err := doc.write(&events[i]); err != nil {
			return err
		}
	}
	return doc.close()
}

func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
