package trace

import (
	"io"
	"sync"
)

// chromeDoc writes events as the traceEvents array of a Chrome trace
// document; plain formats are written one event per line.
type chromeDoc struct {
	w       io.Writer
	format  Format
	written int
}

func (d *chromeDoc) open() error {
	if d.format != FormatChrome {
		return nil
	}
	_, err := io.WriteString(d.w, "{\"traceEvents\":[\n")
	return err
}

func (d *chromeDoc) write(ev *Event) error {
	if d.format == FormatChrome && d.written > 0 {
		if _, err := io.WriteString(d.w, ",\n"); err != nil {
			return err
		}
	}
	d.written++
	_, err := d.w.Write(FormatEvent(ev, d.format))
	return err
}

func (d *chromeDoc) close() error {
	if d.format != FormatChrome {
		return nil
	}
	_, err := io.WriteString(d.w, "\n]}\n")
	return err
}

// StreamTracer writes every accepted event as soon as it is emitted.
// Write errors are dropped: tracing must never fail a fix-all run.
type StreamTracer struct {
	mu     sync.Mutex
	doc    chromeDoc
	level  Level
	closed bool
}

// NewStreamTracer starts a stream on w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	st := &StreamTracer{doc: chromeDoc{w: w, format: format}, level: level}
	_ = st.doc.open() //nolint:errcheck
	return st
}

func (t *StreamTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		_ = t.doc.write(ev) //nolint:errcheck
	}
}

// Flush flushes the writer when it buffers.
func (t *StreamTracer) Flush() error {
	if f, ok := t.doc.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close finishes a Chrome document, flushes and closes the writer.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	_ = t.doc.close() //nolint:errcheck
	t.mu.Unlock()

	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.doc.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
