package ui

import (
	"strings"
	"testing"

	"fixall/internal/fixall"
)

func newTestModel(events chan fixall.Event) *progressModel {
	return NewProgressModel("Fix all 'FA1001' in Solution", events).(*progressModel)
}

func TestProgressModelTracksItems(t *testing.T) {
	m := newTestModel(nil)

	m.applyEvent(fixall.Event{Stage: fixall.StageEnumerate, State: fixall.StateWorking})
	m.applyEvent(fixall.Event{Item: "a.c", Stage: fixall.StageEnumerate, State: fixall.StateQueued})
	m.applyEvent(fixall.Event{Item: "b.c", Stage: fixall.StageEnumerate, State: fixall.StateQueued})
	m.applyEvent(fixall.Event{Item: "a.c", Stage: fixall.StageEnumerate, State: fixall.StateDone, Count: 2})

	if len(m.items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(m.items))
	}
	if m.items[0].status != "done" || m.items[1].status != "queued" {
		t.Errorf("unexpected statuses %q %q", m.items[0].status, m.items[1].status)
	}
	if got := m.percent(); got != 0.5/float64(len(fixall.Stages)) {
		t.Errorf("percent = %v", got)
	}

	m.applyEvent(fixall.Event{Stage: fixall.StageCollect, State: fixall.StateWorking})
	m.applyEvent(fixall.Event{Item: "b.c", Stage: fixall.StageCollect, State: fixall.StateWorking})
	if m.items[1].status != "collecting" {
		t.Errorf("status = %q", m.items[1].status)
	}
	if got := m.percent(); got != 1.0/float64(len(fixall.Stages)) {
		t.Errorf("percent = %v", got)
	}

	view := m.View()
	if !strings.Contains(view, "Fix all 'FA1001' in Solution (collecting)") || !strings.Contains(view, "a.c") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestProgressModelStageError(t *testing.T) {
	m := newTestModel(nil)
	m.applyEvent(fixall.Event{Stage: fixall.StageExtract, State: fixall.StateError})
	m.done = true
	if !m.failed || !strings.Contains(m.View(), "failed:") {
		t.Errorf("stage error must mark the run failed:\n%s", m.View())
	}
}

func TestProgressModelQuitsWhenEventsClose(t *testing.T) {
	events := make(chan fixall.Event)
	close(events)
	m := newTestModel(events)
	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Fatal("closed channel must produce doneMsg")
	}
	model, _ := m.Update(doneMsg{})
	if !model.(*progressModel).done {
		t.Error("model must be done")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("internal/fixall/engine.go", 10); got != "interna..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
