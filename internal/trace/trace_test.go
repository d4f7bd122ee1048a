package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeOperation, false},
		{LevelError, ScopeOperation, false},
		{LevelPhase, ScopeStage, true},
		{LevelPhase, ScopeDocument, false},
		{LevelDetail, ScopeDocument, true},
		{LevelDetail, ScopeChange, false},
		{LevelDebug, ScopeChange, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestStartPropagatesParent(t *testing.T) {
	ring := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), ring)

	ctx, op := StartOperation(ctx, "op-1", "fixall")
	_, doc := StartItem(ctx, "diagnostics", "a.txt")
	doc.WithExtra("diagnostics", "2").End("ok")
	Point(ctx, ScopeChange, "dropped", "debug only")
	op.End("")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}
	if events[1].ParentID != op.ID() {
		t.Errorf("document span parent = %d, want %d", events[1].ParentID, op.ID())
	}
	if events[2].Kind != KindSpanEnd || events[2].Extra["diagnostics"] != "2" || events[2].Detail != "ok" {
		t.Errorf("unexpected end event %+v", events[2])
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Errorf("sequence not monotonic at %d", i)
		}
	}
}

func TestRingWraps(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for i := 0; i < 5; i++ {
		ring.Emit(&Event{Kind: KindPoint, Scope: ScopeChange, Name: string(rune('a' + i))})
	}
	got := ring.Snapshot()
	if len(got) != 3 || got[0].Name != "c" || got[2].Name != "e" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestErrorLevelRingKeepsSpans(t *testing.T) {
	tr, err := New(Config{Level: LevelError, Mode: ModeRing, RingSize: 8})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithTracer(context.Background(), tr)
	_, sp := StartItem(ctx, "diagnostics", "a.txt")
	sp.End("")

	ring := RingOf(tr)
	if ring == nil || len(ring.Snapshot()) != 2 {
		t.Fatalf("error-level ring must record spans")
	}
}

func TestStreamChromeIsValidJSON(t *testing.T) {
	var buf bytes.Buffer
	st := NewStreamTracer(&buf, LevelPhase, FormatChrome)
	ctx := WithTracer(context.Background(), st)
	ctx, _ = StartOperation(ctx, "op-1", "fixall")
	_, sp := StartStage(ctx, "merge")
	sp.End("conflict")
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid chrome json: %v\n%s", err, buf.String())
	}
	if len(doc.TraceEvents) != 3 {
		t.Fatalf("unexpected events %+v", doc.TraceEvents)
	}
	begin, end := doc.TraceEvents[1], doc.TraceEvents[2]
	if begin["ph"] != "b" || end["ph"] != "e" || begin["id"] != end["id"] {
		t.Errorf("stage span must be an async pair, got %+v / %+v", begin, end)
	}
	args, _ := end["args"].(map[string]any)
	if args["operation"] != "op-1" || args["stage"] != "merge" || args["detail"] != "conflict" {
		t.Errorf("unexpected args %+v", args)
	}
}

func TestFormatTextSortsExtra(t *testing.T) {
	ev := &Event{
		Time:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Kind:  KindSpanEnd,
		Scope: ScopeStage,
		Name:  "collect",
		Extra: map[string]string{"b": "2", "a": "1"},
	}
	got := string(FormatEvent(ev, FormatText))
	want := "10:00:00.000000   ← collect {a=1, b=2}\n"
	if got != want {
		t.Errorf("formatText = %q, want %q", got, want)
	}

	ev = &Event{
		Time:      ev.Time,
		Kind:      KindSpanBegin,
		Scope:     ScopeDocument,
		Operation: "0f1e2d3c-4b5a-6978-8695-a4b3c2d1e0f0",
		Stage:     "collect",
		Item:      "src/a.txt",
		Name:      "fixes:FA1001",
	}
	got = string(FormatEvent(ev, FormatText))
	want = "10:00:00.000000 [0f1e2d3c collect]     → fixes:FA1001 src/a.txt\n"
	if got != want {
		t.Errorf("formatText = %q, want %q", got, want)
	}
}

func TestContextCarriesOperation(t *testing.T) {
	ring := NewRingTracer(32, LevelDetail)
	ctx := WithTracer(context.Background(), ring)

	ctx, op := StartOperation(ctx, "op-7", "fixall")
	sctx, stage := StartStage(ctx, "collect")
	ictx, item := StartItem(sctx, "fixes", "b.txt")
	Point(ictx, ScopeDocument, "cache-miss", "")
	item.End("")
	stage.End("")
	op.End("")

	if OperationID(ictx) != "op-7" || StageOf(ictx) != "collect" {
		t.Fatalf("context lost operation: %q/%q", OperationID(ictx), StageOf(ictx))
	}
	events := ring.Operation("op-7")
	if len(events) != 7 {
		t.Fatalf("expected 7 events of op-7, got %d: %+v", len(events), events)
	}
	point := events[3]
	if point.Kind != KindPoint || point.Stage != "collect" || point.Item != "b.txt" || point.ParentID != item.ID() {
		t.Errorf("point event lost its place: %+v", point)
	}
	if events[6].Stage != "" || events[6].Item != "" {
		t.Errorf("operation end must not carry a stage: %+v", events[6])
	}
	if len(ring.Operation("other")) != 0 {
		t.Error("events of another operation leaked")
	}

	var buf bytes.Buffer
	if err := ring.DumpOperation(&buf, FormatNDJSON, "op-7"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 7 || !strings.Contains(lines[3], `"item":"b.txt"`) {
		t.Errorf("unexpected ndjson dump:\n%s", buf.String())
	}
}

func TestDisabledSpansStillTagContext(t *testing.T) {
	ring := NewRingTracer(8, LevelPhase)
	ctx := WithTracer(context.Background(), ring)
	ctx, _ = StartOperation(ctx, "op-2", "fix")
	ctx, stage := StartStage(ctx, "extract")

	// document spans are not recorded at phase level
	ictx, item := StartItem(ctx, "apply", "c.txt")
	if item.ID() != 0 {
		t.Fatalf("document span must be disabled at phase level")
	}
	item.End("")
	if OperationID(ictx) != "op-2" || StageOf(ictx) != "extract" {
		t.Fatalf("disabled span dropped context: %q/%q", OperationID(ictx), StageOf(ictx))
	}
	Point(ictx, ScopeStage, "conflict", "x")
	stage.End("")

	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d: %+v", len(events), events)
	}
	if events[2].Kind != KindPoint || events[2].ParentID != stage.ID() {
		t.Errorf("point must hang off the stage span: %+v", events[2])
	}
}

func TestParseHelpers(t *testing.T) {
	if l, err := ParseLevel("DETAIL"); err != nil || l != LevelDetail {
		t.Errorf("ParseLevel = %v, %v", l, err)
	}
	if _, err := ParseMode("disk"); err == nil {
		t.Error("expected ParseMode error")
	}
	if f, err := ParseFormat("chrome"); err != nil || f != FormatChrome {
		t.Errorf("ParseFormat = %v, %v", f, err)
	}
	if detectFormat("out.ndjson") != FormatNDJSON || detectFormat("-") != FormatText {
		t.Error("detectFormat mismatch")
	}
	if !strings.Contains(ScopeChange.String(), "change") {
		t.Error("scope name")
	}
}

func TestHeartbeatStop(t *testing.T) {
	ring := NewRingTracer(8, LevelPhase)
	h := StartHeartbeat(ring, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	h.Stop()
	h.Stop()
	if StartHeartbeat(Nop, time.Second) != nil {
		t.Error("nop tracer must not start heartbeats")
	}
}
