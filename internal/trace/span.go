package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seq       atomic.Uint64
	spanIDs   atomic.Uint64
	openSpans atomic.Int64 // для heartbeat: сколько спанов ещё не закрыто
)

func nextSeq() uint64 { return seq.Add(1) }

// Span is an open trace span. A nil or disabled Span is safe to use.
type Span struct {
	tracer  Tracer
	ev      Event // шаблон: End переиспользует поля Begin
	started time.Time
	ended   atomic.Bool
}

var disabled = &Span{tracer: Nop}

// StartOperation opens the span of one fix-all run and tags every event below
// it with id.
func StartOperation(ctx context.Context, id, name string) (context.Context, *Span) {
	return start(ctx, ScopeOperation, name, func(f *frame) {
		f.operation = id
		f.stage, f.item = "", ""
	})
}

// StartStage opens the span of an engine stage.
func StartStage(ctx context.Context, stage string) (context.Context, *Span) {
	return start(ctx, ScopeStage, stage, func(f *frame) {
		f.stage = stage
		f.item = ""
	})
}

// StartItem opens a span for the work on one document or project.
func StartItem(ctx context.Context, name, item string) (context.Context, *Span) {
	return start(ctx, ScopeDocument, name, func(f *frame) { f.item = item })
}

// StartChange opens a span for applying one action.
func StartChange(ctx context.Context, title string) (context.Context, *Span) {
	return start(ctx, ScopeChange, title, nil)
}

func start(ctx context.Context, scope Scope, name string, update func(*frame)) (context.Context, *Span) {
	f := frameOf(ctx)
	if update != nil {
		update(&f)
	}
	if !f.tracer.Enabled() || !f.tracer.Level().records(scope) {
		// контекст всё равно несёт операцию и стадию для вложенных событий
		if update != nil && ctx != nil {
			ctx = withFrame(ctx, f)
		}
		return ctx, disabled
	}

	sp := &Span{
		tracer: f.tracer,
		ev: Event{
			Kind:      KindSpanBegin,
			Scope:     scope,
			SpanID:    spanIDs.Add(1),
			ParentID:  f.span,
			Operation: f.operation,
			Stage:     f.stage,
			Item:      f.item,
			Name:      name,
		},
		started: time.Now(),
	}
	begin := sp.ev
	begin.Time = sp.started
	begin.Seq = nextSeq()
	f.tracer.Emit(&begin)
	openSpans.Add(1)

	f.span = sp.ev.SpanID
	return withFrame(ctx, f), sp
}

// End emits the end event once and returns the span duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s == disabled || !s.ended.CompareAndSwap(false, true) {
		return 0
	}
	openSpans.Add(-1)
	dur := time.Since(s.started)
	end := s.ev
	end.Kind = KindSpanEnd
	end.Time = time.Now()
	end.Seq = nextSeq()
	end.Detail = detail
	s.tracer.Emit(&end)
	return dur
}

// WithExtra adds a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s == disabled {
		return s
	}
	if s.ev.Extra == nil {
		s.ev.Extra = make(map[string]string)
	}
	s.ev.Extra[key] = value
	return s
}

// ID returns the span id, 0 for disabled spans.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.ev.SpanID
}

// Point emits an instant event under the innermost span of ctx.
func Point(ctx context.Context, scope Scope, name, detail string) {
	f := frameOf(ctx)
	if !f.tracer.Enabled() || !f.tracer.Level().records(scope) {
		return
	}
	f.tracer.Emit(&Event{
		Time:      time.Now(),
		Seq:       nextSeq(),
		Kind:      KindPoint,
		Scope:     scope,
		ParentID:  f.span,
		Operation: f.operation,
		Stage:     f.stage,
		Item:      f.item,
		Name:      name,
		Detail:    detail,
	})
}
