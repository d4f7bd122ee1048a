package fixall

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"

	"fixall/internal/observ"
	"fixall/internal/source"
	"fixall/internal/trace"
)

// Engine runs fix-all operations: enumerate → collect → extract → merge → build.
// An Engine holds no per-run state and may be shared.
type Engine struct {
	diagnostics DiagnosticsProvider
	jobs        int
	sink        ProgressSink
	timer       *observ.Timer
}

// Option configures an Engine.
type Option func(*Engine)

// WithJobs limits the number of concurrent provider calls per stage.
// n <= 0 means GOMAXPROCS.
func WithJobs(n int) Option {
	return func(e *Engine) { e.jobs = n }
}

// WithProgress routes progress events to sink.
func WithProgress(sink ProgressSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithTimer records stage durations into t.
func WithTimer(t *observ.Timer) Option {
	return func(e *Engine) { e.timer = t }
}

// NewEngine creates an engine that enumerates diagnostics through dp.
func NewEngine(dp DiagnosticsProvider, opts ...Option) *Engine {
	e := &Engine{diagnostics: dp, sink: nopSink{}}
	for _, opt := range opts {
		opt(e)
	}
	if e.jobs <= 0 {
		e.jobs = runtime.GOMAXPROCS(0)
	}
	if e.sink == nil {
		e.sink = nopSink{}
	}
	return e
}

// Jobs returns the effective concurrency limit.
func (e *Engine) Jobs() int { return e.jobs }

// Run executes one fix-all operation against sol. A merge conflict or an empty
// result is reported through Result.Status, not as an error. Errors wrap
// ErrCancelled, ErrProviderFault or ErrInvalidRequest.
func (e *Engine) Run(ctx context.Context, sol *source.Solution, req Request, fixer FixProvider) (res *Result, err error) {
	req, err = req.normalize(sol)
	if err != nil {
		return nil, err
	}

	opID := uuid.New()
	started := time.Now()
	ctx, span := trace.StartOperation(ctx, opID.String(), "fixall")
	span.WithExtra("scope", req.Scope.Kind().String()).
		WithExtra("rules", req.Rules.String()).
		WithExtra("key", req.EquivalenceKey)
	defer func() {
		detail := ""
		switch {
		case err != nil:
			detail = err.Error()
		case res != nil:
			detail = res.Status.String()
		}
		span.End(detail)
		recordRun(ctx, req.Scope.Kind(), res, time.Since(started), err)
	}()

	var batch Batch
	err = e.stage(ctx, StageEnumerate, func(ctx context.Context) (int, error) {
		enum := &Enumerator{Provider: e.diagnostics, Jobs: e.jobs, Sink: e.sink}
		var serr error
		batch, serr = enum.Enumerate(ctx, sol, req.Scope, req.Rules)
		return batch.DiagnosticCount(), serr
	})
	if err != nil {
		return nil, err
	}
	if batch.Empty() {
		return BuildResult(opID, req, sol, batch, nil, MergeOutcome{}), nil
	}

	var fixes []*CandidateFix
	err = e.stage(ctx, StageCollect, func(ctx context.Context) (int, error) {
		col := &Collector{Provider: fixer, Jobs: e.jobs, Sink: e.sink}
		var serr error
		fixes, serr = col.Collect(ctx, sol, batch, req.EquivalenceKey)
		return len(fixes), serr
	})
	if err != nil {
		return nil, err
	}
	if len(fixes) == 0 {
		return BuildResult(opID, req, sol, batch, nil, MergeOutcome{}), nil
	}

	var changes []FixChanges
	err = e.stage(ctx, StageExtract, func(ctx context.Context) (int, error) {
		ext := &Extractor{Jobs: e.jobs, Sink: e.sink}
		var serr error
		changes, serr = ext.Extract(ctx, sol, fixes)
		n := 0
		for _, fc := range changes {
			n += fc.ChangeCount()
		}
		return n, serr
	})
	if err != nil {
		return nil, err
	}

	var outcome MergeOutcome
	err = e.stage(ctx, StageMerge, func(ctx context.Context) (int, error) {
		var serr error
		outcome, serr = Merge(ctx, sol, changes)
		return len(outcome.Changed), serr
	})
	if err != nil {
		return nil, err
	}

	return BuildResult(opID, req, sol, batch, fixes, outcome), nil
}

// stage runs fn inside a trace span, a timer phase and a pair of stage events.
func (e *Engine) stage(ctx context.Context, stage Stage, fn func(context.Context) (int, error)) error {
	ctx, span := trace.StartStage(ctx, string(stage))
	idx := e.timer.Begin(string(stage))
	started := time.Now()
	emitStage(e.sink, stage, StateWorking, 0, nil, 0)

	count, err := fn(ctx)

	elapsed := time.Since(started)
	e.timer.EndCount(idx, "", count)
	if err != nil {
		emitStage(e.sink, stage, StateError, count, err, elapsed)
		span.End(err.Error())
		return err
	}
	emitStage(e.sink, stage, StateDone, count, nil, elapsed)
	span.WithExtra("count", strconv.Itoa(count)).End("")
	return nil
}
