// Package trace is the structured logging layer of fixall.
//
// Spans mark the boundaries of a fix-all operation, its stages and the
// per-document work items; points record single events such as a merge
// conflict. Everything is propagated through context.Context.
//
// # Usage
//
//	fixall fix --trace=- --trace-level=detail --rule FA1001 ./...
//
// # Tracers
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write (text, NDJSON or Chrome trace JSON)
//   - RingTracer: circular buffer dumped on panics or failed runs, per operation if needed
//   - MultiTracer: stream + ring
//
// # Levels and scopes
//
//   - LevelPhase: ScopeOperation and ScopeStage
//   - LevelDetail: adds ScopeDocument
//   - LevelDebug: adds ScopeChange
//   - LevelError: nothing is streamed; the ring keeps all scopes for dumps
//
// # Context propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, op := trace.StartOperation(ctx, id.String(), "fixall")
//	ctx, stage := trace.StartStage(ctx, "collect")
//	defer stage.End("")
//
// Every event carries the operation id, the stage and the document or
// project it was emitted for, taken from the context.
package trace
