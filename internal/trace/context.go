package trace

import "context"

// frame is what a context knows about the running fix-all operation: the
// tracer, the innermost span and the operation/stage/item it belongs to.
type frame struct {
	tracer    Tracer
	span      uint64
	operation string
	stage     string
	item      string
}

type frameKey struct{}

func frameOf(ctx context.Context) frame {
	if ctx == nil {
		return frame{tracer: Nop}
	}
	if f, ok := ctx.Value(frameKey{}).(frame); ok {
		return f
	}
	return frame{tracer: Nop}
}

func withFrame(ctx context.Context, f frame) context.Context {
	return context.WithValue(ctx, frameKey{}, f)
}

// WithTracer attaches t to ctx. Operation, stage and item recorded in ctx
// are kept.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	f := frameOf(ctx)
	f.tracer = t
	return withFrame(ctx, f)
}

// FromContext returns the tracer of ctx or Nop.
func FromContext(ctx context.Context) Tracer {
	return frameOf(ctx).tracer
}

// OperationID returns the id of the fix-all operation ctx runs in, if any.
func OperationID(ctx context.Context) string {
	return frameOf(ctx).operation
}

// StageOf returns the engine stage ctx runs in, if any.
func StageOf(ctx context.Context) string {
	return frameOf(ctx).stage
}
