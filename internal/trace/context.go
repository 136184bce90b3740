package trace

import "context"

type ctxKey struct{}

// FromContext extracts the Tracer from ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// SpanContext holds current span info for propagation.
type SpanContext struct {
	SpanID uint64
	GID    uint64
}

type spanCtxKey struct{}

// CurrentSpan retrieves the active span context, or the zero value.
func CurrentSpan(ctx context.Context) SpanContext {
	if ctx == nil {
		return SpanContext{}
	}
	if sc, ok := ctx.Value(spanCtxKey{}).(SpanContext); ok {
		return sc
	}
	return SpanContext{}
}

// WithSpanContext attaches span context.
func WithSpanContext(ctx context.Context, sc SpanContext) context.Context {
	return context.WithValue(ctx, spanCtxKey{}, sc)
}

// Start opens a span under the span active in ctx and returns a context in
// which the new span is active.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	sp := Begin(FromContext(ctx), scope, name, CurrentSpan(ctx).SpanID)
	if sp.ID() == 0 {
		return ctx, sp
	}
	return WithSpanContext(ctx, SpanContext{SpanID: sp.ID(), GID: sp.gid}), sp
}
