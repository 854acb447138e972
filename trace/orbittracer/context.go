package orbittracer

import "context"

type activeSpanKey struct{}

// ContextWithSpan returns a child context carrying the span.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, activeSpanKey{}, span)
}

// SpanFromContext returns the span stored in ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(activeSpanKey{}).(*Span)
	return span
}

// StartSpanFromContext starts a span as a child of the context's active span,
// if any, and returns a context carrying the new span.
func StartSpanFromContext(ctx context.Context, tracer *Tracer, operationName string, opts ...StartSpanOption) (*Span, context.Context) {
	if parent := SpanFromContext(ctx); parent != nil {
		opts = append(opts, ChildOf(parent.Context()))
	}
	span := tracer.StartSpan(operationName, opts...)
	return span, ContextWithSpan(ctx, span)
}
