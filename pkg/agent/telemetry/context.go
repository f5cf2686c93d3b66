package telemetry

import "context"

type contextKey struct{}

// WithCollector binds a request-scoped collector to the context. The
// collector is deliberately NOT a process-wide pointer: a global would
// corrupt tool-call attribution under concurrent requests.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the collector attached to this request, if any.
// Tool wrappers treat a missing collector as "not instrumented" and run
// the call anyway.
func FromContext(ctx context.Context) (*Collector, bool) {
	c, ok := ctx.Value(contextKey{}).(*Collector)
	return c, ok
}
