package engine

import (
	"context"

	"github.com/campuskit/coursecycle/pkg/otelhelper"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// startSpan delegates to the configured tracer, falling back to no-op
// spans so the passes never depend on tracing being wired.
func (p *Processor) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	tracer := p.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("engine")
	}

	return otelhelper.StartSpan(ctx, tracer, name)
}
