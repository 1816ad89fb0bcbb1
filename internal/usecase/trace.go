package usecase

import (
	"context"
	"strings"

	"github.com/riskibarqy/survivor-pool/internal/domain/runlog"
	"github.com/riskibarqy/survivor-pool/internal/domain/schedule"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = otel.Tracer("survivor-pool/internal/usecase")
var usecaseNoopSpan = trace.SpanFromContext(context.Background())

func startUsecaseSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, usecaseNoopSpan
	}
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name)
}

// RunProfiler labels profile samples taken while fn grades or autopicks one week.
type RunProfiler func(ctx context.Context, kind runlog.Kind, week schedule.Week, fn func(context.Context))

func (p RunProfiler) run(ctx context.Context, kind runlog.Kind, week schedule.Week, fn func(context.Context)) {
	if p == nil {
		fn(ctx)
		return
	}
	p(ctx, kind, week, fn)
}
