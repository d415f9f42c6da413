package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer names, one per instrumented package.
const (
	TracerAgent     = "weatherbot.agent"
	TracerAssistant = "weatherbot.assistant"
	TracerSession   = "weatherbot.session"
)

// Provider is the tracer provider of one daemon run. Spans stay in process;
// their trace IDs are what reaches the logs.
type Provider struct {
	sdk *sdktrace.TracerProvider
}

// NewProvider builds a provider for the named service and makes it the global
// one, replacing whatever an earlier daemon installed.
func NewProvider(service, version string) *Provider {
	if service == "" {
		service = "weatherbot"
	}
	res := resource.NewSchemaless(
		semconv.ServiceName(service),
		semconv.ServiceVersion(version),
	)

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(sdk)

	return &Provider{sdk: sdk}
}

// Shutdown ends the provider. Spans started afterwards are no-ops. Safe on a
// nil Provider and safe to repeat.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

// StartSpan opens a span on the named tracer. A context without a trace ID
// adopts the span's, so a chat turn logs under the same ID it is traced under.
func StartSpan(ctx context.Context, tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := otel.Tracer(tracer).Start(ctx, name, trace.WithAttributes(attrs...))
	if GetTraceID(ctx) != "" {
		return ctx, span
	}
	if sc := span.SpanContext(); sc.IsValid() {
		ctx = WithTraceID(ctx, sc.TraceID().String())
	}
	return ctx, span
}

// FailSpan marks span as failed with err.
func FailSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
