package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan(t *testing.T) {
	p := NewProvider("weatherbot-test", "test")
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	t.Run("should adopt the span trace ID", func(t *testing.T) {
		ctx, span := StartSpan(context.Background(), TracerAssistant, "chat.turn")
		defer span.End()

		require.True(t, span.SpanContext().IsValid())
		assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
	})

	t.Run("should keep an existing trace ID", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "trace-1")
		ctx, span := StartSpan(ctx, TracerSession, "session.create")
		defer span.End()

		assert.Equal(t, "trace-1", GetTraceID(ctx))
	})

	t.Run("should accept a nil context", func(t *testing.T) {
		var nilCtx context.Context
		ctx, span := StartSpan(nilCtx, TracerAgent, "agent.run")
		defer span.End()

		assert.NotNil(t, ctx)
	})
}

func TestProviderShutdown(t *testing.T) {
	p := NewProvider("", "test")

	require.NoError(t, p.Shutdown(context.Background()))
	require.NoError(t, p.Shutdown(context.Background()))

	var nilProvider *Provider
	assert.NoError(t, nilProvider.Shutdown(context.Background()))

	_, span := StartSpan(context.Background(), TracerAgent, "after.shutdown")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())
}

func TestFailSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, failed := tp.Tracer(TracerAgent).Start(context.Background(), "failed")
	FailSpan(failed, errors.New("model unavailable"))
	failed.End()

	_, ok := tp.Tracer(TracerAgent).Start(context.Background(), "ok")
	FailSpan(ok, nil)
	ok.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "model unavailable", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}
