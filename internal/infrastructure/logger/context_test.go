package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext_FromContext(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithContext(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
}

func TestFromContext_MissingReturnsNop(t *testing.T) {
	logger := FromContext(context.Background())
	assert.NotNil(t, logger)
}

func TestWithRequestID(t *testing.T) {
	ctx, enriched := WithRequestID(context.Background(), zap.NewNop(), "req-123")

	assert.NotNil(t, enriched)
	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Same(t, enriched, FromContext(ctx))
}

func TestWithSessionID(t *testing.T) {
	ctx, enriched := WithSessionID(context.Background(), zap.NewNop(), "sess-abc")

	assert.NotNil(t, enriched)
	assert.Equal(t, "sess-abc", GetSessionID(ctx))
}

func TestGetRequestID_NotFound(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Empty(t, GetSessionID(context.Background()))
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestGetTraceID_InvalidSpanContext(t *testing.T) {
	ctx := trace.ContextWithSpanContext(context.Background(), trace.SpanContext{})
	assert.Empty(t, GetTraceID(ctx))
}

func TestWithTraceContext_NoSpanReturnsSameLogger(t *testing.T) {
	logger := zap.NewNop()
	assert.Same(t, logger, WithTraceContext(context.Background(), logger))
}

func TestContextLogger_InjectsContextFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, SessionIDKey, "sess-1")

	WithLogger(ctx, base).Info("hello")

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "sess-1", fields["session_id"])
}

func TestContextLogger_WithAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	WithLogger(context.Background(), base).
		With(zap.String("component", "dispatch")).
		Warn("slow fan-out")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "dispatch", entries[0].ContextMap()["component"])
}

func TestContextLogger_L_NilSafe(t *testing.T) {
	// A context with no logger must not panic.
	assert.NotPanics(t, func() {
		L(context.Background()).Info("no logger in context")
	})
}

func TestContextLogger_Zap(t *testing.T) {
	cl := WithLogger(context.Background(), zap.NewNop())
	assert.NotNil(t, cl.Zap())
}
