package tracing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestStartSpan_WithoutTracer(t *testing.T) {
	SetTracer(nil)

	ctx, span := StartSpan(context.Background(), "test.NoTracer")
	defer span.End()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetTraceParent(ctx))
}

func TestStartSpan_WithTracer(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() {
		SetTracer(nil)
		_ = tp.Shutdown(context.Background())
	})
	SetTracer(tp.Tracer("clover-test"))

	ctx, span := StartSpan(context.Background(), "test.WithTracer")
	defer span.End()

	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, 32)

	traceparent := GetTraceParent(ctx)
	assert.True(t, strings.HasPrefix(traceparent, "00-"+traceID+"-"), traceparent)
}
