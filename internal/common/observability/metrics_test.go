package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNilObservabilityIsSafe(t *testing.T) {
	var o *Observability
	ctx := context.Background()

	spanCtx, span := o.StartSpan(ctx, "noop")
	span.End()

	assert.Equal(t, ctx, spanCtx)
	assert.False(t, span.SpanContext().IsValid())

	o.RecordProcessed(ctx, "/recommendations", "ranked")
	o.RecordDuration(ctx, time.Millisecond, "/recommendations", "ranked")
	o.Shutdown()
}

func TestStartSpan(t *testing.T) {
	o := New("observability-test")
	defer o.Shutdown()

	_, span := o.StartSpan(context.Background(), "pipeline.filter", attribute.Int("limit", 3))
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.IsRecording())

	o.RecordProcessed(context.Background(), "/recommendations/pipeline", "llm")
	o.RecordDuration(context.Background(), 12*time.Millisecond, "/recommendations/pipeline", "llm")
}
