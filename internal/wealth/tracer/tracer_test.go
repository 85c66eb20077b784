package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"wealthgate/internal/wealth/tracer"
)

func TestNoopTracer(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanGenerate, tracer.String(tracer.AttrOwnerID, "owner-1"))
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Int(tracer.AttrResponders, 2))
	span.AddEvent(tracer.EventRetry, tracer.Int(tracer.AttrAttempt, 1))
	span.End(errors.New("provider failed"))
}

func TestOTelTracer(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanProviderLookup,
		tracer.String(tracer.AttrProviderID, "land-registry"),
		tracer.Bool("cached", false),
		tracer.Float64("reliability", 0.9),
		tracer.Duration("timeout", 3*time.Second),
	)
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Int(tracer.AttrAttempt, 2))
	span.AddEvent(tracer.EventRetry)
	span.End(nil)
}

func TestNewOTelDefaultsToGlobalProvider(t *testing.T) {
	tr := tracer.NewOTel()
	_, span := tr.Start(context.Background(), tracer.SpanFanOut)
	span.End(errors.New("no signal"))
}

func TestAttributeConstructors(t *testing.T) {
	assert.Equal(t, tracer.Attribute{Key: "k", Value: "v"}, tracer.String("k", "v"))
	assert.Equal(t, tracer.Attribute{Key: "flag", Value: true}, tracer.Bool("flag", true))
	assert.Equal(t, tracer.Attribute{Key: "n", Value: 3}, tracer.Int("n", 3))
	assert.Equal(t, tracer.Attribute{Key: "r", Value: 0.5}, tracer.Float64("r", 0.5))
	assert.Equal(t, tracer.Attribute{Key: "latency", Value: int64(150)}, tracer.Duration("latency", 150*time.Millisecond))
}
