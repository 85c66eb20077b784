// Package tracer is a small tracing port for profile generation.
//
// Aggregation code depends on the Tracer interface only; NewOTel adapts the
// global OpenTelemetry provider and NewNoop serves tests.
package tracer

import (
	"context"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	// End completes the span; a non-nil err marks it failed.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanGenerate, tracer.String(tracer.AttrOwnerID, id))
//	defer span.End(err)
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanGenerate       = "wealth.generate"
	SpanFanOut         = "wealth.providers.fanout"
	SpanProviderLookup = "wealth.provider.lookup"
)

// Attribute keys. Owner names are never recorded; use the owner id.
const (
	AttrOwnerID       = "owner.id"
	AttrProviderID    = "provider.id"
	AttrCategory      = "provider.category"
	AttrAttempt       = "attempt"
	AttrErrorCategory = "error.category"
	AttrResponders    = "providers.responded"
	AttrExpected      = "providers.expected"
	AttrScore         = "confidence.score"
)

const (
	EventRetry = "provider.retry"
)
