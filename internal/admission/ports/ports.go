//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks CounterStore

// Package ports declares the boundaries the admission service depends on.
package ports

import (
	"context"
	"time"

	"wealthgate/internal/admission/models"
)

// CounterStore records and reads sliding-window request counts. Increment must
// be atomic per key: concurrent calls observe strictly increasing counts.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (models.WindowCount, error)
	Count(ctx context.Context, key string, window time.Duration) (models.WindowCount, error)
	Reset(ctx context.Context, key string) error
}
