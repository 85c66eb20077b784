package seeder

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealthgate/internal/wealth/models"
	"wealthgate/internal/wealth/store/profile"
	"wealthgate/pkg/domain"
)

func TestSeedAll(t *testing.T) {
	store := profile.NewInMemory()
	s := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.SeedAll(context.Background()))
	assert.Equal(t, len(demoOwners), store.Len())

	acme, err := store.Find(context.Background(), domain.DeriveOwnerID("Acme Owner"))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(11_250_000).Equal(acme.EstimatedNetWorth))
	assert.Equal(t, models.ConfidenceHigh, acme.Confidence)
	assert.Equal(t, models.TrendUp, acme.Trend.Direction)
	assert.Len(t, acme.Properties, 2)

	bob, err := store.Find(context.Background(), domain.DeriveOwnerID("bob brown"))
	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceLow, bob.Confidence)
	assert.Equal(t, models.FreshnessStale, bob.DataFreshness(now))
}

func TestSeedAllKeepsExistingProfiles(t *testing.T) {
	store := profile.NewInMemory()
	s := New(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, s.SeedAll(context.Background()))
	require.NoError(t, s.SeedAll(context.Background()), "second run skips conflicts")
	assert.Equal(t, len(demoOwners), store.Len())
}
