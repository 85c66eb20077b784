package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealthgate/internal/wealth/models"
)

type fakeProvider struct {
	id       string
	category models.Category
	weight   float64
}

func (f fakeProvider) ID() string                { return f.id }
func (f fakeProvider) Category() models.Category { return f.category }
func (f fakeProvider) Weight() float64           { return f.weight }
func (f fakeProvider) Lookup(context.Context, string) (*Signal, error) {
	return nil, errors.New("not implemented")
}
func (f fakeProvider) Health(context.Context) error { return nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(fakeProvider{"zillow", models.CategoryRealEstate, 1}))
	require.NoError(t, r.Register(fakeProvider{"brokerage", models.CategoryInvestments, 0.8}))
	require.NoError(t, r.Register(fakeProvider{"county", models.CategoryRealEstate, 0.6}))

	t.Run("rejects duplicates", func(t *testing.T) {
		assert.Error(t, r.Register(fakeProvider{"zillow", models.CategoryCash, 1}))
	})

	t.Run("rejects non-positive weight", func(t *testing.T) {
		assert.Error(t, r.Register(fakeProvider{"zero", models.CategoryCash, 0}))
	})

	t.Run("rejects empty id", func(t *testing.T) {
		assert.Error(t, r.Register(fakeProvider{" ", models.CategoryCash, 1}))
	})

	t.Run("lists sorted by id", func(t *testing.T) {
		all := r.All()
		require.Len(t, all, 3)
		assert.Equal(t, []string{"brokerage", "county", "zillow"}, []string{all[0].ID(), all[1].ID(), all[2].ID()})
		assert.Equal(t, 3, r.Len())
	})

	t.Run("filters by category", func(t *testing.T) {
		re := r.ListByCategory(models.CategoryRealEstate)
		require.Len(t, re, 2)
		assert.Equal(t, "county", re[0].ID())
	})

	t.Run("get", func(t *testing.T) {
		_, ok := r.Get("brokerage")
		assert.True(t, ok)
		_, ok = r.Get("missing")
		assert.False(t, ok)
	})
}

func TestSignalValidate(t *testing.T) {
	valid := Signal{Category: models.CategoryCash, Estimate: decimal.NewFromInt(10), Reliability: 0.5}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Category = "crypto"
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Reliability = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Estimate = decimal.NewFromInt(-5)
	assert.Error(t, bad.Validate())
}

func TestProviderErrorClassification(t *testing.T) {
	retryable := []ErrorCategory{ErrorTimeout, ErrorProviderOutage, ErrorRateLimited}
	permanent := []ErrorCategory{ErrorBadData, ErrorAuthentication, ErrorNotFound, ErrorInternal}

	for _, c := range retryable {
		assert.True(t, IsRetryable(NewProviderError(c, "p", "msg", nil)), c)
	}
	for _, c := range permanent {
		assert.False(t, IsRetryable(NewProviderError(c, "p", "msg", nil)), c)
	}

	cause := errors.New("dial tcp: refused")
	err := fmtWrap(NewProviderError(ErrorProviderOutage, "p", "call failed", cause))
	assert.Equal(t, ErrorProviderOutage, GetCategory(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorInternal, GetCategory(errors.New("plain")))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func fmtWrap(err error) error {
	return errors.Join(errors.New("lookup"), err)
}
