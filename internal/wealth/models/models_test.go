package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealthgate/pkg/domain"
	dErrors "wealthgate/pkg/domain-errors"
)

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score int
		want  Confidence
	}{
		{100, ConfidenceHigh},
		{70, ConfidenceHigh},
		{69, ConfidenceMedium},
		{40, ConfidenceMedium},
		{39, ConfidenceLow},
		{0, ConfidenceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForScore(tt.score), "score %d", tt.score)
	}
}

func TestFreshnessAt(t *testing.T) {
	generated := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	assert.Equal(t, FreshnessRecent, FreshnessAt(generated, generated))
	assert.Equal(t, FreshnessRecent, FreshnessAt(generated, generated.Add(30*day-time.Second)))
	assert.Equal(t, FreshnessModerate, FreshnessAt(generated, generated.Add(30*day)))
	assert.Equal(t, FreshnessModerate, FreshnessAt(generated, generated.Add(179*day)))
	assert.Equal(t, FreshnessStale, FreshnessAt(generated, generated.Add(180*day)))
}

func TestNewBreakdown(t *testing.T) {
	t.Run("percentages sum to exactly 100", func(t *testing.T) {
		items := NewBreakdown(map[Category]decimal.Decimal{
			CategoryRealEstate:  decimal.NewFromInt(1),
			CategoryInvestments: decimal.NewFromInt(1),
			CategoryCash:        decimal.NewFromInt(1),
		})
		require.Len(t, items, 3)
		assert.Equal(t, 100, sumPercent(items))
		// 33.33 each; the first category in display order takes the spare point.
		assert.Equal(t, CategoryRealEstate, items[0].Category)
		assert.Equal(t, 34, items[0].Percentage)
	})

	t.Run("ordered by amount", func(t *testing.T) {
		items := NewBreakdown(map[Category]decimal.Decimal{
			CategoryRealEstate:  decimal.NewFromInt(6_750_000),
			CategoryInvestments: decimal.NewFromInt(4_500_000),
		})
		require.Len(t, items, 2)
		assert.Equal(t, CategoryRealEstate, items[0].Category)
		assert.Equal(t, 60, items[0].Percentage)
		assert.Equal(t, 40, items[1].Percentage)
		assert.True(t, decimal.NewFromInt(6_750_000).Equal(items[0].Amount))
	})

	t.Run("skewed shares still sum to 100", func(t *testing.T) {
		items := NewBreakdown(map[Category]decimal.Decimal{
			CategoryRealEstate:  decimal.RequireFromString("999999.99"),
			CategoryInvestments: decimal.RequireFromString("0.01"),
			CategoryBusiness:    decimal.RequireFromString("0.01"),
		})
		assert.Equal(t, 100, sumPercent(items))
	})

	t.Run("zero holdings split evenly", func(t *testing.T) {
		items := NewBreakdown(map[Category]decimal.Decimal{
			CategoryRealEstate: decimal.Zero,
			CategoryCash:       decimal.Zero,
		})
		require.Len(t, items, 2)
		assert.Equal(t, 50, items[0].Percentage)
		assert.Equal(t, 50, items[1].Percentage)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, NewBreakdown(nil))
	})
}

func sumPercent(items []BreakdownItem) int {
	sum := 0
	for _, item := range items {
		sum += item.Percentage
	}
	return sum
}

func validParams() ProfileParams {
	return ProfileParams{
		OwnerID:           domain.DeriveOwnerID("Jane Doe"),
		OwnerName:         "Jane Doe",
		EstimatedNetWorth: decimal.NewFromInt(1_000_000),
		ConfidenceScore:   72,
		Sources: []Source{
			{Name: "demographics", Weight: 0.4, Reliability: 0.5},
			{Name: "land-registry", Weight: 1, Reliability: 0.9},
		},
		Breakdown:   NewBreakdown(map[Category]decimal.Decimal{CategoryRealEstate: decimal.NewFromInt(1_000_000)}),
		GeneratedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewWealthProfile(t *testing.T) {
	t.Run("assigns tier from score and orders sources", func(t *testing.T) {
		p, err := NewWealthProfile(validParams())
		require.NoError(t, err)
		assert.Equal(t, ConfidenceHigh, p.Confidence)
		assert.Equal(t, "land-registry", p.Sources[0].Name)
		assert.Equal(t, p.GeneratedAt, p.UpdatedAt)
	})

	t.Run("rejects blank owner name", func(t *testing.T) {
		params := validParams()
		params.OwnerName = "  "
		_, err := NewWealthProfile(params)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects out of range score", func(t *testing.T) {
		params := validParams()
		params.ConfidenceScore = 101
		_, err := NewWealthProfile(params)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("rejects broken breakdown", func(t *testing.T) {
		params := validParams()
		params.Breakdown = []BreakdownItem{{Category: CategoryCash, Percentage: 90}}
		_, err := NewWealthProfile(params)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestValidateRejectsTierMismatch(t *testing.T) {
	p, err := NewWealthProfile(validParams())
	require.NoError(t, err)

	p.Confidence = ConfidenceLow
	assert.True(t, dErrors.HasCode(p.Validate(), dErrors.CodeInvariantViolation))
}

func TestGenerateProfileRequest(t *testing.T) {
	req := &GenerateProfileRequest{OwnerName: "  Jane \t Doe "}
	req.Normalize()
	assert.Equal(t, "Jane Doe", req.OwnerName)
	assert.NoError(t, req.Validate())

	blank := &GenerateProfileRequest{OwnerName: "   "}
	blank.Normalize()
	err := blank.Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Contains(t, err.Error(), "ownerName is required")
}

func TestNewProfileResponse(t *testing.T) {
	params := validParams()
	params.Sources = nil
	p, err := NewWealthProfile(params)
	require.NoError(t, err)

	resp := NewProfileResponse(p, p.GeneratedAt.Add(40*24*time.Hour))
	assert.Equal(t, FreshnessModerate, resp.DataFreshness)
	assert.NotNil(t, resp.Sources)
	assert.NotNil(t, resp.Properties)
}
