package models

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wealthgate/pkg/domain"
	dErrors "wealthgate/pkg/domain-errors"
)

// Confidence is the coarse tier shown to users. It is always derived from
// ConfidenceScore with TierForScore.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

const (
	highTierMinScore   = 70
	mediumTierMinScore = 40
)

// TierForScore maps a 0-100 score to its tier: High >= 70, Medium 40-69,
// Low < 40.
func TierForScore(score int) Confidence {
	switch {
	case score >= highTierMinScore:
		return ConfidenceHigh
	case score >= mediumTierMinScore:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Freshness describes how old a profile is when it is read.
type Freshness string

const (
	FreshnessRecent   Freshness = "Recent"
	FreshnessModerate Freshness = "Moderate"
	FreshnessStale    Freshness = "Stale"
)

const (
	recentFor   = 30 * 24 * time.Hour
	moderateFor = 180 * 24 * time.Hour
)

// FreshnessAt classifies a profile generated at generatedAt as seen at now.
func FreshnessAt(generatedAt, now time.Time) Freshness {
	age := now.Sub(generatedAt)
	switch {
	case age < recentFor:
		return FreshnessRecent
	case age < moderateFor:
		return FreshnessModerate
	default:
		return FreshnessStale
	}
}

// Category is a class of holdings a provider reports on. Estimates in
// different categories add up; estimates in the same category are averaged.
type Category string

const (
	CategoryRealEstate  Category = "real_estate"
	CategoryInvestments Category = "investments"
	CategoryBusiness    Category = "business"
	CategoryCash        Category = "cash"
)

// Categories lists the known categories in display order.
func Categories() []Category {
	return []Category{CategoryRealEstate, CategoryInvestments, CategoryBusiness, CategoryCash}
}

func (c Category) IsValid() bool {
	return slices.Contains(Categories(), c)
}

// Source records one provider's contribution to a profile.
type Source struct {
	Name        string    `json:"name"`
	Weight      float64   `json:"weight"`
	Reliability float64   `json:"reliability"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type BreakdownItem struct {
	Category   Category        `json:"category"`
	Percentage int             `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

type Trend struct {
	Direction  TrendDirection `json:"direction"`
	Percentage float64        `json:"percentage"`
	Timeframe  string         `json:"timeframe"`
}

type Comparisons struct {
	Percentile    int             `json:"percentile"`
	MedianInArea  decimal.Decimal `json:"medianInArea"`
	AverageInArea decimal.Decimal `json:"averageInArea"`
}

type PropertyRef struct {
	PropertyID     domain.PropertyID `json:"propertyId"`
	Address        string            `json:"address"`
	EstimatedValue decimal.Decimal   `json:"estimatedValue"`
}

// WealthProfile is an owner's confidence-scored net worth estimate. It is
// replaced as a whole on regeneration and never mutated on read.
type WealthProfile struct {
	OwnerID           domain.OwnerID  `json:"ownerId"`
	OwnerName         string          `json:"ownerName"`
	EstimatedNetWorth decimal.Decimal `json:"estimatedNetWorth"`
	Confidence        Confidence      `json:"confidence"`
	ConfidenceScore   int             `json:"confidenceScore"`
	Sources           []Source        `json:"sources"`
	Breakdown         []BreakdownItem `json:"breakdown"`
	Trend             Trend           `json:"trend"`
	Comparisons       Comparisons     `json:"comparisons"`
	Properties        []PropertyRef   `json:"properties"`
	GeneratedAt       time.Time       `json:"generatedAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// DataFreshness is computed at read time from GeneratedAt.
func (p *WealthProfile) DataFreshness(now time.Time) Freshness {
	return FreshnessAt(p.GeneratedAt, now)
}

// ProfileParams carries everything needed to build a WealthProfile.
type ProfileParams struct {
	OwnerID           domain.OwnerID
	OwnerName         string
	EstimatedNetWorth decimal.Decimal
	ConfidenceScore   int
	Sources           []Source
	Breakdown         []BreakdownItem
	Trend             Trend
	Comparisons       Comparisons
	Properties        []PropertyRef
	GeneratedAt       time.Time
}

// NewWealthProfile assigns the confidence tier from the score, orders sources
// by weight and validates the result.
func NewWealthProfile(p ProfileParams) (*WealthProfile, error) {
	sources := slices.Clone(p.Sources)
	slices.SortStableFunc(sources, func(a, b Source) int {
		return cmp.Compare(b.Weight, a.Weight)
	})

	profile := &WealthProfile{
		OwnerID:           p.OwnerID,
		OwnerName:         strings.TrimSpace(p.OwnerName),
		EstimatedNetWorth: p.EstimatedNetWorth,
		Confidence:        TierForScore(p.ConfidenceScore),
		ConfidenceScore:   p.ConfidenceScore,
		Sources:           sources,
		Breakdown:         p.Breakdown,
		Trend:             p.Trend,
		Comparisons:       p.Comparisons,
		Properties:        p.Properties,
		GeneratedAt:       p.GeneratedAt,
		UpdatedAt:         p.GeneratedAt,
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

// Validate checks the invariants every stored or returned profile holds.
func (p *WealthProfile) Validate() error {
	if p.OwnerID.IsNil() {
		return invariant("owner id is required")
	}
	if strings.TrimSpace(p.OwnerName) == "" {
		return invariant("owner name is required")
	}
	if p.ConfidenceScore < 0 || p.ConfidenceScore > 100 {
		return invariant(fmt.Sprintf("confidence score %d out of range", p.ConfidenceScore))
	}
	if want := TierForScore(p.ConfidenceScore); p.Confidence != want {
		return invariant(fmt.Sprintf("confidence %s does not match score %d (want %s)", p.Confidence, p.ConfidenceScore, want))
	}
	if p.EstimatedNetWorth.IsNegative() {
		return invariant("estimated net worth is negative")
	}
	if len(p.Breakdown) > 0 {
		sum := 0
		for _, item := range p.Breakdown {
			sum += item.Percentage
		}
		if sum < 99 || sum > 101 {
			return invariant(fmt.Sprintf("breakdown sums to %d%%", sum))
		}
	}
	return nil
}

func invariant(msg string) error {
	return dErrors.New(dErrors.CodeInvariantViolation, "wealth profile: "+msg)
}

// Clone returns a copy that shares no slices with p.
func (p *WealthProfile) Clone() *WealthProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.Sources = slices.Clone(p.Sources)
	out.Breakdown = slices.Clone(p.Breakdown)
	out.Properties = slices.Clone(p.Properties)
	return &out
}
