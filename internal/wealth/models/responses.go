package models

import (
	"time"

	"github.com/shopspring/decimal"

	"wealthgate/pkg/domain"
)

// ProfileResponse is the API view of a WealthProfile. DataFreshness is
// computed when the response is built.
type ProfileResponse struct {
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
	DataFreshness     Freshness       `json:"dataFreshness"`
	GeneratedAt       time.Time       `json:"generatedAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

func NewProfileResponse(p *WealthProfile, now time.Time) *ProfileResponse {
	return &ProfileResponse{
		OwnerID:           p.OwnerID,
		OwnerName:         p.OwnerName,
		EstimatedNetWorth: p.EstimatedNetWorth,
		Confidence:        p.Confidence,
		ConfidenceScore:   p.ConfidenceScore,
		Sources:           nonNil(p.Sources),
		Breakdown:         nonNil(p.Breakdown),
		Trend:             p.Trend,
		Comparisons:       p.Comparisons,
		Properties:        nonNil(p.Properties),
		DataFreshness:     p.DataFreshness(now),
		GeneratedAt:       p.GeneratedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// nonNil keeps empty collections as [] on the wire.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
