package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"wealthgate/internal/wealth/models"
	"wealthgate/pkg/domain"
	"wealthgate/pkg/platform/sentinel"
)

// ProfileStore defines methods for seeding wealth profiles
type ProfileStore interface {
	Insert(ctx context.Context, profile *models.WealthProfile) error
}

// Seeder populates profile stores with demo data
type Seeder struct {
	profiles ProfileStore
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new seeder
func New(profiles ProfileStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

type demoHolding struct {
	category    models.Category
	amount      int64
	source      string
	weight      float64
	reliability float64
}

type demoOwner struct {
	name       string
	score      int
	change     float64
	age        time.Duration
	holdings   []demoHolding
	properties []string
}

var demoOwners = []demoOwner{
	{"Acme Owner", 80, 4.2, -2 * time.Hour, []demoHolding{
		{models.CategoryRealEstate, 6_750_000, "land-registry", 1.0, 0.9},
		{models.CategoryInvestments, 4_500_000, "market-holdings", 0.8, 0.7},
	}, []string{"14 Harbour View Road", "3 Mill Lane"}},
	{"Alice Anderson", 62, 1.8, -45 * 24 * time.Hour, []demoHolding{
		{models.CategoryRealEstate, 850_000, "land-registry", 1.0, 0.9},
		{models.CategoryCash, 120_000, "census-prior", 0.5, 0.45},
	}, []string{"22 Orchard Close"}},
	{"Bob Brown", 35, -2.5, -200 * 24 * time.Hour, []demoHolding{
		{models.CategoryCash, 60_000, "census-prior", 0.5, 0.45},
	}, nil},
	{"Charlie Chen", 74, 0.4, -10 * 24 * time.Hour, []demoHolding{
		{models.CategoryBusiness, 2_300_000, "market-holdings", 0.8, 0.75},
		{models.CategoryRealEstate, 1_400_000, "land-registry", 1.0, 0.85},
	}, []string{"Unit 5, Riverside Works"}},
}

// SeedAll inserts every demo profile that does not exist yet. Existing
// profiles are left untouched so restarts never overwrite generated data.
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.Info("seeding demo data...")

	inserted, skipped := 0, 0
	for _, o := range demoOwners {
		profile, err := s.buildProfile(o)
		if err != nil {
			return fmt.Errorf("failed to build demo profile %q: %w", o.name, err)
		}
		if err := s.profiles.Insert(ctx, profile); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				skipped++
				continue
			}
			return fmt.Errorf("failed to seed profile %q: %w", o.name, err)
		}
		inserted++
	}

	s.logger.Info("demo data seeded successfully",
		"profiles", inserted,
		"skipped", skipped,
	)
	return nil
}

func (s *Seeder) buildProfile(o demoOwner) (*models.WealthProfile, error) {
	now := s.now().UTC()
	ownerID := domain.DeriveOwnerID(o.name)

	amounts := make(map[models.Category]decimal.Decimal)
	total := decimal.Zero
	var sources []models.Source
	for _, h := range o.holdings {
		amount := decimal.NewFromInt(h.amount)
		amounts[h.category] = amounts[h.category].Add(amount)
		total = total.Add(amount)
		sources = append(sources, models.Source{
			Name:        h.source,
			Weight:      h.weight,
			Reliability: h.reliability,
			LastUpdated: now.Add(o.age),
		})
	}

	direction := models.TrendStable
	switch {
	case o.change > 1:
		direction = models.TrendUp
	case o.change < -1:
		direction = models.TrendDown
	}

	var properties []models.PropertyRef
	if len(o.properties) > 0 {
		share := amounts[models.CategoryRealEstate].Div(decimal.NewFromInt(int64(len(o.properties)))).Round(2)
		for i, addr := range o.properties {
			properties = append(properties, models.PropertyRef{
				PropertyID:     domain.PropertyID(fmt.Sprintf("demo-%s-%d", ownerID.String()[:8], i+1)),
				Address:        addr,
				EstimatedValue: share,
			})
		}
	}

	return models.NewWealthProfile(models.ProfileParams{
		OwnerID:           ownerID,
		OwnerName:         o.name,
		EstimatedNetWorth: total,
		ConfidenceScore:   o.score,
		Sources:           sources,
		Breakdown:         models.NewBreakdown(amounts),
		Trend:             models.Trend{Direction: direction, Percentage: o.change, Timeframe: "12 months"},
		Comparisons:       models.Comparisons{MedianInArea: decimal.Zero, AverageInArea: decimal.Zero},
		Properties:        properties,
		GeneratedAt:       now.Add(o.age),
	})
}
