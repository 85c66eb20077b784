// Package mock provides deterministic in-process wealth-signal providers for
// local runs and tests. Estimates are derived from the owner name so the same
// owner always gets the same figures.
package mock

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wealthgate/internal/wealth/models"
	"wealthgate/internal/wealth/providers"
	"wealthgate/pkg/domain"
)

// Provider is a configurable fake. The zero value is not usable; build one
// with a constructor.
type Provider struct {
	id       string
	category models.Category
	weight   float64
	signal   func(ownerName string) *providers.Signal

	mu       sync.Mutex
	delay    time.Duration
	failures []error
	err      error
	calls    int
}

// NewStatic always answers with s (ProviderID and Category are filled in).
func NewStatic(id string, category models.Category, weight float64, s providers.Signal) *Provider {
	return &Provider{
		id:       id,
		category: category,
		weight:   weight,
		signal: func(string) *providers.Signal {
			out := s
			out.ProviderID = id
			out.Category = category
			return &out
		},
	}
}

// NewLandRegistry reports real estate holdings with high reliability.
func NewLandRegistry() *Provider {
	return &Provider{
		id:       "land-registry",
		category: models.CategoryRealEstate,
		weight:   1.0,
		signal: func(name string) *providers.Signal {
			seed := seedFor(name)
			value := scaled(seed, 0, 400_000, 9_000_000)
			change := float64(int(seed>>16%1300)-300) / 100 // -3.00 .. 9.99
			props := propertiesFor(name, seed, value)
			return &providers.Signal{
				Category:     models.CategoryRealEstate,
				Estimate:     value,
				Reliability:  0.9,
				LastUpdated:  lastUpdated(seed, 20),
				AnnualChange: &change,
				Properties:   props,
			}
		},
	}
}

// NewMarketHoldings reports business and investment holdings.
func NewMarketHoldings() *Provider {
	return &Provider{
		id:       "market-holdings",
		category: models.CategoryInvestments,
		weight:   0.8,
		signal: func(name string) *providers.Signal {
			seed := seedFor(name)
			change := float64(int(seed>>24%2000)-800) / 100
			return &providers.Signal{
				Category:     models.CategoryInvestments,
				Estimate:     scaled(seed, 8, 50_000, 6_000_000),
				Reliability:  0.7,
				LastUpdated:  lastUpdated(seed, 60),
				AnnualChange: &change,
			}
		},
	}
}

// NewCensusPrior estimates liquid holdings from demographic priors for the
// owner's area and reports area statistics.
func NewCensusPrior() *Provider {
	return &Provider{
		id:       "census-prior",
		category: models.CategoryCash,
		weight:   0.5,
		signal: func(name string) *providers.Signal {
			seed := seedFor(name)
			median := scaled(seed, 4, 250_000, 900_000).Round(-3)
			return &providers.Signal{
				Category:    models.CategoryCash,
				Estimate:    scaled(seed, 12, 10_000, 750_000),
				Reliability: 0.45,
				LastUpdated: lastUpdated(seed, 365),
				Area: &providers.AreaStats{
					Median:  median,
					Average: median.Mul(decimal.RequireFromString("1.6")).Round(-3),
				},
			}
		},
	}
}

// Defaults returns the three standard mock providers.
func Defaults() []*Provider {
	return []*Provider{NewLandRegistry(), NewMarketHoldings(), NewCensusPrior()}
}

// WithDelay makes every lookup take at least d (or until ctx is done).
func (p *Provider) WithDelay(d time.Duration) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = d
	return p
}

// WithError makes every lookup fail with err.
func (p *Provider) WithError(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

// WithFailures makes the next calls fail with errs in order, then succeed.
func (p *Provider) WithFailures(errs ...error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = append(p.failures, errs...)
	return p
}

// Calls reports how many lookups were made.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *Provider) ID() string                { return p.id }
func (p *Provider) Category() models.Category { return p.category }
func (p *Provider) Weight() float64           { return p.weight }

func (p *Provider) Lookup(ctx context.Context, ownerName string) (*providers.Signal, error) {
	p.mu.Lock()
	p.calls++
	delay := p.delay
	err := p.err
	if err == nil && len(p.failures) > 0 {
		err = p.failures[0]
		p.failures = p.failures[1:]
	}
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, providers.NewProviderError(providers.ErrorTimeout, p.id, "request timeout", ctx.Err())
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	s := p.signal(ownerName)
	s.ProviderID = p.id
	return s, nil
}

func (p *Provider) Health(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// seedFor derives 64 stable bits from the normalized owner name.
func seedFor(name string) uint64 {
	id := uuid.MustParse(domain.DeriveOwnerID(name).String())
	return binary.BigEndian.Uint64(id[8:])
}

// scaled maps bits of seed onto [lo, hi) rounded to the nearest thousand.
func scaled(seed uint64, shift uint, lo, hi int64) decimal.Decimal {
	span := uint64(hi - lo)
	v := lo + int64((seed>>shift)%span)
	return decimal.NewFromInt(v).Round(-3)
}

func lastUpdated(seed uint64, maxDays int) time.Time {
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, -int(seed%uint64(maxDays)))
}

func propertiesFor(name string, seed uint64, total decimal.Decimal) []models.PropertyRef {
	n := int(seed%3) + 1
	share := total.Div(decimal.NewFromInt(int64(n))).Round(-3)
	refs := make([]models.PropertyRef, 0, n)
	for i := range n {
		refs = append(refs, models.PropertyRef{
			PropertyID:     domain.PropertyID(fmt.Sprintf("prop-%s-%d", domain.DeriveOwnerID(name).String()[:8], i+1)),
			Address:        fmt.Sprintf("%d Harbor View Rd, Unit %d", 100+int(seed>>8%800), i+1),
			EstimatedValue: share,
		})
	}
	return refs
}

var _ providers.Provider = (*Provider)(nil)
