// Package providers defines the wealth-signal provider boundary.
//
// A provider answers "what does this owner hold in my category?" with a
// Signal. Providers are registered once at start-up and queried concurrently
// by the aggregator.
package providers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wealthgate/internal/wealth/models"
)

// Signal is one provider's estimate for an owner.
type Signal struct {
	ProviderID  string
	Category    models.Category
	Estimate    decimal.Decimal
	Reliability float64 // 0.0-1.0
	LastUpdated time.Time

	// Optional enrichments. Zero values mean the provider does not report them.
	AnnualChange *float64 // year-over-year change in percent
	Area         *AreaStats
	Properties   []models.PropertyRef
}

// AreaStats are net worth statistics for the owner's area.
type AreaStats struct {
	Median  decimal.Decimal
	Average decimal.Decimal
}

// Validate rejects signals the aggregator cannot use.
func (s *Signal) Validate() error {
	switch {
	case !s.Category.IsValid():
		return fmt.Errorf("unknown category %q", s.Category)
	case s.Estimate.IsNegative():
		return fmt.Errorf("negative estimate %s", s.Estimate)
	case s.Reliability <= 0 || s.Reliability > 1:
		return fmt.Errorf("reliability %.3f outside (0,1]", s.Reliability)
	}
	return nil
}

// Provider is the interface every wealth-signal source implements.
type Provider interface {
	// ID returns a unique identifier, e.g. "land-registry".
	ID() string

	// Category is the class of holdings this provider reports.
	Category() models.Category

	// Weight is the provider's configured influence within its category.
	Weight() float64

	// Lookup returns the owner's signal or a *ProviderError.
	Lookup(ctx context.Context, ownerName string) (*Signal, error)

	Health(ctx context.Context) error
}

// Registry holds providers by ID. Register everything during start-up; the
// registry is read-only afterwards.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds p. Registering the same ID twice is an error.
func (r *Registry) Register(p Provider) error {
	id := p.ID()
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("provider id is required")
	}
	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	if w := p.Weight(); w <= 0 {
		return fmt.Errorf("provider %s: weight must be positive, got %.3f", id, w)
	}
	r.providers[id] = p
	return nil
}

func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// All returns the providers sorted by ID.
func (r *Registry) All() []Provider {
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	slices.SortFunc(result, func(a, b Provider) int {
		return strings.Compare(a.ID(), b.ID())
	})
	return result
}

func (r *Registry) ListByCategory(c models.Category) []Provider {
	var result []Provider
	for _, p := range r.All() {
		if p.Category() == c {
			result = append(result, p)
		}
	}
	return result
}

func (r *Registry) Len() int {
	return len(r.providers)
}
