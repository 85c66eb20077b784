//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks ProfileStore

// Package ports declares the boundaries the wealth service depends on.
package ports

import (
	"context"

	"wealthgate/internal/wealth/models"
	"wealthgate/pkg/domain"
)

// ProfileStore persists wealth profiles keyed by owner. Implementations return
// sentinel.ErrNotFound for missing owners and sentinel.ErrConflict when Insert
// hits an existing owner.
type ProfileStore interface {
	Find(ctx context.Context, ownerID domain.OwnerID) (*models.WealthProfile, error)
	Insert(ctx context.Context, profile *models.WealthProfile) error
	Update(ctx context.Context, ownerID domain.OwnerID, profile *models.WealthProfile) error
	Upsert(ctx context.Context, profile *models.WealthProfile) error
}
