// Package profile implements wealth profile stores: in-process, PostgreSQL
// and Redis.
package profile

import (
	"errors"

	"wealthgate/internal/wealth/models"
	"wealthgate/pkg/domain"
	"wealthgate/pkg/platform/sentinel"
)

var (
	// ErrNotFound is returned when no profile exists for an owner.
	ErrNotFound = sentinel.ErrNotFound
	// ErrConflict is returned by Insert when the owner already has a profile.
	ErrConflict = sentinel.ErrConflict

	errProfileRequired = errors.New("wealth profile is required")
	errOwnerMismatch   = errors.New("profile owner does not match the updated owner")
)

func checkProfile(p *models.WealthProfile) error {
	if p == nil {
		return errProfileRequired
	}
	return p.Validate()
}

func checkUpdate(ownerID domain.OwnerID, p *models.WealthProfile) error {
	if err := checkProfile(p); err != nil {
		return err
	}
	if p.OwnerID != ownerID {
		return errOwnerMismatch
	}
	return nil
}
