package profile

import (
	"context"
	"sync"

	"wealthgate/internal/wealth/models"
	"wealthgate/pkg/domain"
)

// InMemoryStore keeps profiles in a map. Profiles are copied on the way in
// and out so callers never share state with the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[domain.OwnerID]*models.WealthProfile
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[domain.OwnerID]*models.WealthProfile)}
}

func (s *InMemoryStore) Find(_ context.Context, ownerID domain.OwnerID) (*models.WealthProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemoryStore) Insert(_ context.Context, p *models.WealthProfile) error {
	if err := checkProfile(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.OwnerID]; exists {
		return ErrConflict
	}
	s.profiles[p.OwnerID] = p.Clone()
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, ownerID domain.OwnerID, p *models.WealthProfile) error {
	if err := checkUpdate(ownerID, p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[ownerID]; !exists {
		return ErrNotFound
	}
	s.profiles[ownerID] = p.Clone()
	return nil
}

func (s *InMemoryStore) Upsert(_ context.Context, p *models.WealthProfile) error {
	if err := checkProfile(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.OwnerID] = p.Clone()
	return nil
}

// Len reports the number of stored profiles.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
