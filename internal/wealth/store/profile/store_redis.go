package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"wealthgate/internal/wealth/models"
	"wealthgate/pkg/domain"
)

const redisKeyPrefix = "wealthgate:profile:"

// RedisStore keeps profiles as JSON strings. A zero TTL keeps them until
// overwritten.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Find(ctx context.Context, ownerID domain.OwnerID) (*models.WealthProfile, error) {
	raw, err := s.client.Get(ctx, redisKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find wealth profile: %w", err)
	}
	var p models.WealthProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode wealth profile: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) Insert(ctx context.Context, p *models.WealthProfile) error {
	doc, err := encode(p)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, redisKey(p.OwnerID), doc, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("insert wealth profile: %w", err)
	}
	if !ok {
		return fmt.Errorf("insert wealth profile %s: %w", p.OwnerID, ErrConflict)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, ownerID domain.OwnerID, p *models.WealthProfile) error {
	if err := checkUpdate(ownerID, p); err != nil {
		return err
	}
	doc, err := encode(p)
	if err != nil {
		return err
	}
	ok, err := s.client.SetXX(ctx, redisKey(ownerID), doc, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("update wealth profile: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Upsert(ctx context.Context, p *models.WealthProfile) error {
	doc, err := encode(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(p.OwnerID), doc, s.ttl).Err(); err != nil {
		return fmt.Errorf("upsert wealth profile: %w", err)
	}
	return nil
}

func redisKey(ownerID domain.OwnerID) string {
	return redisKeyPrefix + ownerID.String()
}

func encode(p *models.WealthProfile) ([]byte, error) {
	if err := checkProfile(p); err != nil {
		return nil, err
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode wealth profile: %w", err)
	}
	return doc, nil
}
