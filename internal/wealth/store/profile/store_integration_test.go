//go:build integration

package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"wealthgate/internal/wealth/models"
	"wealthgate/internal/wealth/ports"
	"wealthgate/pkg/platform/sentinel"
	"wealthgate/pkg/testutil/containers"
)

type sharedStoreSuite struct {
	suite.Suite
	store ports.ProfileStore
	reset func()
}

func (s *sharedStoreSuite) SetupTest() {
	s.reset()
}

func (s *sharedStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	p := newProfile(s.T(), "Acme Owner", 11_250_000, 80)

	s.Require().NoError(s.store.Insert(ctx, p))
	found, err := s.store.Find(ctx, p.OwnerID)
	s.Require().NoError(err)

	s.Equal(p.OwnerID, found.OwnerID)
	s.True(p.EstimatedNetWorth.Equal(found.EstimatedNetWorth))
	s.Equal(models.ConfidenceHigh, found.Confidence)
	s.Equal(p.Breakdown[0].Percentage, found.Breakdown[0].Percentage)
	s.True(p.GeneratedAt.Equal(found.GeneratedAt))
}

func (s *sharedStoreSuite) TestInsertConflict() {
	ctx := context.Background()
	p := newProfile(s.T(), "Acme Owner", 1_000, 50)
	s.Require().NoError(s.store.Insert(ctx, p))
	s.ErrorIs(s.store.Insert(ctx, p), sentinel.ErrConflict)
}

func (s *sharedStoreSuite) TestUpdateAndUpsert() {
	ctx := context.Background()
	p := newProfile(s.T(), "Acme Owner", 1_000, 50)
	s.ErrorIs(s.store.Update(ctx, p.OwnerID, p), sentinel.ErrNotFound)

	s.Require().NoError(s.store.Upsert(ctx, p))
	next := newProfile(s.T(), "Acme Owner", 2_000, 72)
	s.Require().NoError(s.store.Update(ctx, p.OwnerID, next))

	found, err := s.store.Find(ctx, p.OwnerID)
	s.Require().NoError(err)
	s.Equal(72, found.ConfidenceScore)
}

func (s *sharedStoreSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), "missing-owner")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func TestPostgresProfileStoreSuite(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	suite.Run(t, &sharedStoreSuite{
		store: NewPostgres(pg.DB),
		reset: func() { _ = pg.TruncateTables(context.Background(), "wealth_profiles") },
	})
}

func TestRedisProfileStoreSuite(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	suite.Run(t, &sharedStoreSuite{
		store: NewRedis(rc.Client, time.Hour),
		reset: func() { _ = rc.Flush(context.Background()) },
	})
}
