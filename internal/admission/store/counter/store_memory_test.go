package counter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"wealthgate/pkg/requestcontext"
	"wealthgate/pkg/testutil"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.now = time.UnixMilli(1_700_000_000_000)
}

func (s *InMemoryStoreSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *InMemoryStoreSuite) TestIncrementCountsEveryCall() {
	for i := 1; i <= 6; i++ {
		wc, err := s.store.Increment(s.at(time.Duration(i)*time.Second), "login:1.2.3.4", time.Minute)
		s.Require().NoError(err)
		s.Equal(i, wc.Count)
		s.Equal(s.now.Add(time.Second+time.Minute), wc.ResetAt, "reset tracks the oldest request")
	}
}

func (s *InMemoryStoreSuite) TestWindowSlides() {
	key := "search:10.0.0.1"
	_, _ = s.store.Increment(s.at(0), key, time.Minute)
	_, _ = s.store.Increment(s.at(30*time.Second), key, time.Minute)

	wc, err := s.store.Increment(s.at(60*time.Second), key, time.Minute)
	s.Require().NoError(err)
	s.Equal(2, wc.Count, "request at t=0 leaves the window exactly at t=60s")
	s.Equal(s.now.Add(90*time.Second), wc.ResetAt)
}

func (s *InMemoryStoreSuite) TestKeysAreIndependent() {
	_, _ = s.store.Increment(s.at(0), "login:a", time.Minute)
	wc, err := s.store.Increment(s.at(0), "login:b", time.Minute)
	s.Require().NoError(err)
	s.Equal(1, wc.Count)
}

func (s *InMemoryStoreSuite) TestOutOfOrderTimestampsStaySorted() {
	key := "api:x"
	_, _ = s.store.Increment(s.at(10*time.Second), key, time.Minute)
	wc, err := s.store.Increment(s.at(5*time.Second), key, time.Minute)
	s.Require().NoError(err)
	s.Equal(2, wc.Count)
	s.Equal(s.now.Add(65*time.Second), wc.ResetAt)
}

func (s *InMemoryStoreSuite) TestCountDoesNotIncrement() {
	key := "export:x"
	_, _ = s.store.Increment(s.at(0), key, time.Hour)

	for range 3 {
		wc, err := s.store.Count(s.at(time.Second), key, time.Hour)
		s.Require().NoError(err)
		s.Equal(1, wc.Count)
	}

	wc, err := s.store.Count(s.at(0), "export:missing", time.Hour)
	s.Require().NoError(err)
	s.Zero(wc.Count)
}

func (s *InMemoryStoreSuite) TestReset() {
	key := "login:x"
	_, _ = s.store.Increment(s.at(0), key, time.Minute)
	s.Require().NoError(s.store.Reset(context.Background(), key))

	wc, err := s.store.Increment(s.at(time.Second), key, time.Minute)
	s.Require().NoError(err)
	s.Equal(1, wc.Count)
}

func (s *InMemoryStoreSuite) TestValidation() {
	_, err := s.store.Increment(context.Background(), "", time.Minute)
	s.Error(err)
	_, err = s.store.Increment(context.Background(), "k", 0)
	s.Error(err)
	s.Error(s.store.Reset(context.Background(), ""))
}

func (s *InMemoryStoreSuite) TestConcurrentIncrementsAreLinearizable() {
	const workers = 200
	seen := make([]int, workers)

	result := testutil.RunConcurrent(workers, func(idx int) error {
		wc, err := s.store.Increment(context.Background(), "login:race", time.Minute)
		seen[idx] = wc.Count
		return err
	})

	s.Equal(int32(workers), result.Successes)
	counts := make(map[int]bool, workers)
	for _, c := range seen {
		s.False(counts[c], "count %d observed twice", c)
		counts[c] = true
	}
	s.Len(counts, workers)
}

func (s *InMemoryStoreSuite) TestCapacityEvictsKeys() {
	store := NewInMemory(WithCapacity(2))
	for _, k := range []string{"a", "b", "c"} {
		_, _ = store.Increment(s.at(0), k, time.Minute)
	}
	s.Equal(2, store.Len())
}
