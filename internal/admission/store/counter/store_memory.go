package counter

import (
	"context"
	"slices"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"wealthgate/internal/admission/models"
	psync "wealthgate/pkg/platform/sync"
	"wealthgate/pkg/requestcontext"
)

// slidingWindow holds the request timestamps of one key, oldest first.
type slidingWindow struct {
	timestamps []time.Time
}

// record drops expired entries, inserts now in order and reports the window.
func (sw *slidingWindow) record(now time.Time, window time.Duration) models.WindowCount {
	sw.expire(now, window)
	i, _ := slices.BinarySearchFunc(sw.timestamps, now, func(a, b time.Time) int { return a.Compare(b) })
	// Equal timestamps land after existing ones.
	for i < len(sw.timestamps) && sw.timestamps[i].Equal(now) {
		i++
	}
	sw.timestamps = slices.Insert(sw.timestamps, i, now)
	return sw.snapshot(window)
}

func (sw *slidingWindow) count(now time.Time, window time.Duration) models.WindowCount {
	sw.expire(now, window)
	return sw.snapshot(window)
}

// expire removes entries at or before now-window.
func (sw *slidingWindow) expire(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

func (sw *slidingWindow) snapshot(window time.Duration) models.WindowCount {
	if len(sw.timestamps) == 0 {
		return models.WindowCount{}
	}
	return models.WindowCount{
		Count:   len(sw.timestamps),
		ResetAt: sw.timestamps[0].Add(window),
	}
}

// InMemoryStore keeps per-key windows in a TTL cache so idle keys are evicted
// once their window has passed. It backs single-instance deployments and the
// degraded-mode fallback.
type InMemoryStore struct {
	locks *psync.ShardedMutex
	cache *ttlcache.Cache[string, *slidingWindow]
}

type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	capacity uint64
}

// WithCapacity bounds the number of tracked keys; the least recently used key
// is evicted first.
func WithCapacity(n uint64) MemoryOption {
	return func(o *memoryOptions) { o.capacity = n }
}

func NewInMemory(opts ...MemoryOption) *InMemoryStore {
	o := memoryOptions{capacity: 100_000}
	for _, opt := range opts {
		opt(&o)
	}
	cache := ttlcache.New[string, *slidingWindow](
		ttlcache.WithCapacity[string, *slidingWindow](o.capacity),
		ttlcache.WithDisableTouchOnHit[string, *slidingWindow](),
	)
	return &InMemoryStore{
		locks: psync.NewShardedMutex(0),
		cache: cache,
	}
}

// Start runs the expiry janitor until Stop is called.
func (s *InMemoryStore) Start() {
	go s.cache.Start()
}

func (s *InMemoryStore) Stop() {
	s.cache.Stop()
}

func (s *InMemoryStore) Increment(ctx context.Context, key string, window time.Duration) (models.WindowCount, error) {
	if err := validateKey(key, window); err != nil {
		return models.WindowCount{}, err
	}
	now := requestcontext.Now(ctx)

	var wc models.WindowCount
	s.locks.WithLock(key, func() {
		sw := s.window(key)
		wc = sw.record(now, window)
		// Keep the entry alive for one full window after the newest request.
		s.cache.Set(key, sw, window)
	})
	return wc, nil
}

func (s *InMemoryStore) Count(ctx context.Context, key string, window time.Duration) (models.WindowCount, error) {
	if err := validateKey(key, window); err != nil {
		return models.WindowCount{}, err
	}
	now := requestcontext.Now(ctx)

	var wc models.WindowCount
	s.locks.WithLock(key, func() {
		item := s.cache.Get(key)
		if item == nil {
			return
		}
		wc = item.Value().count(now, window)
	})
	return wc, nil
}

func (s *InMemoryStore) Reset(_ context.Context, key string) error {
	if key == "" {
		return errKeyRequired
	}
	s.locks.WithLock(key, func() {
		s.cache.Delete(key)
	})
	return nil
}

// Len reports tracked keys.
func (s *InMemoryStore) Len() int {
	return s.cache.Len()
}

// window must be called with the key's shard held.
func (s *InMemoryStore) window(key string) *slidingWindow {
	if item := s.cache.Get(key); item != nil {
		return item.Value()
	}
	return &slidingWindow{}
}
