package counter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"wealthgate/internal/admission/models"
	"wealthgate/pkg/requestcontext"
)

const redisKeyPrefix = "wealthgate:rl:"

// slidingWindowScript trims expired members, records the request and returns
// {count, oldestScoreMillis} in one round trip. Scores are epoch millis.
var slidingWindowScript = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
redis.call('ZADD', key, now, ARGV[3])
redis.call('PEXPIRE', key, window)
local count  = redis.call('ZCARD', key)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {count, tonumber(oldest[2])}
`)

// RedisStore keeps one sorted set per key, shared by every instance.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (models.WindowCount, error) {
	if err := validateKey(key, window); err != nil {
		return models.WindowCount{}, err
	}
	now := requestcontext.Now(ctx).UnixMilli()
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	res, err := slidingWindowScript.Run(ctx, s.client,
		[]string{redisKeyPrefix + key},
		now, window.Milliseconds(), member,
	).Int64Slice()
	if err != nil {
		return models.WindowCount{}, fmt.Errorf("increment rate limit counter: %w", err)
	}
	if len(res) != 2 {
		return models.WindowCount{}, fmt.Errorf("increment rate limit counter: unexpected reply %v", res)
	}
	return models.WindowCount{
		Count:   int(res[0]),
		ResetAt: time.UnixMilli(res[1]).Add(window),
	}, nil
}

func (s *RedisStore) Count(ctx context.Context, key string, window time.Duration) (models.WindowCount, error) {
	if err := validateKey(key, window); err != nil {
		return models.WindowCount{}, err
	}
	now := requestcontext.Now(ctx).UnixMilli()
	lower := "(" + strconv.FormatInt(now-window.Milliseconds(), 10)

	members, err := s.client.ZRangeByScoreWithScores(ctx, redisKeyPrefix+key, &redis.ZRangeBy{
		Min: lower,
		Max: "+inf",
	}).Result()
	if err != nil {
		return models.WindowCount{}, fmt.Errorf("count rate limit counter: %w", err)
	}
	if len(members) == 0 {
		return models.WindowCount{}, nil
	}
	return models.WindowCount{
		Count:   len(members),
		ResetAt: time.UnixMilli(int64(members[0].Score)).Add(window),
	}, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	if key == "" {
		return errKeyRequired
	}
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("reset rate limit counter: %w", err)
	}
	return nil
}
