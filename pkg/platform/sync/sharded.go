// Package sync holds locking helpers shared by in-process stores.
package sync

import (
	"hash/maphash"
	"sync"
)

const defaultShards = 64

// ShardedMutex spreads per-key locking over a fixed set of mutexes so that
// unrelated keys rarely contend. Two keys that share a shard serialize, which
// is safe but slower.
type ShardedMutex struct {
	seed   maphash.Seed
	shards []sync.Mutex
}

// NewShardedMutex returns a mutex with n shards; n <= 0 selects the default.
func NewShardedMutex(n int) *ShardedMutex {
	if n <= 0 {
		n = defaultShards
	}
	return &ShardedMutex{
		seed:   maphash.MakeSeed(),
		shards: make([]sync.Mutex, n),
	}
}

func (m *ShardedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

func (m *ShardedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

// WithLock runs fn while holding key's shard.
func (m *ShardedMutex) WithLock(key string, fn func()) {
	mu := &m.shards[m.shardFor(key)]
	mu.Lock()
	defer mu.Unlock()
	fn()
}

func (m *ShardedMutex) shardFor(key string) int {
	return int(maphash.String(m.seed, key) % uint64(len(m.shards)))
}
