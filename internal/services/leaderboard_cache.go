package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/levelup-backend/internal/domain"
)

// LeaderboardCache stores rendered leaderboards. Invalidate drops every key
// at once by advancing the generation. Get reports the generation it read
// under, hit or miss; Set only stores a board built under the current one,
// so a build that raced an invalidation is never served.
type LeaderboardCache interface {
	Get(ctx context.Context, key string) (lb *types.Leaderboard, gen int64, ok bool, err error)
	Set(ctx context.Context, key string, gen int64, lb *types.Leaderboard) error
	Invalidate(ctx context.Context) error
}

const leaderboardKeyPrefix = "levelup:leaderboard"

// redisLeaderboardCache namespaces keys by a generation counter; bumping the
// counter orphans older keys, which then age out through their TTL.
type redisLeaderboardCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewRedisLeaderboardCache(rdb *goredis.Client, ttl time.Duration) LeaderboardCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisLeaderboardCache{rdb: rdb, ttl: ttl}
}

func (c *redisLeaderboardCache) genKey() string {
	return leaderboardKeyPrefix + ":gen"
}

func (c *redisLeaderboardCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey()).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *redisLeaderboardCache) dataKey(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", leaderboardKeyPrefix, gen, key)
}

func (c *redisLeaderboardCache) Get(ctx context.Context, key string) (*types.Leaderboard, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := c.rdb.Get(ctx, c.dataKey(gen, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, err
	}
	var lb types.Leaderboard
	if err := json.Unmarshal(raw, &lb); err != nil {
		return nil, gen, false, err
	}
	return &lb, gen, true, nil
}

// Set writes under the caller's generation. If an Invalidate ran since, the
// key is already orphaned and only ages out.
func (c *redisLeaderboardCache) Set(ctx context.Context, key string, gen int64, lb *types.Leaderboard) error {
	raw, err := json.Marshal(lb)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.dataKey(gen, key), raw, c.ttl).Err()
}

func (c *redisLeaderboardCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, c.genKey()).Err()
}

type memoryEntry struct {
	lb      types.Leaderboard
	expires time.Time
}

type memoryLeaderboardCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	gen     int64
	entries map[string]memoryEntry
}

// NewMemoryLeaderboardCache is the single-replica cache used without redis.
func NewMemoryLeaderboardCache(ttl time.Duration) LeaderboardCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &memoryLeaderboardCache{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (c *memoryLeaderboardCache) Get(_ context.Context, key string) (*types.Leaderboard, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, c.gen, false, nil
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, c.gen, false, nil
	}
	lb := e.lb
	lb.Entries = append([]types.LeaderboardEntry(nil), e.lb.Entries...)
	return &lb, c.gen, true, nil
}

func (c *memoryLeaderboardCache) Set(_ context.Context, key string, gen int64, lb *types.Leaderboard) error {
	if lb == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	cp := *lb
	cp.Entries = append([]types.LeaderboardEntry(nil), lb.Entries...)
	c.entries[key] = memoryEntry{lb: cp, expires: c.now().Add(c.ttl)}
	return nil
}

func (c *memoryLeaderboardCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = map[string]memoryEntry{}
	return nil
}
