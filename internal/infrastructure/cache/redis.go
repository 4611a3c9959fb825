package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/metrics"
)

const (
	// generationKey holds the invalidation counter. It sits outside the
	// "videos:*" keyspace so InvalidateAll never deletes it.
	generationKey = "videos-generation"

	scanBatchSize = 100
)

// putIfGenerationScript writes KEYS[1] only while KEYS[2] still equals ARGV[2].
// A missing generation counts as 0.
var putIfGenerationScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// RedisVideoListCache implements VideoListCache using Redis as the backing store.
// It needs a single keyspace: the generation script touches an entry and the
// generation key together, and InvalidateAll scans one node. Cluster is not supported.
type RedisVideoListCache struct {
	client  *redis.Client
	pattern string
}

// NewRedisVideoListCache creates a new Redis-backed video list cache.
func NewRedisVideoListCache(client *redis.Client) *RedisVideoListCache {
	return &RedisVideoListCache{
		client:  client,
		pattern: VideoResource + keySeparator + "*",
	}
}

// Get retrieves a video list from Redis.
// Returns nil, false, nil on cache miss; Redis expires entries on its own.
func (c *RedisVideoListCache) Get(ctx context.Context, key Key) ([]*model.Video, bool, error) {
	data, err := c.client.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheOp(metrics.CacheOpGet, metrics.CacheStatusMiss)
			return nil, false, nil
		}
		metrics.RecordCacheOp(metrics.CacheOpGet, metrics.CacheStatusError)
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	videos, err := decodeVideos(data)
	if err != nil {
		metrics.RecordCacheOp(metrics.CacheOpGet, metrics.CacheStatusError)
		return nil, false, fmt.Errorf("deserialize videos: %w", err)
	}

	metrics.RecordCacheOp(metrics.CacheOpGet, metrics.CacheStatusHit)
	return videos, true, nil
}

// Put stores a video list in Redis with the specified TTL.
func (c *RedisVideoListCache) Put(ctx context.Context, key Key, videos []*model.Video, ttl time.Duration) error {
	data, err := encodeVideos(videos)
	if err != nil {
		metrics.RecordCacheOp(metrics.CacheOpPut, metrics.CacheStatusError)
		return fmt.Errorf("serialize videos: %w", err)
	}

	if err := c.client.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		metrics.RecordCacheOp(metrics.CacheOpPut, metrics.CacheStatusError)
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.RecordCacheOp(metrics.CacheOpPut, metrics.CacheStatusSuccess)
	return nil
}

// Generation returns the invalidation counter, 0 if it was never bumped.
func (c *RedisVideoListCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

// PutIfGeneration stores the list atomically unless the generation moved past gen.
func (c *RedisVideoListCache) PutIfGeneration(ctx context.Context, key Key, videos []*model.Video, ttl time.Duration, gen int64) (bool, error) {
	data, err := encodeVideos(videos)
	if err != nil {
		metrics.RecordCacheOp(metrics.CacheOpPut, metrics.CacheStatusError)
		return false, fmt.Errorf("serialize videos: %w", err)
	}

	ttlMillis := ttl.Milliseconds()
	if ttlMillis < 1 {
		ttlMillis = 1
	}

	stored, err := putIfGenerationScript.Run(ctx, c.client,
		[]string{key.String(), generationKey},
		data, strconv.FormatInt(gen, 10), ttlMillis,
	).Int()
	if err != nil {
		metrics.RecordCacheOp(metrics.CacheOpPut, metrics.CacheStatusError)
		return false, fmt.Errorf("redis conditional set: %w", err)
	}

	if stored == 0 {
		metrics.RecordCacheOp(metrics.CacheOpPut, metrics.CacheStatusStale)
		return false, nil
	}

	metrics.RecordCacheOp(metrics.CacheOpPut, metrics.CacheStatusSuccess)
	return true, nil
}

// InvalidateAll bumps the generation, then deletes every videos:* key.
// The bump comes first so fills that read the store before the write cannot land afterwards.
func (c *RedisVideoListCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		metrics.RecordCacheOp(metrics.CacheOpInvalidate, metrics.CacheStatusError)
		return fmt.Errorf("redis incr generation: %w", err)
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.pattern, scanBatchSize).Result()
		if err != nil {
			metrics.RecordCacheOp(metrics.CacheOpInvalidate, metrics.CacheStatusError)
			return fmt.Errorf("redis scan: %w", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				metrics.RecordCacheOp(metrics.CacheOpInvalidate, metrics.CacheStatusError)
				return fmt.Errorf("redis del: %w", err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	metrics.RecordCacheOp(metrics.CacheOpInvalidate, metrics.CacheStatusSuccess)
	return nil
}

// Ping verifies the Redis connection is alive.
func (c *RedisVideoListCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Compile-time verification that RedisVideoListCache implements VideoListCache.
var _ VideoListCache = (*RedisVideoListCache)(nil)
