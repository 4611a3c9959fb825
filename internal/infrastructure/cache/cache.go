package cache

import (
	"context"
	"time"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
)

// VideoListCache caches serialized video list query results.
// It is advisory: callers must treat every error as a miss and carry on.
type VideoListCache interface {
	// Get returns the cached list for key. hit is false on a miss or expired entry.
	// An empty list is a valid hit.
	Get(ctx context.Context, key Key) (videos []*model.Video, hit bool, err error)

	// Put stores videos under key, replacing any existing entry, expiring after ttl.
	Put(ctx context.Context, key Key, videos []*model.Video, ttl time.Duration) error

	// Generation returns the current invalidation generation.
	// Snapshot it before reading the store, then fill with PutIfGeneration.
	Generation(ctx context.Context) (int64, error)

	// PutIfGeneration behaves like Put but only if no InvalidateAll happened
	// since gen was observed. stored reports whether the entry was written.
	PutIfGeneration(ctx context.Context, key Key, videos []*model.Video, ttl time.Duration, gen int64) (stored bool, err error)

	// InvalidateAll drops every cached video list and bumps the generation.
	InvalidateAll(ctx context.Context) error
}
