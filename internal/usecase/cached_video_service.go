package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/cache"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/metrics"
)

// CachedVideoServiceConfig holds configuration for CachedVideoService.
type CachedVideoServiceConfig struct {
	// CacheTTL is how long a cached list page lives if nothing invalidates it.
	CacheTTL time.Duration
}

// DefaultCachedVideoServiceConfig returns the default configuration.
func DefaultCachedVideoServiceConfig() CachedVideoServiceConfig {
	return CachedVideoServiceConfig{
		CacheTTL: 60 * time.Second,
	}
}

// cachedVideoService wraps VideoService with a read-through list cache.
//
// Lists are served from the cache and filled on a miss. Every successful write
// flushes the whole cache afterwards; a failed write never touches it. Cache
// errors are logged and never reach the caller.
type cachedVideoService struct {
	delegate VideoService
	cache    cache.VideoListCache
	queue    repository.InvalidationQueue // nil disables deferred invalidation
	sfGroup  singleflight.Group

	cacheTTL time.Duration
	now      func() time.Time
}

// NewCachedVideoService creates a new CachedVideoService wrapping the provided VideoService.
// queue may be nil.
func NewCachedVideoService(
	delegate VideoService,
	listCache cache.VideoListCache,
	queue repository.InvalidationQueue,
	cfg CachedVideoServiceConfig,
) VideoService {
	return &cachedVideoService{
		delegate: delegate,
		cache:    listCache,
		queue:    queue,
		cacheTTL: cfg.CacheTTL,
		now:      time.Now,
	}
}

// ListVideos serves a page from the cache, coalescing concurrent misses per key.
//
// Misses are coalesced only among callers that observed the same generation,
// so a read issued after a write's invalidation returned never joins a flight
// that read the store before that write.
func (s *cachedVideoService) ListVideos(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	key := cache.VideoListKey(filter)

	videos, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("cache get failed, falling back to store",
			"key", key.String(),
			"error", err,
		)
	} else if hit {
		return videos, nil
	}

	gen, err := s.cache.Generation(ctx)
	if err != nil {
		// Without a generation neither a safe fill nor a safe shared flight exists.
		slog.Warn("cache generation unavailable, reading store directly",
			"key", key.String(),
			"error", err,
		)
		return s.delegate.ListVideos(ctx, filter)
	}

	flightKey := key.String() + "@" + strconv.FormatInt(gen, 10)
	// The flight outlives any single caller; each caller may still stop waiting.
	flightCtx := context.WithoutCancel(ctx)
	ch := s.sfGroup.DoChan(flightKey, func() (any, error) {
		return s.fill(flightCtx, key, filter, gen)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
		} else {
			metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]*model.Video), nil
	}
}

// fill reads the store and caches the page unless the generation moved past
// gen while the store query ran, which means a write landed in between.
func (s *cachedVideoService) fill(ctx context.Context, key cache.Key, filter repository.VideoFilter, gen int64) ([]*model.Video, error) {
	videos, err := s.delegate.ListVideos(ctx, filter)
	if err != nil {
		return nil, err
	}

	if _, err := s.cache.PutIfGeneration(ctx, key, videos, s.cacheTTL, gen); err != nil {
		slog.Warn("failed to cache video list",
			"key", key.String(),
			"error", err,
		)
	}

	return videos, nil
}

func (s *cachedVideoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error) {
	video, err := s.delegate.CreateVideo(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, repository.ReasonVideoCreated, video.ID)
	return video, nil
}

func (s *cachedVideoService) UpdateVideo(ctx context.Context, input UpdateVideoInput) (*model.Video, error) {
	video, err := s.delegate.UpdateVideo(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, repository.ReasonVideoUpdated, video.ID)
	return video, nil
}

func (s *cachedVideoService) DeleteVideo(ctx context.Context, videoID, userID uuid.UUID) error {
	if err := s.delegate.DeleteVideo(ctx, videoID, userID); err != nil {
		return err
	}
	s.invalidate(ctx, repository.ReasonVideoDeleted, videoID)
	return nil
}

// CreateUploadURL changes the video's media key, which list results carry.
func (s *cachedVideoService) CreateUploadURL(ctx context.Context, input MediaUploadInput) (*MediaURLOutput, error) {
	out, err := s.delegate.CreateUploadURL(ctx, input)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, repository.ReasonVideoUpdated, input.VideoID)
	return out, nil
}

func (s *cachedVideoService) GetDownloadURL(ctx context.Context, videoID, userID uuid.UUID) (*MediaURLOutput, error) {
	return s.delegate.GetDownloadURL(ctx, videoID, userID)
}

// invalidate flushes the list cache after a committed write.
//
// Failure never fails the write. Until a retry succeeds or entries expire, a
// recovered backend may serve lists from before the write; the queue, when
// configured, shortens that window.
func (s *cachedVideoService) invalidate(ctx context.Context, reason string, videoID uuid.UUID) {
	// The write has committed; a client hang-up must not skip the flush.
	ctx = context.WithoutCancel(ctx)

	err := s.cache.InvalidateAll(ctx)
	if err == nil {
		return
	}

	slog.Warn("cache invalidation failed, lists may be stale until TTL expiry",
		"reason", reason,
		"video_id", videoID,
		"ttl", s.cacheTTL,
		"error", err,
	)

	if s.queue == nil {
		return
	}

	task := repository.InvalidationTask{
		Reason:   reason,
		VideoID:  videoID,
		IssuedAt: s.now().UTC(),
	}
	if err := s.queue.PublishInvalidation(ctx, task); err != nil {
		metrics.DeferredInvalidationsTotal.WithLabelValues(metrics.DeferredPublishError).Inc()
		slog.Error("failed to defer cache invalidation",
			"reason", reason,
			"video_id", videoID,
			"error", err,
		)
		return
	}
	metrics.DeferredInvalidationsTotal.WithLabelValues(metrics.DeferredPublished).Inc()
}
