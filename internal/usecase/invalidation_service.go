package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/cache"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/metrics"
)

// DefaultMaxRetries is the default number of attempts before a task is dropped.
const DefaultMaxRetries = 5

// InvalidationServiceConfig holds configuration for InvalidationService.
type InvalidationServiceConfig struct {
	// MaxRetries is the retry count at which a task is dropped.
	MaxRetries int
	// RetryDelay is waited after a failed attempt before the task is requeued.
	RetryDelay time.Duration
}

// DefaultInvalidationServiceConfig returns the default configuration.
func DefaultInvalidationServiceConfig() InvalidationServiceConfig {
	return InvalidationServiceConfig{
		MaxRetries: DefaultMaxRetries,
		RetryDelay: 2 * time.Second,
	}
}

// InvalidationService replays cache flushes the API server could not complete.
type InvalidationService interface {
	// ProcessTask flushes the list cache for a deferred task.
	// Returns nil on success or when the task is dropped after MaxRetries.
	// Returns an error when the flush failed and the task should be retried.
	ProcessTask(ctx context.Context, task repository.InvalidationTask) error
}

type invalidationService struct {
	cache cache.VideoListCache

	maxRetries int
	retryDelay time.Duration
}

// NewInvalidationService creates a new InvalidationService instance.
func NewInvalidationService(listCache cache.VideoListCache, cfg InvalidationServiceConfig) InvalidationService {
	return &invalidationService{
		cache:      listCache,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

func (s *invalidationService) ProcessTask(ctx context.Context, task repository.InvalidationTask) error {
	if task.RetryCount >= s.maxRetries {
		metrics.DeferredInvalidationsTotal.WithLabelValues(metrics.DeferredDropped).Inc()
		slog.Error("dropping invalidation task after max retries, lists stay stale until TTL expiry",
			"video_id", task.VideoID,
			"reason", task.Reason,
			"retry_count", task.RetryCount,
			"issued_at", task.IssuedAt,
		)
		return nil
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		// Hold the delivery briefly so a down backend is not hammered.
		select {
		case <-ctx.Done():
		case <-time.After(s.retryDelay):
		}
		return fmt.Errorf("invalidate cache: %w", err)
	}

	metrics.DeferredInvalidationsTotal.WithLabelValues(metrics.DeferredProcessed).Inc()
	return nil
}
