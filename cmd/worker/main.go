package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/stephen-lakes/optimalvid/internal/config"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/cache"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/queue"
	"github.com/stephen-lakes/optimalvid/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if !cfg.RabbitMQ.Enabled {
		return errors.New("worker requires RABBITMQ_ENABLED=true")
	}

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	listCache := cache.NewRedisVideoListCache(redisClient)
	// Tasks exist because Redis was unreachable; the worker starts anyway and
	// retries them as they arrive.
	if err := listCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable at startup", slog.String("error", err.Error()))
	} else {
		logger.Info("connected to Redis")
	}

	invalidationSvc := usecase.NewInvalidationService(listCache, usecase.InvalidationServiceConfig{
		MaxRetries: cfg.Worker.MaxRetries,
		RetryDelay: cfg.Worker.RetryDelay,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Tracks the task in flight so shutdown can wait for it.
	var wg sync.WaitGroup

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting worker, consuming invalidation tasks")
		err := queueClient.ConsumeInvalidations(ctx, func(task repository.InvalidationTask) error {
			wg.Add(1)
			defer wg.Done()

			if err := invalidationSvc.ProcessTask(ctx, task); err != nil {
				logger.Error("invalidation task failed",
					slog.String("reason", task.Reason),
					slog.String("video_id", task.VideoID.String()),
					slog.Int("retry_count", task.RetryCount),
					slog.String("error", err.Error()),
				)
				return err
			}

			logger.Info("invalidation task completed",
				slog.String("reason", task.Reason),
				slog.String("video_id", task.VideoID.String()),
				slog.Int("retry_count", task.RetryCount),
			)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("in-flight task completed")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, task may be redelivered")
	}

	logger.Info("worker stopped")
	return nil
}
