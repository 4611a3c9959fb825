package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/stephen-lakes/optimalvid/internal/api"
	"github.com/stephen-lakes/optimalvid/internal/api/handler"
	"github.com/stephen-lakes/optimalvid/internal/auth"
	"github.com/stephen-lakes/optimalvid/internal/config"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/cache"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/memory"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/postgres"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/queue"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/storage"
	"github.com/stephen-lakes/optimalvid/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var checks []handler.HealthCheck

	// Store
	var (
		userRepo  repository.UserRepository
		videoRepo repository.VideoRepository
	)
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		userRepo = memory.NewUserRepository()
		videoRepo = memory.NewVideoRepository()
		logger.Warn("using in-memory store, data is lost on restart")
	default:
		pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer pgClient.Close()

		if err := pgClient.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
		logger.Info("connected to PostgreSQL")

		userRepo = postgres.NewUserRepository(pgClient.Pool())
		videoRepo = postgres.NewVideoRepository(pgClient.Pool())
		checks = append(checks, handler.HealthCheck{Name: "postgres", Critical: true, Ping: pgClient.Ping})
	}

	// Cache. The service runs without Redis; lists are then read from the store.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	listCache := cache.NewRedisVideoListCache(redisClient)
	if err := listCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, serving lists uncached", slog.String("error", err.Error()))
	} else {
		logger.Info("connected to Redis")
	}
	checks = append(checks, handler.HealthCheck{Name: "redis", Ping: listCache.Ping})

	// Deferred invalidation
	var invalidations repository.InvalidationQueue
	if cfg.RabbitMQ.Enabled {
		queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer queueClient.Close()
		invalidations = queueClient
		logger.Info("connected to RabbitMQ")
	}

	// Media storage
	var objectStorage repository.ObjectStorage
	if cfg.MinIO.Enabled {
		storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
			Endpoint:       cfg.MinIO.Endpoint,
			PublicEndpoint: cfg.MinIO.PublicEndpoint,
			AccessKey:      cfg.MinIO.AccessKey,
			SecretKey:      cfg.MinIO.SecretKey,
			Bucket:         cfg.MinIO.Bucket,
			UseSSL:         cfg.MinIO.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to MinIO: %w", err)
		}
		objectStorage = storageClient
		checks = append(checks, handler.HealthCheck{Name: "minio", Ping: storageClient.Ping})
		logger.Info("connected to MinIO")
	}

	// Services
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := usecase.NewAuthService(userRepo, videoRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), tokens)

	videoSvc := usecase.NewVideoService(videoRepo, objectStorage, usecase.VideoServiceConfig{
		MediaURLExpiry: cfg.MinIO.URLExpiry,
	})
	videoSvc = usecase.NewCachedVideoService(videoSvc, listCache, invalidations, usecase.CachedVideoServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	})

	r := api.NewRouter(api.RouterConfig{
		Logger:           logger,
		Auth:             authSvc,
		Videos:           videoSvc,
		ListRequiresAuth: cfg.Auth.ListRequiresAuth,
		MediaEnabled:     objectStorage != nil,
		HealthChecks:     checks,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.Int("port", cfg.Server.Port),
			slog.String("store", cfg.Store.Driver),
			slog.Bool("deferred_invalidation", invalidations != nil),
			slog.Bool("media", objectStorage != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
