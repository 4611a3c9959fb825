// Package api assembles the HTTP router.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stephen-lakes/optimalvid/internal/api/handler"
	"github.com/stephen-lakes/optimalvid/internal/api/middleware"
	"github.com/stephen-lakes/optimalvid/internal/usecase"
)

// RouterConfig carries everything the router serves.
type RouterConfig struct {
	Logger *slog.Logger
	Auth   usecase.AuthService
	Videos usecase.VideoService

	// ListRequiresAuth rejects anonymous GET /videos.
	ListRequiresAuth bool
	// MediaEnabled mounts the presigned URL endpoints.
	MediaEnabled bool

	HealthChecks []handler.HealthCheck
}

// NewRouter builds the service's HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := handler.NewAuthHandler(cfg.Auth)
	videoHandler := handler.NewVideoHandler(cfg.Videos)
	healthHandler := handler.NewHealthHandler(cfg.HealthChecks...)

	requireAuth := middleware.Authenticate(cfg.Auth)
	listAuth := middleware.OptionalAuthenticate(cfg.Auth)
	if cfg.ListRequiresAuth {
		listAuth = requireAuth
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))

	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.With(requireAuth).Get("/users/me", authHandler.Me)

	r.Route("/videos", func(r chi.Router) {
		r.With(listAuth).Get("/", videoHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/", videoHandler.Create)
			r.Put("/{id}", videoHandler.Update)
			r.Delete("/{id}", videoHandler.Delete)

			if cfg.MediaEnabled {
				r.Post("/{id}/media/upload-url", videoHandler.CreateUploadURL)
				r.Get("/{id}/media/download-url", videoHandler.GetDownloadURL)
			}
		})
	})

	return r
}
