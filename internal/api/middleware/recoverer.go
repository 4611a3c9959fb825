package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/stephen-lakes/optimalvid/internal/api/handler"
)

// Recoverer turns a handler panic into a logged 500 with the usual error body.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)

				handler.Error(w, http.StatusInternalServerError, handler.CodeInternal, "An unexpected error occurred")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
