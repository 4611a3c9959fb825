package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/stephen-lakes/optimalvid/internal/api/handler"
	"github.com/stephen-lakes/optimalvid/internal/auth"
)

// Authenticator validates a bearer token. usecase.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// Authenticate rejects requests without a valid bearer token and attaches the
// caller's identity to the context.
//
// Missing token: 401 missing_token. Expired: 401 token_expired. Anything else
// that fails validation: 403 invalid_token.
func Authenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				handler.Error(w, http.StatusUnauthorized, handler.CodeMissingToken, "Authorization header is required")
				return
			}
			serveAuthenticated(a, token, next, w, r)
		})
	}
}

// OptionalAuthenticate lets anonymous requests through. A token that is
// present is still validated, and a bad one is rejected as in Authenticate.
func OptionalAuthenticate(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			serveAuthenticated(a, token, next, w, r)
		})
	}
}

func serveAuthenticated(a Authenticator, token string, next http.Handler, w http.ResponseWriter, r *http.Request) {
	id, err := a.Authenticate(r.Context(), token)
	if err != nil {
		handler.ServiceError(w, r, err)
		return
	}

	setLogUserID(r.Context(), id.UserID.String())
	next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
