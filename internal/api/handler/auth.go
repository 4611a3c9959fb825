package handler

import (
	"net/http"
	"time"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/usecase"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type ProfileResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	CreatedAt string          `json:"created_at"`
	Videos    []VideoResponse `json:"videos"`
}

// AuthHandler handles registration, login and the caller's profile.
type AuthHandler struct {
	svc usecase.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc usecase.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.svc.Register(r.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusCreated, UserResponse{
		ID:    user.ID.String(),
		Email: user.Email,
	})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	out, err := h.svc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, LoginResponse{Token: out.Token})
}

// Me handles GET /users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	profile, err := h.svc.Me(r.Context(), id.UserID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, ProfileResponse{
		ID:        profile.User.ID.String(),
		Email:     profile.User.Email,
		CreatedAt: profile.User.CreatedAt.Format(time.RFC3339),
		Videos:    toVideoResponses(profile.Videos),
	})
}

func toVideoResponses(videos []*model.Video) []VideoResponse {
	out := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		out = append(out, toVideoResponse(v))
	}
	return out
}
