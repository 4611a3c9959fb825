package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/stephen-lakes/optimalvid/internal/auth"
	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
)

// RegisterInput contains the input parameters for registering a user.
type RegisterInput struct {
	Email    string
	Password string
}

// LoginInput contains the credentials presented at login.
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput contains the issued session token.
type LoginOutput struct {
	Token string
	User  *model.User
}

// Profile is a user together with the videos they own.
type Profile struct {
	User   *model.User
	Videos []*model.Video
}

// TokenManager issues and validates session tokens. *auth.TokenIssuer satisfies it.
type TokenManager interface {
	Issue(id auth.Identity) (string, error)
	Validate(token string) (auth.Identity, error)
}

// AuthService defines registration, login and token checks.
type AuthService interface {
	// Register creates a user. Returns repository.ErrDuplicateEmail if the email is taken.
	Register(ctx context.Context, input RegisterInput) (*model.User, error)

	// Login verifies credentials and issues a token.
	// Returns ErrInvalidCredentials for an unknown email or a wrong password.
	Login(ctx context.Context, input LoginInput) (*LoginOutput, error)

	// Authenticate validates a bearer token.
	// Returns auth.ErrTokenExpired or auth.ErrTokenMalformed.
	Authenticate(ctx context.Context, token string) (auth.Identity, error)

	// Me returns the caller's profile and owned videos.
	Me(ctx context.Context, userID uuid.UUID) (*Profile, error)
}

type authService struct {
	users  repository.UserRepository
	videos repository.VideoRepository
	hasher auth.PasswordHasher
	tokens TokenManager

	// dummyHash is compared against when the email is unknown so both login
	// failures cost one hash comparison.
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	users repository.UserRepository,
	videos repository.VideoRepository,
	hasher auth.PasswordHasher,
	tokens TokenManager,
) AuthService {
	return &authService{
		users:  users,
		videos: videos,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	// Validate cheaply before paying for the hash.
	if err := model.ValidateEmail(model.NormalizeEmail(input.Email)); err != nil {
		return nil, err
	}
	if err := model.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user, err := model.NewUser(input.Email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	user, err := s.users.GetByEmail(ctx, model.NormalizeEmail(input.Email))
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
		_ = s.hasher.Compare(s.dummy(), input.Password)
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, input.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			slog.Error("password comparison failed", "user_id", user.ID, "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginOutput{Token: token, User: user}, nil
}

func (s *authService) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	return s.tokens.Validate(token)
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	videos, err := s.videos.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get videos by user ID: %w", err)
	}

	return &Profile{User: user, Videos: videos}, nil
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("timing-equalizer")
		if err != nil {
			slog.Error("failed to prepare dummy password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
