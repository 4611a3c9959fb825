package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create persists a new user.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, user *model.User) error

	// GetByEmail looks a user up by normalized email.
	// Returns ErrUserNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByID retrieves a user by its unique identifier.
	// Returns ErrUserNotFound if no such user exists.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}
