package repository

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// VideoFilter selects a page of videos. Empty Genre or Tag means "no filter".
type VideoFilter struct {
	Genre string
	Tag   string
	Page  int // 1-based
	Limit int
}

// Normalize trims filter values and fills in default paging.
func (f VideoFilter) Normalize() VideoFilter {
	f.Genre = strings.TrimSpace(f.Genre)
	f.Tag = strings.TrimSpace(f.Tag)
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	return f
}

// Valid reports whether paging is within bounds, including an Offset that fits in an int.
func (f VideoFilter) Valid() bool {
	if f.Page < 1 || f.Limit < 1 || f.Limit > MaxLimit {
		return false
	}
	return f.Page-1 <= math.MaxInt/f.Limit
}

// Offset returns the number of rows to skip.
func (f VideoFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches reports whether v satisfies the genre and tag predicates.
func (f VideoFilter) Matches(v *model.Video) bool {
	if f.Genre != "" && v.Genre != f.Genre {
		return false
	}
	if f.Tag != "" && !v.HasTag(f.Tag) {
		return false
	}
	return true
}

// VideoRepository defines the interface for video persistence operations.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
//
// Owner-scoped methods return ErrVideoNotFound both when the video does not exist
// and when it belongs to someone else, and leave the store untouched in both cases.
type VideoRepository interface {
	// Create persists a new video entity.
	Create(ctx context.Context, video *model.Video) error

	// List returns one page of videos matching the filter, ordered by creation time.
	// A given page is stable absent intervening writes.
	List(ctx context.Context, filter VideoFilter) ([]*model.Video, error)

	// GetByUserID retrieves all videos belonging to a user, oldest first.
	// Returns empty slice if no videos exist for the user.
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Video, error)

	// GetOwned retrieves a video only if it belongs to ownerID.
	GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Video, error)

	// UpdateOwned applies patch to the video if it belongs to ownerID and returns the result.
	UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, patch model.VideoPatch) (*model.Video, error)

	// DeleteOwned removes the video if it belongs to ownerID.
	DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error

	// SetMediaKey records the storage key of the video's media if it belongs to ownerID.
	SetMediaKey(ctx context.Context, id, ownerID uuid.UUID, key string) (*model.Video, error)
}
