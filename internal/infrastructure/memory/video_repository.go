package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
)

// VideoRepository keeps videos in a map. Every read and write copies, so callers
// never share memory with the store.
type VideoRepository struct {
	mu     sync.RWMutex
	videos map[uuid.UUID]*model.Video
}

// NewVideoRepository creates an empty video store.
func NewVideoRepository() *VideoRepository {
	return &VideoRepository{videos: make(map[uuid.UUID]*model.Video)}
}

// Create stores a copy of video.
func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.videos[video.ID] = video.Clone()
	return nil
}

// List returns one page of matching videos ordered by CreatedAt then ID.
func (r *VideoRepository) List(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.collect(filter.Matches)

	start := filter.Offset()
	if start >= len(matched) {
		return []*model.Video{}, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// GetByUserID returns every video owned by userID, oldest first.
func (r *VideoRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(v *model.Video) bool { return v.IsOwnedBy(userID) }), nil
}

// GetOwned returns a copy of the video if ownerID owns it.
func (r *VideoRepository) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, err := r.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}

// UpdateOwned applies patch in place if ownerID owns the video.
func (r *VideoRepository) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, patch model.VideoPatch) (*model.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, err := r.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	patch.Apply(v)
	return v.Clone(), nil
}

// DeleteOwned removes the video if ownerID owns it.
func (r *VideoRepository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.owned(id, ownerID); err != nil {
		return err
	}
	delete(r.videos, id)
	return nil
}

// SetMediaKey records key on the video if ownerID owns it.
func (r *VideoRepository) SetMediaKey(ctx context.Context, id, ownerID uuid.UUID, key string) (*model.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, err := r.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	v.SetMediaKey(key)
	return v.Clone(), nil
}

// owned must be called with r.mu held.
func (r *VideoRepository) owned(id, ownerID uuid.UUID) (*model.Video, error) {
	v, ok := r.videos[id]
	if !ok || !v.IsOwnedBy(ownerID) {
		return nil, repository.ErrVideoNotFound
	}
	return v, nil
}

// collect must be called with r.mu held. It returns sorted copies.
func (r *VideoRepository) collect(keep func(*model.Video) bool) []*model.Video {
	out := make([]*model.Video, 0, len(r.videos))
	for _, v := range r.videos {
		if keep(v) {
			out = append(out, v.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func less(a, b *model.Video) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

var _ repository.VideoRepository = (*VideoRepository)(nil)
