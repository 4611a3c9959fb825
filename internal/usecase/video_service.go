package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
)

// CreateVideoInput contains the input parameters for creating a video.
type CreateVideoInput struct {
	UserID      uuid.UUID
	Title       string
	Description string
	Duration    int
	Genre       string
	Tags        []string
}

// UpdateVideoInput carries a partial update from the video's owner.
type UpdateVideoInput struct {
	VideoID uuid.UUID
	UserID  uuid.UUID
	Patch   model.VideoPatch
}

// MediaUploadInput asks for an upload URL for a video's media file.
type MediaUploadInput struct {
	VideoID  uuid.UUID
	UserID   uuid.UUID
	FileName string
}

// MediaURLOutput is a presigned URL and the moment it stops working.
type MediaURLOutput struct {
	Video     *model.Video
	URL       string
	ExpiresAt time.Time
}

// VideoService defines the interface for video business logic operations.
//
// Write methods leave the store untouched when they fail. Owner-scoped methods
// return repository.ErrVideoNotFound for missing and foreign videos alike.
type VideoService interface {
	CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error)

	// ListVideos returns one page of videos. Zero Page or Limit take defaults.
	ListVideos(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error)

	UpdateVideo(ctx context.Context, input UpdateVideoInput) (*model.Video, error)

	DeleteVideo(ctx context.Context, videoID, userID uuid.UUID) error

	// CreateUploadURL records the media key on the video and returns a presigned PUT URL.
	CreateUploadURL(ctx context.Context, input MediaUploadInput) (*MediaURLOutput, error)

	// GetDownloadURL returns a presigned GET URL for uploaded media.
	GetDownloadURL(ctx context.Context, videoID, userID uuid.UUID) (*MediaURLOutput, error)
}

// VideoServiceConfig holds configuration for VideoService.
type VideoServiceConfig struct {
	MediaURLExpiry time.Duration
}

// DefaultVideoServiceConfig returns the default configuration.
func DefaultVideoServiceConfig() VideoServiceConfig {
	return VideoServiceConfig{
		MediaURLExpiry: 15 * time.Minute,
	}
}

type videoService struct {
	repo    repository.VideoRepository
	storage repository.ObjectStorage // nil when media storage is disabled

	mediaURLExpiry time.Duration
	now            func() time.Time
}

// NewVideoService creates a VideoService backed by the store only. storage may be nil.
func NewVideoService(
	repo repository.VideoRepository,
	storage repository.ObjectStorage,
	cfg VideoServiceConfig,
) VideoService {
	return &videoService{
		repo:           repo,
		storage:        storage,
		mediaURLExpiry: cfg.MediaURLExpiry,
		now:            time.Now,
	}
}

func (s *videoService) CreateVideo(ctx context.Context, input CreateVideoInput) (*model.Video, error) {
	video, err := model.NewVideo(input.UserID, input.Title, input.Description, input.Duration, input.Genre, input.Tags)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}

	return video, nil
}

func (s *videoService) ListVideos(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	videos, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

func (s *videoService) UpdateVideo(ctx context.Context, input UpdateVideoInput) (*model.Video, error) {
	patch := input.Patch
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	video, err := s.repo.UpdateOwned(ctx, input.VideoID, input.UserID, patch)
	if err != nil {
		return nil, ownedErr("update video", err)
	}
	return video, nil
}

// DeleteVideo removes the record, then the media object if any.
// A failed media delete only orphans the object, so it is logged and ignored.
func (s *videoService) DeleteVideo(ctx context.Context, videoID, userID uuid.UUID) error {
	var mediaKey string
	if s.storage != nil {
		video, err := s.repo.GetOwned(ctx, videoID, userID)
		if err != nil {
			return ownedErr("get video", err)
		}
		mediaKey = video.MediaKey
	}

	if err := s.repo.DeleteOwned(ctx, videoID, userID); err != nil {
		return ownedErr("delete video", err)
	}

	if mediaKey != "" {
		if err := s.storage.Delete(ctx, mediaKey); err != nil {
			slog.Warn("failed to delete media object",
				"video_id", videoID,
				"key", mediaKey,
				"error", err,
			)
		}
	}

	return nil
}

func (s *videoService) CreateUploadURL(ctx context.Context, input MediaUploadInput) (*MediaURLOutput, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}

	// Confirm ownership before signing anything.
	if _, err := s.repo.GetOwned(ctx, input.VideoID, input.UserID); err != nil {
		return nil, ownedErr("get video", err)
	}

	key := mediaKey(input.VideoID, input.FileName)
	expiresAt := s.now().Add(s.mediaURLExpiry)

	url, err := s.storage.GeneratePresignedUploadURL(ctx, key, s.mediaURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate presigned upload URL: %w", err)
	}

	video, err := s.repo.SetMediaKey(ctx, input.VideoID, input.UserID, key)
	if err != nil {
		return nil, ownedErr("set media key", err)
	}

	return &MediaURLOutput{Video: video, URL: url, ExpiresAt: expiresAt}, nil
}

func (s *videoService) GetDownloadURL(ctx context.Context, videoID, userID uuid.UUID) (*MediaURLOutput, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}

	video, err := s.repo.GetOwned(ctx, videoID, userID)
	if err != nil {
		return nil, ownedErr("get video", err)
	}
	if video.MediaKey == "" {
		return nil, ErrMediaNotUploaded
	}

	// The key is recorded when the upload URL is issued, not when the upload lands.
	exists, err := s.storage.Exists(ctx, video.MediaKey)
	if err != nil {
		return nil, fmt.Errorf("check media: %w", err)
	}
	if !exists {
		return nil, ErrMediaNotUploaded
	}

	expiresAt := s.now().Add(s.mediaURLExpiry)
	url, err := s.storage.GeneratePresignedDownloadURL(ctx, video.MediaKey, s.mediaURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate presigned download URL: %w", err)
	}

	return &MediaURLOutput{Video: video, URL: url, ExpiresAt: expiresAt}, nil
}

// normalizeFilter applies defaults and rejects out-of-range paging.
func normalizeFilter(filter repository.VideoFilter) (repository.VideoFilter, error) {
	filter = filter.Normalize()
	if !filter.Valid() {
		return filter, ErrInvalidPagination
	}
	return filter, nil
}

// ownedErr passes ErrVideoNotFound through unwrapped and wraps everything else.
func ownedErr(op string, err error) error {
	if errors.Is(err, repository.ErrVideoNotFound) {
		return repository.ErrVideoNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mediaKey creates the storage key for a video's media file.
// Format: media/{video_id}/{filename}
func mediaKey(videoID uuid.UUID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		name = "media"
	}
	return path.Join("media", videoID.String(), name)
}
