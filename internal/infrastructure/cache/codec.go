package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
)

// videoJSON is the JSON representation of a Video for caching.
// Using explicit struct avoids coupling to the HTTP response shape.
type videoJSON struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Duration    int      `json:"duration"`
	Genre       string   `json:"genre"`
	Tags        []string `json:"tags"`
	MediaKey    string   `json:"media_key,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// encodeVideos converts a video list to JSON bytes.
func encodeVideos(videos []*model.Video) ([]byte, error) {
	out := make([]videoJSON, 0, len(videos))
	for _, v := range videos {
		tags := v.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, videoJSON{
			ID:          v.ID.String(),
			UserID:      v.UserID.String(),
			Title:       v.Title,
			Description: v.Description,
			Duration:    v.Duration,
			Genre:       v.Genre,
			Tags:        tags,
			MediaKey:    v.MediaKey,
			CreatedAt:   v.CreatedAt.Format(time.RFC3339Nano),
			UpdatedAt:   v.UpdatedAt.Format(time.RFC3339Nano),
		})
	}
	return json.Marshal(out)
}

// decodeVideos converts JSON bytes back to a video list.
func decodeVideos(data []byte) ([]*model.Video, error) {
	var in []videoJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	videos := make([]*model.Video, 0, len(in))
	for _, v := range in {
		video, err := v.toModel()
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, nil
}

func (v videoJSON) toModel() (*model.Video, error) {
	id, err := uuid.Parse(v.ID)
	if err != nil {
		return nil, fmt.Errorf("parse video ID: %w", err)
	}

	userID, err := uuid.Parse(v.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse user ID: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}

	return &model.Video{
		ID:          id,
		UserID:      userID,
		Title:       v.Title,
		Description: v.Description,
		Duration:    v.Duration,
		Genre:       v.Genre,
		Tags:        tags,
		MediaKey:    v.MediaKey,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
