package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
	"github.com/stephen-lakes/optimalvid/internal/usecase"
)

// Request/Response types

// TagList decodes either a JSON array of strings or a comma separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("tags must be an array of strings or a comma separated string")
	}
	*t = model.ParseTags(s)
	return nil
}

type CreateVideoRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    int     `json:"duration"`
	Genre       string  `json:"genre"`
	Tags        TagList `json:"tags"`
}

// UpdateVideoRequest carries a partial update; absent fields stay unchanged.
type UpdateVideoRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Duration    *int     `json:"duration"`
	Genre       *string  `json:"genre"`
	Tags        *TagList `json:"tags"`
}

type MediaUploadRequest struct {
	FileName string `json:"file_name" validate:"required,max=255"`
}

type VideoResponse struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Duration    int      `json:"duration"`
	Genre       string   `json:"genre"`
	Tags        []string `json:"tags"`
	MediaKey    string   `json:"media_key,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type UploadURLResponse struct {
	VideoID   string `json:"video_id"`
	MediaKey  string `json:"media_key"`
	UploadURL string `json:"upload_url"`
	ExpiresAt string `json:"expires_at"`
}

type DownloadURLResponse struct {
	VideoID     string `json:"video_id"`
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	svc usecase.VideoService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.VideoService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

// Create handles POST /videos
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req CreateVideoRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	video, err := h.svc.CreateVideo(r.Context(), usecase.CreateVideoInput{
		UserID:      id.UserID,
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Genre:       req.Genre,
		Tags:        req.Tags,
	})
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusCreated, toVideoResponse(video))
}

// List handles GET /videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	videos, err := h.svc.ListVideos(r.Context(), filter)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponses(videos))
}

// Update handles PUT /videos/{id}
func (h *VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateVideoRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	patch := model.VideoPatch{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Genre:       req.Genre,
	}
	if req.Tags != nil {
		tags := []string(*req.Tags)
		patch.Tags = &tags
	}

	video, err := h.svc.UpdateVideo(r.Context(), usecase.UpdateVideoInput{
		VideoID: videoID,
		UserID:  id.UserID,
		Patch:   patch,
	})
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(video))
}

// Delete handles DELETE /videos/{id}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteVideo(r.Context(), videoID, id.UserID); err != nil {
		ServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, MessageResponse{Message: "Video deleted"})
}

// CreateUploadURL handles POST /videos/{id}/media/upload-url
func (h *VideoHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}

	var req MediaUploadRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	out, err := h.svc.CreateUploadURL(r.Context(), usecase.MediaUploadInput{
		VideoID:  videoID,
		UserID:   id.UserID,
		FileName: req.FileName,
	})
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, UploadURLResponse{
		VideoID:   videoID.String(),
		MediaKey:  out.Video.MediaKey,
		UploadURL: out.URL,
		ExpiresAt: out.ExpiresAt.Format(time.RFC3339),
	})
}

// GetDownloadURL handles GET /videos/{id}/media/download-url
func (h *VideoHandler) GetDownloadURL(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	videoID, ok := videoIDParam(w, r)
	if !ok {
		return
	}

	out, err := h.svc.GetDownloadURL(r.Context(), videoID, id.UserID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, DownloadURLResponse{
		VideoID:     videoID.String(),
		DownloadURL: out.URL,
		ExpiresAt:   out.ExpiresAt.Format(time.RFC3339),
	})
}

// videoIDParam parses {id}. An unparseable id cannot name any video, so it
// gets the same answer as a missing or foreign one.
func videoIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	videoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		ServiceError(w, r, repository.ErrVideoNotFound)
		return uuid.Nil, false
	}
	return videoID, true
}

// parseListFilter reads genre, tag and paging from the query string.
// Paging is page/limit or the skip/take alias, where skip must be a multiple of take.
func parseListFilter(q url.Values) (repository.VideoFilter, error) {
	filter := repository.VideoFilter{
		Genre: q.Get("genre"),
		Tag:   q.Get("tag"),
	}

	page, hasPage, err := queryInt(q, "page")
	if err != nil {
		return filter, err
	}
	limit, hasLimit, err := queryInt(q, "limit")
	if err != nil {
		return filter, err
	}
	skip, hasSkip, err := queryInt(q, "skip")
	if err != nil {
		return filter, err
	}
	take, hasTake, err := queryInt(q, "take")
	if err != nil {
		return filter, err
	}

	if !hasSkip && !hasTake {
		// Zero means "default" downstream, so explicit zeros are rejected here.
		if (hasPage && page < 1) || (hasLimit && limit < 1) {
			return filter, usecase.ErrInvalidPagination
		}
		filter.Page = page
		filter.Limit = limit
		return checkPaging(filter)
	}

	if hasPage || hasLimit {
		return filter, usecase.ErrInvalidPagination
	}
	if !hasTake {
		take = repository.DefaultLimit
	}
	if take < 1 || skip < 0 || skip%take != 0 {
		return filter, usecase.ErrInvalidPagination
	}
	filter.Page = skip/take + 1
	filter.Limit = take
	return checkPaging(filter)
}

// checkPaging rejects paging that is out of range once defaults apply,
// including pages whose row offset would overflow.
func checkPaging(filter repository.VideoFilter) (repository.VideoFilter, error) {
	if !filter.Normalize().Valid() {
		return filter, usecase.ErrInvalidPagination
	}
	return filter, nil
}

func queryInt(q url.Values, name string) (int, bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, usecase.ErrInvalidPagination
	}
	return n, true, nil
}

func toVideoResponse(v *model.Video) VideoResponse {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return VideoResponse{
		ID:          v.ID.String(),
		UserID:      v.UserID.String(),
		Title:       v.Title,
		Description: v.Description,
		Duration:    v.Duration,
		Genre:       v.Genre,
		Tags:        tags,
		MediaKey:    v.MediaKey,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   v.UpdatedAt.Format(time.RFC3339),
	}
}
