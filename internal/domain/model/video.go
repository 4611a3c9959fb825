package model

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Video represents a video metadata record owned by a single user.
type Video struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description string
	Duration    int // seconds
	Genre       string
	Tags        []string
	MediaKey    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrTitleTooLong    = errors.New("title exceeds maximum length of 255 characters")
	ErrInvalidUserID   = errors.New("user ID cannot be nil")
	ErrInvalidDuration = errors.New("duration must be a positive number of seconds")
	ErrEmptyGenre      = errors.New("genre cannot be empty")
	ErrGenreTooLong    = errors.New("genre exceeds maximum length of 100 characters")
	ErrTooManyTags     = errors.New("too many tags")
	ErrInvalidTag      = errors.New("tag exceeds maximum length of 50 characters")
	ErrEmptyPatch      = errors.New("update contains no fields")

	ErrDescriptionTooLong = errors.New("description exceeds maximum length of 5000 characters")
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 5000
	maxGenreLength       = 100
	maxTags              = 32
	maxTagLength         = 50
)

// NewVideo creates a new Video after validating every field.
// Tags are normalized: trimmed, deduplicated and sorted.
func NewVideo(userID uuid.UUID, title, description string, duration int, genre string, tags []string) (*Video, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidUserID
	}

	title = strings.TrimSpace(title)
	genre = strings.TrimSpace(genre)

	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if len(description) > maxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if err := validateGenre(genre); err != nil {
		return nil, err
	}

	normalized, err := NormalizeTags(tags)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Video{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Duration:    duration,
		Genre:       genre,
		Tags:        normalized,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// HasTag reports whether the video carries the given tag.
func (v *Video) HasTag(tag string) bool {
	for _, t := range v.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsOwnedBy reports whether userID owns the video.
func (v *Video) IsOwnedBy(userID uuid.UUID) bool {
	return v.UserID == userID
}

// Clone returns a deep copy, so callers may mutate it freely.
func (v *Video) Clone() *Video {
	c := *v
	if v.Tags != nil {
		c.Tags = append([]string{}, v.Tags...)
	}
	return &c
}

// SetMediaKey records the object storage key of the uploaded media.
func (v *Video) SetMediaKey(key string) {
	v.MediaKey = key
	v.UpdatedAt = time.Now().UTC()
}

// VideoPatch is a partial update. Nil fields are left untouched.
type VideoPatch struct {
	Title       *string
	Description *string
	Duration    *int
	Genre       *string
	Tags        *[]string
}

// IsEmpty reports whether the patch changes nothing.
func (p VideoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Duration == nil && p.Genre == nil && p.Tags == nil
}

// Validate checks every present field and normalizes it in place.
func (p *VideoPatch) Validate() error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if err := validateTitle(title); err != nil {
			return err
		}
		p.Title = &title
	}
	if p.Description != nil && len(*p.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if p.Duration != nil && *p.Duration <= 0 {
		return ErrInvalidDuration
	}
	if p.Genre != nil {
		genre := strings.TrimSpace(*p.Genre)
		if err := validateGenre(genre); err != nil {
			return err
		}
		p.Genre = &genre
	}
	if p.Tags != nil {
		tags, err := NormalizeTags(*p.Tags)
		if err != nil {
			return err
		}
		p.Tags = &tags
	}
	return nil
}

// Apply copies the patch onto v and bumps UpdatedAt.
// The patch must have been validated.
func (p VideoPatch) Apply(v *Video) {
	if p.Title != nil {
		v.Title = *p.Title
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
	if p.Duration != nil {
		v.Duration = *p.Duration
	}
	if p.Genre != nil {
		v.Genre = *p.Genre
	}
	if p.Tags != nil {
		v.Tags = append([]string{}, (*p.Tags)...)
	}
	v.UpdatedAt = time.Now().UTC()
}

// NormalizeTags trims, drops empties, deduplicates and sorts tags.
// Tag sets are order-irrelevant, so a sorted slice is their canonical form.
func NormalizeTags(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > maxTagLength {
			return nil, ErrInvalidTag
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > maxTags {
		return nil, ErrTooManyTags
	}
	sort.Strings(out)
	return out, nil
}

// ParseTags splits a comma separated tag list ("a,b,c").
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func validateTitle(title string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	if len(title) > maxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func validateGenre(genre string) error {
	if genre == "" {
		return ErrEmptyGenre
	}
	if len(genre) > maxGenreLength {
		return ErrGenreTooLong
	}
	return nil
}
