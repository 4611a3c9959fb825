package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stephen-lakes/optimalvid/internal/domain/model"
	"github.com/stephen-lakes/optimalvid/internal/domain/repository"
	"github.com/stephen-lakes/optimalvid/internal/infrastructure/metrics"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const videoColumns = `id, user_id, title, description, duration, genre, tags, media_key, created_at, updated_at`

// VideoRepository implements repository.VideoRepository using PostgreSQL.
type VideoRepository struct {
	db DBTX
}

// NewVideoRepository creates a new VideoRepository instance.
func NewVideoRepository(db DBTX) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create persists a new video entity.
func (r *VideoRepository) Create(ctx context.Context, video *model.Video) error {
	const query = `
		INSERT INTO videos (` + videoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	metrics.RecordDBQuery(metrics.DBQueryInsert, metrics.TableVideos)
	_, err := r.db.Exec(ctx, query,
		video.ID,
		video.UserID,
		video.Title,
		video.Description,
		video.Duration,
		video.Genre,
		tagsOrEmpty(video.Tags),
		nullString(video.MediaKey),
		video.CreatedAt,
		video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create video: %w", err)
	}

	return nil
}

// List returns one page of videos, oldest first. Ties on created_at break on id
// so a page is stable between identical queries.
func (r *VideoRepository) List(ctx context.Context, filter repository.VideoFilter) ([]*model.Video, error) {
	const query = `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE ($1 = '' OR genre = $1)
		  AND ($2 = '' OR $2 = ANY(tags))
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4
	`

	metrics.RecordDBQuery(metrics.DBQuerySelect, metrics.TableVideos)
	rows, err := r.db.Query(ctx, query, filter.Genre, filter.Tag, filter.Limit, filter.Offset())
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}

	return collectVideos(rows)
}

// GetByUserID retrieves all videos belonging to a user.
func (r *VideoRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]*model.Video, error) {
	const query = `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	metrics.RecordDBQuery(metrics.DBQuerySelect, metrics.TableVideos)
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query videos by user ID: %w", err)
	}

	return collectVideos(rows)
}

// GetOwned retrieves a video only if ownerID owns it.
func (r *VideoRepository) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*model.Video, error) {
	const query = `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE id = $1 AND user_id = $2
	`

	metrics.RecordDBQuery(metrics.DBQuerySelect, metrics.TableVideos)
	video, err := scanVideo(r.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}

	return video, nil
}

// UpdateOwned applies the present fields of patch in one statement.
// Absent fields keep their column value through COALESCE.
func (r *VideoRepository) UpdateOwned(ctx context.Context, id, ownerID uuid.UUID, patch model.VideoPatch) (*model.Video, error) {
	const query = `
		UPDATE videos
		SET title       = COALESCE($3, title),
		    description = COALESCE($4, description),
		    duration    = COALESCE($5, duration),
		    genre       = COALESCE($6, genre),
		    tags        = COALESCE($7, tags),
		    updated_at  = $8
		WHERE id = $1 AND user_id = $2
		RETURNING ` + videoColumns

	var tags any
	if patch.Tags != nil {
		tags = tagsOrEmpty(*patch.Tags)
	}

	metrics.RecordDBQuery(metrics.DBQueryUpdate, metrics.TableVideos)
	video, err := scanVideo(r.db.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Title,
		patch.Description,
		patch.Duration,
		patch.Genre,
		tags,
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("update video: %w", err)
	}

	return video, nil
}

// DeleteOwned removes a video only if ownerID owns it.
func (r *VideoRepository) DeleteOwned(ctx context.Context, id, ownerID uuid.UUID) error {
	const query = `DELETE FROM videos WHERE id = $1 AND user_id = $2`

	metrics.RecordDBQuery(metrics.DBQueryDelete, metrics.TableVideos)
	tag, err := r.db.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrVideoNotFound
	}

	return nil
}

// SetMediaKey records the storage key of the video's media.
func (r *VideoRepository) SetMediaKey(ctx context.Context, id, ownerID uuid.UUID, key string) (*model.Video, error) {
	const query = `
		UPDATE videos
		SET media_key = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING ` + videoColumns

	metrics.RecordDBQuery(metrics.DBQueryUpdate, metrics.TableVideos)
	video, err := scanVideo(r.db.QueryRow(ctx, query, id, ownerID, nullString(key), time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, fmt.Errorf("set media key: %w", err)
	}

	return video, nil
}

func collectVideos(rows pgx.Rows) ([]*model.Video, error) {
	defer rows.Close()

	videos := make([]*model.Video, 0)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// scanVideo scans one row of videoColumns. pgx.Rows satisfies pgx.Row.
func scanVideo(row pgx.Row) (*model.Video, error) {
	var (
		video    model.Video
		tags     []string
		mediaKey *string
	)

	err := row.Scan(
		&video.ID,
		&video.UserID,
		&video.Title,
		&video.Description,
		&video.Duration,
		&video.Genre,
		&tags,
		&mediaKey,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	video.Tags = tagsOrEmpty(tags)
	if mediaKey != nil {
		video.MediaKey = *mediaKey
	}

	return &video, nil
}

// nullString returns nil for empty strings, otherwise returns a pointer to the string.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// Compile-time verification that VideoRepository implements repository.VideoRepository.
var _ repository.VideoRepository = (*VideoRepository)(nil)
