package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Invalidation reasons carried by InvalidationTask.
const (
	ReasonVideoCreated = "video_created"
	ReasonVideoUpdated = "video_updated"
	ReasonVideoDeleted = "video_deleted"
)

// InvalidationTask asks a worker to flush the video list cache after the API
// server failed to do so inline.
type InvalidationTask struct {
	Reason     string    `json:"reason"`
	VideoID    uuid.UUID `json:"video_id"`
	RetryCount int       `json:"retry_count"`
	IssuedAt   time.Time `json:"issued_at"`
}

// InvalidationQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type InvalidationQueue interface {
	// PublishInvalidation sends a deferred invalidation task to the queue.
	PublishInvalidation(ctx context.Context, task InvalidationTask) error

	// ConsumeInvalidations blocks, calling handler for each received task,
	// until ctx is cancelled or the channel closes.
	ConsumeInvalidations(ctx context.Context, handler func(task InvalidationTask) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
