// internal/core/ports/tasks.go
package ports

import (
	"context"
	"io"
	"time"

	"github.com/hibiken/asynq"
)

// TaskQueue is the enqueue side of the background worker. *asynq.Client
// satisfies it.
type TaskQueue interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// StoredObject describes a file in export storage
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// FileStorage stores generated export files
type FileStorage interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
	List(ctx context.Context, prefix string) ([]StoredObject, error)
	DeleteMultiple(ctx context.Context, keys []string) error
}
