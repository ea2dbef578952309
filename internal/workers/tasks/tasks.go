// internal/workers/tasks/tasks.go

// Package tasks defines the asynq task types shared by the API (enqueue
// side) and the worker (processing side).
package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeExportInspections = "export:inspections"
	TypeSendEmail         = "email:send"
	TypeRefreshCache      = "cache:refresh"
	TypeCleanupExports    = "cleanup:exports"
)

// Queue names
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// ExportPayload requests an Excel export of the inspections matching Query
type ExportPayload struct {
	Query       string    `json:"query"`
	RequestedBy uuid.UUID `json:"requested_by"`
	RequestedAt time.Time `json:"requested_at"`
}

// EmailPayload is a plain text mail
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewExportTask builds an export task. The task id doubles as the export
// status key.
func NewExportTask(p ExportPayload, taskID string) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}
	return asynq.NewTask(TypeExportInspections, b,
		asynq.TaskID(taskID),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(24*time.Hour),
	), nil
}

// NewEmailTask builds a mail task
func NewEmailTask(p EmailPayload) (*asynq.Task, error) {
	if p.To == "" {
		return nil, fmt.Errorf("email task needs a recipient")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal email payload: %w", err)
	}
	return asynq.NewTask(TypeSendEmail, b,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

// NewRefreshCacheTask builds a listing cache refresh task
func NewRefreshCacheTask() *asynq.Task {
	return asynq.NewTask(TypeRefreshCache, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}

// NewCleanupExportsTask builds the periodic export cleanup task
func NewCleanupExportsTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupExports, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}
