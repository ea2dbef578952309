// internal/core/services/export.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/workers/tasks"
)

// ExportStatusKey is the cache key holding the ExportJob for jobID
func ExportStatusKey(jobID string) string {
	return "export:" + jobID
}

// ExportService enqueues export tasks for the worker and reads back the
// status the worker writes
type ExportService struct {
	queue          ports.TaskQueue
	cache          ports.CacheRepository
	storage        ports.FileStorage
	downloadExpiry time.Duration
	statusTTL      time.Duration
	logger         *slog.Logger
}

var _ ports.ExportService = (*ExportService)(nil)

// NewExportService creates a new export service
func NewExportService(queue ports.TaskQueue, cache ports.CacheRepository, fs ports.FileStorage, downloadExpiry, statusTTL time.Duration, logger *slog.Logger) *ExportService {
	if downloadExpiry <= 0 {
		downloadExpiry = time.Hour
	}
	if statusTTL <= 0 {
		statusTTL = 24 * time.Hour
	}
	return &ExportService{
		queue:          queue,
		cache:          cache,
		storage:        fs,
		downloadExpiry: downloadExpiry,
		statusTTL:      statusTTL,
		logger:         logger.With(slog.String("service", "export")),
	}
}

// RequestExport queues an export of the inspections matching query
func (s *ExportService) RequestExport(ctx context.Context, query string, requestedBy uuid.UUID) (*domain.ExportJob, error) {
	now := time.Now()
	job := &domain.ExportJob{
		ID:          uuid.NewString(),
		Status:      domain.ExportPending,
		Query:       query,
		RequestedBy: requestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	task, err := tasks.NewExportTask(tasks.ExportPayload{
		Query:       query,
		RequestedBy: requestedBy,
		RequestedAt: now,
	}, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create export task: %w", err)
	}

	info, err := s.queue.EnqueueContext(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue export: %w", err)
	}

	// The worker may already have picked the task up; only write pending
	// when no status exists yet.
	if _, err := s.cache.SetNX(ctx, ExportStatusKey(job.ID), job, s.statusTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to store export status",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "export queued",
		slog.String("job_id", job.ID),
		slog.String("queue", info.Queue),
		slog.String("query", query))

	return job, nil
}

// Status returns the current state of a job. Completed jobs get a fresh
// presigned download link.
func (s *ExportService) Status(ctx context.Context, jobID string) (*domain.ExportJob, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: task id is required", domain.ErrInvalidInput)
	}

	var job domain.ExportJob
	if err := s.cache.Get(ctx, ExportStatusKey(jobID), &job); err != nil {
		if errors.Is(err, ports.ErrCacheMiss) {
			return nil, domain.ErrExportNotFound
		}
		return nil, fmt.Errorf("failed to read export status: %w", err)
	}

	if job.Status == domain.ExportCompleted && job.Key != "" {
		url, err := s.storage.GetPresignedURL(ctx, job.Key, s.downloadExpiry)
		if err != nil {
			return nil, fmt.Errorf("failed to sign download url: %w", err)
		}
		job.DownloadURL = url
	}

	return &job, nil
}
