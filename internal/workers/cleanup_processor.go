// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/keuringen-be/internal/core/ports"
)

// deleteBatchSize is the S3 DeleteObjects limit
const deleteBatchSize = 1000

// CleanupProcessor handles export retention and cache maintenance
type CleanupProcessor struct {
	storage     ports.FileStorage
	inspections ports.InspectionService
	prefix      string
	retention   time.Duration
	logger      *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(fs ports.FileStorage, inspections ports.InspectionService, prefix string, retention time.Duration, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		storage:     fs,
		inspections: inspections,
		prefix:      prefix,
		retention:   retention,
		logger:      logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupExports removes export files older than the retention period
func (p *CleanupProcessor) CleanupExports(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up old exports",
		slog.String("prefix", p.prefix),
		slog.Duration("retention", p.retention))

	objects, err := p.storage.List(ctx, p.prefix)
	if err != nil {
		return fmt.Errorf("failed to list exports: %w", err)
	}

	cutoff := time.Now().Add(-p.retention)
	var stale []string
	for _, obj := range objects {
		if obj.LastModified.Before(cutoff) {
			stale = append(stale, obj.Key)
		}
	}

	for start := 0; start < len(stale); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(stale))
		if err := p.storage.DeleteMultiple(ctx, stale[start:end]); err != nil {
			return fmt.Errorf("failed to delete exports: %w", err)
		}
	}

	p.logger.InfoContext(ctx, "old exports cleaned up",
		slog.Int("files_checked", len(objects)),
		slog.Int("files_deleted", len(stale)))

	return nil
}

// RefreshCache drops the cached inspection list and loads it again
func (p *CleanupProcessor) RefreshCache(ctx context.Context, t *asynq.Task) error {
	if err := p.inspections.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	records, err := p.inspections.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm cache: %w", err)
	}

	p.logger.InfoContext(ctx, "inspection cache refreshed", slog.Int("records", len(records)))
	return nil
}
