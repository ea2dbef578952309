// internal/core/ports/export_service.go
package ports

import (
	"context"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/google/uuid"
)

// ExportService queues Excel exports and reports their progress
type ExportService interface {
	RequestExport(ctx context.Context, query string, requestedBy uuid.UUID) (*domain.ExportJob, error)
	// Status returns domain.ErrExportNotFound once the job status expired
	Status(ctx context.Context, jobID string) (*domain.ExportJob, error)
}
