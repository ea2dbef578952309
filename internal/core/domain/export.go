// internal/core/domain/export.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExportStatus is the state of an Excel export job
type ExportStatus string

const (
	ExportPending    ExportStatus = "pending"
	ExportProcessing ExportStatus = "processing"
	ExportCompleted  ExportStatus = "completed"
	ExportFailed     ExportStatus = "failed"
)

// ExportJob tracks one requested export. The worker writes it, the API
// reads it back for the status endpoint.
type ExportJob struct {
	ID          string       `json:"id"`
	Status      ExportStatus `json:"status"`
	Query       string       `json:"query"`
	Rows        int          `json:"rows"`
	Key         string       `json:"key,omitempty"`
	DownloadURL string       `json:"download_url,omitempty"`
	Error       string       `json:"error,omitempty"`
	RequestedBy uuid.UUID    `json:"requested_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Done reports whether the job reached a final state
func (j *ExportJob) Done() bool {
	return j.Status == ExportCompleted || j.Status == ExportFailed
}
