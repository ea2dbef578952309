// internal/core/ports/inspection_service.go
package ports

import (
	"context"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/google/uuid"
)

// InspectionService defines the application service port for inspections.
// This interface is implemented by the application service.
type InspectionService interface {
	// Load fetches the full inspection list. Failures are wrapped in
	// domain.ErrFetchFailed.
	Load(ctx context.Context) ([]domain.Inspection, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Inspection, error)
	Create(ctx context.Context, in domain.CreateInspectionInput) (*domain.Inspection, error)
	Refresh(ctx context.Context) error
}

// ListParams holds the search query and the requested page
type ListParams struct {
	Query string
	Page  int
}

// ListResult holds the derived list view and what happened to the page
// request
type ListResult struct {
	View       domain.ListView
	PageChange domain.PageChange
}
