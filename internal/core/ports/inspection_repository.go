// internal/core/ports/inspection_repository.go
package ports

import (
	"context"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/google/uuid"
)

// InspectionRepository defines the persistence port for inspections.
// This interface is implemented by the database adapter.
type InspectionRepository interface {
	// List returns every inspection with its address, client and company
	// joined in, newest assignment first.
	List(ctx context.Context) ([]domain.Inspection, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Inspection, error)
	Create(ctx context.Context, in domain.CreateInspectionInput) (*domain.Inspection, error)
	Count(ctx context.Context) (int64, error)
}

// UserRepository defines the persistence port for dashboard accounts
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}
