// internal/core/services/inspection.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/google/uuid"
)

const (
	// ListCacheKey holds the cached inspection list
	ListCacheKey = "keur:list"
	// ListCachePattern matches every inspection cache entry
	ListCachePattern = "keur:*"
)

// InspectionService handles inspection business logic
type InspectionService struct {
	repo     ports.InspectionRepository
	cache    ports.CacheRepository
	cacheTTL time.Duration
	logger   *slog.Logger
}

// Statically assert that *InspectionService implements the InspectionService interface.
var _ ports.InspectionService = (*InspectionService)(nil)

// NewInspectionService creates a new inspection service. A nil cache
// disables list caching.
func NewInspectionService(repo ports.InspectionRepository, cache ports.CacheRepository, cacheTTL time.Duration, logger *slog.Logger) *InspectionService {
	return &InspectionService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With(slog.String("service", "inspection")),
	}
}

// Load fetches every inspection, newest assignment first
func (s *InspectionService) Load(ctx context.Context) ([]domain.Inspection, error) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return s.fetch(ctx)
	}

	var records []domain.Inspection
	err := s.cache.GetOrSet(ctx, ListCacheKey, &records, func() (interface{}, error) {
		return s.fetch(ctx)
	}, s.cacheTTL)
	if err != nil {
		if errors.Is(err, domain.ErrFetchFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	return records, nil
}

func (s *InspectionService) fetch(ctx context.Context) ([]domain.Inspection, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch inspections",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}
	if records == nil {
		records = []domain.Inspection{}
	}

	s.logger.DebugContext(ctx, "fetched inspections", slog.Int("count", len(records)))
	return records, nil
}

// List loads the inspections and derives the list view for a query and
// page. A page of 0 means "first page"; out of range pages are ignored and
// the view stays on page 1.
func (s *InspectionService) List(ctx context.Context, params ports.ListParams) (*ports.ListResult, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	view := domain.NewListView(records, params.Query)
	change := domain.PageChanged
	if params.Page > 0 {
		view, change = view.GoTo(params.Page)
	}

	if change == domain.PageChangeIgnored {
		s.logger.DebugContext(ctx, "page request ignored",
			slog.Int("page", params.Page),
			slog.Int("total_pages", view.TotalPages()))
	}

	return &ports.ListResult{View: view, PageChange: change}, nil
}

// GetByID retrieves a single inspection
func (s *InspectionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Inspection, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}

	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get inspection: %w", err)
	}
	return rec, nil
}

// Create validates and stores a new inspection, then drops the list cache
// so the dashboard shows it on the next load
func (s *InspectionService) Create(ctx context.Context, in domain.CreateInspectionInput) (*domain.Inspection, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	rec, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create inspection: %w", err)
	}

	if err := s.invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate inspection cache",
			slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "created inspection",
		slog.String("inspection_id", rec.ID.String()),
		slog.String("type", string(rec.Type)),
		slog.String("status", string(rec.Status)))

	return rec, nil
}

// Refresh drops the cached list so the next Load hits the database
func (s *InspectionService) Refresh(ctx context.Context) error {
	if err := s.invalidate(ctx); err != nil {
		return fmt.Errorf("failed to refresh inspections: %w", err)
	}
	s.logger.InfoContext(ctx, "inspection cache refreshed")
	return nil
}

func (s *InspectionService) invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeletePattern(ctx, ListCachePattern)
}
