// internal/handlers/inspections.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/handlers/middleware"
)

// InspectionHandler handles inspection API requests
type InspectionHandler struct {
	service ports.InspectionService
	logger  *slog.Logger
}

// NewInspectionHandler creates a new inspection handler
func NewInspectionHandler(service ports.InspectionService, logger *slog.Logger) *InspectionHandler {
	return &InspectionHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "inspection")),
	}
}

// ListResponse is one page of the inspection table
type ListResponse struct {
	Data       []domain.Inspection `json:"data"`
	Query      string              `json:"query"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalItems int                 `json:"total_items"`
	TotalPages int                 `json:"total_pages"`
}

// ListInspections handles GET /api/v1/keuringen?q=&page=
func (h *InspectionHandler) ListInspections(w http.ResponseWriter, r *http.Request) {
	params := h.parseListParams(r)

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to list inspections")
		return
	}

	view := result.View
	respondJSON(w, h.logger, http.StatusOK, ListResponse{
		Data:       view.Items(),
		Query:      view.Query(),
		Page:       view.Page(),
		PageSize:   domain.ItemsPerPage,
		TotalItems: view.TotalItems(),
		TotalPages: view.TotalPages(),
	})
}

// GetInspection handles GET /api/v1/keuringen/{id}
func (h *InspectionHandler) GetInspection(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_input", "Invalid inspection ID format")
		return
	}

	rec, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to retrieve inspection")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, rec)
}

// CreateInspection handles POST /api/v1/keuringen
func (h *InspectionHandler) CreateInspection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in domain.CreateInspectionInput
	if !decodeJSON(w, r, h.logger, &in) {
		return
	}

	if session, ok := middleware.SessionFromContext(ctx); ok {
		in.CreatedBy = session.UserID
	}

	rec, err := h.service.Create(ctx, in)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to create inspection")
		return
	}

	w.Header().Set("Location", "/api/v1/keuringen/"+rec.ID.String())
	respondJSON(w, h.logger, http.StatusCreated, rec)
}

// RefreshInspections handles POST /api/v1/keuringen/refresh
func (h *InspectionHandler) RefreshInspections(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to refresh inspections")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InspectionHandler) parseListParams(r *http.Request) ports.ListParams {
	q := r.URL.Query()
	params := ports.ListParams{Query: q.Get("q")}

	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			h.logger.DebugContext(r.Context(), "ignoring malformed page", slog.String("page", raw))
		} else {
			params.Page = page
		}
	}
	return params
}
