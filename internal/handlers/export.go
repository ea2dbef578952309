// internal/handlers/export.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/handlers/middleware"
)

// ExportHandler queues Excel exports and reports their status
type ExportHandler struct {
	exports ports.ExportService
	logger  *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(exports ports.ExportService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		exports: exports,
		logger:  logger.With(slog.String("handler", "export")),
	}
}

// ExportRequest is the optional body of POST /api/v1/export/excel
type ExportRequest struct {
	Query string `json:"query"`
}

// ExportAccepted is returned once the export is queued
type ExportAccepted struct {
	TaskID    string `json:"task_id"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
}

// ExportExcel handles POST /api/v1/export/excel. The query comes from the
// body or, when there is none, from ?q=.
func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := ExportRequest{Query: r.URL.Query().Get("q")}
	if r.ContentLength > 0 {
		if !decodeJSON(w, r, h.logger, &req) {
			return
		}
	}

	var userID uuid.UUID
	if session, ok := middleware.SessionFromContext(ctx); ok {
		userID = session.UserID
	}

	job, err := h.exports.RequestExport(ctx, req.Query, userID)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to queue export")
		return
	}

	statusURL := "/api/v1/export/status/" + job.ID
	w.Header().Set("Location", statusURL)
	respondJSON(w, h.logger, http.StatusAccepted, ExportAccepted{
		TaskID:    job.ID,
		Status:    string(job.Status),
		StatusURL: statusURL,
	})
}

// ExportStatus handles GET /api/v1/export/status/{task_id}
func (h *ExportHandler) ExportStatus(w http.ResponseWriter, r *http.Request) {
	job, err := h.exports.Status(r.Context(), r.PathValue("task_id"))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "Failed to get export status")
		return
	}
	respondJSON(w, h.logger, http.StatusOK, job)
}
