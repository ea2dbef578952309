// internal/handlers/export_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/handlers"
	"github.com/ammerola/keuringen-be/internal/handlers/middleware"
	"github.com/ammerola/keuringen-be/test/helpers"
	"github.com/ammerola/keuringen-be/test/mocks"
)

func TestExportHandler_ExportExcel(t *testing.T) {
	session := &domain.Session{UserID: uuid.New()}

	tests := []struct {
		name           string
		url            string
		body           string
		setupMocks     func(*mocks.MockExportService)
		expectedStatus int
	}{
		{
			name: "query_from_body",
			url:  "/api/v1/export/excel",
			body: `{"query":"Kerk"}`,
			setupMocks: func(m *mocks.MockExportService) {
				m.EXPECT().RequestExport(gomock.Any(), "Kerk", session.UserID).
					Return(&domain.ExportJob{ID: "job-1", Status: domain.ExportPending}, nil)
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name: "query_from_url",
			url:  "/api/v1/export/excel?q=Jan",
			setupMocks: func(m *mocks.MockExportService) {
				m.EXPECT().RequestExport(gomock.Any(), "Jan", session.UserID).
					Return(&domain.ExportJob{ID: "job-1", Status: domain.ExportPending}, nil)
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "malformed_body",
			url:            "/api/v1/export/excel",
			body:           `{"query":`,
			setupMocks:     func(m *mocks.MockExportService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "queue_failure",
			url:  "/api/v1/export/excel",
			setupMocks: func(m *mocks.MockExportService) {
				m.EXPECT().RequestExport(gomock.Any(), "", session.UserID).Return(nil, errors.New("redis down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			exports := mocks.NewMockExportService(ctrl)
			handler := handlers.NewExportHandler(exports, helpers.TestLogger())
			tt.setupMocks(exports)

			req := httptest.NewRequest(http.MethodPost, tt.url, bytes.NewBufferString(tt.body))
			req = req.WithContext(middleware.WithSession(req.Context(), session))
			w := httptest.NewRecorder()

			handler.ExportExcel(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusAccepted {
				return
			}
			var resp handlers.ExportAccepted
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "job-1", resp.TaskID)
			assert.Equal(t, "pending", resp.Status)
			assert.Equal(t, "/api/v1/export/status/job-1", w.Header().Get("Location"))
		})
	}
}

func TestExportHandler_ExportStatus(t *testing.T) {
	tests := []struct {
		name           string
		taskID         string
		job            *domain.ExportJob
		err            error
		expectedStatus int
	}{
		{
			name:           "completed",
			taskID:         "job-1",
			job:            &domain.ExportJob{ID: "job-1", Status: domain.ExportCompleted, DownloadURL: "https://s3/x"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown",
			taskID:         "gone",
			err:            domain.ErrExportNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			exports := mocks.NewMockExportService(ctrl)
			handler := handlers.NewExportHandler(exports, helpers.TestLogger())
			exports.EXPECT().Status(gomock.Any(), tt.taskID).Return(tt.job, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/export/status/"+tt.taskID, nil)
			req.SetPathValue("task_id", tt.taskID)
			w := httptest.NewRecorder()

			handler.ExportStatus(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.job != nil {
				var got domain.ExportJob
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, tt.job.DownloadURL, got.DownloadURL)
			}
		})
	}
}
