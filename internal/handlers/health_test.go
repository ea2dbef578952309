// internal/handlers/health_test.go
package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/keuringen-be/internal/handlers"
	"github.com/ammerola/keuringen-be/test/helpers"
)

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func (f *fakeDB) Health(context.Context) map[string]interface{} {
	return map[string]interface{}{"total_conns": 4}
}

type fakeInspector struct {
	err     error
	servers int
}

func (f *fakeInspector) Queues() ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{"default"}, nil
}

func (f *fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: queue, Size: 3, Pending: 2, Active: 1}, nil
}

func (f *fakeInspector) Servers() ([]*asynq.ServerInfo, error) {
	return make([]*asynq.ServerInfo, f.servers), nil
}

func TestHealthHandler_Health(t *testing.T) {
	cfg := helpers.LoadTestConfig()

	tests := []struct {
		name           string
		db             *fakeDB
		inspector      handlers.QueueInspector
		stopRedis      bool
		expectedStatus int
		expected       map[string]string
	}{
		{
			name:           "all_healthy",
			db:             &fakeDB{},
			inspector:      &fakeInspector{servers: 1},
			expectedStatus: http.StatusOK,
			expected:       map[string]string{"database": "healthy", "redis": "healthy", "asynq": "healthy"},
		},
		{
			name:           "without_inspector",
			db:             &fakeDB{},
			expectedStatus: http.StatusOK,
			expected:       map[string]string{"database": "healthy", "redis": "healthy"},
		},
		{
			name:           "database_down",
			db:             &fakeDB{pingErr: errors.New("connection refused")},
			expectedStatus: http.StatusServiceUnavailable,
			expected:       map[string]string{"database": "unhealthy", "redis": "healthy"},
		},
		{
			name:           "redis_down",
			db:             &fakeDB{},
			stopRedis:      true,
			expectedStatus: http.StatusServiceUnavailable,
			expected:       map[string]string{"database": "healthy", "redis": "unhealthy"},
		},
		{
			name:           "queue_inspection_fails",
			db:             &fakeDB{},
			inspector:      &fakeInspector{err: errors.New("no such key")},
			expectedStatus: http.StatusServiceUnavailable,
			expected:       map[string]string{"database": "healthy", "redis": "healthy", "asynq": "unhealthy"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rdb := helpers.SetupTestRedis(t)
			if tt.stopRedis {
				rdb.Server.Close()
			}

			handler := handlers.NewHealthHandler(tt.db, rdb.Client, tt.inspector, cfg, helpers.TestLogger())
			w := httptest.NewRecorder()

			handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))

			var resp handlers.HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, cfg.App.Version, resp.Version)
			require.Len(t, resp.Services, len(tt.expected))
			for name, status := range tt.expected {
				assert.Equal(t, status, resp.Services[name].Status, name)
			}
		})
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	cfg := helpers.LoadTestConfig()

	t.Run("ready", func(t *testing.T) {
		rdb := helpers.SetupTestRedis(t)
		handler := handlers.NewHealthHandler(&fakeDB{}, rdb.Client, nil, cfg, helpers.TestLogger())
		w := httptest.NewRecorder()

		handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ready":true,"details":{"database":"ready","redis":"ready"}}`, w.Body.String())
	})

	t.Run("database not ready", func(t *testing.T) {
		rdb := helpers.SetupTestRedis(t)
		handler := handlers.NewHealthHandler(&fakeDB{pingErr: errors.New("timeout")}, rdb.Client, nil, cfg, helpers.TestLogger())
		w := httptest.NewRecorder()

		handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"ready":false,"details":{"database":"not ready","redis":"ready"}}`, w.Body.String())
	})
}
