//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/keuringen-be/internal/adapters/db"
	redis_a "github.com/ammerola/keuringen-be/internal/adapters/redis_adapter"
	"github.com/ammerola/keuringen-be/internal/adapters/storage"
	"github.com/ammerola/keuringen-be/internal/core/services"
	"github.com/ammerola/keuringen-be/internal/handlers"
	"github.com/ammerola/keuringen-be/internal/handlers/middleware"
	"github.com/ammerola/keuringen-be/test/helpers"
)

const (
	userEmail    = "an@immonoord.be"
	userPassword = "geheim123"
)

// recordingQueue keeps enqueued tasks instead of sending them to a worker
type recordingQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (q *recordingQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func (q *recordingQueue) types() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.tasks))
	for i, t := range q.tasks {
		out[i] = t.Type()
	}
	return out
}

type KeuringenE2ESuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis
	queue     *recordingQueue
}

func (s *KeuringenE2ESuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())
	s.queue = &recordingQueue{}

	helpers.SeedUser(s.T(), s.testDB.PgxPool, userEmail, userPassword)

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *KeuringenE2ESuite) TearDownSuite() {
	s.server.Close()
}

func (s *KeuringenE2ESuite) TestCompleteInspectionWorkflow() {
	// 1. Sign in
	resp := s.makeRequest(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    userEmail,
		"password": userPassword,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var login map[string]interface{}
	s.decodeResponse(resp, &login)
	token, _ := login["access_token"].(string)
	s.Require().NotEmpty(token)
	s.Equal("Immo Noord", login["onderneming"])

	// 2. Create an inspection
	resp = s.makeRequest(http.MethodPost, "/keuringen", token, map[string]interface{}{
		"datum_toewijzing": "2024-03-04T09:30:00+01:00",
		"status":           "Nieuw",
		"type":             "EPC",
		"prijs":            "185.50",
		"straatnaam":       "Kerkstraat",
		"nummer":           "12",
		"postcode":         "9000",
		"gemeente":         "Gent",
		"voornaam":         "Jan",
		"familienaam":      "Peeters",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	s.decodeResponse(resp, &created)
	id, _ := created["id"].(string)
	s.Require().NotEmpty(id)
	s.Equal("Immo Noord", created["onderneming"])

	// 3. Retrieve it
	resp = s.makeRequest(http.MethodGet, "/keuringen/"+id, token, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// 4. List with a search; the create invalidated the cached list
	resp = s.makeRequest(http.MethodGet, "/keuringen?q=Peeters", token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var list map[string]interface{}
	s.decodeResponse(resp, &list)
	s.Equal(float64(1), list["total_items"])
	s.Equal(float64(1), list["page"])

	resp = s.makeRequest(http.MethodGet, "/keuringen?q=peeters", token, nil)
	s.decodeResponse(resp, &list)
	s.Equal(float64(0), list["total_items"], "search is case-sensitive")

	// 5. Request an export and read its status
	resp = s.makeRequest(http.MethodPost, "/export/excel", token, map[string]string{"query": "Peeters"})
	s.Require().Equal(http.StatusAccepted, resp.StatusCode)

	var accepted map[string]interface{}
	s.decodeResponse(resp, &accepted)
	statusURL, _ := accepted["status_url"].(string)
	s.Require().NotEmpty(statusURL)

	resp = s.makeRequest(http.MethodGet, statusURL[len("/api/v1"):], token, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var job map[string]interface{}
	s.decodeResponse(resp, &job)
	s.Equal("pending", job["status"])
	s.Contains(s.queue.types(), "export:inspections")

	// 6. Sign out; the token stops working
	resp = s.makeRequest(http.MethodPost, "/auth/logout", token, nil)
	s.Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest(http.MethodGet, "/auth/session", token, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func (s *KeuringenE2ESuite) TestRejectsBadCredentials() {
	resp := s.makeRequest(http.MethodPost, "/auth/login", "", map[string]string{
		"email":    userEmail,
		"password": "fout",
	})
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest(http.MethodGet, "/keuringen", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func (s *KeuringenE2ESuite) TestHealthCheck() {
	resp, err := s.client.Get(s.server.URL + "/health")
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	s.decodeResponse(resp, &health)
	s.Equal("healthy", health["status"])

	svcs := health["services"].(map[string]interface{})
	s.Contains(svcs, "database")
	s.Contains(svcs, "redis")
}

// Helper methods

type noQueues struct{}

func (noQueues) Queues() ([]string, error) { return nil, nil }
func (noQueues) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{}, nil
}
func (noQueues) Servers() ([]*asynq.ServerInfo, error) { return nil, nil }

func (s *KeuringenE2ESuite) startTestServer() *httptest.Server {
	logger := helpers.TestLogger()
	cfg := helpers.LoadTestConfig()

	cache := redis_a.NewCache(s.testRedis.Client, cfg.Redis.TTL, logger)
	fs, err := storage.NewLocalStorage(s.T().TempDir(), logger)
	s.Require().NoError(err)

	inspections := services.NewInspectionService(
		db.NewInspectionRepository(s.testDB.Database, logger), cache, cfg.Redis.ListTTL, logger)
	auth := services.NewAuthService(
		db.NewUserRepository(s.testDB.Database, logger),
		redis_a.NewSessionStore(cache, logger),
		s.queue,
		services.AuthConfig{
			JWTSecret:     cfg.Security.JWTSecret,
			SessionTTL:    cfg.Security.SessionTTL,
			ResetTokenTTL: cfg.Security.ResetTokenTTL,
			BcryptCost:    cfg.Security.BcryptCost,
		},
		logger,
	)
	exports := services.NewExportService(s.queue, cache, fs, cfg.Export.DownloadExpiry, time.Hour, logger)

	inspectionHandler := handlers.NewInspectionHandler(inspections, logger)
	authHandler := handlers.NewAuthHandler(auth, logger)
	exportHandler := handlers.NewExportHandler(exports, logger)
	healthHandler := handlers.NewHealthHandler(s.testDB.Database, s.testRedis.Client, noQueues{}, cfg, logger)

	bearer := middleware.RequireBearer(auth, logger)
	protected := func(h http.HandlerFunc) http.Handler { return bearer(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("POST /api/v1/auth/logout", protected(authHandler.Logout))
	mux.Handle("GET /api/v1/auth/session", protected(authHandler.Session))
	mux.Handle("GET /api/v1/keuringen", protected(inspectionHandler.ListInspections))
	mux.Handle("POST /api/v1/keuringen", protected(inspectionHandler.CreateInspection))
	mux.Handle("GET /api/v1/keuringen/{id}", protected(inspectionHandler.GetInspection))
	mux.Handle("POST /api/v1/export/excel", protected(exportHandler.ExportExcel))
	mux.Handle("GET /api/v1/export/status/{task_id}", protected(exportHandler.ExportStatus))

	return httptest.NewServer(middleware.Chain(mux,
		middleware.RealIP(nil),
		middleware.RequestID(""),
		middleware.Logger(logger),
		middleware.Recovery(logger),
	))
}

func (s *KeuringenE2ESuite) makeRequest(method, path, token string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.Require().NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)

	return resp
}

func (s *KeuringenE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.NoError(err)
}

func TestKeuringenE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(KeuringenE2ESuite))
}
