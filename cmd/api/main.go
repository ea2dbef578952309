// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/keuringen-be/internal/adapters/db"
	redis_a "github.com/ammerola/keuringen-be/internal/adapters/redis_adapter"
	"github.com/ammerola/keuringen-be/internal/adapters/storage"
	"github.com/ammerola/keuringen-be/internal/core/ports"
	"github.com/ammerola/keuringen-be/internal/core/services"
	"github.com/ammerola/keuringen-be/internal/handlers"
	"github.com/ammerola/keuringen-be/internal/handlers/middleware"
	"github.com/ammerola/keuringen-be/internal/pkg/config"
	"github.com/ammerola/keuringen-be/internal/pkg/logger"
	"github.com/ammerola/keuringen-be/internal/web"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// exportStatusTTL is how long the status of an export stays readable
const exportStatusTTL = 24 * time.Hour

func main() {
	slogger := logger.SetupLogger("info", "json")
	slogger.Info("starting keuringen dashboard",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
		slog.String("timezone", cfg.UI.Timezone),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if cfg.Database.RunMigrations {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	go deps.rateLimiter.Run(ctx, time.Minute)
	go deps.loginLimiter.Run(ctx, time.Minute)

	server := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        buildHandler(cfg, deps, slogger),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case <-ctx.Done():
		slogger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}
		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	authService    *services.AuthService
	rateLimiter    *middleware.RateLimiter
	loginLimiter   *middleware.RateLimiter
	trustedProxies []netip.Prefix

	inspectionHandler *handlers.InspectionHandler
	authHandler       *handlers.AuthHandler
	exportHandler     *handlers.ExportHandler
	healthHandler     *handlers.HealthHandler
	dashboard         *web.Dashboard
}

func (d *dependencies) cleanup() {
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)
	database, err := db.NewDatabase(ctx, databaseConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	redisClient := redis.NewClient(&redis.Options{
		Addr:            cfg.GetRedisAddress(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		database.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient

	asynqOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqOpt)
	deps.asynqInspector = asynq.NewInspector(asynqOpt)

	fileStorage, err := newFileStorage(ctx, cfg, logger)
	if err != nil {
		deps.cleanup()
		return nil, err
	}

	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)

	inspectionService := services.NewInspectionService(
		db.NewInspectionRepository(database, logger), cache, cfg.Redis.ListTTL, logger)
	deps.authService = services.NewAuthService(
		db.NewUserRepository(database, logger),
		redis_a.NewSessionStore(cache, logger),
		deps.asynqClient,
		services.AuthConfig{
			JWTSecret:     cfg.Security.JWTSecret,
			Issuer:        cfg.App.Name,
			SessionTTL:    cfg.Security.SessionTTL,
			ResetTokenTTL: cfg.Security.ResetTokenTTL,
			BcryptCost:    cfg.Security.BcryptCost,
		},
		logger,
	)
	exportService := services.NewExportService(deps.asynqClient, cache, fileStorage,
		cfg.Export.DownloadExpiry, exportStatusTTL, logger)

	deps.trustedProxies, err = middleware.ParseTrustedProxies(cfg.Security.TrustedProxies)
	if err != nil {
		deps.cleanup()
		return nil, err
	}
	deps.rateLimiter = middleware.NewRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)
	deps.loginLimiter = middleware.NewRateLimiter(cfg.Security.LoginRateLimit, time.Minute)

	deps.inspectionHandler = handlers.NewInspectionHandler(inspectionService, logger)
	deps.authHandler = handlers.NewAuthHandler(deps.authService, logger)
	deps.exportHandler = handlers.NewExportHandler(exportService, logger)
	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, logger)

	store := web.NewCookieStore(cfg.Security.SessionKey, cfg.Security.CookieSecure, int(cfg.Security.SessionTTL.Seconds()))
	deps.dashboard, err = web.NewDashboard(deps.authService, inspectionService, exportService, store, web.Options{
		Location:       cfg.UI.Location,
		SurfaceErrors:  cfg.UI.SurfaceErrors,
		BaseURL:        cfg.UI.BaseURL,
		CSRFKey:        cfg.Security.CSRFKey,
		CookieSecure:   cfg.Security.CookieSecure,
		TrustedOrigins: cfg.Security.AllowedOrigins,
		LoginLimiter:   deps.loginLimiter,
	}, logger)
	if err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to load dashboard templates: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func buildHandler(cfg *config.Config, deps *dependencies, logger *slog.Logger) http.Handler {
	root := http.NewServeMux()

	root.HandleFunc("GET /health", deps.healthHandler.Health)
	root.HandleFunc("GET /ready", deps.healthHandler.Readiness)
	root.Handle("/api/", middleware.CORS(cfg.Security.AllowedOrigins)(apiRoutes(deps, logger)))
	root.Handle("/", deps.dashboard.Handler())

	mws := []middleware.Middleware{
		middleware.RealIP(deps.trustedProxies),
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Logger(logger),
		middleware.Recovery(logger),
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	if cfg.Security.RateLimitRequests > 0 {
		mws = append(mws, deps.rateLimiter.Middleware)
	}
	if cfg.Server.RequestTimeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))
	}

	return middleware.Chain(root, mws...)
}

func apiRoutes(deps *dependencies, logger *slog.Logger) http.Handler {
	const apiV1 = "/api/v1"
	mux := http.NewServeMux()
	bearer := middleware.RequireBearer(deps.authService, logger)
	protected := func(h http.HandlerFunc) http.Handler { return bearer(h) }

	mux.HandleFunc("GET "+apiV1+"/health", deps.healthHandler.Health)

	mux.Handle("POST "+apiV1+"/auth/login", deps.loginLimiter.Middleware(http.HandlerFunc(deps.authHandler.Login)))
	mux.Handle("POST "+apiV1+"/auth/logout", protected(deps.authHandler.Logout))
	mux.Handle("GET "+apiV1+"/auth/session", protected(deps.authHandler.Session))

	mux.Handle("GET "+apiV1+"/keuringen", protected(deps.inspectionHandler.ListInspections))
	mux.Handle("POST "+apiV1+"/keuringen", protected(deps.inspectionHandler.CreateInspection))
	mux.Handle("POST "+apiV1+"/keuringen/refresh", protected(deps.inspectionHandler.RefreshInspections))
	mux.Handle("GET "+apiV1+"/keuringen/{id}", protected(deps.inspectionHandler.GetInspection))

	mux.Handle("POST "+apiV1+"/export/excel", protected(deps.exportHandler.ExportExcel))
	mux.Handle("GET "+apiV1+"/export/status/{task_id}", protected(deps.exportHandler.ExportStatus))

	return mux
}

func databaseConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

// newFileStorage stores exports on disk when EXPORT_LOCAL_DIR is set and
// in S3 otherwise
func newFileStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.FileStorage, error) {
	if cfg.Export.LocalDir != "" {
		return storage.NewLocalStorage(cfg.Export.LocalDir, logger)
	}
	s3, err := storage.NewS3Storage(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
	}
	return s3, nil
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}
