// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ammerola/keuringen-be/internal/adapters/db"
	"github.com/ammerola/keuringen-be/internal/core/domain"
	"github.com/ammerola/keuringen-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// SetupTestDB creates a PostgreSQL container with the embedded migrations
// applied
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_keuringen",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := db.DefaultConfig()
	dbConfig.Port = resource.GetPort("5432/tcp")
	dbConfig.User = "test"
	dbConfig.Password = "test"
	dbConfig.Database = "test_keuringen"
	dbConfig.MaxConnections = 5
	dbConfig.MinConnections = 1
	dbConfig.EnableQueryLogging = testing.Verbose()

	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	err = db.RunMigrationsWithRetry(context.Background(), &db.MigrationConfig{
		DatabaseURL: dbConfig.URL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-memory Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// SetupMockDB creates a mock database for unit testing
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")

	t.Cleanup(func() {
		db.Close()
	})

	return mock, db
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	loc, err := time.LoadLocation("Europe/Brussels")
	if err != nil {
		loc = time.UTC
	}

	return &config.Config{
		App: config.AppConfig{
			Name:        "keuringen-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "test",
			Password:       "test",
			Name:           "test_keuringen",
			SSLMode:        "disable",
			MaxConnections: 10,
			MinConnections: 2,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			TTL:      time.Hour,
			ListTTL:  30 * time.Second,
			PoolSize: 10,
		},
		Export: config.ExportConfig{
			KeyPrefix:      "exports/",
			Retention:      7 * 24 * time.Hour,
			DownloadExpiry: 15 * time.Minute,
		},
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret-that-is-long-enough-for-hs256",
			SessionTTL:        time.Hour,
			ResetTokenTTL:     30 * time.Minute,
			BcryptCost:        bcrypt.MinCost,
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			LoginRateLimit:    10,
			AllowedOrigins:    []string{"*"},
			CSRFKey:           "0123456789abcdef0123456789abcdef",
			SessionKey:        "fedcba9876543210fedcba9876543210",
			RequestIDHeader:   "X-Request-ID",
		},
		UI: config.UIConfig{
			Timezone: loc.String(),
			Location: loc,
			BaseURL:  "http://localhost:8080",
		},
		Server: config.ServerConfig{
			Host:           "localhost",
			Port:           "8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
	}
}

// CreateTestInput returns a valid new-inspection form input
func CreateTestInput(overrides ...func(*domain.CreateInspectionInput)) domain.CreateInspectionInput {
	price := decimal.NewFromFloat(185.50)
	in := domain.CreateInspectionInput{
		AssignedAt:   time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		Status:       domain.StatusNew,
		Type:         domain.TypeEPC,
		Price:        &price,
		Street:       "Kerkstraat",
		Number:       "12",
		PostalCode:   "9000",
		Municipality: "Gent",
		FirstName:    "Jan",
		LastName:     "Peeters",
		Email:        "jan.peeters@example.be",
		Phone:        "0470 12 34 56",
	}

	for _, override := range overrides {
		override(&in)
	}

	return in
}

// CreateTestInspection returns an inspection record for listing tests
func CreateTestInspection(overrides ...func(*domain.Inspection)) domain.Inspection {
	rec := domain.Inspection{
		ID:         uuid.New(),
		AssignedAt: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		Status:     domain.StatusNew,
		Type:       domain.TypeEPC,
		Address: domain.Address{
			ID:           uuid.New(),
			Street:       "Kerkstraat",
			Number:       "12",
			PostalCode:   "9000",
			Municipality: "Gent",
			Client: domain.Client{
				ID:        uuid.New(),
				FirstName: "Jan",
				LastName:  "Peeters",
				Email:     "jan.peeters@example.be",
			},
		},
		CompanyName: "Immo Noord",
	}

	for _, override := range overrides {
		override(&rec)
	}

	return rec
}

// CreateTestInspections returns n inspections with clients Klant1..Klantn
// on streets "Straat 1".."Straat n"
func CreateTestInspections(n int) []domain.Inspection {
	out := make([]domain.Inspection, n)
	for i := range out {
		out[i] = CreateTestInspection(func(rec *domain.Inspection) {
			rec.Address.Client.FirstName = fmt.Sprintf("Klant%d", i+1)
			rec.Address.Client.LastName = "Test"
			rec.Address.Street = fmt.Sprintf("Straat %d", i+1)
			rec.AssignedAt = rec.AssignedAt.Add(-time.Duration(i) * time.Hour)
		})
	}
	return out
}

// SeedUser inserts a company and a user with the given password and
// returns the stored user
func SeedUser(t *testing.T, pool *pgxpool.Pool, email, password string) *domain.User {
	t.Helper()

	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{Email: email, CompanyName: "Immo Noord", PasswordHash: string(hash)}
	err = pool.QueryRow(ctx, `INSERT INTO onderneming (naam) VALUES ($1) RETURNING id`, user.CompanyName).
		Scan(&user.CompanyID)
	require.NoError(t, err, "Failed to seed company")

	err = pool.QueryRow(ctx,
		`INSERT INTO gebruiker (email, password_hash, onderneming_id) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		email, user.PasswordHash, user.CompanyID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	require.NoError(t, err, "Failed to seed user")

	return user
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE keuring, adres, klant, gebruiker, onderneming CASCADE")
	require.NoError(t, err, "Failed to truncate tables")
}
