// internal/pkg/config/config.go
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequiredConfig marks a required setting that is empty or still
// carries a MISSING_ placeholder
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Asynq    AsynqConfig
	AWS      AWSConfig
	Export   ExportConfig
	Mail     MailConfig
	Security SecurityConfig
	UI       UIConfig
	Server   ServerConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `required:"true"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string `required:"true"`
	User               string `required:"true"`
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
	RunMigrations      bool
	// MigrationPath points at a migrations directory on disk. Empty means
	// the migrations embedded in the binary.
	MigrationPath string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host            string `required:"true"`
	Port            string `required:"true"`
	Password        string
	DB              int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	TTL             time.Duration
	// ListTTL bounds how stale the cached inspection list may get
	ListTTL time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
	CleanupSchedule string
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
	SecretName      string // Secrets Manager entry, empty disables it
}

// ExportConfig holds Excel export settings
type ExportConfig struct {
	KeyPrefix      string
	Retention      time.Duration
	DownloadExpiry time.Duration
	// LocalDir stores exports on disk instead of S3 when set
	LocalDir string
}

// MailConfig holds the SMTP relay used for password reset mails. An empty
// SMTPHost only logs the mail.
type MailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	From         string
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	JWTSecret         string
	SessionTTL        time.Duration
	ResetTokenTTL     time.Duration
	BcryptCost        int
	RateLimitRequests int
	RateLimitDuration time.Duration
	LoginRateLimit    int // sign-in attempts per minute per client IP
	AllowedOrigins    []string
	TrustedProxies    []string // proxies whose X-Forwarded-For is honoured
	SecureHeaders     bool
	CSRFKey           string
	SessionKey        string // gorilla/sessions cookie hash key
	CookieSecure      bool
	RequestIDHeader   string
}

// UIConfig holds dashboard presentation settings
type UIConfig struct {
	Timezone string
	Location *time.Location
	// SurfaceErrors shows sign-in and fetch failures to the user. Off by
	// default: failures are only logged.
	SurfaceErrors bool
	BaseURL       string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
	RequestTimeout  time.Duration
}

// Load loads configuration from environment variables, an optional config
// file (CONFIG_FILE) and, in development, a .env file
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Debug("no .env file found, using environment variables")
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
		logger.Info("config file loaded", slog.String("file", file))
	}

	l := loader{v: v}
	redisHost := l.getEnv("REDIS_HOST", "localhost")
	redisPort := l.getEnv("REDIS_PORT", "6379")

	cfg := &Config{
		App: AppConfig{
			Name:        l.getEnv("APP_NAME", "keuringen-api"),
			Environment: env,
			Version:     l.getEnv("APP_VERSION", "dev"),
			LogLevel:    l.getEnv("LOG_LEVEL", "info"),
			LogFormat:   l.getEnv("LOG_FORMAT", "json"),
			Debug:       l.getBoolEnv("APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Host:               l.getEnv("DB_HOST", "localhost"),
			Port:               l.getEnv("DB_PORT", "5432"),
			User:               l.getEnv("DB_USER", "keuringen"),
			Password:           l.getEnv("DB_PASSWORD", "keuringen_dev"),
			Name:               l.getEnv("DB_NAME", "keuringen"),
			SSLMode:            l.getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(l.getIntEnv("DB_MAX_CONNECTIONS", 25)),
			MinConnections:     int32(l.getIntEnv("DB_MIN_CONNECTIONS", 2)),
			MaxConnLifetime:    l.getDurationEnv("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    l.getDurationEnv("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  l.getDurationEnv("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     l.getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
			StatementCacheMode: l.getEnv("DB_STATEMENT_CACHE_MODE", "describe"),
			EnableQueryLogging: l.getBoolEnv("DB_QUERY_LOGGING", false),
			RunMigrations:      l.getBoolEnv("DB_RUN_MIGRATIONS", env != "production"),
			MigrationPath:      l.getEnv("DB_MIGRATION_PATH", ""),
		},
		Redis: RedisConfig{
			Host:            redisHost,
			Port:            redisPort,
			Password:        l.getEnv("REDIS_PASSWORD", ""),
			DB:              l.getIntEnv("REDIS_DB", 0),
			MaxRetries:      l.getIntEnv("REDIS_MAX_RETRIES", 3),
			MinRetryBackoff: l.getDurationEnv("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
			MaxRetryBackoff: l.getDurationEnv("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
			DialTimeout:     l.getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:     l.getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:    l.getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:        l.getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns:    l.getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			PoolTimeout:     l.getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			TTL:             l.getDurationEnv("REDIS_TTL", time.Hour),
			ListTTL:         l.getDurationEnv("REDIS_LIST_TTL", 30*time.Second),
		},
		Asynq: AsynqConfig{
			RedisAddr:       net.JoinHostPort(redisHost, redisPort),
			RedisPassword:   l.getEnv("REDIS_PASSWORD", ""),
			RedisDB:         l.getIntEnv("ASYNQ_REDIS_DB", 1),
			Concurrency:     l.getIntEnv("ASYNQ_CONCURRENCY", 5),
			Queues:          parseQueues(l.getEnv("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:  l.getBoolEnv("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:        l.getIntEnv("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout: l.getDurationEnv("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
			CleanupSchedule: l.getEnv("ASYNQ_CLEANUP_SCHEDULE", "@daily"),
		},
		AWS: AWSConfig{
			Region:          l.getEnv("AWS_REGION", "eu-west-1"),
			AccessKeyID:     l.getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: l.getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        l.getEnv("AWS_S3_BUCKET", "keuringen-exports"),
			S3Endpoint:      l.getEnv("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    l.getBoolEnv("AWS_S3_PATH_STYLE", env == "development"),
			SecretName:      l.getEnv("AWS_SECRET_NAME", ""),
		},
		Export: ExportConfig{
			KeyPrefix:      l.getEnv("EXPORT_KEY_PREFIX", "exports/"),
			Retention:      l.getDurationEnv("EXPORT_RETENTION", 7*24*time.Hour),
			DownloadExpiry: l.getDurationEnv("EXPORT_DOWNLOAD_EXPIRY", 15*time.Minute),
			LocalDir:       l.getEnv("EXPORT_LOCAL_DIR", ""),
		},
		Mail: MailConfig{
			SMTPHost:     l.getEnv("SMTP_HOST", ""),
			SMTPPort:     l.getEnv("SMTP_PORT", "587"),
			SMTPUser:     l.getEnv("SMTP_USER", ""),
			SMTPPassword: l.getEnv("SMTP_PASSWORD", ""),
			From:         l.getEnv("MAIL_FROM", "noreply@keuringen.be"),
		},
		Security: SecurityConfig{
			JWTSecret:         l.getEnv("JWT_SECRET", generateDefaultSecret(env)),
			SessionTTL:        l.getDurationEnv("SESSION_TTL", 12*time.Hour),
			ResetTokenTTL:     l.getDurationEnv("RESET_TOKEN_TTL", 30*time.Minute),
			BcryptCost:        l.getIntEnv("BCRYPT_COST", 12),
			RateLimitRequests: l.getIntEnv("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: l.getDurationEnv("RATE_LIMIT_DURATION", time.Minute),
			LoginRateLimit:    l.getIntEnv("LOGIN_RATE_LIMIT", 10),
			AllowedOrigins:    l.getSliceEnv("ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies:    l.getSliceEnv("TRUSTED_PROXIES", nil),
			SecureHeaders:     l.getBoolEnv("SECURE_HEADERS", env == "production"),
			CSRFKey:           l.getEnv("CSRF_KEY", generateDefaultSecret(env)),
			SessionKey:        l.getEnv("SESSION_KEY", generateDefaultSecret(env)),
			CookieSecure:      l.getBoolEnv("COOKIE_SECURE", env == "production"),
			RequestIDHeader:   l.getEnv("REQUEST_ID_HEADER", "X-Request-ID"),
		},
		UI: UIConfig{
			Timezone:      l.getEnv("UI_TIMEZONE", "Europe/Brussels"),
			SurfaceErrors: l.getBoolEnv("UI_SURFACE_ERRORS", false),
			BaseURL:       l.getEnv("UI_BASE_URL", "http://localhost:8080"),
		},
		Server: ServerConfig{
			Host:            l.getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            l.getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     l.getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    l.getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     l.getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:  l.getIntEnv("SERVER_MAX_HEADER_BYTES", 1<<20),
			GracefulTimeout: l.getDurationEnv("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
			RequestTimeout:  l.getDurationEnv("SERVER_REQUEST_TIMEOUT", 10*time.Second),
		},
	}

	loc, err := time.LoadLocation(cfg.UI.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid UI_TIMEZONE %q: %w", cfg.UI.Timezone, err)
	}
	cfg.UI.Location = loc

	if cfg.AWS.SecretName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		sm, err := NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.AWS.SecretName, logger)
		if err != nil {
			return nil, err
		}
		if err := ApplySecrets(ctx, cfg, sm); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate runs the validators that apply to the environment
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{}, &SecurityValidator{})
	}

	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		net.JoinHostPort(c.Database.Host, c.Database.Port),
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// GetRedisAddress returns host:port of the cache instance
func (c *Config) GetRedisAddress() string {
	return net.JoinHostPort(c.Redis.Host, c.Redis.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// loader reads settings through viper so both the environment and an
// optional config file can provide them
type loader struct {
	v *viper.Viper
}

func (l loader) getEnv(key, defaultValue string) string {
	if value := l.v.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func (l loader) getBoolEnv(key string, defaultValue bool) bool {
	if value := l.v.GetString(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func (l loader) getIntEnv(key string, defaultValue int) int {
	if value := l.v.GetString(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func (l loader) getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := l.v.GetString(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (l loader) getSliceEnv(key string, defaultValue []string) []string {
	value := l.v.GetString(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		parts := strings.Split(pair, ":")
		if len(parts) != 2 {
			continue
		}
		name := strings.TrimSpace(parts[0])
		priority, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err == nil && name != "" {
			queues[name] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}

const developmentSecret = "development-secret-change-in-production"

func generateDefaultSecret(env string) string {
	if env == "production" {
		return "" // Force error in production if not set
	}
	return developmentSecret
}
