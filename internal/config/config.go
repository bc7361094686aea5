package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreDynamo   = "dynamodb"
)

// devJWTSecret signs admin tokens only when APP_ENV=development.
const devJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	CORS         CORSConfig
	Store        StoreConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Dynamo       DynamoConfig
	RateLimit    RateLimitConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Queue        QueueConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	ProxyHeader           string
}

// CORSConfig holds the single allowed browser origin.
type CORSConfig struct {
	AllowedOrigin string
}

// StoreConfig selects the submission store.
type StoreConfig struct {
	Backend string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// DynamoConfig holds the managed key-value store settings.
type DynamoConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	WaitlistTable   string
	PartnerTable    string
}

// RateLimitConfig holds the two per-endpoint windows.
type RateLimitConfig struct {
	Backend          string
	WaitlistWindowMS int
	WaitlistMax      int
	PartnerWindowMS  int
	PartnerMax       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level   string
	Service string
}

// AuthConfig defines admin authentication parameters.
type AuthConfig struct {
	AdminUsername         string
	AdminPasswordHash     string
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig holds team notification settings.
type NotificationConfig struct {
	EmailFrom string
	EmailTo   string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	QueueSize int
}

// QueueConfig holds RabbitMQ settings. An empty URL disables publishing.
type QueueConfig struct {
	URL      string
	Exchange string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "Network Backend API"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", getEnv("PORT", "3001")),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 10),
			ProxyHeader:           os.Getenv("HTTP_PROXY_HEADER"),
		},
		CORS: CORSConfig{
			AllowedOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "intake"),
		},
		Dynamo: DynamoConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Endpoint:        os.Getenv("DYNAMODB_ENDPOINT"),
			WaitlistTable:   getEnv("DYNAMODB_TABLE_NAME", "waitlist"),
			PartnerTable:    getEnv("DYNAMODB_PARTNER_TABLE_NAME", "NetworkPartnerRequests"),
		},
		RateLimit: RateLimitConfig{
			Backend:          strings.ToLower(getEnv("RATE_LIMIT_BACKEND", StoreMemory)),
			WaitlistWindowMS: getEnvAsInt("RATE_LIMIT_WAITLIST_WINDOW_MS", 60000),
			WaitlistMax:      getEnvAsInt("RATE_LIMIT_WAITLIST_MAX", 10),
			PartnerWindowMS:  getEnvAsInt("RATE_LIMIT_PARTNER_WINDOW_MS", 60000),
			PartnerMax:       getEnvAsInt("RATE_LIMIT_PARTNER_MAX", 5),
		},
		Logger: LoggerConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Service: getEnv("APP_NAME", "Network Backend API"),
		},
		Auth: AuthConfig{
			AdminUsername:         getEnv("ADMIN_USERNAME", "admin"),
			AdminPasswordHash:     os.Getenv("ADMIN_PASSWORD_HASH"),
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			EmailFrom: getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			EmailTo:   os.Getenv("NOTIFY_EMAIL_TO"),
			SMTPHost:  os.Getenv("SMTP_HOST"),
			SMTPPort:  getEnvAsInt("SMTP_PORT", 587),
			SMTPUser:  os.Getenv("SMTP_USER"),
			SMTPPass:  os.Getenv("SMTP_PASS"),
			QueueSize: getEnvAsInt("NOTIFY_QUEUE_SIZE", 100),
		},
		Queue: QueueConfig{
			URL:      os.Getenv("RABBITMQ_URL"),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "intake.events"),
		},
	}

	switch cfg.Store.Backend {
	case StoreMemory, StoreRedis, StorePostgres, StoreDynamo:
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q", cfg.Store.Backend)
	}
	switch cfg.RateLimit.Backend {
	case StoreMemory, StoreRedis:
	default:
		return nil, fmt.Errorf("invalid RATE_LIMIT_BACKEND %q", cfg.RateLimit.Backend)
	}

	if err := cfg.Auth.resolveSecret(cfg.App.Env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Enabled reports whether the admin endpoints are served. Without a password
// hash no admin route is registered.
func (a AuthConfig) Enabled() bool {
	return strings.TrimSpace(a.AdminPasswordHash) != ""
}

func (a *AuthConfig) resolveSecret(env string) error {
	if !a.Enabled() {
		return nil
	}
	development := strings.EqualFold(env, "development")
	switch {
	case a.JWTSecret == "" && development:
		a.JWTSecret = devJWTSecret
	case a.JWTSecret == "":
		return fmt.Errorf("AUTH_JWT_SECRET is required when ADMIN_PASSWORD_HASH is set (APP_ENV=%s)", env)
	case a.JWTSecret == devJWTSecret && !development:
		return fmt.Errorf("AUTH_JWT_SECRET must not use the development default outside APP_ENV=development")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// WaitlistWindow returns the waitlist limiter window.
func (r RateLimitConfig) WaitlistWindow() time.Duration {
	return time.Duration(r.WaitlistWindowMS) * time.Millisecond
}

// PartnerWindow returns the partnership limiter window.
func (r RateLimitConfig) PartnerWindow() time.Duration {
	return time.Duration(r.PartnerWindowMS) * time.Millisecond
}

// MailEnabled reports whether SMTP delivery is configured.
func (n NotificationConfig) MailEnabled() bool {
	return strings.TrimSpace(n.SMTPHost) != "" && strings.TrimSpace(n.EmailTo) != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
