package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

type HTTPTimeoutsConfig struct {
	Read     time.Duration
	Idle     time.Duration
	Write    time.Duration
	Shutdown time.Duration // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Port     int
	Timeouts HTTPTimeoutsConfig
	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64
}

type RateLimiterConfig struct {
	RPS   int
	Burst int
}

type LoggerConfig struct {
	Level slog.Level
}

type AppConfig struct {
	Name        string
	Environment string // 'dev' | 'prod'
	// ServerAddress is the public base URL images are served under.
	ServerAddress   string
	SourcesDir      string
	SourceNamespace string
}

type DBConfig struct {
	Path           string
	MigrationsPath string
}

type ProxyConfig struct {
	Trusted bool
}

type TelemetryConfig struct {
	EnableTelemetry bool
	OtelEndpoint    string
}

type AuthConfig struct {
	// AdminTokenHash is the bcrypt hash of the admin bearer token.
	AdminTokenHash string
}

type MarkdownConfig struct {
	UnsafeHTML bool
	CodeStyle  string
	Sanitize   bool
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

type StorageConfig struct {
	Provider string // 'local' | 's3'
	S3       S3Config
}

type RecompileConfig struct {
	Workers int
	OnStart bool
}

type Config struct {
	App       AppConfig
	DB        DBConfig
	Proxy     ProxyConfig
	HTTP      HTTPConfig
	Limiter   RateLimiterConfig
	Logger    LoggerConfig
	Metrics   TelemetryConfig
	Auth      AuthConfig
	Markdown  MarkdownConfig
	Storage   StorageConfig
	Recompile RecompileConfig
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:            "blogpress",
			Environment:     "prod",
			ServerAddress:   "http://localhost:3000",
			SourcesDir:      "./sources",
			SourceNamespace: "570e8400-c29b-45d4-a716-446655440700",
		},
		DB: DBConfig{
			Path:           "blogpress.db",
			MigrationsPath: "./migrations",
		},
		Proxy: ProxyConfig{
			Trusted: true,
		},
		HTTP: HTTPConfig{
			Port: 3000,
			Timeouts: HTTPTimeoutsConfig{
				Read:     5 * time.Second,
				Write:    10 * time.Second,
				Idle:     10 * time.Minute,
				Shutdown: 10 * time.Second,
			},
			MaxBodyBytes: 1 << 20,
		},
		Limiter: RateLimiterConfig{
			RPS:   20,
			Burst: 50,
		},
		Logger: LoggerConfig{
			Level: slog.LevelInfo,
		},
		Metrics: TelemetryConfig{
			OtelEndpoint: "localhost:4318",
		},
		Markdown: MarkdownConfig{
			CodeStyle: "monokai",
		},
		Storage: StorageConfig{
			Provider: "local",
			S3: S3Config{
				Region: "garage",
			},
		},
		Recompile: RecompileConfig{
			Workers: 4,
		},
	}
}

func LoadWithDefaults() *Config {
	defaults := DefaultConfig()
	return &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", defaults.App.Name),
			Environment:     getEnv("APP_ENV", defaults.App.Environment),
			ServerAddress:   getEnv("SERVER_ADDRESS", defaults.App.ServerAddress),
			SourcesDir:      getEnv("APP_SOURCES_DIR", defaults.App.SourcesDir),
			SourceNamespace: getEnv("SOURCE_NAMESPACE", defaults.App.SourceNamespace),
		},
		DB: DBConfig{
			Path:           getEnv("DB_PATH", defaults.DB.Path),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", defaults.DB.MigrationsPath),
		},
		Proxy: ProxyConfig{
			Trusted: getEnvAsBool("PROXY_TRUSTED", defaults.Proxy.Trusted),
		},
		HTTP: HTTPConfig{
			Port: getEnvAsInt("HTTP_PORT", defaults.HTTP.Port), // don't forget to add ':'
			Timeouts: HTTPTimeoutsConfig{
				Read:     getEnvAsDuration("HTTP_READ_TIMEOUT", defaults.HTTP.Timeouts.Read),
				Write:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", defaults.HTTP.Timeouts.Write),
				Idle:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", defaults.HTTP.Timeouts.Idle),
				Shutdown: getEnvAsDuration("HTTP_SHUTDOWN_DELAY", defaults.HTTP.Timeouts.Shutdown),
			},
			MaxBodyBytes: int64(getEnvAsInt("HTTP_MAX_BODY_BYTES", int(defaults.HTTP.MaxBodyBytes))),
		},
		Limiter: RateLimiterConfig{
			RPS:   getEnvAsInt("LIMITER_RPS", defaults.Limiter.RPS),
			Burst: getEnvAsInt("LIMITER_BURST", defaults.Limiter.Burst),
		},
		Logger: LoggerConfig{
			Level: getEnvAsLogLevel("LOGGER_LEVEL", defaults.Logger.Level),
		},
		Metrics: TelemetryConfig{
			EnableTelemetry: getEnvAsBool("ENABLE_TELEMETRY", false),
			OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", defaults.Metrics.OtelEndpoint),
		},
		Auth: AuthConfig{
			AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", defaults.Auth.AdminTokenHash),
		},
		Markdown: MarkdownConfig{
			UnsafeHTML: getEnvAsBool("MARKDOWN_UNSAFE_HTML", defaults.Markdown.UnsafeHTML),
			CodeStyle:  getEnv("MARKDOWN_CODE_STYLE", defaults.Markdown.CodeStyle),
			Sanitize:   getEnvAsBool("MARKDOWN_SANITIZE", defaults.Markdown.Sanitize),
		},
		Storage: StorageConfig{
			Provider: getEnv("STORAGE_PROVIDER", defaults.Storage.Provider),
			S3: S3Config{
				Endpoint:  getEnv("S3_ENDPOINT", defaults.Storage.S3.Endpoint),
				Region:    getEnv("S3_REGION", defaults.Storage.S3.Region),
				AccessKey: getEnv("S3_ACCESS_KEY", defaults.Storage.S3.AccessKey),
				SecretKey: getEnv("S3_SECRET_KEY", defaults.Storage.S3.SecretKey),
				Bucket:    getEnv("S3_BUCKET", defaults.Storage.S3.Bucket),
				Prefix:    getEnv("S3_PREFIX", defaults.Storage.S3.Prefix),
			},
		},
		Recompile: RecompileConfig{
			Workers: getEnvAsInt("RECOMPILE_WORKERS", defaults.Recompile.Workers),
			OnStart: getEnvAsBool("RECOMPILE_ON_START", defaults.Recompile.OnStart),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsLogLevel(key string, fallback slog.Level) slog.Level {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	switch strings.ToLower(valueStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("APP_NAME must not be empty")
	}
	if s := strings.ToLower(c.App.Environment); s != "dev" && s != "prod" {
		return fmt.Errorf(`APP_ENV must be "dev" or "prod"`)
	}
	if u, err := url.Parse(c.App.ServerAddress); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SERVER_ADDRESS must be an absolute URL (e.g., https://blog.example.com), got %q", c.App.ServerAddress)
	}
	if _, err := uuid.FromString(c.App.SourceNamespace); err != nil {
		return fmt.Errorf("SOURCE_NAMESPACE must be a valid UUID")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.DB.MigrationsPath == "" {
		return fmt.Errorf("DB_MIGRATIONS_PATH must not be empty")
	}
	// stay away from well-known ports
	if p := c.HTTP.Port; p < 1024 || p > 65535 {
		return fmt.Errorf("HTTP_PORT must be a positive int between 1024 and 65535, got %d", p)
	}
	if c.HTTP.Timeouts.Read <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT must be positive (e.g., 5s), got %s", c.HTTP.Timeouts.Read)
	}
	if c.HTTP.Timeouts.Write <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Write)
	}
	if c.HTTP.Timeouts.Idle <= 0 {
		return fmt.Errorf("HTTP_IDLE_TIMEOUT must be positive (e.g., 2m), got %s", c.HTTP.Timeouts.Idle)
	}
	if c.HTTP.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_DELAY must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Shutdown)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("HTTP_MAX_BODY_BYTES must be positive, got %d", c.HTTP.MaxBodyBytes)
	}
	if c.Limiter.RPS <= 0 {
		return fmt.Errorf("LIMITER_RPS must be positive, got %d", c.Limiter.RPS)
	}
	if c.Limiter.Burst <= 0 {
		return fmt.Errorf("LIMITER_BURST must be positive, got %d", c.Limiter.Burst)
	}
	if c.Recompile.Workers <= 0 {
		return fmt.Errorf("RECOMPILE_WORKERS must be positive, got %d", c.Recompile.Workers)
	}
	if c.App.Environment == "prod" && c.Auth.AdminTokenHash == "" {
		return fmt.Errorf("ADMIN_TOKEN_HASH must not be empty in production")
	}
	if h := c.Auth.AdminTokenHash; h != "" && !strings.HasPrefix(h, "$2") {
		return fmt.Errorf("ADMIN_TOKEN_HASH must be a bcrypt hash")
	}

	switch c.Storage.Provider {
	case "local":
		if c.App.SourcesDir == "" {
			return fmt.Errorf("APP_SOURCES_DIR must not be empty with the local storage provider")
		}
	case "s3":
		if c.Storage.S3.Endpoint == "" || c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT and S3_BUCKET must be set with the s3 storage provider")
		}
	default:
		return fmt.Errorf(`STORAGE_PROVIDER must be "local" or "s3", got %q`, c.Storage.Provider)
	}

	// c.Proxy.Trusted will default to true if not valid
	// c.Logger.Level will default to Info if not valid
	return nil
}
