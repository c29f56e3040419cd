package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Драйверы хранилища.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const (
	DefaultBracketsManagerURL   = "https://esm.sh/brackets-manager@1.8.1?bundle"
	DefaultBracketsViewerJSURL  = "https://cdn.jsdelivr.net/npm/brackets-viewer@1.6.2/dist/brackets-viewer.min.js"
	DefaultBracketsViewerCSSURL = "https://cdn.jsdelivr.net/npm/brackets-viewer@1.6.2/dist/brackets-viewer.min.css"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL    string
	DBMaxOpenConns int
	StorageDriver  string
	JWTSecretKey   string
	ServerPort     int
	LogLevel       slog.Level

	CORSAllowedOrigins []string
	AnonymousCanView   bool

	AdminEmail    string
	AdminPassword string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	BracketsManagerURL   string
	BracketsViewerJSURL  string
	BracketsViewerCSSURL string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	driver := strings.ToLower(get("STORAGE_DRIVER", StoragePostgres))
	if driver != StoragePostgres && driver != StorageMemory {
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, driver)
	}

	dbURL := get("DATABASE_URL", "")
	if dbURL == "" && driver == StoragePostgres {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := get("JWT_SECRET_KEY", "")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(get("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	maxOpenConns, err := strconv.Atoi(get("DB_MAX_OPEN_CONNS", "25"))
	if err != nil || maxOpenConns <= 0 {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS must be a positive integer, got %q", getenv("DB_MAX_OPEN_CONNS"))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(get("LOG_LEVEL", "INFO"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %w", err)
	}

	anonymousCanView, err := strconv.ParseBool(get("ANONYMOUS_CAN_VIEW", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid ANONYMOUS_CAN_VIEW environment variable: %w", err)
	}

	var origins []string
	for _, o := range strings.Split(get("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		DBMaxOpenConns:     maxOpenConns,
		StorageDriver:      driver,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		LogLevel:           level,
		CORSAllowedOrigins: origins,
		AnonymousCanView:   anonymousCanView,

		AdminEmail:    get("ADMIN_EMAIL", ""),
		AdminPassword: get("ADMIN_PASSWORD", ""),

		R2AccountID:       get("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     get("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: get("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      get("R2_BUCKET_NAME", ""),
		R2PublicBaseURL:   get("R2_PUBLIC_BASE_URL", ""),

		BracketsManagerURL:   get("BRACKETS_MANAGER_URL", DefaultBracketsManagerURL),
		BracketsViewerJSURL:  get("BRACKETS_VIEWER_JS_URL", DefaultBracketsViewerJSURL),
		BracketsViewerCSSURL: get("BRACKETS_VIEWER_CSS_URL", DefaultBracketsViewerCSSURL),
	}

	return cfg, nil
}
