package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	SweeperInterval time.Duration
	GateStageSlug   string

	CORSAllowedOrigins []string
	AdminEmails        []string
	JWTTTL             time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	GoogleServiceAccountJSON string
	ExportSpreadsheetID      string
}

// UploadsEnabled reports whether object storage credentials are configured.
func (c *Config) UploadsEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

func (c *Config) SheetsExportEnabled() bool {
	return c.GoogleServiceAccountJSON != "" && c.ExportSpreadsheetID != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := parsePort(getEnvOrDefault("SERVER_PORT", "8080"))
	if err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(getEnvOrDefault("SWEEPER_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEPER_INTERVAL environment variable: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("SWEEPER_INTERVAL must be positive, got %s", interval)
	}

	ttl, err := time.ParseDuration(getEnvOrDefault("JWT_TTL", "72h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL environment variable: %w", err)
	}

	cfg := &Config{
		DatabaseURL:     dbURL,
		JWTSecretKey:    jwtKey,
		ServerPort:      port,
		SweeperInterval: interval,
		GateStageSlug:   getEnvOrDefault("GATE_STAGE_SLUG", "preliminary"),

		CORSAllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		AdminEmails:        splitList(os.Getenv("ADMIN_EMAILS")),
		JWTTTL:             ttl,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		GoogleServiceAccountJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		ExportSpreadsheetID:      strings.TrimSpace(os.Getenv("EXPORT_SPREADSHEET_ID")),
	}

	return cfg, nil
}

func parsePort(portStr string) (int, error) {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	return port, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
