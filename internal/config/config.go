package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the API server and worker
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Token Configuration
	Tokens TokenConfig

	// Analytics Configuration
	Analytics AnalyticsConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds listener and CORS settings
type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
	MonitorPort    string // asynqmon listener
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// TokenConfig holds JWT and refresh token settings
type TokenConfig struct {
	JWTSecret  string // empty = generated on first start and persisted in the database
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AnalyticsConfig holds the snapshot capture schedule
type AnalyticsConfig struct {
	Schedule string // standard 5-field cron expression
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	accessTTL, err := durationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	refreshTTL, err := durationEnv("REFRESH_TOKEN_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	schedule := stringEnv("ANALYTICS_SCHEDULE", "*/15 * * * *")
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid ANALYTICS_SCHEDULE %q: %w", schedule, err)
	}

	return &Config{
		HTTP: HTTPConfig{
			Addr:           stringEnv("HTTP_ADDR", ":3000"),
			AllowedOrigins: splitList(stringEnv("CORS_ALLOWED_ORIGINS", "http://localhost:4200")),
			MonitorPort:    stringEnv("ASYNQMON_PORT", "8090"),
		},
		Database: DatabaseConfig{
			URL: stringEnv("DATABASE_URL", "authdeck.sqlite"),
		},
		Redis: RedisConfig{
			Address: stringEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Tokens: TokenConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Analytics: AnalyticsConfig{
			Schedule: schedule,
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
