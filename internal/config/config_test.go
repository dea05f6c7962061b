package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp moves into an empty directory so no stray .env file is picked up
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	for _, key := range []string{"HTTP_ADDR", "DATABASE_URL", "REDIS_ADDRESS", "JWT_SECRET",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "ANALYTICS_SCHEDULE", "CORS_ALLOWED_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT", "ASYNQMON_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://localhost:4200"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "authdeck.sqlite", cfg.Database.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 15*time.Minute, cfg.Tokens.AccessTTL)
	assert.Equal(t, 720*time.Hour, cfg.Tokens.RefreshTTL)
	assert.Empty(t, cfg.Tokens.JWTSecret)
	assert.Equal(t, "*/15 * * * *", cfg.Analytics.Schedule)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ANALYTICS_SCHEDULE", "0 * * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Tokens.AccessTTL)
	assert.Equal(t, "s3cret", cfg.Tokens.JWTSecret)
	assert.Equal(t, "0 * * * *", cfg.Analytics.Schedule)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "")
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("DATABASE_URL=from-dotenv.sqlite\n"), 0o644))
	// godotenv does not override variables that are already set, including empty ones
	require.NoError(t, os.Unsetenv("DATABASE_URL"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.sqlite", cfg.Database.URL)
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unparseable ttl", "ACCESS_TOKEN_TTL", "soon"},
		{"negative ttl", "REFRESH_TOKEN_TTL", "-1h"},
		{"bad schedule", "ANALYTICS_SCHEDULE", "every minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
