package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/authdeck/authdeck/internal/credstore"
)

const configDirName = "authdeck"

// Config holds the CLI settings
type Config struct {
	APIURL          string
	CredentialStore string // file, sqlite, keyring, memory
	StateDir        string // where the file and sqlite stores live
	HTTPTimeout     time.Duration
	LogLevel        string
	LogFormat       string
}

// DefaultStateDir returns ~/.config/authdeck
func DefaultStateDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName), nil
}

// Load reads AUTHDECK_* variables, after .env and .env.local in the
// working directory.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	apiURL := stringEnv("AUTHDECK_API_URL", "http://localhost:3000")
	parsed, err := url.Parse(apiURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid AUTHDECK_API_URL %q: expected an http or https URL", apiURL)
	}

	backend := stringEnv("AUTHDECK_CREDENTIAL_STORE", credstore.BackendFile)
	switch backend {
	case credstore.BackendFile, credstore.BackendSQLite, credstore.BackendKeyring, credstore.BackendMemory:
	default:
		return nil, fmt.Errorf("invalid AUTHDECK_CREDENTIAL_STORE %q: expected file, sqlite, keyring or memory", backend)
	}

	stateDir := os.Getenv("AUTHDECK_STATE_DIR")
	if stateDir == "" {
		if stateDir, err = DefaultStateDir(); err != nil {
			return nil, err
		}
	}

	timeout := 30 * time.Second
	if raw := os.Getenv("AUTHDECK_HTTP_TIMEOUT"); raw != "" {
		timeout, err = time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid AUTHDECK_HTTP_TIMEOUT %q: expected a positive duration", raw)
		}
	}

	return &Config{
		APIURL:          apiURL,
		CredentialStore: backend,
		StateDir:        stateDir,
		HTTPTimeout:     timeout,
		LogLevel:        stringEnv("AUTHDECK_LOG_LEVEL", "warn"),
		LogFormat:       stringEnv("AUTHDECK_LOG_FORMAT", "console"),
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
