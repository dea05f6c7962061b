package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var keys = []string{
	"AUTHDECK_API_URL", "AUTHDECK_CREDENTIAL_STORE", "AUTHDECK_STATE_DIR",
	"AUTHDECK_HTTP_TIMEOUT", "AUTHDECK_LOG_LEVEL", "AUTHDECK_LOG_FORMAT",
}

func setupEnv(t *testing.T) {
	t.Helper()
	original, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(original) })

	for _, key := range keys {
		t.Setenv(key, "")
	}
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	setupEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if cfg.APIURL != "http://localhost:3000" {
		t.Errorf("unexpected API URL %q", cfg.APIURL)
	}
	if cfg.CredentialStore != "file" {
		t.Errorf("unexpected credential store %q", cfg.CredentialStore)
	}
	if !strings.HasSuffix(cfg.StateDir, filepath.Join(".config", "authdeck")) {
		t.Errorf("unexpected state dir %q", cfg.StateDir)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("unexpected timeout %v", cfg.HTTPTimeout)
	}
	if cfg.LogLevel != "warn" || cfg.LogFormat != "console" {
		t.Errorf("unexpected logging config %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	t.Setenv("AUTHDECK_API_URL", "https://auth.example.com")
	t.Setenv("AUTHDECK_CREDENTIAL_STORE", "sqlite")
	t.Setenv("AUTHDECK_STATE_DIR", dir)
	t.Setenv("AUTHDECK_HTTP_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if cfg.APIURL != "https://auth.example.com" || cfg.CredentialStore != "sqlite" || cfg.StateDir != dir {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("unexpected timeout %v", cfg.HTTPTimeout)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	setupEnv(t)
	os.Unsetenv("AUTHDECK_CREDENTIAL_STORE")
	if err := os.WriteFile(".env", []byte("AUTHDECK_CREDENTIAL_STORE=memory\n"), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	defer os.Unsetenv("AUTHDECK_CREDENTIAL_STORE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if cfg.CredentialStore != "memory" {
		t.Errorf("expected .env value, got %q", cfg.CredentialStore)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"AUTHDECK_API_URL", "localhost:3000"},
		{"AUTHDECK_API_URL", "ftp://example.com"},
		{"AUTHDECK_CREDENTIAL_STORE", "vault"},
		{"AUTHDECK_HTTP_TIMEOUT", "fast"},
		{"AUTHDECK_HTTP_TIMEOUT", "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setupEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("expected error to name %s, got %v", tt.key, err)
			}
		})
	}
}
