package config

import (
	"strings"
	"testing"
	"time"
)

func validBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			Env:            "development",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      "8000",
			Namespace: "deeptown",
			Database:  "tracker",
		},
		Upstream: UpstreamConfig{
			BaseURL:      "http://dtat.hampl.space/data",
			FetchTimeout: 20 * time.Second,
			RequestDelay: 2 * time.Second,
		},
		Sync: SyncConfig{
			MaxRetryRounds:   60,
			RetryBackoffBase: 30 * time.Second,
			StoragePause:     time.Minute,
			ProgressInterval: time.Minute,
		},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	cfg := validBaseConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidServerEnv(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "invalid"

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for invalid SERVER_ENV")
	}
	if !strings.Contains(err.Error(), "SERVER_ENV") {
		t.Errorf("expected error to mention SERVER_ENV, got: %v", err)
	}
}

func TestConfig_Validate_MissingPort(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Port = ""

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for missing SERVER_PORT")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("expected error to mention SERVER_PORT, got: %v", err)
	}
}

func TestConfig_Validate_MissingDatabaseHost(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Database.Host = ""

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for missing DB_HOST")
	}
	if !strings.Contains(err.Error(), "DB_HOST") {
		t.Errorf("expected error to mention DB_HOST, got: %v", err)
	}
}

func TestConfig_Validate_BadUpstreamURL(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Upstream.BaseURL = "dtat.hampl.space/data"

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for non-http UPSTREAM_BASE_URL")
	}
	if !strings.Contains(err.Error(), "UPSTREAM_BASE_URL") {
		t.Errorf("expected error to mention UPSTREAM_BASE_URL, got: %v", err)
	}
}

func TestConfig_Validate_NonPositiveRetryRounds(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Sync.MaxRetryRounds = 0

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for zero SYNC_MAX_RETRY_ROUNDS")
	}
	if !strings.Contains(err.Error(), "SYNC_MAX_RETRY_ROUNDS") {
		t.Errorf("expected error to mention SYNC_MAX_RETRY_ROUNDS, got: %v", err)
	}
}

func TestConfig_Validate_ProductionRequiresAdminToken(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Env = "production"

	err := cfg.Validate()
	if err == nil {
		t.Error("expected error for missing ADMIN_TOKEN_HASH in production")
	}
	if !strings.Contains(err.Error(), "ADMIN_TOKEN_HASH") {
		t.Errorf("expected error to mention ADMIN_TOKEN_HASH, got: %v", err)
	}

	cfg.Auth.AdminTokenHash = "$2a$10$abcdefghijklmnopqrstuv"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid production config, got error: %v", err)
	}
}

func TestConfig_Validate_CollectsMultipleErrors(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Server.Port = ""
	cfg.Database.Host = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") || !strings.Contains(err.Error(), "DB_HOST") {
		t.Errorf("expected both failures reported, got: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Upstream.BaseURL == "" {
		t.Error("expected default UPSTREAM_BASE_URL")
	}
	if cfg.Sync.MaxRetryRounds != 60 {
		t.Errorf("expected default SYNC_MAX_RETRY_ROUNDS of 60, got %d", cfg.Sync.MaxRetryRounds)
	}
	if cfg.Upstream.RequestDelay != 2*time.Second {
		t.Errorf("expected default UPSTREAM_REQUEST_DELAY of 2s, got %v", cfg.Upstream.RequestDelay)
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BOOL", "true")

	if got := getEnv("TEST_STRING", "default"); got != "value" {
		t.Errorf("getEnv = %q, want value", got)
	}
	if got := getEnv("TEST_MISSING", "default"); got != "default" {
		t.Errorf("getEnv fallback = %q, want default", got)
	}
	if got := getIntEnv("TEST_INT", 1); got != 42 {
		t.Errorf("getIntEnv = %d, want 42", got)
	}
	if got := getDurationEnv("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getDurationEnv = %v, want 90s", got)
	}
	if got := getBoolEnv("TEST_BOOL", false); !got {
		t.Error("getBoolEnv = false, want true")
	}
}
