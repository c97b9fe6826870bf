package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upstream UpstreamConfig
	Sync     SyncConfig
	Jobs     JobsConfig
	Auth     AuthConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// UpstreamConfig holds settings for the public guild-stats API
type UpstreamConfig struct {
	BaseURL      string
	FetchTimeout time.Duration
	// RequestDelay is slept between consecutive guild fetches so the
	// upstream rate limit is respected.
	RequestDelay time.Duration
}

// SyncConfig holds synchronization run settings
type SyncConfig struct {
	MaxRetryRounds   int
	RetryBackoffBase time.Duration
	// StoragePause is how long a run pauses when the database drops the
	// connection mid-run before resuming from the current guild.
	StoragePause     time.Duration
	ProgressInterval time.Duration
}

// JobsConfig holds background job settings
type JobsConfig struct {
	SyncEnabled       bool
	SyncInterval      time.Duration
	CleanupEnabled    bool
	CleanupInterval   time.Duration
	StatisticsEnabled bool
}

// AuthConfig holds admin API authentication settings
type AuthConfig struct {
	// AdminTokenHash is the bcrypt hash of the admin bearer token,
	// generated with cmd/admin-token.
	AdminTokenHash string
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "deeptown"),
			Database:  getEnv("DB_DATABASE", "tracker"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Upstream: UpstreamConfig{
			BaseURL:      getEnv("UPSTREAM_BASE_URL", "http://dtat.hampl.space/data"),
			FetchTimeout: getDurationEnv("UPSTREAM_FETCH_TIMEOUT", 20*time.Second),
			RequestDelay: getDurationEnv("UPSTREAM_REQUEST_DELAY", 2*time.Second),
		},
		Sync: SyncConfig{
			MaxRetryRounds:   getIntEnv("SYNC_MAX_RETRY_ROUNDS", 60),
			RetryBackoffBase: getDurationEnv("SYNC_RETRY_BACKOFF_BASE", 30*time.Second),
			StoragePause:     getDurationEnv("SYNC_STORAGE_PAUSE", 60*time.Second),
			ProgressInterval: getDurationEnv("SYNC_PROGRESS_INTERVAL", 60*time.Second),
		},
		Jobs: JobsConfig{
			SyncEnabled:       getBoolEnv("JOB_SYNC_ENABLED", true),
			SyncInterval:      getDurationEnv("JOB_SYNC_INTERVAL", 6*time.Hour),
			CleanupEnabled:    getBoolEnv("JOB_CLEANUP_ENABLED", true),
			CleanupInterval:   getDurationEnv("JOB_CLEANUP_INTERVAL", 24*time.Hour),
			StatisticsEnabled: getBoolEnv("JOB_STATISTICS_ENABLED", true),
		},
		Auth: AuthConfig{
			AdminTokenHash: getEnv("ADMIN_TOKEN_HASH", ""),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}

	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("UPSTREAM_BASE_URL is required"))
	} else if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("UPSTREAM_BASE_URL must be an http(s) URL, got '%s'", c.Upstream.BaseURL))
	}
	if c.Upstream.FetchTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_FETCH_TIMEOUT must be positive"))
	}
	if c.Upstream.RequestDelay < 0 {
		errs = append(errs, errors.New("UPSTREAM_REQUEST_DELAY must not be negative"))
	}

	if c.Sync.MaxRetryRounds <= 0 {
		errs = append(errs, errors.New("SYNC_MAX_RETRY_ROUNDS must be positive"))
	}
	if c.Sync.RetryBackoffBase <= 0 {
		errs = append(errs, errors.New("SYNC_RETRY_BACKOFF_BASE must be positive"))
	}

	// Admin endpoints are disabled without a token hash; that is only
	// acceptable outside production.
	if c.IsProduction() && c.Auth.AdminTokenHash == "" {
		errs = append(errs, errors.New("ADMIN_TOKEN_HASH is required in production"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
