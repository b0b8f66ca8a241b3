// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrSpeechAPIKeyRequired is returned when SPEECH_API_KEY is not set.
	ErrSpeechAPIKeyRequired = errors.New("config: SPEECH_API_KEY is required")
	// ErrSpeechAPIURLRequired is returned when SPEECH_API_URL is not set.
	ErrSpeechAPIURLRequired = errors.New("config: SPEECH_API_URL is required")
	// ErrLipSyncAPIKeyRequired is returned when LIPSYNC_API_KEY is not set.
	ErrLipSyncAPIKeyRequired = errors.New("config: LIPSYNC_API_KEY is required")
	// ErrS3BucketRequired is returned when S3_BUCKET is not set.
	ErrS3BucketRequired = errors.New("config: S3_BUCKET is required")
	// ErrS3RegionRequired is returned when S3_REGION is not set.
	ErrS3RegionRequired = errors.New("config: S3_REGION is required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// Speech synthesis provider
	SpeechAPIURL string `env:"SPEECH_API_URL, required" json:"speech_api_url"`
	SpeechAPIKey string `env:"SPEECH_API_KEY, required" json:"-"` // Masked in JSON

	// Lip-sync job provider
	LipSyncAPIURL string `env:"LIPSYNC_API_URL, default=https://api.sync.so/v2" json:"lipsync_api_url"`
	LipSyncAPIKey string `env:"LIPSYNC_API_KEY, required" json:"-"` // Masked in JSON

	// Avatar provider (direct-generation variant). Optional: when the key is
	// absent, requests referencing a hosted avatar ID are rejected.
	AvatarAPIURL string `env:"AVATAR_API_URL, default=https://api.heygen.com" json:"avatar_api_url"`
	AvatarAPIKey string `env:"AVATAR_API_KEY" json:"-"` // Masked in JSON

	// Storage settings
	ScratchDir         string `env:"SCRATCH_DIR, default=/tmp/anchor-api" json:"scratch_dir"`
	S3Bucket           string `env:"S3_BUCKET, required" json:"s3_bucket"`
	S3Region           string `env:"S3_REGION, required" json:"s3_region"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Pipeline settings
	PollIntervalSec    int `env:"POLL_INTERVAL_SEC, default=10" json:"poll_interval_sec"`
	PollMaxAttempts    int `env:"POLL_MAX_ATTEMPTS, default=30" json:"poll_max_attempts"`
	ProviderTimeoutSec int `env:"PROVIDER_TIMEOUT_SEC, default=300" json:"provider_timeout_sec"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// AvatarEnabled returns true if the direct avatar provider is configured.
func (c *Config) AvatarEnabled() bool {
	return c.AvatarAPIKey != ""
}

// Load reads configuration from environment variables using go-envconfig.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		switch {
		case strings.Contains(err.Error(), "SPEECH_API_URL"):
			return nil, ErrSpeechAPIURLRequired
		case strings.Contains(err.Error(), "SPEECH_API_KEY"):
			return nil, ErrSpeechAPIKeyRequired
		case strings.Contains(err.Error(), "LIPSYNC_API_KEY"):
			return nil, ErrLipSyncAPIKeyRequired
		case strings.Contains(err.Error(), "S3_BUCKET"):
			return nil, ErrS3BucketRequired
		case strings.Contains(err.Error(), "S3_REGION"):
			return nil, ErrS3RegionRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.SpeechAPIURL == "" {
		return ErrSpeechAPIURLRequired
	}
	if c.SpeechAPIKey == "" {
		return ErrSpeechAPIKeyRequired
	}
	if c.LipSyncAPIKey == "" {
		return ErrLipSyncAPIKeyRequired
	}
	if c.S3Bucket == "" {
		return ErrS3BucketRequired
	}
	if c.S3Region == "" {
		return ErrS3RegionRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, SpeechAPIURL: %s, LipSyncAPIURL: %s, AvatarAPIURL: %s, AvatarEnabled: %t, ScratchDir: %s, S3Bucket: %s, S3Region: %s, PollIntervalSec: %d, PollMaxAttempts: %d, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.SpeechAPIURL,
		c.LipSyncAPIURL,
		c.AvatarAPIURL,
		c.AvatarEnabled(),
		c.ScratchDir,
		c.S3Bucket,
		c.S3Region,
		c.PollIntervalSec,
		c.PollMaxAttempts,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
