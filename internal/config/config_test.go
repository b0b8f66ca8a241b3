package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requiredEnv holds the minimal environment for a successful Load.
var requiredEnv = map[string]string{
	"SPEECH_API_URL":  "https://tts.example.com/synthesize",
	"SPEECH_API_KEY":  "speech-secret",
	"LIPSYNC_API_KEY": "lipsync-secret",
	"S3_BUCKET":       "anchor-videos",
	"S3_REGION":       "eu-west-1",
}

// setRequiredEnv sets all required variables except the listed ones.
func setRequiredEnv(t *testing.T, except ...string) {
	t.Helper()
	skip := make(map[string]bool, len(except))
	for _, k := range except {
		skip[k] = true
		_ = os.Unsetenv(k)
		t.Cleanup(func() { _ = os.Unsetenv(k) })
	}
	for k, v := range requiredEnv {
		if !skip[k] {
			t.Setenv(k, v)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://api.sync.so/v2", cfg.LipSyncAPIURL)
	assert.Equal(t, "https://api.heygen.com", cfg.AvatarAPIURL)
	assert.Equal(t, "/tmp/anchor-api", cfg.ScratchDir)
	assert.Equal(t, 10, cfg.PollIntervalSec)
	assert.Equal(t, 30, cfg.PollMaxAttempts)
	assert.Equal(t, 300, cfg.ProviderTimeoutSec)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("POLL_INTERVAL_SEC", "5")
	t.Setenv("POLL_MAX_ATTEMPTS", "60")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 5, cfg.PollIntervalSec)
	assert.Equal(t, 60, cfg.PollMaxAttempts)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_RequiredVariables(t *testing.T) {
	tests := []struct {
		missing string
		wantErr error
	}{
		{"SPEECH_API_URL", ErrSpeechAPIURLRequired},
		{"SPEECH_API_KEY", ErrSpeechAPIKeyRequired},
		{"LIPSYNC_API_KEY", ErrLipSyncAPIKeyRequired},
		{"S3_BUCKET", ErrS3BucketRequired},
		{"S3_REGION", ErrS3RegionRequired},
	}

	for _, tt := range tests {
		t.Run(tt.missing, func(t *testing.T) {
			setRequiredEnv(t, tt.missing)

			_, err := Load()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_AvatarEnabled(t *testing.T) {
	setRequiredEnv(t)
	_ = os.Unsetenv("AVATAR_API_KEY")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AvatarEnabled())

	t.Setenv("AVATAR_API_KEY", "avatar-secret")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.AvatarEnabled())
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{
		SpeechAPIURL:  "https://tts.example.com",
		SpeechAPIKey:  "k1",
		LipSyncAPIKey: "k2",
		S3Bucket:      "bucket",
		S3Region:      "eu-west-1",
	}
	assert.NoError(t, cfg.Validate())

	cfg.S3Bucket = ""
	assert.ErrorIs(t, cfg.Validate(), ErrS3BucketRequired)
}

func TestConfig_NewLogger(t *testing.T) {
	for _, format := range []string{"text", "json", ""} {
		cfg := &Config{LogFormat: format, LogLevel: "info"}
		assert.NotNil(t, cfg.NewLogger(), "format %q", format)
	}
}

func TestConfig_StringMasksSecrets(t *testing.T) {
	cfg := &Config{
		SpeechAPIKey:       "speech-secret",
		LipSyncAPIKey:      "lipsync-secret",
		AvatarAPIKey:       "avatar-secret",
		AWSAccessKeyID:     "AKIA-secret",
		AWSSecretAccessKey: "aws-secret",
		S3Bucket:           "anchor-videos",
	}

	s := cfg.String()
	assert.NotContains(t, s, "speech-secret")
	assert.NotContains(t, s, "lipsync-secret")
	assert.NotContains(t, s, "avatar-secret")
	assert.NotContains(t, s, "AKIA-secret")
	assert.NotContains(t, s, "aws-secret")
	assert.Contains(t, s, "anchor-videos")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in).String(), "input %q", tt.in)
	}
}
