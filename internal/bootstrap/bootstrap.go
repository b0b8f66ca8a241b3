// Package bootstrap provides dependency initialization for the anchor video API.
package bootstrap

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pressroom/anchor-api/internal/avatar"
	"github.com/pressroom/anchor-api/internal/config"
	"github.com/pressroom/anchor-api/internal/job"
	"github.com/pressroom/anchor-api/internal/lipsync"
	"github.com/pressroom/anchor-api/internal/media"
	"github.com/pressroom/anchor-api/internal/pipeline"
	"github.com/pressroom/anchor-api/internal/speech"
	"github.com/pressroom/anchor-api/internal/storage"
)

// Remote polling backoff bounds. The hosted avatar provider punishes tight
// polling loops, so the remote variant backs off exponentially with jitter
// instead of reusing the fixed lip-sync interval.
const (
	remoteBackoffCap    = 60 * time.Second
	remoteBackoffJitter = 5 * time.Second
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	VideoService *job.GenerateVideoService
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	composer := media.NewFFmpegComposer("", cfg.ScratchDir)

	// One HTTP client for all providers; synthesis and generation calls can
	// legitimately take minutes, so the timeout is configurable.
	httpClient := providerHTTPClient(cfg)

	synth, err := speech.NewHTTPSynthesizer(cfg.SpeechAPIURL, cfg.ScratchDir, composer,
		speech.WithAPIKey(cfg.SpeechAPIKey),
		speech.WithHTTPClient(httpClient),
		speech.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create speech synthesizer: %w", err)
	}

	lipsyncClient, err := lipsync.NewClient(
		lipsync.WithBaseURL(cfg.LipSyncAPIURL),
		lipsync.WithAPIKey(cfg.LipSyncAPIKey),
		lipsync.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create lip-sync client: %w", err)
	}

	pollInterval := time.Duration(cfg.PollIntervalSec) * time.Second

	localPoller := pipeline.NewPoller(
		pipeline.FixedInterval(pollInterval),
		cfg.PollMaxAttempts,
		pollInterval,
	)
	local := pipeline.NewLocalPipeline(synth, composer, store, lipsyncClient, localPoller, logger)

	selector := pipeline.Selector{Local: local}

	if cfg.AvatarEnabled() {
		avatarClient, err := avatar.NewClient(
			avatar.WithBaseURL(cfg.AvatarAPIURL),
			avatar.WithAPIKey(cfg.AvatarAPIKey),
			avatar.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("create avatar client: %w", err)
		}
		remotePoller := pipeline.NewPoller(
			pipeline.ExponentialBackoff{
				Base:      pollInterval,
				Cap:       remoteBackoffCap,
				MaxJitter: remoteBackoffJitter,
			},
			cfg.PollMaxAttempts,
			pollInterval,
		)
		selector.Remote = pipeline.NewRemotePipeline(avatarClient, remotePoller, logger)
		logger.Info("avatar provider configured",
			slog.String("base_url", cfg.AvatarAPIURL),
		)
	} else {
		logger.Info("avatar provider not configured, hosted avatar requests will be rejected")
	}

	repo := job.NewMemoryRepository()
	svc := job.NewGenerateVideoService(repo, selector, store, logger)

	return &Dependencies{
		VideoService: svc,
	}, nil
}

// providerHTTPClient builds the shared HTTP client for provider calls with
// the configured request timeout.
func providerHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{
		Timeout: time.Duration(cfg.ProviderTimeoutSec) * time.Second,
	}
}

// initStorage creates the S3-backed storage used for published videos.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	s3Cfg := storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}
	s3Store, err := storage.NewS3Storage(cfg.ScratchDir, s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("create S3 storage: %w", err)
	}
	logger.Info("S3 storage configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
	)
	return s3Store, nil
}
