package job

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pressroom/anchor-api/internal/pipeline"
	"github.com/pressroom/anchor-api/internal/speech"
	"github.com/pressroom/anchor-api/internal/storage"
)

// ErrInvalidImage is returned when an avatar image payload cannot be decoded.
var ErrInvalidImage = errors.New("job: avatar image is not valid base64")

// GenerateParams carries the caller-supplied inputs for one generation job.
type GenerateParams struct {
	// SourceText is the article summary the anchor reads.
	SourceText string
	// ImageBase64 is an optional base64-encoded still image of the presenter.
	ImageBase64 string
	// AvatarID is an optional provider-hosted avatar identifier.
	AvatarID string
	// Voice selects the synthesis voice.
	Voice speech.Voice
	// InputRef identifies the source article; opaque, stored with the job.
	InputRef string
}

// GenerateVideoService creates jobs and drives them through the pipeline.
type GenerateVideoService struct {
	repo     Repository
	selector pipeline.Selector
	store    storage.Storage
	logger   *slog.Logger
}

// NewGenerateVideoService creates a GenerateVideoService.
func NewGenerateVideoService(
	repo Repository,
	selector pipeline.Selector,
	store storage.Storage,
	logger *slog.Logger,
) *GenerateVideoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateVideoService{
		repo:     repo,
		selector: selector,
		store:    store,
		logger:   logger,
	}
}

// CreateJob records a new PENDING job and returns it. Processing happens
// separately via ProcessJob so the HTTP handler can answer immediately.
func (s *GenerateVideoService) CreateJob(ctx context.Context, inputRef string) (*VideoJob, error) {
	j := New(inputRef)
	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	return j, nil
}

// GetJob returns a read-only copy of a job.
func (s *GenerateVideoService) GetJob(ctx context.Context, jobID string) (*VideoJob, error) {
	return s.repo.FindByID(ctx, jobID)
}

// ListJobs returns read-only copies of all jobs.
func (s *GenerateVideoService) ListJobs(ctx context.Context) ([]*VideoJob, error) {
	return s.repo.List(ctx)
}

// ProcessJob runs the generation pipeline for a previously created job and
// records the outcome on it. Every exit path leaves the job in a terminal
// state; the returned error mirrors what was recorded, for the caller's log.
func (s *GenerateVideoService) ProcessJob(ctx context.Context, jobID string, params GenerateParams) error {
	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}

	if err := j.Start(); err != nil {
		return fmt.Errorf("start job %s: %w", jobID, err)
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return fmt.Errorf("save job %s: %w", jobID, err)
	}

	logger := s.logger.With(slog.String("job_id", jobID))

	result, runErr := s.run(ctx, jobID, params, logger)
	if runErr != nil {
		retryable := pipeline.Retryable(runErr)
		logger.Error("video generation failed",
			slog.Any("error", runErr),
			slog.Bool("retryable", retryable),
		)
		if err := j.Fail(runErr.Error(), retryable); err != nil {
			return fmt.Errorf("fail job %s: %w", jobID, err)
		}
		if err := s.repo.Save(ctx, j); err != nil {
			return fmt.Errorf("save job %s: %w", jobID, err)
		}
		return runErr
	}

	logger.Info("video generation completed",
		slog.String("video_url", result.VideoURL),
		slog.Bool("used_fallback", result.UsedFallback),
	)
	if err := j.Complete(result.VideoURL, result.UsedFallback); err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	return s.repo.Save(ctx, j)
}

// run materializes the avatar image (if any), selects the pipeline variant
// and executes it. The decoded image is scratch owned by this call.
func (s *GenerateVideoService) run(ctx context.Context, jobID string, params GenerateParams, logger *slog.Logger) (pipeline.Result, error) {
	req := pipeline.Request{
		SourceText: params.SourceText,
		AvatarID:   params.AvatarID,
		Voice:      params.Voice,
	}

	if params.ImageBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(params.ImageBase64)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
		}
		path, err := s.store.SaveScratch(ctx, fmt.Sprintf("avatar_%s.png", jobID), bytes.NewReader(raw))
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("save avatar image: %w", err)
		}
		defer func() {
			if err := s.store.CleanupScratch(context.WithoutCancel(ctx), []string{path}); err != nil {
				logger.Warn("avatar image cleanup failed", slog.Any("error", err))
			}
		}()
		req.AvatarImagePath = path
	}

	p, err := s.selector.For(req)
	if err != nil {
		return pipeline.Result{}, err
	}

	return p.Generate(ctx, req)
}
