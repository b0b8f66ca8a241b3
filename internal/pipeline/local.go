package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pressroom/anchor-api/internal/lipsync"
	"github.com/pressroom/anchor-api/internal/media"
	"github.com/pressroom/anchor-api/internal/speech"
	"github.com/pressroom/anchor-api/internal/storage"
)

// LocalPipeline builds the anchor video locally from a still avatar image:
// synthesize speech, compose a baseline video, lip-sync it at the provider,
// and degrade to a procedural animation when lip-sync is unavailable.
type LocalPipeline struct {
	synth    speech.Synthesizer
	composer media.Composer
	store    storage.Storage
	lipsync  lipsync.Client
	poller   *Poller
	logger   *slog.Logger
}

// NewLocalPipeline creates a LocalPipeline. All collaborators are injected;
// the pipeline holds no global state and one instance serves concurrent runs.
func NewLocalPipeline(
	synth speech.Synthesizer,
	composer media.Composer,
	store storage.Storage,
	lipsyncClient lipsync.Client,
	poller *Poller,
	logger *slog.Logger,
) *LocalPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalPipeline{
		synth:    synth,
		composer: composer,
		store:    store,
		lipsync:  lipsyncClient,
		poller:   poller,
		logger:   logger,
	}
}

// Generate runs the full local pipeline for one request.
//
// Scratch artifacts (the synthesized audio and the baseline video) are
// deleted on every exit path, including errors; the deferred cleanup uses a
// detached context so cancellation cannot leak files.
func (p *LocalPipeline) Generate(ctx context.Context, req Request) (Result, error) {
	var scratch []string
	defer func() {
		if err := p.store.CleanupScratch(context.WithoutCancel(ctx), scratch); err != nil {
			p.logger.Warn("scratch cleanup incomplete", slog.Any("error", err))
		}
	}()

	// Stage 1: speech synthesis. Fatal on error; no video without audio.
	audio, err := p.synth.Synthesize(ctx, req.SourceText, req.Voice)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSpeechSynthesis, err)
	}
	scratch = append(scratch, audio.Path)

	// Stage 2: duration. Degrades internally to a default; never fails.
	audio.DurationSeconds = p.synth.MeasureDuration(ctx, audio)

	// Stage 3: baseline composition. Deterministic; fatal on error.
	baselinePath, err := p.composer.ComposeFromImage(ctx, req.AvatarImagePath, audio.Path, audio.DurationSeconds)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrComposition, err)
	}
	scratch = append(scratch, baselinePath)

	p.logger.Info("baseline video composed",
		slog.Float64("duration_sec", audio.DurationSeconds),
		slog.String("baseline", filepath.Base(baselinePath)),
	)

	// Stage 4: lip-sync attempt.
	resultURL, lipErr := p.attemptLipSync(ctx, baselinePath, audio.Path)
	if lipErr == nil {
		return Result{VideoURL: resultURL, UsedFallback: false}, nil
	}

	// Only lip-sync failures and timeouts degrade to the fallback; anything
	// else (upload failures, cancellation) aborts the run.
	switch {
	case errors.Is(lipErr, ErrLipSyncTimeout):
		p.logger.Warn("lip-sync polling budget exhausted, using fallback animation",
			slog.Any("error", lipErr),
		)
	case errors.Is(lipErr, ErrLipSync):
		p.logger.Warn("lip-sync provider failed, using fallback animation",
			slog.Any("error", lipErr),
		)
	default:
		return Result{}, lipErr
	}

	// Stage 5: procedural fallback. No further degradation below this.
	fallbackURL, err := p.runFallback(ctx, baselinePath, &scratch)
	if err != nil {
		return Result{}, err
	}
	return Result{VideoURL: fallbackURL, UsedFallback: true}, nil
}

// attemptLipSync uploads the baseline video and audio, submits the lip-sync
// job and polls it to a terminal state. The two uploads are independent and
// run concurrently.
func (p *LocalPipeline) attemptLipSync(ctx context.Context, videoPath, audioPath string) (string, error) {
	runKey := uuid.NewString()
	var videoURL, audioURL string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := p.store.UploadFile(gctx, fmt.Sprintf("inputs/%s/baseline.mp4", runKey), videoPath)
		if err != nil {
			return fmt.Errorf("%w: baseline video: %w", ErrUpload, err)
		}
		videoURL = u
		return nil
	})
	g.Go(func() error {
		u, err := p.store.UploadFile(gctx, fmt.Sprintf("inputs/%s/speech.mp3", runKey), audioPath)
		if err != nil {
			return fmt.Errorf("%w: audio: %w", ErrUpload, err)
		}
		audioURL = u
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	jobID, err := p.lipsync.Submit(ctx, videoURL, audioURL, lipsync.DefaultSubmitOptions())
	if err != nil {
		return "", fmt.Errorf("%w: submit: %w", ErrLipSync, err)
	}

	p.logger.Info("lip-sync job submitted", slog.String("lipsync_job_id", jobID))

	var resultURL string
	pollErr := p.poller.Run(ctx, func(ctx context.Context, attempt int) (bool, error) {
		res, err := p.lipsync.Poll(ctx, jobID)
		if err != nil {
			return false, fmt.Errorf("%w: poll: %w", ErrLipSync, err)
		}

		switch res.Status {
		case lipsync.StatusCompleted:
			// A completed status without a result URL is a partial provider
			// response; keep polling rather than declaring success.
			if res.OutputURL == "" {
				p.logger.Debug("lip-sync completed without result URL, still polling",
					slog.String("lipsync_job_id", jobID),
					slog.Int("attempt", attempt),
				)
				return false, nil
			}
			resultURL = res.OutputURL
			return true, nil
		case lipsync.StatusFailed, lipsync.StatusRejected, lipsync.StatusCanceled, lipsync.StatusTimedOut:
			return false, fmt.Errorf("%w: provider reported %s: %s", ErrLipSync, res.Status, res.Error)
		default:
			return false, nil
		}
	})

	if pollErr != nil {
		if errors.Is(pollErr, ErrAttemptsExhausted) {
			return "", fmt.Errorf("%w: job %s: %w", ErrLipSyncTimeout, jobID, pollErr)
		}
		return "", pollErr
	}

	return resultURL, nil
}

// runFallback animates the baseline video and uploads it. Errors here fail
// the whole run; the fallback never fails soft.
func (p *LocalPipeline) runFallback(ctx context.Context, baselinePath string, scratch *[]string) (string, error) {
	animatedPath, err := p.composer.AnimateFallback(ctx, baselinePath)
	if err != nil {
		return "", fmt.Errorf("%w: animate: %w", ErrFallback, err)
	}
	*scratch = append(*scratch, animatedPath)

	url, err := p.store.UploadFile(ctx, fmt.Sprintf("videos/%s/anchor.mp4", uuid.NewString()), animatedPath)
	if err != nil {
		// Keep ErrUpload in the chain so the failure stays classified as
		// retryable; a flaky bucket is not a broken animation.
		return "", fmt.Errorf("%w: %w: %w", ErrFallback, ErrUpload, err)
	}
	return url, nil
}

// Compile-time check that LocalPipeline implements VideoPipeline.
var _ VideoPipeline = (*LocalPipeline)(nil)
