package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pressroom/anchor-api/internal/avatar"
	"github.com/pressroom/anchor-api/internal/media"
	"github.com/pressroom/anchor-api/internal/speech"
)

// Provider-side voice identifiers used when the request does not carry an
// explicit voice ID.
const (
	remoteVoiceMale   = "2d5b0e6cf36f460aa7fc47e3eee4ba54"
	remoteVoiceFemale = "1bd001e7e50f421d891986aad5158bc8"
)

// RemotePipeline generates the anchor video at a hosted avatar provider:
// the provider does speech synthesis and rendering server-side, so the
// pipeline reduces to sanitize, submit, and poll with backoff.
type RemotePipeline struct {
	client avatar.Client
	poller *Poller
	logger *slog.Logger
}

// NewRemotePipeline creates a RemotePipeline.
func NewRemotePipeline(client avatar.Client, poller *Poller, logger *slog.Logger) *RemotePipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemotePipeline{
		client: client,
		poller: poller,
		logger: logger,
	}
}

// Generate submits the script to the avatar provider and polls until the
// video is ready. There is no fallback on this path: a provider failure
// fails the run, and an exhausted polling budget returns
// ErrProcessingTimeout because the provider may still finish later.
func (p *RemotePipeline) Generate(ctx context.Context, req Request) (Result, error) {
	script := SanitizeScript(req.SourceText)

	videoID, err := p.client.Generate(ctx, avatar.GenerateInput{
		AvatarID: req.AvatarID,
		Text:     script,
		VoiceID:  remoteVoiceID(req.Voice),
		Width:    media.DefaultWidth,
		Height:   media.DefaultHeight,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: submit: %w", ErrAvatarGeneration, err)
	}

	p.logger.Info("avatar job submitted",
		slog.String("avatar_video_id", videoID),
		slog.Int("script_chars", len(script)),
	)

	var resultURL string
	pollErr := p.poller.Run(ctx, func(ctx context.Context, attempt int) (bool, error) {
		res, err := p.client.Status(ctx, videoID)
		if err != nil {
			return false, fmt.Errorf("%w: status: %w", ErrAvatarGeneration, err)
		}

		switch res.Status {
		case avatar.StatusCompleted:
			if res.VideoURL == "" {
				// Completed without a URL is a partial provider response.
				return false, nil
			}
			// Providers report completed before the URL actually serves
			// bytes; gate success on a liveness probe and keep polling
			// until it answers.
			if err := p.client.CheckURL(ctx, res.VideoURL); err != nil {
				p.logger.Debug("result URL not live yet, still polling",
					slog.String("avatar_video_id", videoID),
					slog.Int("attempt", attempt),
					slog.Any("error", err),
				)
				return false, nil
			}
			resultURL = res.VideoURL
			return true, nil
		case avatar.StatusFailed:
			return false, fmt.Errorf("%w: provider reported failed: %s", ErrAvatarGeneration, res.Error)
		default:
			return false, nil
		}
	})

	if pollErr != nil {
		if errors.Is(pollErr, ErrAttemptsExhausted) {
			return Result{}, fmt.Errorf("%w: video %s: %w", ErrProcessingTimeout, videoID, pollErr)
		}
		return Result{}, pollErr
	}

	return Result{VideoURL: resultURL, UsedFallback: false}, nil
}

// remoteVoiceID maps the request voice onto a provider voice, preferring an
// explicit provider voice ID when the caller supplied one.
func remoteVoiceID(v speech.Voice) string {
	if v.VoiceID != "" {
		return v.VoiceID
	}
	if v.Selector == speech.VoiceFemale {
		return remoteVoiceFemale
	}
	return remoteVoiceMale
}

// Compile-time check that RemotePipeline implements VideoPipeline.
var _ VideoPipeline = (*RemotePipeline)(nil)
