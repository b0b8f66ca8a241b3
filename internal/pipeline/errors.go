package pipeline

import (
	"errors"

	"github.com/pressroom/anchor-api/internal/speech"
)

// Stage error taxonomy for pipeline runs. Each stage wraps its failures in
// the matching sentinel so the orchestrator and callers can branch with
// errors.Is.
var (
	// ErrSpeechSynthesis is returned when text-to-speech fails.
	// Fatal for the run; no video is possible without audio.
	ErrSpeechSynthesis = errors.New("pipeline: speech synthesis failed")
	// ErrUpload is returned when a durable media upload fails.
	ErrUpload = errors.New("pipeline: media upload failed")
	// ErrComposition is returned when baseline video rendering fails.
	// Composition is deterministic given the same inputs, so it is not retried.
	ErrComposition = errors.New("pipeline: baseline video composition failed")
	// ErrLipSync is returned when the lip-sync provider reports an explicit
	// failure. The orchestrator recovers by falling back to procedural animation.
	ErrLipSync = errors.New("pipeline: lip-sync job failed")
	// ErrLipSyncTimeout is returned when the lip-sync polling budget is
	// exhausted. Recovered the same way as ErrLipSync but logged differently.
	ErrLipSyncTimeout = errors.New("pipeline: lip-sync polling budget exhausted")
	// ErrFallback is returned when the procedural animation path fails.
	// There is no second fallback level; this fails the run.
	ErrFallback = errors.New("pipeline: fallback animation failed")
	// ErrAvatarGeneration is returned when the hosted avatar provider
	// reports an explicit failure.
	ErrAvatarGeneration = errors.New("pipeline: avatar generation failed")
	// ErrProcessingTimeout is returned when the hosted avatar job is still
	// processing after the polling budget. The job may still finish
	// server-side later; callers can surface "try refreshing".
	ErrProcessingTimeout = errors.New("pipeline: avatar job still processing after polling budget")
)

// Selection errors.
var (
	// ErrNoAvatar is returned when a request names neither an avatar image
	// nor a hosted avatar ID.
	ErrNoAvatar = errors.New("pipeline: request needs an avatar image or avatar ID")
	// ErrRemoteUnavailable is returned when a hosted avatar ID is requested
	// but the avatar provider is not configured.
	ErrRemoteUnavailable = errors.New("pipeline: hosted avatar provider is not configured")
)

// Retryable reports whether a pipeline error is worth retrying from the
// caller's point of view: network-flavored failures and timeouts where the
// provider may still finish. Bad input and missing configuration are not.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, speech.ErrUnknownVoice),
		errors.Is(err, speech.ErrEmptyText),
		errors.Is(err, ErrNoAvatar),
		errors.Is(err, ErrRemoteUnavailable):
		return false
	case errors.Is(err, ErrProcessingTimeout),
		errors.Is(err, ErrLipSyncTimeout),
		errors.Is(err, ErrUpload),
		errors.Is(err, ErrSpeechSynthesis):
		return true
	default:
		return false
	}
}
