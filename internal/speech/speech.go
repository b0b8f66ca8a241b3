// Package speech provides text-to-speech synthesis against a hosted neural
// voice provider, plus audio duration measurement.
package speech

import (
	"context"
	"errors"
	"fmt"
)

// DefaultDurationSeconds is the conservative duration assumed when probing an
// audio file fails. Duration is only used to match the video length, so a
// wrong-but-plausible value is less harmful than aborting the run.
const DefaultDurationSeconds = 30.0

// ErrUnknownVoice is returned when a voice selector has no mapping.
// This is a configuration error, not a runtime input error.
var ErrUnknownVoice = errors.New("speech: unknown voice selector")

// Selector picks one of the closed set of built-in anchor voices.
type Selector string

const (
	// VoiceMale is the male anchor voice.
	VoiceMale Selector = "male"
	// VoiceFemale is the female anchor voice.
	VoiceFemale Selector = "female"
)

// Voice identifies the synthesis voice for one request. When VoiceID is set
// it is passed through to the provider verbatim and Selector is ignored.
type Voice struct {
	Selector Selector
	VoiceID  string
}

// Artifact is a synthesized audio file owned by one pipeline run.
// The file is deleted when the run ends regardless of outcome.
type Artifact struct {
	// Path is the local scratch path of the audio file.
	Path string
	// DurationSeconds is the measured audio duration, zero until measured.
	DurationSeconds float64
}

// DurationProber measures the duration of a local media file.
// Implemented by media.FFmpegComposer.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Synthesizer converts cleaned text into an audio artifact. Input text must
// be non-empty and already cleaned by the caller; this component does not
// re-validate content quality.
type Synthesizer interface {
	// Synthesize converts text into an audio file in the scratch directory.
	Synthesize(ctx context.Context, text string, voice Voice) (Artifact, error)

	// MeasureDuration probes the artifact's duration. If probing fails for
	// any reason it returns DefaultDurationSeconds rather than an error.
	MeasureDuration(ctx context.Context, artifact Artifact) float64
}

// voiceNames maps the closed selector set to concrete provider voice names.
var voiceNames = map[Selector]string{
	VoiceMale:   "en-US-Neural2-D",
	VoiceFemale: "en-US-Neural2-F",
}

// resolveVoiceName maps a Voice to the provider voice identifier.
func resolveVoiceName(voice Voice) (string, error) {
	if voice.VoiceID != "" {
		return voice.VoiceID, nil
	}
	name, ok := voiceNames[voice.Selector]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVoice, voice.Selector)
	}
	return name, nil
}
