package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Static errors for the speech client.
var (
	// ErrBaseURLRequired is returned when the synthesis endpoint URL is not provided.
	ErrBaseURLRequired = errors.New("speech: base URL is required")
	// ErrAPIKeyNotSet is returned when no API key is provided and
	// SPEECH_API_KEY is not set.
	ErrAPIKeyNotSet = errors.New("speech: SPEECH_API_KEY environment variable is not set")
	// ErrEmptyText is returned when synthesis is requested for empty text.
	ErrEmptyText = errors.New("speech: text must be non-empty")
	// ErrRequestFailed is returned when the provider rejects the request.
	ErrRequestFailed = errors.New("speech: request failed")
	// ErrEmptyAudio is returned when the provider returns no audio bytes.
	ErrEmptyAudio = errors.New("speech: provider returned empty audio")
)

const (
	defaultLanguageCode  = "en-US"
	defaultAudioEncoding = "MP3"
)

// synthesizeRequest is the request body sent to the synthesis provider.
type synthesizeRequest struct {
	Text          string `json:"text"`
	VoiceName     string `json:"voiceName"`
	LanguageCode  string `json:"languageCode"`
	AudioEncoding string `json:"audioEncoding"`
}

// HTTPSynthesizer is the HTTP implementation of the Synthesizer interface.
// The provider responds with raw audio bytes.
type HTTPSynthesizer struct {
	apiKey     string
	baseURL    string
	scratchDir string
	httpClient *http.Client
	prober     DurationProber
	logger     *slog.Logger
}

// ClientOption is a function that configures an HTTPSynthesizer.
type ClientOption func(*HTTPSynthesizer)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) ClientOption {
	return func(s *HTTPSynthesizer) {
		s.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *HTTPSynthesizer) {
		s.httpClient = c
	}
}

// WithLogger sets the logger for duration-probe warnings.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(s *HTTPSynthesizer) {
		s.logger = logger
	}
}

// NewHTTPSynthesizer creates a new speech synthesis client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable SPEECH_API_KEY.
// Synthesized audio is written to uniquely-named files in scratchDir.
// The prober measures audio durations; see MeasureDuration.
func NewHTTPSynthesizer(baseURL, scratchDir string, prober DurationProber, opts ...ClientOption) (*HTTPSynthesizer, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	s := &HTTPSynthesizer{
		baseURL:    baseURL,
		scratchDir: scratchDir,
		// Providers can be slow on long summaries; generous fixed timeout.
		httpClient: &http.Client{Timeout: 300 * time.Second},
		prober:     prober,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.apiKey == "" {
		s.apiKey = os.Getenv("SPEECH_API_KEY")
	}

	if s.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return s, nil
}

// Synthesize converts text into an MP3 file in the scratch directory.
// Provider errors (quota, network, invalid credentials) are fatal for the
// run and are not retried at this layer.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) (Artifact, error) {
	if text == "" {
		return Artifact{}, ErrEmptyText
	}

	voiceName, err := resolveVoiceName(voice)
	if err != nil {
		return Artifact{}, err
	}

	reqBody := synthesizeRequest{
		Text:          text,
		VoiceName:     voiceName,
		LanguageCode:  defaultLanguageCode,
		AudioEncoding: defaultAudioEncoding,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Artifact{}, fmt.Errorf("speech: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return Artifact{}, fmt.Errorf("speech: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Artifact{}, fmt.Errorf("speech: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Artifact{}, fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Artifact{}, fmt.Errorf("speech: read response: %w", err)
	}
	if len(audio) == 0 {
		return Artifact{}, ErrEmptyAudio
	}

	// Fresh unique name per run; concurrent runs must not collide.
	path := filepath.Join(s.scratchDir, fmt.Sprintf("speech_%s.mp3", uuid.NewString()))
	if err := os.WriteFile(path, audio, 0600); err != nil {
		return Artifact{}, fmt.Errorf("speech: write audio file: %w", err)
	}

	return Artifact{Path: path}, nil
}

// MeasureDuration probes the artifact's duration via the injected prober.
// Probe failures degrade to DefaultDurationSeconds instead of failing the
// pipeline; duration only controls video length.
func (s *HTTPSynthesizer) MeasureDuration(ctx context.Context, artifact Artifact) float64 {
	duration, err := s.prober.ProbeDuration(ctx, artifact.Path)
	if err != nil || duration <= 0 {
		s.logger.Warn("audio duration probe failed, using default",
			slog.String("path", artifact.Path),
			slog.Float64("default_seconds", DefaultDurationSeconds),
			slog.Any("error", err),
		)
		return DefaultDurationSeconds
	}
	return duration
}

// Verify interface implementation at compile time.
var _ Synthesizer = (*HTTPSynthesizer)(nil)
