package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Static errors for avatar client operations.
var (
	// ErrAPIKeyNotSet is returned when the AVATAR_API_KEY environment variable is not set.
	ErrAPIKeyNotSet = errors.New("avatar: AVATAR_API_KEY environment variable is not set")
	// ErrVideoIDRequired is returned when the video ID is not provided.
	ErrVideoIDRequired = errors.New("avatar: video ID is required")
	// ErrNoVideoIDReturned is returned when the generate response contains no video ID.
	ErrNoVideoIDReturned = errors.New("avatar: generate failed: no video ID returned")
	// ErrGenerateFailed is returned when the generate operation fails.
	ErrGenerateFailed = errors.New("avatar: generate failed")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("avatar: request failed")
	// ErrURLNotLive is returned when a result URL does not answer a HEAD probe.
	ErrURLNotLive = errors.New("avatar: result URL is not fetchable")
)

// Client defines the interface for interacting with the avatar provider.
type Client interface {
	// Generate submits text + avatar + voice and returns the provider's video ID.
	Generate(ctx context.Context, input GenerateInput) (videoID string, err error)

	// Status checks the state of a previously submitted generation.
	Status(ctx context.Context, videoID string) (StatusResult, error)

	// CheckURL verifies that a result URL is actually fetchable.
	// A provider-reported completed status with an inaccessible URL is
	// observed to occur; callers treat that as not-yet-ready.
	CheckURL(ctx context.Context, rawURL string) error
}

// HTTPClient is the HTTP implementation of the avatar Client interface.
type HTTPClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) ClientOption {
	return func(hc *HTTPClient) {
		hc.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the avatar API.
func WithBaseURL(u string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = u
	}
}

// NewClient creates a new avatar HTTP client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable AVATAR_API_KEY.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:    "https://api.heygen.com",
		httpClient: &http.Client{Timeout: 300 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		c.apiKey = os.Getenv("AVATAR_API_KEY")
	}

	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// Generate submits a direct avatar video generation request.
func (c *HTTPClient) Generate(ctx context.Context, input GenerateInput) (string, error) {
	reqBody := generateRequest{
		VideoInputs: []videoInput{
			{
				Character: character{Type: "avatar", AvatarID: input.AvatarID},
				Voice:     voiceInput{Type: "text", InputText: input.Text, VoiceID: input.VoiceID},
				Background: background{
					Type:  "color",
					Value: "#1a1a2e", // Studio-dark backdrop behind the anchor
				},
			},
		},
		Dimension: dimension{Width: input.Width, Height: input.Height},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("avatar: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/video/generate", c.baseURL)

	var resp generateResponse
	if err := c.doRequest(ctx, http.MethodPost, endpoint, bodyBytes, &resp); err != nil {
		return "", err
	}

	if resp.Data.VideoID == "" {
		if resp.Error != nil && resp.Error.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrGenerateFailed, resp.Error.Message)
		}
		return "", ErrNoVideoIDReturned
	}

	return resp.Data.VideoID, nil
}

// Status checks the state of a generation job.
func (c *HTTPClient) Status(ctx context.Context, videoID string) (StatusResult, error) {
	if videoID == "" {
		return StatusResult{}, ErrVideoIDRequired
	}

	endpoint := fmt.Sprintf("%s/v1/video_status.get?video_id=%s", c.baseURL, url.QueryEscape(videoID))

	var resp statusResponse
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return StatusResult{}, err
	}

	result := StatusResult{
		Status:   Status(resp.Data.Status),
		VideoURL: resp.Data.VideoURL,
	}
	if resp.Data.Error != nil {
		result.Error = resp.Data.Error.Message
	}

	return result, nil
}

// CheckURL performs a HEAD request against a result URL.
func (c *HTTPClient) CheckURL(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("avatar: create liveness request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrURLNotLive, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrURLNotLive, resp.StatusCode)
	}

	return nil
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, endpoint string, body []byte, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("avatar: create request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("avatar: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("avatar: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("avatar: unmarshal response: %w", err)
		}
	}

	return nil
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
