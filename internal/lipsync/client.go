package lipsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Static errors for lip-sync client operations.
var (
	// ErrAPIKeyNotSet is returned when the LIPSYNC_API_KEY environment variable is not set.
	ErrAPIKeyNotSet = errors.New("lipsync: LIPSYNC_API_KEY environment variable is not set")
	// ErrJobIDRequired is returned when the job ID is not provided.
	ErrJobIDRequired = errors.New("lipsync: job ID is required")
	// ErrNoJobIDReturned is returned when the submit response contains no job ID.
	// A malformed submission response indicates a contract violation, not a
	// transient fault, so it is not retried.
	ErrNoJobIDReturned = errors.New("lipsync: submit failed: no job ID returned")
	// ErrSubmitFailed is returned when the submit operation fails.
	ErrSubmitFailed = errors.New("lipsync: submit failed")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("lipsync: server error")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("lipsync: rate limited")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("lipsync: request failed")
)

// defaultModel is the provider's lip-sync model identifier.
const defaultModel = "lipsync-2"

// Client defines the interface for interacting with the lip-sync job API.
type Client interface {
	// Submit posts the baseline video and audio URLs plus format options
	// and returns the provider's job ID.
	Submit(ctx context.Context, videoURL, audioURL string, opts SubmitOptions) (jobID string, err error)

	// Poll checks the status of a job and returns the result.
	Poll(ctx context.Context, jobID string) (PollResult, error)
}

// HTTPClient is the HTTP implementation of the lip-sync Client interface.
type HTTPClient struct {
	apiKey      string
	baseURL     string
	model       string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
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

// WithBaseURL sets a custom base URL for the lip-sync API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = url
	}
}

// WithModel sets the provider model identifier.
func WithModel(model string) ClientOption {
	return func(hc *HTTPClient) {
		hc.model = model
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(hc *HTTPClient) {
		hc.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseBackoff = d
	}
}

// NewClient creates a new lip-sync HTTP client.
// The API key can be set via the WithAPIKey option. If not provided,
// it is read from the environment variable LIPSYNC_API_KEY.
func NewClient(opts ...ClientOption) (*HTTPClient, error) {
	c := &HTTPClient{
		baseURL:     "https://api.sync.so/v2",
		model:       defaultModel,
		httpClient:  &http.Client{Timeout: 300 * time.Second},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
	}

	// Apply options first to allow WithAPIKey to set the API key
	for _, opt := range opts {
		opt(c)
	}

	// If API key was not set via option, try environment variable
	if c.apiKey == "" {
		c.apiKey = os.Getenv("LIPSYNC_API_KEY")
	}

	if c.apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	return c, nil
}

// Submit sends a lip-sync job and returns the job ID.
func (c *HTTPClient) Submit(ctx context.Context, videoURL, audioURL string, opts SubmitOptions) (string, error) {
	// Apply defaults if not set
	if opts.OutputFormat == "" {
		opts.OutputFormat = "mp4"
	}
	if opts.SyncMode == "" {
		opts.SyncMode = "precise"
	}
	if opts.FPS == 0 {
		opts.FPS = 25
	}
	if opts.Resolution == "" {
		opts.Resolution = "1080p"
	}

	reqBody := generateRequest{
		Model: c.model,
		Input: []inputMedia{
			{Type: "video", URL: videoURL},
			{Type: "audio", URL: audioURL},
		},
		Options: requestOptions{
			OutputFormat: opts.OutputFormat,
			SyncMode:     opts.SyncMode,
			FPS:          opts.FPS,
			Resolution:   opts.Resolution,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("lipsync: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/generate", c.baseURL)

	var resp generateResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, url, bodyBytes, &resp); err != nil {
		return "", err
	}

	if resp.ID == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrSubmitFailed, resp.Error)
		}
		return "", ErrNoJobIDReturned
	}

	return resp.ID, nil
}

// Poll checks the status of a job and returns the result.
func (c *HTTPClient) Poll(ctx context.Context, jobID string) (PollResult, error) {
	if jobID == "" {
		return PollResult{}, ErrJobIDRequired
	}

	url := fmt.Sprintf("%s/generate/%s", c.baseURL, jobID)

	var resp statusResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return PollResult{}, err
	}

	result := PollResult{
		Status: Status(resp.Status),
	}

	switch result.Status {
	case StatusCompleted:
		result.OutputURL = resp.OutputURL
	case StatusFailed, StatusRejected, StatusCanceled, StatusTimedOut:
		result.Error = resp.Error
	}

	return result, nil
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("lipsync: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}

		err := c.doRequest(ctx, method, url, body, result)
		if err == nil {
			return nil
		}

		// Check if error is retryable
		if !isRetryable(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("lipsync: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("lipsync: create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("lipsync: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("lipsync: read response: %w", err)}
	}

	// Handle non-2xx status codes
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 5xx errors are retryable
		if resp.StatusCode >= 500 {
			return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
		}
		// 429 (rate limit) is retryable
		if resp.StatusCode == 429 {
			return &retryableError{err: fmt.Errorf("%w: %s", ErrRateLimited, string(respBody))}
		}
		// Other errors are not retryable
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("lipsync: unmarshal response: %w", err)
		}
	}

	return nil
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
