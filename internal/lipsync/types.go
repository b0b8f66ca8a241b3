// Package lipsync provides an HTTP client for the hosted lip-sync job API.
package lipsync

// Status represents the status of a lip-sync job at the provider.
type Status string

// Lip-sync job statuses aligned with the provider API.
const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusRejected   Status = "REJECTED"
	StatusCanceled   Status = "CANCELED"
	StatusTimedOut   Status = "TIMED_OUT"
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRejected, StatusCanceled, StatusTimedOut:
		return true
	default:
		return false
	}
}

// SubmitOptions contains the quality/format options posted with a submission.
type SubmitOptions struct {
	OutputFormat string // Output container (default: "mp4")
	SyncMode     string // Sync precision mode (default: "precise")
	FPS          int    // Output frame rate (default: 25)
	Resolution   string // Target resolution (default: "1080p")
}

// DefaultSubmitOptions returns the default options for submitting a job.
func DefaultSubmitOptions() SubmitOptions {
	return SubmitOptions{
		OutputFormat: "mp4",
		SyncMode:     "precise",
		FPS:          25,
		Resolution:   "1080p",
	}
}

// inputMedia is one media input in a generate request.
type inputMedia struct {
	Type string `json:"type"` // "video" or "audio"
	URL  string `json:"url"`
}

// requestOptions is the options field in a generate request.
type requestOptions struct {
	OutputFormat string `json:"output_format"`
	SyncMode     string `json:"sync_mode"`
	FPS          int    `json:"fps"`
	Resolution   string `json:"resolution"`
}

// generateRequest represents the request body for the provider's generate endpoint.
type generateRequest struct {
	Model   string         `json:"model"`
	Input   []inputMedia   `json:"input"`
	Options requestOptions `json:"options"`
}

// generateResponse represents the response from the generate endpoint.
type generateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// statusResponse represents the response from the status endpoint.
type statusResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	OutputURL string `json:"outputUrl,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PollResult contains the result of polling a job's status.
type PollResult struct {
	Status    Status
	OutputURL string // Result video URL (only meaningful when Status is StatusCompleted)
	Error     string // Provider error message (only set when the job failed)
}
