// Package server provides the HTTP surface of the anchor video API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// CreateVideoRequest is the HTTP request body for generating an anchor video.
// Exactly one of image_base64 and avatar_id must be provided; the handler
// enforces the exclusivity on top of the struct tags.
type CreateVideoRequest struct {
	// SourceText is the article summary the anchor reads aloud.
	SourceText string `json:"source_text" validate:"required"`
	// ImageBase64 is a base64-encoded still image of the presenter.
	ImageBase64 string `json:"image_base64,omitempty" validate:"omitempty,base64"`
	// AvatarID is a provider-hosted avatar identifier.
	AvatarID string `json:"avatar_id,omitempty"`
	// Voice selects a built-in anchor voice. Defaults to male.
	Voice string `json:"voice,omitempty" validate:"omitempty,oneof=male female"`
	// VoiceID overrides Voice with a provider voice identifier.
	VoiceID string `json:"voice_id,omitempty"`
	// InputRef identifies the source article; stored with the job verbatim.
	InputRef string `json:"input_ref,omitempty"`
}

// CreateVideoResponse is the HTTP response after accepting a generation job.
type CreateVideoResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// VideoResponse is the HTTP response for job detail requests.
type VideoResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// InputRef identifies the source article.
	InputRef string `json:"input_ref,omitempty"`
	// VideoURL is the public URL of the generated video (when completed).
	VideoURL string `json:"video_url,omitempty"`
	// UsedFallback is true when the procedural animation produced the video.
	// Always serialized: false means the lip-synced path succeeded, which is
	// information, not absence.
	UsedFallback bool `json:"used_fallback"`
	// Error contains the failure message if the job failed.
	Error string `json:"error,omitempty"`
	// Retryable tells the caller whether resubmitting the request makes sense.
	Retryable bool `json:"retryable,omitempty"`
}

// ListVideosResponse is the HTTP response for listing jobs.
type ListVideosResponse struct {
	// Videos is the list of known jobs.
	Videos []VideoResponse `json:"videos"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
