// Package avatar provides an HTTP client for the hosted avatar video
// generation API (direct text-to-avatar-video, no local composition).
package avatar

// Status represents the status of a generation job at the avatar provider.
type Status string

// Avatar job statuses aligned with the provider API.
const (
	StatusPending    Status = "pending"
	StatusWaiting    Status = "waiting"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal returns true if the status is a terminal state.
// A completed job is only truly terminal once its video URL is fetchable;
// callers gate on CheckURL before treating completed as final.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// GenerateInput contains the parameters for a direct avatar generation request.
type GenerateInput struct {
	AvatarID string // Provider-hosted avatar identifier
	Text     string // Script the avatar reads aloud
	VoiceID  string // Provider voice identifier
	Width    int    // Output width in pixels
	Height   int    // Output height in pixels
}

// character is the presenter part of a video input.
type character struct {
	Type     string `json:"type"` // always "avatar"
	AvatarID string `json:"avatar_id"`
}

// voiceInput is the voice part of a video input.
type voiceInput struct {
	Type      string `json:"type"` // always "text"
	InputText string `json:"input_text"`
	VoiceID   string `json:"voice_id"`
}

// background is the scene background of a video input.
type background struct {
	Type  string `json:"type"` // "color"
	Value string `json:"value"`
}

// videoInput is one scene in a generate request.
type videoInput struct {
	Character  character  `json:"character"`
	Voice      voiceInput `json:"voice"`
	Background background `json:"background"`
}

// dimension is the output size of a generate request.
type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// generateRequest represents the request body for the generate endpoint.
type generateRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   dimension    `json:"dimension"`
}

// generateResponse represents the response from the generate endpoint.
type generateResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

// statusResponse represents the response from the video status endpoint.
type statusResponse struct {
	Data struct {
		Status   string    `json:"status"`
		VideoURL string    `json:"video_url,omitempty"`
		Error    *apiError `json:"error,omitempty"`
	} `json:"data"`
}

// apiError is the provider's error payload.
type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusResult contains the result of polling a job's status.
type StatusResult struct {
	Status   Status
	VideoURL string // Result video URL (only meaningful when Status is StatusCompleted)
	Error    string // Provider error message (only set when the job failed)
}
