// Package job provides the VideoJob aggregate for anchor video generation
// requests. It includes the job entity with state machine transitions and the
// repository interface used to record results.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/pressroom/anchor-api/internal/job/id"
)

// Status represents the current state of a VideoJob.
type Status string

const (
	// StatusPending indicates the job has been accepted but processing has not started.
	StatusPending Status = "PENDING"
	// StatusProcessing indicates the generation pipeline is running.
	StatusProcessing Status = "PROCESSING"
	// StatusCompleted indicates the job finished with a playable video URL.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the pipeline failed with no usable output.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// VideoJob represents one anchor video generation request.
type VideoJob struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// InputRef identifies the source article or summary this video was
	// generated from. Opaque to the pipeline; stored alongside the result.
	InputRef string
	// VideoURL is the public URL of the generated video.
	VideoURL string
	// UsedFallback is true when the procedural animation path produced the
	// video instead of the lip-sync provider.
	UsedFallback bool
	// Error contains the failure message if the job failed.
	Error string
	// Retryable indicates whether the failure is worth retrying
	// (network-flavored or a timeout where the provider may still finish).
	Retryable bool
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when processing finished.
	CompletedAt time.Time
}

// New creates a new VideoJob with a generated ID and initial PENDING status.
func New(inputRef string) *VideoJob {
	now := time.Now()
	return &VideoJob{
		ID:        id.Generate(),
		Status:    StatusPending,
		InputRef:  inputRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewWithID creates a new VideoJob with the specified ID.
// Useful for testing or when the ID needs to be externally generated.
func NewWithID(jobID, inputRef string) *VideoJob {
	now := time.Now()
	return &VideoJob{
		ID:        jobID,
		Status:    StatusPending,
		InputRef:  inputRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *VideoJob) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusProcessing:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from PENDING to PROCESSING.
func (j *VideoJob) Start() error {
	return j.TransitionTo(StatusProcessing)
}

// Complete records the pipeline result and transitions the job to COMPLETED.
func (j *VideoJob) Complete(videoURL string, usedFallback bool) error {
	j.mu.Lock()
	j.VideoURL = videoURL
	j.UsedFallback = usedFallback
	j.mu.Unlock()
	return j.TransitionTo(StatusCompleted)
}

// Fail records the failure and transitions the job to FAILED.
// The retryable flag tells the caller whether offering a retry makes sense.
func (j *VideoJob) Fail(errMsg string, retryable bool) error {
	j.mu.Lock()
	j.Error = errMsg
	j.Retryable = retryable
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// GetStatus returns the current job status (thread-safe).
func (j *VideoJob) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job is in a terminal state.
func (j *VideoJob) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *VideoJob) Clone() *VideoJob {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &VideoJob{
		ID:           j.ID,
		Status:       j.Status,
		InputRef:     j.InputRef,
		VideoURL:     j.VideoURL,
		UsedFallback: j.UsedFallback,
		Error:        j.Error,
		Retryable:    j.Retryable,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
	}
}
