package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pressroom/anchor-api/internal/job"
	"github.com/pressroom/anchor-api/internal/speech"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            *job.GenerateVideoService
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateVideo only records the job and returns; tests use
// this to assert on the created job without racing the pipeline.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.GenerateVideoService, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateVideo handles POST /videos requests. The job is recorded
// synchronously and processed in the background; the response is 202 with
// the job ID for polling.
func (h *Handlers) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req CreateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	// image_base64 and avatar_id select different pipelines; exactly one.
	if (req.ImageBase64 == "") == (req.AvatarID == "") {
		writeError(w, http.StatusBadRequest,
			"exactly one of image_base64 and avatar_id must be set", "VALIDATION_ERROR")
		return
	}

	params := job.GenerateParams{
		SourceText:  req.SourceText,
		ImageBase64: req.ImageBase64,
		AvatarID:    req.AvatarID,
		Voice:       requestVoice(req),
		InputRef:    req.InputRef,
	}

	createdJob, err := h.service.CreateJob(r.Context(), req.InputRef)
	if err != nil {
		h.logger.Error("failed to create job",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create job", "JOB_CREATION_FAILED")
		return
	}

	// Background processing must outlive the request; detach the context so
	// the client disconnecting does not cancel the pipeline.
	if h.enableAsyncProcess {
		go func(ctx context.Context, jobID string, p job.GenerateParams) {
			if processErr := h.service.ProcessJob(ctx, jobID, p); processErr != nil {
				h.logger.Error("background processing failed",
					slog.String("job_id", jobID),
					slog.String("error", processErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), createdJob.ID, params)
	}

	h.logger.Info("video job created",
		slog.String("job_id", createdJob.ID),
		slog.Bool("remote_avatar", req.AvatarID != ""),
	)

	writeJSON(w, http.StatusAccepted, CreateVideoResponse{
		ID:     createdJob.ID,
		Status: string(createdJob.Status),
	})
}

// GetVideo handles GET /videos/{id} requests.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get job", "JOB_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, videoResponse(foundJob))
}

// ListVideos handles GET /videos requests.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		h.logger.Error("failed to list jobs",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", "JOB_LIST_FAILED")
		return
	}

	resp := ListVideosResponse{Videos: make([]VideoResponse, 0, len(jobs))}
	for _, j := range jobs {
		resp.Videos = append(resp.Videos, videoResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestVoice maps the request's voice fields to the domain voice.
func requestVoice(req CreateVideoRequest) speech.Voice {
	v := speech.Voice{Selector: speech.VoiceMale, VoiceID: req.VoiceID}
	if req.Voice != "" {
		v.Selector = speech.Selector(req.Voice)
	}
	return v
}

// videoResponse maps a job to its API representation.
func videoResponse(j *job.VideoJob) VideoResponse {
	return VideoResponse{
		ID:           j.ID,
		Status:       string(j.Status),
		InputRef:     j.InputRef,
		VideoURL:     j.VideoURL,
		UsedFallback: j.UsedFallback,
		Error:        j.Error,
		Retryable:    j.Retryable,
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
