package job

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/pressroom/anchor-api/internal/pipeline"
	"github.com/pressroom/anchor-api/internal/speech"
)

// fakePipeline implements pipeline.VideoPipeline.
type fakePipeline struct {
	result pipeline.Result
	err    error
	got    pipeline.Request
	calls  int
}

func (f *fakePipeline) Generate(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	f.got = req
	f.calls++
	if f.err != nil {
		return pipeline.Result{}, f.err
	}
	return f.result, nil
}

// stubStorage implements storage.Storage for scratch bookkeeping.
type stubStorage struct {
	savedPath string
	saveErr   error
	cleaned   []string
}

func (s *stubStorage) SaveScratch(_ context.Context, name string, _ io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.savedPath = "/scratch/" + name
	return s.savedPath, nil
}

func (s *stubStorage) CleanupScratch(_ context.Context, paths []string) error {
	s.cleaned = append(s.cleaned, paths...)
	return nil
}

func (s *stubStorage) UploadFile(_ context.Context, _, _ string) (string, error) {
	return "", errors.New("not used in service tests")
}

func newTestService(local, remote *fakePipeline) (*GenerateVideoService, *MemoryRepository, *stubStorage) {
	repo := NewMemoryRepository()
	store := &stubStorage{}
	selector := pipeline.Selector{}
	if local != nil {
		selector.Local = local
	}
	if remote != nil {
		selector.Remote = remote
	}
	svc := NewGenerateVideoService(repo, selector, store, nil)
	return svc, repo, store
}

func imageParams() GenerateParams {
	return GenerateParams{
		SourceText:  "Markets rallied today.",
		ImageBase64: base64.StdEncoding.EncodeToString([]byte("fake-png-bytes")),
		Voice:       speech.Voice{Selector: speech.VoiceMale},
		InputRef:    "article-1",
	}
}

func TestGenerateVideoService_CreateJob(t *testing.T) {
	svc, repo, _ := newTestService(&fakePipeline{}, nil)
	ctx := context.Background()

	j, err := svc.CreateJob(ctx, "article-1")
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if j.Status != StatusPending {
		t.Errorf("expected PENDING, got %s", j.Status)
	}
	if j.InputRef != "article-1" {
		t.Errorf("expected InputRef article-1, got %s", j.InputRef)
	}

	saved, err := repo.FindByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("job should be saved: %v", err)
	}
	if saved.ID != j.ID {
		t.Errorf("saved job ID mismatch: %s vs %s", saved.ID, j.ID)
	}
}

func TestGenerateVideoService_ProcessJob_LocalSuccess(t *testing.T) {
	local := &fakePipeline{result: pipeline.Result{VideoURL: "https://cdn.example.com/v.mp4", UsedFallback: true}}
	svc, repo, store := newTestService(local, nil)
	ctx := context.Background()

	j, _ := svc.CreateJob(ctx, "article-1")
	if err := svc.ProcessJob(ctx, j.ID, imageParams()); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}

	if local.calls != 1 {
		t.Fatalf("expected one pipeline run, got %d", local.calls)
	}
	if local.got.AvatarImagePath != store.savedPath {
		t.Errorf("pipeline should receive the scratch image path, got %q", local.got.AvatarImagePath)
	}
	if local.got.SourceText != "Markets rallied today." {
		t.Errorf("unexpected SourceText %q", local.got.SourceText)
	}

	done, err := repo.FindByID(ctx, j.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", done.Status)
	}
	if done.VideoURL != "https://cdn.example.com/v.mp4" {
		t.Errorf("unexpected VideoURL %s", done.VideoURL)
	}
	if !done.UsedFallback {
		t.Error("expected UsedFallback to be recorded on the job")
	}

	// The decoded avatar image is scratch owned by the service.
	if len(store.cleaned) != 1 || store.cleaned[0] != store.savedPath {
		t.Errorf("expected avatar image cleanup, got %v", store.cleaned)
	}
}

func TestGenerateVideoService_ProcessJob_RemoteSuccess(t *testing.T) {
	remote := &fakePipeline{result: pipeline.Result{VideoURL: "https://cdn.heygen.com/v.mp4"}}
	svc, repo, store := newTestService(&fakePipeline{}, remote)
	ctx := context.Background()

	j, _ := svc.CreateJob(ctx, "article-2")
	params := GenerateParams{
		SourceText: "The committee approved the proposal.",
		AvatarID:   "anchor-desk-1",
		InputRef:   "article-2",
	}
	if err := svc.ProcessJob(ctx, j.ID, params); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}

	if remote.calls != 1 {
		t.Fatalf("expected the remote pipeline to run, got %d calls", remote.calls)
	}
	if remote.got.AvatarID != "anchor-desk-1" {
		t.Errorf("unexpected AvatarID %q", remote.got.AvatarID)
	}

	done, _ := repo.FindByID(ctx, j.ID)
	if done.Status != StatusCompleted {
		t.Errorf("expected COMPLETED, got %s", done.Status)
	}
	if len(store.cleaned) != 0 {
		t.Errorf("no scratch to clean without an image, got %v", store.cleaned)
	}
}

func TestGenerateVideoService_ProcessJob_PipelineFailure(t *testing.T) {
	runErr := fmt.Errorf("%w: video av-1: gave up", pipeline.ErrProcessingTimeout)
	local := &fakePipeline{err: runErr}
	svc, repo, _ := newTestService(local, nil)
	ctx := context.Background()

	j, _ := svc.CreateJob(ctx, "article-3")
	err := svc.ProcessJob(ctx, j.ID, imageParams())
	if !errors.Is(err, pipeline.ErrProcessingTimeout) {
		t.Fatalf("expected the pipeline error back, got %v", err)
	}

	done, _ := repo.FindByID(ctx, j.ID)
	if done.Status != StatusFailed {
		t.Errorf("expected FAILED, got %s", done.Status)
	}
	if done.Error == "" {
		t.Error("expected the failure message to be recorded")
	}
	if !done.Retryable {
		t.Error("a processing timeout is retryable")
	}
}

func TestGenerateVideoService_ProcessJob_NonRetryableFailure(t *testing.T) {
	local := &fakePipeline{err: pipeline.ErrNoAvatar}
	svc, repo, _ := newTestService(local, nil)
	ctx := context.Background()

	j, _ := svc.CreateJob(ctx, "article-4")
	if err := svc.ProcessJob(ctx, j.ID, imageParams()); err == nil {
		t.Fatal("expected an error")
	}

	done, _ := repo.FindByID(ctx, j.ID)
	if done.Status != StatusFailed {
		t.Errorf("expected FAILED, got %s", done.Status)
	}
	if done.Retryable {
		t.Error("a request with no avatar is not retryable")
	}
}

func TestGenerateVideoService_ProcessJob_InvalidImage(t *testing.T) {
	local := &fakePipeline{}
	svc, repo, _ := newTestService(local, nil)
	ctx := context.Background()

	j, _ := svc.CreateJob(ctx, "article-5")
	params := imageParams()
	params.ImageBase64 = "not!!valid//base64"

	err := svc.ProcessJob(ctx, j.ID, params)
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	if local.calls != 0 {
		t.Error("pipeline must not run with an undecodable image")
	}

	done, _ := repo.FindByID(ctx, j.ID)
	if done.Status != StatusFailed {
		t.Errorf("expected FAILED, got %s", done.Status)
	}
	if done.Retryable {
		t.Error("a bad image payload is not retryable")
	}
}

func TestGenerateVideoService_ProcessJob_RemoteNotConfigured(t *testing.T) {
	svc, repo, _ := newTestService(&fakePipeline{}, nil)
	ctx := context.Background()

	j, _ := svc.CreateJob(ctx, "article-6")
	params := GenerateParams{SourceText: "text", AvatarID: "anchor-1"}

	err := svc.ProcessJob(ctx, j.ID, params)
	if !errors.Is(err, pipeline.ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}

	done, _ := repo.FindByID(ctx, j.ID)
	if done.Status != StatusFailed {
		t.Errorf("expected FAILED, got %s", done.Status)
	}
}

func TestGenerateVideoService_ProcessJob_UnknownJob(t *testing.T) {
	svc, _, _ := newTestService(&fakePipeline{}, nil)

	err := svc.ProcessJob(context.Background(), "vid-missing", imageParams())
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
