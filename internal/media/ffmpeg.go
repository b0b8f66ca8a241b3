package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Static errors for media operations.
var (
	// ErrInvalidDuration is returned when duration is not positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// FFmpegComposer implements Composer using the ffmpeg CLI.
type FFmpegComposer struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// scratchDir is where rendered videos are written.
	scratchDir string
}

// NewFFmpegComposer creates a new FFmpegComposer writing output files to
// scratchDir. If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegComposer(ffmpegPath, scratchDir string) *FFmpegComposer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegComposer{ffmpegPath: ffmpegPath, scratchDir: scratchDir}
}

// ComposeFromImage renders a still-image video of exactly the audio's
// duration. The image is scaled to 1920x1080 with aspect ratio preserved and
// black padding; audio is encoded as compressed stereo AAC.
func (c *FFmpegComposer) ComposeFromImage(ctx context.Context, imagePath, audioPath string, durationSec float64) (string, error) {
	if durationSec <= 0 {
		return "", fmt.Errorf("%w: got %.2f", ErrInvalidDuration, durationSec)
	}

	output := c.scratchPath("baseline", "mp4")

	// scale: fit within the target frame while maintaining aspect ratio
	// pad: black padding to center the image and reach exact dimensions
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,format=yuv420p",
		DefaultWidth, DefaultHeight, DefaultWidth, DefaultHeight,
	)

	args := []string{
		"-y",         // Overwrite output file without asking
		"-loop", "1", // Loop the input image
		"-i", imagePath, // Input image
		"-i", audioPath, // Input audio
		"-vf", filter, // Video filter
		"-t", fmt.Sprintf("%.2f", durationSec), // Duration in seconds
		"-r", fmt.Sprintf("%d", DefaultFPS), // Frame rate
		"-c:v", "libx264", // Video codec for wide compatibility
		"-preset", "fast", // Encoding speed preset
		"-pix_fmt", "yuv420p", // Pixel format for compatibility
		"-c:a", "aac", // Audio codec
		"-b:a", "192k", // Audio bitrate
		"-ac", "2", // Stereo
		"-shortest", // Stop at the shorter stream
		output,
	}

	if err := c.runFFmpeg(ctx, args); err != nil {
		return "", err
	}
	return output, nil
}

// AnimateFallback applies a fade-in, fade-out and slow zoom to the baseline
// video. The animation is deterministic given the same input.
func (c *FFmpegComposer) AnimateFallback(ctx context.Context, videoPath string) (string, error) {
	// Fade-out placement needs the real duration.
	duration, err := c.ProbeDuration(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("probe fallback input: %w", err)
	}

	output := c.scratchPath("fallback", "mp4")

	fadeOutStart := duration - 1.0
	if fadeOutStart < 0 {
		fadeOutStart = 0
	}

	// zoompan: gradual zoom from 1x to 1.2x across the clip
	// fade in over the first second, fade out over the last
	filter := fmt.Sprintf(
		"zoompan=z='min(zoom+0.0008,1.2)':d=1:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':s=%dx%d:fps=%d,fade=t=in:st=0:d=1,fade=t=out:st=%.2f:d=1,format=yuv420p",
		DefaultWidth, DefaultHeight, DefaultFPS, fadeOutStart,
	)

	args := []string{
		"-y",
		"-i", videoPath,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac", // Re-encode audio alongside the filtered video
		"-b:a", "192k",
		output,
	}

	if err := c.runFFmpeg(ctx, args); err != nil {
		return "", err
	}
	return output, nil
}

// ProbeDuration returns the duration in seconds of a media file.
// It uses ffprobe to extract the duration metadata.
func (c *FFmpegComposer) ProbeDuration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - path is provided by trusted internal code
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(stdout.String()), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}

	return duration, nil
}

// scratchPath builds a unique output path so concurrent runs never collide.
func (c *FFmpegComposer) scratchPath(prefix, ext string) string {
	return filepath.Join(c.scratchDir, fmt.Sprintf("%s_%s.%s", prefix, uuid.NewString(), ext))
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (c *FFmpegComposer) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// Verify interface implementation at compile time.
var _ Composer = (*FFmpegComposer)(nil)
