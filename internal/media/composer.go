// Package media provides baseline video composition and procedural fallback
// animation on top of a command-line encoder.
package media

import "context"

// Output characteristics for composed videos. 1920x1080 H.264/AAC is the
// widest-compatibility target for player embeds and the lip-sync provider.
const (
	// DefaultWidth is the output video width in pixels.
	DefaultWidth = 1920
	// DefaultHeight is the output video height in pixels.
	DefaultHeight = 1080
	// DefaultFPS is the output frame rate.
	DefaultFPS = 25
)

// Composer defines the interface for baseline video operations.
// Implementations should use ffmpeg or similar tools for media manipulation.
type Composer interface {
	// ComposeFromImage renders a baseline video that holds a single still
	// image for the full duration and muxes in the audio track. The output
	// duration equals the audio duration. Returns the path to the rendered
	// video, a fresh uniquely-named file in the scratch directory.
	ComposeFromImage(ctx context.Context, imagePath, audioPath string, durationSec float64) (videoPath string, err error)

	// AnimateFallback applies a deterministic, inexpensive procedural
	// animation (fade-in, fade-out, slow zoom) to a baseline video.
	// Returns the path to the animated video in the scratch directory.
	AnimateFallback(ctx context.Context, videoPath string) (outPath string, err error)

	// ProbeDuration returns the duration in seconds of a media file.
	ProbeDuration(ctx context.Context, path string) (float64, error)
}
