// Package pipeline implements the anchor video generation pipelines:
// a local variant that synthesizes speech, composes a baseline video and
// sends it to a lip-sync provider (with a procedural-animation fallback),
// and a remote variant that submits text directly to a hosted avatar
// provider. Both share one polling abstraction and one error taxonomy.
package pipeline

import (
	"context"

	"github.com/pressroom/anchor-api/internal/speech"
)

// Request is the immutable input to one pipeline run. Exactly one of
// AvatarImagePath and AvatarID must be set; it selects the variant.
type Request struct {
	// SourceText is the cleaned, length-bounded summary the anchor reads.
	SourceText string
	// AvatarImagePath is a local still image of the presenter (local variant).
	AvatarImagePath string
	// AvatarID is a provider-hosted avatar identifier (remote variant).
	AvatarID string
	// Voice selects the synthesis voice.
	Voice speech.Voice
}

// Result is the only externally visible success output of a run.
type Result struct {
	// VideoURL is the public URL of the generated video.
	VideoURL string
	// UsedFallback is true iff the lip-sync stage did not produce a result
	// and the procedural animation path was used instead.
	UsedFallback bool
}

// VideoPipeline generates an anchor video for one request.
type VideoPipeline interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Selector picks the pipeline variant by the shape of the avatar reference.
type Selector struct {
	// Local builds the video from a still image (compose + lip-sync).
	Local VideoPipeline
	// Remote calls the hosted avatar provider directly. May be nil when the
	// provider is not configured.
	Remote VideoPipeline
}

// For returns the pipeline that handles the request.
func (s Selector) For(req Request) (VideoPipeline, error) {
	if req.AvatarID != "" {
		if s.Remote == nil {
			return nil, ErrRemoteUnavailable
		}
		return s.Remote, nil
	}
	if req.AvatarImagePath != "" {
		return s.Local, nil
	}
	return nil, ErrNoAvatar
}
