package outbound

import (
	"context"
	"podcast-video-pipeline/domain"
)

// TrackCodecPort moves audio between compressed files on disk and in-memory
// PCM tracks. Load resamples to the pipeline's canonical rate and channel
// layout so every loaded track can be mixed with every other.
type TrackCodecPort interface {
	Load(ctx context.Context, path string) (*domain.Track, error)
	Export(ctx context.Context, track *domain.Track, path string) error
}
