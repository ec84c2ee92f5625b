package outbound

import (
	"context"
	"podcast-video-pipeline/domain"
)

// VideoConcatenatorPort applies the per-segment fade transitions and joins
// the segments, in ordinal order, into one output file.
type VideoConcatenatorPort interface {
	Concatenate(ctx context.Context, segments []domain.VideoSegment, outputPath string) (string, error)
}
