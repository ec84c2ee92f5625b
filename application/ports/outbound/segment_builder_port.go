package outbound

import (
	"context"
	"podcast-video-pipeline/domain"
)

// SegmentBuilderPort composites one video segment to disk. The outcome is an
// explicit result, never a panic: a missing optional asset yields
// SegmentSkipped, a broken required input yields SegmentFailed with the
// cause attached.
type SegmentBuilderPort interface {
	Build(ctx context.Context, cfg domain.SegmentConfig) domain.SegmentResult
}
