package inbound

import (
	"context"
	"podcast-video-pipeline/config"
	"podcast-video-pipeline/domain"
)

type AssembleVideoParams struct {
	Profile       *config.Profile
	VoiceoverPath string
	WorkDir       string
	SpeakerFeeds  []domain.SpeakerFeed
}

// VideoAssemblerPort builds the five segments in their fixed order, then
// joins the ones that built into the final video. The two phases are split
// so the job runner can report them as distinct states.
type VideoAssemblerPort interface {
	BuildSegments(ctx context.Context, params AssembleVideoParams) ([]domain.VideoSegment, error)
	Concatenate(ctx context.Context, segments []domain.VideoSegment, outputPath string) (string, error)
}
