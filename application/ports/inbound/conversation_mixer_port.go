package inbound

import (
	"context"
	"podcast-video-pipeline/domain"
)

// OverlapPlacement records where one reaction clip was blended into the
// mixed track, for logging and verification.
type OverlapPlacement struct {
	TurnOrder  int
	Speaker    string
	PositionMs int
}

type MixResult struct {
	Track      *domain.Track
	Placements []OverlapPlacement
}

// ConversationMixerPort combines the per-turn clips in workDir into one
// continuous conversation track with natural overlap blending.
type ConversationMixerPort interface {
	Mix(ctx context.Context, conversation domain.Conversation, workDir string) (*MixResult, error)
}
