package inbound

import (
	"context"
	"podcast-video-pipeline/domain"
)

// TurnAudioRendererPort renders every turn's main speech clip, and the
// reaction clip of every valid overlap, into workDir under the deterministic
// names the mixer expects.
type TurnAudioRendererPort interface {
	RenderAll(ctx context.Context, conversation domain.Conversation, workDir string) error
}
