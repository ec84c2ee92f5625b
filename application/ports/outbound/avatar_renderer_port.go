package outbound

import "context"

type RenderAvatarRequest struct {
	AvatarID string
	VoiceID  string
	Text     string
	// OutputPath is where the finished render is downloaded to.
	OutputPath string
}

// AvatarRendererPort submits a remote avatar render and blocks until the
// remote job reaches a terminal state, polling on a bounded schedule. A poll
// window that elapses without completion yields domain.ErrRenderTimeout.
type AvatarRendererPort interface {
	Render(ctx context.Context, req RenderAvatarRequest) (string, error)
}
