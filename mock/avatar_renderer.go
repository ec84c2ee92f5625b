package mock_providers

import (
	"context"
	"fmt"

	"podcast-video-pipeline/application/ports/outbound"
)

type mockAvatarRenderer struct {
	logger outbound.LoggerPort
}

func NewMockAvatarRenderer(logger outbound.LoggerPort) outbound.AvatarRendererPort {
	return &mockAvatarRenderer{logger: logger}
}

// Render always declines. The job runner treats avatar feeds as best-effort,
// so mock runs simply fall back to the plain intro variant.
func (m *mockAvatarRenderer) Render(ctx context.Context, req outbound.RenderAvatarRequest) (string, error) {
	m.logger.DebugWithFields("avatar rendering disabled in mock mode", map[string]interface{}{
		"avatar_id": req.AvatarID,
	})
	return "", fmt.Errorf("avatar rendering is disabled in mock mode")
}
