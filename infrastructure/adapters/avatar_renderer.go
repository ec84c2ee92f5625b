package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/config"
	"podcast-video-pipeline/domain"
)

type heyGenGenerateRequest struct {
	VideoInputs []heyGenVideoInput `json:"video_inputs"`
	Test        bool               `json:"test"`
}

type heyGenVideoInput struct {
	Character heyGenCharacter `json:"character"`
	Voice     heyGenVoice     `json:"voice"`
}

type heyGenCharacter struct {
	Type     string `json:"type"`
	AvatarID string `json:"avatar_id"`
}

type heyGenVoice struct {
	Type      string `json:"type"`
	VoiceID   string `json:"voice_id"`
	InputText string `json:"input_text"`
}

type heyGenGenerateResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

type heyGenStatusResponse struct {
	Data struct {
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
		Error    *struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"data"`
}

type avatarRenderer struct {
	ContentFetcher
	logger       outbound.LoggerPort
	heyGenConfig *config.HeyGenConfig
}

func NewAvatarRenderer(contentFetcher ContentFetcher, logger outbound.LoggerPort,
	heyGenConfig *config.HeyGenConfig) outbound.AvatarRendererPort {
	return &avatarRenderer{
		ContentFetcher: contentFetcher,
		logger:         logger,
		heyGenConfig:   heyGenConfig,
	}
}

// Render submits the avatar job, polls until it reaches a terminal state and
// downloads the result to req.OutputPath. The poll window is bounded: when it
// elapses, domain.ErrRenderTimeout is returned and the remote job is left to
// finish or fail on its own.
func (a *avatarRenderer) Render(ctx context.Context, req outbound.RenderAvatarRequest) (string, error) {
	videoID, err := a.submit(ctx, req)
	if err != nil {
		return "", err
	}
	a.logger.InfoWithFields("avatar render submitted", map[string]interface{}{
		"video_id":  videoID,
		"avatar_id": req.AvatarID,
	})

	videoURL, err := a.awaitCompletion(ctx, videoID)
	if err != nil {
		return "", err
	}

	downloadReq, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return "", err
	}
	payload, err := a.FetchContent(downloadReq)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(req.OutputPath, payload, 0o644); err != nil {
		return "", err
	}
	return req.OutputPath, nil
}

func (a *avatarRenderer) submit(ctx context.Context, req outbound.RenderAvatarRequest) (string, error) {
	body := heyGenGenerateRequest{
		VideoInputs: []heyGenVideoInput{{
			Character: heyGenCharacter{Type: "avatar", AvatarID: req.AvatarID},
			Voice:     heyGenVoice{Type: "text", VoiceID: req.VoiceID, InputText: req.Text},
		}},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.heyGenConfig.ApiUrl+"/v2/video/generate", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("X-Api-Key", a.heyGenConfig.ApiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resPayload, err := a.FetchContent(httpReq)
	if err != nil {
		return "", err
	}

	var res heyGenGenerateResponse
	if err := json.Unmarshal(resPayload, &res); err != nil {
		return "", err
	}
	if res.Data.VideoID == "" {
		return "", fmt.Errorf("avatar render submission returned no video ID")
	}
	return res.Data.VideoID, nil
}

func (a *avatarRenderer) awaitCompletion(ctx context.Context, videoID string) (string, error) {
	deadline := time.Now().Add(a.heyGenConfig.PollTimeout)
	ticker := time.NewTicker(a.heyGenConfig.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return "", fmt.Errorf("avatar render %s: %w", videoID, domain.ErrRenderTimeout)
			}

			status, err := a.pollStatus(ctx, videoID)
			if err != nil {
				// Transient poll failures are retried until the window closes.
				a.logger.WarnWithFields("avatar status poll failed", map[string]interface{}{
					"video_id": videoID,
				})
				continue
			}

			switch status.Data.Status {
			case "completed":
				return status.Data.VideoURL, nil
			case "failed":
				message := "unknown"
				if status.Data.Error != nil {
					message = status.Data.Error.Message
				}
				return "", fmt.Errorf("avatar render %s failed remotely: %s", videoID, message)
			default:
				a.logger.DebugWithFields("avatar render still in progress", map[string]interface{}{
					"video_id": videoID,
					"status":   status.Data.Status,
				})
			}
		}
	}
}

func (a *avatarRenderer) pollStatus(ctx context.Context, videoID string) (*heyGenStatusResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.heyGenConfig.ApiUrl+"/v1/video_status.get?video_id="+videoID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("X-Api-Key", a.heyGenConfig.ApiKey)

	payload, err := a.FetchContent(httpReq)
	if err != nil {
		return nil, err
	}

	var res heyGenStatusResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
