package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/config"
)

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelId       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechGenerator struct {
	ContentFetcher
	logger           outbound.LoggerPort
	elevenLabsConfig *config.ElevenLabsConfig
}

func NewSpeechGenerator(contentFetcher ContentFetcher, logger outbound.LoggerPort,
	elevenLabsConfig *config.ElevenLabsConfig) outbound.SpeechGeneratorPort {
	return &speechGenerator{
		ContentFetcher:   contentFetcher,
		logger:           logger,
		elevenLabsConfig: elevenLabsConfig,
	}
}

func (s *speechGenerator) Generate(ctx context.Context, req outbound.GenerateSpeechRequest) ([]byte, error) {
	httpReq, err := s.getRequest(ctx, req.Text, req.VoiceID)
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to construct the speech request", map[string]interface{}{
			"voice_id": req.VoiceID,
		})
		return nil, err
	}

	return s.FetchContent(httpReq)
}

func (s *speechGenerator) getRequest(ctx context.Context, text string, voiceID string) (*http.Request, error) {
	reqBody := elevenLabsRequest{
		Text:    text,
		ModelId: s.elevenLabsConfig.ModelId,
		VoiceSettings: voiceSettings{
			Stability:       s.elevenLabsConfig.Stability,
			SimilarityBoost: s.elevenLabsConfig.SimilarityBoost,
		},
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.elevenLabsConfig.ApiUrl+"/"+voiceID, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}

	req.Header.Add("Accept", "audio/mpeg")
	req.Header.Add("xi-api-key", s.elevenLabsConfig.ApiKey)
	req.Header.Add("Content-Type", "application/json")

	return req, nil
}
