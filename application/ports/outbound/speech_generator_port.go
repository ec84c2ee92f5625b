package outbound

import "context"

type GenerateSpeechRequest struct {
	Text    string
	VoiceID string
}

// SpeechGeneratorPort renders one utterance to encoded audio bytes.
type SpeechGeneratorPort interface {
	Generate(ctx context.Context, req GenerateSpeechRequest) ([]byte, error)
}
