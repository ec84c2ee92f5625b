package outbound

import (
	"context"
	"podcast-video-pipeline/domain"
)

type GenerateConversationRequest struct {
	Topic    string
	Mood     string
	NumTurns int
	Speakers []domain.Speaker
}

// ConversationGeneratorPort produces a validated conversation schema for a
// topic, ready for per-turn audio rendering.
type ConversationGeneratorPort interface {
	Generate(ctx context.Context, req GenerateConversationRequest) (*domain.Conversation, error)
}
