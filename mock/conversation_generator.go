package mock_providers

import (
	"context"
	"fmt"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/domain"
)

type mockConversationGenerator struct {
	logger outbound.LoggerPort
}

func NewMockConversationGenerator(logger outbound.LoggerPort) outbound.ConversationGeneratorPort {
	return &mockConversationGenerator{logger: logger}
}

// Generate fabricates a deterministic conversation: speakers alternate in
// roster order and every third turn carries a short reaction from the next
// speaker. Exercises the overlap path without touching any remote model.
func (m *mockConversationGenerator) Generate(ctx context.Context, req outbound.GenerateConversationRequest) (*domain.Conversation, error) {
	if len(req.Speakers) == 0 {
		return nil, fmt.Errorf("mock conversation needs at least one speaker")
	}

	numTurns := req.NumTurns
	if numTurns <= 0 {
		numTurns = 6
	}

	turns := make([]domain.ConversationTurn, 0, numTurns)
	for i := 0; i < numTurns; i++ {
		speaker := req.Speakers[i%len(req.Speakers)]
		turn := domain.ConversationTurn{
			Order:   i + 1,
			Speaker: speaker.Name,
			Text: fmt.Sprintf("This is %s with thought number %d about %s, keeping the discussion going.",
				speaker.Name, i+1, req.Topic),
		}
		if i%3 == 2 && len(req.Speakers) > 1 {
			reactor := req.Speakers[(i+1)%len(req.Speakers)]
			turn.OverlapWith = map[string]string{
				reactor.Name: "Oh, that is such a good point!",
			}
		}
		turns = append(turns, turn)
	}

	conversation := &domain.Conversation{
		Topic:    req.Topic,
		Mood:     req.Mood,
		Speakers: req.Speakers,
		Turns:    turns,
	}
	if err := conversation.Validate(); err != nil {
		return nil, err
	}

	m.logger.InfoWithFields("mock conversation generated", map[string]interface{}{
		"topic": req.Topic,
		"turns": len(turns),
	})
	return conversation, nil
}
