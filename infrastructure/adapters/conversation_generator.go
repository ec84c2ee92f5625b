package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/config"
	"podcast-video-pipeline/domain"

	"github.com/donovanhide/eventsource"
	"github.com/go-playground/validator/v10"
)

const DoneSignal = "[DONE]"
const MaxRetries = 3

type chatGptRequest struct {
	Stream   bool             `json:"stream"`
	Model    string           `json:"model"`
	Messages []chatGptMessage `json:"messages"`
}

type chatGptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatGptChunkBody struct {
	Choices []chatGptResponseChoice `json:"choices"`
}

type chatGptResponseChoice struct {
	Index int `json:"index"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type conversationGenerator struct {
	logger    outbound.LoggerPort
	gptConfig *config.GptConfig
	validate  *validator.Validate
}

func NewConversationGenerator(gptConfig *config.GptConfig, logger outbound.LoggerPort) outbound.ConversationGeneratorPort {
	return &conversationGenerator{
		logger:    logger,
		gptConfig: gptConfig,
		validate:  validator.New(),
	}
}

// Generate streams a model completion and parses it into a conversation.
// A syntactically broken completion is regenerated from scratch; the model
// occasionally wraps the JSON in a code fence, which is stripped before
// parsing.
func (g *conversationGenerator) Generate(ctx context.Context, req outbound.GenerateConversationRequest) (*domain.Conversation, error) {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		raw, err := g.streamCompletion(ctx, req)
		if err != nil {
			return nil, err
		}

		conversation, err := g.parseConversation(raw, req)
		if err != nil {
			g.logger.WarnWithFields("discarding unparseable completion", map[string]interface{}{
				"attempt": attempt,
				"topic":   req.Topic,
			})
			lastErr = err
			continue
		}
		return conversation, nil
	}
	return nil, fmt.Errorf("no valid conversation after %d attempts: %w", MaxRetries, lastErr)
}

func (g *conversationGenerator) streamCompletion(ctx context.Context, req outbound.GenerateConversationRequest) (string, error) {
	httpReq, err := g.createRequest(ctx, req)
	if err != nil {
		g.logger.Error(err, "failed to create HTTP request for conversation stream")
		return "", err
	}

	stream, err := eventsource.SubscribeWithRequest("", httpReq)
	if err != nil {
		g.logger.Error(err, "failed to subscribe to conversation stream")
		return "", err
	}

	var sb strings.Builder
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev := <-stream.Events:
			if ev.Data() == DoneSignal {
				return sb.String(), nil
			}
			payload, err := g.extractPayload(ev)
			if err != nil {
				return "", err
			}
			sb.WriteString(payload)
			retryCount = 0
		case err := <-stream.Errors:
			if err == io.EOF {
				return sb.String(), nil
			}
			if retryCount < MaxRetries {
				g.logger.ErrorWithFields(err, "error occurred during streaming, retrying", map[string]interface{}{
					"retry_count": retryCount})
				retryCount++
				continue
			}
			g.logger.Error(err, "error occurred during streaming, max retries reached")
			return "", err
		}
	}
}

func (g *conversationGenerator) extractPayload(event eventsource.Event) (string, error) {
	var chunkBody chatGptChunkBody
	if err := json.Unmarshal([]byte(event.Data()), &chunkBody); err != nil {
		g.logger.Error(err, "failed to unmarshal event data")
		return "", err
	}
	if len(chunkBody.Choices) == 0 {
		return "", nil
	}
	return chunkBody.Choices[0].Delta.Content, nil
}

func (g *conversationGenerator) parseConversation(raw string, req outbound.GenerateConversationRequest) (*domain.Conversation, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("completion contains no JSON object")
	}

	var schema domain.ConversationSchema
	if err := json.Unmarshal([]byte(raw[start:end+1]), &schema); err != nil {
		return nil, err
	}

	conversation := schema.Conversation
	if conversation.Topic == "" {
		conversation.Topic = req.Topic
	}
	if conversation.Mood == "" {
		conversation.Mood = req.Mood
	}
	// The model is prompted with the roster but may drop voice IDs; the
	// request's declaration is authoritative.
	conversation.Speakers = req.Speakers

	if err := g.validate.Struct(&conversation); err != nil {
		return nil, err
	}
	if err := conversation.Validate(); err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (g *conversationGenerator) createRequest(ctx context.Context, req outbound.GenerateConversationRequest) (*http.Request, error) {
	names := make([]string, 0, len(req.Speakers))
	for _, s := range req.Speakers {
		names = append(names, fmt.Sprintf("%s (%s)", s.Name, s.Personality))
	}

	promptMessage := chatGptMessage{
		Role: "system",
		Content: fmt.Sprintf("Write a podcast conversation between the hosts %s "+
			"on the topic: %s. The overall mood is %s.\n"+
			"Respond with ONLY a JSON object of the shape:\n"+
			`{"conversation": {"topic": "...", "mood": "...", "turns": `+
			`[{"order": 1, "speaker": "...", "text": "...", "overlap_with": {"<other speaker>": "<short reaction>"}}]}}`+"\n"+
			"Rules:\n"+
			"- Exactly %d turns, with order starting at 1 and increasing by 1\n"+
			"- overlap_with is optional and holds at most one short spoken reaction by a DIFFERENT speaker\n"+
			"- Use only the listed speaker names\n"+
			"- No text outside the JSON object",
			strings.Join(names, ", "), req.Topic, req.Mood, req.NumTurns),
	}

	promptReq := chatGptRequest{
		Stream:   true,
		Model:    g.gptConfig.Model,
		Messages: []chatGptMessage{promptMessage},
	}

	payloadBytes, err := json.Marshal(promptReq)
	if err != nil {
		g.logger.Error(err, "failed to marshal the request body")
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.gptConfig.ApiUrl, bytes.NewBuffer(payloadBytes))
	if err != nil {
		g.logger.Error(err, "failed to create the HTTP request")
		return nil, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+g.gptConfig.ApiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return httpReq, nil
}
