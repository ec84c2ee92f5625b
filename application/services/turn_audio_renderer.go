package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"podcast-video-pipeline/application/ports/inbound"
	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/domain"
)

// overlapTextPrefix is the marker the conversation generator puts in front
// of reaction lines; it is stripped before synthesis.
const overlapTextPrefix = "[overlap]"

type turnAudioRenderer struct {
	logger          outbound.LoggerPort
	speechGenerator outbound.SpeechGeneratorPort
	workerPool      outbound.TaskDispatcher
}

func NewTurnAudioRenderer(logger outbound.LoggerPort, speechGenerator outbound.SpeechGeneratorPort,
	workerPool outbound.TaskDispatcher) inbound.TurnAudioRendererPort {
	return &turnAudioRenderer{
		logger:          logger,
		speechGenerator: speechGenerator,
		workerPool:      workerPool,
	}
}

// RenderAll fans the per-turn synthesis out over the audio worker pool.
// A failed main clip is logged and left missing (the mixer skips the turn);
// a failed overlap clip only drops that overlap. Clips already on disk are
// kept, so a retried job does not re-bill the TTS provider.
func (r *turnAudioRenderer) RenderAll(ctx context.Context, conversation domain.Conversation, workDir string) error {
	var wg sync.WaitGroup

	for _, turn := range conversation.Turns {
		turn := turn

		wg.Add(1)
		err := r.workerPool.Submit(func() {
			defer wg.Done()
			r.renderMain(ctx, conversation, turn, workDir)
		})
		if err != nil {
			wg.Done()
			return err
		}

		for speaker, text := range turn.OverlapWith {
			if speaker == turn.Speaker {
				r.logger.WarnWithFields("skipping overlap where speaker overlaps with themselves", map[string]interface{}{
					"turn":    turn.Order,
					"speaker": speaker,
				})
				continue
			}
			speaker, text := speaker, text

			wg.Add(1)
			err := r.workerPool.Submit(func() {
				defer wg.Done()
				r.renderOverlap(ctx, conversation, turn, speaker, text, workDir)
			})
			if err != nil {
				wg.Done()
				return err
			}
		}
	}

	wg.Wait()
	return ctx.Err()
}

func (r *turnAudioRenderer) renderMain(ctx context.Context, conversation domain.Conversation,
	turn domain.ConversationTurn, workDir string) {
	path := filepath.Join(workDir, turn.MainAudioFileName())
	if _, err := os.Stat(path); err == nil {
		return
	}

	voiceID, err := conversation.VoiceFor(turn.Speaker)
	if err != nil {
		r.logger.ErrorWithFields(err, "no voice for turn speaker", map[string]interface{}{"turn": turn.Order})
		return
	}

	if err := r.synthesizeToFile(ctx, turn.Text, voiceID, path); err != nil {
		r.logger.ErrorWithFields(err, "failed to render main speech", map[string]interface{}{
			"turn":    turn.Order,
			"speaker": turn.Speaker,
		})
	}
}

func (r *turnAudioRenderer) renderOverlap(ctx context.Context, conversation domain.Conversation,
	turn domain.ConversationTurn, speaker, text, workDir string) {
	path := filepath.Join(workDir, turn.OverlapAudioFileName())
	if _, err := os.Stat(path); err == nil {
		return
	}

	voiceID, err := conversation.VoiceFor(speaker)
	if err != nil {
		r.logger.ErrorWithFields(err, "no voice for overlap speaker", map[string]interface{}{"turn": turn.Order})
		return
	}

	cleaned := strings.TrimSpace(strings.ReplaceAll(text, overlapTextPrefix, ""))
	if err := r.synthesizeToFile(ctx, cleaned, voiceID, path); err != nil {
		r.logger.ErrorWithFields(err, "failed to render overlap speech", map[string]interface{}{
			"turn":    turn.Order,
			"speaker": speaker,
		})
	}
}

func (r *turnAudioRenderer) synthesizeToFile(ctx context.Context, text, voiceID, path string) error {
	payload, err := r.speechGenerator.Generate(ctx, outbound.GenerateSpeechRequest{
		Text:    text,
		VoiceID: voiceID,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
