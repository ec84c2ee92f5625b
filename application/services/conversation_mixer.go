package services

import (
	"context"
	"path/filepath"

	"podcast-video-pipeline/application/ports/inbound"
	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/domain"
)

// Tunables for natural-sounding overlap blending.
const (
	interTurnGapMs  = 500  // silence between consecutive turns
	overlapWindowMs = 2000 // reactions land in the last two seconds of a turn
	overlayFadeMs   = 200  // crossfade applied to longer reaction clips
	baseDuckDb      = 2.0  // duck applied to the turn being reacted to
	overlayCutDb    = 3.0  // attenuation of the reaction clip itself
)

type conversationMixer struct {
	logger outbound.LoggerPort
	codec  outbound.TrackCodecPort
}

func NewConversationMixer(logger outbound.LoggerPort, codec outbound.TrackCodecPort) inbound.ConversationMixerPort {
	return &conversationMixer{
		logger: logger,
		codec:  codec,
	}
}

// Mix walks the turns in order, appending each main clip after a fixed gap,
// and blends valid reaction clips into the tail of the turn they react to.
// A turn whose main clip is missing is skipped; a missing or self-referencing
// overlap is dropped. Neither aborts the mix.
func (m *conversationMixer) Mix(ctx context.Context, conversation domain.Conversation, workDir string) (*inbound.MixResult, error) {
	var combined *domain.Track
	placements := make([]inbound.OverlapPlacement, 0)

	for _, turn := range conversation.Turns {
		mainPath := filepath.Join(workDir, turn.MainAudioFileName())
		main, err := m.codec.Load(ctx, mainPath)
		if err != nil {
			m.logger.WarnWithFields("missing main audio, skipping turn", map[string]interface{}{
				"turn":    turn.Order,
				"speaker": turn.Speaker,
				"path":    mainPath,
			})
			continue
		}

		if combined == nil {
			combined = main
			continue
		}

		combined.AppendSilence(interTurnGapMs)
		mainStart := combined.DurationMs()
		if err := combined.Append(main); err != nil {
			return nil, err
		}
		mainEnd := combined.DurationMs()

		for speaker := range turn.OverlapWith {
			if speaker == turn.Speaker {
				m.logger.WarnWithFields("skipping overlap where speaker overlaps with themselves", map[string]interface{}{
					"turn":    turn.Order,
					"speaker": speaker,
				})
				continue
			}

			overlapPath := filepath.Join(workDir, turn.OverlapAudioFileName())
			overlay, err := m.codec.Load(ctx, overlapPath)
			if err != nil {
				m.logger.WarnWithFields("missing overlap audio, dropping overlap", map[string]interface{}{
					"turn": turn.Order,
					"path": overlapPath,
				})
				continue
			}

			position := overlapInsertionMs(mainStart, mainEnd, main.DurationMs(), overlay.DurationMs())
			if err := blendOverlap(combined, overlay, position); err != nil {
				return nil, err
			}
			placements = append(placements, inbound.OverlapPlacement{
				TurnOrder:  turn.Order,
				Speaker:    speaker,
				PositionMs: position,
			})
		}
	}

	if combined == nil {
		return nil, domain.ErrEmptyMix
	}

	m.logger.InfoWithFields("conversation mixed", map[string]interface{}{
		"duration_ms": combined.DurationMs(),
		"overlaps":    len(placements),
	})

	return &inbound.MixResult{Track: combined, Placements: placements}, nil
}

// overlapInsertionMs places a reaction inside its turn: at the midpoint of a
// short turn, otherwise inside the final two seconds (or the full reaction
// length if that is shorter).
func overlapInsertionMs(mainStartMs, mainEndMs, mainDurMs, overlayDurMs int) int {
	if mainDurMs <= overlapWindowMs {
		return mainStartMs + mainDurMs/2
	}
	window := overlapWindowMs
	if overlayDurMs < window {
		window = overlayDurMs
	}
	return mainEndMs - window
}

// blendOverlap ducks the base region under the reaction, attenuates and
// crossfades the reaction, and sums it in, padding the base with silence when
// the reaction runs past the current end.
func blendOverlap(base *domain.Track, overlay *domain.Track, positionMs int) error {
	end := positionMs + overlay.DurationMs()
	base.PadToMs(end)
	base.GainRange(positionMs, end, -baseDuckDb)

	ov := overlay.Clone()
	ov.Gain(-overlayCutDb)
	if ov.DurationMs() > 2*overlayFadeMs {
		ov.FadeIn(overlayFadeMs)
		ov.FadeOut(overlayFadeMs)
	}

	return base.Overlay(ov, positionMs)
}
