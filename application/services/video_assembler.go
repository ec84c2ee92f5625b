package services

import (
	"context"
	"fmt"
	"path/filepath"

	"podcast-video-pipeline/application/ports/inbound"
	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/domain"
)

type videoAssembler struct {
	logger       outbound.LoggerPort
	builder      outbound.SegmentBuilderPort
	concatenator outbound.VideoConcatenatorPort
}

func NewVideoAssembler(logger outbound.LoggerPort, builder outbound.SegmentBuilderPort,
	concatenator outbound.VideoConcatenatorPort) inbound.VideoAssemblerPort {
	return &videoAssembler{
		logger:       logger,
		builder:      builder,
		concatenator: concatenator,
	}
}

// BuildSegments builds the segments strictly in intro → short → brief →
// main → outro order. A skipped or failed optional segment only shortens the
// final video; anything else aborts.
func (a *videoAssembler) BuildSegments(ctx context.Context, params inbound.AssembleVideoParams) ([]domain.VideoSegment, error) {
	segments := make([]domain.VideoSegment, 0, len(domain.SegmentOrder))

	for ordinal, kind := range domain.SegmentOrder {
		cfg, err := a.segmentConfig(kind, params)
		if err != nil {
			return nil, err
		}

		result := a.builder.Build(ctx, cfg)
		switch result.Status {
		case domain.SegmentBuilt:
			a.logger.InfoWithFields("segment built", map[string]interface{}{
				"kind":     string(kind),
				"duration": result.Duration,
			})
			segments = append(segments, domain.VideoSegment{
				Kind:     kind,
				FileName: result.FileName,
				Duration: result.Duration,
				Ordinal:  ordinal,
			})
		case domain.SegmentSkipped:
			if !kind.Optional() {
				return nil, fmt.Errorf("required segment %s was skipped: %w", kind, domain.ErrMissingAsset)
			}
			a.logger.WarnWithFields("optional segment skipped", map[string]interface{}{"kind": string(kind)})
		case domain.SegmentFailed:
			if !kind.Optional() {
				return nil, fmt.Errorf("required segment %s failed: %w", kind, result.Err)
			}
			a.logger.ErrorWithFields(result.Err, "optional segment failed, continuing", map[string]interface{}{
				"kind": string(kind),
			})
		}
	}

	return segments, nil
}

// Concatenate joins the built segments, in ordinal order, into outputPath.
// Total duration is the sum of the included segments' durations; nothing is
// trimmed after the join.
func (a *videoAssembler) Concatenate(ctx context.Context, segments []domain.VideoSegment, outputPath string) (string, error) {
	return a.concatenator.Concatenate(ctx, segments, outputPath)
}

// segmentConfig resolves the per-kind config from the profile. Intro and
// outro backgrounds fall back to the profile's default assets; both missing
// is fatal before any build starts.
func (a *videoAssembler) segmentConfig(kind domain.SegmentKind, params inbound.AssembleVideoParams) (domain.SegmentConfig, error) {
	profile := params.Profile
	bgMusic, _ := profile.ResolveBgMusic()

	cfg := domain.SegmentConfig{
		SegmentType:         kind,
		Footer:              profile.Content.Footer,
		BackgroundMusicPath: bgMusic,
		BgMusicVolume:       profile.Audio.BgMusicVolume,
		LogoPath:            profile.Paths.Logo,
		LogoWidth:           profile.Style.LogoWidth,
		LogoHeight:          profile.Style.LogoHeight,
		Resolution:          profile.Style.Resolution,
		HeadingStyle:        profile.Style.Heading,
		SubheadingStyle:     profile.Style.Subheading,
		FooterStyle:         profile.Style.Footer,
		OutputPath:          filepath.Join(params.WorkDir, fmt.Sprintf("segment_%s.mp4", kind)),
	}

	switch kind {
	case domain.SegmentIntro:
		background, ok := profile.ResolveIntro()
		if !ok {
			return cfg, fmt.Errorf("intro background: %w", domain.ErrMissingAsset)
		}
		cfg.BackgroundVideoPath = background
		cfg.Heading = profile.Content.Heading
		cfg.Subheading = profile.Content.Subheading
		cfg.SpeakerFeeds = params.SpeakerFeeds
		cfg.Duration = profile.Durations.Intro
	case domain.SegmentShort:
		cfg.SourceVideosDir = profile.Paths.VideosDir
		cfg.VoiceoverPath = params.VoiceoverPath
		cfg.Duration = profile.Durations.ShortClip
	case domain.SegmentBrief:
		cfg.SourceVideosDir = profile.Paths.VideosDir
		cfg.Heading = profile.Content.Heading
		cfg.Subheading = profile.Content.Subheading
		cfg.Duration = profile.Durations.Brief
	case domain.SegmentMain:
		cfg.SourceVideosDir = profile.Paths.VideosDir
		cfg.VoiceoverPath = params.VoiceoverPath
	case domain.SegmentOutro:
		background, ok := profile.ResolveOutro()
		if !ok {
			return cfg, fmt.Errorf("outro background: %w", domain.ErrMissingAsset)
		}
		cfg.BackgroundVideoPath = background
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("segment %s config: %w", kind, err)
	}
	return cfg, nil
}
