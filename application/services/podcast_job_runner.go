package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"podcast-video-pipeline/application/ports/inbound"
	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/channel_utils"
	"podcast-video-pipeline/config"
	"podcast-video-pipeline/domain"
)

const conversationSchemaFileName = "conversation_schema.json"

type podcastJobRunner struct {
	logger                outbound.LoggerPort
	pipelineConfig        *config.PipelineConfig
	jobStore              outbound.JobStorePort
	conversationGenerator outbound.ConversationGeneratorPort
	turnAudioRenderer     inbound.TurnAudioRendererPort
	mixer                 inbound.ConversationMixerPort
	codec                 outbound.TrackCodecPort
	assembler             inbound.VideoAssemblerPort
	thumbnailer           outbound.ThumbnailerPort
	publisher             outbound.VideoPublisherPort
	avatarRenderer        outbound.AvatarRendererPort
	videoPool             outbound.TaskDispatcher
	audioPool             outbound.TaskDispatcher
}

func NewPodcastJobRunner(
	logger outbound.LoggerPort,
	pipelineConfig *config.PipelineConfig,
	jobStore outbound.JobStorePort,
	conversationGenerator outbound.ConversationGeneratorPort,
	turnAudioRenderer inbound.TurnAudioRendererPort,
	mixer inbound.ConversationMixerPort,
	codec outbound.TrackCodecPort,
	assembler inbound.VideoAssemblerPort,
	thumbnailer outbound.ThumbnailerPort,
	publisher outbound.VideoPublisherPort,
	avatarRenderer outbound.AvatarRendererPort,
	videoPool outbound.TaskDispatcher,
	audioPool outbound.TaskDispatcher,
) inbound.PodcastJobRunnerPort {
	return &podcastJobRunner{
		logger:                logger,
		pipelineConfig:        pipelineConfig,
		jobStore:              jobStore,
		conversationGenerator: conversationGenerator,
		turnAudioRenderer:     turnAudioRenderer,
		mixer:                 mixer,
		codec:                 codec,
		assembler:             assembler,
		thumbnailer:           thumbnailer,
		publisher:             publisher,
		avatarRenderer:        avatarRenderer,
		videoPool:             videoPool,
		audioPool:             audioPool,
	}
}

// Run polls for pending jobs until ctx is cancelled. Each claimed job is
// handed to the video pool, which bounds how many jobs hold decoded media in
// memory at once. A failed job is marked failed and the loop moves on.
func (r *podcastJobRunner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pipelineConfig.JobPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			return
		case <-ticker.C:
			r.claimNext(ctx)
		}
	}
}

func (r *podcastJobRunner) claimNext(ctx context.Context) {
	job, err := r.jobStore.NextPending(ctx)
	if err != nil {
		r.logger.Error(err, "failed to poll for pending jobs")
		return
	}
	if job == nil {
		return
	}

	if err := r.jobStore.Claim(ctx, job.ID); err != nil {
		r.logger.DebugWithFields("job already claimed", map[string]interface{}{"job_id": job.ID})
		return
	}

	claimed := *job
	if err := r.videoPool.Submit(func() {
		r.process(ctx, claimed)
	}); err != nil {
		r.logger.ErrorWithFields(err, "failed to submit job to video pool", map[string]interface{}{"job_id": job.ID})
		r.markFailed(ctx, job.ID, err)
	}
}

// process runs one job's pipeline single-threaded and synchronous: every
// media step runs to completion before the next starts.
func (r *podcastJobRunner) process(ctx context.Context, job domain.PodcastJob) {
	r.logger.InfoWithFields("processing job", map[string]interface{}{
		"job_id":  job.ID,
		"profile": job.Profile,
		"topic":   job.Topic,
	})

	workDir := filepath.Join(r.pipelineConfig.WorkRoot, job.ID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		r.markFailed(ctx, job.ID, err)
		return
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			r.logger.ErrorWithFields(err, "failed to clean job work dir", map[string]interface{}{"job_id": job.ID})
		}
	}()

	profile, err := config.LoadProfile(r.pipelineConfig.ProfilesDir, job.Profile)
	if err != nil {
		r.markFailed(ctx, job.ID, err)
		return
	}

	// downloading_inputs: the schema and every per-turn clip land in workDir.
	conversation, err := r.prepareInputs(ctx, job, profile, workDir)
	if err != nil {
		r.markFailed(ctx, job.ID, err)
		return
	}

	feeds := r.renderSpeakerFeeds(ctx, *conversation, workDir)

	if err := r.advance(ctx, job.ID, domain.JobMixingAudio); err != nil {
		return
	}
	voiceoverPath := filepath.Join(workDir, "voiceover.mp3")
	mixResult, err := r.mixer.Mix(ctx, *conversation, workDir)
	if err != nil {
		r.markFailed(ctx, job.ID, err)
		return
	}
	if err := r.codec.Export(ctx, mixResult.Track, voiceoverPath); err != nil {
		r.markFailed(ctx, job.ID, err)
		return
	}

	if err := r.advance(ctx, job.ID, domain.JobBuildingSegments); err != nil {
		return
	}
	segments, err := r.assembler.BuildSegments(ctx, inbound.AssembleVideoParams{
		Profile:       profile,
		VoiceoverPath: voiceoverPath,
		WorkDir:       workDir,
		SpeakerFeeds:  feeds,
	})
	if err != nil {
		r.markFailed(ctx, job.ID, err)
		return
	}

	if err := r.advance(ctx, job.ID, domain.JobConcatenating); err != nil {
		return
	}
	finalPath := filepath.Join(workDir, fmt.Sprintf("%s_final.mp4", job.Profile))
	finalPath, err = r.assembler.Concatenate(ctx, segments, finalPath)
	if err != nil {
		r.markFailed(ctx, job.ID, err)
		return
	}

	if err := r.advance(ctx, job.ID, domain.JobUploading); err != nil {
		return
	}
	thumbs, err := r.thumbnailer.Thumbnails(ctx, finalPath, filepath.Join(workDir, "thumbnails"), profile.Thumbnails)
	if err != nil {
		r.logger.ErrorWithFields(err, "thumbnail generation failed, publishing without thumbnails", map[string]interface{}{
			"job_id": job.ID,
		})
		thumbs = nil
	}
	published, err := r.publisher.Publish(ctx, outbound.PublishVideoRequest{
		VideoFileName:  finalPath,
		ThumbnailFiles: thumbs,
		JobID:          job.ID,
		Profile:        job.Profile,
	})
	if err != nil {
		r.markFailed(ctx, job.ID, err)
		return
	}

	if err := r.jobStore.SetOutputs(ctx, job.ID, published.VideoKey, published.ThumbnailKeys); err != nil {
		r.markFailed(ctx, job.ID, err)
		return
	}
	if err := r.jobStore.UpdateStatus(ctx, job.ID, domain.JobCompleted, ""); err != nil {
		r.logger.ErrorWithFields(err, "failed to mark job completed", map[string]interface{}{"job_id": job.ID})
		return
	}

	r.logger.InfoWithFields("job completed", map[string]interface{}{
		"job_id":    job.ID,
		"video_key": published.VideoKey,
	})
}

// prepareInputs obtains the conversation schema, persists it next to the
// audio it describes, and renders every turn clip.
func (r *podcastJobRunner) prepareInputs(ctx context.Context, job domain.PodcastJob,
	profile *config.Profile, workDir string) (*domain.Conversation, error) {
	conversation, err := r.conversationGenerator.Generate(ctx, outbound.GenerateConversationRequest{
		Topic:    job.Topic,
		Mood:     job.Mood,
		NumTurns: job.NumTurns,
		Speakers: profile.Speakers,
	})
	if err != nil {
		return nil, err
	}
	if err := conversation.Validate(); err != nil {
		return nil, err
	}

	schemaPayload, err := json.MarshalIndent(domain.ConversationSchema{Conversation: *conversation}, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(workDir, conversationSchemaFileName), schemaPayload, 0o644); err != nil {
		return nil, err
	}

	if err := r.turnAudioRenderer.RenderAll(ctx, *conversation, workDir); err != nil {
		return nil, err
	}
	return conversation, nil
}

// renderSpeakerFeeds renders avatar videos, one per speaker that has one,
// fanned out over the audio pool and merged back. Avatar renders are
// best-effort: a timeout or failure drops the feed and the intro falls back
// to its plain variant.
func (r *podcastJobRunner) renderSpeakerFeeds(ctx context.Context, conversation domain.Conversation,
	workDir string) []domain.SpeakerFeed {
	var chans []<-chan domain.SpeakerFeed
	for _, speaker := range conversation.Speakers {
		if speaker.AvatarID == "" {
			continue
		}
		speaker := speaker
		out := make(chan domain.SpeakerFeed, 1)

		err := r.audioPool.Submit(func() {
			defer close(out)
			if feed, ok := r.renderOneFeed(ctx, conversation, speaker, workDir); ok {
				out <- feed
			}
		})
		if err != nil {
			close(out)
			r.logger.ErrorWithFields(err, "failed to submit avatar render", map[string]interface{}{
				"speaker": speaker.Name,
			})
			continue
		}
		chans = append(chans, out)
	}
	if len(chans) == 0 {
		return nil
	}

	merged, err := channel_utils.MergeChannels(ctx, r.audioPool, chans...)
	if err != nil {
		r.logger.Error(err, "failed to merge avatar render channels")
		return nil
	}

	var feeds []domain.SpeakerFeed
	for feed := range merged {
		feeds = append(feeds, feed)
	}

	// The intro overlay layout depends on feed order; pin it to the roster.
	rosterIndex := make(map[string]int, len(conversation.Speakers))
	for i, s := range conversation.Speakers {
		rosterIndex[s.Name] = i
	}
	sort.Slice(feeds, func(i, j int) bool {
		return rosterIndex[feeds[i].Name] < rosterIndex[feeds[j].Name]
	})
	return feeds
}

func (r *podcastJobRunner) renderOneFeed(ctx context.Context, conversation domain.Conversation,
	speaker domain.Speaker, workDir string) (domain.SpeakerFeed, bool) {
	outputPath := filepath.Join(workDir, fmt.Sprintf("avatar_%s.mp4", speaker.Name))
	path, err := r.avatarRenderer.Render(ctx, outbound.RenderAvatarRequest{
		AvatarID:   speaker.AvatarID,
		VoiceID:    speaker.VoiceID,
		Text:       firstLineFor(conversation, speaker.Name),
		OutputPath: outputPath,
	})
	if err != nil {
		if errors.Is(err, domain.ErrRenderTimeout) {
			r.logger.WarnWithFields("avatar render timed out, dropping speaker feed", map[string]interface{}{
				"speaker": speaker.Name,
			})
		} else {
			r.logger.ErrorWithFields(err, "avatar render failed, dropping speaker feed", map[string]interface{}{
				"speaker": speaker.Name,
			})
		}
		return domain.SpeakerFeed{}, false
	}
	return domain.SpeakerFeed{VideoPath: path, Name: speaker.Name}, true
}

func firstLineFor(conversation domain.Conversation, speaker string) string {
	for _, turn := range conversation.Turns {
		if turn.Speaker == speaker {
			return turn.Text
		}
	}
	return conversation.Topic
}

func (r *podcastJobRunner) advance(ctx context.Context, jobID string, status domain.JobStatus) error {
	if err := r.jobStore.UpdateStatus(ctx, jobID, status, ""); err != nil {
		r.logger.ErrorWithFields(err, "failed to advance job status", map[string]interface{}{
			"job_id": jobID,
			"status": string(status),
		})
		return err
	}
	return nil
}

func (r *podcastJobRunner) markFailed(ctx context.Context, jobID string, cause error) {
	r.logger.ErrorWithFields(cause, "job failed", map[string]interface{}{"job_id": jobID})
	if err := r.jobStore.UpdateStatus(ctx, jobID, domain.JobFailed, cause.Error()); err != nil {
		r.logger.ErrorWithFields(err, "failed to mark job failed", map[string]interface{}{"job_id": jobID})
	}
}
