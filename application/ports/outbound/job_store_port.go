package outbound

import (
	"context"
	"podcast-video-pipeline/domain"
)

// JobStorePort persists podcast jobs and their state transitions.
type JobStorePort interface {
	Save(ctx context.Context, job domain.PodcastJob) error
	Get(ctx context.Context, jobID string) (*domain.PodcastJob, error)
	// NextPending returns any job still in the pending state, or nil.
	NextPending(ctx context.Context) (*domain.PodcastJob, error)
	// Claim atomically moves a pending job to downloading_inputs; it fails
	// when another worker claimed the job first.
	Claim(ctx context.Context, jobID string) error
	UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, stepError string) error
	SetOutputs(ctx context.Context, jobID string, videoKey string, thumbKeys []string) error
}
