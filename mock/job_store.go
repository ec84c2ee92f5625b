package mock_providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"podcast-video-pipeline/application/ports/outbound"
	"podcast-video-pipeline/domain"
)

type memoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]domain.PodcastJob
}

// NewMemoryJobStore keeps jobs in process memory so mock runs need no
// DynamoDB table. Jobs are lost on restart.
func NewMemoryJobStore() outbound.JobStorePort {
	return &memoryJobStore{jobs: make(map[string]domain.PodcastJob)}
}

func (s *memoryJobStore) Save(ctx context.Context, job domain.PodcastJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *memoryJobStore) Get(ctx context.Context, jobID string) (*domain.PodcastJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (s *memoryJobStore) NextPending(ctx context.Context) (*domain.PodcastJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var oldest *domain.PodcastJob
	for id := range s.jobs {
		job := s.jobs[id]
		if job.Status != domain.JobPending {
			continue
		}
		if oldest == nil || job.CreatedAt.Before(oldest.CreatedAt) {
			cp := job
			oldest = &cp
		}
	}
	return oldest, nil
}

func (s *memoryJobStore) Claim(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.Status != domain.JobPending {
		return fmt.Errorf("job %s is not pending", jobID)
	}
	job.Status = domain.JobDownloadingInputs
	job.UpdatedAt = time.Now().UTC()
	s.jobs[jobID] = job
	return nil
}

func (s *memoryJobStore) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, stepError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	job.Status = status
	job.StepError = stepError
	job.UpdatedAt = time.Now().UTC()
	s.jobs[jobID] = job
	return nil
}

func (s *memoryJobStore) SetOutputs(ctx context.Context, jobID string, videoKey string, thumbKeys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	job.VideoKey = videoKey
	job.ThumbKeys = thumbKeys
	job.UpdatedAt = time.Now().UTC()
	s.jobs[jobID] = job
	return nil
}
