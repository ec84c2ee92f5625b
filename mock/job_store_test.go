package mock_providers

import (
	"context"
	"testing"
	"time"

	"podcast-video-pipeline/domain"
)

func TestMemoryJobStoreClaimIsExclusive(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	job := domain.NewPodcastJob("job-1", "acme", "topic", "calm", 4)
	if err := store.Save(ctx, job); err != nil {
		t.Fatal(err)
	}

	if err := store.Claim(ctx, "job-1"); err != nil {
		t.Fatal("first claim should succeed:", err)
	}
	if err := store.Claim(ctx, "job-1"); err == nil {
		t.Fatal("second claim should fail")
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.JobDownloadingInputs {
		t.Fatalf("expected downloading_inputs, got %s", got.Status)
	}
}

func TestMemoryJobStoreNextPendingReturnsOldest(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	older := domain.NewPodcastJob("job-old", "acme", "t1", "", 4)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := domain.NewPodcastJob("job-new", "acme", "t2", "", 4)

	if err := store.Save(ctx, newer); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, older); err != nil {
		t.Fatal(err)
	}

	got, err := store.NextPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != "job-old" {
		t.Fatalf("expected job-old, got %+v", got)
	}
}

func TestMemoryJobStoreNextPendingEmpty(t *testing.T) {
	store := NewMemoryJobStore()
	got, err := store.NextPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil for empty store, got %+v", got)
	}
}

func TestMemoryJobStoreUpdateStatusAndOutputs(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	job := domain.NewPodcastJob("job-1", "acme", "topic", "", 4)
	if err := store.Save(ctx, job); err != nil {
		t.Fatal(err)
	}

	if err := store.UpdateStatus(ctx, "job-1", domain.JobFailed, "mix exploded"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetOutputs(ctx, "job-1", "acme/final.mp4", []string{"t1.jpg"}); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.JobFailed || got.StepError != "mix exploded" {
		t.Fatalf("status not recorded: %+v", got)
	}
	if got.VideoKey != "acme/final.mp4" || len(got.ThumbKeys) != 1 {
		t.Fatalf("outputs not recorded: %+v", got)
	}
}
