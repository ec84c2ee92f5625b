package inbound

import "context"

// PodcastJobRunnerPort drives the batch loop: it repeatedly claims pending
// jobs and runs each one through its full pipeline until ctx is cancelled.
type PodcastJobRunnerPort interface {
	Run(ctx context.Context)
}
