package channel_utils

import (
	"context"
	"sync"

	"podcast-video-pipeline/application/ports/outbound"
)

// MergeChannels fans the given channels into one, draining each on the
// worker pool. The merged channel closes once every input closes, or once
// ctx is cancelled; after cancellation the remaining inputs are abandoned
// unread, so their producers must themselves honor ctx.
func MergeChannels[T any](ctx context.Context, workerPool outbound.TaskDispatcher, channels ...<-chan T) (<-chan T, error) {
	var wg sync.WaitGroup
	merged := make(chan T)

	output := func(c <-chan T) {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case val, ok := <-c:
				if !ok {
					return
				}
				select {
				case <-ctx.Done():
					return
				case merged <- val:
				}
			}
		}
	}

	wg.Add(len(channels))
	for _, c := range channels {
		ch := c
		err := workerPool.Submit(func() {
			output(ch)
		})
		if err != nil {
			return nil, err
		}
	}

	err := workerPool.Submit(func() {
		wg.Wait()
		close(merged)
	})
	if err != nil {
		return nil, err
	}

	return merged, nil
}
