package channel_utils

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
)

func TestMergeChannels(t *testing.T) {
	pool, err := ants.NewPool(8)
	if err != nil {
		t.Fatal("Failed to create worker pool:", err)
	}
	defer pool.Release()

	a := make(chan int, 3)
	b := make(chan int, 2)
	for _, v := range []int{1, 2, 3} {
		a <- v
	}
	for _, v := range []int{4, 5} {
		b <- v
	}
	close(a)
	close(b)

	merged, err := MergeChannels(context.Background(), pool, (<-chan int)(a), (<-chan int)(b))
	if err != nil {
		t.Fatal("Failed to merge channels:", err)
	}

	var got []int
	for v := range merged {
		got = append(got, v)
	}
	sort.Ints(got)

	want := []int{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestMergeChannelsStopsOnCancel(t *testing.T) {
	pool, err := ants.NewPool(8)
	if err != nil {
		t.Fatal("Failed to create worker pool:", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(context.Background())

	// Never closed; only cancellation can release the drainers.
	blocked := make(chan int)

	merged, err := MergeChannels(ctx, pool, (<-chan int)(blocked))
	if err != nil {
		t.Fatal("Failed to merge channels:", err)
	}

	cancel()

	select {
	case _, ok := <-merged:
		if ok {
			t.Fatal("unexpected value after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("merged channel did not close after cancel")
	}
}
