package parallel

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/YuminosukeSato/gridflow/pkg/errors"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	tests := []struct {
		name  string
		items int
	}{
		{"zero items", 0},
		{"single item", 1},
		{"fewer items than cores", 3},
		{"many items", 10007},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int32, tt.items)
			Parallelize(tt.items, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})
			for i, n := range seen {
				if n != 1 {
					t.Fatalf("item %d visited %d times, want exactly once", i, n)
				}
			}
		})
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	var mu sync.Mutex
	var calls [][2]int
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		mu.Lock()
		calls = append(calls, [2]int{start, end})
		mu.Unlock()
	})

	if len(calls) != 1 || calls[0] != [2]int{0, 10} {
		t.Errorf("expected a single sequential call over [0,10), got %v", calls)
	}
}

func TestForEach(t *testing.T) {
	var count int64
	err := ForEach(context.Background(), 100, 4, func(_ context.Context, i int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 100 {
		t.Errorf("count = %d, want 100", count)
	}
}

func TestForEachPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	err := ForEach(context.Background(), 50, 2, func(_ context.Context, i int) error {
		if i == 7 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestForEachHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var count int64
	err := ForEach(ctx, 1000, 2, func(_ context.Context, i int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if count == 1000 {
		t.Error("cancellation should have short-circuited the loop")
	}
}
