package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jigport/internal/scheduler"
)

func TestRunNeverExceedsBatchSize(t *testing.T) {
	const batchSize = 4
	const jobCount = 32

	var inFlight, peak int64
	jobs := make([]scheduler.Job, jobCount)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			current := atomic.AddInt64(&inFlight, 1)
			for {
				observed := atomic.LoadInt64(&peak)
				if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return nil
		}
	}

	if err := scheduler.Run(context.Background(), batchSize, jobs); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := atomic.LoadInt64(&peak); got > batchSize {
		t.Fatalf("observed %d jobs in flight, cap is %d", got, batchSize)
	}
}

func TestRunZeroBatchSizeIsSequentialAndOrdered(t *testing.T) {
	var mu sync.Mutex
	var order []int

	jobs := make([]scheduler.Job, 8)
	for i := range jobs {
		i := i
		jobs[i] = func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}
	}

	if err := scheduler.Run(context.Background(), 0, jobs); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("sequential run out of order at %d: %v", i, order)
		}
	}
}

func TestRunCollectsAllErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	var ran atomic.Int64

	jobs := []scheduler.Job{
		func(ctx context.Context) error { ran.Add(1); return errA },
		func(ctx context.Context) error { ran.Add(1); return nil },
		func(ctx context.Context) error { ran.Add(1); return errB },
		func(ctx context.Context) error { ran.Add(1); return nil },
	}

	err := scheduler.Run(context.Background(), 2, jobs)
	if err == nil {
		t.Fatal("expected combined error")
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both failures in joined error, got %v", err)
	}
	if got := ran.Load(); got != 4 {
		t.Fatalf("a failure must not stop later jobs; ran %d of 4", got)
	}
}

func TestRunStopsStartingAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ran atomic.Int64
	jobs := []scheduler.Job{
		func(ctx context.Context) error {
			ran.Add(1)
			cancel()
			return nil
		},
		func(ctx context.Context) error { ran.Add(1); return nil },
	}

	err := scheduler.Run(ctx, 0, jobs)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if got := ran.Load(); got != 1 {
		t.Fatalf("expected only the first job to run, ran %d", got)
	}
}
