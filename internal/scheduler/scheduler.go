// Package scheduler runs batches of independent jobs with a bounded number in
// flight. A finished job immediately yields its slot to the next pending one,
// so the pool stays saturated instead of draining batch by batch.
package scheduler

import (
	"context"
	"errors"
	"sync"
)

// Job is a unit of work scheduled by Run.
type Job func(ctx context.Context) error

// Run executes jobs with at most batchSize in flight at once. A batchSize of
// zero runs the jobs strictly sequentially in order. Failures do not stop the
// remaining jobs; every error is collected and the combined result returned
// via errors.Join. Context cancellation stops new jobs from starting.
func Run(ctx context.Context, batchSize int, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}

	if batchSize <= 0 {
		var errs []error
		for _, job := range jobs {
			if err := ctx.Err(); err != nil {
				errs = append(errs, err)
				break
			}
			if err := job(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	slots := make(chan struct{}, batchSize)

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}
		slots <- struct{}{}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			defer func() { <-slots }()
			if err := job(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(job)
	}

	wg.Wait()
	return errors.Join(errs...)
}
