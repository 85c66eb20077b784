// Package testutil holds helpers shared by package tests.
package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"wealthgate/pkg/platform/sentinel"
)

// ConcurrentResult tallies outcomes of RunConcurrent.
type ConcurrentResult struct {
	Successes int32
	Errors    int32
	NotFounds int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Errors + r.NotFounds
}

// RunConcurrent starts goroutines calling fn at the same time and tallies
// their results. Goroutines are released together to maximize overlap.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg                         sync.WaitGroup
		successes, errs, notFounds atomic.Int32
	)
	start := make(chan struct{})

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				notFounds.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Errors:    errs.Load(),
		NotFounds: notFounds.Load(),
	}
}

// RunConcurrentCollect runs fn concurrently and returns the successes plus
// every error for inspection.
func RunConcurrentCollect(goroutines int, fn func(idx int) error) (int32, []error) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes atomic.Int32
		collected []error
	)
	start := make(chan struct{})

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			if err := fn(idx); err != nil {
				mu.Lock()
				collected = append(collected, err)
				mu.Unlock()
				return
			}
			successes.Add(1)
		}(i)
	}

	close(start)
	wg.Wait()
	return successes.Load(), collected
}
