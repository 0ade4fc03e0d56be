package lifecycle

import (
	"context"
	"sync"
)

// DefaultBulkConcurrency is the suggested cap on fan-out for bulk
// commands (`workflow activate/deactivate/delete --ids`).
const DefaultBulkConcurrency = 8

// BoundedRun runs fn once per item, capped at concurrency simultaneous
// goroutines, and returns one result per item in input order. Each
// item's mutations are expected to be serial within fn: each workflow's
// mutations run serially. BoundedRun only bounds how many
// distinct workflows are in flight at once.
func BoundedRun[T, R any](ctx context.Context, items []T, concurrency int, fn func(ctx context.Context, item T) R) []R {
	if concurrency <= 0 {
		concurrency = DefaultBulkConcurrency
	}
	results := make([]R, len(items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = fn(ctx, item)
		}(i, item)
	}
	wg.Wait()
	return results
}
