// Package workerpool fans a fixed number of independent simulated
// annealing attempts out across goroutines and returns the first one that
// converges, adapting the fixed-size worker-pool shape of
// gitrdm-gokando's internal/parallel package onto golang.org/x/sync/errgroup.
package workerpool

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mapsmith/roommapper/internal/roomgraph/errs"
	"github.com/mapsmith/roommapper/internal/roomgraph/fullmap"
)

// Attempt is one independent SA+DFS run. It must poll stop periodically
// (anneal.Solver.Run does this every KickCheckInterval iterations) so a
// sibling attempt's success can end it promptly.
type Attempt func(workerID int, stop *atomic.Bool) (fullmap.FullMap, bool)

// RunFirstSuccess starts `workers` concurrent Attempt calls sharing one
// stop flag: as soon as any attempt converges, the flag is set so the
// rest wind down at their next poll, and the first result delivered wins.
// If every attempt exhausts its own search budget without converging, it
// returns errs.ErrSANotConverged. Cancelling ctx sets the stop flag
// immediately, same as a sibling success would.
func RunFirstSuccess(ctx context.Context, workers int, attempt Attempt) (fullmap.FullMap, error) {
	if workers <= 0 {
		workers = 1
	}

	var stop atomic.Bool
	result := make(chan fullmap.FullMap, workers)

	// Cancelling ctx sets the stop flag just like a sibling success does;
	// this watcher is independent of the worker errgroup below so it never
	// delays g.Wait() when ctx is simply never cancelled.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			stop.Store(true)
		case <-watchDone:
		}
	}()

	g := new(errgroup.Group)
	for w := 0; w < workers; w++ {
		workerID := w
		g.Go(func() error {
			resolved, ok := attempt(workerID, &stop)
			if ok {
				stop.Store(true)
				select {
				case result <- resolved:
				default:
				}
			}
			return nil
		})
	}

	g.Wait()
	close(watchDone)

	select {
	case resolved := <-result:
		return resolved, nil
	default:
		return fullmap.FullMap{}, errs.ErrSANotConverged
	}
}
