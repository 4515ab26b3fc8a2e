// Package pool provides interchangeable strategies for executing
// fire-and-forget jobs across goroutines. The server depends only on
// the Pool interface; the strategy is chosen at construction.
package pool

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-hclog"
)

// Pool executes submitted jobs.
type Pool interface {
	// Spawn submits a job for execution and returns immediately; it
	// never blocks waiting for a worker to become free. Ordering
	// between independently submitted jobs is not guaranteed. A panic
	// inside one job must not prevent later jobs from running.
	Spawn(job func())
}

// Strategy selects a Pool implementation.
type Strategy string

const (
	// Naive starts a fresh goroutine per job.
	Naive Strategy = "naive"

	// Shared runs a fixed set of workers over one unbounded queue.
	Shared Strategy = "shared"

	// Stealing runs jobs on a fixed-size ants pool, leaving the
	// spreading of its goroutines across threads to the Go runtime's
	// work-stealing scheduler.
	Stealing Strategy = "stealing"
)

// New builds a pool of the given strategy. A size of zero or less means
// the host's logical CPU count; the naive strategy ignores size.
func New(strategy Strategy, size int, logger hclog.Logger) (Pool, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if size <= 0 {
		size = runtime.NumCPU()
	}

	switch strategy {
	case Naive:
		return NewNaivePool(logger), nil
	case Shared:
		return NewSharedQueuePool(size, logger), nil
	case Stealing:
		return NewStealingPool(size, logger)
	default:
		return nil, fmt.Errorf("unknown pool strategy %q", strategy)
	}
}
