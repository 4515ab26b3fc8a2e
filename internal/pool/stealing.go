package pool

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/panjf2000/ants/v2"
)

// StealingPool delegates execution to a fixed-size ants pool. ants
// parks and reuses its goroutines, and the Go runtime's work-stealing
// scheduler spreads them across threads. Submissions pass through an
// unbounded queue drained by a feeder goroutine, so Spawn returns
// immediately even while every pool worker is busy.
type StealingPool struct {
	queue  *jobQueue
	inner  *ants.Pool
	logger hclog.Logger
}

// Compile-time check to ensure StealingPool implements Pool.
var _ Pool = (*StealingPool)(nil)

// NewStealingPool creates an ants-backed pool with size workers.
func NewStealingPool(size int, logger hclog.Logger) (*StealingPool, error) {
	inner, err := ants.NewPool(size, ants.WithPanicHandler(func(r interface{}) {
		logger.Error("job panicked", "panic", r)
	}))
	if err != nil {
		return nil, fmt.Errorf("create ants pool: %w", err)
	}

	p := &StealingPool{
		queue:  newJobQueue(),
		inner:  inner,
		logger: logger,
	}
	go p.feed()
	return p, nil
}

// Spawn enqueues job for the feeder. It never blocks.
func (p *StealingPool) Spawn(job func()) {
	p.queue.push(job)
}

// Close stops the feeder and releases the ants workers. Jobs submitted
// after Close are dropped.
func (p *StealingPool) Close() {
	p.queue.close()
	p.inner.Release()
}

// feed moves jobs from the queue into the ants pool. Submit blocks the
// feeder when all workers are busy, which is invisible to submitters.
func (p *StealingPool) feed() {
	for {
		job, ok := p.queue.pop()
		if !ok {
			return
		}
		if err := p.inner.Submit(job); err != nil {
			p.logger.Error("failed to submit job", "error", err)
		}
	}
}
