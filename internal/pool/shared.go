package pool

import "github.com/hashicorp/go-hclog"

// SharedQueuePool runs jobs on a fixed set of long-lived workers that
// pull from one unbounded shared queue. A panicking job unwinds its
// worker; the worker's deferred recover logs the panic and starts a
// replacement bound to the same queue, so pool capacity never leaks.
type SharedQueuePool struct {
	queue  *jobQueue
	logger hclog.Logger
}

// Compile-time check to ensure SharedQueuePool implements Pool.
var _ Pool = (*SharedQueuePool)(nil)

// NewSharedQueuePool starts size workers over a fresh queue.
func NewSharedQueuePool(size int, logger hclog.Logger) *SharedQueuePool {
	p := &SharedQueuePool{
		queue:  newJobQueue(),
		logger: logger,
	}
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

// Spawn enqueues job for the next free worker. It never blocks.
func (p *SharedQueuePool) Spawn(job func()) {
	p.queue.push(job)
}

// Close stops the workers once the queue drains. Jobs submitted after
// Close are dropped.
func (p *SharedQueuePool) Close() {
	p.queue.close()
}

func (p *SharedQueuePool) worker() {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker lost to panicking job, replacing", "panic", r)
			go p.worker()
		}
	}()

	for {
		job, ok := p.queue.pop()
		if !ok {
			return
		}
		job()
	}
}
