package pool

import "sync"

// jobQueue is an unbounded multi-producer/multi-consumer FIFO.
// push never blocks; pop blocks until a job arrives or the queue is
// closed and drained.
type jobQueue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	jobs     []func()
	closed   bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

func (q *jobQueue) push(job func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.jobs = append(q.jobs, job)
	q.nonEmpty.Signal()
}

func (q *jobQueue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.jobs) == 0 && !q.closed {
		q.nonEmpty.Wait()
	}
	if len(q.jobs) == 0 {
		return nil, false
	}
	job := q.jobs[0]
	// Release the slot so the job's closure does not outlive it in the
	// backing array.
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	return job, true
}

func (q *jobQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.nonEmpty.Broadcast()
}
