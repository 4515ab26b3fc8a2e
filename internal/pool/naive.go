package pool

import "github.com/hashicorp/go-hclog"

// NaivePool is not really a pool: every job runs on its own goroutine,
// which exits when the job finishes. No queue, no backpressure.
type NaivePool struct {
	logger hclog.Logger
}

// Compile-time check to ensure NaivePool implements Pool.
var _ Pool = (*NaivePool)(nil)

// NewNaivePool creates a goroutine-per-job pool.
func NewNaivePool(logger hclog.Logger) *NaivePool {
	return &NaivePool{logger: logger}
}

// Spawn runs job on a fresh goroutine.
func (p *NaivePool) Spawn(job func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("job panicked", "panic", r)
			}
		}()
		job()
	}()
}
