package store

import (
	"sync/atomic"
	"time"

	"github.com/heysubinoy/adrakdb/pkg/kv"
)

// engineMetrics holds timing statistics for engine operations.
// Uses atomic operations for thread-safe updates without locks.
type engineMetrics struct {
	GetCount    atomic.Uint64
	SetCount    atomic.Uint64
	RemoveCount atomic.Uint64

	// Cumulative latencies in nanoseconds
	GetLatencyNs    atomic.Uint64
	SetLatencyNs    atomic.Uint64
	RemoveLatencyNs atomic.Uint64
}

// InstrumentedEngine wraps any kv.Engine implementation with timing
// metrics. This pattern works for both the log and bolt backends.
type InstrumentedEngine struct {
	engine  kv.Engine
	metrics *engineMetrics
}

// Compile-time check to ensure InstrumentedEngine implements kv.Engine.
var _ kv.Engine = (*InstrumentedEngine)(nil)

// NewInstrumentedEngine wraps an engine with instrumentation.
func NewInstrumentedEngine(engine kv.Engine) *InstrumentedEngine {
	return &InstrumentedEngine{
		engine:  engine,
		metrics: &engineMetrics{},
	}
}

// Get delegates to the wrapped engine and records timing.
func (e *InstrumentedEngine) Get(key string) (string, bool, error) {
	start := time.Now()
	value, found, err := e.engine.Get(key)
	elapsed := time.Since(start).Nanoseconds()

	e.metrics.GetCount.Add(1)
	e.metrics.GetLatencyNs.Add(uint64(elapsed))

	return value, found, err
}

// Set delegates to the wrapped engine and records timing.
func (e *InstrumentedEngine) Set(key, value string) error {
	start := time.Now()
	err := e.engine.Set(key, value)
	elapsed := time.Since(start).Nanoseconds()

	e.metrics.SetCount.Add(1)
	e.metrics.SetLatencyNs.Add(uint64(elapsed))

	return err
}

// Remove delegates to the wrapped engine and records timing.
func (e *InstrumentedEngine) Remove(key string) error {
	start := time.Now()
	err := e.engine.Remove(key)
	elapsed := time.Since(start).Nanoseconds()

	e.metrics.RemoveCount.Add(1)
	e.metrics.RemoveLatencyNs.Add(uint64(elapsed))

	return err
}

// Close closes the wrapped engine.
func (e *InstrumentedEngine) Close() error {
	return e.engine.Close()
}

// Metrics returns a snapshot of current metrics.
func (e *InstrumentedEngine) Metrics() MetricsSnapshot {
	getCount := e.metrics.GetCount.Load()
	setCount := e.metrics.SetCount.Load()
	removeCount := e.metrics.RemoveCount.Load()

	return MetricsSnapshot{
		GetCount:         getCount,
		SetCount:         setCount,
		RemoveCount:      removeCount,
		GetAvgLatency:    avgLatency(e.metrics.GetLatencyNs.Load(), getCount),
		SetAvgLatency:    avgLatency(e.metrics.SetLatencyNs.Load(), setCount),
		RemoveAvgLatency: avgLatency(e.metrics.RemoveLatencyNs.Load(), removeCount),
	}
}

func avgLatency(totalNs, count uint64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(totalNs / count)
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	GetCount         uint64
	SetCount         uint64
	RemoveCount      uint64
	GetAvgLatency    time.Duration
	SetAvgLatency    time.Duration
	RemoveAvgLatency time.Duration
}
