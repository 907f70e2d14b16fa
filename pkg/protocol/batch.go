package protocol

import "context"

// BatchRun is the batch-scoped accumulator threaded through a step's
// pre-hook, per-course processing, and post-hook within one advancement
// pass. It replaces any global mutable counters a step might be tempted
// to keep.
type BatchRun struct {
	counters map[string]int64
	values   map[string]any
}

// NewBatchRun creates an empty accumulator for one subplugin and one run.
func NewBatchRun() *BatchRun {
	return &BatchRun{
		counters: make(map[string]int64),
		values:   make(map[string]any),
	}
}

// Add increments a named counter and returns the new value.
func (b *BatchRun) Add(name string, delta int64) int64 {
	b.counters[name] += delta

	return b.counters[name]
}

// Counter returns a named counter's current value.
func (b *BatchRun) Counter(name string) int64 {
	return b.counters[name]
}

// Put stores an arbitrary batch-scoped value.
func (b *BatchRun) Put(key string, value any) {
	b.values[key] = value
}

// Value retrieves a batch-scoped value.
func (b *BatchRun) Value(key string) (any, bool) {
	value, ok := b.values[key]

	return value, ok
}

// BatchAware is the optional capability of a step that needs hooks
// around a whole advancement pass, e.g. to batch outbound notifications.
type BatchAware interface {
	PreBatch(ctx context.Context, run *BatchRun) error
	PostBatch(ctx context.Context, run *BatchRun) error
}
