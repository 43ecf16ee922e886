// Package progress keeps the append-only log of completed batches used by
// external progress reporting.
package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
)

// Tracker records one entry per completed batch, in strictly increasing
// batch order starting at 1. Records are never mutated or deleted.
type Tracker struct {
	mu           sync.RWMutex
	records      []model.BatchProgress
	totalBatches int
	cumulative   int
}

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithTotalBatches declares the expected batch count when it is known
// upfront, enabling completion detection.
func WithTotalBatches(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.totalBatches = n
		}
	}
}

// NewTracker constructs an empty batch log.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record appends the progress entry for a completed batch. The batch number
// must be exactly one past the previous record, and the cumulative count
// must equal the running sum of batch sizes.
func (t *Tracker) Record(_ context.Context, batch, inBatch, cumulative, highCount, criticalCount int, completedAt time.Time) (model.BatchProgress, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if batch != len(t.records)+1 {
		return model.BatchProgress{}, fmt.Errorf("%w: got batch %d, want %d", ErrBatchOrder, batch, len(t.records)+1)
	}
	if cumulative != t.cumulative+inBatch {
		return model.BatchProgress{}, fmt.Errorf("%w: cumulative %d does not equal %d previously seen plus %d in batch",
			ErrBatchAccounting, cumulative, t.cumulative, inBatch)
	}

	rec := model.BatchProgress{
		Batch:         batch,
		TotalBatches:  t.totalBatches,
		InBatch:       inBatch,
		Cumulative:    cumulative,
		CompletedAt:   completedAt,
		HighCount:     highCount,
		CriticalCount: criticalCount,
	}
	t.records = append(t.records, rec)
	t.cumulative = cumulative
	return rec, nil
}

// History returns a copy of the full ordered batch log.
func (t *Tracker) History(_ context.Context) []model.BatchProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.BatchProgress, len(t.records))
	copy(out, t.records)
	return out
}

// Last returns the most recent record, if any.
func (t *Tracker) Last(_ context.Context) (model.BatchProgress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.records) == 0 {
		return model.BatchProgress{}, false
	}
	return t.records[len(t.records)-1], true
}

// Batches returns how many batches have been recorded.
func (t *Tracker) Batches(_ context.Context) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Done reports stream completion: true once the declared total batch count
// has been recorded. Always false when the total was unknown upfront.
func (t *Tracker) Done(_ context.Context) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalBatches > 0 && len(t.records) >= t.totalBatches
}
