// Package stream feeds feature batches into the scoring pipeline: a bounded
// in-memory queue on the intake side and a single pump goroutine on the
// scoring side, so merges are strictly serialized.
package stream

import (
	"context"
	"sync"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/pkg/metrics"
)

const defaultQueueCapacity = 64

// Batch is the payload type flowing through the queue: one batch of
// engineered feature records.
type Batch = []model.FeatureRecord

// Queue provides non-blocking enqueue and channel-based dequeue of batches.
type Queue interface {
	// Enqueue adds a batch. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, b Batch) bool

	// Dequeue returns a channel receiving batches in arrival order. The
	// channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Batch

	// Len returns the number of queued batches.
	Len(ctx context.Context) int

	// Close stops intake; queued batches can still be drained.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	batches chan Batch
	cap     int

	mu     sync.RWMutex
	closed bool
}

// QueueOption applies a configuration option to the InMemoryQueue.
type QueueOption func(*InMemoryQueue)

// WithCapacity sets the maximum number of pending batches.
func WithCapacity(n int) QueueOption {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.cap = n
		}
	}
}

// NewInMemoryQueue creates an empty bounded queue.
func NewInMemoryQueue(opts ...QueueOption) *InMemoryQueue {
	q := &InMemoryQueue{cap: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.batches = make(chan Batch, q.cap)
	metrics.UpdateQueueDepth(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, b Batch) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.batches <- b:
		metrics.UpdateQueueDepth(len(q.batches))
		return true
	case <-ctx.Done():
		return false
	default:
		return false
	}
}

// Dequeue implements Queue.Dequeue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Batch {
	return q.batches
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.batches)
}

// Close implements Queue.Close.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.batches)
	q.closed = true
	return nil
}

// IsClosed implements Queue.IsClosed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
