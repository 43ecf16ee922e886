package stream

import (
	"context"
	"errors"
	"time"

	"github.com/sristy17/insider-Threat-Detection/internal/adapters/repository"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/pkg/logger"
	"github.com/sristy17/insider-Threat-Detection/pkg/metrics"
)

// Processor scores one batch end to end. Satisfied by the app service.
type Processor interface {
	ScoreBatch(ctx context.Context, batch []model.FeatureRecord) (model.BatchProgress, error)
}

// Pump is the single writer of the scoring pipeline. It drains the queue
// one batch at a time, pacing consecutive batches by a fixed interval, so
// the store only ever sees strictly ordered merges.
type Pump struct {
	queue    Queue
	proc     Processor
	interval time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// PumpOption applies a configuration option to the Pump.
type PumpOption func(*Pump)

// WithInterval sets the minimum spacing between consecutive batches.
// Zero processes batches as fast as they arrive.
func WithInterval(d time.Duration) PumpOption {
	return func(p *Pump) {
		if d >= 0 {
			p.interval = d
		}
	}
}

// WithPumpLogger sets a custom logger for the pump.
func WithPumpLogger(l logger.Logger) PumpOption {
	return func(p *Pump) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPump creates a pump over the given queue and processor.
func NewPump(queue Queue, proc Processor, opts ...PumpOption) *Pump {
	p := &Pump{
		queue:    queue,
		proc:     proc,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("pump"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts the pump loop. It returns when the context is canceled, the
// queue closes, or Shutdown is called. Call from exactly one goroutine.
func (p *Pump) Run(ctx context.Context) {
	defer close(p.done)

	batches := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			p.process(ctx, batch)
			metrics.UpdateQueueDepth(p.queue.Len(ctx))

			if p.interval > 0 {
				select {
				case <-time.After(p.interval):
				case <-ctx.Done():
					return
				case <-p.shutdown:
					return
				}
			}
		}
	}
}

// process scores one batch. A rejected batch is logged and dropped; the
// pump never stops on a bad batch.
func (p *Pump) process(ctx context.Context, batch Batch) {
	rec, err := p.proc.ScoreBatch(ctx, batch)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntity) {
			p.logger.Warn(ctx, "batch rejected as duplicate, dropping",
				logger.Int("inBatch", len(batch)),
				logger.Error(err),
			)
			return
		}
		p.logger.Error(ctx, "batch processing failed",
			logger.Int("inBatch", len(batch)),
			logger.Error(err),
		)
		return
	}
	p.logger.Debug(ctx, "batch processed",
		logger.Int("batch", rec.Batch),
		logger.Int("cumulative", rec.Cumulative),
	)
}

// Shutdown stops the pump after the in-flight batch completes.
func (p *Pump) Shutdown(ctx context.Context) error {
	select {
	case <-p.shutdown:
	default:
		close(p.shutdown)
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "pump shutdown timed out")
		return ctx.Err()
	}
}
