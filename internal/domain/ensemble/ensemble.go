// Package ensemble wraps the pre-trained anomaly detectors behind a single
// batch scoring capability. Models are opaque, fitted offline, and immutable
// here: scoring the same batch twice produces identical output.
package ensemble

import (
	"context"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/pkg/logger"
	"github.com/sristy17/insider-Threat-Detection/pkg/metrics"
)

// Model is one pre-trained detector. Score returns a raw, model-specific
// anomaly score for a scaled feature vector; higher means more anomalous.
type Model interface {
	Name() string
	Score(ctx context.Context, vec []float64) (float64, error)
}

// SubScores maps employee ID to the per-model raw scores produced for a
// batch. A model that failed for the batch is absent for every employee;
// callers must treat absence as "no sub-score", never as zero.
type SubScores map[string]map[string]float64

// Option applies a configuration option to the Ensemble.
type Option func(*Ensemble)

// WithScaler sets the frozen feature scaler applied before model input.
func WithScaler(s *Scaler) Option {
	return func(e *Ensemble) {
		if s != nil {
			e.scaler = s
		}
	}
}

// WithLogger sets a custom logger for the ensemble.
func WithLogger(l logger.Logger) Option {
	return func(e *Ensemble) {
		if l != nil {
			e.log = l
		}
	}
}

// Ensemble evaluates every configured model against a batch, isolating
// failures so one broken model never prevents scoring by the others.
type Ensemble struct {
	models []Model
	scaler *Scaler
	log    logger.Logger
}

// New constructs an Ensemble over the given models.
func New(models []Model, opts ...Option) *Ensemble {
	e := &Ensemble{
		models: models,
		log:    logger.Get().Named("ensemble"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Models returns the names of the configured detectors.
func (e *Ensemble) Models() []string {
	names := make([]string, len(e.models))
	for i, m := range e.models {
		names[i] = m.Name()
	}
	return names
}

// ScoreBatch evaluates each model independently over the whole batch.
//
// A model that errors for any record yields no sub-score for that model for
// every record in the batch; the failure is logged and counted but never
// aborts the batch. No state is touched: the only observable effect is the
// returned mapping.
func (e *Ensemble) ScoreBatch(ctx context.Context, batch []model.FeatureRecord) SubScores {
	out := make(SubScores, len(batch))
	for _, rec := range batch {
		out[rec.EmployeeID] = make(map[string]float64, len(e.models))
	}
	if len(batch) == 0 {
		return out
	}

	vectors := make([][]float64, len(batch))
	for i, rec := range batch {
		v := rec.Vector()
		if e.scaler != nil {
			v = e.scaler.Transform(v)
		}
		vectors[i] = v
	}

	for _, m := range e.models {
		scores, err := e.scoreModel(ctx, m, vectors)
		if err != nil {
			metrics.RecordModelEvaluationError(m.Name())
			e.log.Warn(ctx, "model failed for batch; sub-scores absent",
				logger.String("model", m.Name()),
				logger.Int("batchSize", len(batch)),
				logger.Error(err),
			)
			continue
		}
		for i, rec := range batch {
			out[rec.EmployeeID][m.Name()] = scores[i]
		}
	}
	return out
}

// scoreModel runs one model over all vectors, failing the model as a whole
// on the first error.
func (e *Ensemble) scoreModel(ctx context.Context, m Model, vectors [][]float64) ([]float64, error) {
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		s, err := m.Score(ctx, v)
		if err != nil {
			return nil, wrapEvaluation(m.Name(), err)
		}
		scores[i] = s
	}
	return scores, nil
}
