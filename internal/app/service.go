// Package service wires the scoring pipeline together and implements the
// dependencies required by the HTTP API: batches of engineered features go
// in, a renormalized cumulative ranking comes out.
package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sristy17/insider-Threat-Detection/internal/adapters/repository"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/ensemble"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/progress"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/risk"
	"github.com/sristy17/insider-Threat-Detection/pkg/logger"
	"github.com/sristy17/insider-Threat-Detection/pkg/metrics"
)

// BatchScorer evaluates the model ensemble over a batch. Satisfied by
// *ensemble.Ensemble; tests substitute deterministic fakes.
type BatchScorer interface {
	ScoreBatch(ctx context.Context, batch []model.FeatureRecord) ensemble.SubScores
	Models() []string
}

// Exporter persists a completed batch's outcome: the fresh snapshot plus
// its progress record. Export failures never fail the batch.
type Exporter interface {
	Name() string
	Export(ctx context.Context, snap *repository.Snapshot, rec model.BatchProgress) error
}

// Service owns the single-writer scoring pipeline. ScoreBatch is the only
// mutating entry point; everything else reads published snapshots.
type Service struct {
	mu sync.Mutex // serializes ScoreBatch

	store     *repository.ResultStore
	scorer    BatchScorer
	composer  *risk.Composer
	tracker   *progress.Tracker
	exporters []Exporter

	// Configuration consumed at Start.
	weights      risk.Weights
	thresholds   risk.Thresholds
	method       risk.Method
	scoreMin     float64
	scoreMax     float64
	modelDir     string
	totalBatches int
	capacity     int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWeights sets the risk composition weights.
func WithWeights(w risk.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithThresholds sets the tier classification thresholds.
func WithThresholds(t risk.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = t
	}
}

// WithNormalization sets the normalization method and target score range.
func WithNormalization(method risk.Method, lo, hi float64) Option {
	return func(s *Service) {
		s.method = method
		s.scoreMin = lo
		s.scoreMax = hi
	}
}

// WithModelDir sets the directory the ensemble parameters are loaded from.
func WithModelDir(dir string) Option {
	return func(s *Service) {
		s.modelDir = dir
	}
}

// WithScorer injects an already-built scorer, bypassing the model
// directory load at Start.
func WithScorer(sc BatchScorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithExporter registers an exporter; exporters run in registration order
// after every merged batch.
func WithExporter(e Exporter) Option {
	return func(s *Service) {
		if e != nil {
			s.exporters = append(s.exporters, e)
		}
	}
}

// WithTotalBatches sets the expected batch count when known upfront.
func WithTotalBatches(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.totalBatches = n
		}
	}
}

// WithExpectedPopulation pre-sizes the result store.
func WithExpectedPopulation(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		weights:    risk.DefaultWeights(),
		thresholds: risk.DefaultThresholds(),
		method:     risk.MethodMinMax,
		scoreMin:   0,
		scoreMax:   100,
		modelDir:   "models",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates the configuration and builds the pipeline components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	composer, err := risk.NewComposer(s.weights)
	if err != nil {
		return fmt.Errorf("risk weights: %w", err)
	}
	normalizer, err := risk.NewNormalizer(s.method, s.scoreMin, s.scoreMax)
	if err != nil {
		return fmt.Errorf("normalization: %w", err)
	}
	if err := s.thresholds.Validate(s.scoreMin, s.scoreMax); err != nil {
		return fmt.Errorf("tier thresholds: %w", err)
	}

	s.composer = composer
	s.store = repository.NewResultStore(normalizer, s.thresholds,
		repository.WithInitialCapacity(s.capacity),
	)

	var trackerOpts []progress.Option
	if s.totalBatches > 0 {
		trackerOpts = append(trackerOpts, progress.WithTotalBatches(s.totalBatches))
	}
	s.tracker = progress.NewTracker(trackerOpts...)

	if s.scorer == nil {
		ens, err := ensemble.Load(ctx, s.modelDir)
		if err != nil {
			return fmt.Errorf("loading models from %s: %w", s.modelDir, err)
		}
		s.scorer = ens
	}

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Any("models", s.scorer.Models()),
		logger.String("normalization", string(s.method)),
		logger.Int("totalBatches", s.totalBatches),
	)
	return nil
}

// Stop shuts the service down. Pending exports finish with the batch that
// triggered them; there is no background state to drain.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "scoring service stopped")
}

// ScoreBatch runs one batch through the full pipeline: duplicate rejection,
// ensemble scoring, risk composition, merge with global renormalization, and
// progress recording. Returns the batch's progress record.
//
// A duplicate anywhere in the batch rejects the whole batch before any model
// is evaluated. An empty batch is valid: it advances the batch counter and
// republishes an identical snapshot.
func (s *Service) ScoreBatch(ctx context.Context, batch []model.FeatureRecord) (model.BatchProgress, error) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return model.BatchProgress{}, ErrNotStarted
	}

	// Cheap rejection up front so a replayed batch never burns model time.
	// The store re-checks under its own lock before mutating.
	seen := make(map[string]struct{}, len(batch))
	for _, rec := range batch {
		if s.store.Contains(ctx, rec.EmployeeID) {
			metrics.RecordBatchRejected()
			return model.BatchProgress{}, fmt.Errorf("%w: %s", repository.ErrDuplicateEntity, rec.EmployeeID)
		}
		if _, ok := seen[rec.EmployeeID]; ok {
			metrics.RecordBatchRejected()
			return model.BatchProgress{}, fmt.Errorf("%w: %s appears twice in batch", repository.ErrDuplicateEntity, rec.EmployeeID)
		}
		seen[rec.EmployeeID] = struct{}{}
	}

	batchNum := s.store.Batches(ctx) + 1
	subScores := s.scorer.ScoreBatch(ctx, batch)

	entities := make([]model.ScoredEntity, len(batch))
	partial := 0
	for i, rec := range batch {
		subs := subScores[rec.EmployeeID]
		raw, incomplete := s.composer.Compose(subs, rec.SensitiveTotal, rec.FailedTotal)
		entities[i] = model.ScoredEntity{
			EmployeeID:     rec.EmployeeID,
			Role:           rec.Role,
			SubScores:      subs,
			SensitiveTotal: rec.SensitiveTotal,
			FailedTotal:    rec.FailedTotal,
			RawRisk:        raw,
			Partial:        incomplete,
			Batch:          batchNum,
		}
		if incomplete {
			partial++
		}
	}

	snap, err := s.store.Merge(ctx, entities)
	if err != nil {
		metrics.RecordBatchRejected()
		return model.BatchProgress{}, err
	}

	tierCounts := map[model.Tier]int{}
	for _, e := range snap.Entries {
		tierCounts[e.Tier]++
	}
	high := tierCounts[model.TierHigh]
	critical := tierCounts[model.TierCritical]

	rec, err := s.tracker.Record(ctx, snap.Batches, len(batch), len(snap.Entries), high, critical, time.Now().UTC())
	if err != nil {
		return model.BatchProgress{}, fmt.Errorf("recording progress: %w", err)
	}

	metrics.RecordBatchProcessed()
	metrics.RecordEntitiesScored(len(batch))
	metrics.RecordPartialEntities(partial)
	metrics.RecordBatchDuration(float64(time.Since(start).Milliseconds()))
	for _, t := range []model.Tier{model.TierLow, model.TierMedium, model.TierHigh, model.TierCritical} {
		metrics.UpdateTierCount(string(t), tierCounts[t])
	}

	for _, exp := range s.exporters {
		if err := exp.Export(ctx, snap, rec); err != nil {
			metrics.RecordExportError()
			s.logger.Error(ctx, "export failed",
				logger.String("exporter", exp.Name()),
				logger.Int("batch", rec.Batch),
				logger.Error(err),
			)
		}
	}

	s.logger.Info(ctx, "batch merged",
		logger.Int("batch", rec.Batch),
		logger.Int("inBatch", rec.InBatch),
		logger.Int("cumulative", rec.Cumulative),
		logger.Int("partial", partial),
		logger.Int("high", high),
		logger.Int("critical", critical),
	)
	return rec, nil
}

// TopN returns the n highest-risk entries from the latest snapshot.
func (s *Service) TopN(ctx context.Context, n int) ([]model.Entry, error) {
	return s.store.TopN(ctx, n)
}

// Rank returns the ranked entry for one employee.
func (s *Service) Rank(ctx context.Context, employeeID string) (model.Entry, error) {
	return s.store.Rank(ctx, employeeID)
}

// EntityDetail is one employee's ranked entry enriched with the raw model
// sub-scores and the percentage contribution of each risk factor.
type EntityDetail struct {
	model.Entry
	SubScores map[string]float64 `json:"sub_scores"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// Entity returns the full detail for one employee.
func (s *Service) Entity(ctx context.Context, employeeID string) (EntityDetail, error) {
	entry, err := s.store.Rank(ctx, employeeID)
	if err != nil {
		return EntityDetail{}, err
	}
	ent, err := s.store.Get(ctx, employeeID)
	if err != nil {
		return EntityDetail{}, err
	}
	return EntityDetail{
		Entry:     entry,
		SubScores: ent.SubScores,
		Breakdown: s.composer.Breakdown(ent),
	}, nil
}

// Stats summarizes the cumulative population.
type Stats struct {
	TotalEntities int                `json:"total_entities"`
	TotalBatches  int                `json:"total_batches"`
	PartialCount  int                `json:"partial_count"`
	TierCounts    map[model.Tier]int `json:"tier_counts"`
	MinScore      float64            `json:"min_score"`
	MaxScore      float64            `json:"max_score"`
	MeanScore     float64            `json:"mean_score"`
}

// Stats derives summary statistics from the latest snapshot.
func (s *Service) Stats(ctx context.Context) Stats {
	snap := s.store.Snapshot(ctx)
	st := Stats{
		TotalEntities: len(snap.Entries),
		TotalBatches:  snap.Batches,
		TierCounts: map[model.Tier]int{
			model.TierLow:      0,
			model.TierMedium:   0,
			model.TierHigh:     0,
			model.TierCritical: 0,
		},
	}
	if len(snap.Entries) == 0 {
		return st
	}

	st.MinScore = math.Inf(1)
	st.MaxScore = math.Inf(-1)
	sum := 0.0
	for _, e := range snap.Entries {
		st.TierCounts[e.Tier]++
		if e.Partial {
			st.PartialCount++
		}
		st.MinScore = math.Min(st.MinScore, e.Score)
		st.MaxScore = math.Max(st.MaxScore, e.Score)
		sum += e.Score
	}
	st.MeanScore = sum / float64(len(snap.Entries))
	return st
}

// Progress returns the full batch-by-batch progress history.
func (s *Service) Progress(ctx context.Context) []model.BatchProgress {
	return s.tracker.History(ctx)
}

// LastProgress returns the most recent progress record, if any.
func (s *Service) LastProgress(ctx context.Context) (model.BatchProgress, bool) {
	return s.tracker.Last(ctx)
}

// Done reports whether every expected batch has been processed.
func (s *Service) Done(ctx context.Context) bool {
	return s.tracker.Done(ctx)
}

// Snapshot exposes the latest published snapshot for exporters and tests.
func (s *Service) Snapshot(ctx context.Context) *repository.Snapshot {
	return s.store.Snapshot(ctx)
}
