package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/risk"
	"github.com/sristy17/insider-Threat-Detection/pkg/metrics"
)

// ResultStore is the in-memory Store implementation.
//
// Layout: an append-only arena slice in arrival order plus an ID index for
// O(1) duplicate checks. Ranking is rebuilt at publish time: global
// renormalization reshuffles every score on every batch anyway, so an
// incrementally maintained ordering would buy nothing. Merge is O(N) in the
// total population by design.
type ResultStore struct {
	mu         sync.RWMutex
	entities   []model.ScoredEntity
	index      map[string]int
	batches    int
	normalizer *risk.Normalizer
	thresholds risk.Thresholds

	snapshot atomic.Pointer[Snapshot]
}

// Option applies a configuration option to the ResultStore.
type Option func(*ResultStore)

// WithInitialCapacity pre-sizes the arena for an expected population.
func WithInitialCapacity(n int) Option {
	return func(s *ResultStore) {
		if n > 0 {
			s.entities = make([]model.ScoredEntity, 0, n)
		}
	}
}

// NewResultStore constructs an empty store that normalizes and tiers with
// the given, already-validated configuration.
func NewResultStore(normalizer *risk.Normalizer, thresholds risk.Thresholds, opts ...Option) *ResultStore {
	s := &ResultStore{
		index:      make(map[string]int),
		normalizer: normalizer,
		thresholds: thresholds,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{byID: map[string]int{}})
	return s
}

// Merge implements Store.Merge.
func (s *ResultStore) Merge(ctx context.Context, batch []model.ScoredEntity) (*Snapshot, error) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Reject the whole batch before touching anything: replayed or
	// double-submitted employees must not be double-counted.
	seen := make(map[string]struct{}, len(batch))
	for _, e := range batch {
		if _, ok := s.index[e.EmployeeID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.EmployeeID)
		}
		if _, ok := seen[e.EmployeeID]; ok {
			return nil, fmt.Errorf("%w: %s appears twice in batch", ErrDuplicateEntity, e.EmployeeID)
		}
		seen[e.EmployeeID] = struct{}{}
	}

	for _, e := range batch {
		s.index[e.EmployeeID] = len(s.entities)
		s.entities = append(s.entities, e.Clone())
	}
	s.batches++

	s.renormalize()
	snap := s.publish()

	metrics.RecordRenormalizationDuration(float64(time.Since(start).Milliseconds()))
	metrics.UpdatePopulationSize(len(s.entities))
	return snap, nil
}

// renormalize recomputes every entity's normalized score and tier from the
// full population's raw risk values. Raw fields are never touched.
func (s *ResultStore) renormalize() {
	raw := make([]float64, len(s.entities))
	for i := range s.entities {
		raw[i] = s.entities[i].RawRisk
	}
	normalized := s.normalizer.Apply(raw)
	for i := range s.entities {
		s.entities[i].Score = normalized[i]
		s.entities[i].Tier = s.thresholds.Classify(normalized[i])
	}
}

// publish rebuilds the ranked snapshot and swaps it in atomically. Callers
// hold the write lock; readers never block on it.
func (s *ResultStore) publish() *Snapshot {
	entries := make([]model.Entry, len(s.entities))
	for i, e := range s.entities {
		entries[i] = model.Entry{
			EmployeeID: e.EmployeeID,
			Role:       e.Role,
			Score:      e.Score,
			RawRisk:    e.RawRisk,
			Tier:       e.Tier,
			Partial:    e.Partial,
			Batch:      e.Batch,
		}
	}
	sortEntries(entries)
	assignRanks(entries)

	byID := make(map[string]int, len(entries))
	for i, e := range entries {
		byID[e.EmployeeID] = i
	}

	snap := &Snapshot{
		Entries: entries,
		Batches: s.batches,
		byID:    byID,
	}
	s.snapshot.Store(snap)
	metrics.IncrementSnapshotCount()
	return snap
}

// Snapshot implements Store.Snapshot.
func (s *ResultStore) Snapshot(_ context.Context) *Snapshot {
	return s.snapshot.Load()
}

// Rank implements Store.Rank.
func (s *ResultStore) Rank(ctx context.Context, employeeID string) (model.Entry, error) {
	if e, ok := s.Snapshot(ctx).Entry(employeeID); ok {
		return e, nil
	}
	return model.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, employeeID)
}

// TopN implements Store.TopN.
func (s *ResultStore) TopN(ctx context.Context, n int) ([]model.Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	entries := s.Snapshot(ctx).Entries
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]model.Entry, n)
	copy(out, entries[:n])
	return out, nil
}

// Get implements Store.Get. The returned record is a deep copy; callers
// can hold it across later merges without seeing renormalized values.
func (s *ResultStore) Get(_ context.Context, employeeID string) (model.ScoredEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[employeeID]
	if !ok {
		return model.ScoredEntity{}, fmt.Errorf("%w: %s", ErrNotFound, employeeID)
	}
	return s.entities[i].Clone(), nil
}

// Contains implements Store.Contains.
func (s *ResultStore) Contains(_ context.Context, employeeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[employeeID]
	return ok
}

// Count implements Store.Count.
func (s *ResultStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Batches returns how many batches have been merged, including empty ones.
func (s *ResultStore) Batches(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batches
}

// sortEntries orders by score descending, employee ID ascending. The ID
// tie-break keeps ranking deterministic across identical runs.
func sortEntries(entries []model.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].EmployeeID < entries[j].EmployeeID
	})
}

// assignRanks assigns dense ranks: equal scores share a rank and the next
// distinct score takes the following rank.
func assignRanks(entries []model.Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}
