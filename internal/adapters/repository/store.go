// Package repository owns the cumulative result set: every employee scored
// so far, with globally renormalized scores and tiers.
package repository

import (
	"context"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
)

// Snapshot is an immutable view of the cumulative result set, published
// atomically after each completed merge. Entries are ranked by normalized
// score descending, employee ID ascending.
type Snapshot struct {
	Entries []model.Entry
	Batches int

	byID map[string]int // employee ID -> index into Entries
}

// Entry returns the ranked entry for an employee ID.
func (s *Snapshot) Entry(id string) (model.Entry, bool) {
	if s == nil {
		return model.Entry{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return model.Entry{}, false
	}
	return s.Entries[i], true
}

// Store provides access to the cumulative result set. Merge is called by
// the single batch writer only; reads are safe from concurrent observers
// and always see a fully merged, fully renormalized state.
type Store interface {
	// Merge appends newly scored employees, renormalizes the whole
	// population, retiers everyone, and publishes a fresh snapshot.
	// Returns ErrDuplicateEntity and leaves all state untouched if any ID
	// was already scored. An empty batch advances the batch counter and
	// republishes an identical snapshot.
	Merge(ctx context.Context, batch []model.ScoredEntity) (*Snapshot, error)

	// Snapshot returns the latest published snapshot.
	Snapshot(ctx context.Context) *Snapshot

	// Rank returns the ranked entry for one employee.
	// Returns ErrNotFound if the employee is unknown.
	Rank(ctx context.Context, employeeID string) (model.Entry, error)

	// TopN returns the n highest-risk entries.
	TopN(ctx context.Context, n int) ([]model.Entry, error)

	// Get returns the full scored record for one employee, including the
	// per-model sub-scores that ranked entries omit.
	// Returns ErrNotFound if the employee is unknown.
	Get(ctx context.Context, employeeID string) (model.ScoredEntity, error)

	// Contains reports whether an employee ID has already been scored.
	Contains(ctx context.Context, employeeID string) bool

	// Count returns the cumulative population size.
	Count(ctx context.Context) int
}
