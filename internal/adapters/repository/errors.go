package repository

import "errors"

// Sentinel kinds for result set errors.
var (
	// ErrDuplicateEntity guards the append-only population: a batch that
	// re-submits an already-scored employee is rejected whole, with no
	// partial merge. This is the correctness check against replayed batches.
	ErrDuplicateEntity = errors.New("employee already scored")

	ErrNotFound     = errors.New("employee not found")
	ErrInvalidLimit = errors.New("invalid result limit")
)
