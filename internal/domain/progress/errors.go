package progress

import "errors"

// Sentinel kinds for batch log errors.
var (
	ErrBatchOrder      = errors.New("batch out of order")
	ErrBatchAccounting = errors.New("cumulative count mismatch")
)
