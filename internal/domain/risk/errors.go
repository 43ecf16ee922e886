package risk

import "errors"

// Sentinel kinds for risk configuration errors. All are fatal at startup,
// before any batch is accepted.
var (
	ErrInvalidWeights       = errors.New("invalid risk weights")
	ErrInvalidThresholds    = errors.New("invalid tier thresholds")
	ErrInvalidNormalization = errors.New("invalid normalization")
)
