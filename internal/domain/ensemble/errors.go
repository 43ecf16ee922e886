package ensemble

import (
	"errors"
	"fmt"
)

// Sentinel kinds for ensemble errors. These allow errors.Is from callers.
var (
	ErrModelEvaluation = errors.New("model evaluation failed")
	ErrBadDimension    = errors.New("feature vector dimension mismatch")
	ErrNoModels        = errors.New("no model parameters found")
)

func wrapEvaluation(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrModelEvaluation, name, err)
}
