package risk

import (
	"fmt"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
)

// Thresholds are the fixed lower bounds, on the normalized scale, above
// which an employee enters each tier. Anything below Medium is Low.
type Thresholds struct {
	Medium   float64 `koanf:"medium"`
	High     float64 `koanf:"high"`
	Critical float64 `koanf:"critical"`
}

// DefaultThresholds returns the documented tier bounds for a 0..100 range.
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 25, High: 50, Critical: 75}
}

// Validate checks ordering and that the bounds sit inside the output range.
func (t Thresholds) Validate(lo, hi float64) error {
	if !(t.Medium < t.High && t.High < t.Critical) {
		return fmt.Errorf("%w: thresholds must be strictly increasing (medium < high < critical), got %v/%v/%v",
			ErrInvalidThresholds, t.Medium, t.High, t.Critical)
	}
	if t.Medium < lo || t.Critical > hi {
		return fmt.Errorf("%w: thresholds %v..%v outside output range [%v, %v]",
			ErrInvalidThresholds, t.Medium, t.Critical, lo, hi)
	}
	return nil
}

// Classify maps a normalized score to its tier.
func (t Thresholds) Classify(score float64) model.Tier {
	switch {
	case score >= t.Critical:
		return model.TierCritical
	case score >= t.High:
		return model.TierHigh
	case score >= t.Medium:
		return model.TierMedium
	default:
		return model.TierLow
	}
}
