// Package risk composes model sub-scores and behavioral signals into one
// raw risk value, normalizes raw values over the full population, and maps
// normalized scores to categorical tiers.
package risk

import (
	"fmt"
	"math"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
)

// Weights is the fixed factor weight table. Keys are the model names plus
// the behavioral signal names; all factors must be present and non-negative.
// The sum need not be 1, but the defaults are for interpretability.
type Weights map[string]float64

// RequiredFactors lists every input the weight table must cover.
func RequiredFactors() []string {
	return []string{
		model.ModelIsolationForest,
		model.ModelOneClassSVM,
		model.ModelAutoencoder,
		model.SignalSensitiveFiles,
		model.SignalFailedLogins,
	}
}

// DefaultWeights returns the weight table the production models were tuned
// against.
func DefaultWeights() Weights {
	return Weights{
		model.ModelIsolationForest: 0.30,
		model.ModelOneClassSVM:     0.25,
		model.ModelAutoencoder:     0.15,
		model.SignalSensitiveFiles: 0.20,
		model.SignalFailedLogins:   0.10,
	}
}

// Composer produces the composite raw risk value for one employee. Pure:
// no shared state, no I/O.
type Composer struct {
	weights Weights
}

// NewComposer validates the weight table and fails fast on a negative
// weight or a missing factor.
func NewComposer(w Weights) (*Composer, error) {
	for _, factor := range RequiredFactors() {
		weight, ok := w[factor]
		if !ok {
			return nil, fmt.Errorf("%w: missing weight for %q", ErrInvalidWeights, factor)
		}
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return nil, fmt.Errorf("%w: weight for %q must be a finite non-negative number, got %v", ErrInvalidWeights, factor, weight)
		}
	}
	for factor := range w {
		if !isRequiredFactor(factor) {
			return nil, fmt.Errorf("%w: unknown factor %q", ErrInvalidWeights, factor)
		}
	}
	copied := make(Weights, len(w))
	for k, v := range w {
		copied[k] = v
	}
	return &Composer{weights: copied}, nil
}

func isRequiredFactor(name string) bool {
	for _, f := range RequiredFactors() {
		if f == name {
			return true
		}
	}
	return false
}

// Compose returns the weighted composite raw risk and whether the employee
// was only partially scored.
//
// A missing or non-finite sub-score is excluded from the sum and the
// remaining weights are NOT renormalized: a partially-scored employee ends
// up lower by construction, and the partial flag lets consumers tell
// "genuinely low" from "incompletely scored" apart.
func (c *Composer) Compose(subScores map[string]float64, sensitiveTotal, failedTotal float64) (float64, bool) {
	raw := 0.0
	partial := false

	for _, name := range []string{model.ModelIsolationForest, model.ModelOneClassSVM, model.ModelAutoencoder} {
		score, ok := subScores[name]
		if !ok || !isFinite(score) {
			partial = true
			continue
		}
		raw += c.weights[name] * score
	}

	if isFinite(sensitiveTotal) {
		raw += c.weights[model.SignalSensitiveFiles] * sensitiveTotal
	} else {
		partial = true
	}
	if isFinite(failedTotal) {
		raw += c.weights[model.SignalFailedLogins] * failedTotal
	} else {
		partial = true
	}

	return raw, partial
}

// Breakdown returns each factor's percentage contribution to an employee's
// raw risk, for explainability in the dashboard feed.
func (c *Composer) Breakdown(e model.ScoredEntity) map[string]float64 {
	total := math.Abs(e.RawRisk)
	if total == 0 {
		total = 1
	}
	out := make(map[string]float64, len(c.weights))
	for _, name := range []string{model.ModelIsolationForest, model.ModelOneClassSVM, model.ModelAutoencoder} {
		if score, ok := e.SubScores[name]; ok {
			out[name] = round1(c.weights[name] * score / total * 100)
		}
	}
	out[model.SignalSensitiveFiles] = round1(c.weights[model.SignalSensitiveFiles] * e.SensitiveTotal / total * 100)
	out[model.SignalFailedLogins] = round1(c.weights[model.SignalFailedLogins] * e.FailedTotal / total * 100)
	return out
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
