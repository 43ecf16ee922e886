// Package model contains domain records passed between layers.
package model

import "time"

// Model names form a closed set; adding a detector means adding a constant
// here and a weight for it in the configuration.
const (
	ModelIsolationForest = "isolation_forest"
	ModelOneClassSVM     = "one_class_svm"
	ModelAutoencoder     = "autoencoder"
)

// Auxiliary behavioral signals that feed the risk composition alongside
// model sub-scores.
const (
	SignalSensitiveFiles = "sensitive_total"
	SignalFailedLogins   = "failed_total"
)

// Tier is the ordered categorical risk bucket derived from the normalized
// score.
type Tier string

const (
	TierLow      Tier = "Low"
	TierMedium   Tier = "Medium"
	TierHigh     Tier = "High"
	TierCritical Tier = "Critical"
)

// Order returns the tier's position in the low-to-critical ordering.
// Unknown tiers sort below Low.
func (t Tier) Order() int {
	switch t {
	case TierLow:
		return 1
	case TierMedium:
		return 2
	case TierHigh:
		return 3
	case TierCritical:
		return 4
	default:
		return 0
	}
}

// Feature is one named numeric feature. Records carry features as an
// ordered slice so the vector fed to the models is stable across calls.
type Feature struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// FeatureRecord is one employee's engineered feature vector for a single
// batch. An employee ID never reappears in a later batch; the population is
// strictly append-only.
type FeatureRecord struct {
	EmployeeID string    `json:"employee_id"`
	Role       string    `json:"role"`
	Features   []Feature `json:"features"`

	// Behavioral signal columns used directly by the risk composer.
	SensitiveTotal float64 `json:"sensitive_total"`
	FailedTotal    float64 `json:"failed_total"`

	// Batch is the sequence number of the batch this record arrived in.
	Batch int `json:"batch"`
}

// Vector returns the ordered feature values, ready for model input.
func (r FeatureRecord) Vector() []float64 {
	v := make([]float64, len(r.Features))
	for i, f := range r.Features {
		v[i] = f.Value
	}
	return v
}

// SubScore is a single model's raw output for one employee. Raw scores are
// unbounded and model-specific; absence of a sub-score is meaningful and
// distinct from zero.
type SubScore struct {
	EmployeeID string  `json:"employee_id"`
	Model      string  `json:"model"`
	Raw        float64 `json:"raw"`
}

// ScoredEntity is the durable cumulative record for one employee.
//
// RawRisk is immutable once computed. Score and Tier are recomputed after
// every batch because normalization is always global over the full
// population.
type ScoredEntity struct {
	EmployeeID string             `json:"employee_id"`
	Role       string             `json:"role"`
	SubScores  map[string]float64 `json:"sub_scores"`

	SensitiveTotal float64 `json:"sensitive_total"`
	FailedTotal    float64 `json:"failed_total"`

	RawRisk float64 `json:"raw_risk"`
	Score   float64 `json:"score"`
	Tier    Tier    `json:"tier"`

	// Partial marks an employee that one or more models failed to score;
	// its RawRisk is lower by construction, not by evidence.
	Partial bool `json:"partial"`

	// Batch is the batch number in which the employee was first scored.
	Batch int `json:"batch"`
}

// Clone returns a deep copy so published snapshots cannot be mutated
// through shared map references.
func (e ScoredEntity) Clone() ScoredEntity {
	c := e
	c.SubScores = make(map[string]float64, len(e.SubScores))
	for k, v := range e.SubScores {
		c.SubScores[k] = v
	}
	return c
}

// Entry is the read shape returned by ranking queries.
type Entry struct {
	Rank       int     `json:"rank"`
	EmployeeID string  `json:"employee_id"`
	Role       string  `json:"role"`
	Score      float64 `json:"score"`
	RawRisk    float64 `json:"raw_risk"`
	Tier       Tier    `json:"tier"`
	Partial    bool    `json:"partial"`
	Batch      int     `json:"batch"`
}

// BatchProgress is the append-only record emitted after each completed
// batch.
type BatchProgress struct {
	Batch         int       `json:"batch"`
	TotalBatches  int       `json:"total_batches"` // 0 when unknown upfront
	InBatch       int       `json:"in_batch"`
	Cumulative    int       `json:"cumulative"`
	CompletedAt   time.Time `json:"completed_at"`
	HighCount     int       `json:"high_count"`
	CriticalCount int       `json:"critical_count"`
}
