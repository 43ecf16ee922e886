package activitygen

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/ensemble"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
)

const (
	forestTrees      = 50
	forestSampleSize = 64
	svmSupportSize   = 32
	svmQuantile      = 0.05
)

// FittedParams bundles one reference fitting run: the frozen scaler plus
// every detector's parameters, ready for ensemble.SaveParams.
type FittedParams struct {
	Scaler      ensemble.ScalerParams
	Forest      ensemble.IsolationForestParams
	SVM         ensemble.OneClassSVMParams
	Autoencoder ensemble.AutoencoderParams
}

// Fit derives reference model parameters from an engineered feature matrix.
// This is a lightweight offline fitting, not a training framework: isolation
// trees are grown on standardized subsamples, the one-class boundary uses
// sampled support points with a quantile offset, and the autoencoder is a
// tied-weight random projection. Deterministic for a fixed seed.
func Fit(records []model.FeatureRecord, seed int64) (FittedParams, error) {
	if len(records) < 2 {
		return FittedParams{}, fmt.Errorf("fitting needs at least 2 records, got %d", len(records))
	}
	matrix := make([][]float64, len(records))
	dim := len(records[0].Features)
	for i, rec := range records {
		v := rec.Vector()
		if len(v) != dim {
			return FittedParams{}, fmt.Errorf("record %s has %d features, expected %d", rec.EmployeeID, len(v), dim)
		}
		matrix[i] = v
	}

	rng := rand.New(rand.NewSource(seed))

	scaler := fitScaler(matrix)
	sc, err := ensemble.NewScaler(scaler)
	if err != nil {
		return FittedParams{}, err
	}
	scaled := make([][]float64, len(matrix))
	for i, row := range matrix {
		scaled[i] = sc.Transform(row)
	}

	return FittedParams{
		Scaler:      scaler,
		Forest:      fitForest(scaled, rng),
		SVM:         fitSVM(scaled, rng),
		Autoencoder: fitAutoencoder(dim, rng),
	}, nil
}

// Save writes every parameter file into dir using the standard layout.
func (p FittedParams) Save(dir string) error {
	if err := ensemble.SaveParams(dir, "scaler", p.Scaler); err != nil {
		return err
	}
	if err := ensemble.SaveParams(dir, model.ModelIsolationForest, p.Forest); err != nil {
		return err
	}
	if err := ensemble.SaveParams(dir, model.ModelOneClassSVM, p.SVM); err != nil {
		return err
	}
	return ensemble.SaveParams(dir, model.ModelAutoencoder, p.Autoencoder)
}

func fitScaler(matrix [][]float64) ensemble.ScalerParams {
	dim := len(matrix[0])
	mean := make([]float64, dim)
	std := make([]float64, dim)
	n := float64(len(matrix))

	for _, row := range matrix {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range matrix {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
	}
	return ensemble.ScalerParams{Mean: mean, Std: std}
}

func fitForest(matrix [][]float64, rng *rand.Rand) ensemble.IsolationForestParams {
	sample := forestSampleSize
	if sample > len(matrix) {
		sample = len(matrix)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample)))) + 1

	trees := make([]ensemble.IsoTree, forestTrees)
	for t := range trees {
		sub := make([][]float64, sample)
		for i := range sub {
			sub[i] = matrix[rng.Intn(len(matrix))]
		}
		b := &treeBuilder{rng: rng}
		b.grow(sub, 0, maxDepth)
		trees[t] = ensemble.IsoTree{Nodes: b.nodes}
	}
	return ensemble.IsolationForestParams{Trees: trees, SampleSize: sample}
}

// treeBuilder grows one isolation tree into a node arena.
type treeBuilder struct {
	rng   *rand.Rand
	nodes []ensemble.IsoNode
}

// grow appends the subtree over rows and returns its root index.
func (b *treeBuilder) grow(rows [][]float64, depth, maxDepth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, ensemble.IsoNode{Left: -1, Right: -1, Size: len(rows)})
	if depth >= maxDepth || len(rows) <= 1 {
		return idx
	}

	dim := len(rows[0])
	feature, threshold, ok := b.pickSplit(rows, dim)
	if !ok {
		return idx
	}

	var left, right [][]float64
	for _, row := range rows {
		if row[feature] < threshold {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return idx
	}

	b.nodes[idx].Feature = feature
	b.nodes[idx].Threshold = threshold
	b.nodes[idx].Left = b.grow(left, depth+1, maxDepth)
	b.nodes[idx].Right = b.grow(right, depth+1, maxDepth)
	return idx
}

// pickSplit tries random features until one has spread to split on.
func (b *treeBuilder) pickSplit(rows [][]float64, dim int) (int, float64, bool) {
	for attempt := 0; attempt < dim; attempt++ {
		feature := b.rng.Intn(dim)
		lo, hi := rows[0][feature], rows[0][feature]
		for _, row := range rows[1:] {
			lo = math.Min(lo, row[feature])
			hi = math.Max(hi, row[feature])
		}
		if hi > lo {
			return feature, lo + b.rng.Float64()*(hi-lo), true
		}
	}
	return 0, 0, false
}

func fitSVM(matrix [][]float64, rng *rand.Rand) ensemble.OneClassSVMParams {
	support := svmSupportSize
	if support > len(matrix) {
		support = len(matrix)
	}
	vectors := make([][]float64, support)
	for i := range vectors {
		src := matrix[rng.Intn(len(matrix))]
		vectors[i] = append([]float64(nil), src...)
	}

	dim := len(matrix[0])
	gamma := 1.0 / float64(dim)
	coef := 1.0 / float64(support)
	coefs := make([]float64, support)
	for i := range coefs {
		coefs[i] = coef
	}

	// Offset so roughly (1 - svmQuantile) of the training points sit inside
	// the boundary.
	decisions := make([]float64, len(matrix))
	for i, row := range matrix {
		d := 0.0
		for _, sv := range vectors {
			d2 := 0.0
			for j := range sv {
				diff := row[j] - sv[j]
				d2 += diff * diff
			}
			d += coef * math.Exp(-gamma*d2)
		}
		decisions[i] = d
	}
	sort.Float64s(decisions)
	rho := decisions[int(svmQuantile*float64(len(decisions)))]

	return ensemble.OneClassSVMParams{Vectors: vectors, Coefs: coefs, Gamma: gamma, Rho: rho}
}

// fitAutoencoder builds a tied-weight random projection: records far from
// the training distribution's principal directions reconstruct poorly.
func fitAutoencoder(dim int, rng *rand.Rand) ensemble.AutoencoderParams {
	hidden := dim / 2
	if hidden < 2 {
		hidden = 2
	}
	scale := 1.0 / math.Sqrt(float64(dim))

	encoder := make([][]float64, hidden)
	for i := range encoder {
		row := make([]float64, dim)
		for j := range row {
			row[j] = rng.NormFloat64() * scale
		}
		encoder[i] = row
	}
	decoder := make([][]float64, dim)
	for i := range decoder {
		row := make([]float64, hidden)
		for j := range row {
			row[j] = encoder[j][i]
		}
		decoder[i] = row
	}
	return ensemble.AutoencoderParams{
		Encoder: encoder,
		EncBias: make([]float64, hidden),
		Decoder: decoder,
		DecBias: make([]float64, dim),
	}
}
