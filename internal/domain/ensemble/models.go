package ensemble

import (
	"context"
	"fmt"
	"math"

	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
)

const eulerMascheroni = 0.5772156649015329

// averagePathLength is the expected unsuccessful-search path length c(n)
// for a binary search tree over n samples.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	f := float64(n)
	return 2*(math.Log(f-1)+eulerMascheroni) - 2*(f-1)/f
}

// IsoNode is one node of a fitted isolation tree. Left/Right index into the
// tree's node arena; -1 marks a leaf. Size is the number of training samples
// that reached the node.
type IsoNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Size      int     `json:"size"`
}

// IsoTree is one fitted isolation tree, root at index 0.
type IsoTree struct {
	Nodes []IsoNode `json:"nodes"`
}

// pathLength walks the tree for vec and returns the adjusted path length.
func (t IsoTree) pathLength(vec []float64) (float64, error) {
	depth := 0.0
	idx := 0
	for {
		n := t.Nodes[idx]
		if n.Left < 0 || n.Right < 0 {
			return depth + averagePathLength(n.Size), nil
		}
		if n.Feature >= len(vec) {
			return 0, fmt.Errorf("%w: tree expects feature %d, vector has %d", ErrBadDimension, n.Feature, len(vec))
		}
		if vec[n.Feature] < n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
		depth++
	}
}

// IsolationForestParams are the frozen parameters of a fitted isolation
// forest.
type IsolationForestParams struct {
	Trees      []IsoTree `json:"trees"`
	SampleSize int       `json:"sample_size"`
}

// IsolationForest scores by average isolation depth: records isolated in few
// splits get scores near 1, deep records near 0. Equivalent in direction to
// negating a score_samples-style output.
type IsolationForest struct {
	params IsolationForestParams
}

// NewIsolationForest wraps fitted forest parameters as a Model.
func NewIsolationForest(p IsolationForestParams) (*IsolationForest, error) {
	if len(p.Trees) == 0 || p.SampleSize < 2 {
		return nil, fmt.Errorf("%w: isolation forest needs trees and a sample size", ErrNoModels)
	}
	return &IsolationForest{params: p}, nil
}

func (f *IsolationForest) Name() string { return model.ModelIsolationForest }

func (f *IsolationForest) Score(_ context.Context, vec []float64) (float64, error) {
	sum := 0.0
	for _, t := range f.params.Trees {
		h, err := t.pathLength(vec)
		if err != nil {
			return 0, err
		}
		sum += h
	}
	mean := sum / float64(len(f.params.Trees))
	return math.Exp2(-mean / averagePathLength(f.params.SampleSize)), nil
}

// OneClassSVMParams are the frozen parameters of a fitted RBF one-class
// boundary: support vectors, dual coefficients, kernel width, and offset.
type OneClassSVMParams struct {
	Vectors [][]float64 `json:"vectors"`
	Coefs   []float64   `json:"coefs"`
	Gamma   float64     `json:"gamma"`
	Rho     float64     `json:"rho"`
}

// OneClassSVM scores by negated decision-function distance from the learned
// boundary, so records outside the boundary score positive.
type OneClassSVM struct {
	params OneClassSVMParams
}

// NewOneClassSVM wraps fitted boundary parameters as a Model.
func NewOneClassSVM(p OneClassSVMParams) (*OneClassSVM, error) {
	if len(p.Vectors) == 0 || len(p.Vectors) != len(p.Coefs) || p.Gamma <= 0 {
		return nil, fmt.Errorf("%w: one-class svm needs matching vectors/coefs and gamma > 0", ErrNoModels)
	}
	return &OneClassSVM{params: p}, nil
}

func (s *OneClassSVM) Name() string { return model.ModelOneClassSVM }

func (s *OneClassSVM) Score(_ context.Context, vec []float64) (float64, error) {
	decision := -s.params.Rho
	for i, sv := range s.params.Vectors {
		if len(sv) != len(vec) {
			return 0, fmt.Errorf("%w: support vector has %d features, input has %d", ErrBadDimension, len(sv), len(vec))
		}
		d2 := 0.0
		for j := range sv {
			diff := vec[j] - sv[j]
			d2 += diff * diff
		}
		decision += s.params.Coefs[i] * math.Exp(-s.params.Gamma*d2)
	}
	return -decision, nil
}

// AutoencoderParams are the frozen weights of a fitted single-hidden-layer
// reconstruction network. Encoder is hidden x input, decoder input x hidden.
type AutoencoderParams struct {
	Encoder [][]float64 `json:"encoder"`
	EncBias []float64   `json:"enc_bias"`
	Decoder [][]float64 `json:"decoder"`
	DecBias []float64   `json:"dec_bias"`
}

// Autoencoder scores by mean squared reconstruction error: records that the
// fitted network cannot reconstruct are anomalous.
type Autoencoder struct {
	params AutoencoderParams
}

// NewAutoencoder wraps fitted reconstruction weights as a Model.
func NewAutoencoder(p AutoencoderParams) (*Autoencoder, error) {
	if len(p.Encoder) == 0 || len(p.Decoder) == 0 ||
		len(p.EncBias) != len(p.Encoder) || len(p.DecBias) != len(p.Decoder) {
		return nil, fmt.Errorf("%w: autoencoder needs encoder/decoder weights with matching biases", ErrNoModels)
	}
	return &Autoencoder{params: p}, nil
}

func (a *Autoencoder) Name() string { return model.ModelAutoencoder }

func (a *Autoencoder) Score(_ context.Context, vec []float64) (float64, error) {
	if len(a.params.Decoder) != len(vec) {
		return 0, fmt.Errorf("%w: decoder reconstructs %d features, input has %d", ErrBadDimension, len(a.params.Decoder), len(vec))
	}

	hidden := make([]float64, len(a.params.Encoder))
	for i, row := range a.params.Encoder {
		if len(row) != len(vec) {
			return 0, fmt.Errorf("%w: encoder row has %d weights, input has %d", ErrBadDimension, len(row), len(vec))
		}
		h := a.params.EncBias[i]
		for j, w := range row {
			h += w * vec[j]
		}
		// relu
		if h < 0 {
			h = 0
		}
		hidden[i] = h
	}

	mse := 0.0
	for i, row := range a.params.Decoder {
		if len(row) != len(hidden) {
			return 0, fmt.Errorf("%w: decoder row has %d weights, hidden has %d", ErrBadDimension, len(row), len(hidden))
		}
		rec := a.params.DecBias[i]
		for j, w := range row {
			rec += w * hidden[j]
		}
		diff := vec[i] - rec
		mse += diff * diff
	}
	return mse / float64(len(vec)), nil
}

// ScalerParams are the per-feature location/scale fitted offline on the
// training feature matrix.
type ScalerParams struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Scaler applies the frozen standardization the models were fitted against.
type Scaler struct {
	params ScalerParams
}

// NewScaler wraps fitted standardization parameters.
func NewScaler(p ScalerParams) (*Scaler, error) {
	if len(p.Mean) == 0 || len(p.Mean) != len(p.Std) {
		return nil, fmt.Errorf("%w: scaler needs matching mean/std vectors", ErrNoModels)
	}
	return &Scaler{params: p}, nil
}

// Transform standardizes vec without mutating it. Constant features pass
// through centered only.
func (s *Scaler) Transform(vec []float64) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		if i >= len(s.params.Mean) {
			out[i] = v
			continue
		}
		sd := s.params.Std[i]
		if sd == 0 {
			out[i] = v - s.params.Mean[i]
			continue
		}
		out[i] = (v - s.params.Mean[i]) / sd
	}
	return out
}
