package risk

import (
	"fmt"
	"math"
)

// Method selects the population-wide normalization transform.
type Method string

const (
	MethodMinMax Method = "minmax"
	MethodZScore Method = "zscore"
)

// zClip bounds the z-score transform before mapping into the output range.
const zClip = 3.0

// Normalizer rescales composite raw risk values into the bounded output
// range relative to the current full population. It is deterministic: the
// same raw values always produce bit-identical output, which is what makes
// the empty-batch recompute a no-op.
type Normalizer struct {
	method Method
	lo, hi float64
}

// NewNormalizer validates the method and output range.
func NewNormalizer(method Method, lo, hi float64) (*Normalizer, error) {
	switch method {
	case MethodMinMax, MethodZScore:
	default:
		return nil, fmt.Errorf("%w: unknown normalization method %q", ErrInvalidNormalization, method)
	}
	if !isFinite(lo) || !isFinite(hi) || hi <= lo {
		return nil, fmt.Errorf("%w: output range [%v, %v] must be finite and increasing", ErrInvalidNormalization, lo, hi)
	}
	return &Normalizer{method: method, lo: lo, hi: hi}, nil
}

// Midpoint is the sentinel score for degenerate populations: a single
// employee, or a population whose raw values all coincide, carries no
// ordering signal and maps to the middle of the range.
func (n *Normalizer) Midpoint() float64 {
	return n.lo + (n.hi-n.lo)/2
}

// Range returns the configured output bounds.
func (n *Normalizer) Range() (lo, hi float64) {
	return n.lo, n.hi
}

// Apply rescales raw into the output range. The input is never mutated.
func (n *Normalizer) Apply(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	if len(raw) == 1 {
		out[0] = n.Midpoint()
		return out
	}

	switch n.method {
	case MethodZScore:
		n.applyZScore(raw, out)
	default:
		n.applyMinMax(raw, out)
	}
	return out
}

func (n *Normalizer) applyMinMax(raw, out []float64) {
	mn, mx := raw[0], raw[0]
	for _, v := range raw[1:] {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	if mx == mn {
		for i := range out {
			out[i] = n.Midpoint()
		}
		return
	}
	span := n.hi - n.lo
	for i, v := range raw {
		out[i] = n.lo + (v-mn)/(mx-mn)*span
	}
}

// applyZScore standardizes against the population mean and standard
// deviation, clips at +/-zClip, and maps linearly into the output range.
func (n *Normalizer) applyZScore(raw, out []float64) {
	mean := 0.0
	for _, v := range raw {
		mean += v
	}
	mean /= float64(len(raw))

	variance := 0.0
	for _, v := range raw {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(raw))
	std := math.Sqrt(variance)
	if std == 0 {
		for i := range out {
			out[i] = n.Midpoint()
		}
		return
	}

	mid := n.Midpoint()
	halfSpan := (n.hi - n.lo) / 2
	for i, v := range raw {
		z := (v - mean) / std
		if z > zClip {
			z = zClip
		} else if z < -zClip {
			z = -zClip
		}
		out[i] = mid + z/zClip*halfSpan
	}
}
