package optim

import (
	"fmt"
	"math"

	"github.com/AntoniaMarcu/torchbearer/tensor"
)

// DefaultNormType is the exponent used for the combined gradient norm when
// none is given: 2 (Euclidean).
const DefaultNormType = 2.0

// ClipGradNorm rescales the gradients of params in place so their combined
// normType-norm does not exceed maxNorm, and returns the pre-clip total norm.
// math.Inf(1) selects the max-abs norm. Parameters that are nil or have no
// gradient are skipped.
func ClipGradNorm(params []*tensor.Tensor, maxNorm, normType float64) (float64, error) {
	if normType <= 0 {
		return 0, fmt.Errorf("clip: norm type must be positive, got %v", normType)
	}
	var grads [][]float32
	for _, p := range params {
		if p == nil || p.Grad == nil {
			continue
		}
		grads = append(grads, p.Grad.Float32())
	}
	if len(grads) == 0 {
		return 0, nil
	}

	var total float64
	if math.IsInf(normType, 1) {
		for _, g := range grads {
			for _, v := range g {
				if a := math.Abs(float64(v)); a > total {
					total = a
				}
			}
		}
	} else {
		var sum float64
		for _, g := range grads {
			for _, v := range g {
				sum += math.Pow(math.Abs(float64(v)), normType)
			}
		}
		total = math.Pow(sum, 1/normType)
	}

	// Same convention as the usual clip-by-norm: only scale down.
	coef := maxNorm / (total + 1e-6)
	if coef < 1 {
		scale := float32(coef)
		for _, g := range grads {
			for i := range g {
				g[i] *= scale
			}
		}
	}
	return total, nil
}

// ClipGradValue clamps every gradient element of params into
// [-clipValue, clipValue] in place.
func ClipGradValue(params []*tensor.Tensor, clipValue float64) error {
	if clipValue < 0 {
		return fmt.Errorf("clip: clip value must be non-negative, got %v", clipValue)
	}
	hi := float32(clipValue)
	lo := -hi
	for _, p := range params {
		if p == nil || p.Grad == nil {
			continue
		}
		g := p.Grad.Float32()
		for i := range g {
			if g[i] > hi {
				g[i] = hi
			} else if g[i] < lo {
				g[i] = lo
			}
		}
	}
	return nil
}
