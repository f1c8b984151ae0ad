package optim

import (
	"github.com/AntoniaMarcu/torchbearer/tensor"
)

// Optimizer updates parameters using their accumulated gradients.
type Optimizer interface {
	// Step applies one update to every parameter with a gradient.
	Step() error
	// ZeroGrad clears all parameter gradients before the next backward pass.
	ZeroGrad()
}

// zeroGrads resets the gradient of every parameter.
func zeroGrads(params []*tensor.Tensor) {
	for _, p := range params {
		if p == nil {
			continue
		}
		p.ZeroGrad()
	}
}
