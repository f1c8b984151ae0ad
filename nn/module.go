package nn

import (
	"fmt"

	"github.com/AntoniaMarcu/torchbearer/tensor"
)

// Module is a differentiable network component. Forward runs the computation
// and remembers whatever Backward needs; Backward consumes the gradient of
// the loss wrt the module output, accumulates parameter gradients, and
// returns the gradient wrt the module input.
//
// Parameters returns the trainable tensors. It is the default parameter
// source for optimizers and gradient-clipping callbacks.
type Module interface {
	Forward(x *tensor.Tensor) (*tensor.Tensor, error)
	Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error)
	Parameters() []*tensor.Tensor
}

// Sequential chains modules; backward runs in reverse order.
type Sequential struct {
	Mods []Module
}

// NewSequential creates a Sequential from the given modules.
func NewSequential(mods ...Module) *Sequential {
	return &Sequential{Mods: mods}
}

// Forward runs every module in order.
func (s *Sequential) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	for i, m := range s.Mods {
		x, err = m.Forward(x)
		if err != nil {
			return nil, fmt.Errorf("sequential module %d: %w", i, err)
		}
	}
	return x, nil
}

// Backward propagates the output gradient through the modules in reverse.
func (s *Sequential) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	for i := len(s.Mods) - 1; i >= 0; i-- {
		gradOut, err = s.Mods[i].Backward(gradOut)
		if err != nil {
			return nil, fmt.Errorf("sequential module %d backward: %w", i, err)
		}
	}
	return gradOut, nil
}

// Parameters collects the parameters of all modules in order.
func (s *Sequential) Parameters() []*tensor.Tensor {
	var params []*tensor.Tensor
	for _, m := range s.Mods {
		params = append(params, m.Parameters()...)
	}
	return params
}
