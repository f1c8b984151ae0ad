package optim

import (
	"fmt"

	"github.com/AntoniaMarcu/torchbearer/tensor"
)

// SGD implements stochastic gradient descent with classical momentum.
type SGD struct {
	params   []*tensor.Tensor
	lr       float64
	momentum float64
	velocity [][]float32
}

// NewSGD creates an SGD optimizer. params are modified in place; they must
// have Grad set when Step() is called. momentum 0 disables the velocity term.
func NewSGD(params []*tensor.Tensor, lr, momentum float64) (*SGD, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("sgd: no parameters")
	}
	if lr <= 0 {
		return nil, fmt.Errorf("sgd: learning rate must be positive, got %v", lr)
	}
	v := make([][]float32, len(params))
	for i, p := range params {
		v[i] = make([]float32, p.NumElements())
	}
	return &SGD{params: params, lr: lr, momentum: momentum, velocity: v}, nil
}

// Step performs one parameter update.
func (s *SGD) Step() error {
	lr := float32(s.lr)
	mom := float32(s.momentum)
	for i, p := range s.params {
		if p.Grad == nil {
			continue
		}
		grad := p.Grad.Float32()
		param := p.Float32()
		v := s.velocity[i]
		for j := range param {
			v[j] = mom*v[j] + grad[j]
			param[j] -= lr * v[j]
		}
	}
	return nil
}

// ZeroGrad clears all parameter gradients.
func (s *SGD) ZeroGrad() {
	zeroGrads(s.params)
}
