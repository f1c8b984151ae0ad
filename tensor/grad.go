package tensor

import (
	"github.com/AntoniaMarcu/torchbearer/backend"
)

// EnsureGrad lazily allocates a zero-filled gradient accumulator with the
// same shape as t. Returns the existing one when already allocated.
func (t *Tensor) EnsureGrad() (*Tensor, error) {
	if t.Grad != nil {
		return t.Grad, nil
	}
	g, err := Zeros(t.Shape...)
	if err != nil {
		return nil, err
	}
	t.Grad = g
	return g, nil
}

// ZeroGrad resets the gradient accumulator to zero. No-op when no gradient
// has been allocated yet.
func (t *Tensor) ZeroGrad() {
	if t.Grad == nil {
		return
	}
	be, err := backend.GetForDevice(t.Grad.Storage.Device())
	if err != nil {
		return
	}
	be.Fill(t.Grad.Storage, t.Grad.NumElements(), 0)
}

// AccumulateGrad adds g into the gradient accumulator, allocating it first
// when needed.
func (t *Tensor) AccumulateGrad(g *Tensor) error {
	acc, err := t.EnsureGrad()
	if err != nil {
		return err
	}
	be, err := backend.GetForDevice(acc.Storage.Device())
	if err != nil {
		return err
	}
	return be.Add(acc.Storage, acc.Storage, g.Storage,
		acc.Shape, g.Shape, acc.Strides, g.Strides, acc.Shape)
}
