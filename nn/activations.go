package nn

import (
	"fmt"

	"github.com/AntoniaMarcu/torchbearer/backend"
	"github.com/AntoniaMarcu/torchbearer/tensor"
)

// ReLU is max(0, x).
type ReLU struct {
	lastX *tensor.Tensor
}

// NewReLU creates a ReLU activation module.
func NewReLU() *ReLU { return &ReLU{} }

func (r *ReLU) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	be, err := backend.GetForDevice(x.Storage.Device())
	if err != nil {
		return nil, err
	}
	out, err := tensor.Zeros(x.Shape...)
	if err != nil {
		return nil, err
	}
	if err := be.Relu(out.Storage, x.Storage, x.NumElements()); err != nil {
		return nil, err
	}
	r.lastX = x
	return out, nil
}

// Backward passes the gradient through where the input was positive.
func (r *ReLU) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if r.lastX == nil {
		return nil, fmt.Errorf("relu: backward before forward")
	}
	gradIn, err := tensor.Zeros(gradOut.Shape...)
	if err != nil {
		return nil, err
	}
	x := r.lastX.Float32()
	g := gradOut.Float32()
	d := gradIn.Float32()
	for i := range d {
		if x[i] > 0 {
			d[i] = g[i]
		}
	}
	return gradIn, nil
}

func (r *ReLU) Parameters() []*tensor.Tensor { return nil }

// Sigmoid is 1 / (1 + exp(-x)).
type Sigmoid struct {
	lastY *tensor.Tensor
}

// NewSigmoid creates a Sigmoid activation module.
func NewSigmoid() *Sigmoid { return &Sigmoid{} }

func (s *Sigmoid) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	be, err := backend.GetForDevice(x.Storage.Device())
	if err != nil {
		return nil, err
	}
	out, err := tensor.Zeros(x.Shape...)
	if err != nil {
		return nil, err
	}
	if err := be.Sigmoid(out.Storage, x.Storage, x.NumElements()); err != nil {
		return nil, err
	}
	s.lastY = out
	return out, nil
}

// Backward uses dy/dx = y * (1 - y) with the saved forward output.
func (s *Sigmoid) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if s.lastY == nil {
		return nil, fmt.Errorf("sigmoid: backward before forward")
	}
	gradIn, err := tensor.Zeros(gradOut.Shape...)
	if err != nil {
		return nil, err
	}
	y := s.lastY.Float32()
	g := gradOut.Float32()
	d := gradIn.Float32()
	for i := range d {
		d[i] = g[i] * y[i] * (1 - y[i])
	}
	return gradIn, nil
}

func (s *Sigmoid) Parameters() []*tensor.Tensor { return nil }

// Tanh is the hyperbolic tangent.
type Tanh struct {
	lastY *tensor.Tensor
}

// NewTanh creates a Tanh activation module.
func NewTanh() *Tanh { return &Tanh{} }

func (t *Tanh) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	be, err := backend.GetForDevice(x.Storage.Device())
	if err != nil {
		return nil, err
	}
	out, err := tensor.Zeros(x.Shape...)
	if err != nil {
		return nil, err
	}
	if err := be.Tanh(out.Storage, x.Storage, x.NumElements()); err != nil {
		return nil, err
	}
	t.lastY = out
	return out, nil
}

// Backward uses dy/dx = 1 - y^2 with the saved forward output.
func (t *Tanh) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if t.lastY == nil {
		return nil, fmt.Errorf("tanh: backward before forward")
	}
	gradIn, err := tensor.Zeros(gradOut.Shape...)
	if err != nil {
		return nil, err
	}
	y := t.lastY.Float32()
	g := gradOut.Float32()
	d := gradIn.Float32()
	for i := range d {
		d[i] = g[i] * (1 - y[i]*y[i])
	}
	return gradIn, nil
}

func (t *Tanh) Parameters() []*tensor.Tensor { return nil }
