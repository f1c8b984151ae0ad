package nn

import (
	"fmt"

	"github.com/AntoniaMarcu/torchbearer/backend"
	"github.com/AntoniaMarcu/torchbearer/tensor"
)

// Criterion computes a scalar loss and the gradient of the loss wrt the
// prediction, which seeds the backward pass.
type Criterion interface {
	Forward(pred, target *tensor.Tensor) (loss float64, grad *tensor.Tensor, err error)
}

// MSELoss is mean((pred - target)^2) over all elements.
type MSELoss struct{}

// NewMSELoss creates an MSE criterion.
func NewMSELoss() *MSELoss { return &MSELoss{} }

// Forward returns the mean squared error and grad = 2/N * (pred - target).
func (m *MSELoss) Forward(pred, target *tensor.Tensor) (float64, *tensor.Tensor, error) {
	if !pred.Shape.Equal(target.Shape) {
		return 0, nil, fmt.Errorf("mse: pred shape %v != target shape %v", pred.Shape, target.Shape)
	}
	n := pred.NumElements()
	be, err := backend.GetForDevice(pred.Storage.Device())
	if err != nil {
		return 0, nil, err
	}

	diff, err := tensor.Zeros(pred.Shape...)
	if err != nil {
		return 0, nil, err
	}
	if err := be.Sub(diff.Storage, pred.Storage, target.Storage,
		pred.Shape, target.Shape, pred.Strides, target.Strides, diff.Shape); err != nil {
		return 0, nil, err
	}

	sq, err := tensor.Zeros(pred.Shape...)
	if err != nil {
		return 0, nil, err
	}
	if err := be.Mul(sq.Storage, diff.Storage, diff.Storage,
		diff.Shape, diff.Shape, diff.Strides, diff.Strides, sq.Shape); err != nil {
		return 0, nil, err
	}

	mean, err := tensor.Zeros(1)
	if err != nil {
		return 0, nil, err
	}
	if err := be.Mean(mean.Storage, sq.Storage, sq.Shape, sq.Strides, -len(sq.Shape)-1, false); err != nil {
		return 0, nil, err
	}
	loss := float64(mean.Float32()[0])

	grad, err := tensor.Zeros(pred.Shape...)
	if err != nil {
		return 0, nil, err
	}
	if err := be.Scale(grad.Storage, diff.Storage, n, 2/float32(n)); err != nil {
		return 0, nil, err
	}
	return loss, grad, nil
}
