package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/AntoniaMarcu/torchbearer/backend"
	"github.com/AntoniaMarcu/torchbearer/tensor"
)

// Linear is y = x @ W + b. W is [InSize, OutSize], b is [OutSize].
type Linear struct {
	W       *tensor.Tensor // [InSize, OutSize]
	B       *tensor.Tensor // [OutSize]
	InSize  int
	OutSize int

	lastX *tensor.Tensor // input saved by Forward for Backward
}

// NewLinear creates a linear layer with Xavier-uniform weights and zero bias.
func NewLinear(inSize, outSize int) (*Linear, error) {
	if inSize <= 0 || outSize <= 0 {
		return nil, fmt.Errorf("linear: invalid sizes in=%d out=%d", inSize, outSize)
	}
	w, err := tensor.Zeros(inSize, outSize)
	if err != nil {
		return nil, err
	}
	limit := float32(math.Sqrt(6 / float64(inSize+outSize)))
	wf := w.Float32()
	for i := range wf {
		wf[i] = (rand.Float32()*2 - 1) * limit
	}
	b, err := tensor.Zeros(outSize)
	if err != nil {
		return nil, err
	}
	w.RequiresGrad = true
	b.RequiresGrad = true
	return &Linear{W: w, B: b, InSize: inSize, OutSize: outSize}, nil
}

// Forward computes x @ W + b. x: [batch, InSize], out: [batch, OutSize].
func (l *Linear) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	if len(x.Shape) != 2 || x.Shape[1] != l.InSize {
		return nil, fmt.Errorf("linear: input shape %v, want [batch, %d]", x.Shape, l.InSize)
	}
	batch := x.Shape[0]
	be, err := backend.GetForDevice(x.Storage.Device())
	if err != nil {
		return nil, err
	}
	mm, err := tensor.Zeros(batch, l.OutSize)
	if err != nil {
		return nil, err
	}
	if err := be.MatMul(mm.Storage, x.Storage, l.W.Storage, 1, batch, l.OutSize, l.InSize); err != nil {
		return nil, err
	}
	// Add bias: broadcast [OutSize] over [batch, OutSize].
	out, err := tensor.Zeros(batch, l.OutSize)
	if err != nil {
		return nil, err
	}
	if err := be.Add(out.Storage, mm.Storage, l.B.Storage,
		mm.Shape, l.B.Shape, mm.Strides, l.B.Strides, out.Shape); err != nil {
		return nil, err
	}
	l.lastX = x
	return out, nil
}

// Backward accumulates W.Grad = x^T @ gradOut and B.Grad = sum_batch(gradOut),
// and returns gradIn = gradOut @ W^T.
func (l *Linear) Backward(gradOut *tensor.Tensor) (*tensor.Tensor, error) {
	if l.lastX == nil {
		return nil, fmt.Errorf("linear: backward before forward")
	}
	x := l.lastX
	batch := x.Shape[0]
	if len(gradOut.Shape) != 2 || gradOut.Shape[0] != batch || gradOut.Shape[1] != l.OutSize {
		return nil, fmt.Errorf("linear: grad shape %v, want [%d, %d]", gradOut.Shape, batch, l.OutSize)
	}
	be, err := backend.GetForDevice(x.Storage.Device())
	if err != nil {
		return nil, err
	}

	// W.Grad += x^T @ gradOut  ([InSize, batch] @ [batch, OutSize])
	xt, err := transpose2DCopy(x)
	if err != nil {
		return nil, err
	}
	wGrad, err := tensor.Zeros(l.InSize, l.OutSize)
	if err != nil {
		return nil, err
	}
	if err := be.MatMul(wGrad.Storage, xt.Storage, gradOut.Storage, 1, l.InSize, l.OutSize, batch); err != nil {
		return nil, err
	}
	if err := l.W.AccumulateGrad(wGrad); err != nil {
		return nil, err
	}

	// B.Grad += sum over the batch axis of gradOut.
	bGrad, err := tensor.Zeros(l.OutSize)
	if err != nil {
		return nil, err
	}
	if err := be.Sum(bGrad.Storage, gradOut.Storage, gradOut.Shape, gradOut.Strides, 0, false); err != nil {
		return nil, err
	}
	if err := l.B.AccumulateGrad(bGrad); err != nil {
		return nil, err
	}

	// gradIn = gradOut @ W^T  ([batch, OutSize] @ [OutSize, InSize])
	wt, err := transpose2DCopy(l.W)
	if err != nil {
		return nil, err
	}
	gradIn, err := tensor.Zeros(batch, l.InSize)
	if err != nil {
		return nil, err
	}
	if err := be.MatMul(gradIn.Storage, gradOut.Storage, wt.Storage, 1, batch, l.InSize, l.OutSize); err != nil {
		return nil, err
	}
	return gradIn, nil
}

// Parameters returns the weight and bias tensors.
func (l *Linear) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{l.W, l.B}
}

// transpose2DCopy returns a contiguous transposed copy of a 2D tensor.
// The backend MatMul assumes contiguous inputs, so a strided view is not enough.
func transpose2DCopy(t *tensor.Tensor) (*tensor.Tensor, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("transpose copy: want 2D, got %v", t.Shape)
	}
	r, c := t.Shape[0], t.Shape[1]
	out, err := tensor.Zeros(c, r)
	if err != nil {
		return nil, err
	}
	src := t.Float32()
	dst := out.Float32()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst[j*r+i] = src[i*c+j]
		}
	}
	return out, nil
}
