package tensor

import (
	"fmt"

	"github.com/AntoniaMarcu/torchbearer/backend"
	"github.com/AntoniaMarcu/torchbearer/core"
)

// Tensor is the core multi-dimensional array: storage + shape + strides + dtype.
// Grad is the accumulated gradient, set during the backward pass for tensors
// with RequiresGrad.
type Tensor struct {
	Storage      backend.Storage
	Shape        Shape
	Strides      Strides
	DType        DType
	Grad         *Tensor // accumulated gradient (optional)
	RequiresGrad bool
}

// New creates a tensor from existing storage, shape, and strides.
// If strides is nil, contiguous row-major strides are computed.
func New(storage backend.Storage, shape Shape, strides Strides, dtype DType) *Tensor {
	if strides == nil {
		strides = core.ContiguousStrides(shape, dtype.Size())
	}
	return &Tensor{
		Storage: storage,
		Shape:   shape,
		Strides: strides,
		DType:   dtype,
	}
}

// Zeros allocates a zero-filled float32 CPU tensor.
func Zeros(shape ...int) (*Tensor, error) {
	s := Shape(shape)
	n := s.NumElements()
	if n == 0 {
		return nil, fmt.Errorf("zeros: empty shape %v", shape)
	}
	be, err := backend.GetForDevice(backend.CPU0)
	if err != nil {
		return nil, err
	}
	storage, err := be.Alloc(n * 4)
	if err != nil {
		return nil, err
	}
	return New(storage, s.Clone(), nil, Float32), nil
}

// FromFloat32 creates a new CPU tensor from a float32 slice (copy; contiguous).
func FromFloat32(data []float32, shape ...int) (*Tensor, error) {
	s := Shape(shape)
	if s.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v has %d elements, data has %d", shape, s.NumElements(), len(data))
	}
	be, err := backend.GetForDevice(backend.CPU0)
	if err != nil {
		return nil, err
	}
	storage, err := be.Alloc(len(data) * 4)
	if err != nil {
		return nil, err
	}
	copy(storage.Bytes(), BytesFromFloat32(data))
	return New(storage, s.Clone(), nil, Float32), nil
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.Shape.NumElements()
}

// Contiguous returns true if the tensor is row-major contiguous.
func (t *Tensor) Contiguous() bool {
	expected := core.ContiguousStrides(t.Shape, t.DType.Size())
	if len(expected) != len(t.Strides) {
		return false
	}
	for i := range expected {
		if expected[i] != t.Strides[i] {
			return false
		}
	}
	return true
}

// View returns a new tensor sharing storage with t but with the given shape.
// The product of shape must equal t.NumElements(). Strides are recomputed as contiguous.
func (t *Tensor) View(shape ...int) (*Tensor, error) {
	s := Shape(shape)
	if s.NumElements() != t.NumElements() {
		return nil, fmt.Errorf("view shape %v has %d elements, tensor has %d", shape, s.NumElements(), t.NumElements())
	}
	return New(t.Storage, s.Clone(), nil, t.DType), nil
}

// Transpose returns a new tensor with axes swapped. Only 2D for simplicity.
func (t *Tensor) Transpose() (*Tensor, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("transpose only supported for 2D tensors, got shape %v", t.Shape)
	}
	newShape := Shape{t.Shape[1], t.Shape[0]}
	newStrides := Strides{t.Strides[1], t.Strides[0]}
	return New(t.Storage, newShape, newStrides, t.DType), nil
}

// Float32 returns the underlying float32 slice for CPU tensors (shared memory).
// Panics if not Float32 dtype.
func (t *Tensor) Float32() []float32 {
	if t.DType != Float32 {
		panic("Float32() only for Float32 tensors")
	}
	return Float32FromBytes(t.Storage.Bytes())
}

// Clone allocates a new tensor with the same shape and copies data.
func (t *Tensor) Clone() (*Tensor, error) {
	be, err := backend.GetForDevice(t.Storage.Device())
	if err != nil {
		return nil, err
	}
	byteLen := t.NumElements() * int(t.DType.Size())
	newStorage, err := be.Alloc(byteLen)
	if err != nil {
		return nil, err
	}
	if err := be.Copy(newStorage, t.Storage, byteLen); err != nil {
		newStorage.Free()
		return nil, err
	}
	return New(newStorage, t.Shape.Clone(), nil, t.DType), nil
}
