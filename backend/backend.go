package backend

import (
	"errors"
	"fmt"

	"github.com/AntoniaMarcu/torchbearer/core"
)

// DeviceType identifies the kind of hardware.
type DeviceType uint8

const (
	CPU DeviceType = iota
	CUDA
	Metal
)

// Device identifies a specific device (e.g. GPU 0).
type Device struct {
	Type  DeviceType
	Index int
}

// CPU0 is the default CPU device.
var CPU0 = Device{Type: CPU, Index: 0}

// Storage represents raw memory on a device.
// Ptr() is the bridge to raw hardware (RAM address for CPU, device pointer for GPU).
type Storage interface {
	Device() Device
	Ptr() uintptr
	Bytes() []byte // CPU only; nil for GPU
	ByteLen() int
	Free()
}

// Backend is the contract every hardware backend must implement.
// Element ops work on float32 unless noted otherwise.
type Backend interface {
	Name() string
	DeviceType() DeviceType

	Alloc(byteLen int) (Storage, error)
	Free(s Storage)
	Copy(dst, src Storage, byteLen int) error

	Fill(dst Storage, nElems int, value float32) error
	Scale(dst, src Storage, nElems int, alpha float32) error

	// Binary with broadcasting: dst = a op b (shape = broadcast(aShape, bShape))
	Add(dst, a, b Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error
	Sub(dst, a, b Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error
	Mul(dst, a, b Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error

	// Activations (dst, src, nElems)
	Relu(dst, src Storage, nElems int) error
	Sigmoid(dst, src Storage, nElems int) error
	Tanh(dst, src Storage, nElems int) error

	// Reductions: negative axis counts from the end; axis < -rank reduces all axes
	Sum(dst, src Storage, srcShape core.Shape, srcStrides core.Strides, axis int, keepDim bool) error
	Mean(dst, src Storage, srcShape core.Shape, srcStrides core.Strides, axis int, keepDim bool) error

	// MatMul: C = A @ B. A [..., M, K], B [..., K, N], C [..., M, N]. Batched by leading dims.
	MatMul(dst, a, b Storage, batchSize, M, N, K int) error
}

var registry = make(map[DeviceType]Backend)

// Register adds a backend for its device type.
func Register(b Backend) {
	registry[b.DeviceType()] = b
}

// Get returns the backend for a device type.
func Get(dt DeviceType) (Backend, error) {
	b, ok := registry[dt]
	if !ok {
		return nil, fmt.Errorf("no backend registered for device type %v", dt)
	}
	return b, nil
}

// GetForDevice returns the backend that handles the given device.
func GetForDevice(d Device) (Backend, error) {
	return Get(d.Type)
}

// ErrUnsupported is returned when an operation is not supported.
var ErrUnsupported = errors.New("operation not supported")
