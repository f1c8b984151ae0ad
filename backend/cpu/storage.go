package cpu

import (
	"unsafe"

	"github.com/AntoniaMarcu/torchbearer/backend"
)

// storage is CPU memory: a plain byte slice on the host heap. All float32
// kernels view it through floats.
type storage struct {
	buf []byte
}

func newStorage(byteLen int) *storage {
	return &storage{buf: make([]byte, byteLen)}
}

func (s *storage) Device() backend.Device { return backend.CPU0 }
func (s *storage) ByteLen() int           { return len(s.buf) }
func (s *storage) Bytes() []byte          { return s.buf }

func (s *storage) Ptr() uintptr {
	if len(s.buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&s.buf[0]))
}

func (s *storage) Free() {
	s.buf = nil
}

// floats views the first n float32 elements of the buffer.
func (s *storage) floats(n int) []float32 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&s.buf[0])), n)
}
