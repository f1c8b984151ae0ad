package cpu

import (
	"math"
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"

	"github.com/AntoniaMarcu/torchbearer/backend"
	"github.com/AntoniaMarcu/torchbearer/core"
)

const tileSize = 32

// matmulWorkers is the goroutine count for parallel MatMul, taken from the
// CPU topology at init.
var matmulWorkers = 1

type cpuBackend struct{}

func init() {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		matmulWorkers = n
	} else {
		matmulWorkers = runtime.NumCPU()
	}
	backend.Register(&cpuBackend{})
}

// Features returns a short description of the detected CPU, for startup logs.
func Features() string {
	return cpuid.CPU.BrandName
}

func (b *cpuBackend) Name() string                   { return "cpu" }
func (b *cpuBackend) DeviceType() backend.DeviceType { return backend.CPU }

func (b *cpuBackend) Alloc(byteLen int) (backend.Storage, error) {
	return newStorage(byteLen), nil
}

func (b *cpuBackend) Free(s backend.Storage) {
	if cs, ok := s.(*storage); ok {
		cs.Free()
	}
}

func (b *cpuBackend) Copy(dst, src backend.Storage, byteLen int) error {
	db := dst.(*storage).buf
	sb := src.(*storage).buf
	copy(db[:byteLen], sb[:byteLen])
	return nil
}

func floatSlice(s backend.Storage, n int) []float32 {
	return s.(*storage).floats(n)
}

func (b *cpuBackend) Fill(dst backend.Storage, nElems int, value float32) error {
	d := floatSlice(dst, nElems)
	for i := range d {
		d[i] = value
	}
	return nil
}

func (b *cpuBackend) Scale(dst, src backend.Storage, nElems int, alpha float32) error {
	d := floatSlice(dst, nElems)
	x := floatSlice(src, nElems)
	for i := range d {
		d[i] = alpha * x[i]
	}
	return nil
}

func (b *cpuBackend) Relu(dst, src backend.Storage, nElems int) error {
	d := floatSlice(dst, nElems)
	x := floatSlice(src, nElems)
	for i := range d {
		if x[i] > 0 {
			d[i] = x[i]
		} else {
			d[i] = 0
		}
	}
	return nil
}

func (b *cpuBackend) Sigmoid(dst, src backend.Storage, nElems int) error {
	d := floatSlice(dst, nElems)
	x := floatSlice(src, nElems)
	for i := range d {
		d[i] = float32(1 / (1 + math.Exp(-float64(x[i]))))
	}
	return nil
}

func (b *cpuBackend) Tanh(dst, src backend.Storage, nElems int) error {
	d := floatSlice(dst, nElems)
	x := floatSlice(src, nElems)
	for i := range d {
		d[i] = float32(math.Tanh(float64(x[i])))
	}
	return nil
}

// broadcastIter: for each linear out index, compute linear indices into a and b (NumPy broadcast).
func broadcastIter(outShape core.Shape, aShape, bShape core.Shape, aStrides, bStrides core.Strides) (nOut int, getIndices func(outLinear int) (aIdx, bIdx int)) {
	nOut = 1
	for _, d := range outShape {
		nOut *= d
	}
	nd := len(outShape)
	aPad := nd - len(aShape)
	bPad := nd - len(bShape)
	getIndices = func(outLinear int) (aIdx, bIdx int) {
		rem := outLinear
		idx := make([]int, nd)
		for i := nd - 1; i >= 0; i-- {
			idx[i] = rem % outShape[i]
			rem /= outShape[i]
		}
		for i := 0; i < nd; i++ {
			if i >= aPad && aShape[i-aPad] > 1 {
				aIdx += idx[i] * (aStrides[i-aPad] / 4)
			}
			if i >= bPad && bShape[i-bPad] > 1 {
				bIdx += idx[i] * (bStrides[i-bPad] / 4)
			}
		}
		return aIdx, bIdx
	}
	return nOut, getIndices
}

func (b *cpuBackend) Add(dst, a, bb backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error {
	n, get := broadcastIter(outShape, aShape, bShape, aStrides, bStrides)
	da := floatSlice(dst, n)
	pa := floatSlice(a, aShape.NumElements())
	pb := floatSlice(bb, bShape.NumElements())
	for i := 0; i < n; i++ {
		ai, bi := get(i)
		da[i] = pa[ai] + pb[bi]
	}
	return nil
}

func (b *cpuBackend) Sub(dst, a, bb backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error {
	n, get := broadcastIter(outShape, aShape, bShape, aStrides, bStrides)
	da := floatSlice(dst, n)
	pa := floatSlice(a, aShape.NumElements())
	pb := floatSlice(bb, bShape.NumElements())
	for i := 0; i < n; i++ {
		ai, bi := get(i)
		da[i] = pa[ai] - pb[bi]
	}
	return nil
}

func (b *cpuBackend) Mul(dst, a, bb backend.Storage, aShape, bShape core.Shape, aStrides, bStrides core.Strides, outShape core.Shape) error {
	n, get := broadcastIter(outShape, aShape, bShape, aStrides, bStrides)
	da := floatSlice(dst, n)
	pa := floatSlice(a, aShape.NumElements())
	pb := floatSlice(bb, bShape.NumElements())
	for i := 0; i < n; i++ {
		ai, bi := get(i)
		da[i] = pa[ai] * pb[bi]
	}
	return nil
}

func (b *cpuBackend) Sum(dst, src backend.Storage, srcShape core.Shape, srcStrides core.Strides, axis int, keepDim bool) error {
	srcF := floatSlice(src, srcShape.NumElements())
	if axis < 0 {
		axis = len(srcShape) + axis
	}
	if axis < 0 || len(srcShape) == 0 {
		var sum float32
		for _, v := range srcF {
			sum += v
		}
		floatSlice(dst, 1)[0] = sum
		return nil
	}
	before := 1
	for i := 0; i < axis; i++ {
		before *= srcShape[i]
	}
	after := 1
	for i := axis + 1; i < len(srcShape); i++ {
		after *= srcShape[i]
	}
	dimSize := srcShape[axis]
	strideAxis := srcStrides[axis] / 4
	dstF := floatSlice(dst, before*after)
	for i := 0; i < before; i++ {
		for j := 0; j < after; j++ {
			var s float32
			for k := 0; k < dimSize; k++ {
				off := 0
				ii, jj := i, j
				for d := axis - 1; d >= 0; d-- {
					off += (ii % srcShape[d]) * (srcStrides[d] / 4)
					ii /= srcShape[d]
				}
				off += k * strideAxis
				for d := len(srcShape) - 1; d > axis; d-- {
					off += (jj % srcShape[d]) * (srcStrides[d] / 4)
					jj /= srcShape[d]
				}
				s += srcF[off]
			}
			dstF[i*after+j] = s
		}
	}
	return nil
}

func (b *cpuBackend) Mean(dst, src backend.Storage, srcShape core.Shape, srcStrides core.Strides, axis int, keepDim bool) error {
	if err := b.Sum(dst, src, srcShape, srcStrides, axis, keepDim); err != nil {
		return err
	}
	dimSize := 1
	if axis >= 0 && axis < len(srcShape) {
		dimSize = srcShape[axis]
	} else {
		dimSize = srcShape.NumElements()
	}
	outSize := srcShape.NumElements() / dimSize
	dstF := floatSlice(dst, outSize)
	for i := range dstF {
		dstF[i] /= float32(dimSize)
	}
	return nil
}

// MatMul splits the flat row space (batchSize*M rows of C) into contiguous
// chunks, one goroutine per chunk, so even a single-batch multiply spreads
// across cores. Chunks write disjoint rows of dst.
func (b *cpuBackend) MatMul(dst, a, bb backend.Storage, batchSize, M, N, K int) error {
	d := floatSlice(dst, batchSize*M*N)
	pa := floatSlice(a, batchSize*M*K)
	pb := floatSlice(bb, batchSize*K*N)
	rows := batchSize * M
	workers := matmulWorkers
	if maxW := (rows + tileSize - 1) / tileSize; workers > maxW {
		workers = maxW
	}
	if workers <= 1 {
		matmulRowRange(d, pa, pb, 0, rows, M, N, K)
		return nil
	}
	chunk := (rows + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < rows; start += chunk {
		end := min(start+chunk, rows)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			matmulRowRange(d, pa, pb, start, end, M, N, K)
		}(start, end)
	}
	wg.Wait()
	return nil
}

// matmulRowRange computes flat rows [start, end) of C. A flat row r maps to
// batch r/M, row r%M; the range is processed batch slice by batch slice.
func matmulRowRange(d, pa, pb []float32, start, end, M, N, K int) {
	for r := start; r < end; {
		batch := r / M
		i0 := r % M
		i1 := min(M, i0+(end-r))
		matmulRows(d, pa, pb, batch, i0, i1, M, N, K)
		r += i1 - i0
	}
}

// matmulRows computes rows [iFrom, iTo) of one batch slice of C = A @ B with tiling.
func matmulRows(d, pa, pb []float32, batch, iFrom, iTo, M, N, K int) {
	aBase := batch * M * K
	bBase := batch * K * N
	cBase := batch * M * N
	for i0 := iFrom; i0 < iTo; i0 += tileSize {
		iEnd := min(i0+tileSize, iTo)
		for k0 := 0; k0 < K; k0 += tileSize {
			kEnd := min(k0+tileSize, K)
			for j0 := 0; j0 < N; j0 += tileSize {
				jEnd := min(j0+tileSize, N)
				for i := i0; i < iEnd; i++ {
					for k := k0; k < kEnd; k++ {
						aik := pa[aBase+i*K+k]
						for j := j0; j < jEnd; j++ {
							d[cBase+i*N+j] += aik * pb[bBase+k*N+j]
						}
					}
				}
			}
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
