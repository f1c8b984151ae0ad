package train

import (
	"fmt"

	"github.com/AntoniaMarcu/torchbearer/tensor"
)

// Batch is one training sample batch.
type Batch struct {
	X *tensor.Tensor
	Y *tensor.Tensor
}

// Loader yields batches for one pass over the data. Reset rewinds it for the
// next epoch.
type Loader interface {
	Reset()
	Next() (Batch, bool)
	Len() int
}

// SliceLoader is an in-memory Loader over pre-built batches.
type SliceLoader struct {
	batches []Batch
	pos     int
}

// NewSliceLoader creates a loader over the given batches.
func NewSliceLoader(batches []Batch) *SliceLoader {
	return &SliceLoader{batches: batches}
}

func (l *SliceLoader) Reset() { l.pos = 0 }

func (l *SliceLoader) Next() (Batch, bool) {
	if l.pos >= len(l.batches) {
		return Batch{}, false
	}
	b := l.batches[l.pos]
	l.pos++
	return b, true
}

func (l *SliceLoader) Len() int { return len(l.batches) }

// BatchTensors splits row-major sample tensors x [n, xCols] and y [n, yCols]
// into batches of at most batchSize rows. The final batch may be smaller.
func BatchTensors(x, y *tensor.Tensor, batchSize int) ([]Batch, error) {
	if len(x.Shape) != 2 || len(y.Shape) != 2 {
		return nil, fmt.Errorf("batch: want 2D sample tensors, got %v and %v", x.Shape, y.Shape)
	}
	if x.Shape[0] != y.Shape[0] {
		return nil, fmt.Errorf("batch: %d inputs vs %d targets", x.Shape[0], y.Shape[0])
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch: batch size must be positive, got %d", batchSize)
	}
	n := x.Shape[0]
	xCols, yCols := x.Shape[1], y.Shape[1]
	xData, yData := x.Float32(), y.Float32()
	var batches []Batch
	for start := 0; start < n; start += batchSize {
		end := start + batchSize
		if end > n {
			end = n
		}
		rows := end - start
		bx, err := tensor.FromFloat32(xData[start*xCols:end*xCols], rows, xCols)
		if err != nil {
			return nil, err
		}
		by, err := tensor.FromFloat32(yData[start*yCols:end*yCols], rows, yCols)
		if err != nil {
			return nil, err
		}
		batches = append(batches, Batch{X: bx, Y: by})
	}
	return batches, nil
}
