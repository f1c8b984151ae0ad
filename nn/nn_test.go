package nn

import (
	"math"
	"testing"

	_ "github.com/AntoniaMarcu/torchbearer/backend/cpu"
	"github.com/AntoniaMarcu/torchbearer/tensor"
)

func setData(t *testing.T, dst *tensor.Tensor, data []float32) {
	t.Helper()
	if copy(dst.Float32(), data) != len(data) {
		t.Fatalf("setData: %d elements into tensor of %d", len(data), dst.NumElements())
	}
}

func TestLinearForward(t *testing.T) {
	lin, err := NewLinear(2, 1)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	setData(t, lin.W, []float32{1, 2})
	setData(t, lin.B, []float32{0.5})

	x, _ := tensor.FromFloat32([]float32{1, 2, 3, 4}, 2, 2)
	out, err := lin.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	got := out.Float32()
	if got[0] != 5.5 || got[1] != 11.5 {
		t.Fatalf("forward = %v, want [5.5 11.5]", got)
	}
}

func TestLinearBackward(t *testing.T) {
	lin, _ := NewLinear(2, 1)
	setData(t, lin.W, []float32{1, 2})
	setData(t, lin.B, []float32{0})

	x, _ := tensor.FromFloat32([]float32{1, 2, 3, 4}, 2, 2)
	if _, err := lin.Forward(x); err != nil {
		t.Fatalf("Forward: %v", err)
	}
	gradOut, _ := tensor.FromFloat32([]float32{1, 1}, 2, 1)
	gradIn, err := lin.Backward(gradOut)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}

	wg := lin.W.Grad.Float32()
	if wg[0] != 4 || wg[1] != 6 {
		t.Fatalf("W.Grad = %v, want [4 6]", wg)
	}
	if bg := lin.B.Grad.Float32(); bg[0] != 2 {
		t.Fatalf("B.Grad = %v, want [2]", bg)
	}
	gi := gradIn.Float32()
	if gi[0] != 1 || gi[1] != 2 || gi[2] != 1 || gi[3] != 2 {
		t.Fatalf("gradIn = %v, want [1 2 1 2]", gi)
	}

	// Grads accumulate across backward calls until zeroed.
	lin.Forward(x)
	lin.Backward(gradOut)
	if wg := lin.W.Grad.Float32(); wg[0] != 8 {
		t.Fatalf("W.Grad after second backward = %v, want accumulated [8 12]", wg)
	}
}

func TestLinearBackwardBeforeForward(t *testing.T) {
	lin, _ := NewLinear(2, 1)
	gradOut, _ := tensor.FromFloat32([]float32{1}, 1, 1)
	if _, err := lin.Backward(gradOut); err == nil {
		t.Fatal("backward before forward should fail")
	}
}

func TestReLUBackward(t *testing.T) {
	r := NewReLU()
	x, _ := tensor.FromFloat32([]float32{-1, 0, 2}, 1, 3)
	out, err := r.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if o := out.Float32(); o[0] != 0 || o[2] != 2 {
		t.Fatalf("relu forward = %v", o)
	}
	gradOut, _ := tensor.FromFloat32([]float32{5, 5, 5}, 1, 3)
	gradIn, err := r.Backward(gradOut)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	if g := gradIn.Float32(); g[0] != 0 || g[1] != 0 || g[2] != 5 {
		t.Fatalf("relu gradIn = %v, want [0 0 5]", g)
	}
}

func TestSigmoidBackward(t *testing.T) {
	s := NewSigmoid()
	x, _ := tensor.FromFloat32([]float32{0}, 1, 1)
	out, err := s.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if math.Abs(float64(out.Float32()[0])-0.5) > 1e-6 {
		t.Fatalf("sigmoid(0) = %v", out.Float32()[0])
	}
	gradOut, _ := tensor.FromFloat32([]float32{1}, 1, 1)
	gradIn, _ := s.Backward(gradOut)
	// y*(1-y) at y=0.5 is 0.25
	if math.Abs(float64(gradIn.Float32()[0])-0.25) > 1e-6 {
		t.Fatalf("sigmoid grad = %v, want 0.25", gradIn.Float32()[0])
	}
}

func TestTanhBackward(t *testing.T) {
	a := NewTanh()
	x, _ := tensor.FromFloat32([]float32{0, 1}, 1, 2)
	out, err := a.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	y1 := math.Tanh(1)
	if math.Abs(float64(out.Float32()[0])) > 1e-6 || math.Abs(float64(out.Float32()[1])-y1) > 1e-6 {
		t.Fatalf("tanh([0 1]) = %v", out.Float32())
	}
	gradOut, _ := tensor.FromFloat32([]float32{1, 1}, 1, 2)
	gradIn, err := a.Backward(gradOut)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	// 1 - y^2: 1 at x=0, ~0.41997 at x=1
	g := gradIn.Float32()
	if math.Abs(float64(g[0])-1) > 1e-6 {
		t.Fatalf("tanh grad at 0 = %v, want 1", g[0])
	}
	if math.Abs(float64(g[1])-(1-y1*y1)) > 1e-5 {
		t.Fatalf("tanh grad at 1 = %v, want %v", g[1], 1-y1*y1)
	}
}

func TestTanhBackwardBeforeForward(t *testing.T) {
	gradOut, _ := tensor.FromFloat32([]float32{1}, 1, 1)
	if _, err := NewTanh().Backward(gradOut); err == nil {
		t.Fatal("expected error for backward before forward")
	}
}

func TestSequential(t *testing.T) {
	l1, _ := NewLinear(2, 3)
	l2, _ := NewLinear(3, 1)
	model := NewSequential(l1, NewReLU(), l2)

	params := model.Parameters()
	if len(params) != 4 {
		t.Fatalf("Parameters() returned %d tensors, want 4", len(params))
	}
	if params[0] != l1.W || params[3] != l2.B {
		t.Fatal("parameter order should follow module order")
	}

	x, _ := tensor.FromFloat32([]float32{1, -1}, 1, 2)
	out, err := model.Forward(x)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	gradOut, _ := tensor.FromFloat32([]float32{1}, 1, 1)
	gradIn, err := model.Backward(gradOut)
	if err != nil {
		t.Fatalf("Backward: %v", err)
	}
	if !gradIn.Shape.Equal(x.Shape) {
		t.Fatalf("gradIn shape = %v, want %v", gradIn.Shape, x.Shape)
	}
	_ = out
}

func TestMSELoss(t *testing.T) {
	pred, _ := tensor.FromFloat32([]float32{1, 2}, 1, 2)
	target, _ := tensor.FromFloat32([]float32{0, 0}, 1, 2)
	loss, grad, err := NewMSELoss().Forward(pred, target)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if math.Abs(loss-2.5) > 1e-6 {
		t.Fatalf("loss = %v, want 2.5", loss)
	}
	g := grad.Float32()
	if g[0] != 1 || g[1] != 2 {
		t.Fatalf("grad = %v, want [1 2]", g)
	}

	bad, _ := tensor.FromFloat32([]float32{0}, 1, 1)
	if _, _, err := NewMSELoss().Forward(pred, bad); err == nil {
		t.Fatal("shape mismatch should fail")
	}
}
