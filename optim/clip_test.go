package optim

import (
	"math"
	"testing"

	_ "github.com/AntoniaMarcu/torchbearer/backend/cpu"
	"github.com/AntoniaMarcu/torchbearer/tensor"
)

func paramWithGrad(t *testing.T, grad []float32) *tensor.Tensor {
	t.Helper()
	p, err := tensor.Zeros(len(grad))
	if err != nil {
		t.Fatalf("zeros: %v", err)
	}
	p.RequiresGrad = true
	if _, err := p.EnsureGrad(); err != nil {
		t.Fatalf("ensure grad: %v", err)
	}
	copy(p.Grad.Float32(), grad)
	return p
}

func TestClipGradNormScalesDown(t *testing.T) {
	p := paramWithGrad(t, []float32{3, 4})
	total, err := ClipGradNorm([]*tensor.Tensor{p}, 1, 2)
	if err != nil {
		t.Fatalf("ClipGradNorm: %v", err)
	}
	if math.Abs(total-5) > 1e-6 {
		t.Fatalf("total = %v, want 5", total)
	}
	g := p.Grad.Float32()
	if math.Abs(float64(g[0])-0.6) > 1e-4 || math.Abs(float64(g[1])-0.8) > 1e-4 {
		t.Fatalf("clipped grad = %v, want ~[0.6 0.8]", g)
	}
}

func TestClipGradNormBelowMaxUntouched(t *testing.T) {
	p := paramWithGrad(t, []float32{0.3, 0.4})
	total, err := ClipGradNorm([]*tensor.Tensor{p}, 5, 2)
	if err != nil {
		t.Fatalf("ClipGradNorm: %v", err)
	}
	if math.Abs(total-0.5) > 1e-6 {
		t.Fatalf("total = %v, want 0.5", total)
	}
	g := p.Grad.Float32()
	if g[0] != 0.3 || g[1] != 0.4 {
		t.Fatalf("grad below max norm must stay unchanged, got %v", g)
	}
}

func TestClipGradNormCombinesParams(t *testing.T) {
	a := paramWithGrad(t, []float32{3})
	b := paramWithGrad(t, []float32{4})
	total, err := ClipGradNorm([]*tensor.Tensor{a, b}, 10, 2)
	if err != nil {
		t.Fatalf("ClipGradNorm: %v", err)
	}
	if math.Abs(total-5) > 1e-6 {
		t.Fatalf("combined norm = %v, want 5", total)
	}
}

func TestClipGradNormL1(t *testing.T) {
	p := paramWithGrad(t, []float32{1, -2, 3})
	total, err := ClipGradNorm([]*tensor.Tensor{p}, 100, 1)
	if err != nil {
		t.Fatalf("ClipGradNorm: %v", err)
	}
	if math.Abs(total-6) > 1e-6 {
		t.Fatalf("L1 norm = %v, want 6", total)
	}
}

func TestClipGradNormInf(t *testing.T) {
	p := paramWithGrad(t, []float32{1, -7, 3})
	total, err := ClipGradNorm([]*tensor.Tensor{p}, 100, math.Inf(1))
	if err != nil {
		t.Fatalf("ClipGradNorm: %v", err)
	}
	if math.Abs(total-7) > 1e-6 {
		t.Fatalf("inf norm = %v, want 7", total)
	}
}

func TestClipGradNormSkipsNilAndGradless(t *testing.T) {
	p := paramWithGrad(t, []float32{3, 4})
	noGrad, _ := tensor.Zeros(2)
	total, err := ClipGradNorm([]*tensor.Tensor{nil, noGrad, p}, 1, 2)
	if err != nil {
		t.Fatalf("ClipGradNorm: %v", err)
	}
	if math.Abs(total-5) > 1e-6 {
		t.Fatalf("total = %v, want 5", total)
	}
}

func TestClipGradNormNoGrads(t *testing.T) {
	total, err := ClipGradNorm(nil, 1, 2)
	if err != nil || total != 0 {
		t.Fatalf("ClipGradNorm(nil) = %v, %v; want 0, nil", total, err)
	}
}

func TestClipGradNormInvalidNormType(t *testing.T) {
	p := paramWithGrad(t, []float32{1})
	if _, err := ClipGradNorm([]*tensor.Tensor{p}, 1, 0); err == nil {
		t.Fatal("norm type 0 should fail")
	}
	if _, err := ClipGradNorm([]*tensor.Tensor{p}, 1, -2); err == nil {
		t.Fatal("negative norm type should fail")
	}
}

func TestClipGradValue(t *testing.T) {
	p := paramWithGrad(t, []float32{-3, 0.5, 2})
	if err := ClipGradValue([]*tensor.Tensor{p}, 1); err != nil {
		t.Fatalf("ClipGradValue: %v", err)
	}
	g := p.Grad.Float32()
	if g[0] != -1 || g[1] != 0.5 || g[2] != 1 {
		t.Fatalf("clamped grad = %v, want [-1 0.5 1]", g)
	}
	if err := ClipGradValue([]*tensor.Tensor{p}, -1); err == nil {
		t.Fatal("negative clip value should fail")
	}
}
