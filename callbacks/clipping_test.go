package callbacks

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/AntoniaMarcu/torchbearer/backend/cpu"
	"github.com/AntoniaMarcu/torchbearer/tensor"
	"github.com/AntoniaMarcu/torchbearer/train"
)

// stubModel is a minimal nn.Module with a fixed parameter slice.
type stubModel struct {
	params []*tensor.Tensor
}

func (m *stubModel) Forward(x *tensor.Tensor) (*tensor.Tensor, error)  { return x, nil }
func (m *stubModel) Backward(g *tensor.Tensor) (*tensor.Tensor, error) { return g, nil }
func (m *stubModel) Parameters() []*tensor.Tensor                      { return m.params }

func newParam(t *testing.T, grad []float32) *tensor.Tensor {
	t.Helper()
	p, err := tensor.Zeros(len(grad))
	require.NoError(t, err)
	_, err = p.EnsureGrad()
	require.NoError(t, err)
	copy(p.Grad.Float32(), grad)
	return p
}

// clipCall records one delegated clip-by-norm invocation.
type clipCall struct {
	params   []*tensor.Tensor
	maxNorm  float64
	normType float64
}

func interceptClip(c *GradientNormClipping) *[]clipCall {
	calls := &[]clipCall{}
	c.clip = func(params []*tensor.Tensor, maxNorm, normType float64) (float64, error) {
		*calls = append(*calls, clipCall{params: params, maxNorm: maxNorm, normType: normType})
		return 0, nil
	}
	return calls
}

func TestNormClippingDefaultParamsFromModel(t *testing.T) {
	model := &stubModel{params: []*tensor.Tensor{newParam(t, []float32{1})}}
	state := train.State{train.KeyModel: model}

	c := NewGradientNormClipping(5)
	calls := interceptClip(c)

	require.NoError(t, c.OnStart(state))
	require.NoError(t, c.OnBackward(state))

	require.Len(t, *calls, 1)
	assert.Equal(t, model.params, (*calls)[0].params,
		"absent explicit params must fall back to the model's parameter accessor")
}

func TestNormClippingExplicitParamsPassedThrough(t *testing.T) {
	model := &stubModel{params: []*tensor.Tensor{newParam(t, []float32{1})}}
	explicit := []*tensor.Tensor{newParam(t, []float32{2}), newParam(t, []float32{3})}
	state := train.State{train.KeyModel: model}

	c := NewGradientNormClipping(5, WithParams(explicit))
	calls := interceptClip(c)

	require.NoError(t, c.OnStart(state))
	require.NoError(t, c.OnBackward(state))

	require.Len(t, *calls, 1)
	assert.Equal(t, explicit, (*calls)[0].params, "explicit params must be forwarded unchanged")
}

func TestNormClippingForwardsMaxNormAndNormType(t *testing.T) {
	model := &stubModel{params: []*tensor.Tensor{newParam(t, []float32{1})}}
	state := train.State{train.KeyModel: model}

	c := NewGradientNormClipping(5, WithNormType(1))
	calls := interceptClip(c)

	require.NoError(t, c.OnStart(state))
	require.NoError(t, c.OnBackward(state))

	require.Len(t, *calls, 1)
	assert.Equal(t, 5.0, (*calls)[0].maxNorm)
	assert.Equal(t, 1.0, (*calls)[0].normType)
}

func TestNormClippingDefaultNormType(t *testing.T) {
	model := &stubModel{params: []*tensor.Tensor{newParam(t, []float32{1})}}
	state := train.State{train.KeyModel: model}

	c := NewGradientNormClipping(5)
	calls := interceptClip(c)

	require.NoError(t, c.OnStart(state))
	require.NoError(t, c.OnBackward(state))

	require.Len(t, *calls, 1)
	assert.Equal(t, 5.0, (*calls)[0].maxNorm)
	assert.Equal(t, 2.0, (*calls)[0].normType, "norm type must default to 2")
}

func TestNormClippingFiresEveryBackward(t *testing.T) {
	model := &stubModel{params: []*tensor.Tensor{newParam(t, []float32{1})}}
	state := train.State{train.KeyModel: model}

	c := NewGradientNormClipping(5)
	calls := interceptClip(c)

	require.NoError(t, c.OnStart(state))
	require.NoError(t, c.OnBackward(state))
	require.NoError(t, c.OnBackward(state))
	assert.Len(t, *calls, 2)
}

func TestNormClippingErrorPropagatesUnmodified(t *testing.T) {
	c := NewGradientNormClipping(5)
	boom := errors.New("bad norm")
	c.clip = func([]*tensor.Tensor, float64, float64) (float64, error) { return 0, boom }

	err := c.OnBackward(train.State{})
	assert.Same(t, boom, err)
}

func TestNormClippingClipsForReal(t *testing.T) {
	p := newParam(t, []float32{3, 4})
	model := &stubModel{params: []*tensor.Tensor{p}}
	state := train.State{train.KeyModel: model}

	c := NewGradientNormClipping(1)
	require.NoError(t, c.OnStart(state))
	require.NoError(t, c.OnBackward(state))

	g := p.Grad.Float32()
	norm := math.Hypot(float64(g[0]), float64(g[1]))
	assert.InDelta(t, 1.0, norm, 1e-3, "combined norm must be clipped to the max")
}

func TestValueClippingDefaultParamsFromModel(t *testing.T) {
	p := newParam(t, []float32{-3, 0.5, 2})
	model := &stubModel{params: []*tensor.Tensor{p}}
	state := train.State{train.KeyModel: model}

	c := NewGradientValueClipping(1)
	require.NoError(t, c.OnStart(state))
	require.NoError(t, c.OnBackward(state))

	g := p.Grad.Float32()
	assert.Equal(t, []float32{-1, 0.5, 1}, []float32{g[0], g[1], g[2]})
}

func TestValueClippingExplicitParams(t *testing.T) {
	modelParam := newParam(t, []float32{5})
	explicit := newParam(t, []float32{5})
	model := &stubModel{params: []*tensor.Tensor{modelParam}}
	state := train.State{train.KeyModel: model}

	c := NewGradientValueClipping(1, WithValueParams([]*tensor.Tensor{explicit}))
	require.NoError(t, c.OnStart(state))
	require.NoError(t, c.OnBackward(state))

	assert.Equal(t, float32(1), explicit.Grad.Float32()[0])
	assert.Equal(t, float32(5), modelParam.Grad.Float32()[0],
		"model params must not be touched when explicit params were given")
}
