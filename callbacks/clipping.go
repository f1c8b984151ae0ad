// Package callbacks provides ready-made training callbacks for the train
// package: gradient clipping, logging, early stopping, checkpointing.
package callbacks

import (
	"github.com/AntoniaMarcu/torchbearer/optim"
	"github.com/AntoniaMarcu/torchbearer/tensor"
	"github.com/AntoniaMarcu/torchbearer/train"
)

// ClipNormFunc is the clip-by-norm routine signature delegated to by
// GradientNormClipping.
type ClipNormFunc func(params []*tensor.Tensor, maxNorm, normType float64) (float64, error)

// ClipValueFunc is the clip-by-value routine signature delegated to by
// GradientValueClipping.
type ClipValueFunc func(params []*tensor.Tensor, clipValue float64) error

// GradientNormClipping clips the combined gradient norm of the trained
// parameters after every backward pass. When no explicit parameter slice is
// given, the model's parameters are snapshotted from the state at OnStart.
type GradientNormClipping struct {
	train.BaseCallback
	maxNorm  float64
	normType float64
	params   []*tensor.Tensor
	clip     ClipNormFunc
}

// NormClippingOption configures a GradientNormClipping.
type NormClippingOption func(*GradientNormClipping)

// WithNormType sets the norm exponent (default 2).
func WithNormType(normType float64) NormClippingOption {
	return func(c *GradientNormClipping) { c.normType = normType }
}

// WithParams sets an explicit parameter slice, bypassing the model's
// parameter accessor.
func WithParams(params []*tensor.Tensor) NormClippingOption {
	return func(c *GradientNormClipping) { c.params = params }
}

// NewGradientNormClipping creates the callback with the given max norm.
func NewGradientNormClipping(maxNorm float64, opts ...NormClippingOption) *GradientNormClipping {
	c := &GradientNormClipping{
		maxNorm:  maxNorm,
		normType: optim.DefaultNormType,
		clip:     optim.ClipGradNorm,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnStart resolves the parameter source: explicit params win, otherwise the
// model's parameter accessor.
func (c *GradientNormClipping) OnStart(s train.State) error {
	if c.params == nil {
		if m := s.Model(); m != nil {
			c.params = m.Parameters()
		}
	}
	return nil
}

// OnBackward delegates to the clip-by-norm routine. Any error propagates
// unmodified.
func (c *GradientNormClipping) OnBackward(train.State) error {
	_, err := c.clip(c.params, c.maxNorm, c.normType)
	return err
}

// GradientValueClipping clamps every gradient element into
// [-clipValue, clipValue] after each backward pass.
type GradientValueClipping struct {
	train.BaseCallback
	clipValue float64
	params    []*tensor.Tensor
	clip      ClipValueFunc
}

// ValueClippingOption configures a GradientValueClipping.
type ValueClippingOption func(*GradientValueClipping)

// WithValueParams sets an explicit parameter slice for value clipping.
func WithValueParams(params []*tensor.Tensor) ValueClippingOption {
	return func(c *GradientValueClipping) { c.params = params }
}

// NewGradientValueClipping creates the callback with the given clip value.
func NewGradientValueClipping(clipValue float64, opts ...ValueClippingOption) *GradientValueClipping {
	c := &GradientValueClipping{clipValue: clipValue, clip: optim.ClipGradValue}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnStart resolves the parameter source like GradientNormClipping does.
func (c *GradientValueClipping) OnStart(s train.State) error {
	if c.params == nil {
		if m := s.Model(); m != nil {
			c.params = m.Parameters()
		}
	}
	return nil
}

// OnBackward delegates to the clip-by-value routine.
func (c *GradientValueClipping) OnBackward(train.State) error {
	return c.clip(c.params, c.clipValue)
}
