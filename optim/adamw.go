package optim

import (
	"fmt"
	"math"

	"github.com/AntoniaMarcu/torchbearer/tensor"
)

// AdamW implements Adam with decoupled weight decay.
type AdamW struct {
	params      []*tensor.Tensor
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	t           int
	m           [][]float32 // first moment
	v           [][]float32 // second moment
}

// NewAdamW creates an AdamW optimizer. params are modified in place; they must
// have Grad set when Step() is called.
func NewAdamW(params []*tensor.Tensor, lr, beta1, beta2, eps, weightDecay float64) (*AdamW, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("adamw: no parameters")
	}
	if eps == 0 {
		eps = 1e-8
	}
	m := make([][]float32, len(params))
	v := make([][]float32, len(params))
	for i, p := range params {
		m[i] = make([]float32, p.NumElements())
		v[i] = make([]float32, p.NumElements())
	}
	return &AdamW{
		params:      params,
		lr:          lr,
		beta1:       beta1,
		beta2:       beta2,
		eps:         eps,
		weightDecay: weightDecay,
		m:           m,
		v:           v,
	}, nil
}

// Step performs one parameter update.
func (a *AdamW) Step() error {
	a.t++
	bc1 := float32(1 - math.Pow(a.beta1, float64(a.t)))
	bc2 := float32(1 - math.Pow(a.beta2, float64(a.t)))
	for i, p := range a.params {
		if p.Grad == nil {
			continue
		}
		grad := p.Grad.Float32()
		param := p.Float32()
		mF := a.m[i]
		vF := a.v[i]
		for j := range param {
			g := grad[j]
			// Weight decay (decoupled): p -= lr * weightDecay * p
			param[j] -= float32(a.lr*a.weightDecay) * param[j]
			// m = beta1*m + (1-beta1)*grad, v = beta2*v + (1-beta2)*grad^2
			mF[j] = float32(a.beta1)*mF[j] + float32(1-a.beta1)*g
			vF[j] = float32(a.beta2)*vF[j] + float32(1-a.beta2)*g*g
			// m_hat = m/(1-beta1^t), v_hat = v/(1-beta2^t), p -= lr * m_hat / (sqrt(v_hat)+eps)
			mHat := mF[j] / bc1
			vHat := vF[j] / bc2
			param[j] -= float32(a.lr) * mHat / (float32(math.Sqrt(float64(vHat))) + float32(a.eps))
		}
	}
	return nil
}

// ZeroGrad clears all parameter gradients.
func (a *AdamW) ZeroGrad() {
	zeroGrads(a.params)
}
