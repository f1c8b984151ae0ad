package train

import (
	"github.com/AntoniaMarcu/torchbearer/nn"
	"github.com/AntoniaMarcu/torchbearer/optim"
)

// Well-known state keys. The state bag is owned by the trainer and threaded
// through every callback hook; callbacks may read and mutate it.
const (
	KeyModel        = "model"
	KeyOptimizer    = "optimizer"
	KeyEpoch        = "epoch"
	KeyMaxEpochs    = "max_epochs"
	KeyBatch        = "batch"
	KeyInput        = "x"
	KeyTarget       = "y_true"
	KeyPrediction   = "y_pred"
	KeyLoss         = "loss"
	KeyMetrics      = "metrics"
	KeyStopTraining = "stop_training"
)

// State is the shared mutable training state: a mapping from string keys to
// values, populated by the trainer as the loop advances.
type State map[string]any

// Model returns the model under training, or nil when absent.
func (s State) Model() nn.Module {
	m, _ := s[KeyModel].(nn.Module)
	return m
}

// Optimizer returns the optimizer, or nil when absent.
func (s State) Optimizer() optim.Optimizer {
	o, _ := s[KeyOptimizer].(optim.Optimizer)
	return o
}

// Epoch returns the current zero-based epoch.
func (s State) Epoch() int {
	e, _ := s[KeyEpoch].(int)
	return e
}

// Loss returns the loss of the most recent batch.
func (s State) Loss() float64 {
	l, _ := s[KeyLoss].(float64)
	return l
}

// Metrics returns the metrics of the most recent epoch, or nil.
func (s State) Metrics() map[string]float64 {
	m, _ := s[KeyMetrics].(map[string]float64)
	return m
}

// StopTraining reports whether a callback has requested an early stop.
func (s State) StopTraining() bool {
	b, _ := s[KeyStopTraining].(bool)
	return b
}

// RequestStop asks the trainer to stop after the current epoch.
func (s State) RequestStop() {
	s[KeyStopTraining] = true
}
