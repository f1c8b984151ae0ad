package train

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AntoniaMarcu/torchbearer/nn"
	"github.com/AntoniaMarcu/torchbearer/optim"
)

// Trainer runs the training loop: sample, forward, criterion, backward, step.
// Lifecycle callbacks fire around each stage with the shared state bag.
type Trainer struct {
	Model     nn.Module
	Optimizer optim.Optimizer
	Criterion nn.Criterion
	Log       *slog.Logger
}

// NewTrainer creates a trainer. Log defaults to slog.Default().
func NewTrainer(model nn.Module, opt optim.Optimizer, criterion nn.Criterion) *Trainer {
	return &Trainer{Model: model, Optimizer: opt, Criterion: criterion, Log: slog.Default()}
}

// Fit trains for up to epochs passes over loader. The returned state holds the
// final metrics. Callback errors abort the run and propagate unmodified;
// context cancellation stops the run between batches.
func (t *Trainer) Fit(ctx context.Context, loader Loader, epochs int, cbs ...Callback) (State, error) {
	if t.Model == nil || t.Optimizer == nil || t.Criterion == nil {
		return nil, fmt.Errorf("trainer: model, optimizer and criterion are required")
	}
	if epochs <= 0 {
		return nil, fmt.Errorf("trainer: epochs must be positive, got %d", epochs)
	}
	list := CallbackList(cbs)
	state := State{
		KeyModel:        t.Model,
		KeyOptimizer:    t.Optimizer,
		KeyMaxEpochs:    epochs,
		KeyStopTraining: false,
	}
	if err := list.OnStart(state); err != nil {
		return state, err
	}

	for epoch := 0; epoch < epochs; epoch++ {
		state[KeyEpoch] = epoch
		if err := list.OnStartEpoch(state); err != nil {
			return state, err
		}

		loader.Reset()
		var epochLoss float64
		batches := 0
		for {
			if err := ctx.Err(); err != nil {
				return state, err
			}
			batch, ok := loader.Next()
			if !ok {
				break
			}
			state[KeyBatch] = batches
			state[KeyInput] = batch.X
			state[KeyTarget] = batch.Y
			if err := list.OnSample(state); err != nil {
				return state, err
			}

			pred, err := t.Model.Forward(batch.X)
			if err != nil {
				return state, fmt.Errorf("forward: %w", err)
			}
			state[KeyPrediction] = pred
			if err := list.OnForward(state); err != nil {
				return state, err
			}

			loss, grad, err := t.Criterion.Forward(pred, batch.Y)
			if err != nil {
				return state, fmt.Errorf("criterion: %w", err)
			}
			state[KeyLoss] = loss
			if err := list.OnCriterion(state); err != nil {
				return state, err
			}

			t.Optimizer.ZeroGrad()
			if _, err := t.Model.Backward(grad); err != nil {
				return state, fmt.Errorf("backward: %w", err)
			}
			if err := list.OnBackward(state); err != nil {
				return state, err
			}

			if err := t.Optimizer.Step(); err != nil {
				return state, fmt.Errorf("optimizer step: %w", err)
			}
			if err := list.OnStep(state); err != nil {
				return state, err
			}

			epochLoss += loss
			batches++
		}

		metrics := map[string]float64{}
		if batches > 0 {
			metrics["loss"] = epochLoss / float64(batches)
		}
		state[KeyMetrics] = metrics
		if err := list.OnEndEpoch(state); err != nil {
			return state, err
		}
		t.Log.Debug("epoch complete", "epoch", epoch, "loss", metrics["loss"])

		if state.StopTraining() {
			t.Log.Info("training stopped early", "epoch", epoch)
			break
		}
	}

	if err := list.OnEnd(state); err != nil {
		return state, err
	}
	return state, nil
}
