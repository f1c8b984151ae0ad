package callbacks

import (
	"context"
	"fmt"

	"github.com/AntoniaMarcu/torchbearer/runlog"
	"github.com/AntoniaMarcu/torchbearer/train"
)

// RunLogger records each training run and its per-epoch loss in a runlog
// store.
type RunLogger struct {
	train.BaseCallback
	store *runlog.Store
	notes string
	runID string
}

// NewRunLogger creates the callback. The store stays owned by the caller.
func NewRunLogger(store *runlog.Store, notes string) *RunLogger {
	return &RunLogger{store: store, notes: notes}
}

// RunID returns the identifier of the current run, empty before OnStart.
func (r *RunLogger) RunID() string { return r.runID }

// OnStart registers the run.
func (r *RunLogger) OnStart(s train.State) error {
	maxEpochs, _ := s[train.KeyMaxEpochs].(int)
	id, err := r.store.CreateRun(context.Background(), maxEpochs, r.notes)
	if err != nil {
		return err
	}
	r.runID = id
	return nil
}

// OnEndEpoch records the epoch loss.
func (r *RunLogger) OnEndEpoch(s train.State) error {
	if r.runID == "" {
		return fmt.Errorf("run logger: OnStart did not run")
	}
	loss, ok := s.Metrics()["loss"]
	if !ok {
		return nil
	}
	return r.store.LogEpoch(context.Background(), r.runID, s.Epoch(), loss)
}
