package callbacks

import (
	"log/slog"

	"github.com/AntoniaMarcu/torchbearer/train"
)

// EarlyStopping requests a stop when a monitored metric has not improved
// (decreased by at least MinDelta) for Patience consecutive epochs.
type EarlyStopping struct {
	train.BaseCallback
	monitor  string
	patience int
	minDelta float64

	best    float64
	wait    int
	started bool
}

// NewEarlyStopping creates the callback. monitor names the metric to watch
// (lower is better), patience is the number of epochs without improvement
// tolerated before stopping.
func NewEarlyStopping(monitor string, patience int, minDelta float64) *EarlyStopping {
	return &EarlyStopping{monitor: monitor, patience: patience, minDelta: minDelta}
}

// OnStart resets the tracking state so the callback can be reused across runs.
func (e *EarlyStopping) OnStart(train.State) error {
	e.best = 0
	e.wait = 0
	e.started = false
	return nil
}

// OnEndEpoch updates the best value and requests a stop once patience runs out.
// Epochs without the monitored metric are ignored.
func (e *EarlyStopping) OnEndEpoch(s train.State) error {
	v, ok := s.Metrics()[e.monitor]
	if !ok {
		return nil
	}
	if !e.started || v < e.best-e.minDelta {
		e.best = v
		e.wait = 0
		e.started = true
		return nil
	}
	e.wait++
	if e.wait >= e.patience {
		slog.Info("early stopping", "monitor", e.monitor, "best", e.best, "epoch", s.Epoch())
		s.RequestStop()
	}
	return nil
}
