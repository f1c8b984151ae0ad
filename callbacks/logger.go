package callbacks

import (
	"log/slog"
	"sort"

	"github.com/AntoniaMarcu/torchbearer/train"
)

// EpochLogger logs epoch metrics through slog.
type EpochLogger struct {
	train.BaseCallback
	log *slog.Logger
}

// NewEpochLogger creates the callback. A nil logger means slog.Default().
func NewEpochLogger(log *slog.Logger) *EpochLogger {
	if log == nil {
		log = slog.Default()
	}
	return &EpochLogger{log: log}
}

// OnEndEpoch logs the epoch number and every metric in key order.
func (l *EpochLogger) OnEndEpoch(s train.State) error {
	metrics := s.Metrics()
	args := make([]any, 0, 2+2*len(metrics))
	args = append(args, "epoch", s.Epoch())
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, k, metrics[k])
	}
	l.log.Info("epoch", args...)
	return nil
}
