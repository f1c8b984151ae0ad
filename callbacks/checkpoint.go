package callbacks

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/AntoniaMarcu/torchbearer/train"
)

// ModelCheckpoint writes the model parameters to a JSON file at the end of
// each epoch. With best-only mode, snapshots are written only when the
// monitored metric improves.
type ModelCheckpoint struct {
	train.BaseCallback
	dir      string
	monitor  string
	bestOnly bool

	runID string
	best  float64
}

// NewModelCheckpoint creates the callback writing under dir. monitor names
// the metric compared in best-only mode (lower is better).
func NewModelCheckpoint(dir, monitor string, bestOnly bool) *ModelCheckpoint {
	return &ModelCheckpoint{dir: dir, monitor: monitor, bestOnly: bestOnly}
}

// RunID returns the identifier assigned to the current run, empty before
// OnStart.
func (c *ModelCheckpoint) RunID() string { return c.runID }

// checkpointFile is the on-disk snapshot format.
type checkpointFile struct {
	RunID   string             `json:"run_id"`
	Epoch   int                `json:"epoch"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Params  []checkpointParam  `json:"params"`
}

type checkpointParam struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// OnStart assigns a fresh run ID and ensures the checkpoint directory exists.
func (c *ModelCheckpoint) OnStart(train.State) error {
	c.runID = uuid.NewString()
	c.best = math.Inf(1)
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// OnEndEpoch writes the snapshot, unless best-only mode says to skip.
func (c *ModelCheckpoint) OnEndEpoch(s train.State) error {
	model := s.Model()
	if model == nil {
		return fmt.Errorf("checkpoint: no model in state")
	}
	metrics := s.Metrics()
	if c.bestOnly {
		v, ok := metrics[c.monitor]
		if !ok || v >= c.best {
			return nil
		}
		c.best = v
	}

	cp := checkpointFile{
		RunID:   c.runID,
		Epoch:   s.Epoch(),
		Metrics: metrics,
	}
	for _, p := range model.Parameters() {
		data := make([]float32, p.NumElements())
		copy(data, p.Float32())
		cp.Params = append(cp.Params, checkpointParam{Shape: p.Shape, Data: data})
	}

	name := fmt.Sprintf("%s-epoch%03d.json", c.runID, s.Epoch())
	if c.bestOnly {
		name = fmt.Sprintf("%s-best.json", c.runID)
	}
	buf, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, name), buf, 0o644); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
