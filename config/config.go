// Package config loads training configuration from TOML files.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the training configuration.
type Config struct {
	// Training loop settings
	Train TrainConfig `toml:"train"`

	// Optimizer settings
	Optimizer OptimizerConfig `toml:"optimizer"`

	// Gradient clipping settings
	Clip ClipConfig `toml:"clip"`

	// Output settings
	Output OutputConfig `toml:"output"`
}

// TrainConfig contains loop settings.
type TrainConfig struct {
	Epochs    int `toml:"epochs"`     // Number of passes over the data
	BatchSize int `toml:"batch_size"` // Rows per batch
}

// OptimizerConfig selects and tunes the optimizer.
type OptimizerConfig struct {
	Name         string  `toml:"name"`          // "sgd" or "adamw"
	LearningRate float64 `toml:"learning_rate"` // Step size
	Momentum     float64 `toml:"momentum"`      // SGD momentum (0 = off)
	WeightDecay  float64 `toml:"weight_decay"`  // AdamW decoupled decay
}

// ClipConfig controls gradient norm clipping. MaxNorm 0 disables it.
type ClipConfig struct {
	MaxNorm  float64 `toml:"max_norm"`  // Combined norm ceiling (0 = off)
	NormType float64 `toml:"norm_type"` // Norm exponent (default 2)
}

// OutputConfig controls where results land.
type OutputConfig struct {
	CheckpointDir string `toml:"checkpoint_dir"` // Directory for parameter snapshots ("" = off)
	RunDB         string `toml:"run_db"`         // SQLite run history path ("" = off)
	MetricsCSV    string `toml:"metrics_csv"`    // Per-epoch CSV path ("" = off)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Train: TrainConfig{
			Epochs:    50,
			BatchSize: 32,
		},
		Optimizer: OptimizerConfig{
			Name:         "sgd",
			LearningRate: 0.01,
		},
		Clip: ClipConfig{
			MaxNorm:  0,
			NormType: 2,
		},
	}
}

// Load reads a TOML config from path, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the trainer would reject.
func (c *Config) Validate() error {
	if c.Train.Epochs <= 0 {
		return fmt.Errorf("config: train.epochs must be positive, got %d", c.Train.Epochs)
	}
	if c.Train.BatchSize <= 0 {
		return fmt.Errorf("config: train.batch_size must be positive, got %d", c.Train.BatchSize)
	}
	if c.Optimizer.LearningRate <= 0 {
		return fmt.Errorf("config: optimizer.learning_rate must be positive, got %v", c.Optimizer.LearningRate)
	}
	switch c.Optimizer.Name {
	case "sgd", "adamw":
	default:
		return fmt.Errorf("config: unknown optimizer %q", c.Optimizer.Name)
	}
	if c.Clip.MaxNorm < 0 {
		return fmt.Errorf("config: clip.max_norm must be non-negative, got %v", c.Clip.MaxNorm)
	}
	if c.Clip.NormType <= 0 {
		return fmt.Errorf("config: clip.norm_type must be positive, got %v", c.Clip.NormType)
	}
	return nil
}
