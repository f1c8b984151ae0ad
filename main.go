// Package main — trains a small regression MLP on synthetic data,
// demonstrating the callback-driven training loop with gradient clipping.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math"
	"math/rand"
	"os"

	"github.com/AntoniaMarcu/torchbearer/backend/cpu"
	"github.com/AntoniaMarcu/torchbearer/callbacks"
	"github.com/AntoniaMarcu/torchbearer/config"
	"github.com/AntoniaMarcu/torchbearer/nn"
	"github.com/AntoniaMarcu/torchbearer/optim"
	"github.com/AntoniaMarcu/torchbearer/runlog"
	"github.com/AntoniaMarcu/torchbearer/tensor"
	"github.com/AntoniaMarcu/torchbearer/train"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Error("load config", "err", err)
			os.Exit(1)
		}
	}

	log.Info("starting", "cpu", cpu.Features())

	// Synthetic regression: y = sin(x0) + 0.5*x1, with noise.
	rng := rand.New(rand.NewSource(42))
	const samples = 512
	xs := make([]float32, samples*2)
	ys := make([]float32, samples)
	for i := 0; i < samples; i++ {
		x0 := rng.Float64()*4 - 2
		x1 := rng.Float64()*4 - 2
		xs[i*2] = float32(x0)
		xs[i*2+1] = float32(x1)
		ys[i] = float32(math.Sin(x0) + 0.5*x1 + rng.NormFloat64()*0.05)
	}

	x, err := tensor.FromFloat32(xs, samples, 2)
	if err != nil {
		log.Error("build inputs", "err", err)
		os.Exit(1)
	}
	y, err := tensor.FromFloat32(ys, samples, 1)
	if err != nil {
		log.Error("build targets", "err", err)
		os.Exit(1)
	}

	batches, err := train.BatchTensors(x, y, cfg.Train.BatchSize)
	if err != nil {
		log.Error("batch data", "err", err)
		os.Exit(1)
	}

	model, err := buildModel()
	if err != nil {
		log.Error("build model", "err", err)
		os.Exit(1)
	}

	opt, err := buildOptimizer(cfg, model)
	if err != nil {
		log.Error("build optimizer", "err", err)
		os.Exit(1)
	}

	cbs := []train.Callback{callbacks.NewEpochLogger(log)}
	if cfg.Clip.MaxNorm > 0 {
		cbs = append(cbs, callbacks.NewGradientNormClipping(
			cfg.Clip.MaxNorm,
			callbacks.WithNormType(cfg.Clip.NormType),
		))
	}
	if cfg.Output.MetricsCSV != "" {
		cbs = append(cbs, callbacks.NewCSVLogger(cfg.Output.MetricsCSV))
	}
	if cfg.Output.CheckpointDir != "" {
		cbs = append(cbs, callbacks.NewModelCheckpoint(cfg.Output.CheckpointDir, "loss", true))
	}
	if cfg.Output.RunDB != "" {
		store, err := runlog.Open(cfg.Output.RunDB)
		if err != nil {
			log.Error("open run db", "err", err)
			os.Exit(1)
		}
		defer store.Close()
		cbs = append(cbs, callbacks.NewRunLogger(store, "demo regression"))
	}

	trainer := train.NewTrainer(model, opt, nn.NewMSELoss())
	trainer.Log = log

	state, err := trainer.Fit(context.Background(), train.NewSliceLoader(batches), cfg.Train.Epochs, cbs...)
	if err != nil {
		log.Error("training failed", "err", err)
		os.Exit(1)
	}

	log.Info("done", "final_loss", state.Metrics()["loss"])
}

func buildModel() (nn.Module, error) {
	l1, err := nn.NewLinear(2, 16)
	if err != nil {
		return nil, err
	}
	l2, err := nn.NewLinear(16, 1)
	if err != nil {
		return nil, err
	}
	return nn.NewSequential(l1, nn.NewReLU(), l2), nil
}

func buildOptimizer(cfg *config.Config, model nn.Module) (optim.Optimizer, error) {
	switch cfg.Optimizer.Name {
	case "adamw":
		return optim.NewAdamW(model.Parameters(), cfg.Optimizer.LearningRate, 0.9, 0.999, 1e-8, cfg.Optimizer.WeightDecay)
	default:
		return optim.NewSGD(model.Parameters(), cfg.Optimizer.LearningRate, cfg.Optimizer.Momentum)
	}
}
