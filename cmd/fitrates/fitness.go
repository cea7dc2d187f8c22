package main

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/heatshock/config"
	"github.com/pthm-cable/heatshock/kinetics"
	"github.com/pthm-cable/heatshock/model"
	"github.com/pthm-cable/heatshock/telemetry"
)

// failedFitness scores parameter sets whose simulation could not be built or run.
const failedFitness = 1e6

// FitnessEvaluator runs simulations and scores them against targets.
type FitnessEvaluator struct {
	params     *ParamVector
	targets    []Target
	seeds      []uint64
	baseConfig *config.Config

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestMeans   []float64
	lastMeans   []float64 // pooled means from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Every evaluation reuses the
// same seeds, so parameter sets are compared under common random numbers.
func NewFitnessEvaluator(params *ParamVector, targets []Target, seeds []uint64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		targets:     targets,
		seeds:       seeds,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// LastMeans returns the pooled target means from the most recent evaluation.
func (fe *FitnessEvaluator) LastMeans() []float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMeans
}

// BestMeans returns the pooled target means of the best evaluation so far.
func (fe *FitnessEvaluator) BestMeans() []float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestMeans
}

// Evaluate computes fitness for raw parameter values (lower = better): the
// sum over targets of the squared relative error of the pooled mean.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	cfg, err := fe.baseConfig.Clone()
	if err != nil {
		slog.Error("cloning config", "error", err)
		return failedFitness
	}
	if err := fe.params.ApplyToConfig(cfg, raw); err != nil {
		slog.Error("applying parameters", "error", err)
		return failedFitness
	}
	net, sched, err := model.Build(cfg)
	if err != nil {
		slog.Error("building model", "error", err)
		return failedFitness
	}

	// Run all seeds in parallel
	sim := cfg.Simulation
	trajs := make([]*kinetics.Trajectory, len(fe.seeds))
	errs := make([]error, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			trajs[idx], errs[idx] = net.Clone().Simulate(sim.TStart, sim.TEnd, sched, kinetics.NewSource(s, 0))
		}(i, seed)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			slog.Warn("simulation failed", "params", raw, "error", err)
			return failedFitness
		}
	}

	fitness, means := fe.score(trajs, sim.BurnIn, sim.TEnd)

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestMeans = means
	}
	fe.lastMeans = means
	fe.mu.Unlock()

	return fitness
}

func (fe *FitnessEvaluator) score(trajs []*kinetics.Trajectory, from, until float64) (float64, []float64) {
	var fitness float64
	means := make([]float64, len(fe.targets))
	for i, tg := range fe.targets {
		m, err := telemetry.Pool(trajs, tg.Species, from, until)
		if err != nil {
			return failedFitness, means
		}
		means[i] = m.Mean
		fitness += relErr2(m.Mean, tg.Value)
	}
	return fitness, means
}

// relErr2 is the squared relative error, or squared absolute error when
// the target is zero.
func relErr2(got, want float64) float64 {
	d := got - want
	if want != 0 {
		d /= want
	}
	return d * d
}
