package main

import (
	"log/slog"
	"maps"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/sim"
	"github.com/pthm-cable/biosim/telemetry"
)

// FitnessEvaluator runs simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	years       int
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, years int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		years:       years,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 5,
	}
}

// Evaluation is the seed-averaged outcome of one parameter vector.
type Evaluation struct {
	Fitness  float64 // lower is better
	Quality  float64 // ecosystem quality in [0, 1]
	Survived float64 // years both species coexisted
}

// runResult holds the results from a single simulation run.
type runResult struct {
	survivalYears int // years before either species died out (or years if both survived)
	windows       []telemetry.YearStats
}

// Evaluate runs every seed with the given species parameters and averages
// the results. Fitness is negative survival years scaled by quality, so
// longer and healthier coexistence scores lower. Seeds run concurrently;
// each run is single-threaded and independent.
func (fe *FitnessEvaluator) Evaluate(x []float64) Evaluation {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]runResult, len(fe.seeds))
	var g errgroup.Group
	for i, seed := range fe.seeds {
		g.Go(func() error {
			r, err := fe.runSimulation(cfg, seed)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("evaluation failed", "error", err)
		return Evaluation{}
	}

	var e Evaluation
	for _, r := range results {
		quality := computeQuality(r.windows)
		e.Fitness += computeFitness(r.survivalYears, quality)
		e.Quality += quality
		e.Survived += float64(r.survivalYears)
	}
	n := float64(len(fe.seeds))
	e.Fitness /= n
	e.Quality /= n
	e.Survived /= n
	return e
}

// runSimulation executes one run until either species dies out or the
// year budget is spent. Extinction only counts once every scheduled
// addition has happened.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) (runResult, error) {
	s, err := sim.New(cfg, sim.Options{Seed: seed})
	if err != nil {
		return runResult{}, err
	}
	defer s.Close()

	warmup := 0
	for _, entry := range cfg.Schedule {
		warmup = max(warmup, entry.Year+1)
	}

	for s.Year() < fe.years {
		if err := s.Simulate(1); err != nil {
			return runResult{}, err
		}
		if s.Year() < warmup {
			continue
		}
		counts := s.Counts()
		if counts[animal.KindHerbivore] == 0 || counts[animal.KindCarnivore] == 0 {
			return runResult{survivalYears: s.Year(), windows: s.History()}, nil
		}
	}
	return runResult{survivalYears: fe.years, windows: s.History()}, nil
}

// copyConfig returns a copy of the base config with its own Animals map
// and all file output disabled.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Animals = make(map[string]map[string]float64, len(fe.baseConfig.Animals))
	for species, update := range fe.baseConfig.Animals {
		cfg.Animals[species] = maps.Clone(update)
	}
	cfg.Output.Dir = ""
	cfg.Telemetry.StatsWindow = fe.statsWindow
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(survivalYears × (1.0 + 0.2 × quality))
func computeFitness(survivalYears int, quality float64) float64 {
	return -(float64(survivalYears) * (1.0 + 0.2*quality))
}

// Quality component weights.
const (
	qualityWeightRatio     = 0.30
	qualityWeightStability = 0.30
	qualityWeightFitness   = 0.20
	qualityWeightHunting   = 0.20

	qualityWarmupWindows = 12 // skip the years before carnivores settle
	qualityMinPop        = 3  // exclude windows where either species < this
	targetRatio          = 5.0
)

// computeQuality computes ecosystem quality ∈ [0, 1] from census windows.
func computeQuality(windows []telemetry.YearStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}

	var ratioSum, fitnessSum, huntSum float64
	var n int
	var herbCounts, carnCounts []float64

	for _, w := range windows[qualityWarmupWindows:] {
		if w.Herbivores < qualityMinPop || w.Carnivores < qualityMinPop {
			continue
		}
		n++
		herbCounts = append(herbCounts, float64(w.Herbivores))
		carnCounts = append(carnCounts, float64(w.Carnivores))

		// 1. Population ratio score
		logErr := math.Log(float64(w.Herbivores) / float64(w.Carnivores) / targetRatio)
		ratioSum += math.Exp(-logErr * logErr)

		// 3. Fitness health: median fitness near the middle of the curve
		herbH := math.Exp(-math.Pow((w.HerbFitnessP50-0.5)/0.25, 2))
		carnH := math.Exp(-math.Pow((w.CarnFitnessP50-0.5)/0.25, 2))
		fitnessSum += (herbH + carnH) / 2.0

		// 4. Hunting activity: kills per carnivore over the window
		killsPerCarn := float64(w.Kills) / float64(w.Carnivores)
		huntSum += 1.0 - math.Exp(-killsPerCarn/2.0)
	}

	if n == 0 {
		return 0
	}

	// 2. Population stability (CV across all valid windows)
	stabilityScore := 0.0
	if n >= 2 {
		cvHerb := cv(herbCounts)
		cvCarn := cv(carnCounts)
		stabilityScore = math.Exp(-(cvHerb*cvHerb + cvCarn*cvCarn))
	}

	quality := qualityWeightRatio*ratioSum/float64(n) +
		qualityWeightStability*stabilityScore +
		qualityWeightFitness*fitnessSum/float64(n) +
		qualityWeightHunting*huntSum/float64(n)

	return min(max(quality, 0), 1)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
