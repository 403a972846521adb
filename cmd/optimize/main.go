// Package main provides CMA-ES optimization for finding species parameters
// under which herbivores and carnivores coexist.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/biosim/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	years := flag.Int("years", 300, "Maximum simulated years per run")
	seeds := flag.Int("seeds", 3, "Simulation seeds per evaluation")
	searchSeed := flag.Int64("search-seed", 1, "Seed for CMA-ES candidate sampling")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, *years, evalSeeds(*seeds), baseCfg)

	logFile, err := os.Create(filepath.Join(*outputDir, "optimize_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()
	evalLog, err := newEvalLog(logFile, params.Specs)
	if err != nil {
		log.Fatalf("failed to write log header: %v", err)
	}

	popSize := *population
	if popSize == 0 {
		popSize = defaultPopulation(params.Dim())
	}

	s := &search{
		params:   params,
		evaluate: evaluator.Evaluate,
		log:      evalLog,
		maxEvals: *maxEvals,
		progress: os.Stdout,
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		params.Dim(), popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, years per run: %s\n", *seeds, humanize.Comma(int64(*years)))

	if err := s.run(params.DefaultVector(baseCfg), popSize, *searchSeed); err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if s.best == nil {
		log.Fatal("no evaluation completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", s.evals, formatDuration(time.Since(s.start)))
	fmt.Printf("Best: survived %.0f years, quality %.3f, fitness %.1f\n",
		s.bestEval.Survived, s.bestEval.Quality, s.bestEval.Fitness)
	describe(os.Stdout, params.Specs, s.best)

	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := writeBestConfig(configOutPath, bestCfg, params, s.best); err != nil {
		log.Printf("failed to write best config: %v", err)
		return
	}
	fmt.Printf("\nBest config saved to: %s\n", configOutPath)
}
