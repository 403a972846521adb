package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/sim"
	"github.com/pthm-cable/biosim/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output census windows, bookmarks and perf via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, charts and database (empty = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config)")
	years := flag.Int("years", 0, "Years to simulate (0 = use config)")
	resume := flag.String("resume", "", "Snapshot file to continue from")
	finalSnapshot := flag.Bool("final-snapshot", false, "Save a snapshot after the last year (requires an output directory)")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	setupLogging(*verbose)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := sim.Options{
		Seed:      *seed,
		OutputDir: *outputDir,
		LogStats:  *logStats,
	}
	if *resume != "" {
		snap, err := telemetry.LoadSnapshot(*resume)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		opts.Resume = snap
	}

	runYears := cfg.Simulation.Years
	if *years > 0 {
		runYears = *years
	}

	s, err := sim.New(cfg, opts)
	if err != nil {
		slog.Error("failed to build simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"seed", s.Seed(),
		"start_year", s.Year(),
		"years", runYears,
		"animals", s.NumAnimals(),
		"run_id", s.RunID(),
	)

	start := time.Now()
	simErr := s.Simulate(runYears)
	elapsed := time.Since(start)

	if simErr == nil && *finalSnapshot {
		saveFinalSnapshot(s, cfg, *outputDir)
	}
	if err := s.Close(); err != nil {
		slog.Error("failed to close outputs", "error", err)
	}
	if simErr != nil {
		slog.Error("simulation failed", "year", s.Year(), "error", simErr)
		os.Exit(1)
	}

	printSummary(s, runYears, elapsed)
}

// setupLogging installs a text handler on terminals and JSON otherwise.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		handler = slog.NewTextHandler(os.Stdout, hopts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, hopts)
	}
	slog.SetDefault(slog.New(handler))
}

func saveFinalSnapshot(s *sim.Simulation, cfg *config.Config, outputDir string) {
	dir := cfg.Output.Dir
	if outputDir != "" {
		dir = outputDir
	}
	if dir == "" {
		slog.Warn("final snapshot skipped: no output directory")
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		slog.Error("failed to capture snapshot", "error", err)
		return
	}
	path, err := telemetry.SaveSnapshot(snap, dir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "year", s.Year())
}

func printSummary(s *sim.Simulation, years int, elapsed time.Duration) {
	counts := s.Counts()
	fmt.Printf("Simulated %s years in %s (now year %s)\n",
		humanize.Comma(int64(years)), elapsed.Round(time.Millisecond), humanize.Comma(int64(s.Year())))
	for _, k := range animal.Kinds {
		fmt.Printf("  %-10s %s\n", k.String()+":", humanize.Comma(int64(counts[k])))
	}
	fmt.Printf("  %-10s %s\n", "Total:", humanize.Comma(int64(counts.Total())))
}
