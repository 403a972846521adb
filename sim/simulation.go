// Package sim drives an island through the years: it owns the random stream,
// applies scheduled population additions and feeds telemetry sinks.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/island"
	"github.com/pthm-cable/biosim/report"
	"github.com/pthm-cable/biosim/rng"
	"github.com/pthm-cable/biosim/simerr"
	"github.com/pthm-cable/biosim/store"
	"github.com/pthm-cable/biosim/telemetry"
)

// Options override configuration values for a single run.
type Options struct {
	Seed      int64  // 0 keeps simulation.seed
	OutputDir string // empty keeps output.dir
	LogStats  bool   // log census windows, bookmarks and perf via slog

	// Resume continues from a snapshot instead of the configured map and
	// initial population. Scheduled additions for later years still apply.
	Resume *telemetry.Snapshot
}

// Simulation holds the complete run state.
type Simulation struct {
	cfg    *config.Config
	seed   int64
	rng    *rng.RNG
	island *island.Island
	year   int

	schedule map[int][]config.Placement

	// Telemetry
	collector *telemetry.Collector
	bookmarks *telemetry.BookmarkDetector
	perf      *telemetry.PhaseProfile
	history   []telemetry.YearStats
	logStats  bool

	// Sinks, nil when disabled
	output *telemetry.OutputManager
	db     *store.DB
	runID  string
	movie  *report.MovieWriter
	frame  report.FrameSpec
}

// New builds a simulation from cfg. Parameter overrides are applied before
// the initial population is placed, and every scheduled addition is
// validated up front so a bad schedule fails here rather than mid-run.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	seed := cfg.Simulation.Seed
	if opts.Seed != 0 {
		seed = opts.Seed
	}
	islandMap := cfg.Simulation.Map
	if opts.Resume != nil {
		islandMap = opts.Resume.Map
	}

	is, err := island.New(islandMap, island.NewEcology())
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:       cfg,
		seed:      seed,
		rng:       rng.New(seed),
		island:    is,
		schedule:  make(map[int][]config.Placement),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		bookmarks: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks),
		perf:      telemetry.NewPhaseProfile(),
		logStats:  opts.LogStats,
	}

	if err := s.applyParameters(cfg.Animals, cfg.Landscapes); err != nil {
		return nil, err
	}

	if opts.Resume != nil {
		if err := s.restore(opts.Resume); err != nil {
			return nil, err
		}
	} else if err := s.island.AddPopulation(cfg.Population, s.rng); err != nil {
		return nil, fmt.Errorf("initial population: %w", err)
	}

	for _, entry := range cfg.Schedule {
		if err := s.island.ValidatePopulation(entry.Population); err != nil {
			return nil, fmt.Errorf("schedule year %d: %w", entry.Year, err)
		}
		s.schedule[entry.Year] = append(s.schedule[entry.Year], entry.Population...)
	}

	outDir := cfg.Output.Dir
	if opts.OutputDir != "" {
		outDir = opts.OutputDir
	}
	if err := s.openSinks(outDir); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// applyParameters applies species and terrain overrides in sorted key order
// so the first reported error does not depend on map iteration.
func (s *Simulation) applyParameters(animals, landscapes map[string]map[string]float64) error {
	for _, name := range slices.Sorted(maps.Keys(animals)) {
		if err := s.SetAnimalParameters(name, animals[name]); err != nil {
			return fmt.Errorf("animals.%s: %w", name, err)
		}
	}
	for _, code := range slices.Sorted(maps.Keys(landscapes)) {
		if err := s.SetLandscapeParameters(code, landscapes[code]); err != nil {
			return fmt.Errorf("landscapes.%s: %w", code, err)
		}
	}
	return nil
}

// restore loads parameters, residents, the year and the random stream from
// a snapshot. Snapshot parameters win over configured overrides.
func (s *Simulation) restore(snap *telemetry.Snapshot) error {
	landscapes := make(map[string]map[string]float64, len(snap.Capacities))
	for code, capacity := range snap.Capacities {
		landscapes[code] = map[string]float64{"f_max": capacity}
	}
	if err := s.applyParameters(snap.Species, landscapes); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := s.island.AddPopulation(snap.Placements(), s.rng); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := s.rng.Restore(snap.RNGState); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	s.seed = snap.Seed
	s.year = snap.Year
	s.collector = telemetry.NewCollectorAt(s.cfg.Telemetry.StatsWindow, snap.Year)
	return nil
}

// openSinks creates the output directory artefacts enabled in the config.
func (s *Simulation) openSinks(dir string) error {
	om, err := telemetry.NewOutputManager(dir)
	if err != nil {
		return err
	}
	s.output = om
	if om == nil {
		return nil
	}

	if err := om.WriteConfig(s.cfg); err != nil {
		return err
	}

	if name := s.cfg.Output.Database; name != "" {
		db, err := store.Open(om.Path(name))
		if err != nil {
			return err
		}
		s.db = db
		runID, err := db.CreateRun(s.seed, s.island.Map())
		if err != nil {
			return err
		}
		s.runID = runID
	}

	if mc := s.cfg.Output.Movie; mc.Enabled {
		s.frame = report.FrameSpec{
			Scale:   mc.Scale,
			HerbMax: mc.CMax[animal.KindHerbivore.String()],
			CarnMax: mc.CMax[animal.KindCarnivore.String()],
		}
		rows, cols := s.island.Size()
		w, h := report.FrameSize(rows, cols, s.frame)
		movie, err := report.NewMovieWriter(om.Path("island.avi"), w, h, mc.FPS)
		if err != nil {
			return err
		}
		s.movie = movie
		s.addFrame()
	}

	return nil
}

// SetAnimalParameters updates a species' parameters for present and future
// animals. species is a population tag such as "Herbivore".
func (s *Simulation) SetAnimalParameters(species string, update map[string]float64) error {
	kind, err := animal.ParseKind(species)
	if err != nil {
		return err
	}
	return s.island.SetAnimalParameters(kind, update)
}

// SetLandscapeParameters updates the terrain with the given map code.
func (s *Simulation) SetLandscapeParameters(code string, update map[string]float64) error {
	return s.island.SetLandscapeParameters(code, update)
}

// AddPopulation places animals now. A failed call changes nothing.
func (s *Simulation) AddPopulation(placements []config.Placement) error {
	return s.island.AddPopulation(placements, s.rng)
}

// Simulate advances the island by years years.
func (s *Simulation) Simulate(years int) error {
	if years < 0 {
		return fmt.Errorf("%w: years must be non-negative, got %d", simerr.ErrValidation, years)
	}
	for range years {
		if err := s.step(); err != nil {
			return err
		}
	}
	return nil
}

// step runs one year: scheduled additions, the annual cycle, then telemetry.
func (s *Simulation) step() error {
	if batch := s.schedule[s.year]; len(batch) > 0 {
		if err := s.island.AddPopulation(batch, s.rng); err != nil {
			return fmt.Errorf("schedule year %d: %w", s.year, err)
		}
		slog.Debug("scheduled population added", "year", s.year, "placements", len(batch))
	}

	s.perf.BeginYear()
	rep := s.island.Step(s.rng, s.perf)
	s.year++
	s.perf.EndYear(s.year, s.island.Counts().Total())

	s.collector.Record(rep)
	s.flushTelemetry()
	s.flushPerf()
	return nil
}

// Year returns the number of simulated years.
func (s *Simulation) Year() int { return s.year }

// Seed returns the seed of the random stream.
func (s *Simulation) Seed() int64 { return s.seed }

// RunID returns the database run identifier, or "" without a database.
func (s *Simulation) RunID() string { return s.runID }

// NumAnimals returns the total number of animals on the island.
func (s *Simulation) NumAnimals() int { return s.island.Counts().Total() }

// NumAnimalsPerSpecies returns the population keyed by species tag.
func (s *Simulation) NumAnimalsPerSpecies() map[string]int {
	counts := s.island.Counts()
	out := make(map[string]int, len(animal.Kinds))
	for _, k := range animal.Kinds {
		out[k.String()] = counts[k]
	}
	return out
}

// Counts returns the population per kind.
func (s *Simulation) Counts() animal.Counts { return s.island.Counts() }

// Traits returns fitness, age and weight of every animal of a kind.
func (s *Simulation) Traits(kind animal.Kind) island.Traits { return s.island.Traits(kind) }

// Occupancy returns the per-cell animal count of a kind, row-major.
func (s *Simulation) Occupancy(kind animal.Kind) [][]int { return s.island.Occupancy(kind) }

// Map returns the island map.
func (s *Simulation) Map() string { return s.island.Map() }

// Histogram bins one trait of one species using the configured binning.
func (s *Simulation) Histogram(kind animal.Kind, trait string) (telemetry.Histogram, error) {
	spec, ok := s.cfg.Output.Histograms[trait]
	if !ok {
		return telemetry.Histogram{}, fmt.Errorf("%w: no histogram configured for %q", simerr.ErrConfiguration, trait)
	}
	values, err := traitValues(s.island.Traits(kind), trait)
	if err != nil {
		return telemetry.Histogram{}, err
	}
	return telemetry.NewHistogram(values, spec), nil
}

func traitValues(t island.Traits, trait string) ([]float64, error) {
	switch trait {
	case "fitness":
		return t.Fitness, nil
	case "age":
		return t.Age, nil
	case "weight":
		return t.Weight, nil
	}
	return nil, fmt.Errorf("%w: unknown trait %q (accepted: %v)", simerr.ErrConfiguration, trait, config.HistogramTraits)
}

// History returns every census window flushed so far.
func (s *Simulation) History() []telemetry.YearStats { return slices.Clone(s.history) }

// Snapshot captures the current state, enough to resume the run exactly.
func (s *Simulation) Snapshot() (*telemetry.Snapshot, error) {
	state, err := s.rng.State()
	if err != nil {
		return nil, err
	}
	return telemetry.CaptureSnapshot(s.island, s.seed, state, s.year), nil
}

// Close writes the population chart and closes every sink. It is safe to
// call more than once.
func (s *Simulation) Close() error {
	var errs []error

	if s.output != nil && s.cfg.Output.Plot && len(s.history) >= 2 {
		if err := s.writeChart(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.movie != nil {
		errs = append(errs, s.movie.Close())
		s.movie = nil
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
		s.db = nil
	}
	if s.output != nil {
		errs = append(errs, s.output.Close())
		s.output = nil
	}
	return errors.Join(errs...)
}

func (s *Simulation) writeChart() error {
	f, err := s.output.Create("population.png")
	if err != nil {
		return err
	}
	err = report.WritePopulationChart(f, s.history)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// snapshotDir is where bookmark snapshots are saved.
func (s *Simulation) snapshotDir() string {
	return filepath.Join(s.output.Dir(), "snapshots")
}
