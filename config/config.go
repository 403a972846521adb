// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every error Load reports for out-of-range values.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`

	// Animals holds per-species parameter overrides, keyed by species tag
	// and then by parameter name (e.g. animals.Herbivore.F).
	Animals map[string]map[string]float64 `yaml:"animals"`
	// Landscapes holds per-terrain overrides keyed by map code (e.g. landscapes.L.f_max).
	Landscapes map[string]map[string]float64 `yaml:"landscapes"`

	Population []Placement          `yaml:"population"`
	Schedule   []ScheduledPlacement `yaml:"schedule"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
	Bookmarks BookmarksConfig `yaml:"bookmarks"`
	Output    OutputConfig    `yaml:"output"`
}

// SimulationConfig holds the run itself: seed, length and geography.
type SimulationConfig struct {
	Seed  int64  `yaml:"seed"`
	Years int    `yaml:"years"`
	Map   string `yaml:"map"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // years aggregated per census row
	BookmarkHistorySize int `yaml:"bookmark_history_size"`
	PerfCollectorWindow int `yaml:"perf_collector_window"` // years per perf row
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	PredatorRecovery PredatorRecoveryConfig `yaml:"predator_recovery"`
	PreyCrash        PreyCrashConfig        `yaml:"prey_crash"`
	StableEcosystem  StableEcosystemConfig  `yaml:"stable_ecosystem"`
}

// PredatorRecoveryConfig holds predator recovery detection parameters.
type PredatorRecoveryConfig struct {
	MinPopulation      int `yaml:"min_population"`
	RecoveryMultiplier int `yaml:"recovery_multiplier"`
	MinFinal           int `yaml:"min_final"`
}

// PreyCrashConfig holds prey crash detection parameters.
type PreyCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// StableEcosystemConfig holds stable ecosystem detection parameters.
type StableEcosystemConfig struct {
	MinPrey       int     `yaml:"min_prey"`
	MinPred       int     `yaml:"min_pred"`
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// OutputConfig controls which artefacts a run writes.
type OutputConfig struct {
	Dir        string                   `yaml:"dir"`      // empty disables all file output
	Database   string                   `yaml:"database"` // sqlite file inside Dir, empty disables
	Plot       bool                     `yaml:"plot"`
	Movie      MovieConfig              `yaml:"movie"`
	Histograms map[string]HistogramSpec `yaml:"histograms"`
}

// MovieConfig controls the per-year density movie.
type MovieConfig struct {
	Enabled bool           `yaml:"enabled"`
	FPS     int            `yaml:"fps"`
	Scale   int            `yaml:"scale"` // pixels per cell
	CMax    map[string]int `yaml:"cmax"`  // colour scale ceiling per species
}

// HistogramSpec fixes the binning of one trait histogram.
type HistogramSpec struct {
	Max   float64 `yaml:"max"`
	Delta float64 `yaml:"delta"`
}

// HistogramTraits lists the traits that may carry a histogram spec.
var HistogramTraits = []string{"fitness", "age", "weight"}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns the embedded default configuration.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are broken: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. A file that sets
// simulation.map, population or schedule replaces the default population
// and schedule as a whole.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		var keys scenarioKeys
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
		// The default population and schedule belong to the default map.
		if keys.setsScenario() {
			cfg.Population = nil
			cfg.Schedule = nil
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// scenarioKeys records which scenario keys a config file sets.
type scenarioKeys struct {
	Simulation struct {
		Map yaml.Node `yaml:"map"`
	} `yaml:"simulation"`
	Population yaml.Node `yaml:"population"`
	Schedule   yaml.Node `yaml:"schedule"`
}

func (k scenarioKeys) setsScenario() bool {
	return k.Simulation.Map.Kind != 0 || k.Population.Kind != 0 || k.Schedule.Kind != 0
}

// Validate checks the structural settings. Ecological parameters are
// checked when they are applied to the island.
func (c *Config) Validate() error {
	if c.Simulation.Years < 0 {
		return fmt.Errorf("%w: simulation.years must be non-negative, got %d", ErrInvalid, c.Simulation.Years)
	}
	if c.Telemetry.StatsWindow < 1 {
		return fmt.Errorf("%w: telemetry.stats_window must be at least 1, got %d", ErrInvalid, c.Telemetry.StatsWindow)
	}
	if c.Telemetry.PerfCollectorWindow < 1 {
		return fmt.Errorf("%w: telemetry.perf_collector_window must be at least 1, got %d", ErrInvalid, c.Telemetry.PerfCollectorWindow)
	}
	for name, h := range c.Output.Histograms {
		if !slices.Contains(HistogramTraits, name) {
			return fmt.Errorf("%w: output.histograms: unknown trait %q (want one of %v)", ErrInvalid, name, HistogramTraits)
		}
		if !(h.Delta > 0) || !(h.Max > 0) {
			return fmt.Errorf("%w: output.histograms.%s: max and delta must be positive", ErrInvalid, name)
		}
	}
	if c.Output.Movie.Enabled && (c.Output.Movie.FPS < 1 || c.Output.Movie.Scale < 1) {
		return fmt.Errorf("%w: output.movie: fps and scale must be at least 1", ErrInvalid)
	}
	for _, s := range c.Schedule {
		if s.Year < 0 {
			return fmt.Errorf("%w: schedule: year must be non-negative, got %d", ErrInvalid, s.Year)
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
