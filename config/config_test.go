package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Years != 100 {
		t.Errorf("years = %d, want 100", cfg.Simulation.Years)
	}
	if cfg.Simulation.Map == "" {
		t.Error("default map is empty")
	}
	if len(cfg.Population) != 1 || cfg.Population[0].Loc != (Loc{Row: 10, Col: 13}) {
		t.Errorf("unexpected default population %+v", cfg.Population)
	}
	if got := cfg.Population[0].Pop[0].N(); got != 150 {
		t.Errorf("default herbivores = %d, want 150", got)
	}
	if len(cfg.Schedule) != 1 || cfg.Schedule[0].Year != 50 {
		t.Errorf("unexpected default schedule %+v", cfg.Schedule)
	}
	for _, name := range HistogramTraits {
		if _, ok := cfg.Output.Histograms[name]; !ok {
			t.Errorf("missing default histogram for %s", name)
		}
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	path := writeFile(t, `
simulation:
  seed: 7
animals:
  Herbivore:
    F: 20
landscapes:
  L:
    f_max: 500
population:
  - loc: [2, 3]
    pop:
      - species: Carnivore
        age: 3
      - {species: Herbivore, age: 1, weight: 12.5, count: 4}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Seed != 7 {
		t.Errorf("seed = %d, want 7", cfg.Simulation.Seed)
	}
	if cfg.Simulation.Years != 100 {
		t.Errorf("years = %d, want default 100", cfg.Simulation.Years)
	}
	if cfg.Animals["Herbivore"]["F"] != 20 {
		t.Errorf("animals override lost: %v", cfg.Animals)
	}
	if cfg.Landscapes["L"]["f_max"] != 500 {
		t.Errorf("landscape override lost: %v", cfg.Landscapes)
	}

	pop := cfg.Population
	if len(pop) != 1 || pop[0].Loc != (Loc{Row: 2, Col: 3}) || len(pop[0].Pop) != 2 {
		t.Fatalf("population not replaced: %+v", pop)
	}
	if pop[0].Pop[0].Weight != nil {
		t.Error("carnivore without weight should have nil Weight")
	}
	if pop[0].Pop[0].N() != 1 {
		t.Errorf("count default = %d, want 1", pop[0].Pop[0].N())
	}
	if w := pop[0].Pop[1].Weight; w == nil || *w != 12.5 {
		t.Errorf("herbivore weight = %v, want 12.5", w)
	}
}

func TestLoad_ScenarioReplacesDefaults(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantPop      int
		wantSchedule int
	}{
		{"own map only", "simulation:\n  map: |\n    WWW\n    WLW\n    WWW\n", 0, 0},
		{"own map and population", `
simulation:
  map: |
    WWWW
    WLLW
    WWWW
population:
  - loc: [2, 2]
    pop:
      - {species: Herbivore, age: 5, weight: 20, count: 30}
`, 1, 0},
		{"own schedule only", "schedule: [{year: 3, population: [{loc: [10, 13], pop: [{species: Carnivore}]}]}]", 0, 1},
		{"unrelated keys keep the demo", "simulation: {seed: 9}\ntelemetry: {stats_window: 2}", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(cfg.Population) != tt.wantPop {
				t.Errorf("population = %+v, want %d entries", cfg.Population, tt.wantPop)
			}
			if len(cfg.Schedule) != tt.wantSchedule {
				t.Errorf("schedule = %+v, want %d entries", cfg.Schedule, tt.wantSchedule)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative years", "simulation: {years: -1}"},
		{"zero stats window", "telemetry: {stats_window: 0}"},
		{"unknown histogram", "output: {histograms: {height: {max: 1, delta: 0.1}}}"},
		{"zero delta", "output: {histograms: {age: {max: 60, delta: 0}}}"},
		{"movie without fps", "output: {movie: {enabled: true, fps: 0}}"},
		{"negative schedule year", "schedule: [{year: -2, population: []}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoad_BadLoc(t *testing.T) {
	path := writeFile(t, "population: [{loc: [1, 2, 3], pop: []}]")
	if _, err := Load(path); err == nil {
		t.Error("expected error for three-element loc")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Simulation.Seed = 99
	cfg.Population[0].Pop[0].Weight = nil

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Simulation.Seed != 99 {
		t.Errorf("seed = %d, want 99", back.Simulation.Seed)
	}
	if back.Population[0].Loc != cfg.Population[0].Loc {
		t.Errorf("loc = %v, want %v", back.Population[0].Loc, cfg.Population[0].Loc)
	}
	if back.Population[0].Pop[0].Weight != nil {
		t.Error("omitted weight came back set")
	}
}
