package main

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/pthm-cable/biosim/config"
)

var testSpecs = []ParamSpec{
	{Species: "Herbivore", Param: "gamma", Min: 0.05, Max: 0.6},
	{Species: "Herbivore", Param: "F", Min: 5, Max: 20},
	{Species: "Carnivore", Param: "DeltaPhiMax", Min: 2, Max: 20},
}

func readLog(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	rows, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestEvalLog(t *testing.T) {
	var buf bytes.Buffer
	l, err := newEvalLog(&buf, testSpecs)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Write(1, Evaluation{Fitness: -120.5, Quality: 0.25, Survived: 100}, []float64{0.2, 10, 8}); err != nil {
		t.Fatal(err)
	}

	rows := readLog(t, &buf)
	want := [][]string{
		{"eval", "fitness", "quality", "survived_years", "Herbivore.gamma", "Herbivore.F", "Carnivore.DeltaPhiMax"},
		{"1", "-120.500000", "0.2500", "100.0", "0.200000", "10.000000", "8.000000"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if !slices.Equal(rows[i], want[i]) {
			t.Errorf("row %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

// bowl scores a vector by its squared distance from a fixed target, so the
// search has a known optimum without running simulations.
func bowl(values []float64) Evaluation {
	target := []float64{0.3, 12, 6}
	d := 0.0
	for i, v := range values {
		d += (v - target[i]) * (v - target[i])
	}
	return Evaluation{Fitness: d, Quality: 1, Survived: 300 - d}
}

func newTestSearch(t *testing.T, buf *bytes.Buffer, maxEvals int) *search {
	t.Helper()
	l, err := newEvalLog(buf, testSpecs)
	if err != nil {
		t.Fatal(err)
	}
	return &search{
		params:   &ParamVector{Specs: testSpecs},
		evaluate: bowl,
		log:      l,
		maxEvals: maxEvals,
		progress: io.Discard,
	}
}

func TestSearch_KeepsBestAndLogsEveryEval(t *testing.T) {
	var buf bytes.Buffer
	s := newTestSearch(t, &buf, 60)
	if err := s.run([]float64{0.5, 18, 15}, 8, 3); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.evals == 0 || s.best == nil {
		t.Fatal("no evaluations recorded")
	}

	rows := readLog(t, &buf)[1:]
	if len(rows) != s.evals {
		t.Fatalf("log has %d rows, search counted %d", len(rows), s.evals)
	}
	lowest := math.Inf(1)
	for _, row := range rows {
		f, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			t.Fatal(err)
		}
		lowest = min(lowest, f)
	}
	if math.Abs(lowest-s.bestEval.Fitness) > 1e-6 {
		t.Errorf("best fitness = %v, lowest logged = %v", s.bestEval.Fitness, lowest)
	}
	for i, spec := range testSpecs {
		if v := s.best[i]; v < spec.Min || v > spec.Max {
			t.Errorf("%s = %v outside [%v, %v]", spec.Name(), v, spec.Min, spec.Max)
		}
	}
}

func TestSearch_SameSeedSameResult(t *testing.T) {
	var a, b bytes.Buffer
	first, second := newTestSearch(t, &a, 30), newTestSearch(t, &b, 30)
	if err := first.run([]float64{0.5, 18, 15}, 6, 11); err != nil {
		t.Fatal(err)
	}
	if err := second.run([]float64{0.5, 18, 15}, 6, 11); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(first.best, second.best) {
		t.Errorf("best vectors differ: %v vs %v", first.best, second.best)
	}
}

func TestDescribe(t *testing.T) {
	var buf bytes.Buffer
	describe(&buf, testSpecs, []float64{0.25, 10, 8})
	want := "  Herbivore: gamma=0.25 F=10\n  Carnivore: DeltaPhiMax=8\n"
	if got := buf.String(); got != want {
		t.Errorf("describe =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteBestConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best_config.yaml")
	pv := &ParamVector{Specs: testSpecs}
	if err := writeBestConfig(path, config.Defaults(), pv, []float64{0.25, 99, 8}); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Animals["Herbivore"]["F"]; got != 20 {
		t.Errorf("Herbivore.F = %v, want clamped 20", got)
	}
	if got := cfg.Animals["Carnivore"]["DeltaPhiMax"]; got != 8 {
		t.Errorf("Carnivore.DeltaPhiMax = %v, want 8", got)
	}
	if !strings.Contains(cfg.Simulation.Map, "W") {
		t.Error("base map lost")
	}
}

func TestEvalSeedsAndPopulation(t *testing.T) {
	if got := evalSeeds(3); !slices.Equal(got, []int64{42, 1042, 2042}) {
		t.Errorf("evalSeeds(3) = %v", got)
	}
	if got := defaultPopulation(NewParamVector().Dim()); got != 20 {
		t.Errorf("defaultPopulation(11) = %d, want 20", got)
	}
}
