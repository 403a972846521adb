package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/rng"
)

// evalLog writes one CSV row per evaluation: the scores followed by the
// clamped value of every searched parameter.
type evalLog struct {
	w     *csv.Writer
	specs []ParamSpec
}

func newEvalLog(w io.Writer, specs []ParamSpec) (*evalLog, error) {
	l := &evalLog{w: csv.NewWriter(w), specs: specs}
	header := []string{"eval", "fitness", "quality", "survived_years"}
	for _, spec := range specs {
		header = append(header, spec.Name())
	}
	if err := l.w.Write(header); err != nil {
		return nil, err
	}
	l.w.Flush()
	return l, l.w.Error()
}

// Write appends one evaluation and flushes it.
func (l *evalLog) Write(n int, e Evaluation, values []float64) error {
	row := []string{
		strconv.Itoa(n),
		strconv.FormatFloat(e.Fitness, 'f', 6, 64),
		strconv.FormatFloat(e.Quality, 'f', 4, 64),
		strconv.FormatFloat(e.Survived, 'f', 1, 64),
	}
	for _, v := range values {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// search runs CMA-ES over the normalized parameter vector and remembers the
// best clamped vector it evaluated.
type search struct {
	params   *ParamVector
	evaluate func(values []float64) Evaluation
	log      *evalLog
	maxEvals int
	progress io.Writer

	evals    int
	best     []float64
	bestEval Evaluation
	start    time.Time
}

// objective evaluates one normalized candidate. Clamped values are the ones
// the simulation actually used, so those are logged and kept.
func (s *search) objective(x []float64) float64 {
	values := s.params.Clamp(s.params.Denormalize(x))
	e := s.evaluate(values)
	s.evals++

	if s.best == nil || e.Fitness < s.bestEval.Fitness {
		s.best, s.bestEval = values, e
	}
	if err := s.log.Write(s.evals, e, values); err != nil {
		slog.Error("failed to write evaluation log", "error", err)
	}

	elapsed := time.Since(s.start)
	remaining := time.Duration(max(s.maxEvals-s.evals, 0)) * (elapsed / time.Duration(s.evals))
	fmt.Fprintf(s.progress, "Eval %d/%d: survived=%.0fy quality=%.2f (best=%.0fy) | elapsed: %s, ETA: %s\n",
		s.evals, s.maxEvals, e.Survived, e.Quality, s.bestEval.Survived,
		formatDuration(elapsed), formatDuration(remaining))

	return e.Fitness
}

// run minimizes from initial, a raw parameter vector. seed fixes the
// sampling of candidates so a search can be repeated.
func (s *search) run(initial []float64, population int, seed int64) error {
	s.start = time.Now()
	problem := optimize.Problem{Func: s.objective}
	// Evaluations are sequential; seeds inside one evaluation run concurrently.
	settings := &optimize.Settings{FuncEvaluations: s.maxEvals}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   population,
		Src:          rng.New(seed).Source(),
	}

	_, err := optimize.Minimize(problem, s.params.Normalize(initial), settings, method)
	return err
}

// defaultPopulation is the usual CMA-ES population size for dim parameters.
func defaultPopulation(dim int) int {
	return 4 + 3*dim/2
}

// evalSeeds returns the simulation seeds every evaluation runs.
func evalSeeds(n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	return seeds
}

// describe prints values grouped by species, one line per species.
func describe(w io.Writer, specs []ParamSpec, values []float64) {
	var species string
	var parts []string
	flush := func() {
		if species != "" {
			fmt.Fprintf(w, "  %s: %s\n", species, strings.Join(parts, " "))
		}
	}
	for i, spec := range specs {
		if spec.Species != species {
			flush()
			species, parts = spec.Species, nil
		}
		parts = append(parts, fmt.Sprintf("%s=%.4g", spec.Param, values[i]))
	}
	flush()
}

// writeBestConfig stores values as species overrides on top of base.
func writeBestConfig(path string, base *config.Config, params *ParamVector, values []float64) error {
	params.ApplyToConfig(base, values)
	return base.WriteYAML(path)
}
