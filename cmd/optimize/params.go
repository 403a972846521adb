package main

import (
	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/config"
)

// ParamSpec defines a single optimizable species parameter.
type ParamSpec struct {
	Species string  // species tag, e.g. "Herbivore"
	Param   string  // parameter name, e.g. "gamma"
	Min     float64 // Lower bound
	Max     float64 // Upper bound
}

// Name returns the column name used in the evaluation log.
func (s ParamSpec) Name() string {
	return s.Species + "." + s.Param
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Fitness-curve shapes and birth weights stay fixed; the search covers
// the rates that set the balance between the two species.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Herbivore
			{Species: "Herbivore", Param: "beta", Min: 0.5, Max: 1.0},
			{Species: "Herbivore", Param: "gamma", Min: 0.05, Max: 0.6},
			{Species: "Herbivore", Param: "omega", Min: 0.1, Max: 0.8},
			{Species: "Herbivore", Param: "F", Min: 5, Max: 20},
			{Species: "Herbivore", Param: "mu", Min: 0.05, Max: 0.8},
			// Carnivore
			{Species: "Carnivore", Param: "beta", Min: 0.4, Max: 1.0},
			{Species: "Carnivore", Param: "gamma", Min: 0.2, Max: 1.2},
			{Species: "Carnivore", Param: "omega", Min: 0.3, Max: 1.2},
			{Species: "Carnivore", Param: "F", Min: 20, Max: 80},
			{Species: "Carnivore", Param: "mu", Min: 0.05, Max: 0.8},
			{Species: "Carnivore", Param: "DeltaPhiMax", Min: 2, Max: 20},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting values: the config override when
// present, otherwise the stock species parameter.
func (pv *ParamVector) DefaultVector(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		if val, ok := cfg.Animals[spec.Species][spec.Param]; ok {
			v[i] = val
			continue
		}
		kind, err := animal.ParseKind(spec.Species)
		if err != nil {
			panic(err)
		}
		val, err := animal.DefaultParams(kind).Get(kind, spec.Param)
		if err != nil {
			panic(err)
		}
		v[i] = val
	}
	return pv.Clamp(v)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.Animals.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	if cfg.Animals == nil {
		cfg.Animals = make(map[string]map[string]float64)
	}
	for i, spec := range pv.Specs {
		if cfg.Animals[spec.Species] == nil {
			cfg.Animals[spec.Species] = make(map[string]float64)
		}
		cfg.Animals[spec.Species][spec.Param] = clamped[i]
	}
}
