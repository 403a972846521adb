package animal

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/pthm-cable/biosim/simerr"
)

// Params holds the constants governing one species' biological formulas.
// Field tags carry the conventional parameter names accepted by updates.
type Params struct {
	BirthWeight float64 `yaml:"w_birth"`     // mean birth weight
	BirthSigma  float64 `yaml:"sigma_birth"` // birth weight std-deviation
	Beta        float64 `yaml:"beta"`        // conversion efficiency of food into weight
	Eta         float64 `yaml:"eta"`         // yearly metabolic weight loss fraction, in [0,1]
	AgeHalf     float64 `yaml:"a_half"`
	PhiAge      float64 `yaml:"phi_age"`
	WeightHalf  float64 `yaml:"w_half"`
	PhiWeight   float64 `yaml:"phi_weight"`
	Mu          float64 `yaml:"mu"`    // migration probability scale
	Gamma       float64 `yaml:"gamma"` // birth probability scale
	Zeta        float64 `yaml:"zeta"`  // procreation weight threshold factor
	Xi          float64 `yaml:"xi"`    // weight lost per unit of offspring weight
	Omega       float64 `yaml:"omega"` // death probability scale
	F           float64 `yaml:"F"`     // appetite
	DeltaPhiMax float64 `yaml:"DeltaPhiMax,omitempty"`
}

// DefaultParams returns the stock parameter set for a species.
func DefaultParams(kind Kind) Params {
	if kind == KindCarnivore {
		return Params{
			BirthWeight: 6.0,
			BirthSigma:  1.0,
			Beta:        0.75,
			Eta:         0.125,
			AgeHalf:     40.0,
			PhiAge:      0.3,
			WeightHalf:  4.0,
			PhiWeight:   0.4,
			Mu:          0.4,
			Gamma:       0.8,
			Zeta:        3.5,
			Xi:          1.1,
			Omega:       0.8,
			F:           50.0,
			DeltaPhiMax: 10.0,
		}
	}
	return Params{
		BirthWeight: 8.0,
		BirthSigma:  1.5,
		Beta:        0.9,
		Eta:         0.05,
		AgeHalf:     40.0,
		PhiAge:      0.6,
		WeightHalf:  10.0,
		PhiWeight:   0.1,
		Mu:          0.25,
		Gamma:       0.2,
		Zeta:        3.5,
		Xi:          1.2,
		Omega:       0.4,
		F:           10.0,
	}
}

var herbivoreNames = []string{
	"w_birth", "sigma_birth", "beta", "eta", "a_half", "phi_age", "w_half",
	"phi_weight", "mu", "gamma", "zeta", "xi", "omega", "F",
}

var carnivoreNames = append(slices.Clone(herbivoreNames), "DeltaPhiMax")

// Names returns the parameter names a species accepts.
func Names(kind Kind) []string {
	if kind == KindCarnivore {
		return slices.Clone(carnivoreNames)
	}
	return slices.Clone(herbivoreNames)
}

func (p *Params) field(kind Kind, name string) *float64 {
	switch name {
	case "w_birth":
		return &p.BirthWeight
	case "sigma_birth":
		return &p.BirthSigma
	case "beta":
		return &p.Beta
	case "eta":
		return &p.Eta
	case "a_half":
		return &p.AgeHalf
	case "phi_age":
		return &p.PhiAge
	case "w_half":
		return &p.WeightHalf
	case "phi_weight":
		return &p.PhiWeight
	case "mu":
		return &p.Mu
	case "gamma":
		return &p.Gamma
	case "zeta":
		return &p.Zeta
	case "xi":
		return &p.Xi
	case "omega":
		return &p.Omega
	case "F":
		return &p.F
	case "DeltaPhiMax":
		if kind == KindCarnivore {
			return &p.DeltaPhiMax
		}
	}
	return nil
}

// Get returns the named parameter.
func (p Params) Get(kind Kind, name string) (float64, error) {
	ptr := p.field(kind, name)
	if ptr == nil {
		return 0, unknownParam(kind, name)
	}
	return *ptr, nil
}

// With returns a copy of p with the update applied. The update is
// all-or-nothing: on error p is returned unchanged.
func (p Params) With(kind Kind, update map[string]float64) (Params, error) {
	next := p
	names := make([]string, 0, len(update))
	for name := range update {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		ptr := next.field(kind, name)
		if ptr == nil {
			return p, unknownParam(kind, name)
		}
		v := update[name]
		if err := checkValue(kind, name, v); err != nil {
			return p, err
		}
		*ptr = v
	}
	return next, nil
}

// Validate checks every parameter of the set against its domain.
func (p Params) Validate(kind Kind) error {
	for _, name := range Names(kind) {
		if err := checkValue(kind, name, *p.field(kind, name)); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(kind Kind, name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s parameter %s must be finite, got %v", simerr.ErrValidation, kind, name, v)
	}
	if name == "eta" {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s parameter eta must be in [0,1], got %v", simerr.ErrValidation, kind, v)
		}
		return nil
	}
	if v <= 0 {
		return fmt.Errorf("%w: %s parameter %s must be strictly positive, got %v", simerr.ErrValidation, kind, name, v)
	}
	return nil
}

func unknownParam(kind Kind, name string) error {
	if hint := suggest(name, Names(kind)); hint != "" {
		return fmt.Errorf("%w: %s has no parameter %q (did you mean %q?)", simerr.ErrConfiguration, kind, name, hint)
	}
	return fmt.Errorf("%w: %s has no parameter %q", simerr.ErrConfiguration, kind, name)
}

// suggest returns the closest candidate within an edit budget scaled by
// the candidate's length, or "" when nothing is close enough.
func suggest(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		dist := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(c))
		if dist > suggestLimit(len(c)) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// Species couples a Kind with its current parameter set. Every animal of
// the species holds a pointer to the same Species, so an update applies to
// present and future individuals alike.
type Species struct {
	Kind   Kind
	Params Params
}

// NewSpecies returns a Species with default parameters.
func NewSpecies(kind Kind) *Species {
	return &Species{Kind: kind, Params: DefaultParams(kind)}
}

// Update validates and applies a partial parameter update.
func (s *Species) Update(update map[string]float64) error {
	next, err := s.Params.With(s.Kind, update)
	if err != nil {
		return err
	}
	s.Params = next
	return nil
}
