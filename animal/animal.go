package animal

import (
	"fmt"
	"math"

	"github.com/pthm-cable/biosim/rng"
	"github.com/pthm-cable/biosim/simerr"
)

// Animal is one individual. Fitness is cached and recomputed on every
// change to age or weight.
type Animal struct {
	species  *Species
	age      int
	weight   float64
	fitness  float64
	migrated bool
}

// New creates an animal with a known weight.
func New(sp *Species, age int, weight float64) (*Animal, error) {
	if age < 0 {
		return nil, fmt.Errorf("%w: age must be non-negative, got %d", simerr.ErrValidation, age)
	}
	if weight < 0 || math.IsNaN(weight) {
		return nil, fmt.Errorf("%w: weight must be non-negative, got %v", simerr.ErrValidation, weight)
	}
	a := &Animal{species: sp, age: age, weight: weight}
	a.refresh()
	return a, nil
}

// NewWithBirthWeight creates an animal whose weight is drawn from the
// species' birth weight distribution.
func NewWithBirthWeight(sp *Species, age int, r *rng.RNG) (*Animal, error) {
	if age < 0 {
		return nil, fmt.Errorf("%w: age must be non-negative, got %d", simerr.ErrValidation, age)
	}
	return newborn(sp, age, r), nil
}

func newborn(sp *Species, age int, r *rng.RNG) *Animal {
	w := r.Normal(sp.Params.BirthWeight, sp.Params.BirthSigma)
	if w < 0 {
		w = 0
	}
	a := &Animal{species: sp, age: age, weight: w}
	a.refresh()
	return a
}

// Kind returns the animal's species tag.
func (a *Animal) Kind() Kind { return a.species.Kind }

// Age returns the age in years.
func (a *Animal) Age() int { return a.age }

// Weight returns the current weight.
func (a *Animal) Weight() float64 { return a.weight }

// Fitness returns the cached fitness in [0,1].
func (a *Animal) Fitness() float64 { return a.fitness }

// Migrated reports whether the animal has moved this year.
func (a *Animal) Migrated() bool { return a.migrated }

// SetMigrated sets the migrated-this-year flag.
func (a *Animal) SetMigrated(v bool) { a.migrated = v }

func (a *Animal) params() *Params { return &a.species.Params }

// Refresh recomputes the cached fitness; used after a parameter update.
func (a *Animal) Refresh() { a.refresh() }

func (a *Animal) refresh() {
	a.fitness = Fitness(a.params(), a.age, a.weight)
}

// Fitness evaluates the logistic fitness of an animal with the given age
// and weight. It is 0 for non-positive weight.
func Fitness(p *Params, age int, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	qAge := logistic(float64(age), p.AgeHalf, p.PhiAge, 1)
	qWeight := logistic(weight, p.WeightHalf, p.PhiWeight, -1)
	return qAge * qWeight
}

func logistic(x, half, phi, sign float64) float64 {
	return 1 / (1 + math.Exp(sign*phi*(x-half)))
}

// AgeOneYear increments age and applies the yearly metabolic weight loss.
func (a *Animal) AgeOneYear() {
	a.age++
	a.weight -= a.params().Eta * a.weight
	a.refresh()
}

// Procreate attempts a birth given the number of same-species animals in
// the cell, returning the offspring or nil.
//
// The offspring weight is drawn before the parent's affordability check,
// so a birth that fails that check still consumes the draw.
func (a *Animal) Procreate(sameSpecies int, r *rng.RNG) *Animal {
	p := a.params()
	prob := math.Min(1, p.Gamma*a.fitness*float64(sameSpecies-1))
	if a.weight < p.Zeta*(p.BirthWeight+p.BirthSigma) {
		return nil
	}
	if r.Float64() >= prob {
		return nil
	}

	child := newborn(a.species, 0, r)
	cost := p.Xi * child.weight
	if a.weight <= cost {
		return nil
	}
	a.weight -= cost
	a.refresh()
	return child
}

// Dies decides whether the animal dies this year. A weightless animal
// always dies without consuming a draw.
func (a *Animal) Dies(r *rng.RNG) bool {
	if a.weight <= 0 {
		return true
	}
	return r.Float64() < a.params().Omega*(1-a.fitness)
}

// WantsToMigrate draws the migration decision. Animals that already moved
// this year never want to move again and consume no draw.
func (a *Animal) WantsToMigrate(r *rng.RNG) bool {
	if a.migrated {
		return false
	}
	return r.Float64() < a.params().Mu*a.fitness
}

// String implements fmt.Stringer for debugging output.
func (a *Animal) String() string {
	return fmt.Sprintf("%s(age=%d weight=%.2f fitness=%.3f)", a.Kind(), a.age, a.weight, a.fitness)
}
