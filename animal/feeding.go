package animal

import (
	"math"

	"github.com/pthm-cable/biosim/rng"
)

// Graze eats from the available fodder and returns the amount consumed.
// Only herbivores graze; carnivores consume nothing.
func (a *Animal) Graze(available float64) float64 {
	if a.Kind() != KindHerbivore || available <= 0 {
		return 0
	}
	p := a.params()
	eaten := math.Min(p.F, available)
	a.weight += p.Beta * eaten
	a.refresh()
	return eaten
}

// KillProbability returns the chance a predator with fitness predator kills
// prey with fitness prey.
func KillProbability(p *Params, predator, prey float64) float64 {
	diff := predator - prey
	switch {
	case diff <= 0:
		return 0
	case diff >= p.DeltaPhiMax:
		return 1
	default:
		return diff / p.DeltaPhiMax
	}
}

// Hunt tries to kill each candidate in order, which callers sort by
// ascending fitness. A kill draw is taken for every candidate visited.
// Hunting stops once the appetite is met; the remainder of the last
// carcass is wasted. Killed prey are returned for removal by the caller.
func (a *Animal) Hunt(candidates []*Animal, r *rng.RNG) []*Animal {
	if a.Kind() != KindCarnivore {
		return nil
	}
	p := a.params()

	var killed []*Animal
	eaten := 0.0
	for _, prey := range candidates {
		prob := KillProbability(p, a.fitness, prey.fitness)
		if r.Float64() >= prob {
			continue
		}
		amount := math.Min(prey.weight, p.F-eaten)
		a.weight += p.Beta * amount
		a.refresh()
		killed = append(killed, prey)
		eaten += amount
		if eaten >= p.F {
			break
		}
	}
	return killed
}
