package landscape

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/rng"
	"github.com/pthm-cable/biosim/simerr"
)

// Cell is one habitat square: its terrain, the fodder left this year and
// the resident herbivores and carnivores.
type Cell struct {
	terrain   *Terrain
	fodder    float64
	residents [len(animal.Kinds)][]*animal.Animal
}

// FeedingResult summarises one feeding pass.
type FeedingResult struct {
	Grazed float64 // fodder consumed by herbivores
	Kills  int     // herbivores taken by carnivores
}

// NewCell creates an empty cell on the given terrain.
func NewCell(t *Terrain) *Cell {
	return &Cell{terrain: t}
}

// Terrain returns the cell's terrain.
func (c *Cell) Terrain() *Terrain { return c.terrain }

// Habitable reports whether animals may live in the cell.
func (c *Cell) Habitable() bool { return c.terrain.Habitable() }

// Fodder returns the fodder currently available.
func (c *Cell) Fodder() float64 { return c.fodder }

// Count returns the number of residents of a species.
func (c *Cell) Count(kind animal.Kind) int { return len(c.residents[kind]) }

// Counts returns resident counts for every species.
func (c *Cell) Counts() animal.Counts {
	var n animal.Counts
	for _, k := range animal.Kinds {
		n[k] = len(c.residents[k])
	}
	return n
}

// Residents returns a copy of the residents of a species.
func (c *Cell) Residents(kind animal.Kind) []*animal.Animal {
	return slices.Clone(c.residents[kind])
}

// Add places an animal in the cell.
func (c *Cell) Add(a *animal.Animal) error {
	if !c.Habitable() {
		return fmt.Errorf("%w: animals cannot live on %s", simerr.ErrValidation, c.terrain.Name)
	}
	c.residents[a.Kind()] = append(c.residents[a.Kind()], a)
	return nil
}

// Remove takes an animal out of the cell, reporting whether it was present.
func (c *Cell) Remove(a *animal.Animal) bool {
	list := c.residents[a.Kind()]
	i := slices.Index(list, a)
	if i < 0 {
		return false
	}
	c.residents[a.Kind()] = slices.Delete(list, i, i+1)
	return true
}

// RegrowFodder resets fodder to the terrain capacity.
func (c *Cell) RegrowFodder() {
	if !c.Habitable() {
		c.fodder = 0
		return
	}
	c.fodder = c.terrain.Capacity
}

// RunFeeding lets herbivores graze fittest first, then lets carnivores hunt
// in random order. Each carnivore sees only herbivores still alive, weakest
// first.
func (c *Cell) RunFeeding(r *rng.RNG) FeedingResult {
	var res FeedingResult
	if !c.Habitable() {
		return res
	}

	herbs := c.residents[animal.KindHerbivore]
	slices.SortStableFunc(herbs, func(a, b *animal.Animal) int {
		return cmp.Compare(b.Fitness(), a.Fitness())
	})
	for _, h := range herbs {
		if c.fodder <= 0 {
			break
		}
		eaten := h.Graze(c.fodder)
		c.fodder -= eaten
		res.Grazed += eaten
	}
	if c.fodder < 0 {
		panic(fmt.Sprintf("landscape: negative fodder %v after grazing", c.fodder))
	}

	slices.SortStableFunc(herbs, func(a, b *animal.Animal) int {
		return cmp.Compare(a.Fitness(), b.Fitness())
	})
	carns := c.residents[animal.KindCarnivore]
	r.Shuffle(len(carns), func(i, j int) { carns[i], carns[j] = carns[j], carns[i] })

	for _, carn := range carns {
		if len(herbs) == 0 {
			break
		}
		killed := carn.Hunt(herbs, r)
		if len(killed) == 0 {
			continue
		}
		res.Kills += len(killed)
		herbs = slices.DeleteFunc(herbs, func(h *animal.Animal) bool {
			return slices.Contains(killed, h)
		})
	}
	c.residents[animal.KindHerbivore] = herbs
	return res
}

// RunProcreation gives every resident one birth attempt. The same-species
// count is taken before the pass and newborns join only after it.
func (c *Cell) RunProcreation(r *rng.RNG) animal.Counts {
	var births animal.Counts
	if !c.Habitable() {
		return births
	}
	for _, k := range animal.Kinds {
		parents := c.residents[k]
		n := len(parents)
		var newborns []*animal.Animal
		for _, a := range parents {
			if child := a.Procreate(n, r); child != nil {
				newborns = append(newborns, child)
			}
		}
		c.residents[k] = append(parents, newborns...)
		births[k] = len(newborns)
	}
	return births
}

// RunAging ages every resident by one year.
func (c *Cell) RunAging() {
	for _, k := range animal.Kinds {
		for _, a := range c.residents[k] {
			a.AgeOneYear()
		}
	}
}

// RunDeaths removes residents that die this year.
func (c *Cell) RunDeaths(r *rng.RNG) animal.Counts {
	var deaths animal.Counts
	if !c.Habitable() {
		return deaths
	}
	for _, k := range animal.Kinds {
		before := len(c.residents[k])
		c.residents[k] = slices.DeleteFunc(c.residents[k], func(a *animal.Animal) bool {
			return a.Dies(r)
		})
		deaths[k] = before - len(c.residents[k])
	}
	return deaths
}

// ExtractMigrants returns, without removing them, the residents of each
// species that want to move this year. The island performs the move.
func (c *Cell) ExtractMigrants(r *rng.RNG) [len(animal.Kinds)][]*animal.Animal {
	var out [len(animal.Kinds)][]*animal.Animal
	for _, k := range animal.Kinds {
		for _, a := range c.residents[k] {
			if !a.Migrated() && a.WantsToMigrate(r) {
				out[k] = append(out[k], a)
			}
		}
	}
	return out
}

// ResetMigrationFlags clears the migrated flag of every resident.
func (c *Cell) ResetMigrationFlags() {
	for _, k := range animal.Kinds {
		for _, a := range c.residents[k] {
			a.SetMigrated(false)
		}
	}
}

// RefreshFitness recomputes cached fitness for residents of a species.
func (c *Cell) RefreshFitness(kind animal.Kind) {
	for _, a := range c.residents[kind] {
		a.Refresh()
	}
}
