// Package animal models individual herbivores and carnivores: their
// species parameters, fitness, and the yearly lifecycle operations.
package animal

import (
	"fmt"

	"github.com/pthm-cable/biosim/simerr"
)

// Kind identifies an animal species.
type Kind uint8

const (
	KindHerbivore Kind = iota // prey, grazes fodder
	KindCarnivore             // predator, hunts herbivores
)

// Kinds lists every species in traversal order.
var Kinds = [...]Kind{KindHerbivore, KindCarnivore}

// String returns the species tag used in population specifications.
func (k Kind) String() string {
	switch k {
	case KindHerbivore:
		return "Herbivore"
	case KindCarnivore:
		return "Carnivore"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind maps a species tag to a Kind.
func ParseKind(tag string) (Kind, error) {
	switch tag {
	case "Herbivore":
		return KindHerbivore, nil
	case "Carnivore":
		return KindCarnivore, nil
	}
	return 0, fmt.Errorf("%w: %q (accepted: Herbivore, Carnivore)", simerr.ErrUnknownSpecies, tag)
}

// Counts tallies a quantity per species, indexed by Kind.
type Counts [len(Kinds)]int

// Total returns the sum over all species.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Add returns the element-wise sum.
func (c Counts) Add(o Counts) Counts {
	for i := range c {
		c[i] += o[i]
	}
	return c
}
