// Package rng provides the single seeded random stream the simulation draws from.
package rng

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// RNG wraps a PCG source so every consumer shares one deterministic stream.
// It is not safe for concurrent use.
type RNG struct {
	src *rand.PCG
	r   *rand.Rand
}

// New creates a deterministic RNG using the provided seed.
func New(seed int64) *RNG {
	src := rand.NewPCG(uint64(seed), 0)
	return &RNG{src: src, r: rand.New(src)}
}

// Float64 returns a uniform value in [0, 1).
func (g *RNG) Float64() float64 {
	return g.r.Float64()
}

// IntN returns a uniform int in [0, n).
func (g *RNG) IntN(n int) int {
	return g.r.IntN(n)
}

// Shuffle permutes n elements using swap.
func (g *RNG) Shuffle(n int, swap func(i, j int)) {
	g.r.Shuffle(n, swap)
}

// Normal draws from N(mu, sigma²).
func (g *RNG) Normal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: g.src}.Rand()
}

// Source exposes the underlying source for gonum distributions.
func (g *RNG) Source() rand.Source { return g.src }

// State returns the serialized generator state.
func (g *RNG) State() ([]byte, error) {
	return g.src.MarshalBinary()
}

// Restore resets the generator to a state returned by State.
func (g *RNG) Restore(state []byte) error {
	if err := g.src.UnmarshalBinary(state); err != nil {
		return fmt.Errorf("restoring rng state: %w", err)
	}
	return nil
}
