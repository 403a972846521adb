package island

import (
	"slices"
	"strings"

	"github.com/pthm-cable/biosim/animal"
)

// Counts returns the number of animals per species on the whole island.
func (is *Island) Counts() animal.Counts {
	var total animal.Counts
	for _, c := range is.habitable {
		total = total.Add(is.cells[c].Counts())
	}
	return total
}

// Traits holds parallel per-animal samples of one species.
type Traits struct {
	Fitness []float64
	Age     []float64
	Weight  []float64
}

// Len returns the number of sampled animals.
func (t Traits) Len() int { return len(t.Fitness) }

// Traits samples every living animal of a kind, in row-major cell order.
func (is *Island) Traits(kind animal.Kind) Traits {
	var t Traits
	for _, c := range is.habitable {
		for _, a := range is.cells[c].Residents(kind) {
			t.Fitness = append(t.Fitness, a.Fitness())
			t.Age = append(t.Age, float64(a.Age()))
			t.Weight = append(t.Weight, a.Weight())
		}
	}
	return t
}

// Occupancy returns the per-cell count of a kind as a rows x cols matrix.
// Index [i][j] holds the cell at Coord{i+1, j+1}.
func (is *Island) Occupancy(kind animal.Kind) [][]int {
	grid := make([][]int, is.rows)
	for i := range grid {
		grid[i] = make([]int, is.cols)
	}
	for _, c := range is.habitable {
		grid[c.Row-1][c.Col-1] = is.cells[c].Count(kind)
	}
	return grid
}

// Map renders the terrain back into map form.
func (is *Island) Map() string {
	var sb strings.Builder
	for i := 1; i <= is.rows; i++ {
		if i > 1 {
			sb.WriteByte('\n')
		}
		for j := 1; j <= is.cols; j++ {
			sb.WriteByte(is.cells[Coord{Row: i, Col: j}].Terrain().Code)
		}
	}
	return sb.String()
}

// HabitableCells returns the coordinates of every habitable cell in
// row-major order.
func (is *Island) HabitableCells() []Coord {
	return slices.Clone(is.habitable)
}

// Capacities returns the current f_max of each habitable terrain code.
func (is *Island) Capacities() map[string]float64 {
	return is.eco.Terrain.Capacities()
}
