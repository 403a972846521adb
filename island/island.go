// Package island owns the grid of habitat cells and runs the annual cycle,
// including migration between neighbouring cells.
package island

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/landscape"
	"github.com/pthm-cable/biosim/rng"
	"github.com/pthm-cable/biosim/simerr"
)

// Coord is a 1-indexed (row, column) grid position.
type Coord struct {
	Row, Col int
}

func (c Coord) String() string { return fmt.Sprintf("(%d, %d)", c.Row, c.Col) }

// Ecology bundles the parameter tables threaded through the island: one
// Species per animal kind and the terrain table.
type Ecology struct {
	Species [len(animal.Kinds)]*animal.Species
	Terrain *landscape.Table
}

// NewEcology returns stock parameters for every species and terrain.
func NewEcology() Ecology {
	var e Ecology
	for _, k := range animal.Kinds {
		e.Species[k] = animal.NewSpecies(k)
	}
	e.Terrain = landscape.NewTable()
	return e
}

// Island is the grid of cells. Its shape is fixed after construction.
type Island struct {
	rows, cols int
	cells      map[Coord]*landscape.Cell
	habitable  []Coord // row-major traversal order
	eco        Ecology
}

// New parses a map specification and builds an empty island.
//
// The map is a block of equal-length lines, one character per cell. Leading
// and trailing blank space on each line is ignored. The outer ring must be
// water.
func New(mapSpec string, eco Ecology) (*Island, error) {
	lines := splitMap(mapSpec)
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty island map", simerr.ErrValidation)
	}

	is := &Island{
		rows:  len(lines),
		cols:  len(lines[0]),
		cells: make(map[Coord]*landscape.Cell, len(lines)*len(lines[0])),
		eco:   eco,
	}
	for i, line := range lines {
		if len(line) != is.cols {
			return nil, fmt.Errorf("%w: map row %d has %d cells, row 1 has %d", simerr.ErrValidation, i+1, len(line), is.cols)
		}
		for j := 0; j < len(line); j++ {
			tr, err := eco.Terrain.Lookup(line[j])
			if err != nil {
				return nil, fmt.Errorf("map row %d column %d: %w", i+1, j+1, err)
			}
			coord := Coord{Row: i + 1, Col: j + 1}
			if is.onBorder(coord) && tr.Habitable() {
				return nil, fmt.Errorf("%w: map edge cell %s is %s, the island must be surrounded by water",
					simerr.ErrValidation, coord, tr.Name)
			}
			is.cells[coord] = landscape.NewCell(tr)
			if tr.Habitable() {
				is.habitable = append(is.habitable, coord)
			}
		}
	}
	return is, nil
}

func splitMap(spec string) []string {
	spec = strings.TrimSpace(strings.ReplaceAll(spec, "\r\n", "\n"))
	if spec == "" {
		return nil
	}
	lines := strings.Split(spec, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}

func (is *Island) onBorder(c Coord) bool {
	return c.Row == 1 || c.Col == 1 || c.Row == is.rows || c.Col == is.cols
}

// Size returns the number of rows and columns.
func (is *Island) Size() (rows, cols int) { return is.rows, is.cols }

// Cell returns the cell at a coordinate.
func (is *Island) Cell(c Coord) (*landscape.Cell, error) {
	cell, ok := is.cells[c]
	if !ok {
		return nil, fmt.Errorf("%w: location %s is outside the %dx%d island", simerr.ErrLookup, c, is.rows, is.cols)
	}
	return cell, nil
}

// Species returns the shared parameter holder for a kind.
func (is *Island) Species(kind animal.Kind) *animal.Species { return is.eco.Species[kind] }

// SetAnimalParameters updates a species' parameters for present and future
// animals, and refreshes the cached fitness of current residents.
func (is *Island) SetAnimalParameters(kind animal.Kind, update map[string]float64) error {
	if err := is.eco.Species[kind].Update(update); err != nil {
		return err
	}
	for _, c := range is.habitable {
		is.cells[c].RefreshFitness(kind)
	}
	return nil
}

// SetLandscapeParameters updates the terrain with the given map code.
func (is *Island) SetLandscapeParameters(code string, update map[string]float64) error {
	return is.eco.Terrain.Update(code, update)
}

type pending struct {
	cell *landscape.Cell
	spec config.AnimalSpec
	kind animal.Kind
}

// ValidatePopulation checks placements without changing the island.
func (is *Island) ValidatePopulation(placements []config.Placement) error {
	_, err := is.resolve(placements)
	return err
}

func (is *Island) resolve(placements []config.Placement) ([]pending, error) {
	var out []pending
	for _, p := range placements {
		coord := Coord(p.Loc)
		cell, err := is.Cell(coord)
		if err != nil {
			return nil, err
		}
		if !cell.Habitable() {
			return nil, fmt.Errorf("%w: location %s is %s, animals cannot be placed there",
				simerr.ErrValidation, coord, cell.Terrain().Name)
		}
		for _, spec := range p.Pop {
			kind, err := animal.ParseKind(spec.Species)
			if err != nil {
				return nil, fmt.Errorf("location %s: %w", coord, err)
			}
			if spec.Age < 0 {
				return nil, fmt.Errorf("%w: location %s: age must be non-negative, got %d", simerr.ErrValidation, coord, spec.Age)
			}
			if spec.Weight != nil && !(*spec.Weight >= 0) {
				return nil, fmt.Errorf("%w: location %s: weight must be non-negative, got %v", simerr.ErrValidation, coord, *spec.Weight)
			}
			out = append(out, pending{cell: cell, spec: spec, kind: kind})
		}
	}
	return out, nil
}

// AddPopulation places animals on the island. Every entry is validated
// before any animal is created, so a failed call leaves the island and the
// random stream untouched. Animals without a weight draw a birth weight.
func (is *Island) AddPopulation(placements []config.Placement, r *rng.RNG) error {
	batch, err := is.resolve(placements)
	if err != nil {
		return err
	}
	for _, p := range batch {
		sp := is.eco.Species[p.kind]
		for i := 0; i < p.spec.N(); i++ {
			var a *animal.Animal
			if p.spec.Weight == nil {
				a, err = animal.NewWithBirthWeight(sp, p.spec.Age, r)
			} else {
				a, err = animal.New(sp, p.spec.Age, *p.spec.Weight)
			}
			if err != nil {
				return err
			}
			if err := p.cell.Add(a); err != nil {
				return err
			}
		}
	}
	return nil
}
