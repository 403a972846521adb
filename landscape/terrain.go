// Package landscape holds terrain types and the per-cell ecological engine.
package landscape

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/pthm-cable/biosim/simerr"
)

// Kind is a terrain variant.
type Kind uint8

const (
	Lowland  Kind = iota // high fodder capacity
	Highland             // low fodder capacity
	Desert               // habitable, no fodder
	Water                // not habitable
)

// Terrain describes one terrain variant. Cells of the same variant share a
// *Terrain, so a capacity update reaches every cell at once.
type Terrain struct {
	Kind     Kind
	Code     byte
	Name     string
	Capacity float64 // f_max: fodder available after regrowth
}

// Habitable reports whether animals may reside on the terrain.
func (t *Terrain) Habitable() bool { return t.Kind != Water }

// Update applies a partial parameter update. Only f_max is recognised.
func (t *Terrain) Update(update map[string]float64) error {
	if !t.Habitable() {
		return fmt.Errorf("%w: %s has no parameters", simerr.ErrConfiguration, t.Name)
	}
	next := t.Capacity
	for _, name := range slices.Sorted(maps.Keys(update)) {
		v := update[name]
		if name != "f_max" {
			return fmt.Errorf("%w: %s has no parameter %q (only f_max)", simerr.ErrConfiguration, t.Name, name)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s f_max must be a non-negative number, got %v", simerr.ErrValidation, t.Name, v)
		}
		next = v
	}
	t.Capacity = next
	return nil
}

// Table maps terrain codes to their shared Terrain values.
type Table struct {
	byCode map[byte]*Terrain
}

// NewTable returns the stock terrain table: L, H, D, W.
func NewTable() *Table {
	terrains := []*Terrain{
		{Kind: Lowland, Code: 'L', Name: "Lowland", Capacity: 800},
		{Kind: Highland, Code: 'H', Name: "Highland", Capacity: 300},
		{Kind: Desert, Code: 'D', Name: "Desert", Capacity: 0},
		{Kind: Water, Code: 'W', Name: "Water", Capacity: 0},
	}
	t := &Table{byCode: make(map[byte]*Terrain, len(terrains))}
	for _, tr := range terrains {
		t.byCode[tr.Code] = tr
	}
	return t
}

// Lookup returns the terrain for a map code.
func (t *Table) Lookup(code byte) (*Terrain, error) {
	tr, ok := t.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: unknown terrain code %q (accepted: %s)", simerr.ErrValidation, code, t.codeList())
	}
	return tr, nil
}

// Update applies a parameter update to the terrain with the given code.
func (t *Table) Update(code string, update map[string]float64) error {
	if len(code) != 1 {
		return fmt.Errorf("%w: terrain code must be one character, got %q", simerr.ErrValidation, code)
	}
	tr, err := t.Lookup(code[0])
	if err != nil {
		return err
	}
	return tr.Update(update)
}

// Water returns the blocked terrain.
func (t *Table) Water() *Terrain { return t.byCode['W'] }

func (t *Table) codeList() string {
	codes := make([]byte, 0, len(t.byCode))
	for c := range t.byCode {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return string(codes)
}

// Capacities returns f_max for every habitable terrain, keyed by map code.
func (t *Table) Capacities() map[string]float64 {
	out := make(map[string]float64, len(t.byCode))
	for code, tr := range t.byCode {
		if tr.Habitable() {
			out[string(code)] = tr.Capacity
		}
	}
	return out
}
