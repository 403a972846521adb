package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Loc is a 1-indexed (row, column) grid coordinate. In YAML it is written
// as a two-element sequence: [row, col].
type Loc struct {
	Row, Col int
}

// UnmarshalYAML decodes a [row, col] sequence.
func (l *Loc) UnmarshalYAML(value *yaml.Node) error {
	var pair []int
	if err := value.Decode(&pair); err != nil {
		return fmt.Errorf("loc: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("loc: want [row, col], got %d values", len(pair))
	}
	l.Row, l.Col = pair[0], pair[1]
	return nil
}

// MarshalYAML encodes the location as [row, col].
func (l Loc) MarshalYAML() (interface{}, error) {
	return []int{l.Row, l.Col}, nil
}

// String returns "(row, col)".
func (l Loc) String() string {
	return fmt.Sprintf("(%d, %d)", l.Row, l.Col)
}

// AnimalSpec describes one animal, or Count identical animals, to place.
type AnimalSpec struct {
	Species string   `yaml:"species"`
	Age     int      `yaml:"age"`
	Weight  *float64 `yaml:"weight,omitempty"` // nil draws a birth weight
	Count   int      `yaml:"count,omitempty"`  // 0 means 1
}

// N returns the number of animals the spec expands to.
func (s AnimalSpec) N() int {
	if s.Count <= 0 {
		return 1
	}
	return s.Count
}

// Placement puts a list of animals at one location.
type Placement struct {
	Loc Loc          `yaml:"loc"`
	Pop []AnimalSpec `yaml:"pop"`
}

// ScheduledPlacement is a placement applied at the start of a given year.
type ScheduledPlacement struct {
	Year       int         `yaml:"year"`
	Population []Placement `yaml:"population"`
}

// Weight is a helper for building AnimalSpec literals.
func Weight(w float64) *float64 { return &w }
