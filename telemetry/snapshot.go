package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/island"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete island state at the end of a year, enough to
// resume the run exactly.
type Snapshot struct {
	Version  int    `json:"version"`
	Seed     int64  `json:"seed"`
	RNGState []byte `json:"rng_state"`
	Year     int    `json:"year"`
	Map      string `json:"map"`

	Species    map[string]map[string]float64 `json:"species"`
	Capacities map[string]float64            `json:"capacities"`

	Animals []AnimalState `json:"animals"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AnimalState holds one animal's complete state.
type AnimalState struct {
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	Species string  `json:"species"`
	Age     int     `json:"age"`
	Weight  float64 `json:"weight"`
}

// CaptureSnapshot records the island's current state. Animals are listed
// cell by cell in row-major order, in each cell's resident order.
func CaptureSnapshot(is *island.Island, seed int64, rngState []byte, year int) *Snapshot {
	s := &Snapshot{
		Version:    SnapshotVersion,
		Seed:       seed,
		RNGState:   rngState,
		Year:       year,
		Map:        is.Map(),
		Species:    make(map[string]map[string]float64, len(animal.Kinds)),
		Capacities: is.Capacities(),
	}
	for _, k := range animal.Kinds {
		params := is.Species(k).Params
		values := make(map[string]float64)
		for _, name := range animal.Names(k) {
			v, _ := params.Get(k, name)
			values[name] = v
		}
		s.Species[k.String()] = values
	}
	for _, c := range is.HabitableCells() {
		cell, _ := is.Cell(c)
		for _, k := range animal.Kinds {
			for _, a := range cell.Residents(k) {
				s.Animals = append(s.Animals, AnimalState{
					Row:     c.Row,
					Col:     c.Col,
					Species: k.String(),
					Age:     a.Age(),
					Weight:  a.Weight(),
				})
			}
		}
	}
	return s
}

// Placements converts the recorded animals back into population entries.
func (s *Snapshot) Placements() []config.Placement {
	var out []config.Placement
	for _, a := range s.Animals {
		loc := config.Loc{Row: a.Row, Col: a.Col}
		spec := config.AnimalSpec{Species: a.Species, Age: a.Age, Weight: config.Weight(a.Weight)}
		if n := len(out); n > 0 && out[n-1].Loc == loc {
			out[n-1].Pop = append(out[n-1].Pop, spec)
			continue
		}
		out = append(out, config.Placement{Loc: loc, Pop: []config.AnimalSpec{spec}})
	}
	return out
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Year)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Year, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
