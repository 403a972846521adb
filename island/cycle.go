package island

import (
	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/landscape"
	"github.com/pthm-cable/biosim/rng"
)

// Phase names reported to a PhaseTimer.
const (
	PhaseFeeding     = "feeding"
	PhaseProcreation = "procreation"
	PhaseMigration   = "migration"
	PhaseAging       = "aging"
	PhaseDeath       = "death"
)

// PhaseTimer is notified when the cycle enters a phase. A phase may be
// entered several times in one year.
type PhaseTimer interface {
	StartPhase(name string)
}

type noTimer struct{}

func (noTimer) StartPhase(string) {}

// Report summarises one simulated year.
type Report struct {
	Births            animal.Counts
	Deaths            animal.Counts
	Migrations        animal.Counts
	BlockedMigrations animal.Counts
	Kills             int
	Grazed            float64
}

// north, south, west, east
var directions = [4]Coord{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}}

// Step advances the island by one year.
//
// The cycle runs phase by phase across the whole island, not cell by cell:
// every habitable cell, in row-major order, regrows fodder, feeds and
// procreates before any cell sends out migrants. Migration then runs over
// the cells in the same order; animals that already moved this year stay
// put. Only after all moves does every cell age and cull its residents, so
// a migrant ages and faces death once, in its new cell. Migration flags are
// cleared last.
func (is *Island) Step(r *rng.RNG, timer PhaseTimer) Report {
	if timer == nil {
		timer = noTimer{}
	}
	var rep Report

	for _, c := range is.habitable {
		cell := is.cells[c]
		timer.StartPhase(PhaseFeeding)
		cell.RegrowFodder()
		fed := cell.RunFeeding(r)
		rep.Grazed += fed.Grazed
		rep.Kills += fed.Kills
		timer.StartPhase(PhaseProcreation)
		rep.Births = rep.Births.Add(cell.RunProcreation(r))
	}

	timer.StartPhase(PhaseMigration)
	for _, c := range is.habitable {
		is.emigrate(c, r, &rep)
	}

	timer.StartPhase(PhaseAging)
	for _, c := range is.habitable {
		is.cells[c].RunAging()
	}

	timer.StartPhase(PhaseDeath)
	for _, c := range is.habitable {
		cell := is.cells[c]
		rep.Deaths = rep.Deaths.Add(cell.RunDeaths(r))
		cell.ResetMigrationFlags()
	}
	return rep
}

// emigrate moves the willing residents of one cell to random neighbours.
// A migrant that picks water stays home and may try again next year.
func (is *Island) emigrate(from Coord, r *rng.RNG, rep *Report) {
	src := is.cells[from]
	movers := src.ExtractMigrants(r)
	for _, k := range animal.Kinds {
		for _, a := range movers[k] {
			dest := is.neighbour(from, r)
			if dest == nil || !dest.Habitable() {
				rep.BlockedMigrations[k]++
				continue
			}
			src.Remove(a)
			if err := dest.Add(a); err != nil {
				panic(err) // destination checked habitable above
			}
			a.SetMigrated(true)
			rep.Migrations[k]++
		}
	}
}

func (is *Island) neighbour(c Coord, r *rng.RNG) *landscape.Cell {
	d := directions[r.IntN(len(directions))]
	return is.cells[Coord{Row: c.Row + d.Row, Col: c.Col + d.Col}]
}
