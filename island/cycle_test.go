package island

import (
	"slices"
	"testing"

	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/rng"
)

type recordingTimer struct {
	phases []string
}

func (r *recordingTimer) StartPhase(name string) { r.phases = append(r.phases, name) }

func TestStep_PhaseOrder(t *testing.T) {
	is := mustNew(t, smallMap)
	rec := &recordingTimer{}
	is.Step(rng.New(1), rec)

	var distinct []string
	for _, p := range rec.phases {
		if len(distinct) == 0 || distinct[len(distinct)-1] != p {
			distinct = append(distinct, p)
		}
	}
	// six habitable cells alternate feeding and procreation
	var want []string
	for i := 0; i < 6; i++ {
		want = append(want, PhaseFeeding, PhaseProcreation)
	}
	want = append(want, PhaseMigration, PhaseAging, PhaseDeath)
	if !slices.Equal(distinct, want) {
		t.Errorf("phases = %v, want %v", distinct, want)
	}
}

func TestStep_NilTimer(t *testing.T) {
	is := mustNew(t, smallMap)
	is.Step(rng.New(1), nil)
}

func TestStep_SingleCellIslandKeepsEveryone(t *testing.T) {
	is := mustNew(t, "WWW\nWLW\nWWW")
	r := rng.New(11)
	if err := is.AddPopulation([]config.Placement{place(2, 2, herbs(50, 5, 20))}, r); err != nil {
		t.Fatal(err)
	}
	for year := 0; year < 10; year++ {
		rep := is.Step(r, nil)
		if rep.Migrations.Total() != 0 {
			t.Fatalf("year %d: %d migrations off a one-cell island", year, rep.Migrations.Total())
		}
		occ := is.Occupancy(animal.KindHerbivore)
		if occ[1][1] != is.Counts()[animal.KindHerbivore] {
			t.Fatalf("year %d: animals outside the only habitable cell: %v", year, occ)
		}
	}
}

func TestStep_DesertHasNoFodder(t *testing.T) {
	is := mustNew(t, "WWW\nWDW\nWWW")
	r := rng.New(5)
	if err := is.AddPopulation([]config.Placement{place(2, 2, herbs(10, 5, 20))}, r); err != nil {
		t.Fatal(err)
	}
	rep := is.Step(r, nil)
	if rep.Grazed != 0 {
		t.Errorf("grazed %v in a desert", rep.Grazed)
	}
	if rep.Births.Total() != 0 {
		t.Errorf("%d births below the weight threshold", rep.Births.Total())
	}
	for _, w := range is.Traits(animal.KindHerbivore).Weight {
		if w >= 20 {
			t.Errorf("weight %v did not drop without food", w)
		}
	}
}

func TestStep_MigrationMovesOnceAndRespectsWater(t *testing.T) {
	is := mustNew(t, "WWWW\nWLLW\nWWWW")
	// near-certain migration, no births, negligible deaths
	err := is.SetAnimalParameters(animal.KindHerbivore, map[string]float64{
		"mu": 1, "zeta": 1000, "omega": 1e-9,
	})
	if err != nil {
		t.Fatal(err)
	}
	r := rng.New(42)
	if err := is.AddPopulation([]config.Placement{place(2, 2, herbs(100, 0, 100))}, r); err != nil {
		t.Fatal(err)
	}

	rep := is.Step(r, nil)
	moved := rep.Migrations[animal.KindHerbivore]
	blocked := rep.BlockedMigrations[animal.KindHerbivore]
	if moved == 0 || blocked == 0 {
		t.Fatalf("moved=%d blocked=%d, expected both non-zero", moved, blocked)
	}
	if moved+blocked < 90 || moved+blocked > 100 {
		t.Errorf("moved+blocked = %d, want nearly all 100", moved+blocked)
	}

	occ := is.Occupancy(animal.KindHerbivore)
	// arrivals in (2,3) were flagged and did not walk back
	if occ[1][2] != moved {
		t.Errorf("east cell holds %d, want the %d that moved", occ[1][2], moved)
	}
	if occ[1][1]+occ[1][2] != 100 {
		t.Errorf("population changed: %v", occ)
	}

	for _, c := range []Coord{{2, 2}, {2, 3}} {
		cell, _ := is.Cell(c)
		for _, a := range cell.Residents(animal.KindHerbivore) {
			if a.Migrated() {
				t.Fatalf("migration flag survived the year at %v", c)
			}
		}
	}
}

func TestStep_Deterministic(t *testing.T) {
	run := func() (*Island, []Report) {
		is := mustNew(t, smallMap)
		r := rng.New(2024)
		err := is.AddPopulation([]config.Placement{
			place(2, 2, herbs(40, 5, 20)),
			place(3, 4, herbs(20, 3, 15), carns(8, 5, 20)),
		}, r)
		if err != nil {
			t.Fatal(err)
		}
		var reps []Report
		for i := 0; i < 15; i++ {
			reps = append(reps, is.Step(r, nil))
		}
		return is, reps
	}
	a, ra := run()
	b, rb := run()
	if !slices.Equal(ra, rb) {
		t.Fatal("reports differ between identical runs")
	}
	for _, k := range animal.Kinds {
		ta, tb := a.Traits(k), b.Traits(k)
		if !slices.Equal(ta.Weight, tb.Weight) || !slices.Equal(ta.Age, tb.Age) {
			t.Errorf("%v traits differ between identical runs", k)
		}
	}
}

func TestStep_ConservesAnimals(t *testing.T) {
	is := mustNew(t, smallMap)
	r := rng.New(9)
	err := is.AddPopulation([]config.Placement{
		place(2, 2, herbs(50, 5, 25)),
		place(2, 3, carns(10, 5, 25)),
	}, r)
	if err != nil {
		t.Fatal(err)
	}
	for year := 0; year < 20; year++ {
		before := is.Counts()
		rep := is.Step(r, nil)
		after := is.Counts()
		for _, k := range animal.Kinds {
			want := before[k] + rep.Births[k] - rep.Deaths[k]
			if k == animal.KindHerbivore {
				want -= rep.Kills
			}
			if after[k] != want {
				t.Fatalf("year %d %v: count %d, want %d (%+v)", year, k, after[k], want, rep)
			}
		}
	}
}
