package landscape

import (
	"errors"
	"strings"
	"testing"

	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/rng"
	"github.com/pthm-cable/biosim/simerr"
)

func populate(t *testing.T, c *Cell, sp *animal.Species, n, age int, weight float64) []*animal.Animal {
	t.Helper()
	out := make([]*animal.Animal, 0, n)
	for i := 0; i < n; i++ {
		a, err := animal.New(sp, age, weight)
		if err != nil {
			t.Fatal(err)
		}
		if err := c.Add(a); err != nil {
			t.Fatal(err)
		}
		out = append(out, a)
	}
	return out
}

func TestTableLookup(t *testing.T) {
	tbl := NewTable()
	tests := []struct {
		code      byte
		kind      Kind
		capacity  float64
		habitable bool
	}{
		{'L', Lowland, 800, true},
		{'H', Highland, 300, true},
		{'D', Desert, 0, true},
		{'W', Water, 0, false},
	}
	for _, tt := range tests {
		tr, err := tbl.Lookup(tt.code)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", tt.code, err)
		}
		if tr.Kind != tt.kind || tr.Capacity != tt.capacity || tr.Habitable() != tt.habitable {
			t.Errorf("Lookup(%q) = %+v", tt.code, tr)
		}
	}
	if _, err := tbl.Lookup('R'); !errors.Is(err, simerr.ErrValidation) {
		t.Errorf("Lookup('R') err = %v, want ErrValidation", err)
	}
}

func TestTableUpdate(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Update("H", map[string]float64{"f_max": 250}); err != nil {
		t.Fatal(err)
	}
	h, _ := tbl.Lookup('H')
	if h.Capacity != 250 {
		t.Errorf("Highland capacity = %v, want 250", h.Capacity)
	}
	if err := tbl.Update("H", map[string]float64{"f_max": -1}); !errors.Is(err, simerr.ErrValidation) {
		t.Errorf("negative f_max err = %v, want ErrValidation", err)
	}
	if h.Capacity != 250 {
		t.Error("rejected update changed capacity")
	}
	if err := tbl.Update("L", map[string]float64{"alpha": 1}); !errors.Is(err, simerr.ErrConfiguration) {
		t.Errorf("unknown key err = %v, want ErrConfiguration", err)
	}
	if err := tbl.Update("Q", map[string]float64{"f_max": 1}); !errors.Is(err, simerr.ErrValidation) {
		t.Errorf("unknown code err = %v, want ErrValidation", err)
	}
}

func TestTerrainUpdate_FirstBadKeyInNameOrder(t *testing.T) {
	tbl := NewTable()
	update := map[string]float64{"zeta": 1, "f_max": -1, "alpha": 2, "kappa": 3}
	for i := 0; i < 20; i++ {
		err := tbl.Update("L", update)
		if !errors.Is(err, simerr.ErrConfiguration) || !strings.Contains(err.Error(), `"alpha"`) {
			t.Fatalf("attempt %d: err = %v, want the alpha key reported", i, err)
		}
	}
	l, _ := tbl.Lookup('L')
	if l.Capacity != 800 {
		t.Errorf("rejected update changed capacity to %v", l.Capacity)
	}
}

func TestRegrowFodder(t *testing.T) {
	tbl := NewTable()
	for _, code := range []byte("LHDW") {
		tr, _ := tbl.Lookup(code)
		c := NewCell(tr)
		c.RegrowFodder()
		want := tr.Capacity
		if !tr.Habitable() {
			want = 0
		}
		if c.Fodder() != want {
			t.Errorf("%s fodder = %v, want %v", tr.Name, c.Fodder(), want)
		}
	}
}

func TestWaterRejectsResidents(t *testing.T) {
	c := NewCell(NewTable().Water())
	a, _ := animal.New(animal.NewSpecies(animal.KindHerbivore), 1, 10)
	if err := c.Add(a); !errors.Is(err, simerr.ErrValidation) {
		t.Errorf("Add to water err = %v, want ErrValidation", err)
	}
	if c.Count(animal.KindHerbivore) != 0 {
		t.Error("water cell gained a resident")
	}
}

func TestRunFeeding_FittestGrazesFirst(t *testing.T) {
	tr := &Terrain{Kind: Lowland, Code: 'L', Name: "Lowland", Capacity: 15}
	c := NewCell(tr)
	herb := animal.NewSpecies(animal.KindHerbivore)
	weak := populate(t, c, herb, 1, 5, 5)[0]
	strong := populate(t, c, herb, 1, 5, 40)[0]

	c.RegrowFodder()
	res := c.RunFeeding(rng.New(1))

	p := herb.Params
	if want := 40 + p.Beta*p.F; strong.Weight() != want {
		t.Errorf("strong weight = %v, want %v", strong.Weight(), want)
	}
	if want := 5 + p.Beta*5; weak.Weight() != want {
		t.Errorf("weak weight = %v, want %v", weak.Weight(), want)
	}
	if res.Grazed != 15 || c.Fodder() != 0 {
		t.Errorf("grazed = %v, fodder left = %v; want 15, 0", res.Grazed, c.Fodder())
	}
}

func TestRunFeeding_FodderBounds(t *testing.T) {
	tbl := NewTable()
	herb := animal.NewSpecies(animal.KindHerbivore)
	r := rng.New(3)
	for _, code := range []byte("LHD") {
		tr, _ := tbl.Lookup(code)
		for _, n := range []int{0, 1, 10, 100} {
			c := NewCell(tr)
			populate(t, c, herb, n, 3, 12)
			c.RegrowFodder()
			c.RunFeeding(r)
			if c.Fodder() < 0 || c.Fodder() > tr.Capacity {
				t.Errorf("%s with %d herbivores: fodder %v outside [0, %v]", tr.Name, n, c.Fodder(), tr.Capacity)
			}
		}
	}
}

func TestRunFeeding_PredationExclusive(t *testing.T) {
	tr, _ := NewTable().Lookup('L')
	herb := animal.NewSpecies(animal.KindHerbivore)
	carn := animal.NewSpecies(animal.KindCarnivore)
	carn.Params.DeltaPhiMax = 0.05

	r := rng.New(17)
	for trial := 0; trial < 20; trial++ {
		c := NewCell(tr)
		populate(t, c, herb, 40, 30, 6)
		populate(t, c, carn, 15, 4, 30)

		c.RegrowFodder()
		before := c.Count(animal.KindHerbivore)
		res := c.RunFeeding(r)
		after := c.Count(animal.KindHerbivore)

		if res.Kills != before-after {
			t.Fatalf("trial %d: %d kills reported but %d herbivores removed", trial, res.Kills, before-after)
		}
	}
}

func TestRunFeeding_SurvivorsSortedByAscendingFitness(t *testing.T) {
	tr, _ := NewTable().Lookup('L')
	herb := animal.NewSpecies(animal.KindHerbivore)
	c := NewCell(tr)
	for i := 0; i < 30; i++ {
		populate(t, c, herb, 1, i, float64(5+i))
	}
	c.RegrowFodder()
	c.RunFeeding(rng.New(2))

	list := c.Residents(animal.KindHerbivore)
	for i := 1; i < len(list); i++ {
		if list[i-1].Fitness() > list[i].Fitness() {
			t.Fatal("herbivores not left in ascending fitness order")
		}
	}
}

func TestRunProcreation_NewbornsJoinAfterPass(t *testing.T) {
	tr, _ := NewTable().Lookup('L')
	herb := animal.NewSpecies(animal.KindHerbivore)
	herb.Params.Gamma = 100
	c := NewCell(tr)
	populate(t, c, herb, 10, 5, 60)

	births := c.RunProcreation(rng.New(5))
	if births[animal.KindHerbivore] != 10 {
		t.Errorf("births = %d, want one per parent", births[animal.KindHerbivore])
	}
	if c.Count(animal.KindHerbivore) != 20 {
		t.Errorf("count = %d, want 20", c.Count(animal.KindHerbivore))
	}
	newborns := 0
	for _, a := range c.Residents(animal.KindHerbivore) {
		if a.Age() == 0 {
			newborns++
		}
	}
	if newborns != 10 {
		t.Errorf("newborns = %d, want 10", newborns)
	}
}

func TestRunProcreation_LoneAnimals(t *testing.T) {
	tr, _ := NewTable().Lookup('L')
	c := NewCell(tr)
	populate(t, c, animal.NewSpecies(animal.KindHerbivore), 1, 5, 60)
	populate(t, c, animal.NewSpecies(animal.KindCarnivore), 1, 5, 60)

	if births := c.RunProcreation(rng.New(5)); births.Total() != 0 {
		t.Errorf("births = %v, want none", births)
	}
}

func TestRunDeaths_WeightlessDie(t *testing.T) {
	tr, _ := NewTable().Lookup('D')
	c := NewCell(tr)
	populate(t, c, animal.NewSpecies(animal.KindHerbivore), 7, 5, 0)
	populate(t, c, animal.NewSpecies(animal.KindCarnivore), 3, 5, 0)

	deaths := c.RunDeaths(rng.New(1))
	if deaths[animal.KindHerbivore] != 7 || deaths[animal.KindCarnivore] != 3 {
		t.Errorf("deaths = %v, want [7 3]", deaths)
	}
	if c.Counts().Total() != 0 {
		t.Errorf("survivors = %v", c.Counts())
	}
}

func TestRunAging(t *testing.T) {
	tr, _ := NewTable().Lookup('H')
	c := NewCell(tr)
	herbs := populate(t, c, animal.NewSpecies(animal.KindHerbivore), 3, 2, 10)
	carns := populate(t, c, animal.NewSpecies(animal.KindCarnivore), 2, 7, 10)
	c.RunAging()
	for _, a := range herbs {
		if a.Age() != 3 {
			t.Errorf("herbivore age = %d, want 3", a.Age())
		}
	}
	for _, a := range carns {
		if a.Age() != 8 {
			t.Errorf("carnivore age = %d, want 8", a.Age())
		}
	}
}

func TestExtractMigrants(t *testing.T) {
	tr, _ := NewTable().Lookup('L')
	herb := animal.NewSpecies(animal.KindHerbivore)
	herb.Params.Mu = 1e6
	c := NewCell(tr)
	list := populate(t, c, herb, 6, 5, 30)
	list[0].SetMigrated(true)
	list[3].SetMigrated(true)

	migrants := c.ExtractMigrants(rng.New(9))
	if len(migrants[animal.KindHerbivore]) != 4 {
		t.Fatalf("migrants = %d, want 4", len(migrants[animal.KindHerbivore]))
	}
	for _, m := range migrants[animal.KindHerbivore] {
		if m.Migrated() {
			t.Error("flagged animal selected as migrant")
		}
	}
	if c.Count(animal.KindHerbivore) != 6 {
		t.Error("ExtractMigrants removed residents")
	}

	c.ResetMigrationFlags()
	for _, a := range c.Residents(animal.KindHerbivore) {
		if a.Migrated() {
			t.Error("flag not reset")
		}
	}
}

func TestRemove(t *testing.T) {
	tr, _ := NewTable().Lookup('L')
	c := NewCell(tr)
	list := populate(t, c, animal.NewSpecies(animal.KindCarnivore), 3, 1, 10)
	if !c.Remove(list[1]) {
		t.Fatal("Remove returned false for resident")
	}
	if c.Remove(list[1]) {
		t.Error("Remove returned true for absent animal")
	}
	got := c.Residents(animal.KindCarnivore)
	if len(got) != 2 || got[0] != list[0] || got[1] != list[2] {
		t.Error("Remove disturbed the order of remaining residents")
	}
}
