package animal

import (
	"errors"
	"strings"
	"testing"

	"github.com/pthm-cable/biosim/simerr"
)

func TestDefaultParamsValid(t *testing.T) {
	for _, kind := range Kinds {
		if err := DefaultParams(kind).Validate(kind); err != nil {
			t.Errorf("%s defaults invalid: %v", kind, err)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("Herbivore"); err != nil || k != KindHerbivore {
		t.Errorf("ParseKind(Herbivore) = %v, %v", k, err)
	}
	if k, err := ParseKind("Carnivore"); err != nil || k != KindCarnivore {
		t.Errorf("ParseKind(Carnivore) = %v, %v", k, err)
	}
	if _, err := ParseKind("Omnivore"); !errors.Is(err, simerr.ErrUnknownSpecies) {
		t.Errorf("ParseKind(Omnivore) err = %v, want ErrUnknownSpecies", err)
	}
}

func TestParamsWith(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		update  map[string]float64
		wantErr error
	}{
		{"valid appetite", KindHerbivore, map[string]float64{"F": 12}, nil},
		{"eta upper bound", KindHerbivore, map[string]float64{"eta": 1}, nil},
		{"eta zero allowed", KindCarnivore, map[string]float64{"eta": 0}, nil},
		{"eta above one", KindHerbivore, map[string]float64{"eta": 1.5}, simerr.ErrValidation},
		{"negative value", KindHerbivore, map[string]float64{"gamma": -0.2}, simerr.ErrValidation},
		{"zero value", KindCarnivore, map[string]float64{"omega": 0}, simerr.ErrValidation},
		{"zero DeltaPhiMax", KindCarnivore, map[string]float64{"DeltaPhiMax": 0}, simerr.ErrValidation},
		{"DeltaPhiMax on herbivore", KindHerbivore, map[string]float64{"DeltaPhiMax": 5}, simerr.ErrConfiguration},
		{"unknown name", KindCarnivore, map[string]float64{"appetite": 5}, simerr.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := DefaultParams(tt.kind)
			got, err := base.With(tt.kind, tt.update)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if got != base {
					t.Error("failed update modified the parameter set")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for name, v := range tt.update {
				if have, _ := got.Get(tt.kind, name); have != v {
					t.Errorf("%s = %v, want %v", name, have, v)
				}
			}
		})
	}
}

func TestParamsWith_AllOrNothing(t *testing.T) {
	base := DefaultParams(KindHerbivore)
	got, err := base.With(KindHerbivore, map[string]float64{"F": 20, "zeta": -1})
	if !errors.Is(err, simerr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if got.F != base.F {
		t.Errorf("partial update applied: F = %v", got.F)
	}
}

func TestUnknownParamSuggestion(t *testing.T) {
	_, err := DefaultParams(KindHerbivore).With(KindHerbivore, map[string]float64{"omgea": 0.3})
	if !errors.Is(err, simerr.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if !strings.Contains(err.Error(), `did you mean "omega"`) {
		t.Errorf("error %q lacks suggestion", err)
	}

	_, err = DefaultParams(KindHerbivore).With(KindHerbivore, map[string]float64{"completely_unrelated": 1})
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error %q suggests an unrelated name", err)
	}
}

func TestSpeciesUpdateSharedByAnimals(t *testing.T) {
	sp := NewSpecies(KindHerbivore)
	a, _ := New(sp, 1, 10)
	b, _ := New(sp, 2, 10)

	if err := sp.Update(map[string]float64{"eta": 0.5}); err != nil {
		t.Fatal(err)
	}
	a.AgeOneYear()
	b.AgeOneYear()
	if a.Weight() != 5 || b.Weight() != 5 {
		t.Errorf("weights = %v, %v; want 5 after eta update", a.Weight(), b.Weight())
	}
}

func TestNames(t *testing.T) {
	if len(Names(KindCarnivore)) != len(Names(KindHerbivore))+1 {
		t.Error("carnivores should accept exactly one extra parameter")
	}
	for _, kind := range Kinds {
		p := DefaultParams(kind)
		for _, name := range Names(kind) {
			if _, err := p.Get(kind, name); err != nil {
				t.Errorf("%s: Get(%s): %v", kind, name, err)
			}
		}
	}
}
