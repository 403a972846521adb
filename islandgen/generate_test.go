package islandgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/pthm-cable/biosim/island"
	"github.com/pthm-cable/biosim/simerr"
)

func TestGenerate_ParsesAsIsland(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 42, 1000} {
		cfg := DefaultGenConfig()
		cfg.Seed = seed
		m, err := Generate(cfg)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		is, err := island.New(m, island.NewEcology())
		if err != nil {
			t.Fatalf("seed %d: generated map rejected: %v\n%s", seed, err, m)
		}
		if rows, cols := is.Size(); rows != cfg.Rows || cols != cfg.Cols {
			t.Errorf("seed %d: size %dx%d", seed, rows, cols)
		}
		if len(is.HabitableCells()) == 0 {
			t.Errorf("seed %d: no land", seed)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	a, _ := Generate(cfg)
	b, _ := Generate(cfg)
	if a != b {
		t.Error("same seed produced different maps")
	}
}

func TestGenerate_Rectangular(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Rows, cfg.Cols = 7, 30
	m, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(m, "\n")
	if len(lines) != 7 {
		t.Fatalf("rows = %d, want 7", len(lines))
	}
	for _, l := range lines {
		if len(l) != 30 {
			t.Fatalf("row length %d, want 30", len(l))
		}
	}
}

func TestGenerate_AllWaterStillHasLand(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.SeaLevel = 2 // nothing clears the sea
	m, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}
	counts := TerrainCounts(m)
	if counts['L'] != 1 || counts['W'] != cfg.Rows*cfg.Cols-1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestGenerate_TooSmall(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Rows = 2
	if _, err := Generate(cfg); !errors.Is(err, simerr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestClassify(t *testing.T) {
	cfg := DefaultGenConfig()
	tests := []struct {
		elev, rain float64
		want       byte
	}{
		{0.1, 0.9, 'W'},
		{0.8, 0.1, 'H'},
		{0.5, 0.1, 'D'},
		{0.5, 0.8, 'L'},
	}
	for _, tt := range tests {
		if got := classify(tt.elev, tt.rain, cfg); got != tt.want {
			t.Errorf("classify(%v, %v) = %c, want %c", tt.elev, tt.rain, got, tt.want)
		}
	}
}
