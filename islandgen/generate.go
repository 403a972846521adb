// Package islandgen generates island maps from layered simplex noise.
package islandgen

import (
	"fmt"
	"math"
	"strings"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/biosim/simerr"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Rows, Cols  int
	Seed        int64
	SeaLevel    float64 // elevation threshold for water (0.0–1.0)
	HighlandLvl float64 // elevation threshold for highland (0.0–1.0)
	DesertRain  float64 // rainfall below which lowland turns to desert
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Rows:        21,
		Cols:        21,
		Seed:        1,
		SeaLevel:    0.3,
		HighlandLvl: 0.62,
		DesertRain:  0.35,
	}
}

// Generate returns a map whose outer ring is water and whose interior is
// classified from elevation and rainfall noise. Elevation falls off towards
// the edges so the land forms an island. At least one cell is land.
func Generate(cfg GenConfig) (string, error) {
	if cfg.Rows < 3 || cfg.Cols < 3 {
		return "", fmt.Errorf("%w: island must be at least 3x3, got %dx%d", simerr.ErrValidation, cfg.Rows, cfg.Cols)
	}

	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rainNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	grid := make([][]byte, cfg.Rows)
	land := 0
	for i := range grid {
		grid[i] = make([]byte, cfg.Cols)
		for j := range grid[i] {
			if i == 0 || j == 0 || i == cfg.Rows-1 || j == cfg.Cols-1 {
				grid[i][j] = 'W'
				continue
			}
			x, y := float64(j), float64(i)
			elev := octaveNoise(elevNoise, x, y, 4, 0.12, 0.5)
			rain := octaveNoise(rainNoise, x, y, 3, 0.09, 0.5)

			// Continental shaping: reduce elevation towards the border.
			dy := (y - float64(cfg.Rows-1)/2) / (float64(cfg.Rows-1) / 2)
			dx := (x - float64(cfg.Cols-1)/2) / (float64(cfg.Cols-1) / 2)
			falloff := 1.0 - math.Pow(math.Sqrt(dx*dx+dy*dy)/math.Sqrt2, 3)
			elev *= max(falloff, 0)

			grid[i][j] = classify(elev, rain, cfg)
			if grid[i][j] != 'W' {
				land++
			}
		}
	}
	if land == 0 {
		grid[cfg.Rows/2][cfg.Cols/2] = 'L'
	}

	lines := make([]string, cfg.Rows)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n"), nil
}

func classify(elev, rain float64, cfg GenConfig) byte {
	switch {
	case elev < cfg.SeaLevel:
		return 'W'
	case elev > cfg.HighlandLvl:
		return 'H'
	case rain < cfg.DesertRain:
		return 'D'
	default:
		return 'L'
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns how many cells of each terrain code a map holds.
func TerrainCounts(islandMap string) map[byte]int {
	counts := make(map[byte]int)
	for _, line := range strings.Split(islandMap, "\n") {
		for i := 0; i < len(line); i++ {
			counts[line[i]]++
		}
	}
	return counts
}
