// Command genisland prints a procedurally generated island map, ready to
// paste into simulation.map of a config file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/biosim/islandgen"
)

func main() {
	def := islandgen.DefaultGenConfig()

	rows := flag.Int("rows", def.Rows, "Map rows")
	cols := flag.Int("cols", def.Cols, "Map columns")
	seed := flag.Int64("seed", def.Seed, "Noise seed")
	sea := flag.Float64("sea", def.SeaLevel, "Elevation below which cells are water")
	highland := flag.Float64("highland", def.HighlandLvl, "Elevation above which cells are highland")
	desert := flag.Float64("desert", def.DesertRain, "Rainfall below which lowland turns to desert")
	asYAML := flag.Bool("yaml", false, "Print a config fragment instead of the bare map")
	flag.Parse()

	m, err := islandgen.Generate(islandgen.GenConfig{
		Rows:        *rows,
		Cols:        *cols,
		Seed:        *seed,
		SeaLevel:    *sea,
		HighlandLvl: *highland,
		DesertRain:  *desert,
	})
	if err != nil {
		log.Fatalf("generate: %v", err)
	}

	if *asYAML {
		fragment := map[string]map[string]any{
			"simulation": {"seed": *seed, "map": m + "\n"},
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(fragment); err != nil {
			log.Fatalf("encode: %v", err)
		}
		enc.Close()
	} else {
		fmt.Println(m)
	}

	counts := islandgen.TerrainCounts(m)
	fmt.Fprintf(os.Stderr, "%s cells: %s lowland, %s highland, %s desert, %s water\n",
		humanize.Comma(int64(*rows**cols)),
		humanize.Comma(int64(counts['L'])), humanize.Comma(int64(counts['H'])),
		humanize.Comma(int64(counts['D'])), humanize.Comma(int64(counts['W'])))
}
