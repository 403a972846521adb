// Package telemetry provides yearly census statistics, bookmarking, and run output.
package telemetry

import (
	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/island"
)

// Collector accumulates yearly reports within windows and produces YearStats.
type Collector struct {
	windowYears int

	// Current window tracking
	windowStart int

	// Event counters for current window
	births     animal.Counts
	deaths     animal.Counts
	migrations animal.Counts
	blocked    animal.Counts
	kills      int
	grazed     float64
}

// NewCollector creates a stats collector that flushes every windowYears years.
func NewCollector(windowYears int) *Collector {
	if windowYears < 1 {
		windowYears = 1
	}
	return &Collector{windowYears: windowYears}
}

// NewCollectorAt creates a collector whose first window starts at year, for
// runs resumed from a snapshot.
func NewCollectorAt(windowYears, year int) *Collector {
	c := NewCollector(windowYears)
	c.windowStart = year
	return c
}

// Record adds one year's report to the current window.
func (c *Collector) Record(rep island.Report) {
	c.births = c.births.Add(rep.Births)
	c.deaths = c.deaths.Add(rep.Deaths)
	c.migrations = c.migrations.Add(rep.Migrations)
	c.blocked = c.blocked.Add(rep.BlockedMigrations)
	c.kills += rep.Kills
	c.grazed += rep.Grazed
}

// ShouldFlush returns true if enough years have passed to flush the window.
func (c *Collector) ShouldFlush(year int) bool {
	return year-c.windowStart >= c.windowYears
}

// Flush produces a YearStats and resets counters for the next window.
// counts and the trait samples describe the island at the end of year.
func (c *Collector) Flush(year int, counts animal.Counts, herbs, carns island.Traits) YearStats {
	hf := ComputeTraitStats(herbs.Fitness)
	ha := ComputeTraitStats(herbs.Age)
	hw := ComputeTraitStats(herbs.Weight)
	cf := ComputeTraitStats(carns.Fitness)
	ca := ComputeTraitStats(carns.Age)
	cw := ComputeTraitStats(carns.Weight)

	stats := YearStats{
		WindowStart: c.windowStart,
		Year:        year,

		Herbivores: counts[animal.KindHerbivore],
		Carnivores: counts[animal.KindCarnivore],

		HerbBirths:     c.births[animal.KindHerbivore],
		CarnBirths:     c.births[animal.KindCarnivore],
		HerbDeaths:     c.deaths[animal.KindHerbivore],
		CarnDeaths:     c.deaths[animal.KindCarnivore],
		Kills:          c.kills,
		HerbMigrations: c.migrations[animal.KindHerbivore],
		CarnMigrations: c.migrations[animal.KindCarnivore],
		Blocked:        c.blocked.Total(),
		Grazed:         c.grazed,

		HerbFitnessMean: hf.Mean,
		HerbFitnessStd:  hf.Std,
		HerbFitnessP50:  hf.P50,
		HerbAgeMean:     ha.Mean,
		HerbAgeP50:      ha.P50,
		HerbWeightMean:  hw.Mean,
		HerbWeightStd:   hw.Std,
		HerbWeightP10:   hw.P10,
		HerbWeightP50:   hw.P50,
		HerbWeightP90:   hw.P90,

		CarnFitnessMean: cf.Mean,
		CarnFitnessStd:  cf.Std,
		CarnFitnessP50:  cf.P50,
		CarnAgeMean:     ca.Mean,
		CarnAgeP50:      ca.P50,
		CarnWeightMean:  cw.Mean,
		CarnWeightStd:   cw.Std,
		CarnWeightP10:   cw.P10,
		CarnWeightP50:   cw.P50,
		CarnWeightP90:   cw.P90,
	}

	// Reset for next window
	c.windowStart = year
	c.births = animal.Counts{}
	c.deaths = animal.Counts{}
	c.migrations = animal.Counts{}
	c.blocked = animal.Counts{}
	c.kills = 0
	c.grazed = 0

	return stats
}

// WindowYears returns the number of years per window.
func (c *Collector) WindowYears() int {
	return c.windowYears
}
