package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// TraitStats summarises one trait of one species.
type TraitStats struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// YearStats holds aggregated statistics for a window of years.
type YearStats struct {
	WindowStart int `csv:"-" db:"-"`
	Year        int `csv:"year" db:"year"`

	// Population counts at window end
	Herbivores int `csv:"herbivores" db:"herbivores"`
	Carnivores int `csv:"carnivores" db:"carnivores"`

	// Events during window
	HerbBirths     int     `csv:"herb_births" db:"herb_births"`
	CarnBirths     int     `csv:"carn_births" db:"carn_births"`
	HerbDeaths     int     `csv:"herb_deaths" db:"herb_deaths"`
	CarnDeaths     int     `csv:"carn_deaths" db:"carn_deaths"`
	Kills          int     `csv:"kills" db:"kills"`
	HerbMigrations int     `csv:"herb_migrations" db:"herb_migrations"`
	CarnMigrations int     `csv:"carn_migrations" db:"carn_migrations"`
	Blocked        int     `csv:"blocked_migrations" db:"blocked_migrations"`
	Grazed         float64 `csv:"grazed" db:"grazed"`

	// Trait distributions (sampled at window end)
	HerbFitnessMean float64 `csv:"herb_fitness_mean" db:"herb_fitness_mean"`
	HerbFitnessStd  float64 `csv:"herb_fitness_std" db:"herb_fitness_std"`
	HerbFitnessP50  float64 `csv:"herb_fitness_p50" db:"herb_fitness_p50"`
	HerbAgeMean     float64 `csv:"herb_age_mean" db:"herb_age_mean"`
	HerbAgeP50      float64 `csv:"herb_age_p50" db:"herb_age_p50"`
	HerbWeightMean  float64 `csv:"herb_weight_mean" db:"herb_weight_mean"`
	HerbWeightStd   float64 `csv:"herb_weight_std" db:"herb_weight_std"`
	HerbWeightP10   float64 `csv:"herb_weight_p10" db:"herb_weight_p10"`
	HerbWeightP50   float64 `csv:"herb_weight_p50" db:"herb_weight_p50"`
	HerbWeightP90   float64 `csv:"herb_weight_p90" db:"herb_weight_p90"`

	CarnFitnessMean float64 `csv:"carn_fitness_mean" db:"carn_fitness_mean"`
	CarnFitnessStd  float64 `csv:"carn_fitness_std" db:"carn_fitness_std"`
	CarnFitnessP50  float64 `csv:"carn_fitness_p50" db:"carn_fitness_p50"`
	CarnAgeMean     float64 `csv:"carn_age_mean" db:"carn_age_mean"`
	CarnAgeP50      float64 `csv:"carn_age_p50" db:"carn_age_p50"`
	CarnWeightMean  float64 `csv:"carn_weight_mean" db:"carn_weight_mean"`
	CarnWeightStd   float64 `csv:"carn_weight_std" db:"carn_weight_std"`
	CarnWeightP10   float64 `csv:"carn_weight_p10" db:"carn_weight_p10"`
	CarnWeightP50   float64 `csv:"carn_weight_p50" db:"carn_weight_p50"`
	CarnWeightP90   float64 `csv:"carn_weight_p90" db:"carn_weight_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeTraitStats calculates mean, population std-deviation and
// percentiles. An empty sample yields zeros.
func ComputeTraitStats(values []float64) TraitStats {
	if len(values) == 0 {
		return TraitStats{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return TraitStats{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s YearStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("year", s.Year),
		slog.Int("herbivores", s.Herbivores),
		slog.Int("carnivores", s.Carnivores),
		slog.Int("herb_births", s.HerbBirths),
		slog.Int("carn_births", s.CarnBirths),
		slog.Int("herb_deaths", s.HerbDeaths),
		slog.Int("carn_deaths", s.CarnDeaths),
		slog.Int("kills", s.Kills),
		slog.Int("herb_migrations", s.HerbMigrations),
		slog.Int("carn_migrations", s.CarnMigrations),
		slog.Int("blocked_migrations", s.Blocked),
		slog.Float64("grazed", s.Grazed),
		slog.Float64("herb_fitness_mean", s.HerbFitnessMean),
		slog.Float64("herb_weight_mean", s.HerbWeightMean),
		slog.Float64("herb_age_mean", s.HerbAgeMean),
		slog.Float64("carn_fitness_mean", s.CarnFitnessMean),
		slog.Float64("carn_weight_mean", s.CarnWeightMean),
		slog.Float64("carn_age_mean", s.CarnAgeMean),
	)
}

// LogStats logs the window stats using slog.
func (s YearStats) LogStats() {
	slog.Info("stats",
		"year", s.Year,
		"herbivores", s.Herbivores,
		"carnivores", s.Carnivores,
		"herb_births", s.HerbBirths,
		"carn_births", s.CarnBirths,
		"herb_deaths", s.HerbDeaths,
		"carn_deaths", s.CarnDeaths,
		"kills", s.Kills,
		"migrations", s.HerbMigrations+s.CarnMigrations,
		"blocked_migrations", s.Blocked,
		"grazed", s.Grazed,
		"herb_fitness_mean", s.HerbFitnessMean,
		"herb_weight_p50", s.HerbWeightP50,
		"carn_fitness_mean", s.CarnFitnessMean,
		"carn_weight_p50", s.CarnWeightP50,
	)
}
