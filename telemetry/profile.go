package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/biosim/island"
)

// Phases lists the annual cycle phases in execution order.
var Phases = []string{
	island.PhaseFeeding,
	island.PhaseProcreation,
	island.PhaseMigration,
	island.PhaseAging,
	island.PhaseDeath,
}

// PhaseProfile accumulates wall-clock time per phase of the annual cycle
// until it is flushed. Feeding and procreation are entered once per cell,
// so their totals add up across the island. It satisfies island.PhaseTimer.
type PhaseProfile struct {
	now func() time.Time

	fromYear    int
	toYear      int
	years       int
	animalYears int
	total       time.Duration
	slowest     time.Duration
	slowestYear int
	phases      map[string]*phaseTotal

	yearStart  time.Time
	phaseStart time.Time
	phase      string
}

type phaseTotal struct {
	elapsed time.Duration
	entries int
}

// NewPhaseProfile returns an empty profile timed by the wall clock.
func NewPhaseProfile() *PhaseProfile {
	return newPhaseProfile(time.Now)
}

func newPhaseProfile(now func() time.Time) *PhaseProfile {
	return &PhaseProfile{now: now, phases: make(map[string]*phaseTotal)}
}

// BeginYear starts timing one simulated year.
func (p *PhaseProfile) BeginYear() {
	t := p.now()
	p.yearStart, p.phaseStart, p.phase = t, t, ""
}

// StartPhase closes the running phase and opens name.
func (p *PhaseProfile) StartPhase(name string) {
	t := p.now()
	p.closePhase(t)
	p.phase, p.phaseStart = name, t
	p.entry(name).entries++
}

// EndYear closes the year. year is the year just completed and population
// the number of animals alive at its end.
func (p *PhaseProfile) EndYear(year, population int) {
	t := p.now()
	p.closePhase(t)
	p.phase = ""

	d := t.Sub(p.yearStart)
	if p.years == 0 {
		p.fromYear = year
	}
	p.toYear = year
	p.years++
	p.total += d
	p.animalYears += population
	if d >= p.slowest {
		p.slowest, p.slowestYear = d, year
	}
}

func (p *PhaseProfile) closePhase(t time.Time) {
	if p.phase != "" {
		p.entry(p.phase).elapsed += t.Sub(p.phaseStart)
	}
}

func (p *PhaseProfile) entry(name string) *phaseTotal {
	pt, ok := p.phases[name]
	if !ok {
		pt = &phaseTotal{}
		p.phases[name] = pt
	}
	return pt
}

// Years returns the number of years recorded since the last flush.
func (p *PhaseProfile) Years() int { return p.years }

// Flush summarises the recorded years and starts a new window.
func (p *PhaseProfile) Flush() PhaseWindow {
	w := PhaseWindow{
		FromYear:    p.fromYear,
		ToYear:      p.toYear,
		Years:       p.years,
		Total:       p.total,
		Slowest:     p.slowest,
		SlowestYear: p.slowestYear,
		AnimalYears: p.animalYears,
		Phases:      make(map[string]PhaseShare, len(p.phases)),
	}
	for name, pt := range p.phases {
		share := PhaseShare{Elapsed: pt.elapsed, Entries: pt.entries}
		if p.total > 0 {
			share.Share = float64(pt.elapsed) / float64(p.total)
		}
		w.Phases[name] = share
	}

	*p = PhaseProfile{now: p.now, phases: make(map[string]*phaseTotal)}
	return w
}

// PhaseShare is one phase's part of a window.
type PhaseShare struct {
	Elapsed time.Duration
	Entries int     // times the phase was entered
	Share   float64 // fraction of the window's total time
}

// PhaseWindow summarises the cycle timings of consecutive years.
type PhaseWindow struct {
	FromYear, ToYear int
	Years            int
	Total            time.Duration
	Slowest          time.Duration
	SlowestYear      int
	AnimalYears      int // sum of end-of-year populations
	Phases           map[string]PhaseShare
}

// MeanYear returns the average wall-clock time of one year.
func (w PhaseWindow) MeanYear() time.Duration {
	if w.Years == 0 {
		return 0
	}
	return w.Total / time.Duration(w.Years)
}

// AnimalYearsPerSecond is the throughput of the window.
func (w PhaseWindow) AnimalYearsPerSecond() float64 {
	if w.Total <= 0 {
		return 0
	}
	return float64(w.AnimalYears) / w.Total.Seconds()
}

// LogStats logs the window with one percentage per phase.
func (w PhaseWindow) LogStats() {
	attrs := []any{
		"from_year", w.FromYear,
		"to_year", w.ToYear,
		"mean_year_us", w.MeanYear().Microseconds(),
		"slowest_year", w.SlowestYear,
		"slowest_us", w.Slowest.Microseconds(),
		"animal_years_per_sec", int(w.AnimalYearsPerSecond()),
	}
	for _, phase := range Phases {
		if s, ok := w.Phases[phase]; ok && s.Share > 0.001 {
			attrs = append(attrs, phase+"_pct", float64(int(s.Share*1000))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// PhaseWindowCSV is a flat struct for CSV export of a phase window.
type PhaseWindowCSV struct {
	FromYear          int     `csv:"from_year"`
	ToYear            int     `csv:"to_year"`
	MeanYearUS        int64   `csv:"mean_year_us"`
	SlowestYear       int     `csv:"slowest_year"`
	SlowestUS         int64   `csv:"slowest_us"`
	AnimalYearsPerSec float64 `csv:"animal_years_per_sec"`
	FeedingPct        float64 `csv:"feeding_pct"`
	ProcreationPct    float64 `csv:"procreation_pct"`
	MigrationPct      float64 `csv:"migration_pct"`
	AgingPct          float64 `csv:"aging_pct"`
	DeathPct          float64 `csv:"death_pct"`
}

// ToCSV converts the window to a CSV row.
func (w PhaseWindow) ToCSV() PhaseWindowCSV {
	pct := func(phase string) float64 { return w.Phases[phase].Share * 100 }
	return PhaseWindowCSV{
		FromYear:          w.FromYear,
		ToYear:            w.ToYear,
		MeanYearUS:        w.MeanYear().Microseconds(),
		SlowestYear:       w.SlowestYear,
		SlowestUS:         w.Slowest.Microseconds(),
		AnimalYearsPerSec: w.AnimalYearsPerSecond(),
		FeedingPct:        pct(island.PhaseFeeding),
		ProcreationPct:    pct(island.PhaseProcreation),
		MigrationPct:      pct(island.PhaseMigration),
		AgingPct:          pct(island.PhaseAging),
		DeathPct:          pct(island.PhaseDeath),
	}
}
