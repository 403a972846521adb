package telemetry

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/biosim/config"
)

// Histogram holds fixed-width bin counts over [0, Edges[len-1]).
type Histogram struct {
	Edges  []float64 // len(Counts)+1 bin boundaries
	Counts []float64
}

// NewHistogram bins values into ceil(max/delta) bins of width delta starting
// at 0. Values at or above max land in the last bin, negative values in the
// first.
func NewHistogram(values []float64, spec config.HistogramSpec) Histogram {
	n := int(math.Ceil(spec.Max/spec.Delta - 1e-9))
	if n < 1 {
		n = 1
	}
	edges := make([]float64, n+1)
	floats.Span(edges, 0, float64(n)*spec.Delta)
	lastMid := edges[n] - spec.Delta/2

	x := make([]float64, len(values))
	for i, v := range values {
		switch {
		case v >= spec.Max || math.IsNaN(v):
			v = lastMid
		case v < 0:
			v = 0
		}
		x[i] = v
	}
	slices.Sort(x)

	counts := make([]float64, n)
	if len(x) > 0 {
		stat.Histogram(counts, edges, x, nil)
	}
	return Histogram{Edges: edges, Counts: counts}
}

// HistogramRow is one bin of a trait histogram for CSV export.
type HistogramRow struct {
	Year    int     `csv:"year"`
	Species string  `csv:"species"`
	Trait   string  `csv:"trait"`
	Lo      float64 `csv:"bin_lo"`
	Hi      float64 `csv:"bin_hi"`
	Count   int     `csv:"count"`
}

// Rows flattens the histogram for export.
func (h Histogram) Rows(year int, species, trait string) []HistogramRow {
	rows := make([]HistogramRow, len(h.Counts))
	for i, c := range h.Counts {
		rows[i] = HistogramRow{
			Year:    year,
			Species: species,
			Trait:   trait,
			Lo:      h.Edges[i],
			Hi:      h.Edges[i+1],
			Count:   int(c),
		}
	}
	return rows
}
