// Package report renders run output as images: the population chart, per-cell
// density heatmaps, and a movie of the heatmaps over time.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pthm-cable/biosim/telemetry"
)

// ErrTooFewPoints is returned when a chart needs more history.
var ErrTooFewPoints = errors.New("report: at least two census rows are needed")

var (
	herbivoreColor = drawing.Color{R: 46, G: 139, B: 87, A: 255}
	carnivoreColor = drawing.Color{R: 200, G: 40, B: 40, A: 255}
)

// WritePopulationChart renders herbivore and carnivore counts over the
// recorded years as a PNG.
func WritePopulationChart(w io.Writer, history []telemetry.YearStats) error {
	if len(history) < 2 {
		return ErrTooFewPoints
	}

	years := make([]float64, len(history))
	herbs := make([]float64, len(history))
	carns := make([]float64, len(history))
	top := 1.0
	for i, s := range history {
		years[i] = float64(s.Year)
		herbs[i] = float64(s.Herbivores)
		carns[i] = float64(s.Carnivores)
		top = max(top, herbs[i], carns[i])
	}

	graph := chart.Chart{
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		XAxis: chart.XAxis{
			Name:  "year",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: years[0], Max: years[len(years)-1]},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "animals",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.05},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Herbivores",
				XValues: years,
				YValues: herbs,
				Style:   chart.Style{StrokeColor: herbivoreColor, StrokeWidth: 2.0},
			},
			chart.ContinuousSeries{
				Name:    "Carnivores",
				XValues: years,
				YValues: carns,
				Style:   chart.Style{StrokeColor: carnivoreColor, StrokeWidth: 2.0},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render population chart: %w", err)
	}
	return nil
}
