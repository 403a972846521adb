package sim

import (
	"log/slog"

	"github.com/pthm-cable/biosim/animal"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/report"
	"github.com/pthm-cable/biosim/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.year) {
		return
	}

	herbs := s.island.Traits(animal.KindHerbivore)
	carns := s.island.Traits(animal.KindCarnivore)
	stats := s.collector.Flush(s.year, s.island.Counts(), herbs, carns)
	s.history = append(s.history, stats)

	if s.logStats {
		stats.LogStats()
	}

	if err := s.output.WriteCensus(stats); err != nil {
		slog.Error("failed to write census", "error", err)
	}
	if s.db != nil {
		if err := s.db.SaveYear(s.runID, stats); err != nil {
			slog.Error("failed to save census", "error", err)
		}
	}

	s.writeHistograms()
	s.addFrame()

	// Check for bookmarks
	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if s.db != nil {
			if err := s.db.SaveBookmark(s.runID, bm); err != nil {
				slog.Error("failed to save bookmark", "error", err)
			}
		}
		if s.output != nil {
			s.saveSnapshot(&bm)
		}
	}
}

// flushPerf writes the phase timings once per perf window.
func (s *Simulation) flushPerf() {
	if s.perf.Years() < s.cfg.Telemetry.PerfCollectorWindow {
		return
	}
	w := s.perf.Flush()
	if s.logStats {
		w.LogStats()
	}
	if err := s.output.WritePerf(w); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// writeHistograms appends one histogram per configured trait and species.
func (s *Simulation) writeHistograms() {
	if s.output == nil {
		return
	}
	for _, trait := range config.HistogramTraits {
		if _, ok := s.cfg.Output.Histograms[trait]; !ok {
			continue
		}
		for _, k := range animal.Kinds {
			h, err := s.Histogram(k, trait)
			if err != nil {
				slog.Error("failed to bin histogram", "trait", trait, "error", err)
				continue
			}
			if err := s.output.WriteHistogram(h.Rows(s.year, k.String(), trait)); err != nil {
				slog.Error("failed to write histogram", "error", err)
			}
		}
	}
}

// addFrame appends the current densities to the movie.
func (s *Simulation) addFrame() {
	if s.movie == nil {
		return
	}
	img := report.Frame(
		s.island.Map(),
		s.island.Occupancy(animal.KindHerbivore),
		s.island.Occupancy(animal.KindCarnivore),
		s.year,
		s.frame,
	)
	if err := s.movie.AddFrame(img); err != nil {
		slog.Error("failed to add movie frame", "error", err)
	}
}

// saveSnapshot creates and saves a snapshot to disk.
func (s *Simulation) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot, err := s.Snapshot()
	if err != nil {
		slog.Error("failed to capture snapshot", "error", err)
		return
	}
	snapshot.Bookmark = bookmark

	path, err := telemetry.SaveSnapshot(snapshot, s.snapshotDir())
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "year", s.year)
}
