package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/biosim/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPredatorRecovery BookmarkType = "predator_recovery"
	BookmarkPreyCrash        BookmarkType = "prey_crash"
	BookmarkStableEcosystem  BookmarkType = "stable_ecosystem"
	BookmarkExtinction       BookmarkType = "extinction"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Year        int          `csv:"year"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"year", b.Year,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []YearStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPredMin      int // minimum predator count in recent history
	recentPreyPeak     int // peak prey count in recent history
	stableWindowsCount int // consecutive windows with stable populations
	seenHerbivores     bool
	seenCarnivores     bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable ecosystem detection
	}
	return &BookmarkDetector{
		cfg:           cfg,
		history:       make([]YearStats, historySize),
		historySize:   historySize,
		recentPredMin: -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats YearStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		// Predator recovery: was near zero, now several times that
		if b := bd.checkPredatorRecovery(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Prey crash: dropped sharply from recent peak
		if b := bd.checkPreyCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stable ecosystem: both populations present with low variance
		if b := bd.checkStableEcosystem(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bookmarks = append(bookmarks, bd.checkExtinction(stats)...)

	bd.addToHistory(stats)

	// Track predator minimum (once predators exist) and prey peak
	if bd.seenCarnivores && (bd.recentPredMin < 0 || stats.Carnivores < bd.recentPredMin) {
		bd.recentPredMin = stats.Carnivores
	}
	if stats.Herbivores > bd.recentPreyPeak {
		bd.recentPreyPeak = stats.Herbivores
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats YearStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the latest history entries, oldest first.
func (bd *BookmarkDetector) recent(n int) []YearStats {
	ordered := make([]YearStats, 0, bd.historySize+1)
	if bd.historyFull {
		ordered = append(ordered, bd.history[bd.historyIdx:]...)
	}
	ordered = append(ordered, bd.history[:bd.historyIdx]...)
	if len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

func (bd *BookmarkDetector) checkExtinction(stats YearStats) []Bookmark {
	var out []Bookmark
	if stats.Herbivores > 0 {
		bd.seenHerbivores = true
	} else if bd.seenHerbivores {
		bd.seenHerbivores = false
		out = append(out, Bookmark{
			Type:        BookmarkExtinction,
			Year:        stats.Year,
			Description: "Herbivores went extinct",
		})
	}
	if stats.Carnivores > 0 {
		bd.seenCarnivores = true
	} else if bd.seenCarnivores {
		bd.seenCarnivores = false
		bd.recentPredMin = -1
		out = append(out, Bookmark{
			Type:        BookmarkExtinction,
			Year:        stats.Year,
			Description: "Carnivores went extinct",
		})
	}
	return out
}

func (bd *BookmarkDetector) checkPredatorRecovery(stats YearStats) *Bookmark {
	c := bd.cfg.PredatorRecovery
	if bd.recentPredMin <= 0 || bd.recentPredMin > c.MinPopulation {
		return nil
	}

	threshold := bd.recentPredMin * c.RecoveryMultiplier
	if stats.Carnivores >= threshold && stats.Carnivores >= c.MinFinal {
		// Reset the minimum after triggering
		oldMin := bd.recentPredMin
		bd.recentPredMin = stats.Carnivores

		return &Bookmark{
			Type:        BookmarkPredatorRecovery,
			Year:        stats.Year,
			Description: fmt.Sprintf("Carnivore population recovered from %d to %d", oldMin, stats.Carnivores),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkPreyCrash(stats YearStats) *Bookmark {
	c := bd.cfg.PreyCrash
	if bd.recentPreyPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.Herbivores)/float64(bd.recentPreyPeak)
	if dropPercent > c.DropPercent && stats.Herbivores <= bd.recentPreyPeak-c.MinDrop {
		// Reset peak after crash
		oldPeak := bd.recentPreyPeak
		bd.recentPreyPeak = stats.Herbivores

		return &Bookmark{
			Type:        BookmarkPreyCrash,
			Year:        stats.Year,
			Description: fmt.Sprintf("Herbivores crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Herbivores),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkStableEcosystem(stats YearStats) *Bookmark {
	c := bd.cfg.StableEcosystem
	// Need both populations present
	if stats.Herbivores < c.MinPrey || stats.Carnivores < c.MinPred {
		bd.stableWindowsCount = 0
		return nil
	}

	window := append(bd.recent(3), stats)
	if len(window) < 4 {
		return nil
	}

	preyCV := coefficientOfVariation(window, func(s YearStats) float64 { return float64(s.Herbivores) })
	predCV := coefficientOfVariation(window, func(s YearStats) float64 { return float64(s.Carnivores) })

	if preyCV < c.CVThreshold && predCV < c.CVThreshold {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == c.StableWindows { // trigger exactly once per stable stretch
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Year:        stats.Year,
			Description: fmt.Sprintf("Stable coexistence with %d herbivores, %d carnivores over %d windows", stats.Herbivores, stats.Carnivores, c.StableWindows),
		}
	}

	return nil
}

func coefficientOfVariation(window []YearStats, value func(YearStats) float64) float64 {
	xs := make([]float64, len(window))
	for i, s := range window {
		xs[i] = value(s)
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
