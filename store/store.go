// Package store provides SQLite-based persistence of run history.
package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/biosim/telemetry"
)

// DB wraps a SQLite connection holding one or more simulation runs.
type DB struct {
	conn *sqlx.DB
}

// Run describes a stored simulation run.
type Run struct {
	ID        string `db:"id"`
	Seed      int64  `db:"seed"`
	Map       string `db:"map"`
	CreatedAt int64  `db:"created_at"` // unix seconds
	Years     int    `db:"years"`      // census rows stored
}

// Created returns the creation time.
func (r Run) Created() time.Time { return time.Unix(r.CreatedAt, 0) }

type censusRow struct {
	RunID string `db:"run_id"`
	telemetry.YearStats
}

type bookmarkRow struct {
	RunID       string `db:"run_id"`
	Type        string `db:"type"`
	Year        int    `db:"year"`
	Description string `db:"description"`
}

var censusColumns = []string{
	"year", "herbivores", "carnivores",
	"herb_births", "carn_births", "herb_deaths", "carn_deaths", "kills",
	"herb_migrations", "carn_migrations", "blocked_migrations", "grazed",
	"herb_fitness_mean", "herb_fitness_std", "herb_fitness_p50",
	"herb_age_mean", "herb_age_p50",
	"herb_weight_mean", "herb_weight_std", "herb_weight_p10", "herb_weight_p50", "herb_weight_p90",
	"carn_fitness_mean", "carn_fitness_std", "carn_fitness_p50",
	"carn_age_mean", "carn_age_p50",
	"carn_weight_mean", "carn_weight_std", "carn_weight_p10", "carn_weight_p50", "carn_weight_p90",
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		map TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS census (
		run_id TEXT NOT NULL REFERENCES runs(id),
		year INTEGER NOT NULL,
		herbivores INTEGER NOT NULL,
		carnivores INTEGER NOT NULL,
		herb_births INTEGER NOT NULL,
		carn_births INTEGER NOT NULL,
		herb_deaths INTEGER NOT NULL,
		carn_deaths INTEGER NOT NULL,
		kills INTEGER NOT NULL,
		herb_migrations INTEGER NOT NULL,
		carn_migrations INTEGER NOT NULL,
		blocked_migrations INTEGER NOT NULL,
		grazed REAL NOT NULL,
		herb_fitness_mean REAL NOT NULL,
		herb_fitness_std REAL NOT NULL,
		herb_fitness_p50 REAL NOT NULL,
		herb_age_mean REAL NOT NULL,
		herb_age_p50 REAL NOT NULL,
		herb_weight_mean REAL NOT NULL,
		herb_weight_std REAL NOT NULL,
		herb_weight_p10 REAL NOT NULL,
		herb_weight_p50 REAL NOT NULL,
		herb_weight_p90 REAL NOT NULL,
		carn_fitness_mean REAL NOT NULL,
		carn_fitness_std REAL NOT NULL,
		carn_fitness_p50 REAL NOT NULL,
		carn_age_mean REAL NOT NULL,
		carn_age_p50 REAL NOT NULL,
		carn_weight_mean REAL NOT NULL,
		carn_weight_std REAL NOT NULL,
		carn_weight_p10 REAL NOT NULL,
		carn_weight_p50 REAL NOT NULL,
		carn_weight_p90 REAL NOT NULL,
		PRIMARY KEY (run_id, year)
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		type TEXT NOT NULL,
		year INTEGER NOT NULL,
		description TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_bookmarks_run ON bookmarks(run_id, year);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateRun registers a new run and returns its identifier.
func (db *DB) CreateRun(seed int64, islandMap string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO runs (id, seed, map, created_at) VALUES (?, ?, ?, ?)",
		id, seed, islandMap, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SaveYear stores one census row. Saving the same year twice replaces it.
func (db *DB) SaveYear(runID string, stats telemetry.YearStats) error {
	query := fmt.Sprintf("INSERT OR REPLACE INTO census (run_id, %s) VALUES (:run_id, :%s)",
		strings.Join(censusColumns, ", "), strings.Join(censusColumns, ", :"))
	if _, err := db.conn.NamedExec(query, censusRow{RunID: runID, YearStats: stats}); err != nil {
		return fmt.Errorf("insert census year %d: %w", stats.Year, err)
	}
	return nil
}

// SaveBookmark appends a bookmark to the run.
func (db *DB) SaveBookmark(runID string, b telemetry.Bookmark) error {
	_, err := db.conn.NamedExec(
		"INSERT INTO bookmarks (run_id, type, year, description) VALUES (:run_id, :type, :year, :description)",
		bookmarkRow{RunID: runID, Type: string(b.Type), Year: b.Year, Description: b.Description},
	)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	return nil
}

// Years returns a run's census rows ordered by year.
func (db *DB) Years(runID string) ([]telemetry.YearStats, error) {
	var rows []censusRow
	query := fmt.Sprintf("SELECT run_id, %s FROM census WHERE run_id = ? ORDER BY year",
		strings.Join(censusColumns, ", "))
	if err := db.conn.Select(&rows, query, runID); err != nil {
		return nil, fmt.Errorf("select census: %w", err)
	}
	out := make([]telemetry.YearStats, len(rows))
	for i, r := range rows {
		out[i] = r.YearStats
	}
	return out, nil
}

// Bookmarks returns a run's bookmarks in year order.
func (db *DB) Bookmarks(runID string) ([]telemetry.Bookmark, error) {
	var rows []bookmarkRow
	err := db.conn.Select(&rows,
		"SELECT run_id, type, year, description FROM bookmarks WHERE run_id = ? ORDER BY year, id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("select bookmarks: %w", err)
	}
	out := make([]telemetry.Bookmark, len(rows))
	for i, r := range rows {
		out[i] = telemetry.Bookmark{Type: telemetry.BookmarkType(r.Type), Year: r.Year, Description: r.Description}
	}
	return out, nil
}

// Runs lists stored runs, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, `
		SELECT r.id, r.seed, r.map, r.created_at,
			(SELECT COUNT(*) FROM census c WHERE c.run_id = r.id) AS years
		FROM runs r
		ORDER BY r.created_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	return runs, nil
}
