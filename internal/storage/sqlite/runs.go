package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/avickers/runwaysim/internal/sim"
	"github.com/avickers/runwaysim/pkg/logger"
	_ "modernc.org/sqlite"
)

// RunRecord is a persisted simulation run: its parameters and final
// counters.
type RunRecord struct {
	ID           int64     `json:"id"`
	Profile      string    `json:"profile"`
	Seed         int64     `json:"seed"`
	ArrivalCount int       `json:"arrival_count"`
	MeanScale    float64   `json:"mean_scale"`
	SDScale      float64   `json:"sd_scale"`
	FinalTime    int64     `json:"final_time"`
	Completed    bool      `json:"completed"`
	Na           int       `json:"na"`
	Nlq          int       `json:"nlq"`
	Nc           int       `json:"nc"`
	Nlz          int       `json:"nlz"`
	Ntp          int       `json:"ntp"`
	Nd           int       `json:"nd"`
	TOver4       int64     `json:"t_over4"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunStorage is a SQLite-based store for run results. Only the most recent
// run's event log is retained; saving a new log replaces the previous one.
type RunStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewRunStorage opens (or creates) the database at dbPath.
func NewRunStorage(dbPath string, log *logger.Logger) (*RunStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &RunStorage{db: db, logger: storageLogger}, nil
}

// Close closes the database connection
func (s *RunStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile TEXT NOT NULL,
			seed INTEGER NOT NULL,
			arrival_count INTEGER NOT NULL,
			mean_scale REAL NOT NULL DEFAULT 1,
			sd_scale REAL NOT NULL DEFAULT 1,
			final_time INTEGER NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			na INTEGER NOT NULL,
			nlq INTEGER NOT NULL,
			nc INTEGER NOT NULL,
			nlz INTEGER NOT NULL,
			ntp INTEGER NOT NULL,
			nd INTEGER NOT NULL,
			t_over4 INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS run_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			time INTEGER NOT NULL,
			event TEXT NOT NULL,
			future_arrivals TEXT,
			approaching TEXT,
			landing_queue TEXT,
			circling TEXT,
			landing_zone TEXT,
			done TEXT,
			future_arrivals_eta INTEGER,
			approaching_eta INTEGER,
			landing_queue_eta INTEGER,
			circling_eta INTEGER,
			landing_zone_eta INTEGER,
			na INTEGER, nlq INTEGER, nc INTEGER, nlz INTEGER, ntp INTEGER, nd INTEGER,
			over4 INTEGER,
			t_over4 INTEGER
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create run_events table: %w", err)
	}

	return nil
}

// SaveRun inserts a run record and returns its id.
func (s *RunStorage) SaveRun(rec *RunRecord) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO runs (profile, seed, arrival_count, mean_scale, sd_scale,
			final_time, completed, na, nlq, nc, nlz, ntp, nd, t_over4)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Profile, rec.Seed, rec.ArrivalCount, rec.MeanScale, rec.SDScale,
		rec.FinalTime, rec.Completed, rec.Na, rec.Nlq, rec.Nc, rec.Nlz, rec.Ntp, rec.Nd, rec.TOver4,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	s.logger.Debug("Saved run",
		logger.Int64("run_id", id),
		logger.String("profile", rec.Profile),
		logger.Int("nd", rec.Nd))
	return id, nil
}

// ReplaceEvents stores runID's event log, discarding any previously stored
// log. Persistence beyond a single run's log is out of scope, so only the
// latest run's events are queryable.
func (s *RunStorage) ReplaceEvents(runID int64, snapshots []sim.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM run_events"); err != nil {
		return fmt.Errorf("failed to clear previous event log: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_events (run_id, time, event,
			future_arrivals, approaching, landing_queue, circling, landing_zone, done,
			future_arrivals_eta, approaching_eta, landing_queue_eta, circling_eta, landing_zone_eta,
			na, nlq, nc, nlz, ntp, nd, over4, t_over4)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		if _, err := stmt.Exec(runID, snap.Time, snap.Event,
			snap.FutureArrivals, snap.Approaching, snap.LandingQueue, snap.Circling, snap.LandingZone, snap.Done,
			snap.FutureArrivalsETA, snap.ApproachingETA, snap.LandingQueueETA, snap.CirclingETA, snap.LandingZoneETA,
			snap.Na, snap.Nlq, snap.Nc, snap.Nlz, snap.Ntp, snap.Nd, snap.Over4, snap.TOver4,
		); err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event log: %w", err)
	}

	s.logger.Debug("Stored event log",
		logger.Int64("run_id", runID),
		logger.Int("events", len(snapshots)))
	return nil
}

// EventsForRun returns runID's stored event log, or an empty slice when the
// log has been replaced by a newer run.
func (s *RunStorage) EventsForRun(runID int64) ([]sim.Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT time, event,
			future_arrivals, approaching, landing_queue, circling, landing_zone, done,
			future_arrivals_eta, approaching_eta, landing_queue_eta, circling_eta, landing_zone_eta,
			na, nlq, nc, nlz, ntp, nd, over4, t_over4
		FROM run_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []sim.Snapshot
	for rows.Next() {
		var snap sim.Snapshot
		if err := rows.Scan(&snap.Time, &snap.Event,
			&snap.FutureArrivals, &snap.Approaching, &snap.LandingQueue, &snap.Circling, &snap.LandingZone, &snap.Done,
			&snap.FutureArrivalsETA, &snap.ApproachingETA, &snap.LandingQueueETA, &snap.CirclingETA, &snap.LandingZoneETA,
			&snap.Na, &snap.Nlq, &snap.Nc, &snap.Nlz, &snap.Ntp, &snap.Nd, &snap.Over4, &snap.TOver4,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// GetRun returns a run by id.
func (s *RunStorage) GetRun(id int64) (*RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, profile, seed, arrival_count, mean_scale, sd_scale,
			final_time, completed, na, nlq, nc, nlz, ntp, nd, t_over4, created_at
		FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	return rec, err
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStorage) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, profile, seed, arrival_count, mean_scale, sd_scale,
			final_time, completed, na, nlq, nc, nlz, ntp, nd, t_over4, created_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunRecord, error) {
	var rec RunRecord
	err := row.Scan(&rec.ID, &rec.Profile, &rec.Seed, &rec.ArrivalCount, &rec.MeanScale, &rec.SDScale,
		&rec.FinalTime, &rec.Completed, &rec.Na, &rec.Nlq, &rec.Nc, &rec.Nlz, &rec.Ntp, &rec.Nd,
		&rec.TOver4, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
