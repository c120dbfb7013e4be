// Package telemetry persists headless battle results to SQLite so runs
// can be compared across tuning sweeps.
package telemetry

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	seed INTEGER NOT NULL,
	ticks INTEGER NOT NULL DEFAULT 0,
	winner INTEGER,
	red_alive INTEGER NOT NULL DEFAULT 0,
	blue_alive INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id),
	tick INTEGER NOT NULL,
	actor TEXT NOT NULL,
	team INTEGER NOT NULL,
	category TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	num_val REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS captures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id),
	tick INTEGER NOT NULL,
	objective TEXT NOT NULL,
	owner INTEGER NOT NULL
);
`

// DB wraps the results database.
type DB struct {
	conn *sqlx.DB
}

// Open connects to the SQLite file at path, creating the schema when
// missing. WAL keeps concurrent readers cheap during long sweeps.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open telemetry db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping telemetry db: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate telemetry db: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close releases the database handle.
func (d *DB) Close() error {
	return d.conn.Close()
}

// StartRun records a new run and returns its id.
func (d *DB) StartRun(seed int64) (int64, error) {
	res, err := d.conn.Exec(
		`INSERT INTO runs (started_at, seed) VALUES (?, ?)`,
		time.Now().UTC().Format(time.RFC3339), seed,
	)
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stamps the run's outcome. winner is -1 for a draw.
func (d *DB) FinishRun(runID int64, ticks, winner, redAlive, blueAlive int) error {
	_, err := d.conn.Exec(
		`UPDATE runs SET ticks = ?, winner = ?, red_alive = ?, blue_alive = ? WHERE id = ?`,
		ticks, winner, redAlive, blueAlive, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", runID, err)
	}
	return nil
}

// RecordEvent stores one simulation event.
func (d *DB) RecordEvent(runID int64, tick int, actor string, team int, category, key, value string, numVal float64) error {
	_, err := d.conn.Exec(
		`INSERT INTO events (run_id, tick, actor, team, category, key, value, num_val)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, tick, actor, team, category, key, value, numVal,
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// RecordCapture stores an objective ownership change.
func (d *DB) RecordCapture(runID int64, tick int, objective string, owner int) error {
	_, err := d.conn.Exec(
		`INSERT INTO captures (run_id, tick, objective, owner) VALUES (?, ?, ?, ?)`,
		runID, tick, objective, owner,
	)
	if err != nil {
		return fmt.Errorf("record capture: %w", err)
	}
	return nil
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	ID        int64  `db:"id"`
	StartedAt string `db:"started_at"`
	Seed      int64  `db:"seed"`
	Ticks     int    `db:"ticks"`
	Winner    *int   `db:"winner"`
	RedAlive  int    `db:"red_alive"`
	BlueAlive int    `db:"blue_alive"`
}

// Runs returns all recorded runs, newest first.
func (d *DB) Runs() ([]RunSummary, error) {
	var out []RunSummary
	if err := d.conn.Select(&out, `SELECT * FROM runs ORDER BY id DESC`); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}
