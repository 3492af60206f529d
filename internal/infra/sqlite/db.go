// Package sqlite provides SQLite-based persistent storage for lumen.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/lumen-display/lumen/internal/domain"
)

// Policy layer names used as storage keys.
const (
	LayerDisplayManager = "display_manager"
	LayerOverride       = "override"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Policy layers, serialized as JSON per layer
		`CREATE TABLE IF NOT EXISTS policies (
			layer      TEXT PRIMARY KEY,
			policy     TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		// One row per refresh rate decision
		`CREATE TABLE IF NOT EXISTS decision_journal (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			mode_id     INTEGER NOT NULL,
			fps         REAL NOT NULL,
			touch       BOOLEAN NOT NULL DEFAULT 0,
			idle        BOOLEAN NOT NULL DEFAULT 0,
			layer_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_ts ON decision_journal(timestamp)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Policy Persistence ─────────────────────────────────────────────────────

// SavePolicy stores one policy layer.
func (d *DB) SavePolicy(layer string, p domain.Policy) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode policy: %w", err)
	}
	_, err = d.db.Exec(
		`INSERT INTO policies (layer, policy, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(layer) DO UPDATE SET
			policy=excluded.policy,
			updated_at=excluded.updated_at`,
		layer, string(raw), time.Now().Unix(),
	)
	return err
}

// LoadPolicy retrieves one policy layer. Returns (nil, nil) when the
// layer was never stored.
func (d *DB) LoadPolicy(layer string) (*domain.Policy, error) {
	var raw string
	err := d.db.QueryRow(`SELECT policy FROM policies WHERE layer = ?`, layer).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var p domain.Policy
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	return &p, nil
}

// ClearPolicy removes one policy layer.
func (d *DB) ClearPolicy(layer string) error {
	_, err := d.db.Exec(`DELETE FROM policies WHERE layer = ?`, layer)
	return err
}

// ─── Decision Journal ───────────────────────────────────────────────────────

// JournalEntry is one recorded refresh rate decision.
type JournalEntry struct {
	ID         int64                `json:"id"`
	Timestamp  time.Time            `json:"timestamp"`
	ModeID     domain.ModeID        `json:"mode_id"`
	Fps        domain.Fps           `json:"fps"`
	Signals    domain.GlobalSignals `json:"signals"`
	LayerCount int                  `json:"layer_count"`
}

// AppendDecision records one selection outcome.
func (d *DB) AppendDecision(sel domain.Selection, layerCount int, at time.Time) error {
	_, err := d.db.Exec(
		`INSERT INTO decision_journal (timestamp, mode_id, fps, touch, idle, layer_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		at.Unix(), sel.Mode.ID, float64(sel.Mode.Fps),
		sel.Signals.Touch, sel.Signals.Idle, layerCount,
	)
	return err
}

// RecentDecisions returns the newest entries, most recent first.
func (d *DB) RecentDecisions(limit int) ([]JournalEntry, error) {
	rows, err := d.db.Query(
		`SELECT id, timestamp, mode_id, fps, touch, idle, layer_count
		 FROM decision_journal ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var ts int64
		var fps float64
		if err := rows.Scan(&e.ID, &ts, &e.ModeID, &fps,
			&e.Signals.Touch, &e.Signals.Idle, &e.LayerCount); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0)
		e.Fps = domain.Fps(fps)
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneDecisions deletes entries older than the cutoff and returns how
// many were removed.
func (d *DB) PruneDecisions(before time.Time) (int64, error) {
	res, err := d.db.Exec(`DELETE FROM decision_journal WHERE timestamp < ?`, before.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
