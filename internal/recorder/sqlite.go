package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"StrikeSentinel/internal/model"
)

// SQLiteRecorder persists fetch outcomes to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dbPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_outcomes (
			id           TEXT PRIMARY KEY,
			timestamp    INTEGER NOT NULL,
			trigger_type TEXT NOT NULL,
			duration_ms  INTEGER,
			success      INTEGER NOT NULL,
			error_kind   TEXT,
			error        TEXT,
			row_count    INTEGER,
			expiry       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_ts ON fetch_outcomes(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordFetch(o *model.FetchOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_outcomes
		(id, timestamp, trigger_type, duration_ms, success, error_kind, error, row_count, expiry)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		o.ID, o.Timestamp.UnixMilli(), string(o.Trigger), o.Duration.Milliseconds(),
		o.Success, string(o.ErrorKind), o.Error, o.RowCount, o.Expiry,
	)
	if err != nil {
		return fmt.Errorf("insert fetch outcome: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecentFetches(limit int) ([]model.FetchOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, trigger_type, duration_ms, success, error_kind, error, row_count, expiry
		FROM fetch_outcomes ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query fetch outcomes: %w", err)
	}
	defer rows.Close()

	var out []model.FetchOutcome
	for rows.Next() {
		var (
			o            model.FetchOutcome
			ts, durMS    int64
			trigger      string
			kind, expiry string
		)
		if err := rows.Scan(&o.ID, &ts, &trigger, &durMS, &o.Success, &kind, &o.Error, &o.RowCount, &expiry); err != nil {
			return nil, fmt.Errorf("scan fetch outcome: %w", err)
		}
		o.Timestamp = time.UnixMilli(ts).UTC()
		o.Trigger = model.TriggerType(trigger)
		o.Duration = time.Duration(durMS) * time.Millisecond
		o.ErrorKind = model.ErrorKind(kind)
		o.Expiry = expiry
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
