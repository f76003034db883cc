// Package history records locator and wait outcomes to SQLite for later
// inspection of flaky automation runs.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one resolved (or failed) operation.
type Record struct {
	ID         int64
	Kind       string
	Target     string
	Found      bool
	Confidence float64
	Duration   time.Duration
	Error      string
	CreatedAt  time.Time
}

// Recorder accepts operation outcomes. The zero-value Discard satisfies
// it for sessions that run with history disabled.
type Recorder interface {
	Record(rec Record) error
}

// Discard is a Recorder that drops everything.
type Discard struct{}

func (Discard) Record(Record) error { return nil }

// Store persists operation history in a SQLite database.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	// SQLite works best with a single connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	s := &Store{conn: conn, path: dbPath}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS operations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			target TEXT NOT NULL,
			found INTEGER NOT NULL,
			confidence REAL NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_operations_kind ON operations(kind);
		CREATE INDEX IF NOT EXISTS idx_operations_created ON operations(created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return nil
}

// Record inserts one operation outcome.
func (s *Store) Record(rec Record) error {
	_, err := s.conn.Exec(
		`INSERT INTO operations (kind, target, found, confidence, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Kind, rec.Target, rec.Found, rec.Confidence,
		rec.Duration.Milliseconds(), rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.conn.Query(
		`SELECT id, kind, target, found, confidence, duration_ms, error, created_at
		 FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec        Record
			durationMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.Target, &rec.Found,
			&rec.Confidence, &durationMs, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes records older than the retention window.
func (s *Store) Prune(olderThan time.Duration) (int64, error) {
	res, err := s.conn.Exec(
		`DELETE FROM operations WHERE created_at < ?`,
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}
