package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based history store.
// Use ":memory:" for an in-memory database, or a file path for
// persistent storage (parent directories are created as needed).
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS publish_runs (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		repo TEXT NOT NULL,
		branch TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		commit_hash TEXT,
		files INTEGER NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_started_at ON publish_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_outcome ON publish_runs(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record adds a publish run to the store.
func (s *SQLiteStore) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO publish_runs (id, account, repo, branch, started_at, duration_ms, outcome, commit_hash, files, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.Account, run.Repo, run.Branch, run.StartedAt.Unix(), run.Duration.Milliseconds(),
		string(run.Outcome), run.Commit, run.Files, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert publish run: %w", err)
	}

	return nil
}

// Recent retrieves the most recent publish runs, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, account, repo, branch, started_at, duration_ms, outcome, commit_hash, files, error FROM publish_runs ORDER BY started_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query publish runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAtUnix, durationMS int64
		var outcome string

		err := rows.Scan(&r.ID, &r.Account, &r.Repo, &r.Branch, &startedAtUnix, &durationMS, &outcome, &r.Commit, &r.Files, &r.Error)
		if err != nil {
			return nil, fmt.Errorf("scan publish run: %w", err)
		}

		r.StartedAt = time.Unix(startedAtUnix, 0)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.Outcome = Outcome(outcome)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
