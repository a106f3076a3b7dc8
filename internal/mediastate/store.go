// Package mediastate records which media objects already made it to the
// target bucket so interrupted runs resume without re-downloading or
// re-uploading everything. State lives in a SQLite database next to the
// games directory.
package mediastate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"jigport/internal/services"
)

const schema = `
CREATE TABLE IF NOT EXISTS transfers (
    key          TEXT PRIMARY KEY,
    game_id      TEXT NOT NULL,
    bytes        INTEGER NOT NULL DEFAULT 0,
    completed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transfers_game ON transfers(game_id);
`

// Store tracks completed media transfers.
type Store struct {
	db   *sql.DB
	path string
}

// Stats summarizes recorded transfers.
type Stats struct {
	Objects int64
	Bytes   int64
}

// Open initializes or connects to the transfer database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// IsDone reports whether the object key was already transferred.
func (s *Store) IsDone(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM transfers WHERE key = ?`, key).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, services.Wrap(services.ErrLedger, "media", "state", key, err)
	}
	return true, nil
}

// MarkDone records a completed transfer. Re-marking an existing key updates
// the recorded size and timestamp.
func (s *Store) MarkDone(ctx context.Context, key, gameID string, bytes int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfers (key, game_id, bytes, completed_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET bytes = excluded.bytes, completed_at = excluded.completed_at`,
		key, gameID, bytes, now)
	if err != nil {
		return services.Wrap(services.ErrLedger, "media", "state", key, err)
	}
	return nil
}

// Stats returns totals across all recorded transfers.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(bytes), 0) FROM transfers`).
		Scan(&stats.Objects, &stats.Bytes)
	if err != nil {
		return Stats{}, services.Wrap(services.ErrLedger, "media", "state", "stats", err)
	}
	return stats, nil
}

// GameStats returns totals for a single game.
func (s *Store) GameStats(ctx context.Context, gameID string) (Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(bytes), 0) FROM transfers WHERE game_id = ?`, gameID).
		Scan(&stats.Objects, &stats.Bytes)
	if err != nil {
		return Stats{}, services.Wrap(services.ErrLedger, "media", "state", gameID, err)
	}
	return stats, nil
}
