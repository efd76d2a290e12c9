package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/ottolift/internal/domain"
	"github.com/hammamikhairi/ottolift/internal/logger"
)

// Compile-time interface check.
var _ domain.SetLog = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS sets (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	exercise      TEXT NOT NULL,
	reps          INTEGER NOT NULL,
	eccentric_ms  INTEGER NOT NULL,
	hold_ms       INTEGER NOT NULL,
	concentric_ms INTEGER NOT NULL,
	finished_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sets_exercise ON sets(exercise COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_sets_finished_at ON sets(finished_at);
`

// SQLiteStore persists finished sets in a SQLite file so history survives
// restarts.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logger.Logger
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string, log *logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	log.Debug("set log opened at %s", path)
	return &SQLiteStore{db: db, log: log}, nil
}

// Append records a finished set.
func (s *SQLiteStore) Append(ctx context.Context, rec *domain.SetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sets (id, exercise, reps, eccentric_ms, hold_ms, concentric_ms, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Exercise, rec.Reps,
		rec.Tempo.Eccentric.Milliseconds(), rec.Tempo.Hold.Milliseconds(), rec.Tempo.Concentric.Milliseconds(),
		rec.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("inserting set %s: %w", rec.ID, err)
	}

	s.log.Debug("logged set %s (%s, %d reps)", rec.ID, rec.Exercise, rec.Reps)
	return nil
}

// List returns up to limit records, newest first. An empty exercise
// matches every record; matching is case-insensitive. A limit of zero or
// less means no limit.
func (s *SQLiteStore) List(ctx context.Context, exercise string, limit int) ([]*domain.SetRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, exercise, reps, eccentric_ms, hold_ms, concentric_ms, finished_at
		FROM sets
		WHERE ? = '' OR exercise = ? COLLATE NOCASE
		ORDER BY finished_at DESC, seq DESC
		LIMIT ?
	`, exercise, exercise, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var out []*domain.SetRecord
	for rows.Next() {
		var (
			rec           domain.SetRecord
			ecc, hold, cc int64
			finished      int64
		)
		if err := rows.Scan(&rec.ID, &rec.Exercise, &rec.Reps, &ecc, &hold, &cc, &finished); err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		rec.Tempo = domain.TempoDurations{
			Eccentric:  time.Duration(ecc) * time.Millisecond,
			Hold:       time.Duration(hold) * time.Millisecond,
			Concentric: time.Duration(cc) * time.Millisecond,
		}
		rec.FinishedAt = time.UnixMilli(finished)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
